package domain

import "math"

// Vector helpers shared by the chunking pipeline and the vector
// adapters. All operate on float32 slices as produced by the
// embedding backends.

// CosineSimilarity returns the cosine of the angle between a and b.
// Returns 0 for mismatched lengths or zero-magnitude inputs.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// NormalizeVector scales v to unit L2 norm in place and returns it.
// A zero vector is returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return v
	}
	mag := math.Sqrt(sum)
	for i := range v {
		v[i] = float32(float64(v[i]) / mag)
	}
	return v
}

// MeanPool returns the component-wise mean of the given vectors.
// All vectors must share the same length; returns nil for empty or
// inconsistent input.
func MeanPool(vectors [][]float32) []float32 {
	if len(vectors) == 0 {
		return nil
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil
	}
	sums := make([]float64, dim)
	for _, v := range vectors {
		if len(v) != dim {
			return nil
		}
		for i, x := range v {
			sums[i] += float64(x)
		}
	}
	out := make([]float32, dim)
	n := float64(len(vectors))
	for i, s := range sums {
		out[i] = float32(s / n)
	}
	return out
}

// TruncateVector returns the first dims components of v, renormalised
// to unit length when renormalize is set. Embeddings trained with
// matryoshka representation learning stay meaningful under this
// prefix truncation. If dims >= len(v) the vector is returned as is
// (copied when renormalising so the input stays untouched).
func TruncateVector(v []float32, dims int, renormalize bool) []float32 {
	if dims <= 0 {
		return nil
	}
	if dims >= len(v) {
		dims = len(v)
	}
	out := make([]float32, dims)
	copy(out, v[:dims])
	if renormalize {
		NormalizeVector(out)
	}
	return out
}
