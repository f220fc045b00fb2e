package chunking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicCounter_Count(t *testing.T) {
	counter := HeuristicCounter{}

	assert.Equal(t, 0, counter.Count(""))
	assert.Equal(t, 1, counter.Count("ab"))
	assert.Equal(t, 1, counter.Count("abcd"))
	assert.Equal(t, 2, counter.Count("abcdefgh"))
	assert.Equal(t, 10, counter.Count("0123456789012345678901234567890123456789"))
}

// TestTiktokenCounter_Count exercises the exact BPE counter when its
// encoding data is present on this machine
func TestTiktokenCounter_Count(t *testing.T) {
	counter, err := NewTiktokenCounter()
	if err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	assert.Greater(t, counter.Count("Hello, world!"), 0)
	assert.Less(t,
		counter.Count("short"),
		counter.Count("a considerably longer sentence with many more words in it"))
}

func TestNewTokenCounter_AlwaysUsable(t *testing.T) {
	counter := NewTokenCounter()

	// Whichever backend was selected, counting must work.
	assert.NotNil(t, counter)
	assert.Greater(t, counter.Count("some text to count"), 0)
	assert.Equal(t, 0, counter.Count(""))
}
