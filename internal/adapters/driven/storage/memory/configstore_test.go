package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore_SetAndGet(t *testing.T) {
	store := NewConfigStore()

	require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

	val, ok := store.Get("embedding.model")
	assert.True(t, ok)
	assert.Equal(t, "nomic-embed-text", val)
}

func TestNewConfigStoreFrom_SeedsAndCopies(t *testing.T) {
	seed := map[string]any{"embedding.provider": "ollama"}
	store := NewConfigStoreFrom(seed)

	assert.Equal(t, "ollama", store.GetString("embedding.provider"))

	// Mutating the seed map must not affect the store
	seed["embedding.provider"] = "openai"
	assert.Equal(t, "ollama", store.GetString("embedding.provider"))
}

func TestConfigStore_Get_Missing(t *testing.T) {
	store := NewConfigStore()

	_, ok := store.Get("nonexistent")
	assert.False(t, ok)
}

func TestConfigStore_GetString(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("name", "searchcore")
	_ = store.Set("count", 42)

	assert.Equal(t, "searchcore", store.GetString("name"))
	assert.Empty(t, store.GetString("count"))
	assert.Empty(t, store.GetString("missing"))
}

func TestConfigStore_GetInt(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("int", 10)
	_ = store.Set("int64", int64(20))
	_ = store.Set("float", 30.5)
	_ = store.Set("string", "notanint")

	assert.Equal(t, 10, store.GetInt("int"))
	assert.Equal(t, 20, store.GetInt("int64"))
	assert.Equal(t, 30, store.GetInt("float"))
	assert.Zero(t, store.GetInt("string"))
	assert.Zero(t, store.GetInt("missing"))
}

func TestConfigStore_GetFloat(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("threshold", 0.5)
	_ = store.Set("int", 2)
	_ = store.Set("string", "notafloat")

	assert.InDelta(t, 0.5, store.GetFloat("threshold"), 1e-9)
	assert.InDelta(t, 2.0, store.GetFloat("int"), 1e-9)
	assert.Zero(t, store.GetFloat("string"))
	assert.Zero(t, store.GetFloat("missing"))
}

func TestConfigStore_GetBool(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("enabled", true)
	_ = store.Set("string", "true")

	assert.True(t, store.GetBool("enabled"))
	assert.False(t, store.GetBool("string"))
	assert.False(t, store.GetBool("missing"))
}

func TestConfigStore_GetStringSlice(t *testing.T) {
	store := NewConfigStore()

	_ = store.Set("fields", []string{"transcript", "title"})
	_ = store.Set("mixed", []any{"summary", 42, "context"})

	assert.Equal(t, []string{"transcript", "title"}, store.GetStringSlice("fields"))
	assert.Equal(t, []string{"summary", "context"}, store.GetStringSlice("mixed"))
	assert.Nil(t, store.GetStringSlice("missing"))
}

func TestConfigStore_SaveAndLoad_NoOps(t *testing.T) {
	store := NewConfigStore()

	assert.NoError(t, store.Save())
	assert.NoError(t, store.Load())
	assert.Equal(t, ":memory:", store.Path())
}
