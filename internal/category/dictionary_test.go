package category

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/market-scout/internal/model"
)

func TestDefaultDictionaryEntriesComplete(t *testing.T) {
	for _, e := range DefaultDictionary() {
		assert.NotEmpty(t, e.Term)
		assert.NotEmpty(t, e.Key)
		assert.NotEmpty(t, e.Value)
	}
}

func TestLoadDictionary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	content := `
- term: coffee shop
  key: shop
  value: coffee
- term: surf shop
  key: shop
  value: sports
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	dict, err := LoadDictionary(path)
	require.NoError(t, err)

	// File entries are prepended, so they win ties against the built-ins.
	r := NewResolver(dict)
	assert.Equal(t, model.CategoryTag{Key: "shop", Value: "coffee"},
		r.Resolve(context.Background(), "coffee shop"))
	assert.Equal(t, model.CategoryTag{Key: "shop", Value: "sports"},
		r.Resolve(context.Background(), "surf shop"))

	// Built-ins remain available.
	assert.Equal(t, model.CategoryTag{Key: "amenity", Value: "pharmacy"},
		r.Resolve(context.Background(), "pharmacy"))
}

func TestLoadDictionaryRejectsIncompleteEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dictionary.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- term: broken\n  key: shop\n"), 0o600))

	_, err := LoadDictionary(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty term, key, or value")
}

func TestLoadDictionaryMissingFile(t *testing.T) {
	_, err := LoadDictionary(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
