package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileCatalogState(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "catalog_state_test")
	require.NoError(t, err)
	defer os.RemoveAll(tmpDir)

	tests := []struct {
		name        string
		filename    string
		data        []byte
		expectError bool
	}{
		{
			name:        "basic catalog load",
			filename:    "catalog.json",
			data:        []byte(`{"ingredients": [{"id": "p1", "name": "Egg", "weightInGrams": 50}]}`),
			expectError: false,
		},
		{
			name:        "empty catalog file",
			filename:    "empty.json",
			data:        []byte(`{"ingredients": []}`),
			expectError: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filePath := filepath.Join(tmpDir, tt.filename)

			// Create the test file
			err := os.WriteFile(filePath, tt.data, 0644)
			require.NoError(t, err)

			catalogState := NewFileCatalogState(filePath)
			ctx := context.Background()

			loadedData, err := catalogState.Load(ctx)
			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.data, loadedData)
		})
	}

	t.Run("load nonexistent catalog", func(t *testing.T) {
		nonexistentPath := filepath.Join(tmpDir, "nonexistent.json")
		catalogState := NewFileCatalogState(nonexistentPath)
		_, err := catalogState.Load(context.Background())
		assert.Error(t, err)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestTestCatalogState(t *testing.T) {
	t.Run("returns data", func(t *testing.T) {
		state := NewTestCatalogState([]byte(`{"ingredients": []}`))
		data, err := state.Load(context.Background())
		require.NoError(t, err)
		assert.JSONEq(t, `{"ingredients": []}`, string(data))
	})

	t.Run("returns error", func(t *testing.T) {
		state := NewTestCatalogStateWithError()
		_, err := state.Load(context.Background())
		assert.Error(t, err)
	})
}
