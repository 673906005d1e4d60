package storage

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pixel = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestDecodeDataURI(t *testing.T) {
	t.Run("valid png", func(t *testing.T) {
		img, err := DecodeDataURI(dataURI("image/png", pixel))
		require.NoError(t, err)
		assert.Equal(t, "image/png", img.ContentType)
		assert.Equal(t, "png", img.Extension)
		assert.Equal(t, pixel, img.Data)
	})

	tests := []struct {
		name  string
		input string
	}{
		{"not a data uri", "http://example.com/a.png"},
		{"no payload", "data:image/png;base64"},
		{"not base64", "data:image/png,abc"},
		{"unsupported type", dataURI("text/plain", []byte("hi"))},
		{"corrupt payload", "data:image/png;base64,!!!"},
		{"empty payload", "data:image/png;base64,"},
		{"too large", dataURI("image/png", make([]byte, MaxImageBytes+1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeDataURI(tt.input)
			assert.ErrorIs(t, err, ErrInvalidImage)
		})
	}
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root, "/media/")

	img, err := DecodeDataURI(dataURI("image/jpeg", pixel))
	require.NoError(t, err)

	key, err := store.Save(ctx, img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".jpg"))
	assert.Equal(t, "/media/"+key, store.URL(key))

	stored, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(key)))
	require.NoError(t, err)
	assert.Equal(t, pixel, stored)

	require.NoError(t, store.Delete(ctx, key))
	_, err = os.Stat(filepath.Join(root, filepath.FromSlash(key)))
	assert.True(t, os.IsNotExist(err))

	assert.NoError(t, store.Delete(ctx, key), "deleting twice is not an error")
	assert.Empty(t, store.URL(""))
}
