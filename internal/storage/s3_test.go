package storage

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type s3Request struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// fakeS3 records object requests and answers like a path-style S3 endpoint
type fakeS3 struct {
	mu       sync.Mutex
	requests []s3Request
	deny     bool
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.requests = append(f.requests, s3Request{
		method:      r.Method,
		path:        r.URL.Path,
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	})
	deny := f.deny
	f.mu.Unlock()

	if deny {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>AccessDenied</Code><Message>Access Denied</Message></Error>`)
		return
	}
	switch r.Method {
	case http.MethodPut:
		w.Header().Set("ETag", `"d41d8cd98f00b204e9800998ecf8427e"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (f *fakeS3) last() s3Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func (f *fakeS3) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func newTestS3Store(t *testing.T, opts S3Options) (*S3Store, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")

	fake := &fakeS3{}
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	opts.Endpoint = server.URL
	store, err := NewS3Store(context.Background(), opts)
	require.NoError(t, err)
	return store, fake
}

func TestS3Store(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestS3Store(t, S3Options{
		Bucket:    "recipes",
		Region:    "us-east-1",
		AccessKey: "test-key",
		SecretKey: "test-secret",
		PublicURL: "https://cdn.example.com/",
	})

	img, err := DecodeDataURI(dataURI("image/png", pixel))
	require.NoError(t, err)

	key, err := store.Save(ctx, img)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "recipes/images/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	put := fake.last()
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/recipes/"+key, put.path, "bucket goes in the path")
	assert.Equal(t, "image/png", put.contentType)
	assert.True(t, bytes.Contains(put.body, pixel), "object body carries the image")

	assert.Equal(t, "https://cdn.example.com/"+key, store.URL(key))
	assert.Empty(t, store.URL(""))

	require.NoError(t, store.Delete(ctx, key))
	del := fake.last()
	assert.Equal(t, http.MethodDelete, del.method)
	assert.Equal(t, "/recipes/"+key, del.path)

	t.Run("empty key is not sent", func(t *testing.T) {
		before := fake.count()
		require.NoError(t, store.Delete(ctx, ""))
		assert.Equal(t, before, fake.count())
	})

	t.Run("upload errors are returned", func(t *testing.T) {
		fake.mu.Lock()
		fake.deny = true
		fake.mu.Unlock()
		t.Cleanup(func() {
			fake.mu.Lock()
			fake.deny = false
			fake.mu.Unlock()
		})

		_, err := store.Save(ctx, img)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "upload image")

		err = store.Delete(ctx, key)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "delete image")
	})
}

func TestS3StoreDefaultPublicURL(t *testing.T) {
	store, _ := newTestS3Store(t, S3Options{
		Bucket:    "recipes",
		Region:    "eu-west-1",
		AccessKey: "test-key",
		SecretKey: "test-secret",
	})
	assert.Equal(t, "https://recipes.s3.eu-west-1.amazonaws.com/recipes/images/a.png",
		store.URL("recipes/images/a.png"))
}
