package storage

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// MaxImageBytes caps a decoded recipe image
const MaxImageBytes = 5 << 20

// ErrInvalidImage is returned for payloads that are not a supported base64 data URI
var ErrInvalidImage = errors.New("invalid image")

var extensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/gif":  "gif",
	"image/webp": "webp",
}

// Image is a decoded upload
type Image struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ImageStore persists recipe images and maps stored keys to public URLs
type ImageStore interface {
	// Save stores the image and returns its key
	Save(ctx context.Context, img *Image) (string, error)
	// Delete removes the object; a missing object is not an error
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// DecodeDataURI parses "data:image/png;base64,<payload>"
func DecodeDataURI(uri string) (*Image, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(uri), "data:")
	if !ok {
		return nil, fmt.Errorf("%w: expected a data URI", ErrInvalidImage)
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("%w: missing payload", ErrInvalidImage)
	}
	contentType, ok := strings.CutSuffix(header, ";base64")
	if !ok {
		return nil, fmt.Errorf("%w: payload must be base64 encoded", ErrInvalidImage)
	}
	contentType = strings.ToLower(contentType)
	ext, ok := extensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", ErrInvalidImage, contentType)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+3 {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", ErrInvalidImage)
	}
	if len(data) > MaxImageBytes {
		return nil, fmt.Errorf("%w: image exceeds %d bytes", ErrInvalidImage, MaxImageBytes)
	}
	return &Image{Data: data, ContentType: contentType, Extension: ext}, nil
}

func newKey(img *Image) string {
	return fmt.Sprintf("recipes/images/%s.%s", uuid.NewString(), img.Extension)
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
