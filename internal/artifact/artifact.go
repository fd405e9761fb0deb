// Package artifact stores generated images in an S3-compatible bucket
// and serves them from a public base URL.
package artifact

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
)

// Store persists image bytes under a key and returns the public URL.
type Store interface {
	Upload(ctx context.Context, key, mimeType string, data []byte) (string, error)
}

var (
	ErrInvalidPayload = errors.New("invalid_image_payload")
	ErrNotConfigured  = errors.New("storage_not_configured")
	ErrUploadFailed   = errors.New("upload_failed")
)

// ParseDataURL decodes a `data:<mime>;base64,<data>` payload, the wire
// format the model responses are carried in.
func ParseDataURL(payload string) (string, []byte, error) {
	if !strings.HasPrefix(payload, "data:") {
		return "", nil, ErrInvalidPayload
	}

	meta, encoded, found := strings.Cut(payload[len("data:"):], ",")
	if !found {
		return "", nil, ErrInvalidPayload
	}
	if !strings.HasSuffix(meta, ";base64") {
		return "", nil, ErrInvalidPayload
	}

	mimeType := strings.TrimSuffix(meta, ";base64")
	if mimeType == "" {
		return "", nil, ErrInvalidPayload
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", nil, ErrInvalidPayload
	}
	if len(data) == 0 {
		return "", nil, ErrInvalidPayload
	}
	return mimeType, data, nil
}

// FormatDataURL is the inverse of ParseDataURL.
func FormatDataURL(mimeType string, data []byte) string {
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// Extension maps a mime type to the object key suffix.
func Extension(mimeType string) string {
	switch mimeType {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return "bin"
	}
}

// JoinURL concatenates the public base URL and an object key without
// doubling or dropping slashes.
func JoinURL(baseURL, key string) string {
	return strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(key, "/")
}
