package artifact

import (
	"context"
	"encoding/base64"
	"testing"

	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParseDataURL(t *testing.T) {
	payload := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png-bytes"))

	mimeType, data, err := ParseDataURL(payload)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("png-bytes"), data)
}

func TestParseDataURL_Invalid(t *testing.T) {
	cases := []string{
		"",
		"https://example.com/image.png",
		"data:image/png;base64",
		"data:;base64,aGk",
		"data:image/png,plain",
		"data:image/png;base64,%%%",
		"data:image/png;base64,",
	}
	for _, payload := range cases {
		_, _, err := ParseDataURL(payload)
		assert.ErrorIs(t, err, ErrInvalidPayload, "payload %q", payload)
	}
}

func TestFormatDataURL_RoundTrip(t *testing.T) {
	mimeType, data, err := ParseDataURL(FormatDataURL("image/webp", []byte{1, 2, 3}))
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
	assert.Equal(t, []byte{1, 2, 3}, data)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "png", Extension("image/png"))
	assert.Equal(t, "jpg", Extension("image/jpeg"))
	assert.Equal(t, "webp", Extension("image/webp"))
	assert.Equal(t, "bin", Extension("application/octet-stream"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example.com/a/b.png", JoinURL("https://cdn.example.com", "a/b.png"))
	assert.Equal(t, "https://cdn.example.com/a/b.png", JoinURL("https://cdn.example.com/", "/a/b.png"))
	assert.Equal(t, "https://cdn.example.com/a/b.png", JoinURL("https://cdn.example.com/", "a/b.png"))
}

func TestUpload_NotConfigured(t *testing.T) {
	store, err := NewS3Store(config.R2Config{}, zap.NewNop())
	require.NoError(t, err)

	_, err = store.Upload(context.Background(), "k", "image/png", []byte{1})
	assert.ErrorIs(t, err, ErrNotConfigured)
}
