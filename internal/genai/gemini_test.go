package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/adcraftlabs/adcraft/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testGeminiConfig() config.GeminiConfig {
	return config.GeminiConfig{
		APIKey:  "test-key",
		Model:   "gemini-3-pro-image-preview",
		Timeout: 5 * time.Second,
	}
}

func TestGenerate_ImageResponse(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-3-pro-image-preview:generateContent", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		cfg, _ := req["generationConfig"].(map[string]any)
		assert.Contains(t, cfg["responseModalities"], "IMAGE")

		fmt.Fprintf(w, `{"candidates":[{"content":{"parts":[
			{"text":"here is your ad"},
			{"inlineData":{"mimeType":"image/png","data":%q}}
		]}}]}`, base64.StdEncoding.EncodeToString(imageBytes))
	}))
	defer server.Close()

	g := NewGeminiWithBaseURL(testGeminiConfig(), zap.NewNop(), server.URL)

	result, err := g.Generate(context.Background(), "make an ad", nil)
	require.NoError(t, err)
	assert.True(t, result.HasImage())
	assert.Equal(t, "image/png", result.ImageMIME)
	assert.Equal(t, imageBytes, result.ImageData)
	assert.Equal(t, "here is your ad", result.Text)
}

func TestGenerate_TextOnlyIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"cannot draw that"}]}}]}`)
	}))
	defer server.Close()

	g := NewGeminiWithBaseURL(testGeminiConfig(), zap.NewNop(), server.URL)

	result, err := g.Generate(context.Background(), "make an ad", nil)
	require.NoError(t, err)
	assert.False(t, result.HasImage())
	assert.Equal(t, "cannot draw that", result.Text)
}

func TestGenerate_SendsInputImages(t *testing.T) {
	source := []byte("source-image")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MIMEType)
		assert.Equal(t, base64.StdEncoding.EncodeToString(source), req.Contents[0].Parts[1].InlineData.Data)

		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer server.Close()

	g := NewGeminiWithBaseURL(testGeminiConfig(), zap.NewNop(), server.URL)

	_, err := g.Generate(context.Background(), "edit this", []ImageInput{{MIMEType: "image/jpeg", Data: source}})
	require.NoError(t, err)
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":429,"message":"quota exceeded"}}`)
	}))
	defer server.Close()

	g := NewGeminiWithBaseURL(testGeminiConfig(), zap.NewNop(), server.URL)

	_, err := g.Generate(context.Background(), "make an ad", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGenerate_MissingAPIKey(t *testing.T) {
	g := NewGemini(config.GeminiConfig{Model: "gemini-3-pro-image-preview"}, zap.NewNop())

	_, err := g.Generate(context.Background(), "make an ad", nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}
