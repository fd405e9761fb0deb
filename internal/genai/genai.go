// Package genai abstracts the image-generation model provider.
package genai

import (
	"context"
	"errors"
)

// ImageInput is a source image supplied alongside the prompt, used by
// the edit flow.
type ImageInput struct {
	MIMEType string
	Data     []byte
}

// Result is a single model response. ImageData is nil when the model
// answered with text only, which is a normal outcome and not an error.
type Result struct {
	Text      string
	ImageMIME string
	ImageData []byte
}

// HasImage reports whether the model produced an image.
func (r Result) HasImage() bool {
	return len(r.ImageData) > 0
}

type ImageGenerator interface {
	Generate(ctx context.Context, prompt string, inputs []ImageInput) (Result, error)
}

var (
	ErrNotConfigured = errors.New("genai_not_configured")
	ErrEmptyResponse = errors.New("genai_empty_response")
)
