package genai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/adcraftlabs/adcraft/internal/config"
	"go.uber.org/zap"
)

const defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini calls the Generative Language API with image response
// modalities enabled.
type Gemini struct {
	apiKey  string
	model   string
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

func NewGemini(cfg config.GeminiConfig, log *zap.Logger) *Gemini {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gemini{
		apiKey:  strings.TrimSpace(cfg.APIKey),
		model:   cfg.Model,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log.Named("genai.gemini"),
	}
}

// NewGeminiWithBaseURL is used by tests to point the client at a stub server.
func NewGeminiWithBaseURL(cfg config.GeminiConfig, log *zap.Logger, baseURL string) *Gemini {
	g := NewGemini(cfg, log)
	g.baseURL = strings.TrimRight(baseURL, "/")
	return g
}

type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MIMEType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig struct {
		ResponseModalities []string `json:"responseModalities"`
	} `json:"generationConfig"`
}

type geminiResponsePart struct {
	Text       string `json:"text"`
	InlineData *struct {
		MIMEType string `json:"mimeType"`
		Data     string `json:"data"`
	} `json:"inlineData"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiResponsePart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (g *Gemini) Generate(ctx context.Context, prompt string, inputs []ImageInput) (Result, error) {
	if g.apiKey == "" {
		return Result{}, ErrNotConfigured
	}

	parts := []geminiPart{{Text: prompt}}
	for _, input := range inputs {
		parts = append(parts, geminiPart{
			InlineData: &geminiInlineData{
				MIMEType: input.MIMEType,
				Data:     base64.StdEncoding.EncodeToString(input.Data),
			},
		})
	}

	request := geminiRequest{Contents: []geminiContent{{Parts: parts}}}
	request.GenerationConfig.ResponseModalities = []string{"TEXT", "IMAGE"}

	body, err := json.Marshal(request)
	if err != nil {
		return Result{}, err
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", g.baseURL, g.model, g.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return Result{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return Result{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, err
	}

	var parsed geminiResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Result{}, fmt.Errorf("parse model response: %w", err)
	}
	if parsed.Error != nil {
		return Result{}, fmt.Errorf("model error %d: %s", parsed.Error.Code, parsed.Error.Message)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return Result{}, ErrEmptyResponse
	}

	var result Result
	for _, part := range parsed.Candidates[0].Content.Parts {
		if part.Text != "" {
			if result.Text != "" {
				result.Text += "\n"
			}
			result.Text += part.Text
		}
		if part.InlineData != nil && result.ImageData == nil {
			data, err := base64.StdEncoding.DecodeString(part.InlineData.Data)
			if err != nil {
				return Result{}, fmt.Errorf("decode model image: %w", err)
			}
			result.ImageMIME = part.InlineData.MIMEType
			result.ImageData = data
		}
	}

	if !result.HasImage() {
		g.log.Info("model returned text only", zap.String("model", g.model))
	}
	return result, nil
}
