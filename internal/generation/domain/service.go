package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type GenerateRequest struct {
	AccountID      snowflake.ID `json:"-"`
	Format         string       `json:"format"`
	ProductName    string       `json:"product_name"`
	CatchCopy      string       `json:"catch_copy,omitempty"`
	Description    string       `json:"description,omitempty"`
	TargetAudience string       `json:"target_audience,omitempty"`
	Tone           string       `json:"tone,omitempty"`
	PrimaryColor   string       `json:"primary_color,omitempty"`
	SecondaryColor string       `json:"secondary_color,omitempty"`
	// ReferenceImage is an optional data URL with a product photo the
	// model should take visual cues from.
	ReferenceImage string `json:"reference_image,omitempty"`
}

// GenerateResult mirrors the generation endpoint response. ImageURL is
// nil when the model answered with text only; that outcome is free.
type GenerateResult struct {
	Success    bool          `json:"success"`
	ImageURL   *string       `json:"image_url"`
	Prompt     string        `json:"prompt"`
	Message    string        `json:"message,omitempty"`
	Dimensions *Dimensions   `json:"dimensions,omitempty"`
	RecordID   *snowflake.ID `json:"generation_id,omitempty"`
}

type EditRequest struct {
	AccountID snowflake.ID `json:"-"`
	// ImageData is the image to edit, as a data URL.
	ImageData   string `json:"image_data"`
	Instruction string `json:"instruction"`
	EditType    string `json:"edit_type,omitempty"`
}

type EditResult struct {
	Success  bool    `json:"success"`
	ImageURL *string `json:"image_url"`
	Message  string  `json:"message,omitempty"`
}

type HistoryRequest struct {
	AccountID snowflake.ID
	Limit     int
	Offset    int
}

type HistoryResponse struct {
	Generations []GenerationRecord `json:"generations"`
	Total       int64              `json:"total"`
}

type Service interface {
	Generate(ctx context.Context, req GenerateRequest) (GenerateResult, error)
	Edit(ctx context.Context, req EditRequest) (EditResult, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
}

var (
	ErrInvalidFormat      = errors.New("invalid_format")
	ErrMissingProductName = errors.New("missing_product_name")
	ErrMissingImage       = errors.New("missing_image")
	ErrMissingInstruction = errors.New("missing_instruction")
	ErrEditNotAllowed     = errors.New("edit_requires_paid_plan")
	ErrEditFailed         = errors.New("edit_failed")
)
