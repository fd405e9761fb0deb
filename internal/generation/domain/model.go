// Package domain contains persistence models for ad image generations.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Kind distinguishes fresh generations from edits of existing images.
type Kind string

const (
	KindGenerate Kind = "generate"
	KindEdit     Kind = "edit"
)

// Status tracks the lifecycle of a stored generation. Rows are written
// at the end of the orchestration run, so they are completed on insert;
// the other states exist for asynchronous backfills.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Content is the ad copy snapshot stored with each generation.
type Content struct {
	ProductName    string `json:"productName"`
	Catchphrase    string `json:"catchphrase"`
	Description    string `json:"description"`
	TargetAudience string `json:"targetAudience"`
}

// Branding is the color scheme snapshot stored with each generation.
type Branding struct {
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
}

// GenerationRecord is one row of the generation history.
type GenerationRecord struct {
	ID           snowflake.ID   `gorm:"primaryKey" json:"id"`
	AccountID    snowflake.ID   `gorm:"not null;index" json:"account_id"`
	Kind         Kind           `gorm:"type:text;not null;default:'generate'" json:"kind"`
	Format       string         `gorm:"type:text;not null" json:"format"`
	Tone         string         `gorm:"type:text;not null;default:''" json:"tone"`
	Prompt       string         `gorm:"type:text;not null;default:''" json:"prompt"`
	ImageURL     *string        `gorm:"type:text" json:"image_url"`
	ThumbnailURL *string        `gorm:"type:text" json:"thumbnail_url"`
	Status       Status         `gorm:"type:text;not null;default:'completed'" json:"status"`
	CreditsUsed  int64          `gorm:"not null;default:0" json:"credits_used"`
	Content      datatypes.JSON `gorm:"type:jsonb" json:"content,omitempty"`
	Branding     datatypes.JSON `gorm:"type:jsonb" json:"branding,omitempty"`
	ExpiresAt    *time.Time     `gorm:"" json:"expires_at,omitempty"`
	CreatedAt    time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (GenerationRecord) TableName() string { return "generations" }
