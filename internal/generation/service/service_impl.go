package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	accountdomain "github.com/adcraftlabs/adcraft/internal/account/domain"
	"github.com/adcraftlabs/adcraft/internal/artifact"
	"github.com/adcraftlabs/adcraft/internal/genai"
	"github.com/adcraftlabs/adcraft/internal/generation/domain"
	"github.com/adcraftlabs/adcraft/internal/metrics"
	"github.com/adcraftlabs/adcraft/internal/plan"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log         *zap.Logger
	DB          *gorm.DB
	Node        *snowflake.Node
	Repo        domain.Repository
	AccountRepo accountdomain.Repository
	AccountSvc  accountdomain.Service
	Generator   genai.ImageGenerator
	Store       artifact.Store
	Metrics     *metrics.Metrics `optional:"true"`
}

type service struct {
	log         *zap.Logger
	db          *gorm.DB
	node        *snowflake.Node
	repo        domain.Repository
	accountRepo accountdomain.Repository
	accountSvc  accountdomain.Service
	generator   genai.ImageGenerator
	store       artifact.Store
	metrics     *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &service{
		log:         p.Log.Named("generation.service"),
		db:          p.DB,
		node:        p.Node,
		repo:        p.Repo,
		accountRepo: p.AccountRepo,
		accountSvc:  p.AccountSvc,
		generator:   p.Generator,
		store:       p.Store,
		metrics:     p.Metrics,
	}
}

// Generate runs the full pipeline: validate, pre-flight credit check,
// model call, upload, then a single transaction that spends the credit
// and records the generation. No credit is spent unless an image made
// it into storage.
func (s *service) Generate(ctx context.Context, req domain.GenerateRequest) (domain.GenerateResult, error) {
	if strings.TrimSpace(req.ProductName) == "" {
		return domain.GenerateResult{}, domain.ErrMissingProductName
	}
	dims, ok := domain.FormatDimensions(req.Format)
	if !ok {
		return domain.GenerateResult{}, domain.ErrInvalidFormat
	}

	account, err := s.accountSvc.GetByID(ctx, req.AccountID)
	if err != nil {
		return domain.GenerateResult{}, err
	}
	if account.Credits <= 0 {
		s.metrics.RecordGeneration(string(domain.KindGenerate), "insufficient_credits")
		return domain.GenerateResult{}, accountdomain.ErrInsufficientCredits
	}

	var inputs []genai.ImageInput
	hasReference := false
	if req.ReferenceImage != "" {
		mimeType, data, err := artifact.ParseDataURL(req.ReferenceImage)
		if err != nil {
			s.log.Warn("reference image ignored", zap.Error(err))
		} else {
			inputs = append(inputs, genai.ImageInput{MIMEType: mimeType, Data: data})
			hasReference = true
		}
	}

	prompt := buildImagePrompt(imagePromptParams{
		ProductName:    req.ProductName,
		CatchCopy:      req.CatchCopy,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
		ToneDesc:       domain.ToneDescription(req.Tone),
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
		Dimensions:     dims,
		Format:         req.Format,
		HasReference:   hasReference,
	})

	result, err := s.generator.Generate(ctx, prompt, inputs)
	if err != nil {
		s.metrics.RecordGeneration(string(domain.KindGenerate), "provider_error")
		return domain.GenerateResult{}, err
	}

	if !result.HasImage() {
		message := result.Text
		if message == "" {
			message = "プロンプトを生成しました。画像は生成されませんでした。"
		}
		s.metrics.RecordGeneration(string(domain.KindGenerate), "no_image")
		return domain.GenerateResult{
			Success:    true,
			Prompt:     prompt,
			Message:    message,
			Dimensions: &dims,
		}, nil
	}

	recordID := s.node.Generate()
	key := fmt.Sprintf("generated/%s/%s.%s", account.ID.String(), recordID.String(), artifact.Extension(result.ImageMIME))
	imageURL, err := s.store.Upload(ctx, key, result.ImageMIME, result.ImageData)
	if err != nil {
		s.metrics.RecordGeneration(string(domain.KindGenerate), "upload_error")
		return domain.GenerateResult{}, err
	}

	content, _ := json.Marshal(domain.Content{
		ProductName:    req.ProductName,
		Catchphrase:    req.CatchCopy,
		Description:    req.Description,
		TargetAudience: req.TargetAudience,
	})
	branding, _ := json.Marshal(domain.Branding{
		PrimaryColor:   req.PrimaryColor,
		SecondaryColor: req.SecondaryColor,
	})

	now := time.Now().UTC()
	record := domain.GenerationRecord{
		ID:           recordID,
		AccountID:    account.ID,
		Kind:         domain.KindGenerate,
		Format:       req.Format,
		Tone:         req.Tone,
		Prompt:       prompt,
		ImageURL:     &imageURL,
		ThumbnailURL: &imageURL,
		Status:       domain.StatusCompleted,
		CreditsUsed:  1,
		Content:      datatypes.JSON(content),
		Branding:     datatypes.JSON(branding),
		CreatedAt:    now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		debited, err := s.accountRepo.DebitForGeneration(ctx, tx, account.ID, now)
		if err != nil {
			return err
		}
		if !debited {
			return accountdomain.ErrInsufficientCredits
		}
		return s.repo.Insert(ctx, tx, &record)
	})
	if err != nil {
		s.metrics.RecordGeneration(string(domain.KindGenerate), "charge_error")
		return domain.GenerateResult{}, err
	}

	s.metrics.RecordGeneration(string(domain.KindGenerate), "success")
	s.metrics.RecordCreditSpent()
	s.log.Info("ad image generated",
		zap.String("account_id", account.ID.String()),
		zap.String("generation_id", recordID.String()),
		zap.String("format", req.Format),
	)

	return domain.GenerateResult{
		Success:    true,
		ImageURL:   &imageURL,
		Prompt:     prompt,
		Dimensions: &dims,
		RecordID:   &recordID,
	}, nil
}

// Edit reworks an existing image per instruction. Edits are a paid-plan
// feature and do not consume credits; only the usage counters move.
func (s *service) Edit(ctx context.Context, req domain.EditRequest) (domain.EditResult, error) {
	if strings.TrimSpace(req.ImageData) == "" {
		return domain.EditResult{}, domain.ErrMissingImage
	}
	if strings.TrimSpace(req.Instruction) == "" {
		return domain.EditResult{}, domain.ErrMissingInstruction
	}

	account, err := s.accountSvc.GetByID(ctx, req.AccountID)
	if err != nil {
		return domain.EditResult{}, err
	}
	if !plan.AllowsEditing(account.Plan) {
		s.metrics.RecordGeneration(string(domain.KindEdit), "plan_denied")
		return domain.EditResult{}, domain.ErrEditNotAllowed
	}

	mimeType, data, err := artifact.ParseDataURL(req.ImageData)
	if err != nil {
		return domain.EditResult{}, err
	}

	prompt := buildEditPrompt(req.Instruction, req.EditType)
	result, err := s.generator.Generate(ctx, prompt, []genai.ImageInput{{MIMEType: mimeType, Data: data}})
	if err != nil {
		s.metrics.RecordGeneration(string(domain.KindEdit), "provider_error")
		return domain.EditResult{}, err
	}

	if !result.HasImage() {
		s.metrics.RecordGeneration(string(domain.KindEdit), "no_image")
		return domain.EditResult{Message: result.Text}, domain.ErrEditFailed
	}

	recordID := s.node.Generate()
	key := fmt.Sprintf("edited/%s/%s.%s", account.ID.String(), recordID.String(), artifact.Extension(result.ImageMIME))
	imageURL, err := s.store.Upload(ctx, key, result.ImageMIME, result.ImageData)
	if err != nil {
		s.metrics.RecordGeneration(string(domain.KindEdit), "upload_error")
		return domain.EditResult{}, err
	}

	now := time.Now().UTC()
	record := domain.GenerationRecord{
		ID:           recordID,
		AccountID:    account.ID,
		Kind:         domain.KindEdit,
		Format:       "edit",
		Prompt:       prompt,
		ImageURL:     &imageURL,
		ThumbnailURL: &imageURL,
		Status:       domain.StatusCompleted,
		CreditsUsed:  0,
		CreatedAt:    now,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.accountRepo.BumpEditCounters(ctx, tx, account.ID, now); err != nil {
			return err
		}
		return s.repo.Insert(ctx, tx, &record)
	})
	if err != nil {
		return domain.EditResult{}, err
	}

	s.metrics.RecordGeneration(string(domain.KindEdit), "success")

	message := result.Text
	if message == "" {
		message = "画像を編集しました。"
	}
	return domain.EditResult{
		Success:  true,
		ImageURL: &imageURL,
		Message:  message,
	}, nil
}

func (s *service) History(ctx context.Context, req domain.HistoryRequest) (domain.HistoryResponse, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	records, err := s.repo.ListByAccount(ctx, s.db, req.AccountID, limit, offset)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	total, err := s.repo.CountByAccount(ctx, s.db, req.AccountID)
	if err != nil {
		return domain.HistoryResponse{}, err
	}
	if records == nil {
		records = []domain.GenerationRecord{}
	}
	return domain.HistoryResponse{Generations: records, Total: total}, nil
}
