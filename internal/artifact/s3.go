package artifact

import (
	"bytes"
	"context"
	"fmt"

	appconfig "github.com/adcraftlabs/adcraft/internal/config"
	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Store uploads to an S3-compatible bucket. It is pointed at a
// Cloudflare R2 account endpoint in production.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	log           *zap.Logger
}

// NewS3Store builds the store from the R2 configuration. A store with
// missing credentials is still constructed but rejects uploads with
// ErrNotConfigured, so the app boots without storage in development.
func NewS3Store(cfg appconfig.R2Config, log *zap.Logger) (*S3Store, error) {
	store := &S3Store{
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
		log:           log.Named("artifact.s3"),
	}
	if cfg.AccountID == "" || cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return store, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion("auto"),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	store.client = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})
	return store, nil
}

func (s *S3Store) Upload(ctx context.Context, key, mimeType string, data []byte) (string, error) {
	if s.client == nil {
		return "", ErrNotConfigured
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(mimeType),
	})
	if err != nil {
		s.log.Error("object upload failed",
			zap.String("bucket", s.bucket),
			zap.String("key", key),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	url := JoinURL(s.publicBaseURL, key)
	s.log.Info("object uploaded",
		zap.String("key", key),
		zap.Int("bytes", len(data)),
	)
	return url, nil
}
