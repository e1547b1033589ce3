package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "lpg-backend/internal/config"
)

// R2Client archives generated invoice PDFs to a Cloudflare R2 bucket through
// the S3-compatible API. A nil client means archival is disabled.
type R2Client struct {
	client *s3.Client
	bucket string
}

// NewR2Client builds an R2 client from config. Returns nil (no error) when R2
// is not configured so callers can treat archival as optional.
func NewR2Client(ctx context.Context, cfg *appconfig.Config) (*R2Client, error) {
	if !cfg.R2.Enabled {
		return nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.R2.AccessKey,
			cfg.R2.SecretKey,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to configure R2 client: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.R2.Endpoint)
	})

	return &R2Client{client: client, bucket: cfg.R2.Bucket}, nil
}

// Upload writes an object to the bucket under the given key.
func (r *R2Client) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	_, err := r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(r.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return nil
}
