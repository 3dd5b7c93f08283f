package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/citivoice/complaint-server/internal/config"
	"go.uber.org/zap"
)

// S3Uploader stores objects in any S3-compatible bucket (AWS S3, MinIO, R2)
type S3Uploader struct {
	client    *s3.Client
	bucket    string
	publicURL string
	logger    *zap.SugaredLogger
}

// S3Option configures an S3Uploader
type S3Option func(*S3Uploader)

// WithLogger sets the uploader's logger
func WithLogger(logger *zap.SugaredLogger) S3Option {
	return func(u *S3Uploader) {
		u.logger = logger
	}
}

// NewS3Uploader builds an uploader from static credentials
func NewS3Uploader(ctx context.Context, cfg config.StorageConfig, opts ...S3Option) (*S3Uploader, error) {
	if !cfg.Enabled() {
		return nil, errors.New("storage bucket and credentials are required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	u := &S3Uploader{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBaseURL(cfg),
		logger:    zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u, nil
}

// Upload puts the object and returns its public URL
func (u *S3Uploader) Upload(ctx context.Context, input UploadInput) (*UploadResult, error) {
	if input.Key == "" {
		return nil, errors.New("storage key is required")
	}

	out, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(input.Key),
		Body:        bytes.NewReader(input.Body),
		ContentType: aws.String(input.ContentType),
	})
	if err != nil {
		return nil, fmt.Errorf("put object %s: %w", input.Key, err)
	}

	u.logger.Infow("Object uploaded", "bucket", u.bucket, "key", input.Key, "bytes", len(input.Body))
	return &UploadResult{URL: objectURL(u.publicURL, input.Key), ETag: aws.ToString(out.ETag)}, nil
}

// publicBaseURL picks where uploaded objects are served from
func publicBaseURL(cfg config.StorageConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	if cfg.Endpoint != "" {
		return strings.TrimRight(cfg.Endpoint, "/") + "/" + cfg.Bucket
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, region)
}

func objectURL(base, key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return base + "/" + strings.Join(segments, "/")
}
