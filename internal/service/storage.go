package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"app/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/rs/zerolog"
)

// StorageService resolves and uploads user icon blobs on an S3-compatible
// bucket.
type StorageService interface {
	// DefaultIconFullPath is the storage path used when a profile has no icon.
	DefaultIconFullPath() string
	// DownloadURL returns a time-limited URL for the given storage path.
	DownloadURL(ctx context.Context, fullPath string) (string, error)
	// UploadIcon stores an icon blob and returns its storage path.
	UploadIcon(ctx context.Context, key string, body []byte, contentType string) (string, error)
}

type storageService struct {
	s3Client        *s3.Client
	presignClient   *s3.PresignClient
	bucketName      string
	defaultIconPath string
	logger          zerolog.Logger
}

// NewStorageService builds the S3 client for the configured endpoint.
func NewStorageService(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (StorageService, error) {
	s3Config, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	return &storageService{
		s3Client:        s3Client,
		presignClient:   s3.NewPresignClient(s3Client),
		bucketName:      cfg.S3Bucket,
		defaultIconPath: cfg.DefaultIconPath,
		logger:          logger.With().Str("service", "StorageService").Logger(),
	}, nil
}

func (s *storageService) DefaultIconFullPath() string {
	return s.defaultIconPath
}

func (s *storageService) DownloadURL(ctx context.Context, fullPath string) (string, error) {
	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(fullPath),
	}, s3.WithPresignExpires(time.Hour))
	if err != nil {
		return "", fmt.Errorf("failed to presign download URL for %s: %w", fullPath, err)
	}
	return req.URL, nil
}

func (s *storageService) UploadIcon(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload icon %s: %w", key, err)
	}
	return key, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
