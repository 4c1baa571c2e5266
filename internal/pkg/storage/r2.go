// Package storage wraps the S3-compatible client used for asset uploads to
// Cloudflare R2.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gofiber/fiber/v2/log"

	"github.com/whirik-dev/Music-Library-sub002/internal/pkg/env"
)

// Config holds R2 object storage configuration.
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	EndpointURL     string
	Region          string
}

// LoadConfig loads R2 configuration from environment variables.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("R2_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("R2_SECRET_ACCESS_KEY", ""),
		BucketName:      env.GetEnv("R2_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("R2_ENDPOINT_URL", ""),
		Region:          env.GetEnv("R2_REGION", "auto"),
	}

	if config.AccessKeyID == "" {
		return nil, errors.New("R2_ACCESS_KEY_ID is required")
	}
	if config.SecretAccessKey == "" {
		return nil, errors.New("R2_SECRET_ACCESS_KEY is required")
	}
	if config.BucketName == "" {
		return nil, errors.New("R2_BUCKET_NAME is required")
	}
	if config.EndpointURL == "" {
		return nil, errors.New("R2_ENDPOINT_URL is required")
	}

	return config, nil
}

// Client wraps the S3 client with R2-specific configuration.
type Client struct {
	s3Client *s3.Client
	presign  *s3.PresignClient
	config   *Config
}

// NewClient creates a new R2 storage client.
func NewClient(cfg *Config) (*Client, error) {
	awsConfig, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.EndpointURL)
		o.UsePathStyle = true // R2 requires path-style URLs
	})

	client := &Client{
		s3Client: s3Client,
		presign:  s3.NewPresignClient(s3Client),
		config:   cfg,
	}

	log.Infof("[Storage] Initialized R2 client for bucket: %s", cfg.BucketName)
	return client, nil
}

// Upload stores an object in the configured bucket.
func (c *Client) Upload(ctx context.Context, key string, body io.Reader, contentType string) error {
	_, err := c.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.config.BucketName),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return nil
}

// PresignDownload returns a time-limited URL for direct object download.
func (c *Client) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.config.BucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", fmt.Errorf("failed to presign object %s: %w", key, err)
	}
	return req.URL, nil
}

// ObjectKey generates a standardized object key for an uploaded asset.
func (c *Config) ObjectKey(assetUUID, fileExtension string, year, month int) string {
	// Format: assets/YYYY/MM/UUID.ext
	return fmt.Sprintf("assets/%04d/%02d/%s%s", year, month, assetUUID, fileExtension)
}
