// Package mediastore uploads avatar and cover assets to an S3-compatible
// object storage and hands back their public URLs.
package mediastore

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

type Config struct {
	// Credentials for the S3-compatible backend (e.g. MinIO root user)
	AccessKey string
	SecretKey string

	Region   string
	Endpoint string
	Bucket   string

	// Base URL assets are served from. Endpoint is used if empty.
	PublicBaseURL string
}

type S3Store struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

func New(ctx context.Context, cfg Config) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("error while loading s3 config. Err: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.Endpoint)
		o.UsePathStyle = true
	})

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = cfg.Endpoint
	}

	return &S3Store{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// Upload stores the local temp file in the bucket and returns its public URL.
// The temp file is removed regardless of outcome: the uploads directory must
// not accumulate leftovers from failed requests.
func (s *S3Store) Upload(ctx context.Context, localPath string) (string, error) {
	defer os.Remove(localPath)

	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("error while opening local file. Err: %w", err)
	}
	defer f.Close()

	key := storageKey(filepath.Ext(localPath))

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType(localPath)),
	})
	if err != nil {
		return "", fmt.Errorf("error while uploading to s3. Err: %w", err)
	}

	return fmt.Sprintf("%s/%s/%s", s.baseURL, s.bucket, key), nil
}

// storageKey partitions objects by upload date so buckets stay browsable.
func storageKey(ext string) string {
	d := time.Now()
	return fmt.Sprintf("media/%d/%02d/%02d/%s%s", d.Year(), d.Month(), d.Day(), uuid.NewString(), ext)
}

func contentType(path string) string {
	if ct := mime.TypeByExtension(filepath.Ext(path)); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
