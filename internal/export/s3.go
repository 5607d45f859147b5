package export

import (
	"context"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/Corphon/VisualMediaTool/internal/config"
)

// Uploader pushes an exported file somewhere and returns its location.
type Uploader interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}

// S3Uploader uploads to an S3-compatible bucket.
type S3Uploader struct {
	client   *s3.Client
	bucket   string
	endpoint string
}

// NewS3Uploader builds a path-style S3 client from cfg.
func NewS3Uploader(ctx context.Context, cfg config.S3Config) (*S3Uploader, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("s3 bucket not configured")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, awsconfig.WithBaseEndpoint(cfg.Endpoint))
	}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	return &S3Uploader{client: client, bucket: cfg.Bucket, endpoint: strings.TrimRight(cfg.Endpoint, "/")}, nil
}

// Upload stores localPath under key and returns an s3:// or endpoint URL.
func (u *S3Uploader) Upload(ctx context.Context, localPath, key string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("open export: %w", err)
	}
	defer f.Close()

	contentType := mime.TypeByExtension(filepath.Ext(localPath))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file to S3: %w", err)
	}

	if u.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", u.endpoint, u.bucket, key), nil
	}
	return fmt.Sprintf("s3://%s/%s", u.bucket, key), nil
}
