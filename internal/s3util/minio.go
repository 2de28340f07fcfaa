package s3util

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// MinioConfig addresses an S3-compatible endpoint.
type MinioConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// MinioUploader writes objects to an S3-compatible store, creating the
// bucket on first use.
type MinioUploader struct {
	client     *minio.Client
	bucketName string
	region     string
	initOnce   sync.Once
	initErr    error
}

// NewMinioUploader validates cfg and creates the client.
func NewMinioUploader(cfg MinioConfig) (*MinioUploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, fmt.Errorf("s3 endpoint is required")
	}
	access := strings.TrimSpace(cfg.AccessKey)
	secret := strings.TrimSpace(cfg.SecretKey)
	if access == "" || secret == "" {
		return nil, fmt.Errorf("s3 access key and secret key are required")
	}
	bucket := strings.TrimSpace(cfg.Bucket)
	if bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "us-east-1"
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(access, secret, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init s3 client: %w", err)
	}

	return &MinioUploader{
		client:     client,
		bucketName: bucket,
		region:     region,
	}, nil
}

func (u *MinioUploader) ensureBucket(ctx context.Context) error {
	u.initOnce.Do(func() {
		exists, err := u.client.BucketExists(ctx, u.bucketName)
		if err != nil {
			u.initErr = err
			return
		}
		if exists {
			return
		}
		log.Info().Str("bucket", u.bucketName).Msg("Creating mirror bucket")
		u.initErr = u.client.MakeBucket(ctx, u.bucketName, minio.MakeBucketOptions{Region: u.region})
	})
	return u.initErr
}

// Put implements Uploader.
func (u *MinioUploader) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	if err := u.ensureBucket(ctx); err != nil {
		return fmt.Errorf("ensure bucket: %w", err)
	}
	_, err := u.client.PutObject(ctx, u.bucketName, key, body, size, minio.PutObjectOptions{
		ContentType: contentType,
		UserTags:    map[string]string{"Project": "weekly-asset-pipeline"},
	})
	if err != nil {
		return fmt.Errorf("put %s: %w", key, err)
	}
	return nil
}
