// Package s3util mirrors finished runs to S3 or an S3-compatible store.
package s3util

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"
)

// Uploader stores one object.
type Uploader interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
}

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader writes objects with the AWS SDK.
type S3Uploader struct {
	client PutObjectAPI
	bucket string
}

// NewS3Uploader wraps an S3 client for bucket.
func NewS3Uploader(client PutObjectAPI, bucket string) *S3Uploader {
	return &S3Uploader{client: client, bucket: bucket}
}

// Put implements Uploader. Objects carry the project cost-allocation tag.
func (u *S3Uploader) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	log.Debug().
		Str("bucket", u.bucket).
		Str("key", key).
		Int64("size", size).
		Msg("Uploading to S3")

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        &u.bucket,
		Key:           &key,
		Body:          body,
		ContentLength: &size,
		ContentType:   &contentType,
		Tagging:       ProjectTagging(),
	})
	if err != nil {
		return fmt.Errorf("S3 PutObject %s: %w", key, err)
	}
	return nil
}
