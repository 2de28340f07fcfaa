package s3util

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/fpang/weekly-asset-pipeline/internal/config"
	"github.com/fpang/weekly-asset-pipeline/internal/filehandler"
)

// Mirror uploads the files of a run under prefix/runID/.
type Mirror struct {
	up     Uploader
	prefix string
}

// NewMirror wraps an Uploader.
func NewMirror(up Uploader, prefix string) *Mirror {
	return &Mirror{up: up, prefix: strings.Trim(prefix, "/")}
}

// FromConfig builds a Mirror: MinIO when an endpoint is set, AWS S3 otherwise.
func FromConfig(ctx context.Context, cfg config.MirrorConfig) (*Mirror, error) {
	if !cfg.Enabled() {
		return nil, fmt.Errorf("mirror bucket is not configured")
	}
	if cfg.Endpoint != "" {
		up, err := NewMinioUploader(MinioConfig{
			Endpoint:  cfg.Endpoint,
			Region:    cfg.Region,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return NewMirror(up, cfg.Prefix), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, func(o *awsconfig.LoadOptions) error {
		if cfg.Region != "" {
			o.Region = cfg.Region
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	log.Debug().Str("region", awsCfg.Region).Msg("AWS config loaded")
	return NewMirror(NewS3Uploader(s3.NewFromConfig(awsCfg), cfg.Bucket), cfg.Prefix), nil
}

// Key returns the object key for a file of a run.
func (m *Mirror) Key(runID, name string) string {
	return path.Join(m.prefix, runID, name)
}

// Upload sends each local file to prefix/runID/<basename>, in the order
// given. It stops at the first failure, including a file that is missing.
func (m *Mirror) Upload(ctx context.Context, runID string, paths []string) (int, error) {
	start := time.Now()
	uploaded := 0
	for _, localPath := range paths {
		if err := ctx.Err(); err != nil {
			return uploaded, err
		}
		if err := m.uploadFile(ctx, localPath, m.Key(runID, filepath.Base(localPath))); err != nil {
			return uploaded, err
		}
		uploaded++
	}

	log.Info().
		Int("files", uploaded).
		Str("prefix", m.Key(runID, "")).
		Dur("duration", time.Since(start)).
		Msg("Run mirrored")
	return uploaded, nil
}

func (m *Mirror) uploadFile(ctx context.Context, localPath, key string) error {
	f, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("open %s: %w", localPath, err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", localPath, err)
	}
	return m.up.Put(ctx, key, f, info.Size(), contentType(localPath))
}

func contentType(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".json" {
		return "application/json"
	}
	if ext == ".jsonl" {
		return "application/x-ndjson"
	}
	return filehandler.ContentTypeFor(ext)
}
