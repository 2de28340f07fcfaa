package s3util

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type putCall struct {
	key         string
	body        string
	size        int64
	contentType string
}

type fakeUploader struct {
	calls  []putCall
	failOn string
}

func (f *fakeUploader) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == f.failOn {
		return errors.New("boom")
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.calls = append(f.calls, putCall{key: key, body: string(data), size: size, contentType: contentType})
	return nil
}

// writeRunDir lays out a run directory holding one asset produced by this
// run next to a stale asset from an earlier one.
func writeRunDir(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"001_image_hero_v1.jpeg":  "jpeg",
		"001_image_hero_v1.json":  "{}",
		"001_image_old_v1.jpeg":   "stale",
		"001_image_old_v1.json":   "{}",
		"generation_summary.json": "{}",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatal(err)
		}
	}
	produced := []string{
		filepath.Join(dir, "001_image_hero_v1.jpeg"),
		filepath.Join(dir, "001_image_hero_v1.json"),
		filepath.Join(dir, "generation_summary.json"),
	}
	return dir, produced
}

func TestMirrorUpload(t *testing.T) {
	_, produced := writeRunDir(t)
	up := &fakeUploader{}
	m := NewMirror(up, "/weekly-assets/")

	n, err := m.Upload(context.Background(), "run-1", produced)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if n != 3 {
		t.Fatalf("Upload() = %d, want 3", n)
	}

	want := []putCall{
		{key: "weekly-assets/run-1/001_image_hero_v1.jpeg", body: "jpeg", size: 4, contentType: "image/jpeg"},
		{key: "weekly-assets/run-1/001_image_hero_v1.json", body: "{}", size: 2, contentType: "application/json"},
		{key: "weekly-assets/run-1/generation_summary.json", body: "{}", size: 2, contentType: "application/json"},
	}
	if len(up.calls) != len(want) {
		t.Fatalf("Upload() made %d puts, want %d", len(up.calls), len(want))
	}
	for i, w := range want {
		if up.calls[i] != w {
			t.Errorf("call[%d] = %+v, want %+v", i, up.calls[i], w)
		}
	}
	for _, c := range up.calls {
		if c.key == "weekly-assets/run-1/001_image_old_v1.jpeg" {
			t.Errorf("Upload() sent stale file %s", c.key)
		}
	}
}

func TestMirrorUploadStopsOnError(t *testing.T) {
	_, produced := writeRunDir(t)
	up := &fakeUploader{failOn: "run-1/001_image_hero_v1.json"}
	m := NewMirror(up, "")

	n, err := m.Upload(context.Background(), "run-1", produced)
	if err == nil {
		t.Fatal("Upload() expected error")
	}
	if n != 1 {
		t.Errorf("Upload() uploaded = %d, want 1", n)
	}
}

func TestMirrorUploadMissingFile(t *testing.T) {
	dir, _ := writeRunDir(t)
	m := NewMirror(&fakeUploader{}, "p")
	if _, err := m.Upload(context.Background(), "r", []string{filepath.Join(dir, "nope.png")}); err == nil {
		t.Error("Upload() of missing file expected error")
	}
}

type fakeS3 struct {
	input *s3.PutObjectInput
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	return &s3.PutObjectOutput{}, nil
}

func TestS3UploaderPut(t *testing.T) {
	client := &fakeS3{}
	u := NewS3Uploader(client, "assets-bucket")

	if err := u.Put(context.Background(), "k/a.png", nil, 10, "image/png"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	in := client.input
	if *in.Bucket != "assets-bucket" || *in.Key != "k/a.png" {
		t.Errorf("Put() bucket/key = %s/%s", *in.Bucket, *in.Key)
	}
	if *in.ContentType != "image/png" {
		t.Errorf("ContentType = %s, want image/png", *in.ContentType)
	}
	if *in.Tagging != "Project=weekly-asset-pipeline" {
		t.Errorf("Tagging = %s", *in.Tagging)
	}
}

func TestNewMinioUploaderValidation(t *testing.T) {
	tests := []struct {
		name string
		cfg  MinioConfig
	}{
		{"no endpoint", MinioConfig{AccessKey: "a", SecretKey: "s", Bucket: "b"}},
		{"no keys", MinioConfig{Endpoint: "localhost:9000", Bucket: "b"}},
		{"no bucket", MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewMinioUploader(tt.cfg); err == nil {
				t.Error("NewMinioUploader() expected error")
			}
		})
	}

	u, err := NewMinioUploader(MinioConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s", Bucket: "b"})
	if err != nil {
		t.Fatalf("NewMinioUploader() error = %v", err)
	}
	if u.region != "us-east-1" {
		t.Errorf("region = %s, want us-east-1", u.region)
	}
}
