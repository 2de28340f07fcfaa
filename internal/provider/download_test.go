package provider

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDownloaderFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "video/mp4")
		w.Write([]byte("mp4-bytes"))
	}))
	defer server.Close()

	d := NewDownloader(time.Second)
	ctx := context.Background()

	data, ct, err := d.Fetch(ctx, Result{URL: server.URL + "/clip.mp4"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if string(data) != "mp4-bytes" || ct != "video/mp4" {
		t.Errorf("Fetch() = %q, %q, want mp4-bytes, video/mp4", data, ct)
	}

	_, _, err = d.Fetch(ctx, Result{URL: server.URL + "/missing"})
	var perr *Error
	if !errors.As(err, &perr) || perr.StatusCode != http.StatusNotFound {
		t.Errorf("Fetch(missing) error = %v, want status 404", err)
	}
}

func TestDownloaderInline(t *testing.T) {
	d := NewDownloader(0)

	data, ct, err := d.Fetch(context.Background(), Result{Data: []byte("raw"), ContentType: "image/png"})
	if err != nil || string(data) != "raw" || ct != "image/png" {
		t.Errorf("Fetch(inline) = %q, %q, %v", data, ct, err)
	}

	data, ct, err = d.Fetch(context.Background(), Result{URL: "data:image/png;base64,aGVsbG8="})
	if err != nil || string(data) != "hello" || ct != "image/png" {
		t.Errorf("Fetch(data URL) = %q, %q, %v", data, ct, err)
	}

	_, _, err = d.Fetch(context.Background(), Result{URL: "ftp://example.com/x"})
	if !errors.Is(err, ErrNoResultInResponse) {
		t.Errorf("Fetch(ftp) error = %v, want ErrNoResultInResponse", err)
	}
}
