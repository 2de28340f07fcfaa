package provider

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Downloader resolves an extracted Result to bytes.
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a Downloader. A zero timeout means DefaultTimeout.
func NewDownloader(timeout time.Duration) *Downloader {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Downloader{httpClient: &http.Client{Timeout: timeout}}
}

// Fetch returns the artifact bytes and content type. Inline results and
// data: URLs are decoded without a network call.
func (d *Downloader) Fetch(ctx context.Context, res Result) ([]byte, string, error) {
	if len(res.Data) > 0 {
		return res.Data, res.ContentType, nil
	}
	if strings.HasPrefix(res.URL, "data:") {
		return decodeDataURL(res.URL)
	}

	u, err := url.Parse(res.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, "", &Error{Kind: KindNoResult, Message: fmt.Sprintf("result is not a fetchable URL: %q", truncateString(res.URL, 80)), Err: ErrNoResultInResponse}
	}

	startTime := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, res.URL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create download request: %w", err)
	}
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, "", classifyError("", fmt.Errorf("download failed: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", &Error{
			Kind:       KindRequestFailed,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("download returned status %d", resp.StatusCode),
		}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", classifyError("", fmt.Errorf("failed to read download: %w", err))
	}

	contentType := res.ContentType
	if contentType == "" {
		contentType = resp.Header.Get("Content-Type")
	}

	log.Debug().
		Str("host", u.Host).
		Int("bytes", len(data)).
		Str("content_type", contentType).
		Dur("duration", time.Since(startTime)).
		Msg("Downloaded provider artifact")

	return data, contentType, nil
}

func decodeDataURL(s string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, "", &Error{Kind: KindNoResult, Message: "malformed data URL", Err: ErrNoResultInResponse}
	}
	contentType, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		decoded, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", &Error{Kind: KindNoResult, Message: "malformed data URL", Err: err}
		}
		return []byte(decoded), contentType, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", &Error{Kind: KindNoResult, Message: "malformed data URL", Err: err}
	}
	return data, contentType, nil
}
