package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"switching-insights-go/internal/logger"
	"switching-insights-go/internal/types"
)

// Fetcher downloads extracts over HTTP, retrying transient failures with
// exponential backoff.
type Fetcher struct {
	Client     *http.Client
	MaxElapsed time.Duration
}

func NewFetcher(timeout, maxElapsed time.Duration) *Fetcher {
	return &Fetcher{
		Client:     &http.Client{Timeout: timeout},
		MaxElapsed: maxElapsed,
	}
}

// IsRemote reports whether source is an http(s) URL.
func IsRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// Fetch downloads rawURL and decodes it by the extension of its path.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, product string) ([]types.Respondent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	ext := path.Ext(u.Path)
	if ext != ".csv" && ext != ".xlsx" {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	body, err := f.download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	return Decode(bytes.NewReader(body), ext, product)
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	log := logger.New().WithField("component", "dataset.fetch").WithField("url", rawURL)

	var body []byte
	var lastErr error
	attempt := 0
	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			lastErr = err
			return backoff.Permanent(err)
		}
		resp, err := f.Client.Do(req)
		if err != nil {
			lastErr = err
			log.WithError(err).WithField("attempt", attempt).Warn("download failed")
			return err
		}
		defer resp.Body.Close()
		b, err := io.ReadAll(resp.Body)
		if err != nil {
			lastErr = err
			return err
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("server error: %s", resp.Status)
			log.WithField("attempt", attempt).WithField("http_status", resp.StatusCode).Warn("retrying download")
			return lastErr
		}
		if resp.StatusCode >= 300 {
			lastErr = fmt.Errorf("download failed: %s", resp.Status)
			return backoff.Permanent(lastErr)
		}
		if len(b) == 0 {
			lastErr = fmt.Errorf("empty body")
			return lastErr
		}
		body = b
		return nil
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = f.MaxElapsed
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		if lastErr == nil {
			lastErr = err
		}
		return nil, fmt.Errorf("fetch %s: %w", rawURL, lastErr)
	}
	log.WithField("bytes", len(body)).Info("download complete")
	return body, nil
}
