// Package fetch downloads remote resources into temporary files.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mediabridge/mediabridge/internal/config"
	"github.com/mediabridge/mediabridge/internal/media"
)

// Sentinel errors for download policy violations.
var (
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	ErrNotAbsolute       = errors.New("URL must be absolute")
	ErrMaxSizeExceeded   = errors.New("download exceeds size limit")
)

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Options bounds a Fetcher.
type Options struct {
	Timeout      time.Duration
	MaxBytes     int64
	MaxRedirects int
	UserAgent    string
	TempDir      string
}

// OptionsFromConfig maps the download and storage sections onto Options.
func OptionsFromConfig(cfg config.Config) Options {
	return Options{
		Timeout:      cfg.Download.Timeout.Duration,
		MaxBytes:     cfg.Download.MaxBytes,
		MaxRedirects: cfg.Download.MaxRedirects,
		UserAgent:    cfg.Download.UserAgent,
		TempDir:      cfg.Storage.TempDir,
	}
}

// Fetcher streams HTTP(S) responses into temp files.
type Fetcher struct {
	client   *resty.Client
	maxBytes int64
	tempDir  string
	logger   *slog.Logger
}

// NewFetcher builds a Fetcher. Zero option values fall back to config defaults.
func NewFetcher(log *slog.Logger, opts Options) *Fetcher {
	if log == nil {
		log = slog.Default()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = config.DefaultDownloadTimeout
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = config.DefaultDownloadMaxBytes
	}
	if opts.MaxRedirects < 0 {
		opts.MaxRedirects = 0
	}
	if strings.TrimSpace(opts.UserAgent) == "" {
		opts.UserAgent = config.DefaultUserAgent
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(opts.MaxRedirects)).
		SetHeader("User-Agent", opts.UserAgent).
		SetRetryCount(0)

	return &Fetcher{
		client:   client,
		maxBytes: opts.MaxBytes,
		tempDir:  opts.TempDir,
		logger:   log.With(slog.String("service", "fetch")),
	}
}

// FetchToTemp downloads rawURL into a new temp file. No file is left behind on error.
func (f *Fetcher) FetchToTemp(ctx context.Context, rawURL string) (media.TemporaryDownload, error) {
	if err := validateURL(rawURL); err != nil {
		return media.TemporaryDownload{}, err
	}

	resp, err := f.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(rawURL)
	if err != nil {
		return media.TemporaryDownload{}, fmt.Errorf("request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return media.TemporaryDownload{}, &StatusError{StatusCode: resp.StatusCode()}
	}

	path, written, err := f.streamToTemp(body)
	if err != nil {
		return media.TemporaryDownload{}, err
	}
	f.logger.Debug("downloaded to temp file",
		slog.String("url", rawURL),
		slog.String("path", path),
		slog.Int64("bytes", written),
	)
	return media.TemporaryDownload{Path: path, SourceURL: rawURL, Size: written}, nil
}

func (f *Fetcher) streamToTemp(r io.Reader) (path string, written int64, err error) {
	tmp, err := os.CreateTemp(f.tempDir, "mediabridge-*")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if cerr := tmp.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close temp file: %w", cerr)
			path = ""
		}
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	limited := &io.LimitedReader{R: r, N: f.maxBytes + 1}
	written, err = io.Copy(tmp, limited)
	if err != nil {
		return "", 0, fmt.Errorf("copy to temp file: %w", err)
	}
	if written > f.maxBytes {
		return "", 0, fmt.Errorf("%w: max %d bytes", ErrMaxSizeExceeded, f.maxBytes)
	}
	return tmpPath, written, nil
}

func validateURL(rawURL string) error {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if !u.IsAbs() {
		return ErrNotAbsolute
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return ErrNotAbsolute
	}
	return nil
}
