package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/guiyumin/igget/internal/core/extractor"
)

var (
	// ErrUnavailable is returned when the asset URL answers with a non-2xx status
	ErrUnavailable = errors.New("asset unavailable")

	// ErrInvalidKind is returned for a declared kind other than image or video
	ErrInvalidKind = errors.New("kind must be image or video")

	// ErrInvalidURL is returned when the media URL is not an absolute http(s) URL
	ErrInvalidURL = errors.New("media url must be an absolute http(s) url")
)

// DefaultPlatform prefixes generated filenames
const DefaultPlatform = "instagram"

// Kind is the caller-declared media kind. It decides the response headers
// and is never checked against the bytes.
type Kind string

const (
	KindImage Kind = "image"
	KindVideo Kind = "video"
)

// ParseKind validates a declared kind
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindImage, KindVideo:
		return Kind(s), nil
	}
	return "", ErrInvalidKind
}

// ContentType returns the MIME type for the kind
func (k Kind) ContentType() string {
	if k == KindVideo {
		return "video/mp4"
	}
	return "image/jpeg"
}

// Ext returns the file extension for the kind, without the dot
func (k Kind) Ext() string {
	if k == KindVideo {
		return "mp4"
	}
	return "jpg"
}

// Asset is an open upstream body ready to be relayed. Close must be called.
type Asset struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
	Size        int64 // -1 when upstream sent no Content-Length
}

// Headers returns the response headers for relaying the asset as a download
func (a *Asset) Headers() map[string]string {
	h := map[string]string{
		"Content-Type":        a.ContentType,
		"Content-Disposition": fmt.Sprintf(`attachment; filename="%s"`, a.Filename),
		"Cache-Control":       "no-cache, no-store, must-revalidate",
		"Pragma":              "no-cache",
		"Expires":             "0",
	}
	if a.Size > 0 {
		h["Content-Length"] = strconv.FormatInt(a.Size, 10)
	}
	return h
}

func (a *Asset) Close() error {
	return a.Body.Close()
}

// Streamer opens media URLs for relaying
type Streamer struct {
	Client    *http.Client
	Timeout   time.Duration
	Platform  string
	UserAgent string

	now func() time.Time
}

// NewStreamer creates a streamer. The timeout bounds the whole transfer.
func NewStreamer(platform string, timeout time.Duration) *Streamer {
	if platform == "" {
		platform = DefaultPlatform
	}
	return &Streamer{
		Client: &http.Client{
			Timeout: 0,
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
			},
		},
		Timeout:   timeout,
		Platform:  platform,
		UserAgent: DefaultUserAgent,
		now:       time.Now,
	}
}

// Open fetches mediaURL and returns its body unmodified. Non-2xx statuses
// fail with ErrUnavailable.
func (s *Streamer) Open(ctx context.Context, mediaURL string, kind Kind) (*Asset, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return nil, err
	}
	if !extractor.IsValidMediaURL(mediaURL) {
		return nil, ErrInvalidURL
	}

	cancel := context.CancelFunc(func() {})
	if s.Timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.Timeout)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, mediaURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.UserAgent)
	req.Header.Set("Accept", "*/*")

	resp, err := s.Client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("%w: upstream returned status %d", ErrUnavailable, resp.StatusCode)
	}

	return &Asset{
		Body:        &cancelOnClose{ReadCloser: resp.Body, cancel: cancel},
		ContentType: kind.ContentType(),
		Filename:    s.filename(kind),
		Size:        resp.ContentLength,
	}, nil
}

// filename builds "{platform}_{unix seconds}.{ext}"
func (s *Streamer) filename(kind Kind) string {
	now := time.Now
	if s.now != nil {
		now = s.now
	}
	return fmt.Sprintf("%s_%d.%s", s.Platform, now().Unix(), kind.Ext())
}

// cancelOnClose releases the transfer deadline together with the body
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}
