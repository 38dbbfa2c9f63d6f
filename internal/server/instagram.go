package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/guiyumin/igget/internal/core/downloader"
	"github.com/guiyumin/igget/internal/core/extractor"
	"github.com/guiyumin/igget/internal/core/logging"
)

// statusClientClosedRequest is written when the caller went away before the
// response was ready; nobody reads it, but it keeps aborts out of the 5xx counts
const statusClientClosedRequest = 499

// FetchRequest is the body of POST /api/instagram/fetch
type FetchRequest struct {
	URL string `json:"url" binding:"required"`
}

// DownloadRequest is the body of POST /api/instagram/download
type DownloadRequest struct {
	URL  string `json:"url" binding:"required"`
	Type string `json:"type" binding:"required,oneof=image video"`
}

func (s *Server) fail(c *gin.Context, status int, message string) {
	c.JSON(status, Response{Success: false, Message: message})
}

func (s *Server) handleFetch(c *gin.Context) {
	t := s.translations(c)

	var req FetchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.fail(c, http.StatusBadRequest, t.Errors.InvalidURL)
		return
	}

	ctx := c.Request.Context()
	if s.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.requestTimeout)
		defer cancel()
	}

	result, err := s.resolver.Extract(ctx, req.URL)
	if err == nil {
		s.metrics.fetchSuccess.Add(1)
		c.JSON(http.StatusOK, Response{Success: true, Data: result})
		return
	}

	log := logging.FromContext(ctx, s.logger).With("url", req.URL)
	if errors.Is(err, context.Canceled) {
		log.Info("client closed request during resolve")
		c.Status(statusClientClosedRequest)
		return
	}
	s.metrics.fetchFailures.Add(1)

	switch {
	case errors.Is(err, extractor.ErrNotRecognized):
		s.fail(c, http.StatusBadRequest, t.Errors.InvalidURL)
	case errors.Is(err, extractor.ErrExhausted):
		log.Warn("all strategies failed")
		s.fail(c, http.StatusBadRequest, t.Errors.FetchFailed)
	case errors.Is(err, context.DeadlineExceeded):
		log.Warn("resolve timed out", "timeout", s.requestTimeout)
		s.fail(c, http.StatusGatewayTimeout, t.Errors.Timeout)
	default:
		log.Error("resolve failed", "error", err)
		s.fail(c, http.StatusInternalServerError, t.Errors.ServerError)
	}
}

func (s *Server) handleDownload(c *gin.Context) {
	t := s.translations(c)

	var req DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		message := t.Errors.InvalidURL
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				if fe.Field() == "Type" {
					message = t.Errors.InvalidType
					break
				}
			}
		}
		s.fail(c, http.StatusBadRequest, message)
		return
	}

	asset, err := s.streamer.Open(c.Request.Context(), req.URL, downloader.Kind(req.Type))
	if err != nil {
		log := logging.FromContext(c.Request.Context(), s.logger).With("url", req.URL, "type", req.Type)
		if errors.Is(err, context.Canceled) {
			log.Info("client closed request during download")
			c.Status(statusClientClosedRequest)
			return
		}
		s.metrics.downloadFailures.Add(1)

		switch {
		case errors.Is(err, downloader.ErrInvalidKind):
			s.fail(c, http.StatusBadRequest, t.Errors.InvalidType)
		case errors.Is(err, downloader.ErrInvalidURL):
			s.fail(c, http.StatusBadRequest, t.Errors.InvalidURL)
		case errors.Is(err, downloader.ErrUnavailable):
			log.Warn("asset unavailable", "error", err)
			s.fail(c, http.StatusBadRequest, t.Errors.DownloadFailed)
		default:
			log.Error("asset download failed", "error", err)
			s.fail(c, http.StatusInternalServerError, t.Errors.DownloadError)
		}
		return
	}
	defer asset.Close()

	s.metrics.downloads.Add(1)

	size := asset.Size
	if size <= 0 {
		size = -1
	}
	// Body is relayed as-is; the declared kind decides the content type
	c.DataFromReader(http.StatusOK, size, asset.ContentType, asset.Body, asset.Headers())
}
