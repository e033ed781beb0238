// Package httpapi exposes the upload pipeline over HTTP. It is a thin
// adapter: authentication, routing policy and rendering belong to the outer
// gateway, which forwards the caller's identity in headers.
package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"filedepot/internal/logging"
	"filedepot/internal/server/upload"
)

// Uploader runs the admission pipeline for one file.
type Uploader interface {
	Process(ctx context.Context, r io.Reader, filename, userID, email, token string) (*upload.Result, error)
}

// Downloader streams a stored object back by its location URL.
type Downloader interface {
	Download(ctx context.Context, location string) (io.ReadCloser, error)
}

type Server struct {
	address   string
	uploads   Uploader
	downloads Downloader
	logger    logging.Logger
}

func NewServer(address string, uploads Uploader, downloads Downloader, logger logging.Logger) *Server {
	return &Server{
		address:   address,
		uploads:   uploads,
		downloads: downloads,
		logger:    logger.With("module", "httpapi"),
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api/files")
	api.POST("/upload", s.handleUpload)
	api.GET("/download", s.handleDownload)

	return r
}

// Run serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return nil
}

func (s *Server) handleUpload(c *gin.Context) {
	userID := c.GetHeader("X-User-Id")
	email := c.GetHeader("X-User-Email")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing X-User-Id header"})
		return
	}
	token := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing multipart field 'file'"})
		return
	}
	defer file.Close()

	result, err := s.uploads.Process(c.Request.Context(), file, header.Filename, userID, email, token)
	if err != nil {
		s.renderUploadError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// renderUploadError maps the pipeline's error taxonomy onto HTTP statuses.
// Policy rejections carry their reason verbatim; infrastructure failures
// stay opaque.
func (s *Server) renderUploadError(c *gin.Context, err error) {
	var policyErr *upload.PolicyError
	if errors.As(err, &policyErr) {
		status := http.StatusUnprocessableEntity
		if policyErr.Code == upload.CodeBanned {
			status = http.StatusForbidden
		}
		c.JSON(status, gin.H{"error": policyErr.Reason})
		return
	}

	var quotaErr *upload.QuotaExceededError
	if errors.As(err, &quotaErr) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": quotaErr.Error()})
		return
	}

	s.logger.Error(c.Request.Context(), "upload failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process file upload"})
}

func (s *Server) handleDownload(c *gin.Context) {
	location := c.Query("location")
	if location == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing 'location' query parameter"})
		return
	}

	body, err := s.downloads.Download(c.Request.Context(), location)
	if err != nil {
		s.logger.Error(c.Request.Context(), "download failed", "location", location, "error", err)
		c.JSON(http.StatusNotFound, gin.H{"error": "object not found"})
		return
	}
	defer body.Close()

	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, body); err != nil {
		s.logger.Warn(c.Request.Context(), "download stream interrupted", "error", err)
	}
}
