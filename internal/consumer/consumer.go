// Package consumer drains metadata requests from the event bus, enriches
// them, persists canonical records, and writes the confirmation markers the
// upload server polls for.
package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"filedepot/internal/consumer/enrich"
	"filedepot/internal/consumer/metadata"
	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
	"filedepot/internal/server/classify"
	"filedepot/internal/server/confirm"
	"filedepot/internal/server/events"
)

// MessageSource is the subset of kafka.Reader the drain loop uses.
type MessageSource interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Downloader streams a stored object back by its location URL.
type Downloader interface {
	Download(ctx context.Context, location string) (io.ReadCloser, error)
}

// Enricher derives search metadata from buffered content.
type Enricher interface {
	Enrich(ctx context.Context, path, filename, fileType string) (enrich.Enrichment, error)
}

// Consumer processes one metadata request at a time. Offsets are committed
// after processing, so delivery is at-least-once and the repository upsert
// provides the idempotency.
type Consumer struct {
	source     MessageSource
	downloads  Downloader
	enricher   Enricher
	repo       metadata.Repository
	store      kvstore.Store
	publisher  events.Publisher
	confirmTTL time.Duration
	tmpDir     string
	logger     logging.Logger
}

func New(
	source MessageSource,
	downloads Downloader,
	enricher Enricher,
	repo metadata.Repository,
	store kvstore.Store,
	publisher events.Publisher,
	confirmTTL time.Duration,
	tmpDir string,
	logger logging.Logger,
) *Consumer {
	return &Consumer{
		source:     source,
		downloads:  downloads,
		enricher:   enricher,
		repo:       repo,
		store:      store,
		publisher:  publisher,
		confirmTTL: confirmTTL,
		tmpDir:     tmpDir,
		logger:     logger.With("module", "consumer"),
	}
}

// Run drains messages until ctx is canceled or the source fails.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		msg, err := c.source.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("fetching message: %w", err)
		}

		if err := c.process(ctx, msg.Value); err != nil {
			// poison messages are logged and committed so a malformed
			// payload cannot wedge the partition
			c.logger.Error(ctx, "failed to process metadata request", "error", err)
		}

		if err := c.source.CommitMessages(ctx, msg); err != nil {
			return fmt.Errorf("committing offset: %w", err)
		}
	}
}

func (c *Consumer) process(ctx context.Context, payload []byte) error {
	var request events.MetadataRequest
	if err := json.Unmarshal(payload, &request); err != nil {
		return fmt.Errorf("decoding metadata request: %w", err)
	}

	c.logger.Info(ctx, "processing metadata request",
		"file", request.FileName, "user_id", request.UserID, "type", request.FileType)

	path, cleanup, err := c.fetchContent(ctx, &request)
	if err != nil {
		c.logger.Warn(ctx, "content unavailable for enrichment, continuing",
			"file", request.FileName, "error", err)
	}
	defer cleanup()

	enrichment, err := c.enricher.Enrich(ctx, path, request.FileName, request.FileType)
	if err != nil {
		// degraded enrichment must not lose the record
		c.logger.Warn(ctx, "enrichment degraded", "file", request.FileName, "error", err)
		enrichment = enrich.Enrichment{}
	}

	record := &metadata.Record{
		ID:          uuid.NewString(),
		UserID:      request.UserID,
		FileName:    request.FileName,
		FileType:    request.FileType,
		S3Location:  request.S3Location,
		FileSize:    request.FileSize,
		Email:       request.Email,
		Tags:        enrichment.Tags,
		Categories:  enrichment.Categories,
		Summary:     enrichment.Summary,
		ProcessedAt: time.Now().UTC(),
	}

	id, err := c.repo.Upsert(ctx, record)
	if err != nil {
		return fmt.Errorf("persisting record for %s: %w", request.FileName, err)
	}

	key := confirm.Key(request.UserID, request.FileName)
	if err := c.store.Set(ctx, key, id, c.confirmTTL); err != nil {
		// the record is durable; the uploader will report the file as
		// pending once its polling deadline passes
		c.logger.Error(ctx, "failed to set confirmation marker", "key", key, "error", err)
	}

	event := events.IndexEvent{ID: id, UserID: request.UserID, FileName: request.FileName}
	if err := c.publisher.Publish(ctx, events.TopicMetadataReady, event); err != nil {
		c.logger.Error(ctx, "failed to publish index event", "file", request.FileName, "error", err)
	}

	c.logger.Info(ctx, "metadata request processed", "file", request.FileName, "id", id)
	return nil
}

// fetchContent buffers the stored object to a temp file for enrichment.
// Only textual kinds are fetched; binary media is enriched by name alone.
// The returned cleanup is always safe to call.
func (c *Consumer) fetchContent(ctx context.Context, request *events.MetadataRequest) (string, func(), error) {
	noop := func() {}

	kind := classify.Kind(request.FileType)
	if kind != classify.KindText && kind != classify.KindCode {
		return "", noop, nil
	}

	body, err := c.downloads.Download(ctx, request.S3Location)
	if err != nil {
		return "", noop, fmt.Errorf("downloading %s: %w", request.S3Location, err)
	}
	defer body.Close()

	f, err := os.CreateTemp(c.tmpDir, "enrich-*")
	if err != nil {
		return "", noop, fmt.Errorf("creating temp file: %w", err)
	}

	cleanup := func() {
		if err := os.Remove(f.Name()); err != nil && !os.IsNotExist(err) {
			c.logger.Warn(ctx, "failed to delete temp file", "path", f.Name(), "error", err)
		}
	}

	_, err = io.Copy(f, body)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		cleanup()
		return "", noop, fmt.Errorf("buffering object: %w", err)
	}

	return f.Name(), cleanup, nil
}
