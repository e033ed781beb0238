// Package upload contains the admission and confirmation pipeline: a single
// synchronous request is screened, quota-checked, persisted to object
// storage, announced to the enrichment pipeline, and held for a bounded
// wait on the out-of-band confirmation marker.
package upload

import (
	"context"
	"fmt"
	"io"
	"os"

	"filedepot/internal/logging"
	"filedepot/internal/server/classify"
	"filedepot/internal/server/events"
	"filedepot/internal/server/moderation"
	"filedepot/internal/server/plans"
)

// BanLedger is the violation/ban surface the pipeline needs.
type BanLedger interface {
	IsBanned(ctx context.Context, userID string) (bool, error)
	IncrementAndCheck(ctx context.Context, userID, email string) (int64, error)
}

// Classifier assigns a coarse content type from the buffered file.
type Classifier interface {
	Detect(path, filename string) classify.Kind
}

// Moderator screens buffered content and produces a verdict.
type Moderator interface {
	Evaluate(ctx context.Context, path, filename string, kind classify.Kind) (moderation.Verdict, error)
}

// PlanResolver resolves a subscription tier and its quota.
type PlanResolver interface {
	Resolve(ctx context.Context, userID, token string) plans.Plan
	QuotaBytes(p plans.Plan) int64
}

// ObjectStore is the subset of the storage gateway used during admission.
type ObjectStore interface {
	Upload(ctx context.Context, key string, r io.Reader) (string, error)
	PrefixSize(ctx context.Context, prefix string) (int64, error)
}

// Confirmer waits for the downstream confirmation marker.
type Confirmer interface {
	Await(ctx context.Context, userID, filename string) (string, error)
}

// Result is returned to the caller after a successful admission. ID is
// empty when the confirmation wait timed out: the file is safely stored and
// only the enrichment identifier is pending.
type Result struct {
	ID             string `json:"id,omitempty"`
	FileName       string `json:"fileName"`
	FileType       string `json:"fileType"`
	S3Location     string `json:"s3Location"`
	FileSize       int64  `json:"fileSize"`
	UserID         string `json:"userId"`
	SecurityStatus string `json:"securityStatus"`
}

// Service orchestrates the upload pipeline. It holds no cross-request
// mutable state; all shared state lives behind the injected collaborators.
type Service struct {
	bans       BanLedger
	classifier Classifier
	moderator  Moderator
	planner    PlanResolver
	store      ObjectStore
	publisher  events.Publisher
	confirmer  Confirmer
	tmpDir     string
	logger     logging.Logger
}

func NewService(
	bans BanLedger,
	classifier Classifier,
	moderator Moderator,
	planner PlanResolver,
	store ObjectStore,
	publisher events.Publisher,
	confirmer Confirmer,
	tmpDir string,
	logger logging.Logger,
) *Service {
	return &Service{
		bans:       bans,
		classifier: classifier,
		moderator:  moderator,
		planner:    planner,
		store:      store,
		publisher:  publisher,
		confirmer:  confirmer,
		tmpDir:     tmpDir,
		logger:     logger.With("module", "upload"),
	}
}

// Process runs the full admission pipeline for one upload. The inbound
// stream is materialized to a temp file that is removed on every exit path.
func (s *Service) Process(ctx context.Context, r io.Reader, filename, userID, email, token string) (*Result, error) {
	banned, err := s.bans.IsBanned(ctx, userID)
	if err != nil {
		// infrastructure fault on the ban check fails open: an unrelated
		// store outage must not deny service
		s.logger.Warn(ctx, "ban check failed, continuing", "user_id", userID, "error", err)
	}
	if banned {
		s.logger.Warn(ctx, "upload rejected: user is banned", "user_id", userID, "file", filename)
		return nil, &PolicyError{
			Code:   CodeBanned,
			Reason: "Upload rejected: Account suspended due to policy violations.",
		}
	}

	tmpPath, size, err := s.buffer(r)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := os.Remove(tmpPath); err != nil && !os.IsNotExist(err) {
			s.logger.Warn(ctx, "failed to delete temp file", "path", tmpPath, "error", err)
		}
	}()

	kind := s.classifier.Detect(tmpPath, filename)

	verdict, err := s.moderator.Evaluate(ctx, tmpPath, filename, kind)
	if err != nil {
		return nil, fmt.Errorf("security check for %s: %w", filename, err)
	}
	switch verdict.Status {
	case moderation.StatusUnsafe:
		s.logger.Warn(ctx, "security violation", "file", filename, "reason", verdict.Reason)
		if _, err := s.bans.IncrementAndCheck(ctx, userID, email); err != nil {
			s.logger.Error(ctx, "failed to record violation", "user_id", userID, "error", err)
		}
		return nil, &PolicyError{
			Code:   CodeUnsafe,
			Reason: "Security Policy Violation: " + verdict.Reason,
		}
	case moderation.StatusError:
		// infrastructure faults must not count against the user
		return nil, &PolicyError{
			Code:   CodeModerationError,
			Reason: "Security Check Failed: " + verdict.Reason,
		}
	}

	if err := s.enforceQuota(ctx, userID, token, size); err != nil {
		return nil, err
	}

	key := userID + "/" + filename
	location, err := s.uploadBuffered(ctx, tmpPath, key)
	if err != nil {
		return nil, err
	}

	request := events.MetadataRequest{
		FileName:   filename,
		FileType:   string(kind),
		S3Location: location,
		UserID:     userID,
		FileSize:   size,
		Email:      email,
	}
	// Publish failure after a successful store write is an accepted
	// at-least-once boundary: the object stays stored, enrichment may
	// never happen, and the client still gets a success response.
	if err := s.publisher.Publish(ctx, events.TopicMetadataRequests, request); err != nil {
		s.logger.Error(ctx, "failed to publish metadata request", "file", filename, "error", err)
	}

	id, err := s.confirmer.Await(ctx, userID, filename)
	if err != nil {
		return nil, err
	}

	return &Result{
		ID:             id,
		FileName:       filename,
		FileType:       string(kind),
		S3Location:     location,
		FileSize:       size,
		UserID:         userID,
		SecurityStatus: "safe",
	}, nil
}

// buffer materializes the inbound stream to a temp file so later stages can
// re-read it. The caller owns removal.
func (s *Service) buffer(r io.Reader) (string, int64, error) {
	f, err := os.CreateTemp(s.tmpDir, "upload-*")
	if err != nil {
		return "", 0, fmt.Errorf("creating temp file: %w", err)
	}

	size, err := io.Copy(f, r)
	if cerr := f.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(f.Name())
		return "", 0, fmt.Errorf("buffering upload: %w", err)
	}

	return f.Name(), size, nil
}

func (s *Service) enforceQuota(ctx context.Context, userID, token string, size int64) error {
	usage, err := s.store.PrefixSize(ctx, userID+"/")
	if err != nil {
		return fmt.Errorf("aggregating usage for %s: %w", userID, err)
	}

	plan := s.planner.Resolve(ctx, userID, token)
	quota := s.planner.QuotaBytes(plan)

	// written as size > quota-usage so a fail-closed MaxInt64 usage cannot
	// overflow the comparison
	if usage > quota || size > quota-usage {
		return &QuotaExceededError{QuotaBytes: quota, UsageBytes: usage, FileBytes: size}
	}

	return nil
}

func (s *Service) uploadBuffered(ctx context.Context, tmpPath, key string) (string, error) {
	f, err := os.Open(tmpPath)
	if err != nil {
		return "", fmt.Errorf("reopening buffered upload: %w", err)
	}
	defer f.Close()

	location, err := s.store.Upload(ctx, key, f)
	if err != nil {
		return "", fmt.Errorf("storing object %s: %w", key, err)
	}

	return location, nil
}
