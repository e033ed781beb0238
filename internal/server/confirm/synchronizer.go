// Package confirm implements the producer side of the confirmation
// handshake: the upload pipeline polls the shared store for a marker that
// the downstream metadata consumer writes once enrichment completes.
//
// Polling is a deliberate simplification of a push-based completion signal.
// The contract that matters is bounded-deadline-then-degrade: absence of the
// marker within the deadline means "still pending", never failure. Markers
// carry a short TTL on the consumer side, so an unread marker simply
// expires; a client retrying the same filename immediately after a timeout
// could in rare races observe the previous attempt's marker.
package confirm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"

	"filedepot/internal/common"
	"filedepot/internal/kvstore"
	"filedepot/internal/logging"
)

const keyPrefix = "file:sync_confirm:"

// Key builds the marker key for an upload. Both sides of the handshake
// must agree on this format.
func Key(userID, filename string) string {
	return keyPrefix + userID + ":" + filename
}

// Synchronizer waits for confirmation markers with a bounded deadline.
type Synchronizer struct {
	store    kvstore.Store
	timeout  time.Duration
	interval time.Duration
	logger   logging.Logger
}

func NewSynchronizer(store kvstore.Store, timeout, interval time.Duration, logger logging.Logger) *Synchronizer {
	return &Synchronizer{
		store:    store,
		timeout:  timeout,
		interval: interval,
		logger:   logger.With("module", "confirm"),
	}
}

var errMarkerPending = errors.New("confirmation marker pending")

// Await polls for the confirmation marker until it appears or the deadline
// elapses. On success the marker is consumed (deleted) so a second read
// observes it absent; on timeout it returns an empty identifier and no
// error. Cancellation of the surrounding request aborts the wait.
func (s *Synchronizer) Await(ctx context.Context, userID, filename string) (string, error) {
	key := Key(userID, filename)
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.logger.Debug(ctx, "polling for confirmation marker", "key", key)

	var id string
	err := retry.Do(ctx, retry.NewConstant(s.interval), func(ctx context.Context) error {
		v, err := s.store.Get(ctx, key)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return retry.RetryableError(errMarkerPending)
			}
			return err
		}
		if v == "" {
			return retry.RetryableError(errMarkerPending)
		}
		id = v
		return nil
	})

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn(ctx, "confirmation timed out, enrichment still pending",
				"user_id", userID, "file", filename)
			return "", nil
		}
		return "", fmt.Errorf("awaiting confirmation: %w", err)
	}

	// single-consumer semantics: the marker is consumed exactly once
	if err := s.store.Delete(context.WithoutCancel(ctx), key); err != nil {
		s.logger.Warn(ctx, "failed to consume confirmation marker", "key", key, "error", err)
	}

	return id, nil
}
