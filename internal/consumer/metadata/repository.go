// Package metadata persists the canonical record for every processed file.
// The upload server never reads this store directly; it learns the record id
// through the confirmation marker.
package metadata

import (
	"context"
	"time"
)

// Record is the canonical metadata row for one stored file.
type Record struct {
	ID          string
	UserID      string
	FileName    string
	FileType    string
	S3Location  string
	FileSize    int64
	Email       string
	Tags        []string
	Categories  []string
	Summary     string
	ProcessedAt time.Time
}

type Repository interface {
	// Upsert inserts the record or, when a row for (user_id, file_name)
	// already exists, refreshes it in place. The id of the stored row is
	// returned; on conflict it is the existing id, so re-deliveries do not
	// mint new identities.
	Upsert(ctx context.Context, record *Record) (string, error)
	GetByUserAndName(ctx context.Context, userID, fileName string) (*Record, error)
}
