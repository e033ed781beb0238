package metadata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"filedepot/internal/common"
	"filedepot/internal/dbx"
)

// PostgresRepository implements metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Upsert inserts or refreshes the record keyed by (user_id, file_name).
// RETURNING yields the id actually stored, which on conflict is the id of
// the pre-existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, record *Record) (string, error) {
	query := `
		INSERT INTO file_metadata
			(id, user_id, file_name, file_type, s3_location, file_size, email, tags, categories, summary, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (user_id, file_name)
		DO UPDATE SET
			file_type = EXCLUDED.file_type,
			s3_location = EXCLUDED.s3_location,
			file_size = EXCLUDED.file_size,
			email = EXCLUDED.email,
			tags = EXCLUDED.tags,
			categories = EXCLUDED.categories,
			summary = EXCLUDED.summary,
			processed_at = EXCLUDED.processed_at
		RETURNING id;
	`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		record.ID, record.UserID, record.FileName, record.FileType, record.S3Location,
		record.FileSize, record.Email, pq.Array(record.Tags), pq.Array(record.Categories),
		record.Summary, record.ProcessedAt).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("db error: %w", err)
	}

	return id, nil
}

// GetByUserAndName returns the record for (userID, fileName), or
// common.ErrorNotFound when no row exists.
func (r *PostgresRepository) GetByUserAndName(ctx context.Context, userID, fileName string) (*Record, error) {
	query := ` SELECT id, user_id, file_name, file_type, s3_location, file_size, email, tags, categories, summary, processed_at from file_metadata
		WHERE user_id=$1 and file_name=$2
		`

	result := &Record{}
	err := r.db.QueryRowContext(ctx, query, userID, fileName).Scan(
		&result.ID, &result.UserID, &result.FileName, &result.FileType, &result.S3Location,
		&result.FileSize, &result.Email, pq.Array(&result.Tags), pq.Array(&result.Categories),
		&result.Summary, &result.ProcessedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("failed to select metadata: %w", err)
	}

	return result, nil
}
