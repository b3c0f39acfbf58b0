package processing

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

// PostgresRepository implements processing history storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, rec *models.ProcessingRecord) (*models.ProcessingRecord, error) {
	query := `
		INSERT INTO processing_history (user_id, filename, file_type, rows_in, rows_out, processing_time_ms)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		rec.UserID, rec.Filename, rec.FileType, rec.RowsIn, rec.RowsOut, rec.ProcessingTimeMs).
		Scan(&rec.ID, &rec.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

// ListByUser returns the most recent processing records for userID, newest
// first, capped at limit.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.ProcessingRecord, error) {
	query := `
		SELECT id, user_id, filename, file_type, rows_in, rows_out, processing_time_ms, created_at
		FROM processing_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select processing history: %w", err)
	}
	defer rows.Close()

	var result []*models.ProcessingRecord
	for rows.Next() {
		var item models.ProcessingRecord
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Filename, &item.FileType,
			&item.RowsIn, &item.RowsOut, &item.ProcessingTimeMs, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
