package processing

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/google/uuid"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, rec *models.ProcessingRecord) (*models.ProcessingRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO processing_history (id, user_id, filename, file_type, rows_in, rows_out, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.UserID, rec.Filename, rec.FileType, rec.RowsIn, rec.RowsOut, rec.ProcessingTimeMs, rec.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return rec, nil
}

func (r *SQLiteRepository) ListByUser(ctx context.Context, userID string, limit int64) ([]*models.ProcessingRecord, error) {
	query := `
		SELECT id, user_id, filename, file_type, rows_in, rows_out, processing_time_ms, created_at
		FROM processing_history
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
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
