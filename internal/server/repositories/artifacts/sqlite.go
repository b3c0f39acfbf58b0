package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/common"
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

func (r *SQLiteRepository) Create(ctx context.Context, artifact *models.ExportArtifact) (*models.ExportArtifact, error) {
	if artifact.ID == "" {
		artifact.ID = uuid.NewString()
	}
	if artifact.CreatedAt.IsZero() {
		artifact.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO export_artifacts (id, record_id, user_id, format, storage_key, storage_backend, size_bytes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.ExecContext(ctx, query,
		artifact.ID, artifact.RecordID, artifact.UserID, artifact.Format,
		artifact.StorageKey, artifact.StorageBackend, artifact.SizeBytes, artifact.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return artifact, nil
}

func (r *SQLiteRepository) GetByID(ctx context.Context, id string) (*models.ExportArtifact, error) {
	query := `
		SELECT id, record_id, user_id, format, storage_key, storage_backend, size_bytes, created_at
		FROM export_artifacts
		WHERE id = ?
	`
	artifact := &models.ExportArtifact{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&artifact.ID, &artifact.RecordID, &artifact.UserID, &artifact.Format,
		&artifact.StorageKey, &artifact.StorageBackend, &artifact.SizeBytes, &artifact.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return artifact, nil
}

func (r *SQLiteRepository) ListByRecord(ctx context.Context, recordID string) ([]*models.ExportArtifact, error) {
	query := `
		SELECT id, record_id, user_id, format, storage_key, storage_backend, size_bytes, created_at
		FROM export_artifacts
		WHERE record_id = ?
	`
	rows, err := r.db.QueryContext(ctx, query, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to select artifacts: %w", err)
	}
	defer rows.Close()

	var result []*models.ExportArtifact
	for rows.Next() {
		var item models.ExportArtifact
		if err := rows.Scan(
			&item.ID, &item.RecordID, &item.UserID, &item.Format,
			&item.StorageKey, &item.StorageBackend, &item.SizeBytes, &item.CreatedAt,
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
