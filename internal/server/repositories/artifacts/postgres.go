package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/dbx"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

// PostgresRepository implements artifact storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, artifact *models.ExportArtifact) (*models.ExportArtifact, error) {
	query := `
		INSERT INTO export_artifacts (record_id, user_id, format, storage_key, storage_backend, size_bytes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query,
		artifact.RecordID, artifact.UserID, artifact.Format, artifact.StorageKey, artifact.StorageBackend, artifact.SizeBytes).
		Scan(&artifact.ID, &artifact.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return artifact, nil
}

// GetByID returns the artifact row used to authorize and locate a download.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.ExportArtifact, error) {
	query := `
		SELECT id, record_id, user_id, format, storage_key, storage_backend, size_bytes, created_at
		FROM export_artifacts
		WHERE id = $1
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

// ListByRecord returns all artifacts produced by one processing run.
func (r *PostgresRepository) ListByRecord(ctx context.Context, recordID string) ([]*models.ExportArtifact, error) {
	query := `
		SELECT id, record_id, user_id, format, storage_key, storage_backend, size_bytes, created_at
		FROM export_artifacts
		WHERE record_id = $1
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
