// Package artifacts provides repositories for export artifact metadata.
// The exported bytes themselves live in object storage or the local spool;
// these rows are used to authorize and locate downloads.
package artifacts

import (
	"context"

	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, artifact *models.ExportArtifact) (*models.ExportArtifact, error)
	GetByID(ctx context.Context, id string) (*models.ExportArtifact, error)
	ListByRecord(ctx context.Context, recordID string) ([]*models.ExportArtifact, error)
}
