// Package processing provides repositories for the per-user processing
// history kept for analytics and billing.
package processing

import (
	"context"

	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, rec *models.ProcessingRecord) (*models.ProcessingRecord, error)
	ListByUser(ctx context.Context, userID string, limit int64) ([]*models.ProcessingRecord, error)
}
