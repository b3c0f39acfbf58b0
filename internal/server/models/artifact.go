package models

import "time"

// Values for ExportArtifact.StorageBackend.
const (
	StorageBackendS3    = "s3"
	StorageBackendLocal = "local"
)

// ExportArtifact describes one exported output of a processing run. The
// bytes themselves live in object storage or the local export spool.
type ExportArtifact struct {
	ID       string
	RecordID string
	UserID   string
	// Format is the export format name: "csv", "json" or "excel".
	Format string
	// StorageKey is the object-storage key or local filesystem path of the file.
	StorageKey string
	// StorageBackend is "s3" or "local", depending on where the bytes went.
	StorageBackend string
	SizeBytes      int64
	CreatedAt      time.Time
}
