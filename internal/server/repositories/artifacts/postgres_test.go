package artifacts

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/datacleaner/internal/common"
	"github.com/dmitrijs2005/datacleaner/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^INSERT\s+INTO\s+export_artifacts\s*\(record_id,\s*user_id,\s*format,\s*storage_key,\s*storage_backend,\s*size_bytes\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6\)\s*RETURNING\s+id,\s*created_at\s*$`

	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a-1", created)
	mock.ExpectQuery(q).
		WithArgs("rec-1", "u1", "csv", "2025/03/01/abc/leads.csv", "s3", int64(2048)).
		WillReturnRows(rows)

	got, err := repo.Create(context.Background(), &models.ExportArtifact{
		RecordID:       "rec-1",
		UserID:         "u1",
		Format:         "csv",
		StorageKey:     "2025/03/01/abc/leads.csv",
		StorageBackend: "s3",
		SizeBytes:      2048,
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if got.ID != "a-1" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected artifact: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*record_id,\s*user_id,\s*format,\s*storage_key,\s*storage_backend,\s*size_bytes,\s*created_at\s+FROM\s+export_artifacts\s+WHERE\s+id\s*=\s*\$1\s*$`

	mock.ExpectQuery(q).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "missing")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}
