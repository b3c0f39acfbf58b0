package processing

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:processingrepo?mode=memory&cache=shared&_time_format=sqlite")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE processing_history (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  filename TEXT NOT NULL,
  file_type TEXT NOT NULL,
  rows_in INTEGER NOT NULL DEFAULT 0,
  rows_out INTEGER NOT NULL DEFAULT 0,
  processing_time_ms INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME NOT NULL
);
`)
	require.NoError(t, err)

	return db
}

func TestSQLite_CreateAndList(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	rec, err := r.Create(ctx, &models.ProcessingRecord{
		UserID:           "u1",
		Filename:         "leads.csv",
		FileType:         "csv",
		RowsIn:           120,
		RowsOut:          98,
		ProcessingTimeMs: 350,
	})
	require.NoError(t, err)
	require.NotEmpty(t, rec.ID)
	require.False(t, rec.CreatedAt.IsZero())

	got, err := r.ListByUser(ctx, "u1", 50)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "leads.csv", got[0].Filename)
	assert.EqualValues(t, 120, got[0].RowsIn)
	assert.EqualValues(t, 98, got[0].RowsOut)
	assert.EqualValues(t, 350, got[0].ProcessingTimeMs)
}

func TestSQLite_ListNewestFirstWithLimit(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		_, err := r.Create(ctx, &models.ProcessingRecord{
			ID:        fmt.Sprintf("rec-%d", i),
			UserID:    "u1",
			Filename:  fmt.Sprintf("file-%d.csv", i),
			FileType:  "csv",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}
	// another user's record must not leak in
	_, err := r.Create(ctx, &models.ProcessingRecord{UserID: "u2", Filename: "other.csv", FileType: "csv"})
	require.NoError(t, err)

	got, err := r.ListByUser(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "file-4.csv", got[0].Filename)
	assert.Equal(t, "file-3.csv", got[1].Filename)
	assert.Equal(t, "file-2.csv", got[2].Filename)
}

func TestSQLite_ListEmpty(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)

	got, err := r.ListByUser(context.Background(), "nobody", 50)
	require.NoError(t, err)
	assert.Empty(t, got)
}
