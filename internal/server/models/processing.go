package models

import "time"

type ProcessingRecord struct {
	ID               string
	UserID           string
	Filename         string
	FileType         string
	RowsIn           int64
	RowsOut          int64
	ProcessingTimeMs int64
	CreatedAt        time.Time
}
