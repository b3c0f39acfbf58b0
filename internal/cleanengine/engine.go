// Package cleanengine is the client for the external data cleaning engine.
// The engine itself is a separate service; this package only speaks its wire
// protocol and normalizes its failure modes into sentinel errors.
package cleanengine

import (
	"context"
	"errors"
)

var (
	// ErrUnsupportedFormat reports a file type the engine cannot process.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	// ErrParse reports a file the engine could not read as its declared type.
	ErrParse = errors.New("file could not be parsed")
)

// Options mirror the engine's processing knobs. Zero values are not
// substituted here; callers fill defaults before submitting.
type Options struct {
	Delimiter        string
	NormalizeHeaders bool
	DropEmptyRows    bool
	ApplyCRMMappings bool
	SheetName        string
	ExportFormats    []string
}

// CleanRequest is one file submitted for cleaning. FileType may be empty,
// in which case the engine detects it from the filename extension.
type CleanRequest struct {
	Filename string
	FileType string
	Data     []byte
	Options  Options
}

// Export is one cleaned output produced by the engine.
type Export struct {
	Format string
	Data   []byte
}

// Result is the engine's report for a single cleaned file.
type Result struct {
	RowsIn  int64
	RowsOut int64
	Exports []Export
}

type Engine interface {
	Clean(ctx context.Context, req *CleanRequest) (*Result, error)
}
