package httpapi

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/datacleaner/internal/cleanengine"
	"github.com/dmitrijs2005/datacleaner/internal/server/services"
	"github.com/gorilla/mux"
)

type cleanReport struct {
	RowsIn           int64  `json:"rows_in"`
	RowsOut          int64  `json:"rows_out"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	FileType         string `json:"file_type"`
}

type cleanArtifact struct {
	ID        string `json:"id"`
	Format    string `json:"format"`
	SizeBytes int64  `json:"size_bytes"`
}

// cleanFileResult is the per-file entry of a data-clean response. A batch
// keeps going after individual failures, so each entry carries its own
// success flag.
type cleanFileResult struct {
	Filename  string          `json:"filename"`
	Success   bool            `json:"success"`
	Error     string          `json:"error,omitempty"`
	RecordID  string          `json:"record_id,omitempty"`
	Report    *cleanReport    `json:"report,omitempty"`
	Artifacts []cleanArtifact `json:"artifacts,omitempty"`
}

type historyRecord struct {
	ID               string    `json:"id"`
	Filename         string    `json:"filename"`
	FileType         string    `json:"file_type"`
	RowsIn           int64     `json:"rows_in"`
	RowsOut          int64     `json:"rows_out"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CreatedAt        time.Time `json:"created_at"`
}

type artifactListing struct {
	ID        string    `json:"id"`
	Format    string    `json:"format"`
	SizeBytes int64     `json:"size_bytes"`
	CreatedAt time.Time `json:"created_at"`
}

// handleDataClean accepts one or more uploads under "files[]" (or a single
// "file") plus cleaning options as form fields. One file answers with its
// result directly; several answer with a batch envelope, HTTP 200 even when
// some of the files failed.
func (s *Server) handleDataClean(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files[]"]
	if len(files) == 0 {
		files = r.MultipartForm.File["file"]
	}
	if len(files) == 0 {
		respondError(w, http.StatusBadRequest, "No files selected")
		return
	}

	opts := cleanengine.Options{
		Delimiter:        r.FormValue("delimiter"),
		NormalizeHeaders: formBool(r, "normalize_headers"),
		DropEmptyRows:    formBool(r, "drop_empty_rows"),
		ApplyCRMMappings: formBool(r, "apply_crm_mappings"),
		SheetName:        r.FormValue("sheet_name"),
	}
	if raw := r.FormValue("export_formats"); raw != "" {
		for _, f := range strings.Split(raw, ",") {
			if f = strings.TrimSpace(f); f != "" {
				opts.ExportFormats = append(opts.ExportFormats, f)
			}
		}
	}
	fileType := r.FormValue("file_type")

	uid := userID(r.Context())
	results := make([]cleanFileResult, 0, len(files))
	lastStatus := http.StatusOK
	for _, fh := range files {
		res, status := s.cleanOne(r, uid, fh, fileType, opts)
		results = append(results, res)
		lastStatus = status
	}

	if len(results) == 1 {
		respondJSON(w, lastStatus, results[0])
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"batch":           true,
		"files_processed": len(results),
		"results":         results,
	})
}

func (s *Server) cleanOne(r *http.Request, uid string, fh *multipart.FileHeader, fileType string, opts cleanengine.Options) (cleanFileResult, int) {
	f, err := fh.Open()
	if err != nil {
		return cleanFileResult{Filename: fh.Filename, Error: "Could not read uploaded file"}, http.StatusBadRequest
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return cleanFileResult{Filename: fh.Filename, Error: "Could not read uploaded file"}, http.StatusBadRequest
	}

	res, err := s.cleaning.Clean(r.Context(), uid, &services.CleanUpload{
		Filename: fh.Filename,
		FileType: fileType,
		Data:     data,
	}, opts)
	if err != nil {
		s.logger.Error(r.Context(), "cleaning failed", "filename", fh.Filename, "error", err)
		return cleanFileResult{Filename: fh.Filename, Error: err.Error()}, cleanStatus(err)
	}

	artifacts := make([]cleanArtifact, 0, len(res.Artifacts))
	for _, a := range res.Artifacts {
		artifacts = append(artifacts, cleanArtifact{ID: a.ID, Format: a.Format, SizeBytes: a.SizeBytes})
	}
	return cleanFileResult{
		Filename: fh.Filename,
		Success:  true,
		RecordID: res.Record.ID,
		Report: &cleanReport{
			RowsIn:           res.Record.RowsIn,
			RowsOut:          res.Record.RowsOut,
			ProcessingTimeMs: res.Record.ProcessingTimeMs,
			FileType:         res.Record.FileType,
		},
		Artifacts: artifacts,
	}, http.StatusOK
}

func cleanStatus(err error) int {
	switch {
	case errors.Is(err, cleanengine.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType
	case errors.Is(err, cleanengine.ErrParse):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.ParseInt(r.URL.Query().Get("limit"), 10, 64)

	records, err := s.cleaning.History(r.Context(), userID(r.Context()), limit)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := make([]historyRecord, 0, len(records))
	for _, rec := range records {
		out = append(out, historyRecord{
			ID:               rec.ID,
			Filename:         rec.Filename,
			FileType:         rec.FileType,
			RowsIn:           rec.RowsIn,
			RowsOut:          rec.RowsOut,
			ProcessingTimeMs: rec.ProcessingTimeMs,
			CreatedAt:        rec.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "records": out})
}

func (s *Server) handleRecordArtifacts(w http.ResponseWriter, r *http.Request) {
	recordID := mux.Vars(r)["recordID"]

	artifacts, err := s.cleaning.RecordArtifacts(r.Context(), userID(r.Context()), recordID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	out := make([]artifactListing, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, artifactListing{ID: a.ID, Format: a.Format, SizeBytes: a.SizeBytes, CreatedAt: a.CreatedAt})
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true, "artifacts": out})
}

// handleExport serves a stored export: a redirect to a presigned URL for
// object storage, a direct file download for the local spool.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	artifactID := mux.Vars(r)["artifactID"]

	content, err := s.cleaning.OpenArtifact(r.Context(), userID(r.Context()), artifactID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if content.RedirectURL != "" {
		http.Redirect(w, r, content.RedirectURL, http.StatusFound)
		return
	}

	w.Header().Set("Content-Type", contentTypeForFormat(content.Format))
	w.Header().Set("Content-Disposition", "attachment; filename="+strconv.Quote(filepath.Base(content.Path)))
	http.ServeFile(w, r, content.Path)
}

func contentTypeForFormat(format string) string {
	switch format {
	case "csv":
		return "text/csv"
	case "json":
		return "application/json"
	case "excel":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

// formBool reads a form flag that defaults to enabled when absent.
func formBool(r *http.Request, key string) bool {
	v := r.FormValue(key)
	if v == "" {
		return true
	}
	return strings.ToLower(v) == "true"
}
