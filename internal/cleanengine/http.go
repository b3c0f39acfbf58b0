package cleanengine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// HTTPEngine submits files to a cleaning engine instance over HTTP.
type HTTPEngine struct {
	baseURL string
	client  *http.Client
}

// NewHTTPEngine returns an engine client for the instance at baseURL.
// The timeout bounds the whole exchange including the response body.
func NewHTTPEngine(baseURL string, timeout time.Duration) *HTTPEngine {
	return &HTTPEngine{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

type cleanReport struct {
	RowsIn  int64 `json:"rows_in"`
	RowsOut int64 `json:"rows_out"`
}

type cleanResponse struct {
	Success bool              `json:"success"`
	Error   string            `json:"error"`
	Outputs map[string]string `json:"outputs"`
	Report  cleanReport       `json:"report"`
}

// exportKeys fixes the order exports are returned in. The excel payload is
// the only binary one and arrives base64-encoded.
var exportKeys = []struct {
	key     string
	format  string
	encoded bool
}{
	{key: "master_cleanse_csv", format: "csv"},
	{key: "master_cleanse_json", format: "json"},
	{key: "master_cleanse_excel", format: "excel", encoded: true},
}

// Clean uploads one file as multipart form data and decodes the engine report.
// Engine-side rejections map to ErrUnsupportedFormat and ErrParse.
func (e *HTTPEngine) Clean(ctx context.Context, req *CleanRequest) (*Result, error) {
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	fw, err := w.CreateFormFile("file", req.Filename)
	if err != nil {
		return nil, fmt.Errorf("multipart error: %w", err)
	}
	if _, err := fw.Write(req.Data); err != nil {
		return nil, fmt.Errorf("multipart error: %w", err)
	}

	opts := req.Options
	fields := map[string]string{
		"delimiter":          opts.Delimiter,
		"normalize_headers":  strconv.FormatBool(opts.NormalizeHeaders),
		"drop_empty_rows":    strconv.FormatBool(opts.DropEmptyRows),
		"apply_crm_mappings": strconv.FormatBool(opts.ApplyCRMMappings),
		"export_formats":     strings.Join(opts.ExportFormats, ","),
	}
	if req.FileType != "" {
		fields["file_type"] = req.FileType
	}
	if opts.SheetName != "" {
		fields["sheet_name"] = opts.SheetName
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("multipart error: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("multipart error: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/api/services/data-clean", body)
	if err != nil {
		return nil, fmt.Errorf("request error: %w", err)
	}
	httpReq.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("clean engine request failed: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnsupportedMediaType:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, req.Filename)
	case http.StatusUnprocessableEntity:
		return nil, fmt.Errorf("%w: %s", ErrParse, req.Filename)
	default:
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("clean engine returned %s; body: %s", resp.Status, string(b))
	}

	var decoded cleanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("clean engine response decode error: %w", err)
	}
	if !decoded.Success {
		return nil, fmt.Errorf("%w: %s", ErrParse, decoded.Error)
	}

	result := &Result{RowsIn: decoded.Report.RowsIn, RowsOut: decoded.Report.RowsOut}
	for _, ek := range exportKeys {
		raw, ok := decoded.Outputs[ek.key]
		if !ok || raw == "" {
			continue
		}
		data := []byte(raw)
		if ek.encoded {
			data, err = base64.StdEncoding.DecodeString(raw)
			if err != nil {
				return nil, fmt.Errorf("clean engine export decode error: %w", err)
			}
		}
		result.Exports = append(result.Exports, Export{Format: ek.format, Data: data})
	}
	return result, nil
}
