package cleanengine

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

var xlsxMagic = []byte{0x50, 0x4b, 0x03, 0x04}

func sampleRequest() *CleanRequest {
	return &CleanRequest{
		Filename: "leads.csv",
		FileType: "csv",
		Data:     []byte("email\na@b.co\nbad row\n"),
		Options: Options{
			Delimiter:        ",",
			NormalizeHeaders: true,
			DropEmptyRows:    true,
			ApplyCRMMappings: true,
			ExportFormats:    []string{"csv", "json", "excel"},
		},
	}
}

func TestClean_Success(t *testing.T) {
	var (
		gotPath   string
		gotForm   map[string]string
		gotFile   []byte
		gotUpName string
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotForm = map[string]string{}
		for _, k := range []string{"delimiter", "normalize_headers", "drop_empty_rows", "apply_crm_mappings", "file_type", "export_formats", "sheet_name"} {
			gotForm[k] = r.FormValue(k)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		gotUpName = hdr.Filename
		gotFile, _ = io.ReadAll(f)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"filename": hdr.Filename,
			"success":  true,
			"outputs": map[string]string{
				"master_cleanse_csv":   "email\na@b.co\n",
				"master_cleanse_json":  `[{"email":"a@b.co"}]`,
				"master_cleanse_excel": base64.StdEncoding.EncodeToString(xlsxMagic),
			},
			"report": map[string]any{"rows_in": 3, "rows_out": 2},
		})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	req := sampleRequest()
	res, err := engine.Clean(context.Background(), req)
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}

	if gotPath != "/api/services/data-clean" {
		t.Errorf("unexpected path: %q", gotPath)
	}
	if gotUpName != "leads.csv" || string(gotFile) != string(req.Data) {
		t.Errorf("file not forwarded intact: name=%q body=%q", gotUpName, gotFile)
	}
	wantForm := map[string]string{
		"delimiter":          ",",
		"normalize_headers":  "true",
		"drop_empty_rows":    "true",
		"apply_crm_mappings": "true",
		"file_type":          "csv",
		"export_formats":     "csv,json,excel",
		"sheet_name":         "",
	}
	for k, want := range wantForm {
		if gotForm[k] != want {
			t.Errorf("form field %s: got %q, want %q", k, gotForm[k], want)
		}
	}

	if res.RowsIn != 3 || res.RowsOut != 2 {
		t.Errorf("unexpected report: %+v", res)
	}
	if len(res.Exports) != 3 {
		t.Fatalf("expected 3 exports, got %d", len(res.Exports))
	}
	order := []string{"csv", "json", "excel"}
	for i, format := range order {
		if res.Exports[i].Format != format {
			t.Errorf("export %d: got format %q, want %q", i, res.Exports[i].Format, format)
		}
	}
	if string(res.Exports[2].Data) != string(xlsxMagic) {
		t.Errorf("excel export not base64-decoded: %v", res.Exports[2].Data)
	}
}

func TestClean_SubsetOfExports(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"outputs": map[string]string{"master_cleanse_json": `[]`},
			"report":  map[string]any{"rows_in": 1, "rows_out": 1},
		})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	res, err := engine.Clean(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Clean error: %v", err)
	}
	if len(res.Exports) != 1 || res.Exports[0].Format != "json" {
		t.Fatalf("unexpected exports: %+v", res.Exports)
	}
}

func TestClean_UnsupportedFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unsupported", http.StatusUnsupportedMediaType)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	_, err := engine.Clean(context.Background(), sampleRequest())
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("want ErrUnsupportedFormat, got %v", err)
	}
}

func TestClean_ParseFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad file", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	_, err := engine.Clean(context.Background(), sampleRequest())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("want ErrParse, got %v", err)
	}
}

func TestClean_EngineReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"filename": "leads.csv",
			"success":  false,
			"error":    "could not detect delimiter",
		})
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	_, err := engine.Clean(context.Background(), sampleRequest())
	if !errors.Is(err, ErrParse) {
		t.Fatalf("want ErrParse, got %v", err)
	}
	if !strings.Contains(err.Error(), "could not detect delimiter") {
		t.Fatalf("engine message lost: %v", err)
	}
}

func TestClean_UnexpectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "exploded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	engine := NewHTTPEngine(srv.URL, 5*time.Second)
	_, err := engine.Clean(context.Background(), sampleRequest())
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Fatalf("expected status error, got %v", err)
	}
}

func TestClean_InterfaceSatisfied(t *testing.T) {
	var _ Engine = NewHTTPEngine("http://127.0.0.1:5002/", time.Second)
}
