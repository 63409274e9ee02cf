package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/clebronrivera/reading-compass-sub001/internal/config"
	"github.com/clebronrivera/reading-compass-sub001/internal/core"
	"github.com/clebronrivera/reading-compass-sub001/internal/database"
	"github.com/clebronrivera/reading-compass-sub001/internal/entity"
)

func testServer(mem *database.Memory) *Server {
	cfg := &config.Config{}
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.RequestTimeout = 30 * time.Second
	cfg.Import.MaxBodySize = 1 << 20
	cfg.Import.DefaultActor = "system"
	return NewServer(core.NewService(mem), cfg)
}

func doRequest(t *testing.T, srv *Server, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doRequest(t, testServer(database.NewMemory()), http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestListImportTypes(t *testing.T) {
	rec := doRequest(t, testServer(database.NewMemory()), http.MethodGet, "/api/imports/types", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var types []struct {
		Type    string   `json:"type"`
		Label   string   `json:"label"`
		Columns []string `json:"columns"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &types); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(types) != 5 {
		t.Errorf("expected 5 import types, got %d", len(types))
	}
}

func TestTemplateDownload(t *testing.T) {
	rec := doRequest(t, testServer(database.NewMemory()), http.MethodGet, "/api/imports/template/forms", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "form_id,") {
		t.Errorf("body = %q", rec.Body.String())
	}

	rec = doRequest(t, testServer(database.NewMemory()), http.MethodGet, "/api/imports/template/bogus", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown type status = %d", rec.Code)
	}
}

func TestImportEndpoint(t *testing.T) {
	mem := database.NewMemory()
	srv := testServer(mem)

	body := "form_id,assessment_id,content_bank_id,grade_level,form_number,status,equivalence_set_id\n" +
		"READING.G3.form01,READING,READING.BANK.core,G3,1,draft,\n"
	rec := doRequest(t, srv, http.MethodPost, "/api/imports/forms?note=initial", body,
		map[string]string{"X-Actor": "editor@example.org"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var result core.ImportResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !result.Success || result.RowsCreated != 1 {
		t.Errorf("result = %+v", result)
	}

	f, _ := mem.Forms().FetchByID(context.Background(), "READING.G3.form01")
	if f == nil {
		t.Fatal("form not written")
	}

	history, _ := mem.ImportRecords().List(context.Background(), "", 10)
	if len(history) != 1 || history[0].Actor != "editor@example.org" || history[0].Note != "initial" {
		t.Errorf("history = %+v", history)
	}
}

func TestImportEndpointMalformedBody(t *testing.T) {
	rec := doRequest(t, testServer(database.NewMemory()), http.MethodPost,
		"/api/imports/forms", "form_id\n\"unterminated", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestImportEndpointUnknownType(t *testing.T) {
	rec := doRequest(t, testServer(database.NewMemory()), http.MethodPost,
		"/api/imports/bogus", "a\nb\n", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestValidateEndpointWritesNothing(t *testing.T) {
	mem := database.NewMemory()
	srv := testServer(mem)

	body := "form_id,assessment_id,content_bank_id,grade_level,form_number,status,equivalence_set_id\n" +
		"READING.G3.form01,READING,READING.BANK.core,G3,1,draft,\n"
	rec := doRequest(t, srv, http.MethodPost, "/api/imports/forms/validate", body, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var report struct {
		Valid    bool `json:"valid"`
		Analysis struct {
			Creates []string `json:"creates"`
		} `json:"analysis"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !report.Valid || len(report.Analysis.Creates) != 1 {
		t.Errorf("report = %+v", report)
	}

	if f, _ := mem.Forms().FetchByID(context.Background(), "READING.G3.form01"); f != nil {
		t.Error("validate must not write")
	}
}

func TestActivationEndpoints(t *testing.T) {
	mem := database.NewMemory()
	ctx := context.Background()
	_ = mem.Assessments().UpsertBatch(ctx, []entity.Assessment{{
		ID: "READING", Status: entity.AssessmentDraft,
	}})
	srv := testServer(mem)

	// Gate check on an unready assessment reports reasons with 200.
	rec := doRequest(t, srv, http.MethodGet, "/api/assessments/READING/activation", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var res core.GateResult
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Allowed || len(res.Reasons) == 0 {
		t.Errorf("result = %+v", res)
	}

	// Activating it is a conflict carrying the same reasons.
	rec = doRequest(t, srv, http.MethodPost, "/api/assessments/READING/activate", "", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	var conflict struct {
		Reasons []string `json:"reasons"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &conflict); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(conflict.Reasons) != len(res.Reasons) {
		t.Errorf("conflict reasons = %v, gate reasons = %v", conflict.Reasons, res.Reasons)
	}

	// Missing assessments are 404.
	rec = doRequest(t, srv, http.MethodPost, "/api/assessments/MISSING/activate", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d", rec.Code)
	}
}

func TestMarkValidEndpoint(t *testing.T) {
	mem := database.NewMemory()
	ctx := context.Background()
	_ = mem.SpecVersions().UpsertBatch(ctx, []entity.SpecVersion{{
		ID: "READING.ASR.v2", AssessmentID: "READING",
		ValidationStatus: entity.SpecIncomplete, CompletenessPercent: 100,
	}})
	srv := testServer(mem)

	rec := doRequest(t, srv, http.MethodPost, "/api/spec-versions/READING.ASR.v2/mark-valid", "",
		map[string]string{"X-Actor": "reviewer"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	sv, _ := mem.SpecVersions().FetchByID(ctx, "READING.ASR.v2")
	if sv.ValidationStatus != entity.SpecValid {
		t.Errorf("status = %q", sv.ValidationStatus)
	}
	if len(sv.ChangeLog) != 1 || sv.ChangeLog[0].Author != "reviewer" {
		t.Errorf("change log = %v", sv.ChangeLog)
	}
}
