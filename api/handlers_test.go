/*
handlers_test.go - Unit tests for API handlers

Tests for:
- Dashboard report and filters (GetReport)
- Dimension pages and page errors (GetDimension)
- Export downloads (ExportReport)
- Imports into writable and read-only sources (ImportRecords)
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
	"github.com/warp/agency-reports/store/sqlite"
)

func ptr[T any](v T) *T { return &v }

var testNow = generic.Date(2025, 6, 30)

func testRecords() commission.Records {
	return commission.Records{
		Agents: []commission.Agent{{ID: "a1", Name: "Jane Smith", Agency: "ABC Realty"}},
		Properties: []commission.Property{
			{ID: "p1", Agency: "ABC Realty", Agent: "Jane Smith", Suburb: "Springfield",
				ListingPrice: 650000, CommissionRate: ptr(2.5), Category: commission.CategoryListing,
				ListedDate: generic.Date(2025, 6, 20)},
			{ID: "p2", Agency: "abc realty", Agent: "jane smith", Suburb: "springfield",
				ListingPrice: 500000, SoldPrice: ptr(520000.0), CommissionRate: ptr(2.0), ContractStatus: "sold",
				ListedDate: generic.Date(2025, 1, 10)},
			{ID: "p3", Agency: "Harbour Homes", Agent: "Tom Nguyen", Suburb: "Bayview",
				ListingPrice: 400000, CommissionRate: ptr(1.5), ListedDate: generic.Date(2025, 6, 1)},
		},
		Activities: []commission.Activity{
			{ID: "act1", AgentID: "a1", Type: commission.ActivityDoorKnock, Date: generic.Date(2025, 6, 25),
				StreetName: "Main St", Suburb: "Springfield", Status: commission.StatusCompleted, KnocksMade: 40},
		},
		Plans: []commission.MarketingPlan{{
			ID: "plan1", AgentID: "a1", Suburb: "Springfield",
			Start: generic.Date(2025, 6, 1), End: generic.Date(2025, 7, 31),
			DoorKnocks: []commission.DoorKnockTarget{{StreetName: "Main St", Knocks: 100}},
		}},
	}
}

// setupTestHandler returns a handler over an in-memory SQLite store holding
// testRecords, with the clock fixed at testNow.
func setupTestHandler(t *testing.T) (*Handler, http.Handler) {
	t.Helper()
	store, err := sqlite.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	if err := store.SaveRecords(context.Background(), testRecords()); err != nil {
		t.Fatalf("Failed to save records: %v", err)
	}

	h := NewHandler(store)
	h.Clock = generic.FixedClock(testNow)
	return h, NewRouter(h, nil)
}

func do(t *testing.T, router http.Handler, method, target string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("Expected status %d, got %d: %s", status, rec.Code, rec.Body.String())
	}
	resp := decode[ErrorResponse](t, rec)
	if resp.Code != code {
		t.Errorf("Expected error code %q, got %q", code, resp.Code)
	}
}

// =============================================================================
// REPORTS
// =============================================================================

func TestGetReport_Summary(t *testing.T) {
	// GIVEN: Two spellings of one agency and a second agency
	_, router := setupTestHandler(t)

	// WHEN: Requesting the unfiltered report
	rec := do(t, router, http.MethodGet, "/api/reports", nil)

	// THEN: Spellings merge and totals cover every property
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	report := decode[ReportDTO](t, rec)

	if report.Summary.TotalCommission.Amount != 32650 {
		t.Errorf("Expected total commission 32650, got %v", report.Summary.TotalCommission.Amount)
	}
	if report.Summary.SoldCommission.Amount != 10400 {
		t.Errorf("Expected sold commission 10400, got %v", report.Summary.SoldCommission.Amount)
	}
	if report.Summary.TopAgency != "Abc Realty" {
		t.Errorf("Expected top agency Abc Realty, got %q", report.Summary.TopAgency)
	}
	if len(report.Agencies) != 2 || report.Agencies[0].Key != "Abc Realty" || report.Agencies[0].TotalCommission.Amount != 26650 {
		t.Errorf("Unexpected agencies: %+v", report.Agencies)
	}
	if report.Currency != "AUD" {
		t.Errorf("Expected AUD, got %q", report.Currency)
	}
	if report.Filter.Label != "All records" || report.Filter.Status != "all" || report.Filter.Sort != "commission" {
		t.Errorf("Unexpected filter echo: %+v", report.Filter)
	}
	if report.GeneratedAt != "2025-06-30T00:00:00Z" {
		t.Errorf("Expected generated_at from the handler clock, got %q", report.GeneratedAt)
	}
}

func TestGetReport_Filters(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		query string
		want  float64
	}{
		{"status=sold", 10400},
		{"status=listed", 22250},
		{"agency=harbour", 6000},
		{"search=SPRING", 26650},
		{"date_range=last_30_days", 22250},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/reports?"+tt.query, nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			report := decode[ReportDTO](t, rec)
			if report.Summary.TotalCommission.Amount != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, report.Summary.TotalCommission.Amount)
			}
		})
	}
}

func TestGetReport_InvalidQuery(t *testing.T) {
	_, router := setupTestHandler(t)

	expectError(t, do(t, router, http.MethodGet, "/api/reports?status=pending", nil), http.StatusBadRequest, "invalid_filter")
	expectError(t, do(t, router, http.MethodGet, "/api/reports?date_range=yesterday", nil), http.StatusBadRequest, "invalid_filter")
	expectError(t, do(t, router, http.MethodGet, "/api/reports?sort=name", nil), http.StatusBadRequest, "invalid_filter")
	expectError(t, do(t, router, http.MethodGet, "/api/reports?top=five", nil), http.StatusBadRequest, "invalid_filter")
}

func TestGetDimension_Pages(t *testing.T) {
	_, router := setupTestHandler(t)

	// WHEN: Requesting page 2 of agencies, one per page
	rec := do(t, router, http.MethodGet, "/api/reports/agencies?page=2&page_size=1", nil)

	// THEN: The second-ranked agency is returned with page metadata
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[PageDTO](t, rec)
	if page.Page != 2 || page.PageCount != 2 || page.Total != 2 || page.PageSize != 1 {
		t.Errorf("Unexpected page metadata: %+v", page)
	}
	if len(page.Items) != 1 || page.Items[0].Key != "Harbour Homes" {
		t.Errorf("Expected Harbour Homes, got %+v", page.Items)
	}
	if len(page.PageSizes) != 3 {
		t.Errorf("Expected selectable page sizes, got %v", page.PageSizes)
	}
}

func TestGetDimension_StreetProgress(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/reports/streets", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[PageDTO](t, rec)
	if len(page.Items) != 1 {
		t.Fatalf("Expected one street, got %+v", page.Items)
	}
	street := page.Items[0]
	if street.Key != "Main St" || street.Suburb != "Springfield" {
		t.Errorf("Unexpected street key: %q / %q", street.Key, street.Suburb)
	}
	if street.KnocksMade != 40 || street.TargetKnocks != 100 || street.KnockProgress != 40 {
		t.Errorf("Expected 40/100 knocks at 40%%, got %d/%d at %v", street.KnocksMade, street.TargetKnocks, street.KnockProgress)
	}
}

func TestGetDimension_Errors(t *testing.T) {
	_, router := setupTestHandler(t)

	expectError(t, do(t, router, http.MethodGet, "/api/reports/planets", nil), http.StatusNotFound, "unknown_dimension")
	expectError(t, do(t, router, http.MethodGet, "/api/reports/agents?page=9", nil), http.StatusBadRequest, "page_out_of_range")
	expectError(t, do(t, router, http.MethodGet, "/api/reports/agents?page=0", nil), http.StatusBadRequest, "page_out_of_range")
	expectError(t, do(t, router, http.MethodGet, "/api/reports/agents?page=two", nil), http.StatusBadRequest, "invalid_page")
	expectError(t, do(t, router, http.MethodGet, "/api/reports/agents?page_size=0", nil), http.StatusBadRequest, "invalid_page_size")
}

func TestGetDimension_EmptyStoreHasOnePage(t *testing.T) {
	h, router := setupTestHandler(t)
	if err := h.Store.Reset(context.Background()); err != nil {
		t.Fatalf("Failed to reset: %v", err)
	}

	rec := do(t, router, http.MethodGet, "/api/reports/suburbs", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	page := decode[PageDTO](t, rec)
	if page.PageCount != 1 || page.Total != 0 || page.Items == nil || len(page.Items) != 0 {
		t.Errorf("Expected one empty page, got %+v", page)
	}
}

// =============================================================================
// EXPORTS
// =============================================================================

func TestExportReport_Formats(t *testing.T) {
	_, router := setupTestHandler(t)

	tests := []struct {
		format      string
		contentType string
		prefix      string
	}{
		{"csv", "text/csv; charset=utf-8", "Commission Report"},
		{"pdf", "application/pdf", "%PDF"},
		{"xlsx", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "PK"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			rec := do(t, router, http.MethodGet, "/api/reports/export."+tt.format+"?status=sold", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			if got := rec.Header().Get("Content-Type"); got != tt.contentType {
				t.Errorf("Expected content type %q, got %q", tt.contentType, got)
			}
			want := `attachment; filename="commission-report-20250630-0000.` + tt.format + `"`
			if got := rec.Header().Get("Content-Disposition"); got != want {
				t.Errorf("Expected %q, got %q", want, got)
			}
			if !strings.HasPrefix(rec.Body.String(), tt.prefix) {
				t.Errorf("Expected body to start with %q", tt.prefix)
			}
		})
	}
}

func TestExportReport_CSVHonoursFilter(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/api/reports/export.csv?agency=harbour", nil)
	body := rec.Body.String()
	if !strings.Contains(body, "agency: harbour") {
		t.Errorf("Expected filter description in export header")
	}
	if !strings.Contains(body, "Harbour Homes") || strings.Contains(body, "Abc Realty") {
		t.Errorf("Expected only the filtered agency in the export:\n%s", body)
	}
}

func TestExportReport_UnsupportedFormat(t *testing.T) {
	_, router := setupTestHandler(t)
	expectError(t, do(t, router, http.MethodGet, "/api/reports/export.docx", nil), http.StatusBadRequest, "unsupported_format")
}

// =============================================================================
// IMPORTS
// =============================================================================

func TestImportRecords_AppendsAndReplaces(t *testing.T) {
	_, router := setupTestHandler(t)

	payload := []byte(`{
		"properties": [
			{"id": "p9", "agency_name": "Coastline Property", "agent_name": "Priya Patel",
			 "suburb": "Seaford", "price": "720000", "commission": 2.5, "listed_date": "2025-06-28"}
		]
	}`)

	// WHEN: Importing without replace
	rec := do(t, router, http.MethodPost, "/api/records/import", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	result := decode[ImportResultDTO](t, rec)
	if result.Imported["properties"] != 1 || result.Replaced {
		t.Errorf("Unexpected import result: %+v", result)
	}

	// THEN: The new property adds to the existing totals
	report := decode[ReportDTO](t, do(t, router, http.MethodGet, "/api/reports", nil))
	if report.Summary.TotalCommission.Amount != 50650 {
		t.Errorf("Expected 32650 + 18000, got %v", report.Summary.TotalCommission.Amount)
	}

	// WHEN: Importing with replace
	rec = do(t, router, http.MethodPost, "/api/records/import?replace=true", payload)
	if rec.Code != http.StatusCreated {
		t.Fatalf("Expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	// THEN: Only the imported property remains
	report = decode[ReportDTO](t, do(t, router, http.MethodGet, "/api/reports", nil))
	if report.Summary.TotalCommission.Amount != 18000 || report.Summary.TotalProperties != 1 {
		t.Errorf("Expected only the imported property, got %+v", report.Summary)
	}
}

func TestImportRecords_InvalidPayload(t *testing.T) {
	_, router := setupTestHandler(t)

	expectError(t, do(t, router, http.MethodPost, "/api/records/import", []byte(`{"properties": [`)), http.StatusBadRequest, "invalid_record")
	expectError(t, do(t, router, http.MethodPost, "/api/records/import",
		[]byte(`{"activities": [{"id": "x", "type": "letterbox_drop"}]}`)), http.StatusBadRequest, "invalid_record")
}

// readOnlySource only implements commission.RecordSource.
type readOnlySource struct {
	records commission.Records
	err     error
}

func (s readOnlySource) LoadRecords(context.Context) (commission.Records, error) {
	return s.records, s.err
}

func TestImportRecords_ReadOnlySource(t *testing.T) {
	h := NewHandler(readOnlySource{records: testRecords()})
	router := NewRouter(h, nil)

	if h.Store != nil {
		t.Fatal("Expected no writable store")
	}
	expectError(t, do(t, router, http.MethodPost, "/api/records/import", []byte(`{}`)), http.StatusMethodNotAllowed, "read_only")
	expectError(t, do(t, router, http.MethodPost, "/api/scenarios/reset", nil), http.StatusMethodNotAllowed, "read_only")

	// Reads still work.
	rec := do(t, router, http.MethodGet, "/api/reports", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
}

func TestGetReport_SourceError(t *testing.T) {
	h := NewHandler(readOnlySource{err: errors.New("connection refused")})
	rec := do(t, NewRouter(h, nil), http.MethodGet, "/api/reports", nil)
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	_, router := setupTestHandler(t)

	rec := do(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	body := decode[map[string]any](t, rec)
	if body["status"] != "ok" || body["writable"] != true {
		t.Errorf("Unexpected health body: %v", body)
	}
}

func TestSetCurrency(t *testing.T) {
	h := NewHandler(readOnlySource{})

	h.SetCurrency(" usd ")
	if h.currencyCode != "USD" {
		t.Errorf("Expected USD, got %q", h.currencyCode)
	}
	h.SetCurrency("XYZ")
	if h.currencyCode != "AUD" {
		t.Errorf("Expected fallback to AUD, got %q", h.currencyCode)
	}
}
