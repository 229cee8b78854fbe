/*
handlers.go - HTTP API handlers for commission reports

PURPOSE:
  Exposes the commission engine via REST API. Handles HTTP request and
  response, query parsing and JSON serialization, and delegates to the
  commission and export packages.

ENDPOINTS:
  Reports:
    GET    /api/reports                   Summary + top buckets per dimension
    GET    /api/reports/{dimension}       One page of a ranked dimension
    GET    /api/reports/export.{format}   CSV, PDF or XLSX download

  Records:
    POST   /api/records/import            Import loosely typed JSON rows

  Scenarios:
    GET    /api/scenarios                 List demo scenarios
    GET    /api/scenarios/current         Currently loaded scenario
    POST   /api/scenarios/load            Load a demo scenario
    POST   /api/scenarios/reset           Clear the store

  Health:
    GET    /healthz

QUERY PARAMETERS (report endpoints):
  search, agent, agency, suburb  case-insensitive substring filters
  status                         all | listed | sold
  date_range                     all | last_30_days | last_90_days
  sort                           commission | properties | progress
  page, page_size                dimension endpoint only

ARCHITECTURE:
  Handler holds the record source and, when the source is writable, the
  same value as a commission.RecordStore. Every request loads the records
  and recomputes the report. Nothing is cached.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid filter, page, page size, format or import payload
  - 404: Unknown dimension
  - 405: Write against a read-only source
  - 500: Store errors

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/export"
	"github.com/warp/agency-reports/factory"
	"github.com/warp/agency-reports/generic"
)

// maxImportBytes caps the import request body.
const maxImportBytes = 10 << 20

// ErrReadOnly is returned when writing to a source that only reads.
var ErrReadOnly = errors.New("record source is read-only")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Source  commission.RecordSource
	Store   commission.RecordStore // nil when Source is read-only
	Factory *factory.RecordFactory
	Clock   generic.Clock

	currencyCode string
	currency     export.CurrencyFormatter

	mu              sync.RWMutex
	currentScenario string
}

// NewHandler creates a handler over source. Writes are enabled when source
// also implements commission.RecordStore.
func NewHandler(source commission.RecordSource) *Handler {
	h := &Handler{
		Source:  source,
		Factory: factory.NewRecordFactory(),
		Clock:   generic.SystemClock,
	}
	if store, ok := source.(commission.RecordStore); ok {
		h.Store = store
	}
	h.SetCurrency(export.DefaultCurrencyCode)
	return h
}

// SetCurrency selects the ISO 4217 currency used for display amounts.
func (h *Handler) SetCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if !export.KnownCurrency(code) {
		code = export.DefaultCurrencyCode
	}
	h.currencyCode = code
	h.currency = export.MoneyFormatter(code)
}

// report loads the records and computes the filtered report.
func (h *Handler) report(ctx context.Context, f commission.Filter) (commission.Report, error) {
	records, err := h.Source.LoadRecords(ctx)
	if err != nil {
		return commission.Report{}, fmt.Errorf("load records: %w", err)
	}
	return commission.Accumulate(records, f, h.Clock()), nil
}

// =============================================================================
// REPORT HANDLERS
// =============================================================================

// GetReport returns the summary and the top buckets of every dimension.
func (h *Handler) GetReport(w http.ResponseWriter, r *http.Request) {
	f, sort, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	top, err := parseOptionalInt(r, "top", generic.DefaultTopN, generic.ErrInvalidFilter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.report(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}
	ranked := report.Ranked(sort)

	writeJSON(w, http.StatusOK, ReportDTO{
		GeneratedAt: formatTime(report.GeneratedAt),
		Currency:    h.currencyCode,
		Filter:      toFilterDTO(f, sort),
		Summary:     toSummaryDTO(report.Summary, h.currency),
		Agencies:    toBucketDTOs(generic.TopN(ranked.Agencies, top), h.currency),
		Agents:      toBucketDTOs(generic.TopN(ranked.Agents, top), h.currency),
		Suburbs:     toBucketDTOs(generic.TopN(ranked.Suburbs, top), h.currency),
		Streets:     toBucketDTOs(generic.TopN(ranked.Streets, top), h.currency),
	})
}

// GetDimension returns one page of a ranked dimension table.
func (h *Handler) GetDimension(w http.ResponseWriter, r *http.Request) {
	dim, err := commission.ParseDimension(chi.URLParam(r, "dimension"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	f, sort, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	page, err := parseOptionalInt(r, "page", 1, generic.ErrInvalidPage)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	size, err := parseOptionalInt(r, "page_size", generic.DefaultPageSize, generic.ErrInvalidPageSize)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.report(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}
	buckets, err := report.Buckets(dim)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	p, err := generic.Paginate(commission.RankBuckets(buckets, sort), page, size)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, PageDTO{
		Dimension: string(dim),
		Filter:    toFilterDTO(f, sort),
		Items:     toBucketDTOs(p.Items, h.currency),
		Page:      p.Page,
		PageSize:  p.PageSize,
		PageCount: p.PageCount,
		Total:     p.Total,
		PageSizes: generic.PageSizes,
	})
}

// ExportReport streams the full filtered report as a download. The
// document is rendered into memory first so a failure still produces a
// JSON error instead of a truncated file.
func (h *Handler) ExportReport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	f, _, err := parseFilter(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	report, err := h.report(r.Context(), f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute report", err)
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, report, export.Options{
		Title:    r.URL.Query().Get("title"),
		Currency: h.currency,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render export", err)
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(format, report.GeneratedAt)))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}

// =============================================================================
// RECORD HANDLERS
// =============================================================================

// ImportRecords saves a JSON payload of agents, properties, activities and
// marketing plans. With ?replace=true the store is cleared first.
func (h *Handler) ImportRecords(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, "Imports are disabled", ErrReadOnly)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	records, err := h.Factory.ParseRecords(body)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	ctx := r.Context()
	if replace {
		if err := h.Store.Reset(ctx); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
			return
		}
		h.setCurrentScenario("")
	}
	if err := h.Store.SaveRecords(ctx, records); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, ImportResultDTO{Imported: records.Count(), Replaced: replace})
}

// ResetDatabase clears all records.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if h.Store == nil {
		writeError(w, http.StatusMethodNotAllowed, "Reset is disabled", ErrReadOnly)
		return
	}
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset store", err)
		return
	}
	h.setCurrentScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Health pings the source when it supports it.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if p, ok := h.Source.(interface{ Ping(context.Context) error }); ok {
		if err := p.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Store unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "writable": h.Store != nil})
}

// =============================================================================
// QUERY PARSING
// =============================================================================

// parseFilter reads the filter and sort parameters shared by every report
// endpoint.
func parseFilter(r *http.Request) (commission.Filter, commission.SortKey, error) {
	q := r.URL.Query()

	status, err := commission.ParseStatus(q.Get("status"))
	if err != nil {
		return commission.Filter{}, "", err
	}
	dateRange, err := commission.ParseDateRange(q.Get("date_range"))
	if err != nil {
		return commission.Filter{}, "", err
	}
	sort, err := commission.ParseSortKey(q.Get("sort"))
	if err != nil {
		return commission.Filter{}, "", err
	}

	return commission.Filter{
		Search:    q.Get("search"),
		Agent:     q.Get("agent"),
		Agency:    q.Get("agency"),
		Suburb:    q.Get("suburb"),
		Status:    status,
		DateRange: dateRange,
	}, sort, nil
}

// parseOptionalInt reads an integer query parameter. Bad input wraps
// sentinel.
func parseOptionalInt(r *http.Request, name string, def int, sentinel error) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &generic.ValidationError{Field: name, Value: raw, Reason: "not an integer", Err: sentinel}
	}
	return n, nil
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(err)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps generic sentinel errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case generic.IsNotFound(err):
		writeError(w, http.StatusNotFound, "Not found", err)
	case generic.IsClientError(err):
		writeError(w, http.StatusBadRequest, "Invalid request", err)
	default:
		writeError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

var errorCodes = []struct {
	err  error
	code string
}{
	{generic.ErrInvalidPage, "invalid_page"},
	{generic.ErrPageOutOfRange, "page_out_of_range"},
	{generic.ErrInvalidPageSize, "invalid_page_size"},
	{generic.ErrInvalidFilter, "invalid_filter"},
	{generic.ErrInvalidRecord, "invalid_record"},
	{generic.ErrUnknownDimension, "unknown_dimension"},
	{generic.ErrUnsupportedFormat, "unsupported_format"},
	{ErrReadOnly, "read_only"},
}

func errorCode(err error) string {
	for _, c := range errorCodes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return ""
}

func (h *Handler) setCurrentScenario(id string) {
	h.mu.Lock()
	h.currentScenario = id
	h.mu.Unlock()
}

func (h *Handler) getCurrentScenario() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.currentScenario
}
