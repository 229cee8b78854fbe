/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the commission package's report model from the external API contract.
  Money leaves the API as a float (two decimals) plus a display string in
  the configured currency.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Reports:    ReportDTO, SummaryDTO, BucketDTO, FilterDTO, PageDTO
  Records:    ImportResultDTO
  Scenarios:  ScenarioDTO, LoadScenarioRequest
  Errors:     ErrorResponse

SEE ALSO:
  - handlers.go: Uses these types
  - commission/types.go: Report, Summary, Bucket
*/
package api

import (
	"time"

	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/export"
	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// REPORT TYPES
// =============================================================================

// MoneyDTO is an amount with its display form.
type MoneyDTO struct {
	Amount  float64 `json:"amount"`
	Display string  `json:"display"`
}

// FilterDTO echoes the filter a report was computed with.
type FilterDTO struct {
	Search    string `json:"search,omitempty"`
	Agent     string `json:"agent,omitempty"`
	Agency    string `json:"agency,omitempty"`
	Suburb    string `json:"suburb,omitempty"`
	Status    string `json:"status"`
	DateRange string `json:"date_range"`
	Sort      string `json:"sort"`
	Label     string `json:"label"`
}

// SummaryDTO is the scalar metrics block.
type SummaryDTO struct {
	TotalCommission     MoneyDTO `json:"total_commission"`
	ListedCommission    MoneyDTO `json:"listed_commission"`
	SoldCommission      MoneyDTO `json:"sold_commission"`
	TotalProperties     int      `json:"total_properties"`
	ListedProperties    int      `json:"listed_properties"`
	SoldProperties      int      `json:"sold_properties"`
	TotalActivities     int      `json:"total_activities"`
	CompletedActivities int      `json:"completed_activities"`
	TotalAppraisals     int      `json:"total_appraisals"`
	ConversionRate      float64  `json:"conversion_rate"`
	TopAgency           string   `json:"top_agency,omitempty"`
	TopAgencyCommission MoneyDTO `json:"top_agency_commission"`
	TopAgent            string   `json:"top_agent,omitempty"`
	TopAgentCommission  MoneyDTO `json:"top_agent_commission"`
}

// BucketDTO is one row of a dimension table.
type BucketDTO struct {
	Key    string `json:"key"`
	Suburb string `json:"suburb,omitempty"`

	TotalCommission       MoneyDTO `json:"total_commission"`
	ListedCommission      MoneyDTO `json:"listed_commission"`
	SoldCommission        MoneyDTO `json:"sold_commission"`
	PropertyCount         int      `json:"property_count"`
	ListedCount           int      `json:"listed_count"`
	SoldCount             int      `json:"sold_count"`
	AverageCommissionRate float64  `json:"average_commission_rate"`

	ActivityCount        int `json:"activity_count"`
	CompletedCount       int `json:"completed_count"`
	KnocksMade           int `json:"knocks_made"`
	KnocksAnswered       int `json:"knocks_answered"`
	CallsMade            int `json:"calls_made"`
	CallsConnected       int `json:"calls_connected"`
	DesktopAppraisals    int `json:"desktop_appraisals"`
	FaceToFaceAppraisals int `json:"face_to_face_appraisals"`

	TargetKnocks     int `json:"target_knocks"`
	TargetCalls      int `json:"target_calls"`
	TargetConnects   int `json:"target_connects"`
	TargetAppraisals int `json:"target_appraisals"`

	KnockProgress     float64 `json:"knock_progress"`
	CallProgress      float64 `json:"call_progress"`
	ConnectProgress   float64 `json:"connect_progress"`
	AppraisalProgress float64 `json:"appraisal_progress"`
	Progress          float64 `json:"progress"`
}

// ReportDTO is the dashboard payload: the summary plus the top buckets of
// every dimension.
type ReportDTO struct {
	GeneratedAt string      `json:"generated_at"`
	Currency    string      `json:"currency"`
	Filter      FilterDTO   `json:"filter"`
	Summary     SummaryDTO  `json:"summary"`
	Agencies    []BucketDTO `json:"top_agencies"`
	Agents      []BucketDTO `json:"top_agents"`
	Suburbs     []BucketDTO `json:"top_suburbs"`
	Streets     []BucketDTO `json:"top_streets"`
}

// PageDTO is one page of a ranked dimension table.
type PageDTO struct {
	Dimension string      `json:"dimension"`
	Filter    FilterDTO   `json:"filter"`
	Items     []BucketDTO `json:"items"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
	PageCount int         `json:"page_count"`
	Total     int         `json:"total"`
	PageSizes []int       `json:"page_sizes"`
}

// =============================================================================
// RECORDS / SCENARIOS / ERRORS
// =============================================================================

// ImportResultDTO reports how many records an import saved.
type ImportResultDTO struct {
	Imported map[string]int `json:"imported"`
	Replaced bool           `json:"replaced"`
}

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// LoadScenarioRequest is the body of POST /api/scenarios/load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toMoneyDTO(m generic.Money, format export.CurrencyFormatter) MoneyDTO {
	return MoneyDTO{Amount: m.Float64(), Display: format(m)}
}

func toFilterDTO(f commission.Filter, sort commission.SortKey) FilterDTO {
	dto := FilterDTO{
		Search:    f.Search,
		Agent:     f.Agent,
		Agency:    f.Agency,
		Suburb:    f.Suburb,
		Status:    string(f.Status),
		DateRange: string(f.DateRange),
		Sort:      string(sort),
		Label:     f.String(),
	}
	if dto.Status == "" {
		dto.Status = string(commission.StatusAll)
	}
	if dto.DateRange == "" {
		dto.DateRange = string(commission.DateRangeAll)
	}
	return dto
}

func toSummaryDTO(s commission.Summary, format export.CurrencyFormatter) SummaryDTO {
	return SummaryDTO{
		TotalCommission:     toMoneyDTO(s.TotalCommission, format),
		ListedCommission:    toMoneyDTO(s.ListedCommission, format),
		SoldCommission:      toMoneyDTO(s.SoldCommission, format),
		TotalProperties:     s.TotalProperties,
		ListedProperties:    s.ListedProperties,
		SoldProperties:      s.SoldProperties,
		TotalActivities:     s.TotalActivities,
		CompletedActivities: s.CompletedActivities,
		TotalAppraisals:     s.TotalAppraisals,
		ConversionRate:      s.ConversionRate,
		TopAgency:           s.TopAgency,
		TopAgencyCommission: toMoneyDTO(s.TopAgencyCommission, format),
		TopAgent:            s.TopAgent,
		TopAgentCommission:  toMoneyDTO(s.TopAgentCommission, format),
	}
}

func toBucketDTO(b commission.Bucket, format export.CurrencyFormatter) BucketDTO {
	return BucketDTO{
		Key:                   b.Key,
		Suburb:                b.Suburb,
		TotalCommission:       toMoneyDTO(b.TotalCommission, format),
		ListedCommission:      toMoneyDTO(b.ListedCommission, format),
		SoldCommission:        toMoneyDTO(b.SoldCommission, format),
		PropertyCount:         b.PropertyCount,
		ListedCount:           b.ListedCount,
		SoldCount:             b.SoldCount,
		AverageCommissionRate: b.AverageCommissionRate,
		ActivityCount:         b.ActivityCount,
		CompletedCount:        b.CompletedCount,
		KnocksMade:            b.KnocksMade,
		KnocksAnswered:        b.KnocksAnswered,
		CallsMade:             b.CallsMade,
		CallsConnected:        b.CallsConnected,
		DesktopAppraisals:     b.DesktopAppraisals,
		FaceToFaceAppraisals:  b.FaceToFaceAppraisals,
		TargetKnocks:          b.TargetKnocks,
		TargetCalls:           b.TargetCalls,
		TargetConnects:        b.TargetConnects,
		TargetAppraisals:      b.TargetAppraisals,
		KnockProgress:         b.KnockProgress,
		CallProgress:          b.CallProgress,
		ConnectProgress:       b.ConnectProgress,
		AppraisalProgress:     b.AppraisalProgress,
		Progress:              b.Progress,
	}
}

func toBucketDTOs(buckets []commission.Bucket, format export.CurrencyFormatter) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = toBucketDTO(b, format)
	}
	return dtos
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}
