package commission

import (
	"strings"
	"time"

	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// FILTER STATE
// =============================================================================

// StatusFilter narrows properties by contract status.
type StatusFilter string

const (
	StatusAll    StatusFilter = "all"
	StatusListed StatusFilter = "listed"
	StatusSold   StatusFilter = "sold"
)

// DateRange narrows records to a trailing window ending now.
type DateRange string

const (
	DateRangeAll    DateRange = "all"
	DateRangeLast30 DateRange = "last_30_days"
	DateRangeLast90 DateRange = "last_90_days"
)

// Days returns the window length, 0 for DateRangeAll.
func (d DateRange) Days() int {
	switch d {
	case DateRangeLast30:
		return 30
	case DateRangeLast90:
		return 90
	default:
		return 0
	}
}

// Window returns [now - Days, open) or the unbounded period.
func (d DateRange) Window(now time.Time) generic.Period {
	if n := d.Days(); n > 0 {
		return generic.Since(generic.DaysBefore(now, n))
	}
	return generic.Period{}
}

// Filter is the report filter state. The zero value matches everything.
type Filter struct {
	Search    string
	Agent     string
	Agency    string
	Suburb    string
	Status    StatusFilter
	DateRange DateRange
}

// ParseStatus validates a status filter value. Empty means all.
func ParseStatus(s string) (StatusFilter, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return StatusAll, nil
	case "listed", "listing":
		return StatusListed, nil
	case "sold":
		return StatusSold, nil
	}
	return "", &generic.ValidationError{Field: "status", Value: s, Reason: "expected all, listed or sold", Err: generic.ErrInvalidFilter}
}

// ParseDateRange validates a date-range filter value. Empty means all.
func ParseDateRange(s string) (DateRange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "all":
		return DateRangeAll, nil
	case "last_30_days", "last-30-days", "30":
		return DateRangeLast30, nil
	case "last_90_days", "last-90-days", "90":
		return DateRangeLast90, nil
	}
	return "", &generic.ValidationError{Field: "date_range", Value: s, Reason: "expected all, last_30_days or last_90_days", Err: generic.ErrInvalidFilter}
}

// IsEmpty reports whether the filter matches everything.
func (f Filter) IsEmpty() bool {
	return f.Search == "" && f.Agent == "" && f.Agency == "" && f.Suburb == "" &&
		(f.Status == "" || f.Status == StatusAll) &&
		(f.DateRange == "" || f.DateRange == DateRangeAll)
}

// String describes the active filters for export headers.
func (f Filter) String() string {
	var parts []string
	add := func(name, v string) {
		if v != "" {
			parts = append(parts, name+": "+v)
		}
	}
	add("search", f.Search)
	add("agent", f.Agent)
	add("agency", f.Agency)
	add("suburb", f.Suburb)
	if f.Status != "" && f.Status != StatusAll {
		add("status", string(f.Status))
	}
	if f.DateRange != "" && f.DateRange != DateRangeAll {
		add("date range", string(f.DateRange))
	}
	if len(parts) == 0 {
		return "All records"
	}
	return strings.Join(parts, ", ")
}

// =============================================================================
// PREDICATE - One function for every dimension
// =============================================================================

// view is the normalized projection of any record the filter inspects.
type view struct {
	agency string
	agent  string
	suburb string
	extra  []string // additional search targets (address, street)

	date   time.Time       // point-in-time records
	period *generic.Period // ranged records (plans)
	sold   *bool           // nil when the record has no contract status
}

func (f Filter) matches(v view, now time.Time) bool {
	if !containsFold(v.agency, f.Agency) || !containsFold(v.agent, f.Agent) || !containsFold(v.suburb, f.Suburb) {
		return false
	}
	if f.Search != "" {
		found := containsFold(v.agency, f.Search) || containsFold(v.agent, f.Search) || containsFold(v.suburb, f.Search)
		for _, s := range v.extra {
			found = found || containsFold(s, f.Search)
		}
		if !found {
			return false
		}
	}
	if v.sold != nil {
		switch f.Status {
		case StatusSold:
			if !*v.sold {
				return false
			}
		case StatusListed:
			if *v.sold {
				return false
			}
		}
	}
	window := f.DateRange.Window(now)
	if v.period != nil {
		return window.Overlaps(*v.period)
	}
	return window.Contains(v.date)
}

// MatchProperty reports whether p is part of the current view. The date
// window applies to the listed date.
func (f Filter) MatchProperty(p Property, now time.Time) bool {
	sold := p.IsSold()
	return f.matches(view{
		agency: NormalizeName(p.Agency),
		agent:  NormalizeName(p.Agent),
		suburb: NormalizeSuburb(p.Suburb),
		extra:  []string{p.Address},
		date:   p.ListedDate,
		sold:   &sold,
	}, now)
}

// MatchActivity reports whether a is part of the current view. The agent
// and agency are resolved through dir; the status filter does not apply.
func (f Filter) MatchActivity(a Activity, dir Directory, now time.Time) bool {
	agent, agency := dir.Resolve(a.AgentID)
	return f.matches(view{
		agency: agency,
		agent:  agent,
		suburb: NormalizeSuburb(a.Suburb),
		extra:  []string{a.StreetName},
		date:   a.Date,
	}, now)
}

// MatchPlan reports whether a marketing plan contributes targets. A plan
// passes the date filter when its range overlaps the filter window.
func (f Filter) MatchPlan(p MarketingPlan, dir Directory, now time.Time) bool {
	agent, agency := dir.Resolve(p.AgentID)
	period := p.Period()
	extra := make([]string, 0, len(p.DoorKnocks)+len(p.PhoneCalls))
	for _, t := range p.DoorKnocks {
		extra = append(extra, t.StreetName)
	}
	for _, t := range p.PhoneCalls {
		extra = append(extra, t.StreetName)
	}
	return f.matches(view{
		agency: agency,
		agent:  agent,
		suburb: NormalizeSuburb(p.Suburb),
		extra:  extra,
		period: &period,
	}, now)
}

func containsFold(s, substr string) bool {
	if substr == "" {
		return true
	}
	return strings.Contains(strings.ToLower(s), strings.ToLower(strings.TrimSpace(substr)))
}

// =============================================================================
// DIRECTORY - AgentID to display name and agency
// =============================================================================

// Directory resolves agent IDs found on activities and plans.
type Directory map[string]Agent

// NewDirectory indexes agents by ID. Later entries win.
func NewDirectory(agents []Agent) Directory {
	d := make(Directory, len(agents))
	for _, a := range agents {
		d[a.ID] = a
	}
	return d
}

// Resolve returns the normalized agent name and agency for id. An unknown
// id falls back to the id itself and the Unknown agency.
func (d Directory) Resolve(id string) (agent, agency string) {
	if a, ok := d[id]; ok {
		name := a.Name
		if strings.TrimSpace(name) == "" {
			name = id
		}
		return NormalizeName(name), NormalizeName(a.Agency)
	}
	return NormalizeName(id), UnknownName
}
