package commission_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

var now = generic.Date(2025, time.June, 30)

func listed(suburb string, listedDate time.Time) commission.Property {
	return commission.Property{
		Agency:         "ABC Realty",
		Agent:          "Jane Doe",
		Suburb:         suburb,
		ListingPrice:   500000,
		CommissionRate: ptr(2.0),
		ListedDate:     listedDate,
	}
}

func TestFilter_SuburbSubstring(t *testing.T) {
	// GIVEN: Properties in Springfield, Spring Hill and Riverside
	f := commission.Filter{Suburb: "spring"}

	// THEN: Both "spring" suburbs pass, Riverside does not
	assert.True(t, f.MatchProperty(listed("Springfield", now), now))
	assert.True(t, f.MatchProperty(listed("spring hill", now), now))
	assert.False(t, f.MatchProperty(listed("Riverside", now), now))
}

func TestFilter_EmptyMatchesEverything(t *testing.T) {
	var f commission.Filter
	assert.True(t, f.IsEmpty())
	assert.True(t, f.MatchProperty(commission.Property{}, now))
	assert.True(t, f.MatchActivity(commission.Activity{}, nil, now))
	assert.True(t, f.MatchPlan(commission.MarketingPlan{}, nil, now))
}

func TestFilter_Status(t *testing.T) {
	sold := listed("Springfield", now)
	sold.ContractStatus = "sold"
	settled := listed("Springfield", now)
	settled.SoldDate = ptr(now)
	open := listed("Springfield", now)

	soldOnly := commission.Filter{Status: commission.StatusSold}
	assert.True(t, soldOnly.MatchProperty(sold, now))
	assert.True(t, soldOnly.MatchProperty(settled, now))
	assert.False(t, soldOnly.MatchProperty(open, now))

	listedOnly := commission.Filter{Status: commission.StatusListed}
	assert.False(t, listedOnly.MatchProperty(sold, now))
	assert.False(t, listedOnly.MatchProperty(settled, now))
	assert.True(t, listedOnly.MatchProperty(open, now))
}

func TestFilter_StatusDoesNotApplyToActivities(t *testing.T) {
	f := commission.Filter{Status: commission.StatusSold}
	assert.True(t, f.MatchActivity(commission.Activity{Date: now}, nil, now))
}

func TestFilter_DateRange(t *testing.T) {
	f := commission.Filter{DateRange: commission.DateRangeLast30}

	assert.True(t, f.MatchProperty(listed("A", now.AddDate(0, 0, -30)), now), "cutoff is inclusive")
	assert.True(t, f.MatchProperty(listed("A", now.AddDate(0, 0, -1)), now))
	assert.False(t, f.MatchProperty(listed("A", now.AddDate(0, 0, -31)), now))

	f.DateRange = commission.DateRangeLast90
	assert.True(t, f.MatchProperty(listed("A", now.AddDate(0, 0, -60)), now))
	assert.False(t, f.MatchProperty(listed("A", now.AddDate(0, 0, -91)), now))
}

func TestFilter_PlanOverlapsWindow(t *testing.T) {
	f := commission.Filter{DateRange: commission.DateRangeLast30}
	ended := commission.MarketingPlan{Start: now.AddDate(0, -6, 0), End: now.AddDate(0, -2, 0)}
	running := commission.MarketingPlan{Start: now.AddDate(0, -2, 0), End: now.AddDate(0, 1, 0)}

	assert.False(t, f.MatchPlan(ended, nil, now))
	assert.True(t, f.MatchPlan(running, nil, now))
}

func TestFilter_SearchAndDirectory(t *testing.T) {
	dir := commission.NewDirectory([]commission.Agent{{ID: "ag-1", Name: "jane doe", Agency: "abc realty"}})
	a := commission.Activity{AgentID: "ag-1", StreetName: "Maple Street", Suburb: "Springfield", Date: now}

	assert.True(t, commission.Filter{Agency: "ABC"}.MatchActivity(a, dir, now))
	assert.True(t, commission.Filter{Agent: "jane"}.MatchActivity(a, dir, now))
	assert.True(t, commission.Filter{Search: "maple"}.MatchActivity(a, dir, now))
	assert.False(t, commission.Filter{Agency: "ray white"}.MatchActivity(a, dir, now))

	p := listed("Springfield", now)
	p.Address = "12 Oak Avenue"
	assert.True(t, commission.Filter{Search: "oak av"}.MatchProperty(p, now))
	assert.True(t, commission.Filter{Search: "jane"}.MatchProperty(p, now))
	assert.False(t, commission.Filter{Search: "zzz"}.MatchProperty(p, now))
}

func TestDirectory_Resolve(t *testing.T) {
	dir := commission.NewDirectory([]commission.Agent{{ID: "ag-1", Name: "", Agency: "ABC realty"}})

	agent, agency := dir.Resolve("ag-1")
	assert.Equal(t, "Ag 1", agent)
	assert.Equal(t, "Abc Realty", agency)

	agent, agency = dir.Resolve("missing")
	assert.Equal(t, "Missing", agent)
	assert.Equal(t, commission.UnknownName, agency)
}

func TestParseFilterValues(t *testing.T) {
	s, err := commission.ParseStatus("")
	require.NoError(t, err)
	assert.Equal(t, commission.StatusAll, s)

	s, err = commission.ParseStatus("SOLD")
	require.NoError(t, err)
	assert.Equal(t, commission.StatusSold, s)

	_, err = commission.ParseStatus("archived")
	assert.ErrorIs(t, err, generic.ErrInvalidFilter)

	d, err := commission.ParseDateRange("last-90-days")
	require.NoError(t, err)
	assert.Equal(t, commission.DateRangeLast90, d)

	_, err = commission.ParseDateRange("last_week")
	assert.ErrorIs(t, err, generic.ErrInvalidFilter)
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "All records", commission.Filter{}.String())
	f := commission.Filter{Suburb: "spring", Status: commission.StatusSold}
	assert.Equal(t, "suburb: spring, status: sold", f.String())
}
