package commission_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/agency-reports/commission"
	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================

func bucket(t *testing.T, buckets []commission.Bucket, key string) commission.Bucket {
	t.Helper()
	for _, b := range buckets {
		if b.Key == key {
			return b
		}
	}
	require.Failf(t, "bucket not found", "key %q", key)
	return commission.Bucket{}
}

func sampleRecords() commission.Records {
	return commission.Records{
		Agents: []commission.Agent{
			{ID: "ag-1", Name: "Jane Doe", Agency: "ABC Realty"},
			{ID: "ag-2", Name: "Sam Lee", Agency: "Ray White"},
		},
		Properties: []commission.Property{
			{ID: "p1", Agency: "ABC Realty", Agent: "jane doe", Suburb: "Springfield", ListingPrice: 400000, CommissionRate: ptr(2.5), ListedDate: now.AddDate(0, 0, -10)},
			{ID: "p2", Agency: "abc   realty", Agent: "Jane Doe", Suburb: "spring hill", ListingPrice: 600000, CommissionRate: ptr(2.5), ListedDate: now.AddDate(0, 0, -50)},
			{ID: "p3", Agency: "Ray White", Agent: "Sam Lee", Suburb: "Riverside", ListingPrice: 500000, SoldPrice: ptr(520000.0), CommissionRate: ptr(2.0), ContractStatus: "sold", ListedDate: now.AddDate(0, 0, -100)},
			{ID: "p4", Agency: "", Agent: "", Suburb: "", ListingPrice: 100000, ListedDate: now.AddDate(0, 0, -5)},
		},
		Activities: []commission.Activity{
			{ID: "a1", AgentID: "ag-1", Type: commission.ActivityDoorKnock, Date: now.AddDate(0, 0, -3), StreetName: "Maple St", Suburb: "Springfield", Status: commission.StatusCompleted, KnocksMade: 40, KnocksAnswered: 12, DesktopAppraisals: 1, FaceToFaceAppraisals: 1},
			{ID: "a2", AgentID: "ag-1", Type: commission.ActivityPhoneCall, Date: now.AddDate(0, 0, -40), StreetName: "Oak Ave", Suburb: "Springfield", Status: commission.StatusPending, CallsMade: 30, CallsConnected: 10, DesktopAppraisals: 2},
			{ID: "a3", AgentID: "ag-2", Type: commission.ActivityDoorKnock, Date: now.AddDate(0, 0, -2), StreetName: "River Rd", Suburb: "Riverside", Status: commission.StatusCompleted, KnocksMade: 140},
		},
		Plans: []commission.MarketingPlan{
			{
				ID: "plan-1", AgentID: "ag-1", Suburb: "Springfield",
				Start: now.AddDate(0, -1, 0), End: now.AddDate(0, 2, 0),
				DoorKnocks: []commission.DoorKnockTarget{{StreetName: "maple st", Knocks: 100, DesktopAppraisals: 2, FaceToFaceAppraisals: 2}},
				PhoneCalls: []commission.PhoneCallTarget{{StreetName: "Elm St", Calls: 50, Connects: 20, DesktopAppraisals: 1}},
			},
			{
				ID: "plan-2", AgentID: "ag-2", Suburb: "Riverside",
				Start: now.AddDate(0, -1, 0), End: now.AddDate(0, 1, 0),
				DoorKnocks: []commission.DoorKnockTarget{{StreetName: "River Rd", Knocks: 100}},
			},
		},
	}
}

// =============================================================================
// CONCRETE SCENARIOS
// =============================================================================

func TestAccumulate_SameAgencyDifferentSpelling(t *testing.T) {
	// GIVEN: Two unsold properties for "ABC Realty" and "abc   realty" at 2.5%
	records := commission.Records{Properties: []commission.Property{
		{Agency: "ABC Realty", ListingPrice: 400000, CommissionRate: ptr(2.5)},
		{Agency: "abc   realty", ListingPrice: 600000, CommissionRate: ptr(2.5)},
	}}

	// WHEN: Accumulating without filters
	r := commission.Accumulate(records, commission.Filter{}, now)

	// THEN: One agency bucket carries both
	require.Len(t, r.Agencies, 1)
	abc := r.Agencies[0]
	assert.Equal(t, "Abc Realty", abc.Key)
	assertMoney(t, 25000, abc.TotalCommission)
	assertMoney(t, 25000, abc.ListedCommission)
	assert.True(t, abc.SoldCommission.IsZero())
	assert.Equal(t, 2, abc.PropertyCount)
	assert.Equal(t, 2, abc.ListedCount)
	assert.Equal(t, 0, abc.SoldCount)
	assert.Equal(t, 2.5, abc.AverageCommissionRate)
}

func TestAccumulate_StreetProgress(t *testing.T) {
	// GIVEN: A door-knock target of 100 on Maple St
	plan := commission.MarketingPlan{
		AgentID: "ag-1", Suburb: "Springfield",
		DoorKnocks: []commission.DoorKnockTarget{{StreetName: "Maple St", Knocks: 100}},
	}
	for _, tt := range []struct {
		made int
		want float64
	}{{40, 40.0}, {140, 100.0}, {0, 0}} {
		records := commission.Records{
			Plans: []commission.MarketingPlan{plan},
			Activities: []commission.Activity{
				{AgentID: "ag-1", StreetName: "Maple St", Suburb: "Springfield", KnocksMade: tt.made},
			},
		}

		// WHEN: tt.made knocks are logged
		r := commission.Accumulate(records, commission.Filter{}, now)

		// THEN: Progress is capped at 100
		require.Len(t, r.Streets, 1)
		assert.Equal(t, tt.want, r.Streets[0].KnockProgress, "made=%d", tt.made)
		assert.Equal(t, tt.want, r.Streets[0].Progress, "made=%d", tt.made)
	}
}

func TestAccumulate_PlanCreatesBucketWithoutActivity(t *testing.T) {
	r := commission.Accumulate(sampleRecords(), commission.Filter{}, now)

	elm := bucket(t, r.Streets, "Elm St")
	assert.Equal(t, "Springfield", elm.Suburb)
	assert.Equal(t, 50, elm.TargetCalls)
	assert.Equal(t, 20, elm.TargetConnects)
	assert.Equal(t, 0, elm.ActivityCount)
	assert.Equal(t, 0.0, elm.Progress)
}

func TestAccumulate_EmptyInput(t *testing.T) {
	r := commission.Accumulate(commission.Records{}, commission.Filter{}, now)

	assert.True(t, r.Summary.TotalCommission.IsZero())
	assert.True(t, r.Summary.ListedCommission.IsZero())
	assert.True(t, r.Summary.SoldCommission.IsZero())
	assert.Zero(t, r.Summary.TotalProperties)
	assert.Zero(t, r.Summary.ListedProperties)
	assert.Zero(t, r.Summary.SoldProperties)
	assert.Zero(t, r.Summary.TotalAppraisals)
	assert.Zero(t, r.Summary.ConversionRate)
	assert.Empty(t, r.Summary.TopAgency)
	assert.Empty(t, r.Summary.TopAgent)

	for _, d := range commission.Dimensions {
		buckets, err := r.Buckets(d)
		require.NoError(t, err)
		assert.NotNil(t, buckets)
		assert.Empty(t, buckets)
	}
}

// =============================================================================
// SUMMARY
// =============================================================================

func TestAccumulate_Summary(t *testing.T) {
	r := commission.Accumulate(sampleRecords(), commission.Filter{}, now)
	s := r.Summary

	// 10000 + 15000 listed, 10400 sold, p4 has no rate
	assertMoney(t, 35400, s.TotalCommission)
	assertMoney(t, 25000, s.ListedCommission)
	assertMoney(t, 10400, s.SoldCommission)
	assert.Equal(t, 4, s.TotalProperties)
	assert.Equal(t, 3, s.ListedProperties)
	assert.Equal(t, 1, s.SoldProperties)

	assert.Equal(t, 3, s.TotalActivities)
	assert.Equal(t, 2, s.CompletedActivities)
	assert.Equal(t, 4, s.TotalAppraisals)
	assert.Equal(t, 100.0, s.ConversionRate)

	assert.Equal(t, "Abc Realty", s.TopAgency)
	assertMoney(t, 25000, s.TopAgencyCommission)
	assert.Equal(t, "Jane Doe", s.TopAgent)
}

func TestAccumulate_ConversionRateIsUncapped(t *testing.T) {
	records := commission.Records{
		Properties: []commission.Property{{}, {}, {}},
		Activities: []commission.Activity{{DesktopAppraisals: 1}},
	}
	r := commission.Accumulate(records, commission.Filter{}, now)
	assert.Equal(t, 300.0, r.Summary.ConversionRate)
}

func TestAccumulate_TopAgencyTieGoesToFirstEncountered(t *testing.T) {
	records := commission.Records{Properties: []commission.Property{
		{Agency: "Zed Homes", ListingPrice: 100000, CommissionRate: ptr(1.0)},
		{Agency: "Alpha Estates", ListingPrice: 100000, CommissionRate: ptr(1.0)},
	}}
	r := commission.Accumulate(records, commission.Filter{}, now)
	assert.Equal(t, "Zed Homes", r.Summary.TopAgency)
}

func TestAccumulate_NoTopWithoutCommission(t *testing.T) {
	// GIVEN: activities whose agent is not in the directory, and no properties
	records := commission.Records{Activities: []commission.Activity{
		{AgentID: "ghost", Type: commission.ActivityDoorKnock, StreetName: "Main St", Suburb: "Richmond", KnocksMade: 20},
	}}

	// WHEN
	r := commission.Accumulate(records, commission.Filter{}, now)

	// THEN: the Unknown buckets exist but neither is reported as the top earner
	unknown := bucket(t, r.Agencies, commission.UnknownName)
	assert.Equal(t, 1, unknown.ActivityCount)
	assert.Empty(t, r.Summary.TopAgency)
	assert.Empty(t, r.Summary.TopAgent)
	assert.True(t, r.Summary.TopAgencyCommission.IsZero())
}

func TestAccumulate_UnknownNamesGroupTogether(t *testing.T) {
	r := commission.Accumulate(sampleRecords(), commission.Filter{}, now)

	unknown := bucket(t, r.Agencies, commission.UnknownName)
	assert.Equal(t, 1, unknown.PropertyCount)
	assert.Equal(t, 0.0, unknown.AverageCommissionRate)
}

func TestAccumulate_ActivitiesFoldIntoAgentAndSuburb(t *testing.T) {
	r := commission.Accumulate(sampleRecords(), commission.Filter{}, now)

	jane := bucket(t, r.Agents, "Jane Doe")
	assert.Equal(t, 2, jane.PropertyCount)
	assert.Equal(t, 2, jane.ActivityCount)
	assert.Equal(t, 1, jane.CompletedCount)
	assert.Equal(t, 40, jane.KnocksMade)
	assert.Equal(t, 12, jane.KnocksAnswered)
	assert.Equal(t, 30, jane.CallsMade)
	assert.Equal(t, 10, jane.CallsConnected)
	assert.Equal(t, 100, jane.TargetKnocks)
	assert.Equal(t, 50, jane.TargetCalls)
	assert.Equal(t, 5, jane.TargetAppraisals)
	assert.Equal(t, 4, jane.Appraisals())
	assert.Equal(t, 80.0, jane.AppraisalProgress)
	assert.Equal(t, 46.7, jane.Progress) // 70 / 150

	springfield := bucket(t, r.Suburbs, "Springfield")
	assert.Equal(t, 1, springfield.PropertyCount)
	assert.Equal(t, 2, springfield.ActivityCount)

	river := bucket(t, r.Streets, "River Rd")
	assert.Equal(t, 100.0, river.KnockProgress)
}

// =============================================================================
// FILTERS ACROSS DIMENSIONS
// =============================================================================

func TestAccumulate_DateRangeAppliesToEveryDimension(t *testing.T) {
	r := commission.Accumulate(sampleRecords(), commission.Filter{DateRange: commission.DateRangeLast30}, now)

	assert.Equal(t, 2, r.Summary.TotalProperties) // p1, p4
	assert.Equal(t, 2, r.Summary.TotalActivities) // a1, a3
	jane := bucket(t, r.Agents, "Jane Doe")
	assert.Equal(t, 1, jane.PropertyCount)
	assert.Equal(t, 0, jane.CallsMade)
}

func TestAccumulate_FilterMonotonicity(t *testing.T) {
	full := commission.Accumulate(sampleRecords(), commission.Filter{}, now)

	filters := []commission.Filter{
		{Suburb: "spring"},
		{Agency: "abc"},
		{Agent: "sam"},
		{Search: "river"},
		{Status: commission.StatusSold},
		{Status: commission.StatusListed},
		{DateRange: commission.DateRangeLast30},
		{DateRange: commission.DateRangeLast90, Suburb: "spring"},
	}
	for _, f := range filters {
		t.Run(f.String(), func(t *testing.T) {
			narrowed := commission.Accumulate(sampleRecords(), f, now)

			assert.LessOrEqual(t, narrowed.Summary.TotalProperties, full.Summary.TotalProperties)
			assert.LessOrEqual(t, narrowed.Summary.TotalActivities, full.Summary.TotalActivities)
			assert.False(t, narrowed.Summary.TotalCommission.GreaterThan(full.Summary.TotalCommission))

			for _, d := range commission.Dimensions {
				nb, _ := narrowed.Buckets(d)
				fb, _ := full.Buckets(d)
				for _, b := range nb {
					ref := findBucket(fb, b.Key, b.Suburb)
					require.NotNil(t, ref, "%s bucket %q missing from unfiltered run", d, b.Key)
					assert.LessOrEqual(t, b.PropertyCount, ref.PropertyCount)
					assert.LessOrEqual(t, b.ActivityCount, ref.ActivityCount)
					assert.LessOrEqual(t, b.KnocksMade, ref.KnocksMade)
					assert.LessOrEqual(t, b.TargetKnocks, ref.TargetKnocks)
					assert.False(t, b.TotalCommission.GreaterThan(ref.TotalCommission))
				}
			}
		})
	}
}

func findBucket(buckets []commission.Bucket, key, suburb string) *commission.Bucket {
	for i := range buckets {
		if buckets[i].Key == key && buckets[i].Suburb == suburb {
			return &buckets[i]
		}
	}
	return nil
}

// =============================================================================
// DETERMINISM & RE-ENTRANCY
// =============================================================================

func TestAccumulate_Deterministic(t *testing.T) {
	f := commission.Filter{Suburb: "spring"}
	a := commission.Accumulate(sampleRecords(), f, now)
	b := commission.Accumulate(sampleRecords(), f, now)

	assert.Equal(t, fmt.Sprintf("%+v", a), fmt.Sprintf("%+v", b))
}

func TestAccumulate_ConcurrentCallsAreIndependent(t *testing.T) {
	records := sampleRecords()
	filters := []commission.Filter{{}, {Suburb: "spring"}, {Status: commission.StatusSold}, {Agent: "sam"}}

	want := make([]string, len(filters))
	for i, f := range filters {
		want[i] = fmt.Sprintf("%+v", commission.Accumulate(records, f, now))
	}

	var wg sync.WaitGroup
	got := make([]string, len(filters))
	for i, f := range filters {
		wg.Add(1)
		go func(i int, f commission.Filter) {
			defer wg.Done()
			got[i] = fmt.Sprintf("%+v", commission.Accumulate(records, f, now))
		}(i, f)
	}
	wg.Wait()

	assert.Equal(t, want, got)
}

func TestComputeReport_UsesWallClock(t *testing.T) {
	before := time.Now().UTC()
	r := commission.ComputeReport(commission.Records{}, commission.Filter{})
	assert.False(t, r.GeneratedAt.Before(before))
}

func TestReport_UnknownDimension(t *testing.T) {
	_, err := commission.Report{}.Buckets("owners")
	assert.ErrorIs(t, err, generic.ErrUnknownDimension)
}
