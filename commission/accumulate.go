/*
accumulate.go - The grouped fold behind every report view

PURPOSE:
  Folds filtered properties, activities and marketing plans into buckets
  keyed by normalized name and derives the scalar summary.

ALGORITHM:
  1. Every record goes through the same Filter.
  2. Properties:  Calculate -> agency, agent and suburb buckets; listed vs
                  sold split; property counts.
  3. Activities:  counters -> street (street + suburb) and suburb buckets,
                  plus the agent/agency resolved from the directory.
  4. Plans:       targets -> street, suburb, agent and agency buckets. A
                  bucket is created on first use, so a street with targets
                  and no activity yet still shows up at 0%.
  5. Progress:    min(actual / target * 100, 100), 0 without a target,
                  rounded to one decimal.
  6. Summary:     commission totals, property counts, conversion rate
                  (properties / appraisals * 100, uncapped), top agency and
                  top agent by total commission.

ORDERING:
  Buckets come out in the order their key was first seen. Combined with
  the stable sort in RankBuckets this makes ties resolve to the
  first-encountered bucket and keeps output identical run to run.

RE-ENTRANCY:
  All maps are local to one call. Concurrent calls with different filters
  share nothing.

SEE ALSO:
  - filter.go: the predicate
  - calculator.go: per-property commission
  - rank.go: presentation order
*/
package commission

import (
	"time"

	"github.com/warp/agency-reports/generic"
)

// ComputeReport runs Accumulate against the wall clock.
func ComputeReport(records Records, f Filter) Report {
	return Accumulate(records, f, generic.SystemClock())
}

// Accumulate folds records that pass f into a Report. now anchors the
// date-range filter. Accumulate never panics and an empty record set
// yields a zero summary with empty bucket lists.
func Accumulate(records Records, f Filter, now time.Time) Report {
	dir := NewDirectory(records.Agents)
	acc := newAccumulator()

	for _, p := range records.Properties {
		if f.MatchProperty(p, now) {
			acc.addProperty(p)
		}
	}
	for _, a := range records.Activities {
		if f.MatchActivity(a, dir, now) {
			acc.addActivity(a, dir)
		}
	}
	for _, plan := range records.Plans {
		if f.MatchPlan(plan, dir, now) {
			acc.addPlan(plan, dir)
		}
	}

	return acc.report(f, now)
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

type accumulator struct {
	agencies *bucketSet
	agents   *bucketSet
	suburbs  *bucketSet
	streets  *bucketSet
	summary  Summary
}

func newAccumulator() *accumulator {
	return &accumulator{
		agencies: newBucketSet(DimensionAgency),
		agents:   newBucketSet(DimensionAgent),
		suburbs:  newBucketSet(DimensionSuburb),
		streets:  newBucketSet(DimensionStreet),
		summary: Summary{
			TotalCommission:     generic.ZeroMoney(),
			ListedCommission:    generic.ZeroMoney(),
			SoldCommission:      generic.ZeroMoney(),
			TopAgencyCommission: generic.ZeroMoney(),
			TopAgentCommission:  generic.ZeroMoney(),
		},
	}
}

func (acc *accumulator) addProperty(p Property) {
	c := Calculate(p)

	acc.agencies.get(NormalizeName(p.Agency), "").addCommission(c)
	acc.agents.get(NormalizeName(p.Agent), "").addCommission(c)
	acc.suburbs.get(NormalizeSuburb(p.Suburb), "").addCommission(c)

	s := &acc.summary
	s.TotalCommission = s.TotalCommission.Add(c.Earned)
	s.TotalProperties++
	if c.Sold {
		s.SoldCommission = s.SoldCommission.Add(c.Earned)
		s.SoldProperties++
	} else {
		s.ListedCommission = s.ListedCommission.Add(c.Earned)
		s.ListedProperties++
	}
}

func (acc *accumulator) addActivity(a Activity, dir Directory) {
	agent, agency := dir.Resolve(a.AgentID)
	suburb := NormalizeSuburb(a.Suburb)

	acc.streets.get(NormalizeName(a.StreetName), suburb).addActivity(a)
	acc.suburbs.get(suburb, "").addActivity(a)
	acc.agents.get(agent, "").addActivity(a)
	acc.agencies.get(agency, "").addActivity(a)

	s := &acc.summary
	s.TotalActivities++
	if a.IsCompleted() {
		s.CompletedActivities++
	}
	s.TotalAppraisals += a.DesktopAppraisals + a.FaceToFaceAppraisals
}

func (acc *accumulator) addPlan(plan MarketingPlan, dir Directory) {
	agent, agency := dir.Resolve(plan.AgentID)
	suburb := NormalizeSuburb(plan.Suburb)

	targets := func(street string) []*bucketBuilder {
		return []*bucketBuilder{
			acc.streets.get(NormalizeName(street), suburb),
			acc.suburbs.get(suburb, ""),
			acc.agents.get(agent, ""),
			acc.agencies.get(agency, ""),
		}
	}
	for _, t := range plan.DoorKnocks {
		for _, b := range targets(t.StreetName) {
			b.TargetKnocks += t.Knocks
			b.TargetAppraisals += t.DesktopAppraisals + t.FaceToFaceAppraisals
		}
	}
	for _, t := range plan.PhoneCalls {
		for _, b := range targets(t.StreetName) {
			b.TargetCalls += t.Calls
			b.TargetConnects += t.Connects
			b.TargetAppraisals += t.DesktopAppraisals + t.FaceToFaceAppraisals
		}
	}
}

func (acc *accumulator) report(f Filter, now time.Time) Report {
	r := Report{
		Filter:      f,
		GeneratedAt: now,
		Agencies:    acc.agencies.finish(),
		Agents:      acc.agents.finish(),
		Suburbs:     acc.suburbs.finish(),
		Streets:     acc.streets.finish(),
	}

	s := acc.summary
	s.ConversionRate = generic.Ratio(float64(s.TotalProperties), float64(s.TotalAppraisals))
	if top, ok := topByCommission(r.Agencies); ok {
		s.TopAgency, s.TopAgencyCommission = top.Key, top.TotalCommission
	}
	if top, ok := topByCommission(r.Agents); ok {
		s.TopAgent, s.TopAgentCommission = top.Key, top.TotalCommission
	}
	r.Summary = s
	return r
}

// topByCommission returns the first bucket holding the maximum commission.
// Buckets that earned nothing, such as activity-only agents, never win.
func topByCommission(buckets []Bucket) (Bucket, bool) {
	if len(buckets) == 0 {
		return Bucket{}, false
	}
	top := buckets[0]
	for _, b := range buckets[1:] {
		if b.TotalCommission.GreaterThan(top.TotalCommission) {
			top = b
		}
	}
	return top, top.TotalCommission.IsPositive()
}

// =============================================================================
// BUCKET SET - Insertion-ordered upsert map
// =============================================================================

type bucketKey struct {
	name   string
	suburb string
}

type bucketSet struct {
	dimension Dimension
	index     map[bucketKey]int
	items     []*bucketBuilder
}

func newBucketSet(d Dimension) *bucketSet {
	return &bucketSet{dimension: d, index: make(map[bucketKey]int)}
}

// get returns the builder for key, creating it on first use.
func (s *bucketSet) get(name, suburb string) *bucketBuilder {
	k := bucketKey{name: name, suburb: suburb}
	if i, ok := s.index[k]; ok {
		return s.items[i]
	}
	b := &bucketBuilder{Bucket: Bucket{
		Dimension:        s.dimension,
		Key:              name,
		Suburb:           suburb,
		TotalCommission:  generic.ZeroMoney(),
		ListedCommission: generic.ZeroMoney(),
		SoldCommission:   generic.ZeroMoney(),
	}}
	s.index[k] = len(s.items)
	s.items = append(s.items, b)
	return b
}

func (s *bucketSet) finish() []Bucket {
	out := make([]Bucket, len(s.items))
	for i, b := range s.items {
		out[i] = b.finish()
	}
	return out
}

// bucketBuilder carries the running rate sum alongside the public bucket.
type bucketBuilder struct {
	Bucket
	rateSum   float64
	rateCount int
}

func (b *bucketBuilder) addCommission(c Commission) {
	b.TotalCommission = b.TotalCommission.Add(c.Earned)
	b.PropertyCount++
	if c.Sold {
		b.SoldCommission = b.SoldCommission.Add(c.Earned)
		b.SoldCount++
	} else {
		b.ListedCommission = b.ListedCommission.Add(c.Earned)
		b.ListedCount++
	}
	b.rateSum += c.Rate
	b.rateCount++
}

func (b *bucketBuilder) addActivity(a Activity) {
	b.ActivityCount++
	if a.IsCompleted() {
		b.CompletedCount++
	}
	b.KnocksMade += a.KnocksMade
	b.KnocksAnswered += a.KnocksAnswered
	b.CallsMade += a.CallsMade
	b.CallsConnected += a.CallsConnected
	b.DesktopAppraisals += a.DesktopAppraisals
	b.FaceToFaceAppraisals += a.FaceToFaceAppraisals
}

func (b *bucketBuilder) finish() Bucket {
	out := b.Bucket
	out.AverageCommissionRate = generic.Mean(b.rateSum, b.rateCount)
	out.KnockProgress = generic.Progress(float64(out.KnocksMade), float64(out.TargetKnocks))
	out.CallProgress = generic.Progress(float64(out.CallsMade), float64(out.TargetCalls))
	out.ConnectProgress = generic.Progress(float64(out.CallsConnected), float64(out.TargetConnects))
	out.AppraisalProgress = generic.Progress(float64(out.Appraisals()), float64(out.TargetAppraisals))
	out.Progress = generic.Progress(
		float64(out.KnocksMade+out.CallsMade),
		float64(out.TargetKnocks+out.TargetCalls),
	)
	return out
}
