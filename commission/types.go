/*
Package commission implements the agency commission and performance
aggregation engine.

PURPOSE:
  Turns already-fetched records (property listings, door-knock and
  phone-call activities, marketing-plan targets) into per-agency,
  per-agent, per-suburb and per-street totals plus a scalar summary.
  Every agent and admin report is a view over the Report produced here.

PIPELINE:
  records -> Filter -> Calculate (per property) -> Accumulate (grouped
  folds keyed by normalized names) -> RankBuckets / generic.Paginate ->
  export package

  The pipeline is pure. The same records, filter and clock always yield
  the same Report; nothing is cached between calls.

KEY CONCEPTS IN THIS FILE (types.go):
  - Property, Activity, MarketingPlan, Agent: input records
  - Records: the bundle handed to Accumulate
  - Bucket: one grouped total (agency, agent, suburb or street)
  - Summary, Report: the output
  - RecordSource: where adapters load Records from

NUMERIC INPUTS:
  Optional numbers are resolved at the decoding boundary (factory package).
  Only SoldPrice and CommissionRate stay optional here because their
  absence changes which price is used.

SEE ALSO:
  - normalize.go:  grouping keys
  - calculator.go: commission per property
  - filter.go:     the single predicate shared by every dimension
  - accumulate.go: the fold
*/
package commission

import (
	"context"
	"strings"
	"time"

	"github.com/warp/agency-reports/generic"
)

// =============================================================================
// INPUT RECORDS
// =============================================================================

// Category is the listing category shown on a property card.
type Category string

const (
	CategoryListing    Category = "Listing"
	CategorySold       Category = "Sold"
	CategoryUnderOffer Category = "Under Offer"
)

// Property is one listing as fetched from the backend.
type Property struct {
	ID             string
	Agency         string
	Agent          string
	Suburb         string
	Address        string
	ListingPrice   float64
	SoldPrice      *float64
	CommissionRate *float64 // percent, e.g. 2.5
	Category       Category
	ContractStatus string // free text from the contract form, "sold" when settled
	ListedDate     time.Time
	SoldDate       *time.Time
}

// IsSold reports whether the contract is sold or a sold date is recorded.
func (p Property) IsSold() bool {
	return strings.EqualFold(strings.TrimSpace(p.ContractStatus), "sold") ||
		p.Category == CategorySold ||
		(p.SoldDate != nil && !p.SoldDate.IsZero())
}

// ActivityType distinguishes the two prospecting channels.
type ActivityType string

const (
	ActivityDoorKnock ActivityType = "door_knock"
	ActivityPhoneCall ActivityType = "phone_call"
)

// ActivityStatus is the state of a logged activity.
type ActivityStatus string

const (
	StatusCompleted ActivityStatus = "Completed"
	StatusPending   ActivityStatus = "pending"
	StatusCancelled ActivityStatus = "cancelled"
)

// Activity is one door-knock or phone-call session on a street.
type Activity struct {
	ID                   string
	AgentID              string
	Type                 ActivityType
	Date                 time.Time
	StreetName           string
	Suburb               string
	Status               ActivityStatus
	CallsMade            int
	CallsConnected       int
	KnocksMade           int
	KnocksAnswered       int
	DesktopAppraisals    int
	FaceToFaceAppraisals int
}

// IsCompleted compares the status case-insensitively.
func (a Activity) IsCompleted() bool {
	return strings.EqualFold(string(a.Status), string(StatusCompleted))
}

// DoorKnockTarget is a marketing-plan goal for door knocking one street.
type DoorKnockTarget struct {
	StreetName           string
	Knocks               int
	DesktopAppraisals    int
	FaceToFaceAppraisals int
}

// PhoneCallTarget is a marketing-plan goal for calling one street.
type PhoneCallTarget struct {
	StreetName           string
	Calls                int
	Connects             int
	DesktopAppraisals    int
	FaceToFaceAppraisals int
}

// MarketingPlan sets an agent's street targets in a suburb over a date range.
type MarketingPlan struct {
	ID         string
	AgentID    string
	Suburb     string
	Start      time.Time
	End        time.Time
	DoorKnocks []DoorKnockTarget
	PhoneCalls []PhoneCallTarget
}

// Period returns the plan's date range.
func (p MarketingPlan) Period() generic.Period {
	return generic.Period{Start: p.Start, End: p.End}
}

// Agent is a directory entry used to resolve AgentID on activities and plans.
type Agent struct {
	ID     string
	Name   string
	Agency string
}

// Records is everything one report computation consumes.
type Records struct {
	Properties []Property
	Activities []Activity
	Plans      []MarketingPlan
	Agents     []Agent
}

// RecordSource loads the full record set for a report.
type RecordSource interface {
	LoadRecords(ctx context.Context) (Records, error)
}

// =============================================================================
// OUTPUT - Buckets, summary, report
// =============================================================================

// Dimension names a grouping of buckets.
type Dimension string

const (
	DimensionAgency Dimension = "agencies"
	DimensionAgent  Dimension = "agents"
	DimensionSuburb Dimension = "suburbs"
	DimensionStreet Dimension = "streets"
)

// Dimensions lists every dimension in display order.
var Dimensions = []Dimension{DimensionAgency, DimensionAgent, DimensionSuburb, DimensionStreet}

// ParseDimension accepts the plural names used in URLs.
func ParseDimension(s string) (Dimension, error) {
	for _, d := range Dimensions {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", &generic.ValidationError{Field: "dimension", Value: s, Reason: "unknown dimension", Err: generic.ErrUnknownDimension}
}

// Bucket is the aggregated total for one agency, agent, suburb or street.
type Bucket struct {
	Dimension Dimension
	Key       string // normalized name
	Suburb    string // street buckets only

	TotalCommission  generic.Money
	ListedCommission generic.Money
	SoldCommission   generic.Money

	PropertyCount int
	ListedCount   int
	SoldCount     int

	// Arithmetic mean of the per-property rates, not value weighted.
	AverageCommissionRate float64

	ActivityCount        int
	CompletedCount       int
	KnocksMade           int
	KnocksAnswered       int
	CallsMade            int
	CallsConnected       int
	DesktopAppraisals    int
	FaceToFaceAppraisals int

	TargetKnocks     int
	TargetCalls      int
	TargetConnects   int
	TargetAppraisals int

	KnockProgress     float64
	CallProgress      float64
	ConnectProgress   float64
	AppraisalProgress float64
	Progress          float64 // knocks+calls against their combined target
}

// Appraisals is desktop plus face-to-face appraisals.
func (b Bucket) Appraisals() int {
	return b.DesktopAppraisals + b.FaceToFaceAppraisals
}

// Summary holds the scalar report metrics.
type Summary struct {
	TotalCommission  generic.Money
	ListedCommission generic.Money
	SoldCommission   generic.Money

	TotalProperties  int
	ListedProperties int
	SoldProperties   int

	TotalActivities     int
	CompletedActivities int
	TotalAppraisals     int

	// TotalProperties / TotalAppraisals * 100, may exceed 100.
	ConversionRate float64

	TopAgency           string
	TopAgencyCommission generic.Money
	TopAgent            string
	TopAgentCommission  generic.Money
}

// Report is the full output of one computation. Bucket slices are in
// first-encountered order; ranking happens at presentation.
type Report struct {
	Filter      Filter
	GeneratedAt time.Time
	Summary     Summary
	Agencies    []Bucket
	Agents      []Bucket
	Suburbs     []Bucket
	Streets     []Bucket
}

// Buckets returns the bucket list for a dimension.
func (r Report) Buckets(d Dimension) ([]Bucket, error) {
	switch d {
	case DimensionAgency:
		return r.Agencies, nil
	case DimensionAgent:
		return r.Agents, nil
	case DimensionSuburb:
		return r.Suburbs, nil
	case DimensionStreet:
		return r.Streets, nil
	default:
		return nil, &generic.ValidationError{Field: "dimension", Value: string(d), Reason: "unknown dimension", Err: generic.ErrUnknownDimension}
	}
}
