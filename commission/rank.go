package commission

import (
	"cmp"
	"strings"

	"github.com/warp/agency-reports/generic"
)

// SortKey selects the ranking column.
type SortKey string

const (
	SortByCommission SortKey = "commission"
	SortByProperties SortKey = "properties"
	SortByProgress   SortKey = "progress"
)

// ParseSortKey validates a sort key. Empty means commission.
func ParseSortKey(s string) (SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "commission", "total_commission", "totalcommission":
		return SortByCommission, nil
	case "properties", "property_count":
		return SortByProperties, nil
	case "progress":
		return SortByProgress, nil
	}
	return "", &generic.ValidationError{Field: "sort", Value: s, Reason: "expected commission, properties or progress", Err: generic.ErrInvalidFilter}
}

func (k SortKey) compare(a, b Bucket) int {
	switch k {
	case SortByProperties:
		return cmp.Compare(a.PropertyCount, b.PropertyCount)
	case SortByProgress:
		return cmp.Compare(a.Progress, b.Progress)
	default:
		return a.TotalCommission.Cmp(b.TotalCommission)
	}
}

// RankBuckets sorts descending by key. Ties keep accumulation order.
func RankBuckets(buckets []Bucket, key SortKey) []Bucket {
	return generic.Rank(buckets, key.compare)
}

// TopBuckets is the chart feed: the n highest earners, n <= 0 meaning
// generic.DefaultTopN.
func TopBuckets(buckets []Bucket, n int) []Bucket {
	return generic.TopN(RankBuckets(buckets, SortByCommission), n)
}

// Ranked returns a copy of r with every bucket list ranked by key.
func (r Report) Ranked(key SortKey) Report {
	r.Agencies = RankBuckets(r.Agencies, key)
	r.Agents = RankBuckets(r.Agents, key)
	r.Suburbs = RankBuckets(r.Suburbs, key)
	r.Streets = RankBuckets(r.Streets, key)
	return r
}
