package generic

import "slices"

// =============================================================================
// RANKING - Stable descending order and Top-N
// =============================================================================

// DefaultTopN is the number of entries fed to charts.
const DefaultTopN = 5

// Rank returns a copy of items sorted descending by cmp. cmp follows the
// slices.SortFunc convention for ASCENDING order; Rank inverts it. Equal
// elements keep their input order, so ties resolve to first-encountered.
func Rank[T any](items []T, cmp func(a, b T) int) []T {
	ranked := slices.Clone(items)
	if ranked == nil {
		ranked = []T{}
	}
	slices.SortStableFunc(ranked, func(a, b T) int { return cmp(b, a) })
	return ranked
}

// TopN returns at most n leading items. n <= 0 uses DefaultTopN.
func TopN[T any](items []T, n int) []T {
	if n <= 0 {
		n = DefaultTopN
	}
	if len(items) <= n {
		return slices.Clone(items)
	}
	return slices.Clone(items[:n])
}
