package pipeline

import (
	"sort"
	"time"
)

// sortRanked orders scored candidates by rank score, then match, then
// recency, then id. The result is a total order.
func sortRanked(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.rank.RankScore != b.rank.RankScore {
			return a.rank.RankScore > b.rank.RankScore
		}
		if a.rank.Match != b.rank.Match {
			return a.rank.Match > b.rank.Match
		}
		if c := compareRecent(a.lastActive, b.lastActive); c != 0 {
			return c < 0
		}
		return a.supplier.ID < b.supplier.ID
	})
}

// sortSearch orders free-text results by verification, then recency.
func sortSearch(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.supplier.IsVerified != b.supplier.IsVerified {
			return a.supplier.IsVerified
		}
		if c := compareRecent(a.lastActive, b.lastActive); c != 0 {
			return c < 0
		}
		if !a.supplier.UpdatedAt.Equal(b.supplier.UpdatedAt) {
			return a.supplier.UpdatedAt.After(b.supplier.UpdatedAt)
		}
		return a.supplier.ID < b.supplier.ID
	})
}

// compareRecent returns -1 when a sorts first. Later times sort first and
// unknown times sort last.
func compareRecent(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.After(*b):
		return -1
	case b.After(*a):
		return 1
	default:
		return 0
	}
}
