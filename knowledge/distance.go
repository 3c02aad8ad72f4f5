package knowledge

import (
	"fmt"
	"math"
	"sort"
)

// L2 returns the Euclidean distance between a and b.
func L2(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d != %d", len(a), len(b))
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum), nil
}

// rank orders matches by distance, then by entry id, and keeps the first k.
func rank(matches []Match, k int) []Match {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return matches[i].Entry.ID < matches[j].Entry.ID
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}
