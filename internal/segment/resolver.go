package segment

import (
	"sort"

	"github.com/yuchdev/subswap/internal/textutil"
	"github.com/yuchdev/subswap/internal/types"
)

// Resolve sets the segment's representative text and box from its member
// frames. It is a pure function of the members: resolving twice yields
// identical results.
func Resolve(seg *types.Segment) {
	seg.Text = consensusText(seg.Members)
	seg.Box = medianBox(seg.Members)
}

// consensusText picks the most frequent normalized text among members. Ties
// break toward the longest string, then the earliest occurrence. The raw
// (original-case) text of the earliest member carrying the winning
// normalized form is returned, so casing survives the vote.
func consensusText(members []types.Observation) string {
	if len(members) == 0 {
		return ""
	}

	counts := make(map[string]int)
	firstIndex := make(map[string]int)
	firstRaw := make(map[string]string)
	for i, m := range members {
		key := textutil.Normalize(m.Text)
		counts[key]++
		if _, seen := firstIndex[key]; !seen {
			firstIndex[key] = i
			firstRaw[key] = m.Text
		}
	}

	best := ""
	bestCount := -1
	for key, count := range counts {
		switch {
		case count > bestCount:
		case count == bestCount && len(key) > len(best):
		case count == bestCount && len(key) == len(best) && firstIndex[key] < firstIndex[best]:
		default:
			continue
		}
		best = key
		bestCount = count
	}
	return firstRaw[best]
}

// medianBox takes the per-coordinate median of member boxes, robust to
// outlier detections without being skewed by a single bad frame the way a
// mean would be.
func medianBox(members []types.Observation) types.Box {
	if len(members) == 0 {
		return types.Box{}
	}
	n := len(members)
	xs := make([]int, n)
	ys := make([]int, n)
	ws := make([]int, n)
	hs := make([]int, n)
	for i, m := range members {
		xs[i] = m.Box.X
		ys[i] = m.Box.Y
		ws[i] = m.Box.W
		hs[i] = m.Box.H
	}
	return types.Box{
		X: median(xs),
		Y: median(ys),
		W: median(ws),
		H: median(hs),
	}
}

func median(vals []int) int {
	sort.Ints(vals)
	n := len(vals)
	if n%2 == 1 {
		return vals[n/2]
	}
	return (vals[n/2-1] + vals[n/2]) / 2
}
