// Package segment turns closed tracks into the stable subtitle segments the
// translation and render stages consume. Grouping runs independently per
// spatial cluster of tracks, so unrelated text in different screen regions
// never collapses into one segment even when the words coincide.
package segment

import (
	"sort"

	"github.com/yuchdev/subswap/internal/textutil"
	"github.com/yuchdev/subswap/internal/types"
)

// GroupConfig holds the merge thresholds.
type GroupConfig struct {
	SimilarityThreshold float64
	MinDurationFrames   int
	MaxGapFrames        int
}

// Group merges closed tracks into a time-ordered, non-overlapping set of
// resolved segments. Segments backed by fewer member frames than
// MinDurationFrames are dropped as OCR noise.
func Group(tracks []*types.Track, cfg GroupConfig) []*types.Segment {
	var out []*types.Segment
	for _, cluster := range clusterByOverlap(tracks) {
		out = append(out, groupCluster(cluster, cfg)...)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartFrame < out[j].StartFrame })
	return out
}

// groupCluster runs the similarity/gap merge over one spatial cluster.
func groupCluster(tracks []*types.Track, cfg GroupConfig) []*types.Segment {
	if len(tracks) == 0 {
		return nil
	}
	sort.SliceStable(tracks, func(i, j int) bool { return tracks[i].StartFrame() < tracks[j].StartFrame() })

	var segments []*types.Segment
	open := newCandidate(tracks[0])

	for _, tk := range tracks[1:] {
		gap := tk.StartFrame() - open.endFrame
		similarity := textutil.SimilarityRatio(majorityText(tk.Observations), open.majorityText())

		if gap <= cfg.MaxGapFrames+1 && similarity >= cfg.SimilarityThreshold {
			open.absorb(tk)
		} else {
			if seg := open.close(cfg.MinDurationFrames); seg != nil {
				segments = append(segments, seg)
			}
			open = newCandidate(tk)
		}
	}
	if seg := open.close(cfg.MinDurationFrames); seg != nil {
		segments = append(segments, seg)
	}

	return mergeOverlapping(segments)
}

// candidate is the one open segment the grouper maintains per cluster.
type candidate struct {
	members    []types.Observation
	startFrame int
	endFrame   int
	counts     map[string]int // normalized text -> occurrences, for the running representative
	first      map[string]int // normalized text -> order of first occurrence
}

func newCandidate(tk *types.Track) *candidate {
	c := &candidate{
		startFrame: tk.StartFrame(),
		endFrame:   tk.EndFrame(),
		counts:     make(map[string]int),
		first:      make(map[string]int),
	}
	c.append(tk.Observations)
	return c
}

func (c *candidate) absorb(tk *types.Track) {
	if tk.EndFrame() > c.endFrame {
		c.endFrame = tk.EndFrame()
	}
	c.append(tk.Observations)
}

func (c *candidate) append(obs []types.Observation) {
	for _, o := range obs {
		key := textutil.Normalize(o.Text)
		if _, seen := c.first[key]; !seen {
			c.first[key] = len(c.members)
		}
		c.members = append(c.members, o)
		c.counts[key]++
	}
}

// majorityText returns the most frequent normalized text among members,
// breaking ties toward the longer string, then the earliest occurrence.
func (c *candidate) majorityText() string {
	best, bestCount := "", -1
	for text, count := range c.counts {
		if better(text, count, best, bestCount, c.first) {
			best, bestCount = text, count
		}
	}
	return best
}

// close materializes the candidate, or returns nil when fewer distinct member
// frames than the minimum duration contributed to it. Counting frames rather
// than the raw span keeps gap-bridged candidates with too few real
// observations from surviving the filter.
func (c *candidate) close(minDuration int) *types.Segment {
	if distinctFrames(c.members) < minDuration {
		return nil
	}
	sort.SliceStable(c.members, func(i, j int) bool { return c.members[i].FrameIndex < c.members[j].FrameIndex })
	seg := &types.Segment{
		StartFrame: c.startFrame,
		EndFrame:   c.endFrame,
		Members:    c.members,
	}
	Resolve(seg)
	return seg
}

// majorityText over a raw observation list (a track's representative text).
func majorityText(obs []types.Observation) string {
	counts := make(map[string]int)
	first := make(map[string]int)
	for i, o := range obs {
		key := textutil.Normalize(o.Text)
		if _, seen := first[key]; !seen {
			first[key] = i
		}
		counts[key]++
	}
	best, bestCount := "", -1
	for text, count := range counts {
		if better(text, count, best, bestCount, first) {
			best, bestCount = text, count
		}
	}
	return best
}

// better reports whether (text, count) beats the current majority vote
// leader: higher count, then longer text, then earlier first occurrence.
// Map iteration order never decides a winner.
func better(text string, count int, best string, bestCount int, first map[string]int) bool {
	if count != bestCount {
		return count > bestCount
	}
	if len(text) != len(best) {
		return len(text) > len(best)
	}
	return first[text] < first[best]
}

// distinctFrames counts the unique frame indices among members.
func distinctFrames(members []types.Observation) int {
	seen := make(map[int]struct{}, len(members))
	for _, m := range members {
		seen[m.FrameIndex] = struct{}{}
	}
	return len(seen)
}

// mergeOverlapping collapses same-cluster segments whose frame ranges
// overlap; overlapping segments are never allowed to coexist. Input must be
// sorted by start frame.
func mergeOverlapping(segments []*types.Segment) []*types.Segment {
	if len(segments) < 2 {
		return segments
	}
	merged := segments[:1]
	for _, seg := range segments[1:] {
		last := merged[len(merged)-1]
		if seg.StartFrame > last.EndFrame {
			merged = append(merged, seg)
			continue
		}
		if seg.EndFrame > last.EndFrame {
			last.EndFrame = seg.EndFrame
		}
		last.Members = append(last.Members, seg.Members...)
		sort.SliceStable(last.Members, func(i, j int) bool { return last.Members[i].FrameIndex < last.Members[j].FrameIndex })
		Resolve(last)
	}
	return merged
}

// clusterByOverlap partitions tracks into groups whose smoothed boxes
// transitively overlap. Tracks in different clusters are never merged,
// whatever their text similarity.
func clusterByOverlap(tracks []*types.Track) [][]*types.Track {
	n := len(tracks)
	if n == 0 {
		return nil
	}

	parent := make([]int, n)
	for i := range parent {
		parent[i] = i
	}
	var find func(int) int
	find = func(i int) int {
		for parent[i] != i {
			parent[i] = parent[parent[i]]
			i = parent[i]
		}
		return i
	}
	union := func(a, b int) {
		ra, rb := find(a), find(b)
		if ra != rb {
			parent[rb] = ra
		}
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if tracks[i].Smoothed.Intersects(tracks[j].Smoothed) {
				union(i, j)
			}
		}
	}

	byRoot := make(map[int][]*types.Track)
	order := make([]int, 0, n)
	for i, tk := range tracks {
		root := find(i)
		if _, seen := byRoot[root]; !seen {
			order = append(order, root)
		}
		byRoot[root] = append(byRoot[root], tk)
	}

	clusters := make([][]*types.Track, 0, len(order))
	for _, root := range order {
		clusters = append(clusters, byRoot[root])
	}
	return clusters
}
