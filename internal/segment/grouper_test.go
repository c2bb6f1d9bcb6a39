package segment

import (
	"testing"

	"github.com/yuchdev/subswap/internal/types"
)

func testConfig() GroupConfig {
	return GroupConfig{
		SimilarityThreshold: 0.8,
		MinDurationFrames:   2,
		MaxGapFrames:        1,
	}
}

// makeTrack builds a closed track with one observation per frame in
// [start, end], all carrying the same text and box.
func makeTrack(start, end int, text string, box types.Box) *types.Track {
	tk := &types.Track{Smoothed: box, LastFrame: end}
	for f := start; f <= end; f++ {
		tk.Observations = append(tk.Observations, types.Observation{FrameIndex: f, Text: text, Box: box})
	}
	return tk
}

var (
	box1 = types.Box{X: 100, Y: 400, W: 200, H: 40}
	box2 = types.Box{X: 110, Y: 405, W: 190, H: 40}
	far  = types.Box{X: 100, Y: 50, W: 200, H: 40}
)

// The two-subtitle scenario: "Hi" on f0..f2, nothing on f3, "Bye" on f4..f5.
func TestTwoSegmentScenario(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 2, "Hi", box1),
		makeTrack(4, 5, "Bye", box2),
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
	if segs[0].StartFrame != 0 || segs[0].EndFrame != 2 || segs[0].Text != "Hi" {
		t.Errorf("first segment = [%d,%d] %q, want [0,2] \"Hi\"", segs[0].StartFrame, segs[0].EndFrame, segs[0].Text)
	}
	if segs[1].StartFrame != 4 || segs[1].EndFrame != 5 || segs[1].Text != "Bye" {
		t.Errorf("second segment = [%d,%d] %q, want [4,5] \"Bye\"", segs[1].StartFrame, segs[1].EndFrame, segs[1].Text)
	}
}

// A single-frame flash among empty frames is dropped by the duration filter.
func TestSingleFrameFlashDropped(t *testing.T) {
	cfg := testConfig()
	cfg.MinDurationFrames = 3

	segs := Group([]*types.Track{makeTrack(10, 10, "X", box1)}, cfg)
	if len(segs) != 0 {
		t.Fatalf("expected 0 segments, got %d", len(segs))
	}
}

func TestSimilarTracksAcrossSmallGapMerge(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 3, "Hello there", box1),
		makeTrack(5, 8, "Hello there", box2), // one-frame gap, OCR box drift
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 1 {
		t.Fatalf("expected 1 merged segment, got %d", len(segs))
	}
	if segs[0].StartFrame != 0 || segs[0].EndFrame != 8 {
		t.Errorf("merged span = [%d,%d], want [0,8]", segs[0].StartFrame, segs[0].EndFrame)
	}
	if len(segs[0].Members) != 8 {
		t.Errorf("expected 8 member frames, got %d", len(segs[0].Members))
	}
}

func TestDissimilarTextsStaySeparate(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 3, "Hello there", box1),
		makeTrack(5, 8, "Completely different words", box2),
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(segs))
	}
}

func TestGapAboveThresholdSplits(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 3, "Hello there", box1),
		makeTrack(8, 11, "Hello there", box2), // gap of 4 missing frames > max_gap 1
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments across the large gap, got %d", len(segs))
	}
}

// Same text in non-overlapping screen regions must never merge.
func TestSpatiallyDisjointTracksNeverMerge(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 3, "Hello there", box1),
		makeTrack(4, 7, "Hello there", far),
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 2 {
		t.Fatalf("expected 2 segments in distinct regions, got %d", len(segs))
	}
}

// Segments produced from one cluster never overlap in frame range.
func TestNoOverlappingSegments(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 5, "Hello there", box1),
		makeTrack(2, 9, "totally unrelated line", box2), // concurrent, dissimilar, same region
		makeTrack(20, 24, "later line", box1),
	}

	segs := Group(tracks, testConfig())
	for i := 1; i < len(segs); i++ {
		if segs[i].StartFrame <= segs[i-1].EndFrame {
			t.Errorf("segments %d and %d overlap: [%d,%d] then [%d,%d]",
				i-1, i, segs[i-1].StartFrame, segs[i-1].EndFrame, segs[i].StartFrame, segs[i].EndFrame)
		}
	}
	for _, s := range segs {
		if s.StartFrame > s.EndFrame {
			t.Errorf("segment with start > end: [%d,%d]", s.StartFrame, s.EndFrame)
		}
	}
}

func TestMinDurationInvariant(t *testing.T) {
	cfg := testConfig()
	cfg.MinDurationFrames = 4

	tracks := []*types.Track{
		makeTrack(0, 1, "blip", box1),
		makeTrack(10, 15, "keeper", box1),
		makeTrack(30, 31, "blip2", box2),
	}

	segs := Group(tracks, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected only the long segment, got %d", len(segs))
	}
	for _, s := range segs {
		if s.EndFrame-s.StartFrame+1 < cfg.MinDurationFrames {
			t.Errorf("segment [%d,%d] shorter than min duration", s.StartFrame, s.EndFrame)
		}
	}
}

// A merge across the allowed gap must not launder two one-frame flashes into
// a segment: the duration filter counts member frames, not the frame span.
func TestGapBridgedFlashesStillDropped(t *testing.T) {
	cfg := testConfig()
	cfg.MinDurationFrames = 3

	tracks := []*types.Track{
		makeTrack(0, 0, "Hello there", box1),
		makeTrack(2, 2, "Hello there", box2), // merges across the one-frame gap
	}

	segs := Group(tracks, cfg)
	if len(segs) != 0 {
		t.Fatalf("expected 0 segments from 2 member frames under min duration 3, got %d", len(segs))
	}

	cfg.MinDurationFrames = 2
	segs = Group(tracks, cfg)
	if len(segs) != 1 {
		t.Fatalf("expected the merged segment at min duration 2, got %d", len(segs))
	}
	if segs[0].StartFrame != 0 || segs[0].EndFrame != 2 {
		t.Errorf("merged span = [%d,%d], want [0,2]", segs[0].StartFrame, segs[0].EndFrame)
	}
}

// Emitted segments always carry at least MinDurationFrames distinct member
// frames, whatever their span.
func TestMinDurationCountsMemberFrames(t *testing.T) {
	cfg := testConfig()
	cfg.MinDurationFrames = 4

	tracks := []*types.Track{
		makeTrack(0, 1, "sparse line", box1),
		makeTrack(3, 4, "sparse line", box2),
		makeTrack(10, 14, "dense line", box1),
	}

	segs := Group(tracks, cfg)
	for _, s := range segs {
		if got := distinctFrames(s.Members); got < cfg.MinDurationFrames {
			t.Errorf("segment [%d,%d] has %d member frames, want >= %d",
				s.StartFrame, s.EndFrame, got, cfg.MinDurationFrames)
		}
	}
	if len(segs) != 2 {
		t.Fatalf("expected the 4-frame and 5-frame segments, got %d", len(segs))
	}
}

// When two reads tie on both count and length, the earliest one wins. Run the
// vote over both orderings so a map-iteration fluke cannot hide the bug.
func TestMajorityTextTieBreaksToEarliest(t *testing.T) {
	a := types.Observation{FrameIndex: 0, Text: "abcd"}
	b := types.Observation{FrameIndex: 1, Text: "wxyz"}

	if got := majorityText([]types.Observation{a, b}); got != "abcd" {
		t.Errorf("majorityText(a, b) = %q, want earliest read %q", got, "abcd")
	}
	if got := majorityText([]types.Observation{b, a}); got != "wxyz" {
		t.Errorf("majorityText(b, a) = %q, want earliest read %q", got, "wxyz")
	}

	c := newCandidate(&types.Track{Observations: []types.Observation{a, b}})
	if got := c.majorityText(); got != "abcd" {
		t.Errorf("candidate majorityText = %q, want earliest read %q", got, "abcd")
	}
}

// OCR jitter inside one subtitle: slightly different reads still merge and
// the consensus picks the majority read.
func TestJitteredReadsConverge(t *testing.T) {
	tracks := []*types.Track{
		makeTrack(0, 1, "Hello World", box1),
		makeTrack(2, 2, "Hell0 World", box1), // single-frame misread
		makeTrack(3, 5, "Hello World", box2),
	}

	segs := Group(tracks, testConfig())
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Text != "Hello World" {
		t.Errorf("consensus text = %q, want majority read", segs[0].Text)
	}
}
