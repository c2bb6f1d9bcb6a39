package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/yuchdev/subswap/internal/language"
	"github.com/yuchdev/subswap/internal/segment"
	"github.com/yuchdev/subswap/internal/track"
	"github.com/yuchdev/subswap/internal/translate"
	"github.com/yuchdev/subswap/internal/types"
)

func testBuildConfig() BuildConfig {
	return BuildConfig{
		Tracker: track.Config{IoUThreshold: 0.4, RedetectInterval: 2, SmoothingWindow: 5, MinConfidence: 0.5},
		Grouper: segment.GroupConfig{SimilarityThreshold: 0.8, MinDurationFrames: 3, MaxGapFrames: 2},
	}
}

func det(text string, x int) types.Detection {
	return types.Detection{Text: text, Box: types.Box{X: x, Y: 900, W: 400, H: 60}, Confidence: 0.95}
}

func TestBuildSegments(t *testing.T) {
	var frames []FrameDetections
	// "Hello" on sampled frames 0-5, then "Goodbye" on 8-13
	for i := 0; i <= 5; i++ {
		frames = append(frames, FrameDetections{FrameIndex: i, Detections: []types.Detection{det("Hello", 100)}})
	}
	for i := 6; i <= 7; i++ {
		frames = append(frames, FrameDetections{FrameIndex: i})
	}
	for i := 8; i <= 13; i++ {
		frames = append(frames, FrameDetections{FrameIndex: i, Detections: []types.Detection{det("Goodbye", 100)}})
	}

	segments := BuildSegments(frames, testBuildConfig())
	if len(segments) != 2 {
		t.Fatalf("Expected 2 segments, got %d", len(segments))
	}
	if segments[0].Text != "Hello" || segments[0].StartFrame != 0 || segments[0].EndFrame != 5 {
		t.Errorf("Unexpected first segment: %+v", segments[0])
	}
	if segments[1].Text != "Goodbye" || segments[1].StartFrame != 8 || segments[1].EndFrame != 13 {
		t.Errorf("Unexpected second segment: %+v", segments[1])
	}
}

func TestFrameSpan(t *testing.T) {
	seg := &types.Segment{StartFrame: 2, EndFrame: 4}

	// Stride 5: sampled frame 2 covers originals 10-14, frame 4 covers 20-24.
	first, last := FrameSpan(seg, 5, 1000)
	if first != 10 || last != 24 {
		t.Errorf("Expected span [10, 24], got [%d, %d]", first, last)
	}

	// Clamped to the end of a short video.
	first, last = FrameSpan(seg, 5, 22)
	if first != 10 || last != 21 {
		t.Errorf("Expected clamped span [10, 21], got [%d, %d]", first, last)
	}

	// Stride 1 is the identity mapping.
	first, last = FrameSpan(seg, 1, 1000)
	if first != 2 || last != 4 {
		t.Errorf("Expected span [2, 4], got [%d, %d]", first, last)
	}
}

func TestCoverage(t *testing.T) {
	segA := &types.Segment{StartFrame: 0, EndFrame: 1, Text: "A"}
	segB := &types.Segment{StartFrame: 4, EndFrame: 5, Text: "B"}
	cov := NewCoverage([]*types.Segment{segB, segA}, 5, 1000)

	// segA covers originals 0-9, segB covers 20-29.
	if got := cov.At(0); len(got) != 1 || got[0] != segA {
		t.Errorf("Frame 0: expected segA, got %v", got)
	}
	if got := cov.At(9); len(got) != 1 || got[0] != segA {
		t.Errorf("Frame 9: expected segA, got %v", got)
	}
	if got := cov.At(15); got != nil {
		t.Errorf("Frame 15: expected no segment, got %v", got)
	}
	if got := cov.At(25); len(got) != 1 || got[0] != segB {
		t.Errorf("Frame 25: expected segB, got %v", got)
	}
}

func TestCoverageOverlappingRegions(t *testing.T) {
	// Two segments from different screen regions overlapping in time.
	top := &types.Segment{StartFrame: 0, EndFrame: 3, Text: "top"}
	bottom := &types.Segment{StartFrame: 2, EndFrame: 5, Text: "bottom"}
	cov := NewCoverage([]*types.Segment{top, bottom}, 1, 100)

	if got := cov.At(2); len(got) != 2 {
		t.Fatalf("Frame 2: expected both segments, got %d", len(got))
	}
}

func TestTranslateSegments(t *testing.T) {
	segments := []*types.Segment{
		{Text: "Hello world", Members: []types.Observation{{Text: "Hello world"}}},
		{Text: "Already done", Translated: "Вже готово"},
	}

	tr := translate.New(&translate.MockBackend{})
	var stats Stats
	err := TranslateSegments(context.Background(), segments, tr, language.ScriptDetector{Fallback: "en"}, "", "uk", &stats)
	if err != nil {
		t.Fatalf("TranslateSegments failed: %v", err)
	}

	if segments[0].SourceLang != "en" {
		t.Errorf("Expected detected source 'en', got %q", segments[0].SourceLang)
	}
	if segments[0].Translated != "[TRANSLATED:en->uk] Hello world" {
		t.Errorf("Unexpected translation: %q", segments[0].Translated)
	}
	// The pre-translated segment must be left alone.
	if segments[1].Translated != "Вже готово" {
		t.Errorf("Pre-translated segment was modified: %q", segments[1].Translated)
	}
	if stats.SegmentsDone != 1 || stats.SegmentsFailed != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
}

// brokenBackend always fails, for exercising the partial-failure path.
type brokenBackend struct{}

func (brokenBackend) Translate(ctx context.Context, text, sourceLang, targetLang string) (string, error) {
	return "", errors.New("backend unavailable")
}

func TestTranslateSegmentsPartialFailure(t *testing.T) {
	segments := []*types.Segment{
		{Text: "One", Members: []types.Observation{{Text: "One"}}},
		{Text: "Two", Members: []types.Observation{{Text: "Two"}}},
	}

	tr := translate.New(brokenBackend{})
	var stats Stats
	err := TranslateSegments(context.Background(), segments, tr, language.ScriptDetector{Fallback: "en"}, "en", "uk", &stats)
	if err != nil {
		t.Fatalf("TranslateSegments failed: %v", err)
	}
	if stats.SegmentsFailed != 2 || stats.SegmentsDone != 0 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	for _, seg := range segments {
		if seg.Translated != "" {
			t.Errorf("Failed segment should stay untranslated: %+v", seg)
		}
	}
}

func TestTranslateSegmentsExplicitSource(t *testing.T) {
	segments := []*types.Segment{
		{Text: "Bonjour", Members: []types.Observation{{Text: "Bonjour"}}},
	}

	tr := translate.New(&translate.MockBackend{})
	var stats Stats
	// An explicit source language bypasses detection entirely.
	err := TranslateSegments(context.Background(), segments, tr, nil, "fr", "en", &stats)
	if err != nil {
		t.Fatalf("TranslateSegments failed: %v", err)
	}
	if segments[0].SourceLang != "fr" {
		t.Errorf("Expected source 'fr', got %q", segments[0].SourceLang)
	}
	if segments[0].Translated != "[TRANSLATED:fr->en] Bonjour" {
		t.Errorf("Unexpected translation: %q", segments[0].Translated)
	}
}
