// Package pipeline connects the scan, translate and render stages: it turns
// per-frame detections into resolved segments, attaches translations, and
// maps segment spans (expressed in sampled-frame indices) back onto the
// original frame timeline for rendering.
package pipeline

import (
	"context"
	"sort"

	"github.com/yuchdev/subswap/internal/language"
	"github.com/yuchdev/subswap/internal/segment"
	"github.com/yuchdev/subswap/internal/track"
	"github.com/yuchdev/subswap/internal/translate"
	"github.com/yuchdev/subswap/internal/types"
)

// Stats accumulates counters reported at the end of each stage.
type Stats struct {
	FramesScanned   int
	FramesSampled   int
	DetectionErrors int
	SegmentsFound   int
	SegmentsDone    int
	SegmentsFailed  int
	FramesRendered  int
}

// BuildConfig bundles the tracker and grouper parameters for a scan.
type BuildConfig struct {
	Tracker track.Config
	Grouper segment.GroupConfig
}

// BuildSegments runs detections through the tracker and grouper and returns
// resolved segments. Frames must arrive in strictly increasing order of
// FrameIndex.
func BuildSegments(frames []FrameDetections, cfg BuildConfig) []*types.Segment {
	tr := track.New(cfg.Tracker)
	for _, f := range frames {
		tr.Observe(f.FrameIndex, f.Detections)
	}
	tr.Flush()
	return segment.Group(tr.Closed(), cfg.Grouper)
}

// FrameDetections is the OCR output for one sampled frame.
type FrameDetections struct {
	FrameIndex int
	Detections []types.Detection
}

// FrameSpan converts a segment's sampled-frame span into original frame
// indices. Sampled frame s stands in for original frames [s*stride,
// (s+1)*stride-1]; the span end is clamped to the last real frame. When
// totalFrames is unknown (0), the end is left unclamped.
func FrameSpan(seg *types.Segment, stride, totalFrames int) (first, last int) {
	if stride < 1 {
		stride = 1
	}
	first = seg.StartFrame * stride
	last = (seg.EndFrame+1)*stride - 1
	if totalFrames > 0 && last > totalFrames-1 {
		last = totalFrames - 1
	}
	return first, last
}

// Coverage answers, for each original frame index, which segment (if any)
// covers it. Spans are precomputed so the per-frame lookup during encoding
// is a slice probe, not a search.
type Coverage struct {
	spans []coverageSpan
}

type coverageSpan struct {
	first, last int
	seg         *types.Segment
}

func NewCoverage(segments []*types.Segment, stride, totalFrames int) *Coverage {
	c := &Coverage{}
	for _, seg := range segments {
		first, last := FrameSpan(seg, stride, totalFrames)
		c.spans = append(c.spans, coverageSpan{first: first, last: last, seg: seg})
	}
	sort.Slice(c.spans, func(i, j int) bool { return c.spans[i].first < c.spans[j].first })
	return c
}

// At returns the segment covering the original frame index, or nil. When
// spans from different screen regions overlap in time, every covering
// segment is returned.
func (c *Coverage) At(frameIndex int) []*types.Segment {
	var out []*types.Segment
	for _, span := range c.spans {
		if span.first > frameIndex {
			break
		}
		if frameIndex <= span.last {
			out = append(out, span.seg)
		}
	}
	return out
}

// TranslateSegments fills in Translated (and SourceLang where empty) for
// every segment. Segments that already carry a translation are skipped. A
// backend failure on one segment does not stop the rest; the failure count
// lands in stats.
func TranslateSegments(ctx context.Context, segments []*types.Segment, tr *translate.Translator, det language.Detector, sourceLang, targetLang string, stats *Stats) error {
	for _, seg := range segments {
		if seg.Translated != "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		src := sourceLang
		if src == "" {
			src = seg.SourceLang
		}
		if src == "" && det != nil {
			texts := make([]string, 0, len(seg.Members))
			for _, m := range seg.Members {
				texts = append(texts, m.Text)
			}
			src = det.Detect(texts)
		}
		seg.SourceLang = src

		translated, err := tr.Translate(ctx, seg.Text, src, targetLang)
		if err != nil {
			stats.SegmentsFailed++
			continue
		}
		seg.Translated = translated
		stats.SegmentsDone++
	}
	return nil
}
