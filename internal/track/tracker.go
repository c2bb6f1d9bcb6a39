// Package track associates per-frame OCR detections into short-lived tracks,
// smoothing bounding-box jitter across consecutive sampled frames.
package track

import (
	"github.com/yuchdev/subswap/internal/types"
)

// Config holds the tracker thresholds.
type Config struct {
	IoUThreshold     float64 // minimum spatial overlap to extend a track
	RedetectInterval int     // max sampled-frame gap before a track closes
	SmoothingWindow  int     // number of recent boxes averaged into Smoothed
	MinConfidence    float64 // detections below this floor are discarded
}

// Tracker consumes detections one sampled frame at a time, in strictly
// increasing frame order, and emits closed tracks.
type Tracker struct {
	cfg    Config
	active []*activeTrack
	closed []*types.Track
}

// activeTrack carries the mutable association state of one open track.
type activeTrack struct {
	track  *types.Track
	window []types.Box // last SmoothingWindow boxes, oldest first
}

// New returns a tracker ready to observe frame 0.
func New(cfg Config) *Tracker {
	return &Tracker{cfg: cfg}
}

// Observe processes all detections of one sampled frame. Frames must arrive
// in strictly increasing order; frames with no subtitle on screen are
// observed with an empty slice so that stale tracks still close.
func (tr *Tracker) Observe(frameIndex int, detections []types.Detection) {
	// 1. Close tracks whose gap to this frame exceeds the redetect interval.
	tr.closeStale(frameIndex)

	// 2. Match each detection to the best overlapping active track.
	claimed := make(map[*activeTrack]bool)
	for _, det := range detections {
		if det.Confidence < tr.cfg.MinConfidence || det.Text == "" || det.Box.Empty() {
			continue
		}

		best := tr.bestMatch(det.Box, claimed)
		if best == nil {
			opened := &activeTrack{
				track: &types.Track{
					Observations: []types.Observation{{FrameIndex: frameIndex, Text: det.Text, Box: det.Box}},
					Smoothed:     det.Box,
					LastFrame:    frameIndex,
				},
				window: []types.Box{det.Box},
			}
			tr.active = append(tr.active, opened)
			claimed[opened] = true
			continue
		}

		best.extend(frameIndex, det, tr.cfg.SmoothingWindow)
		claimed[best] = true
	}
}

// bestMatch returns the unclaimed active track with the highest IoU at or
// above the threshold. Ties go to the most recently updated track.
func (tr *Tracker) bestMatch(box types.Box, claimed map[*activeTrack]bool) *activeTrack {
	var best *activeTrack
	bestIoU := 0.0
	for _, at := range tr.active {
		if claimed[at] {
			continue
		}
		iou := at.track.Smoothed.IoU(box)
		if iou < tr.cfg.IoUThreshold {
			continue
		}
		if iou > bestIoU || (iou == bestIoU && best != nil && at.track.LastFrame > best.track.LastFrame) {
			bestIoU = iou
			best = at
		}
	}
	return best
}

// extend appends the detection and refreshes the sliding-window box average.
func (at *activeTrack) extend(frameIndex int, det types.Detection, window int) {
	at.track.Observations = append(at.track.Observations, types.Observation{
		FrameIndex: frameIndex,
		Text:       det.Text,
		Box:        det.Box,
	})
	at.track.LastFrame = frameIndex

	at.window = append(at.window, det.Box)
	if len(at.window) > window {
		at.window = at.window[len(at.window)-window:]
	}
	at.track.Smoothed = meanBox(at.window)
}

// closeStale moves every active track whose last observation is more than
// RedetectInterval frames behind the current frame into the closed set.
func (tr *Tracker) closeStale(frameIndex int) {
	remaining := tr.active[:0]
	for _, at := range tr.active {
		if frameIndex-at.track.LastFrame > tr.cfg.RedetectInterval {
			tr.closed = append(tr.closed, at.track)
		} else {
			remaining = append(remaining, at)
		}
	}
	tr.active = remaining
}

// Flush closes all remaining active tracks. Call once the video ends.
func (tr *Tracker) Flush() {
	for _, at := range tr.active {
		tr.closed = append(tr.closed, at.track)
	}
	tr.active = nil
}

// Closed returns all tracks closed so far, in closing order.
func (tr *Tracker) Closed() []*types.Track {
	return tr.closed
}

// meanBox averages the window per coordinate.
func meanBox(boxes []types.Box) types.Box {
	if len(boxes) == 0 {
		return types.Box{}
	}
	var x, y, w, h int
	for _, b := range boxes {
		x += b.X
		y += b.Y
		w += b.W
		h += b.H
	}
	n := len(boxes)
	return types.Box{X: x / n, Y: y / n, W: w / n, H: h / n}
}
