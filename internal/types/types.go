package types

// FrameTask represents a single sampled frame sent to an OCR engine for processing
type FrameTask struct {
	Index int // index in the sampled timeline
	Data  []byte
}

// Detection is one OCR hit on one sampled frame, as returned by the engine
// and normalized by the adapter. Immutable once created.
type Detection struct {
	FrameIndex int     `json:"frame_index"`
	Text       string  `json:"text"`
	Box        Box     `json:"box"`
	Confidence float64 `json:"confidence"`
}

// Observation is one (frame, text, box) member of a track or segment.
type Observation struct {
	FrameIndex int    `json:"frame_index"`
	Text       string `json:"text"`
	Box        Box    `json:"box"`
}

// Track is a detection lineage believed to refer to the same on-screen text
// box across consecutive sampled frames. Member frame indices are strictly
// increasing. A track is owned by the tracker until it closes, then handed to
// the grouper.
type Track struct {
	Observations []Observation `json:"observations"`
	Smoothed     Box           `json:"smoothed_box"`
	LastFrame    int           `json:"last_frame_index"`
}

// StartFrame returns the frame index of the first observation.
func (t *Track) StartFrame() int {
	if len(t.Observations) == 0 {
		return 0
	}
	return t.Observations[0].FrameIndex
}

// EndFrame returns the frame index of the last observation.
func (t *Track) EndFrame() int {
	if len(t.Observations) == 0 {
		return 0
	}
	return t.Observations[len(t.Observations)-1].FrameIndex
}

// Segment is the unit of translation and rendering: a temporally contiguous
// run of observations judged to carry the same subtitle content. ID is the
// database row id, set when the segment is loaded from the store; it never
// travels in artifacts.
type Segment struct {
	ID         int64         `json:"-"`
	StartFrame int           `json:"start_frame"`
	EndFrame   int           `json:"end_frame"`
	Members    []Observation `json:"member_frames"`
	Text       string        `json:"representative_text"`
	Box        Box           `json:"representative_box"`
	SourceLang string        `json:"source_lang,omitempty"`
	Translated string        `json:"translated_text,omitempty"`
}

// RenderText returns the string the renderer should draw: the translation
// when one exists, otherwise the original representative text.
func (s *Segment) RenderText() string {
	if s.Translated != "" {
		return s.Translated
	}
	return s.Text
}

// EngineError captures the error object returned by the OCR worker on failure
type EngineError struct {
	Error string `json:"error"`
}
