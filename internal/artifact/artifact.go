// Package artifact reads and writes the portable JSON form of a scan: the
// video's identity and probe metadata plus every detection and segment.
// Artifacts let a scan done on one machine be translated and rendered on
// another without access to the original database.
package artifact

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yuchdev/subswap/internal/types"
)

const formatVersion = 1

type VideoInfo struct {
	ID           string  `json:"id"`
	Path         string  `json:"path"`
	Width        int     `json:"width"`
	Height       int     `json:"height"`
	FPS          float64 `json:"fps"`
	FrameCount   int     `json:"frame_count"`
	SampleStride int     `json:"sample_stride"`
}

type Artifact struct {
	Version    int               `json:"version"`
	ExportedAt time.Time         `json:"exported_at"`
	Video      VideoInfo         `json:"video"`
	Detections []types.Detection `json:"detections"`
	Segments   []types.Segment   `json:"segments"`
}

func Save(path string, a *Artifact) error {
	a.Version = formatVersion
	a.ExportedAt = time.Now().UTC()

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode artifact: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func Load(path string) (*Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("failed to parse artifact: %w", err)
	}
	if a.Version != formatVersion {
		return nil, fmt.Errorf("unsupported artifact version %d (expected %d)", a.Version, formatVersion)
	}
	if a.Video.ID == "" {
		return nil, fmt.Errorf("artifact is missing a video id")
	}
	return &a, nil
}
