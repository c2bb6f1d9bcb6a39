// Package video wraps the ffmpeg/ffprobe binaries for metadata probing,
// frame decoding, and re-encoding with audio passthrough.
package video

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// Metadata describes the input video stream.
type Metadata struct {
	FPS        float64
	Width      int
	Height     int
	FrameCount int     // 0 when unknown (progress falls back to a spinner)
	Duration   float64 // seconds
}

// CheckFFmpeg verifies both ffmpeg and ffprobe are reachable in PATH.
func CheckFFmpeg() error {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return fmt.Errorf("%s not found in PATH: %w", bin, err)
		}
	}
	return nil
}

// ffprobeOutput is the subset of ffprobe JSON we care about.
type ffprobeOutput struct {
	Streams []struct {
		CodecType     string `json:"codec_type"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		RFrameRate    string `json:"r_frame_rate"`
		NbFrames      string `json:"nb_frames"`
		NbReadPackets string `json:"nb_read_packets"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads stream metadata via ffprobe. Frame count uses the container
// metadata fast path and falls back to counting packets, which can take a
// moment on long files; a count of 0 means unknown.
func Probe(ctx context.Context, path string) (Metadata, error) {
	if err := CheckFFmpeg(); err != nil {
		return Metadata{}, err
	}

	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error",
		"-print_format", "json", "-show_format", "-show_streams", path)
	out, err := cmd.Output()
	if err != nil {
		return Metadata{}, fmt.Errorf("ffprobe failed for %s: %w", path, err)
	}

	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil {
		return Metadata{}, fmt.Errorf("ffprobe JSON parse error: %w", err)
	}

	meta := Metadata{}
	found := false
	for _, s := range res.Streams {
		if s.CodecType != "video" {
			continue
		}
		found = true
		meta.Width = s.Width
		meta.Height = s.Height
		meta.FPS = parseFrameRate(s.RFrameRate)
		if n, err := strconv.Atoi(s.NbFrames); err == nil && n > 0 {
			meta.FrameCount = n
		}
		break
	}
	if !found {
		return Metadata{}, fmt.Errorf("no video stream found in %s", path)
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return Metadata{}, fmt.Errorf("invalid dimensions %dx%d in %s", meta.Width, meta.Height, path)
	}
	if meta.FPS <= 0 {
		return Metadata{}, fmt.Errorf("could not determine frame rate of %s", path)
	}
	meta.Duration, _ = strconv.ParseFloat(res.Format.Duration, 64)

	if meta.FrameCount == 0 {
		meta.FrameCount = countPackets(ctx, path)
	}
	return meta, nil
}

// parseFrameRate converts ffprobe's "30000/1001" form to a float.
func parseFrameRate(raw string) float64 {
	parts := strings.SplitN(raw, "/", 2)
	num, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0
	}
	if len(parts) == 1 {
		return num
	}
	den, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || den == 0 {
		return 0
	}
	return num / den
}

// countPackets is the slow-path frame count used when container metadata is
// missing or inaccurate (e.g. VFR files). Returns 0 on failure so callers
// can fall back to a spinner.
func countPackets(ctx context.Context, path string) int {
	fmt.Fprintf(os.Stderr, "⏳ Metadata missing. Counting frames (this may take a moment)...\n")
	cmd := exec.CommandContext(ctx, "ffprobe", "-v", "error", "-select_streams", "v:0",
		"-count_packets", "-show_entries", "stream=nb_read_packets", "-of", "json", path)
	out, err := cmd.Output()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ffprobe failed: %v\n", err)
		return 0
	}

	var res ffprobeOutput
	if err := json.Unmarshal(out, &res); err != nil || len(res.Streams) == 0 {
		return 0
	}
	count, err := strconv.Atoi(res.Streams[0].NbReadPackets)
	if err != nil {
		return 0
	}
	return count
}
