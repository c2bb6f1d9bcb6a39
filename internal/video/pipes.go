package video

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuchdev/subswap/internal/utils"
)

var (
	JpegSOI = []byte{0xFF, 0xD8} // Start of Image
	JpegEOI = []byte{0xFF, 0xD9} // End of Image
)

// SplitJpeg is the custom splitter for bufio.Scanner.
// It locates the Start Of Image (FFD8) and End Of Image (FFD9) markers to
// extract full JPEG frames from an image2pipe stream.
func SplitJpeg(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	start := bytes.Index(data, JpegSOI)
	if start == -1 {
		return 0, nil, nil
	}
	end := bytes.Index(data[start:], JpegEOI)
	if end == -1 {
		return 0, nil, nil
	}
	return start + end + 2, data[start : start+end+2], nil
}

// NewMJPEGDecoder creates the decoder pipe for the scan stage: ffmpeg emits
// raw MJPEG frames to stdout, which Go splits with SplitJpeg and hands to
// the OCR engines as-is.
func NewMJPEGDecoder(ctx context.Context, inputPath string) *utils.SafeCommand {
	// -hide_banner and -loglevel error prevent memory bloat in the stderr buffer
	return utils.NewSafeCommand(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", inputPath, "-f", "image2pipe", "-vcodec", "mjpeg", "-")
}

// NewRawDecoder creates the decoder pipe for the render stage: every frame
// as packed RGBA bytes (width*height*4 per frame) on stdout.
func NewRawDecoder(ctx context.Context, inputPath string) *utils.SafeCommand {
	return utils.NewSafeCommand(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error",
		"-i", inputPath, "-f", "rawvideo", "-pix_fmt", "rgba", "-")
}

// NewRawEncoder creates the encoder pipe for the render stage. Frames are
// written as packed RGBA to stdin; the audio streams of the source file are
// copied through untouched.
func NewRawEncoder(ctx context.Context, outputPath, sourcePath string, meta Metadata, codec string) *utils.SafeCommand {
	return utils.NewSafeCommand(ctx, "ffmpeg", "-hide_banner", "-loglevel", "error",
		"-f", "rawvideo", "-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", meta.Width, meta.Height),
		"-r", fmt.Sprintf("%f", meta.FPS),
		"-i", "-",
		"-i", sourcePath,
		"-map", "0:v", "-map", "1:a?",
		"-c:v", codec, "-pix_fmt", "yuv420p",
		"-c:a", "copy",
		"-y", outputPath)
}
