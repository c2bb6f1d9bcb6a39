package ocr

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/yuchdev/subswap/internal/types"
	"github.com/yuchdev/subswap/internal/utils"
)

// Config controls a single OCR engine process.
type Config struct {
	Script       string  // path to the Python worker script
	Lang         string  // OCR recognition language passed to PaddleOCR
	BottomRatio  float64 // fraction of frame height scanned, measured from the bottom
	DetThreshold float64
	RecThreshold float64
	ReadTimeout  time.Duration // per-frame response deadline; 0 disables it
}

// Engine wraps a Python OCR worker subprocess. Frames go in over stdin as
// length-prefixed JPEG bytes; detections come back over a dedicated data
// pipe (FD 3 in the child) as length-prefixed JSON. Keeping stdout free
// means stray prints from Python libraries cannot corrupt the protocol.
type Engine struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser

	readTimeout time.Duration
}

func NewEngine(ctx context.Context, id int, cfg Config) (*Engine, error) {
	py := utils.NewSafeCommand(ctx, "python3", "-u", cfg.Script,
		"--lang", cfg.Lang,
		"--bottom-ratio", strconv.FormatFloat(cfg.BottomRatio, 'f', -1, 64),
		"--det-threshold", strconv.FormatFloat(cfg.DetThreshold, 'f', -1, 64),
		"--rec-threshold", strconv.FormatFloat(cfg.RecThreshold, 'f', -1, 64),
	)

	// Side-channel pipe for clean data transfer. It appears as FD 3 in the child.
	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	py.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := py.StdinPipe()
	if err != nil {
		w.Close() // Prevent FD leak
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := py.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("engine %d failed to start: %w", id, err)
	}

	// Close the write-end in the parent so only the child holds it
	w.Close()

	return &Engine{
		ID:          id,
		Cmd:         py,
		Stdin:       stdin,
		DataPipe:    r,
		readTimeout: cfg.ReadTimeout,
	}, nil
}

// ProcessFrame sends one JPEG frame to the worker and returns the subtitle
// detections it found. A response describing a Python-side exception is
// surfaced as an error.
func (e *Engine) ProcessFrame(jpeg []byte) ([]types.Detection, error) {
	// Protocol: [Length][Data]
	if err := binary.Write(e.Stdin, binary.BigEndian, uint32(len(jpeg))); err != nil {
		return nil, err
	}
	if _, err := e.Stdin.Write(jpeg); err != nil {
		return nil, err
	}

	body, err := e.readResponse()
	if err != nil {
		return nil, err
	}
	return decodeResponse(body)
}

// readResponse reads one length-prefixed message from the data pipe. When a
// read timeout is configured, a worker that stops answering (a hung model
// load, a deadlocked import) fails the frame instead of stalling the scan.
func (e *Engine) readResponse() ([]byte, error) {
	type result struct {
		body []byte
		err  error
	}
	read := func() ([]byte, error) {
		header := make([]byte, 4)
		if _, err := io.ReadFull(e.DataPipe, header); err != nil {
			return nil, err // This is where we catch the "ModuleNotFoundError" crash
		}
		body := make([]byte, binary.BigEndian.Uint32(header))
		_, err := io.ReadFull(e.DataPipe, body)
		return body, err
	}

	if e.readTimeout <= 0 {
		return read()
	}

	ch := make(chan result, 1)
	go func() {
		body, err := read()
		ch <- result{body, err}
	}()

	select {
	case res := <-ch:
		return res.body, res.err
	case <-time.After(e.readTimeout):
		return nil, fmt.Errorf("engine %d timed out after %s waiting for a response", e.ID, e.readTimeout)
	}
}

// decodeResponse parses the worker's JSON payload. The worker reports its
// own exceptions as {"error": "..."} objects; anything else is a detection
// list (possibly empty).
func decodeResponse(body []byte) ([]types.Detection, error) {
	var engineErr types.EngineError
	if err := json.Unmarshal(body, &engineErr); err == nil && engineErr.Error != "" {
		return nil, fmt.Errorf("ocr worker error: %s", engineErr.Error)
	}

	var detections []types.Detection
	if err := json.Unmarshal(body, &detections); err != nil {
		return nil, fmt.Errorf("malformed worker response: %w", err)
	}
	return detections, nil
}

func (e *Engine) Close() {
	e.Stdin.Close()
	e.DataPipe.Close()
	e.Cmd.Wait()
}
