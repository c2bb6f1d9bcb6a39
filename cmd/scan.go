package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/artifact"
	"github.com/yuchdev/subswap/internal/ocr"
	"github.com/yuchdev/subswap/internal/pipeline"
	"github.com/yuchdev/subswap/internal/segment"
	"github.com/yuchdev/subswap/internal/track"
	"github.com/yuchdev/subswap/internal/types"
	"github.com/yuchdev/subswap/internal/utils"
	"github.com/yuchdev/subswap/internal/video"
)

const megabyte = 1024 * 1024

var (
	scanOpts    Options
	scanTimeout string
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Detect burned-in subtitles with parallel OCR engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		_, err := runScan(cmd.Context(), scanOpts)
		return err
	},
}

func init() {
	scanCmd.Flags().StringVarP(&scanOpts.InputPath, "input", "i", "", "Path to video")
	scanCmd.Flags().IntVarP(&scanOpts.SampleStride, "stride", "n", 0, "OCR keyframe interval (0 = use config value)")
	scanCmd.Flags().IntVarP(&scanOpts.NumEngines, "engines", "e", 1, "Number of parallel OCR engines")
	scanCmd.Flags().StringVar(&scanTimeout, "worker-timeout", "60s", "Timeout for an engine to process a single frame")

	scanCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(scanCmd)
}

// Buffer pool to reduce GC pressure during scanning
var frameBufferPool = sync.Pool{
	New: func() interface{} { return make([]byte, 0, megabyte) },
}

// scanResult wraps the output from an engine to be sent to the aggregator.
// SampleIndex counts sampled frames, not original frames.
type scanResult struct {
	SampleIndex int
	Detections  []types.Detection
	Err         error
}

// runScan orchestrates the scan stage: probe, OCR engine pool, FFmpeg
// streaming, in-order aggregation into the tracker, grouping and
// persistence. It returns the video ID so `run` can chain the stages.
func runScan(ctx context.Context, opts Options) (string, error) {
	// Create a cancellable context to ensure all child processes (FFmpeg, Python)
	// are killed immediately if this function returns early (e.g. on error).
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := validateScanFlags(&opts); err != nil {
		return "", err
	}
	if err := video.CheckFFmpeg(); err != nil {
		return "", err
	}
	stride := opts.SampleStride
	if stride == 0 {
		stride = Cfg.OCR.SampleStride
	}

	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate video ID", err, nil)
		return "", err
	}

	meta, err := video.Probe(ctx, opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to probe video", err, nil)
		return "", err
	}

	info := artifact.VideoInfo{
		ID:           videoID,
		Path:         opts.InputPath,
		Width:        meta.Width,
		Height:       meta.Height,
		FPS:          meta.FPS,
		FrameCount:   meta.FrameCount,
		SampleStride: stride,
	}
	if err := DB.EnsureVideoMetadata(ctx, info); err != nil {
		utils.ShowError("Failed to register video metadata", err, nil)
		return "", err
	}
	fmt.Fprintf(os.Stderr, "📼 Processing Video ID: %s\n", videoID[:12])
	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d OCR Engines...\n", opts.NumEngines)

	workerTimeout, _ := time.ParseDuration(scanTimeout)
	engineCfg := ocr.Config{
		Script:       Cfg.OCR.WorkerScript,
		Lang:         Cfg.OCR.Lang,
		BottomRatio:  Cfg.OCR.BottomRatio,
		DetThreshold: Cfg.OCR.DetThreshold,
		RecThreshold: Cfg.OCR.RecThreshold,
		ReadTimeout:  workerTimeout,
	}

	taskChan := make(chan types.FrameTask, opts.NumEngines)
	resultsChan := make(chan scanResult, opts.NumEngines*2)
	errChan := make(chan error, opts.NumEngines+2)
	readyChan := make(chan bool, opts.NumEngines)
	var wg sync.WaitGroup

	for i := 0; i < opts.NumEngines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			startEngine(ctx, id, engineCfg, taskChan, resultsChan, errChan, readyChan)
		}(i)
	}

	// Wait for engines to be ready (PaddleOCR model load takes a while)
	fmt.Fprintln(os.Stderr, "🚀 Warming up engines...")
	for i := 0; i < opts.NumEngines; i++ {
		select {
		case <-readyChan:
		case err := <-errChan:
			return "", err
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	decoder := video.NewMJPEGDecoder(ctx, opts.InputPath)
	decoderOut, err := decoder.StdoutPipe()
	if err != nil {
		utils.ShowError("Failed to create FFmpeg stdout pipe", err, nil)
		return "", err
	}
	defer decoderOut.Close() // Ensure pipe is closed to prevent leaks/zombies

	if err := decoder.Start(); err != nil {
		utils.ShowError("Failed to start FFmpeg", err, nil)
		return "", err
	}

	barTotal := meta.FrameCount
	if barTotal <= 0 {
		barTotal = -1 // Trigger spinner mode
	}
	bar := progressbar.NewOptions(barTotal,
		progressbar.OptionSetDescription("🔍 Scanning"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	// Aggregator (Consumer). Must run concurrently to prevent deadlock on resultsChan.
	stats := &pipeline.Stats{}
	var segments []*types.Segment
	aggDone := make(chan struct{})
	go func() {
		segments = aggregateResults(resultsChan, stats)
		close(aggDone)
	}()

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	// Frame splitter + stride sampling (Producer)
	scanner := bufio.NewScanner(decoderOut)
	scanner.Buffer(make([]byte, megabyte), 64*megabyte)
	scanner.Split(video.SplitJpeg)

	frameIndex := 0
	sampleIndex := 0
	for scanner.Scan() {
		bar.Add(1)

		if frameIndex%stride == 0 {
			// Get buffer from pool
			buf := frameBufferPool.Get().([]byte)
			if cap(buf) < len(scanner.Bytes()) {
				buf = make([]byte, len(scanner.Bytes()))
			}
			buf = buf[:len(scanner.Bytes())]
			copy(buf, scanner.Bytes())

			select {
			case taskChan <- types.FrameTask{Index: sampleIndex, Data: buf}:
				sampleIndex++
			case err := <-errChan:
				close(taskChan)
				return "", err
			case <-ctx.Done():
				close(taskChan)
				return "", ctx.Err()
			}
		}
		frameIndex++
	}
	close(taskChan)

	// Check for scanner errors (e.g. token too long, unexpected EOF)
	if err := scanner.Err(); err != nil {
		utils.ShowError("Frame scanner failed", err, nil)
		return "", err
	}
	if err := decoder.Wait(); err != nil {
		utils.ShowError("FFmpeg execution failed", err, decoder)
		return "", err
	}

	<-aggDone
	bar.Finish()

	select {
	case err := <-errChan:
		return "", err
	default:
	}

	stats.FramesScanned = frameIndex
	stats.FramesSampled = sampleIndex
	stats.SegmentsFound = len(segments)

	// Persist results for the translate and render stages
	allDetections := collectDetections(segments)
	if err := DB.InsertDetections(ctx, videoID, allDetections); err != nil {
		utils.ShowError("Failed to persist detections", err, nil)
		return "", err
	}
	segVals := make([]types.Segment, len(segments))
	for i, seg := range segments {
		segVals[i] = *seg
	}
	if err := DB.InsertSegments(ctx, videoID, segVals); err != nil {
		utils.ShowError("Failed to persist segments", err, nil)
		return "", err
	}

	printScanSummary(meta, stride, stats, segments)
	return videoID, nil
}

// startEngine manages the lifecycle of a single OCR engine process. It
// reads tasks from the channel, sends them to Python, and forwards the
// detections to the aggregator.
func startEngine(ctx context.Context, id int, cfg ocr.Config, tasks <-chan types.FrameTask, results chan<- scanResult, errChan chan<- error, ready chan<- bool) {
	engine, err := ocr.NewEngine(ctx, id, cfg)
	if err != nil {
		utils.ShowError("Engine startup failed", err, nil)
		select {
		case errChan <- err:
		default:
		}
		return
	}
	defer engine.Close()
	ready <- true

	for task := range tasks {
		detections, err := engine.ProcessFrame(task.Data)

		// Return buffer to pool immediately after sending
		frameBufferPool.Put(task.Data)

		if err != nil {
			// A frame-level OCR failure is recoverable: report it and keep
			// the aggregator's ordering intact with an empty result.
			fmt.Fprintf(os.Stderr, "\n⚠️ Engine %d failed on frame %d: %v\n", id, task.Index, err)
			detections = nil
		}
		for i := range detections {
			detections[i].FrameIndex = task.Index
		}

		select {
		case results <- scanResult{SampleIndex: task.Index, Detections: detections, Err: err}:
		case <-ctx.Done():
			return
		}
	}
}

// aggregateResults consumes engine output, re-orders it (engine 2 might
// finish before engine 1) and feeds the tracker in strict frame order.
func aggregateResults(results <-chan scanResult, stats *pipeline.Stats) []*types.Segment {
	buffer := make(map[int]scanResult)
	nextFrame := 0

	tracker := track.New(track.Config{
		IoUThreshold:     Cfg.Tracker.IoUThreshold,
		RedetectInterval: Cfg.Tracker.RedetectInterval,
		SmoothingWindow:  Cfg.Tracker.SmoothingWindow,
		MinConfidence:    Cfg.OCR.MinConfidence,
	})

	for res := range results {
		buffer[res.SampleIndex] = res

		// Process frames in strict order
		for {
			frame, ok := buffer[nextFrame]
			if !ok {
				break
			}
			delete(buffer, nextFrame)

			if frame.Err != nil {
				stats.DetectionErrors++
			}
			tracker.Observe(frame.SampleIndex, frame.Detections)
			nextFrame++
		}
	}
	tracker.Flush()

	return segment.Group(tracker.Closed(), segment.GroupConfig{
		SimilarityThreshold: Cfg.Grouper.SimilarityThreshold,
		MinDurationFrames:   Cfg.Grouper.MinDurationFrames,
		MaxGapFrames:        Cfg.Grouper.MaxGapFrames,
	})
}

// collectDetections flattens segment members back into raw detections for
// persistence. Confidence is not carried on observations, so stored
// detections reflect what survived tracking, not the raw OCR stream.
func collectDetections(segments []*types.Segment) []types.Detection {
	var out []types.Detection
	for _, seg := range segments {
		for _, m := range seg.Members {
			out = append(out, types.Detection{
				FrameIndex: m.FrameIndex,
				Text:       m.Text,
				Box:        m.Box,
				Confidence: 1,
			})
		}
	}
	return out
}

func printScanSummary(meta video.Metadata, stride int, stats *pipeline.Stats, segments []*types.Segment) {
	fmt.Fprintf(os.Stderr, "\n🏁 Scan Complete. Sampled %d of %d frames.\n", stats.FramesSampled, stats.FramesScanned)
	if stats.DetectionErrors > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  %d frames failed OCR and were treated as empty.\n", stats.DetectionErrors)
	}

	fps := meta.FPS
	if fps <= 0 {
		fps = 25 // timestamps are cosmetic here, a wrong guess beats a panic
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"#", "Start", "End", "Text"})
	for i, seg := range segments {
		first, last := pipeline.FrameSpan(seg, stride, meta.FrameCount)
		t.AppendRow(table.Row{
			i + 1,
			fmtTime(float64(first) / fps),
			fmtTime(float64(last) / fps),
			truncateText(seg.Text, 50),
		})
	}
	t.Render()
}

func truncateText(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// validateScanFlags ensures all CLI arguments are valid before starting heavy processes.
func validateScanFlags(opts *Options) error {
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", opts.InputPath)
		}
		return fmt.Errorf("unable to access input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a video file")
	}
	if opts.SampleStride < 0 {
		return fmt.Errorf("stride must be >= 1, got %d", opts.SampleStride)
	}
	if opts.NumEngines < 1 {
		opts.NumEngines = 1
	}
	if _, err := time.ParseDuration(scanTimeout); err != nil {
		return fmt.Errorf("invalid worker-timeout format (use '60s', '500ms'): %w", err)
	}
	return nil
}

func fmtTime(seconds float64) string {
	duration := time.Duration(seconds * float64(time.Second))
	h := int(duration.Hours())
	m := int(duration.Minutes()) % 60
	s := int(duration.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
