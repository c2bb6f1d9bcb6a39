package cmd

import (
	"context"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/config"
	"github.com/yuchdev/subswap/internal/pipeline"
	"github.com/yuchdev/subswap/internal/render"
	"github.com/yuchdev/subswap/internal/types"
	"github.com/yuchdev/subswap/internal/utils"
	"github.com/yuchdev/subswap/internal/video"
)

var renderOpts Options

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-encode a video with translated subtitles in place of the originals",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runRender(cmd.Context(), renderOpts)
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOpts.InputPath, "input", "i", "", "Path to input video (must be scanned and translated first)")
	renderCmd.Flags().StringVarP(&renderOpts.OutputPath, "output", "o", "translated.mp4", "Path to output video")
	renderCmd.Flags().StringVarP(&renderOpts.RenderMode, "mode", "m", "", "Render mode: overlay, inpaint (empty = use config value)")

	renderCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(renderCmd)
}

func runRender(ctx context.Context, opts Options) error {
	// Create a cancellable context to ensure the FFmpeg pair is killed
	// immediately if this function returns early (e.g. on error).
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Safety Check: Prevent overwriting input file which causes corruption
	inAbs, _ := filepath.Abs(opts.InputPath)
	outAbs, _ := filepath.Abs(opts.OutputPath)
	if inAbs == outAbs {
		return fmt.Errorf("input and output paths must be different to prevent file corruption")
	}
	if err := video.CheckFFmpeg(); err != nil {
		return err
	}

	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate video ID", err, nil)
		return err
	}
	info, err := DB.GetVideoMetadata(ctx, videoID)
	if err != nil {
		return fmt.Errorf("run `subswap scan -i %s` first: %w", opts.InputPath, err)
	}
	segments, err := DB.ListSegments(ctx, videoID)
	if err != nil {
		utils.ShowError("Failed to load segments", err, nil)
		return err
	}

	mode := opts.RenderMode
	if mode == "" {
		mode = Cfg.Render.Mode
	}
	if mode != render.ModeOverlay && mode != render.ModeInpaint {
		return fmt.Errorf("render mode must be %q or %q, got %q", render.ModeOverlay, render.ModeInpaint, mode)
	}

	face, err := render.LoadFace(Cfg.Render.FontPaths, float64(Cfg.Render.FontSize))
	if err != nil {
		utils.ShowError("Failed to load a subtitle font", err, nil)
		return err
	}
	textColor, err := config.ParseHexColor(Cfg.Render.TextColor)
	if err != nil {
		return err
	}
	renderer := render.New(render.Config{
		Mode:          mode,
		Face:          face,
		TextColor:     textColor,
		Padding:       Cfg.Render.Padding,
		CornerRadius:  Cfg.Render.CornerRadius,
		Opacity:       Cfg.Render.Opacity,
		Outline:       Cfg.Render.Outline,
		MaxLineLength: Cfg.Render.MaxLineLength,
	})

	renderable := make([]*types.Segment, 0, len(segments))
	skipped := 0
	for i := range segments {
		if Cfg.Render.SkipUntranslated && segments[i].Translated == "" {
			skipped++
			continue
		}
		renderable = append(renderable, &segments[i])
	}
	if skipped > 0 {
		fmt.Fprintf(os.Stderr, "⚠️  Skipping %d untranslated segments.\n", skipped)
	}
	coverage := pipeline.NewCoverage(renderable, info.SampleStride, info.FrameCount)

	meta := video.Metadata{FPS: info.FPS, Width: info.Width, Height: info.Height, FrameCount: info.FrameCount}

	decoder := video.NewRawDecoder(ctx, opts.InputPath)
	decoderOut, err := decoder.StdoutPipe()
	if err != nil {
		utils.ShowError("Failed to create decoder pipe", err, nil)
		return err
	}
	if err := decoder.Start(); err != nil {
		utils.ShowError("Failed to start decoder", err, nil)
		return err
	}

	encoder := video.NewRawEncoder(ctx, opts.OutputPath, opts.InputPath, meta, Cfg.Video.Codec)
	encoderIn, err := encoder.StdinPipe()
	if err != nil {
		utils.ShowError("Failed to create encoder pipe", err, nil)
		return err
	}
	if err := encoder.Start(); err != nil {
		utils.ShowError("Failed to start encoder", err, nil)
		return err
	}

	barTotal := info.FrameCount
	if barTotal <= 0 {
		barTotal = -1 // Trigger spinner mode
	}
	bar := progressbar.NewOptions(barTotal,
		progressbar.OptionSetDescription("🎬 Rendering"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
	)

	frameSize := info.Width * info.Height * 4
	buf := make([]byte, frameSize)
	frameIndex := 0
	rendered := 0

	for {
		if _, err := io.ReadFull(decoderOut, buf); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			utils.ShowError("Decoder read failed", err, decoder)
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if covering := coverage.At(frameIndex); len(covering) > 0 {
			// Zero-Copy: Wrap the raw bytes in an image.RGBA struct
			m := &image.RGBA{
				Pix:    buf,
				Stride: info.Width * 4,
				Rect:   image.Rect(0, 0, info.Width, info.Height),
			}
			for _, seg := range covering {
				if err := renderer.Apply(m, seg.Box, seg.RenderText()); err != nil {
					utils.ShowError(fmt.Sprintf("Render failed on frame %d", frameIndex), err, nil)
					return err
				}
			}
			rendered++
		}

		if _, err := encoderIn.Write(buf); err != nil {
			utils.ShowError("Encoder write failed", err, encoder)
			return err
		}
		bar.Add(1)
		frameIndex++
	}

	encoderIn.Close()
	if err := encoder.Wait(); err != nil {
		utils.ShowError("Encoder process failed", err, encoder)
		return err
	}
	if err := decoder.Wait(); err != nil {
		utils.ShowError("Decoder process failed", err, decoder)
		return err
	}
	bar.Finish()

	fmt.Fprintf(os.Stderr, "\n🏁 Render Complete. Modified %d of %d frames -> %s\n",
		rendered, frameIndex, opts.OutputPath)
	return nil
}
