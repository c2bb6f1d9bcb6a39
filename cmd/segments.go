package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/language"
	"github.com/yuchdev/subswap/internal/pipeline"
	"github.com/yuchdev/subswap/internal/utils"
)

var segmentsOpts Options

var segmentsCmd = &cobra.Command{
	Use:   "segments",
	Short: "List the detected subtitle segments of a scanned video",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSegments(cmd.Context(), segmentsOpts)
	},
}

func init() {
	segmentsCmd.Flags().StringVarP(&segmentsOpts.InputPath, "input", "i", "", "Path to video (must be scanned first)")
	segmentsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(segmentsCmd)
}

func runSegments(ctx context.Context, opts Options) error {
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
	if len(segments) == 0 {
		fmt.Println("No subtitle segments found.")
		return nil
	}

	fps := info.FPS
	if fps <= 0 {
		fps = 25
	}

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"#", "Start", "End", "Lang", "Box", "Text", "Translated"})
	for i, seg := range segments {
		first, last := pipeline.FrameSpan(&segments[i], info.SampleStride, info.FrameCount)
		t.AppendRow(table.Row{
			i + 1,
			fmtTime(float64(first) / fps),
			fmtTime(float64(last) / fps),
			language.Name(seg.SourceLang),
			fmt.Sprintf("%dx%d@%d,%d", seg.Box.W, seg.Box.H, seg.Box.X, seg.Box.Y),
			truncateText(seg.Text, 35),
			truncateText(seg.Translated, 35),
		})
	}
	t.Render()

	fmt.Printf("Video %s: %d segments over %d frames.\n", videoID[:12], len(segments), info.FrameCount)
	return nil
}
