package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/artifact"
	"github.com/yuchdev/subswap/internal/utils"
)

var (
	exportOpts   Options
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a video's scan results to a portable JSON artifact",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runExport(cmd.Context(), exportOpts)
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportOpts.InputPath, "input", "i", "", "Path to video (must be scanned first)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "scan.json", "Path to output artifact")

	exportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(exportCmd)
}

func runExport(ctx context.Context, opts Options) error {
	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate video ID", err, nil)
		return err
	}
	info, err := DB.GetVideoMetadata(ctx, videoID)
	if err != nil {
		return fmt.Errorf("run `subswap scan -i %s` first: %w", opts.InputPath, err)
	}
	detections, err := DB.ListDetections(ctx, videoID)
	if err != nil {
		utils.ShowError("Failed to load detections", err, nil)
		return err
	}
	segments, err := DB.ListSegments(ctx, videoID)
	if err != nil {
		utils.ShowError("Failed to load segments", err, nil)
		return err
	}

	a := &artifact.Artifact{Video: info, Detections: detections, Segments: segments}
	if err := artifact.Save(exportOutput, a); err != nil {
		utils.ShowError("Failed to write artifact", err, nil)
		return err
	}

	fmt.Printf("📦 Exported %d segments and %d detections to %s\n", len(segments), len(detections), exportOutput)
	return nil
}
