package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/artifact"
	"github.com/yuchdev/subswap/internal/utils"
)

var importInput string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a JSON artifact into the database",
	Long:  "Loads scan results exported on another machine, so translate and render can run without re-scanning the video.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runImport(cmd.Context(), importInput)
	},
}

func init() {
	importCmd.Flags().StringVarP(&importInput, "input", "i", "", "Path to artifact JSON")
	importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}

func runImport(ctx context.Context, path string) error {
	a, err := artifact.Load(path)
	if err != nil {
		utils.ShowError("Failed to load artifact", err, nil)
		return err
	}

	if err := DB.EnsureVideoMetadata(ctx, a.Video); err != nil {
		utils.ShowError("Failed to register video metadata", err, nil)
		return err
	}
	if err := DB.InsertDetections(ctx, a.Video.ID, a.Detections); err != nil {
		utils.ShowError("Failed to import detections", err, nil)
		return err
	}
	if err := DB.InsertSegments(ctx, a.Video.ID, a.Segments); err != nil {
		utils.ShowError("Failed to import segments", err, nil)
		return err
	}

	fmt.Printf("📦 Imported video %s: %d segments, %d detections.\n",
		a.Video.ID[:12], len(a.Segments), len(a.Detections))
	return nil
}
