package cmd

import (
	"github.com/spf13/cobra"
)

var runCmdOpts Options

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scan, translate and render in one pass",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		ctx := cmd.Context()

		if _, err := runScan(ctx, Options{
			InputPath:    runCmdOpts.InputPath,
			NumEngines:   runCmdOpts.NumEngines,
			SampleStride: runCmdOpts.SampleStride,
		}); err != nil {
			return err
		}
		if err := runTranslate(ctx, Options{
			InputPath:  runCmdOpts.InputPath,
			SourceLang: runCmdOpts.SourceLang,
			TargetLang: runCmdOpts.TargetLang,
			Backend:    runCmdOpts.Backend,
		}); err != nil {
			return err
		}
		return runRender(ctx, Options{
			InputPath:  runCmdOpts.InputPath,
			OutputPath: runCmdOpts.OutputPath,
			RenderMode: runCmdOpts.RenderMode,
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&runCmdOpts.InputPath, "input", "i", "", "Path to input video")
	runCmd.Flags().StringVarP(&runCmdOpts.OutputPath, "output", "o", "translated.mp4", "Path to output video")
	runCmd.Flags().IntVarP(&runCmdOpts.NumEngines, "engines", "e", 1, "Number of parallel OCR engines")
	runCmd.Flags().IntVarP(&runCmdOpts.SampleStride, "stride", "n", 0, "OCR keyframe interval (0 = use config value)")
	runCmd.Flags().StringVarP(&runCmdOpts.SourceLang, "source", "s", "", "Source language code (empty = auto-detect)")
	runCmd.Flags().StringVarP(&runCmdOpts.TargetLang, "target", "t", "", "Target language code (empty = use config value)")
	runCmd.Flags().StringVarP(&runCmdOpts.Backend, "backend", "b", "", "Translation backend: google, mock")
	runCmd.Flags().StringVarP(&runCmdOpts.RenderMode, "mode", "m", "", "Render mode: overlay, inpaint")

	runCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(runCmd)
}
