package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/yuchdev/subswap/internal/language"
	"github.com/yuchdev/subswap/internal/pipeline"
	"github.com/yuchdev/subswap/internal/translate"
	"github.com/yuchdev/subswap/internal/types"
	"github.com/yuchdev/subswap/internal/utils"
)

var translateOpts Options

var translateCmd = &cobra.Command{
	Use:   "translate",
	Short: "Translate the subtitle segments of a scanned video",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runTranslate(cmd.Context(), translateOpts)
	},
}

func init() {
	translateCmd.Flags().StringVarP(&translateOpts.InputPath, "input", "i", "", "Path to video (must be scanned first)")
	translateCmd.Flags().StringVarP(&translateOpts.SourceLang, "source", "s", "", "Source language code (empty = auto-detect)")
	translateCmd.Flags().StringVarP(&translateOpts.TargetLang, "target", "t", "", "Target language code (empty = use config value)")
	translateCmd.Flags().StringVarP(&translateOpts.Backend, "backend", "b", "", "Translation backend: google, mock (empty = use config value)")

	translateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(translateCmd)
}

// newBackend builds the configured translation backend.
func newBackend(name string) (translate.Backend, error) {
	switch name {
	case "google", "":
		timeout := time.Duration(Cfg.Translator.TimeoutSeconds) * time.Second
		return translate.NewGoogleBackend(Cfg.Translator.Endpoint, timeout), nil
	case "mock":
		return translate.MockBackend{}, nil
	default:
		return nil, fmt.Errorf("unknown translation backend %q (expected google or mock)", name)
	}
}

func runTranslate(ctx context.Context, opts Options) error {
	videoID, err := utils.GenerateVideoID(opts.InputPath)
	if err != nil {
		utils.ShowError("Failed to generate video ID", err, nil)
		return err
	}

	if _, err := DB.GetVideoMetadata(ctx, videoID); err != nil {
		return fmt.Errorf("run `subswap scan -i %s` first: %w", opts.InputPath, err)
	}

	segVals, err := DB.ListSegments(ctx, videoID)
	if err != nil {
		utils.ShowError("Failed to load segments", err, nil)
		return err
	}
	if len(segVals) == 0 {
		fmt.Fprintln(os.Stderr, "No subtitle segments found. Nothing to translate.")
		return nil
	}

	backendName := opts.Backend
	if backendName == "" {
		backendName = Cfg.Translator.Backend
	}
	backend, err := newBackend(backendName)
	if err != nil {
		return err
	}

	sourceLang := opts.SourceLang
	if sourceLang == "" {
		sourceLang = Cfg.SourceLang
	}
	targetLang := opts.TargetLang
	if targetLang == "" {
		targetLang = Cfg.TargetLang
	}

	segments := make([]*types.Segment, len(segVals))
	for i := range segVals {
		segments[i] = &segVals[i]
	}

	fmt.Fprintf(os.Stderr, "🌐 Translating %d segments to %s via %s...\n",
		len(segments), language.Name(targetLang), backendName)

	stats := &pipeline.Stats{}
	detector := language.ScriptDetector{Fallback: Cfg.FallbackLang}
	if err := pipeline.TranslateSegments(ctx, segments, translate.New(backend), detector, sourceLang, targetLang, stats); err != nil {
		return err
	}

	for _, seg := range segments {
		if seg.Translated == "" {
			continue
		}
		if err := DB.UpdateSegmentTranslation(ctx, videoID, *seg); err != nil {
			utils.ShowError("Failed to persist translation", err, nil)
			return err
		}
	}

	printTranslateSummary(segments, stats)
	return nil
}

func printTranslateSummary(segments []*types.Segment, stats *pipeline.Stats) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stderr)
	t.AppendHeader(table.Row{"#", "Lang", "Original", "Translated"})
	for i, seg := range segments {
		t.AppendRow(table.Row{
			i + 1,
			seg.SourceLang,
			truncateText(seg.Text, 35),
			truncateText(seg.RenderText(), 35),
		})
	}
	t.Render()

	fmt.Fprintf(os.Stderr, "🏁 Translation complete: %d done, %d failed, %d skipped.\n",
		stats.SegmentsDone, stats.SegmentsFailed,
		len(segments)-stats.SegmentsDone-stats.SegmentsFailed)
}
