// Package config holds the fully enumerated pipeline configuration, loaded
// from YAML and validated before any frame is touched.
package config

import (
	"fmt"
	"os"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Render modes accepted by the renderer.
const (
	ModeOverlay = "overlay"
	ModeInpaint = "inpaint"
)

// Translator backends accepted by the translate stage.
const (
	BackendGoogle = "google"
	BackendMock   = "mock"
)

// Config is the complete pipeline configuration. Every recognized option is
// a named field; nothing is accessed by untyped key lookup.
type Config struct {
	// Languages
	SourceLang   string `yaml:"source_lang"`   // empty = auto-detect
	TargetLang   string `yaml:"target_lang"`
	FallbackLang string `yaml:"fallback_lang"` // used when detection is inconclusive

	OCR struct {
		WorkerScript  string  `yaml:"worker_script"`
		Lang          string  `yaml:"lang"`
		SampleStride  int     `yaml:"sample_stride"`  // OCR every Nth frame
		BottomRatio   float64 `yaml:"bottom_ratio"`   // fraction of frame height scanned for subtitles
		DetThreshold  float64 `yaml:"det_threshold"`
		RecThreshold  float64 `yaml:"rec_threshold"`
		MinConfidence float64 `yaml:"min_confidence"` // floor below which detections are discarded
	} `yaml:"ocr"`

	Tracker struct {
		IoUThreshold     float64 `yaml:"iou_threshold"`
		RedetectInterval int     `yaml:"redetect_interval"` // max sampled-frame gap before a track closes
		SmoothingWindow  int     `yaml:"smoothing_window"`  // boxes averaged into the smoothed box
	} `yaml:"tracker"`

	Grouper struct {
		SimilarityThreshold float64 `yaml:"similarity_threshold"`
		MinDurationFrames   int     `yaml:"min_duration_frames"`
		MaxGapFrames        int     `yaml:"max_gap_frames"`
	} `yaml:"grouper"`

	Render struct {
		Mode             string   `yaml:"mode"` // overlay | inpaint
		FontPaths        []string `yaml:"font_paths"`
		FontSize         int      `yaml:"font_size"`
		TextColor        string   `yaml:"text_color"` // #rrggbb
		Padding          int      `yaml:"padding"`
		CornerRadius     int      `yaml:"corner_radius"`
		Opacity          float64  `yaml:"opacity"`
		Outline          bool     `yaml:"outline"`
		MaxLineLength    int      `yaml:"max_line_length"`
		SkipUntranslated bool     `yaml:"skip_untranslated"`
	} `yaml:"render"`

	Video struct {
		Codec string `yaml:"codec"`
	} `yaml:"video"`

	Translator struct {
		Backend        string `yaml:"backend"` // google | mock
		Endpoint       string `yaml:"endpoint"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"translator"`
}

// Default returns the configuration used when no YAML file is present.
func Default() *Config {
	c := &Config{}

	c.TargetLang = "en"
	c.FallbackLang = "en"

	c.OCR.WorkerScript = "python/ocr_worker.py"
	c.OCR.Lang = "en"
	c.OCR.SampleStride = 5
	c.OCR.BottomRatio = 0.3
	c.OCR.DetThreshold = 0.3
	c.OCR.RecThreshold = 0.5
	c.OCR.MinConfidence = 0.5

	c.Tracker.IoUThreshold = 0.4
	c.Tracker.RedetectInterval = 2
	c.Tracker.SmoothingWindow = 5

	c.Grouper.SimilarityThreshold = 0.8
	c.Grouper.MinDurationFrames = 3
	c.Grouper.MaxGapFrames = 2

	c.Render.Mode = ModeOverlay
	c.Render.FontPaths = []string{
		"/usr/share/fonts/truetype/dejavu/DejaVuSans.ttf",
		"/usr/share/fonts/TTF/DejaVuSans.ttf",
		"/System/Library/Fonts/Supplemental/Arial.ttf",
	}
	c.Render.FontSize = 32
	c.Render.TextColor = "#ffffff"
	c.Render.Padding = 10
	c.Render.CornerRadius = 0
	c.Render.Opacity = 1.0
	c.Render.MaxLineLength = 42

	c.Video.Codec = "libx264"

	c.Translator.Backend = BackendGoogle
	c.Translator.TimeoutSeconds = 30

	return c
}

// Load reads the YAML file at path on top of the defaults and validates the
// result. A missing file is not an error: the defaults are returned as-is.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks every threshold before any frame processing starts.
// Any violation here is fatal at startup.
func (c *Config) Validate() error {
	if c.TargetLang == "" {
		return fmt.Errorf("target_lang must be set")
	}
	for _, code := range []string{c.SourceLang, c.TargetLang, c.FallbackLang} {
		if code == "" {
			continue // source_lang empty means auto-detect
		}
		if _, err := language.Parse(code); err != nil {
			return fmt.Errorf("invalid language code %q: %w", code, err)
		}
	}

	if c.OCR.SampleStride < 1 {
		return fmt.Errorf("ocr.sample_stride must be >= 1, got %d", c.OCR.SampleStride)
	}
	if c.OCR.BottomRatio <= 0 || c.OCR.BottomRatio > 1 {
		return fmt.Errorf("ocr.bottom_ratio must be in (0,1], got %f", c.OCR.BottomRatio)
	}
	if c.OCR.MinConfidence < 0 || c.OCR.MinConfidence > 1 {
		return fmt.Errorf("ocr.min_confidence must be in [0,1], got %f", c.OCR.MinConfidence)
	}

	if c.Tracker.IoUThreshold <= 0 || c.Tracker.IoUThreshold > 1 {
		return fmt.Errorf("tracker.iou_threshold must be in (0,1], got %f", c.Tracker.IoUThreshold)
	}
	if c.Tracker.RedetectInterval < 1 {
		return fmt.Errorf("tracker.redetect_interval must be >= 1, got %d", c.Tracker.RedetectInterval)
	}
	if c.Tracker.SmoothingWindow < 1 {
		return fmt.Errorf("tracker.smoothing_window must be >= 1, got %d", c.Tracker.SmoothingWindow)
	}

	if c.Grouper.SimilarityThreshold < 0 || c.Grouper.SimilarityThreshold > 1 {
		return fmt.Errorf("grouper.similarity_threshold must be in [0,1], got %f", c.Grouper.SimilarityThreshold)
	}
	if c.Grouper.MinDurationFrames < 1 {
		return fmt.Errorf("grouper.min_duration_frames must be >= 1, got %d", c.Grouper.MinDurationFrames)
	}
	if c.Grouper.MaxGapFrames < 0 {
		return fmt.Errorf("grouper.max_gap_frames must be >= 0, got %d", c.Grouper.MaxGapFrames)
	}

	if c.Render.Mode != ModeOverlay && c.Render.Mode != ModeInpaint {
		return fmt.Errorf("render.mode must be %q or %q, got %q", ModeOverlay, ModeInpaint, c.Render.Mode)
	}
	if c.Render.FontSize < 1 {
		return fmt.Errorf("render.font_size must be >= 1, got %d", c.Render.FontSize)
	}
	if len(c.Render.FontPaths) == 0 {
		return fmt.Errorf("render.font_paths must list at least one font")
	}
	if _, err := ParseHexColor(c.Render.TextColor); err != nil {
		return fmt.Errorf("render.text_color: %w", err)
	}
	if c.Render.Padding < 0 {
		return fmt.Errorf("render.padding must be >= 0, got %d", c.Render.Padding)
	}
	if c.Render.Opacity < 0 || c.Render.Opacity > 1 {
		return fmt.Errorf("render.opacity must be in [0,1], got %f", c.Render.Opacity)
	}
	if c.Render.MaxLineLength < 1 {
		return fmt.Errorf("render.max_line_length must be >= 1, got %d", c.Render.MaxLineLength)
	}

	if c.Translator.Backend != BackendGoogle && c.Translator.Backend != BackendMock {
		return fmt.Errorf("translator.backend must be %q or %q, got %q", BackendGoogle, BackendMock, c.Translator.Backend)
	}
	if c.Translator.TimeoutSeconds < 1 {
		return fmt.Errorf("translator.timeout_seconds must be >= 1, got %d", c.Translator.TimeoutSeconds)
	}

	return nil
}
