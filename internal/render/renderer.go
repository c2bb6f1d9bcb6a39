package render

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	"github.com/yuchdev/subswap/internal/types"
)

const (
	ModeOverlay = "overlay"
	ModeInpaint = "inpaint"
)

// Config controls how a subtitle region is cleared and redrawn.
type Config struct {
	Mode          string
	Face          font.Face
	TextColor     color.RGBA
	Padding       int // pixels added around the detected box before clearing
	CornerRadius  int
	Opacity       float64 // overlay fill opacity in [0,1]
	Outline       bool    // draw a dark outline behind the text
	MaxLineLength int     // wrap threshold in runes; 0 disables wrapping
}

// Renderer replaces a burned-in subtitle region in a frame: it clears the
// original pixels (overlay fill or inpaint) and draws the replacement text
// centered in the same region.
type Renderer struct {
	cfg Config
}

func New(cfg Config) *Renderer {
	return &Renderer{cfg: cfg}
}

// Apply clears the segment's box in img and draws text over it. The frame
// is modified in place. An empty text still clears the region.
func (r *Renderer) Apply(img *image.RGBA, box types.Box, text string) error {
	rect := box.Pad(r.cfg.Padding).Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return fmt.Errorf("subtitle box %+v lies outside the frame", box)
	}

	switch r.cfg.Mode {
	case ModeInpaint:
		if err := inpaint(img, rect); err != nil {
			// No border pixels to propagate from (box covers the whole
			// frame). Fall back to a flat fill so the run still completes.
			fillRegion(img, rect, borderMean(img, rect), 1.0, 0)
		}
	default:
		fillRegion(img, rect, borderMean(img, rect), r.cfg.Opacity, r.cfg.CornerRadius)
	}

	if text == "" {
		return nil
	}
	return r.drawText(img, rect, text)
}

// borderMean samples the one-pixel ring immediately outside rect and
// returns the average color. This blends the fill into the background.
func borderMean(img *image.RGBA, rect image.Rectangle) color.RGBA {
	var r, g, b, count uint64
	stride := img.Stride
	pix := img.Pix
	imgMinX, imgMinY := img.Rect.Min.X, img.Rect.Min.Y

	// Scan Top & Bottom borders
	for x := rect.Min.X; x < rect.Max.X; x++ {
		if y := rect.Min.Y - 1; y >= img.Bounds().Min.Y { // Top
			off := (y-imgMinY)*stride + (x-imgMinX)*4
			r += uint64(pix[off])
			g += uint64(pix[off+1])
			b += uint64(pix[off+2])
			count++
		}
		if y := rect.Max.Y; y < img.Bounds().Max.Y { // Bottom
			off := (y-imgMinY)*stride + (x-imgMinX)*4
			r += uint64(pix[off])
			g += uint64(pix[off+1])
			b += uint64(pix[off+2])
			count++
		}
	}
	// Scan Left & Right borders
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		if x := rect.Min.X - 1; x >= img.Bounds().Min.X { // Left
			off := (y-imgMinY)*stride + (x-imgMinX)*4
			r += uint64(pix[off])
			g += uint64(pix[off+1])
			b += uint64(pix[off+2])
			count++
		}
		if x := rect.Max.X; x < img.Bounds().Max.X { // Right
			off := (y-imgMinY)*stride + (x-imgMinX)*4
			r += uint64(pix[off])
			g += uint64(pix[off+1])
			b += uint64(pix[off+2])
			count++
		}
	}

	if count == 0 {
		return color.RGBA{A: 255}
	}
	return color.RGBA{R: uint8(r / count), G: uint8(g / count), B: uint8(b / count), A: 255}
}

// fillRegion paints rect with fill, blended against the existing pixels at
// the given opacity. A non-zero radius rounds the corners by skipping
// pixels outside the corner circles.
func fillRegion(img *image.RGBA, rect image.Rectangle, fill color.RGBA, opacity float64, radius int) {
	if opacity <= 0 {
		return
	}
	if opacity > 1 {
		opacity = 1
	}
	maxRadius := rect.Dx() / 2
	if rect.Dy()/2 < maxRadius {
		maxRadius = rect.Dy() / 2
	}
	if radius > maxRadius {
		radius = maxRadius
	}

	stride := img.Stride
	pix := img.Pix
	imgMinX, imgMinY := img.Rect.Min.X, img.Rect.Min.Y

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			if radius > 0 && outsideCorner(x, y, rect, radius) {
				continue
			}
			off := (y-imgMinY)*stride + (x-imgMinX)*4
			pix[off] = blend(pix[off], fill.R, opacity)
			pix[off+1] = blend(pix[off+1], fill.G, opacity)
			pix[off+2] = blend(pix[off+2], fill.B, opacity)
			pix[off+3] = 255
		}
	}
}

func blend(dst, src uint8, alpha float64) uint8 {
	return uint8(float64(dst)*(1-alpha) + float64(src)*alpha + 0.5)
}

// outsideCorner reports whether (x, y) falls outside the quarter-circle of
// the nearest rounded corner.
func outsideCorner(x, y int, rect image.Rectangle, radius int) bool {
	cx, cy := -1, -1
	if x < rect.Min.X+radius {
		cx = rect.Min.X + radius - 1
	} else if x >= rect.Max.X-radius {
		cx = rect.Max.X - radius
	}
	if y < rect.Min.Y+radius {
		cy = rect.Min.Y + radius - 1
	} else if y >= rect.Max.Y-radius {
		cy = rect.Max.Y - radius
	}
	if cx == -1 || cy == -1 {
		return false
	}
	dx, dy := x-cx, y-cy
	return dx*dx+dy*dy > radius*radius
}

// drawText word-wraps text and draws it centered inside rect.
func (r *Renderer) drawText(img *image.RGBA, rect image.Rectangle, text string) error {
	if r.cfg.Face == nil {
		return fmt.Errorf("renderer has no font face")
	}
	lines := WrapText(text, r.cfg.MaxLineLength)
	if len(lines) == 0 {
		return nil
	}

	metrics := r.cfg.Face.Metrics()
	lineHeight := metrics.Height.Ceil()
	ascent := metrics.Ascent.Ceil()
	totalHeight := lineHeight * len(lines)

	startY := rect.Min.Y + (rect.Dy()-totalHeight)/2 + ascent
	drawer := &font.Drawer{Dst: img, Face: r.cfg.Face}

	for i, line := range lines {
		width := drawer.MeasureString(line).Ceil()
		x := rect.Min.X + (rect.Dx()-width)/2
		y := startY + i*lineHeight

		if r.cfg.Outline {
			drawer.Src = image.NewUniform(color.RGBA{A: 255})
			for _, d := range [][2]int{{-1, -1}, {0, -1}, {1, -1}, {-1, 0}, {1, 0}, {-1, 1}, {0, 1}, {1, 1}} {
				drawer.Dot = fixed.P(x+d[0], y+d[1])
				drawer.DrawString(line)
			}
		}
		drawer.Src = image.NewUniform(r.cfg.TextColor)
		drawer.Dot = fixed.P(x, y)
		drawer.DrawString(line)
	}
	return nil
}
