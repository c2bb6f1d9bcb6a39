package render

import (
	"image"
	"image/color"
	"reflect"
	"testing"

	"golang.org/x/image/font/basicfont"

	"github.com/yuchdev/subswap/internal/types"
)

func TestWrapText(t *testing.T) {
	cases := []struct {
		text   string
		maxLen int
		want   []string
	}{
		{"hello world", 20, []string{"hello world"}},
		{"hello world", 5, []string{"hello", "world"}},
		{"a b c d", 3, []string{"a b", "c d"}},
		{"supercalifragilistic", 5, []string{"supercalifragilistic"}},
		{"  spaced   out  ", 10, []string{"spaced out"}},
		{"", 10, nil},
		{"no wrapping here", 0, []string{"no wrapping here"}},
	}

	for _, c := range cases {
		got := WrapText(c.text, c.maxLen)
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("WrapText(%q, %d) = %v, want %v", c.text, c.maxLen, got, c.want)
		}
	}
}

// solidFrame builds a uniform RGBA frame for pixel assertions.
func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
	}
	return img
}

func TestBorderMean(t *testing.T) {
	// Gray frame with a white region in the middle. The ring around the
	// region is gray, so the mean must come back gray regardless of the
	// region contents.
	gray := color.RGBA{100, 100, 100, 255}
	img := solidFrame(40, 40, gray)
	rect := image.Rect(10, 10, 30, 30)
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	got := borderMean(img, rect)
	if got != gray {
		t.Errorf("Expected border mean %v, got %v", gray, got)
	}
}

func TestOverlayClearsRegion(t *testing.T) {
	// Black background with a white "subtitle" block. Overlay at full
	// opacity should repaint the block with the sampled background color.
	img := solidFrame(60, 40, color.RGBA{0, 0, 0, 255})
	box := types.Box{X: 15, Y: 10, W: 30, H: 20}
	for y := box.Y; y < box.Y+box.H; y++ {
		for x := box.X; x < box.X+box.W; x++ {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	r := New(Config{
		Mode:      ModeOverlay,
		Face:      basicfont.Face7x13,
		TextColor: color.RGBA{255, 255, 255, 255},
		Opacity:   1.0,
	})
	if err := r.Apply(img, box, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Center of the old subtitle must no longer be white.
	center := img.RGBAAt(box.X+box.W/2, box.Y+box.H/2)
	if center.R > 20 || center.G > 20 || center.B > 20 {
		t.Errorf("Subtitle region not cleared, center pixel = %v", center)
	}
}

func TestOverlayDrawsText(t *testing.T) {
	img := solidFrame(200, 80, color.RGBA{0, 0, 0, 255})
	box := types.Box{X: 20, Y: 20, W: 160, H: 40}

	r := New(Config{
		Mode:      ModeOverlay,
		Face:      basicfont.Face7x13,
		TextColor: color.RGBA{255, 255, 255, 255},
		Opacity:   1.0,
	})
	if err := r.Apply(img, box, "HELLO"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Some pixel inside the box must now match the text color.
	found := false
	for y := box.Y; y < box.Y+box.H && !found; y++ {
		for x := box.X; x < box.X+box.W; x++ {
			if img.RGBAAt(x, y) == (color.RGBA{255, 255, 255, 255}) {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("No text pixels found inside the subtitle box")
	}
}

func TestOverlayOpacityBlends(t *testing.T) {
	img := solidFrame(40, 40, color.RGBA{0, 0, 0, 255})
	box := types.Box{X: 10, Y: 10, W: 20, H: 20}
	for y := box.Y; y < box.Y+box.H; y++ {
		for x := box.X; x < box.X+box.W; x++ {
			img.SetRGBA(x, y, color.RGBA{200, 200, 200, 255})
		}
	}

	r := New(Config{Mode: ModeOverlay, Face: basicfont.Face7x13, Opacity: 0.5})
	if err := r.Apply(img, box, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	// Half-blend of 200 toward the black background mean: about 100.
	center := img.RGBAAt(20, 20)
	if center.R < 90 || center.R > 110 {
		t.Errorf("Expected half-blended pixel near 100, got %v", center)
	}
}

func TestInpaintSmoothBackground(t *testing.T) {
	// Uniform blue frame with white text pixels scattered in the box.
	// Inpainting must restore the region to (near) uniform blue.
	blue := color.RGBA{10, 20, 180, 255}
	img := solidFrame(50, 50, blue)
	rect := image.Rect(15, 15, 35, 35)
	for y := rect.Min.Y; y < rect.Max.Y; y += 2 {
		for x := rect.Min.X; x < rect.Max.X; x += 3 {
			img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
		}
	}

	if err := inpaint(img, rect); err != nil {
		t.Fatalf("inpaint failed: %v", err)
	}

	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			p := img.RGBAAt(x, y)
			if p != blue {
				t.Fatalf("Pixel (%d,%d) = %v, want %v", x, y, p, blue)
			}
		}
	}
}

func TestInpaintWholeFrameFails(t *testing.T) {
	img := solidFrame(20, 20, color.RGBA{50, 50, 50, 255})
	if err := inpaint(img, img.Bounds()); err == nil {
		t.Error("Expected error inpainting a region with no surrounding pixels")
	}
}

func TestApplyInpaintFallsBackOnDegenerateBox(t *testing.T) {
	img := solidFrame(20, 20, color.RGBA{255, 0, 0, 255})
	r := New(Config{Mode: ModeInpaint, Face: basicfont.Face7x13, Opacity: 1.0})

	// Box covering the whole frame cannot be inpainted; Apply must still
	// succeed via the overlay fallback.
	if err := r.Apply(img, types.Box{X: 0, Y: 0, W: 20, H: 20}, ""); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
}

func TestApplyRejectsOffscreenBox(t *testing.T) {
	img := solidFrame(20, 20, color.RGBA{0, 0, 0, 255})
	r := New(Config{Mode: ModeOverlay, Face: basicfont.Face7x13, Opacity: 1.0})

	if err := r.Apply(img, types.Box{X: 500, Y: 500, W: 10, H: 10}, "hi"); err == nil {
		t.Error("Expected error for a box outside the frame")
	}
}
