package render

import (
	"fmt"
	"image"
)

// inpaint reconstructs the pixels inside rect from the surrounding image.
// It works onion-peel style: starting from the known pixels on the ring
// outside rect, each unknown pixel adjacent to known pixels is filled with
// the average of its known 8-neighbors, layer by layer toward the center.
// Coarser than a proper diffusion solve, but it removes text cleanly when
// the background is smooth, which subtitle bands almost always are.
func inpaint(img *image.RGBA, rect image.Rectangle) error {
	bounds := img.Bounds()
	w, h := rect.Dx(), rect.Dy()

	// known marks pixels whose value is trusted. The working grid is rect
	// grown by one pixel so the outer ring seeds the fill.
	grown := rect.Inset(-1).Intersect(bounds)
	gw, gh := grown.Dx(), grown.Dy()
	known := make([]bool, gw*gh)

	idx := func(x, y int) int { return (y-grown.Min.Y)*gw + (x - grown.Min.X) }

	seeds := 0
	for y := grown.Min.Y; y < grown.Max.Y; y++ {
		for x := grown.Min.X; x < grown.Max.X; x++ {
			p := image.Pt(x, y)
			if !p.In(rect) {
				known[idx(x, y)] = true
				seeds++
			}
		}
	}
	if seeds == 0 {
		return fmt.Errorf("inpaint region %dx%d has no surrounding pixels", w, h)
	}

	stride := img.Stride
	pix := img.Pix
	imgMinX, imgMinY := img.Rect.Min.X, img.Rect.Min.Y

	remaining := w * h
	for remaining > 0 {
		filled := 0
		// Collect this layer first so the fill only reads the previous
		// layer, keeping the peel symmetric.
		type fillOp struct {
			x, y    int
			r, g, b uint8
		}
		var layer []fillOp

		for y := rect.Min.Y; y < rect.Max.Y; y++ {
			for x := rect.Min.X; x < rect.Max.X; x++ {
				if known[idx(x, y)] {
					continue
				}
				var rs, gs, bs, count uint32
				for dy := -1; dy <= 1; dy++ {
					for dx := -1; dx <= 1; dx++ {
						if dx == 0 && dy == 0 {
							continue
						}
						nx, ny := x+dx, y+dy
						if !image.Pt(nx, ny).In(grown) || !known[idx(nx, ny)] {
							continue
						}
						off := (ny-imgMinY)*stride + (nx-imgMinX)*4
						rs += uint32(pix[off])
						gs += uint32(pix[off+1])
						bs += uint32(pix[off+2])
						count++
					}
				}
				if count == 0 {
					continue
				}
				layer = append(layer, fillOp{x, y, uint8(rs / count), uint8(gs / count), uint8(bs / count)})
			}
		}

		for _, op := range layer {
			off := (op.y-imgMinY)*stride + (op.x-imgMinX)*4
			pix[off] = op.r
			pix[off+1] = op.g
			pix[off+2] = op.b
			pix[off+3] = 255
			known[idx(op.x, op.y)] = true
			filled++
		}

		if filled == 0 {
			break // nothing reachable, should not happen with seeds > 0
		}
		remaining -= filled
	}
	return nil
}
