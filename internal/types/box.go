package types

import "image"

// Box is an axis-aligned rectangle in frame pixel coordinates.
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Empty reports whether the box has no area.
func (b Box) Empty() bool {
	return b.W <= 0 || b.H <= 0
}

// Area returns the box area in pixels.
func (b Box) Area() int {
	if b.Empty() {
		return 0
	}
	return b.W * b.H
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// BoxFromRect converts an image.Rectangle back to a Box.
func BoxFromRect(r image.Rectangle) Box {
	return Box{X: r.Min.X, Y: r.Min.Y, W: r.Dx(), H: r.Dy()}
}

// Intersects reports whether the two boxes share any area.
func (b Box) Intersects(o Box) bool {
	return !b.Rect().Intersect(o.Rect()).Empty()
}

// IoU returns the intersection-over-union ratio of the two boxes.
// Returns 0 if either box is empty to avoid division by zero.
func (b Box) IoU(o Box) float64 {
	if b.Empty() || o.Empty() {
		return 0
	}
	inter := b.Rect().Intersect(o.Rect())
	if inter.Empty() {
		return 0
	}
	interArea := inter.Dx() * inter.Dy()
	union := b.Area() + o.Area() - interArea
	return float64(interArea) / float64(union)
}

// Pad grows the box by margin pixels on every side.
func (b Box) Pad(margin int) Box {
	return Box{X: b.X - margin, Y: b.Y - margin, W: b.W + 2*margin, H: b.H + 2*margin}
}

// Clip clamps the box to a width*height frame. The result may be empty.
func (b Box) Clip(width, height int) Box {
	r := b.Rect().Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		return Box{}
	}
	return BoxFromRect(r)
}
