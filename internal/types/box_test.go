package types

import (
	"math"
	"testing"
)

func TestIoU(t *testing.T) {
	tests := []struct {
		name string
		a    Box
		b    Box
		want float64
	}{
		{
			name: "Identical boxes",
			a:    Box{X: 0, Y: 0, W: 10, H: 10},
			b:    Box{X: 0, Y: 0, W: 10, H: 10},
			want: 1.0,
		},
		{
			name: "No overlap",
			a:    Box{X: 0, Y: 0, W: 10, H: 10},
			b:    Box{X: 20, Y: 20, W: 10, H: 10},
			want: 0.0,
		},
		{
			name: "Half overlap horizontally",
			a:    Box{X: 0, Y: 0, W: 10, H: 10},
			b:    Box{X: 5, Y: 0, W: 10, H: 10},
			want: 50.0 / 150.0, // intersection 50, union 150
		},
		{
			name: "Touching edges only",
			a:    Box{X: 0, Y: 0, W: 10, H: 10},
			b:    Box{X: 10, Y: 0, W: 10, H: 10},
			want: 0.0,
		},
		{
			name: "Empty box",
			a:    Box{},
			b:    Box{X: 0, Y: 0, W: 10, H: 10},
			want: 0.0, // Safety fallback
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.a.IoU(tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("IoU() = %v, want %v", got, tt.want)
			}
			// IoU is symmetric
			if rev := tt.b.IoU(tt.a); math.Abs(rev-got) > 1e-9 {
				t.Errorf("IoU not symmetric: %v vs %v", got, rev)
			}
		})
	}
}

func TestPadClip(t *testing.T) {
	b := Box{X: 5, Y: 5, W: 10, H: 10}

	padded := b.Pad(10)
	if padded.X != -5 || padded.Y != -5 || padded.W != 30 || padded.H != 30 {
		t.Errorf("Pad(10) = %+v", padded)
	}

	clipped := padded.Clip(20, 20)
	if clipped.X != 0 || clipped.Y != 0 || clipped.W != 20 || clipped.H != 20 {
		t.Errorf("Clip(20,20) = %+v", clipped)
	}

	// Fully outside the frame clips to empty
	out := Box{X: 100, Y: 100, W: 5, H: 5}.Clip(20, 20)
	if !out.Empty() {
		t.Errorf("Expected empty box, got %+v", out)
	}
}
