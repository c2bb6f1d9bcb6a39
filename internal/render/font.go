package render

import (
	"fmt"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
)

// LoadFace opens the first readable font in paths at the given point size.
// Rendering subtitles without a font is not meaningful, so exhausting the
// list is an error rather than a silent fallback.
func LoadFace(paths []string, size float64) (font.Face, error) {
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		ft, err := opentype.Parse(data)
		if err != nil {
			continue
		}
		face, err := opentype.NewFace(ft, &opentype.FaceOptions{
			Size:    size,
			DPI:     72,
			Hinting: font.HintingFull,
		})
		if err != nil {
			continue
		}
		return face, nil
	}
	return nil, fmt.Errorf("no usable font found in %v", paths)
}
