package postprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// DefaultAlphaThreshold is the alpha value a pixel must exceed to count as content.
// Very faint pixels at or below it are treated as background.
const DefaultAlphaThreshold uint8 = 10

// ContentBounds returns the smallest rectangle containing every pixel whose
// alpha is above threshold. The rectangle is in img's coordinate space with an
// exclusive Max. ok is false when the image is fully transparent.
func ContentBounds(img image.Image, threshold uint8) (r image.Rectangle, ok bool) {
	src, isNRGBA := img.(*image.NRGBA)
	if !isNRGBA {
		src = imaging.Clone(img)
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	rows := make([]bool, h)
	cols := make([]bool, w)
	for y := 0; y < h; y++ {
		off := y * src.Stride
		for x := 0; x < w; x++ {
			if src.Pix[off+x*4+3] > threshold {
				rows[y] = true
				cols[x] = true
			}
		}
	}

	top, bottom, found := span(rows)
	if !found {
		return image.Rectangle{}, false
	}
	left, right, _ := span(cols)

	return image.Rect(left, top, right+1, bottom+1).Add(img.Bounds().Min), true
}

// span returns the first and last set index.
func span(marks []bool) (first, last int, ok bool) {
	first, last = -1, -1
	for i, m := range marks {
		if !m {
			continue
		}
		if first < 0 {
			first = i
		}
		last = i
	}
	return first, last, first >= 0
}
