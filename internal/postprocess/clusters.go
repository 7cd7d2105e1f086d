package postprocess

import (
	"image"

	"github.com/disintegration/imaging"
)

// RemoveSmallClusters clears 8-connected groups of content pixels (alpha
// above threshold) smaller than minRatio of all content pixels. Stray specks
// would otherwise stretch the content bounds. img is not modified.
func RemoveSmallClusters(img image.Image, threshold uint8, minRatio float64) *image.NRGBA {
	src := imaging.Clone(img)
	if minRatio <= 0 {
		return src
	}

	w, h := src.Bounds().Dx(), src.Bounds().Dy()
	mask := make([]bool, w*h)
	total := 0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if src.Pix[y*src.Stride+x*4+3] > threshold {
				mask[y*w+x] = true
				total++
			}
		}
	}
	if total == 0 {
		return src
	}

	labels, sizes := labelComponents(mask, w, h)
	if len(sizes) <= 1 {
		return src
	}

	minSize := int(float64(total) * minRatio)
	for i, l := range labels {
		if l < 0 || sizes[l] >= minSize {
			continue
		}
		off := (i/w)*src.Stride + (i%w)*4
		copy(src.Pix[off:off+4], []uint8{0, 0, 0, 0})
	}
	return src
}

// labelComponents assigns a component id to every set cell of mask.
// Unset cells are labelled -1.
func labelComponents(mask []bool, w, h int) (labels []int32, sizes []int) {
	labels = make([]int32, len(mask))
	for i := range labels {
		labels[i] = -1
	}

	stack := make([]int, 0, 256)
	for start, set := range mask {
		if !set || labels[start] >= 0 {
			continue
		}
		id := int32(len(sizes))
		size := 0
		labels[start] = id
		stack = append(stack[:0], start)
		for len(stack) > 0 {
			cur := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			size++

			cx, cy := cur%w, cur/w
			for ny := cy - 1; ny <= cy+1; ny++ {
				if ny < 0 || ny >= h {
					continue
				}
				for nx := cx - 1; nx <= cx+1; nx++ {
					if nx < 0 || nx >= w {
						continue
					}
					n := ny*w + nx
					if mask[n] && labels[n] < 0 {
						labels[n] = id
						stack = append(stack, n)
					}
				}
			}
		}
		sizes = append(sizes, size)
	}
	return labels, sizes
}
