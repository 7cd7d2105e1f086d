package postprocess

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// SchemaVersion is written into every metadata record.
const SchemaVersion = 2

// Mode selects how a sprite with visible content is transformed.
type Mode string

const (
	// ModeNormalize crops, scales to the target height and places the sprite on a fixed canvas.
	ModeNormalize Mode = "normalize"
	// ModeCrop only strips transparent padding.
	ModeCrop Mode = "crop"
)

// Default canvas size relative to the target height. The width leaves room
// for kicks, the height for jumps.
const (
	DefaultCanvasWidthRatio  = 1.5
	DefaultCanvasHeightRatio = 1.2
)

// Metadata describes the transform applied to one sprite.
type Metadata struct {
	SchemaVersion  int      `json:"schema_version"`
	Mode           Mode     `json:"mode"`
	OriginalWidth  int      `json:"original_width"`
	OriginalHeight int      `json:"original_height"`
	CropX          int      `json:"crop_x"`
	CropY          int      `json:"crop_y"`
	CropWidth      int      `json:"crop_width"`
	CropHeight     int      `json:"crop_height"`
	ScaleFactor    float64  `json:"scale_factor"`
	NewWidth       int      `json:"new_width"`
	NewHeight      int      `json:"new_height"`
	CanvasWidth    int      `json:"canvas_width"`
	CanvasHeight   int      `json:"canvas_height"`
	PasteX         int      `json:"paste_x"`
	PasteY         int      `json:"paste_y"`
	CenterOffsetX  *float64 `json:"center_offset_x,omitempty"`
	CenterOffsetY  *float64 `json:"center_offset_y,omitempty"`
	Transparent    bool     `json:"transparent,omitempty"`
}

// Options controls Normalize.
type Options struct {
	TargetHeight      int
	CanvasWidthRatio  float64
	CanvasHeightRatio float64
	Rules             ScaleRules
	Filter            imaging.ResampleFilter
}

func (o Options) filter() imaging.ResampleFilter {
	if o.Filter.Kernel == nil {
		return imaging.Lanczos
	}
	return o.Filter
}

// CanvasSize returns the output frame for a target height. It does not
// depend on any individual sprite.
func CanvasSize(targetHeight int, widthRatio, heightRatio float64) (w, h int) {
	if widthRatio <= 0 {
		widthRatio = DefaultCanvasWidthRatio
	}
	if heightRatio <= 0 {
		heightRatio = DefaultCanvasHeightRatio
	}
	return int(float64(targetHeight) * widthRatio), int(float64(targetHeight) * heightRatio)
}

// Normalize crops img to bounds, scales the crop so its height matches the
// target (adjusted by the first matching scale rule for name) and pastes it
// horizontally centered and bottom aligned on a transparent canvas.
func Normalize(img image.Image, bounds image.Rectangle, name string, opts Options) (*image.NRGBA, Metadata) {
	ob := img.Bounds()
	cropW, cropH := bounds.Dx(), bounds.Dy()

	scale := float64(opts.TargetHeight) / float64(cropH)
	scale *= opts.Rules.Multiplier(name)

	newW := scaledDim(cropW, scale)
	newH := scaledDim(cropH, scale)

	cropped := imaging.Crop(img, bounds)
	resized := imaging.Resize(cropped, newW, newH, opts.filter())

	canvasW, canvasH := CanvasSize(opts.TargetHeight, opts.CanvasWidthRatio, opts.CanvasHeightRatio)
	pasteX := floorDiv(canvasW-newW, 2)
	pasteY := canvasH - newH

	canvas := imaging.New(canvasW, canvasH, color.NRGBA{})
	canvas = imaging.Paste(canvas, resized, image.Pt(pasteX, pasteY))

	return canvas, Metadata{
		SchemaVersion:  SchemaVersion,
		Mode:           ModeNormalize,
		OriginalWidth:  ob.Dx(),
		OriginalHeight: ob.Dy(),
		CropX:          bounds.Min.X - ob.Min.X,
		CropY:          bounds.Min.Y - ob.Min.Y,
		CropWidth:      cropW,
		CropHeight:     cropH,
		ScaleFactor:    scale,
		NewWidth:       newW,
		NewHeight:      newH,
		CanvasWidth:    canvasW,
		CanvasHeight:   canvasH,
		PasteX:         pasteX,
		PasteY:         pasteY,
	}
}

// CropToContent strips transparent padding without rescaling. The center
// offsets locate the bottom-center of the crop relative to the bottom-center
// of the original frame so the sprite can be drawn at its old anchor.
func CropToContent(img image.Image, bounds image.Rectangle) (*image.NRGBA, Metadata) {
	ob := img.Bounds()
	cropX, cropY := bounds.Min.X-ob.Min.X, bounds.Min.Y-ob.Min.Y
	cropW, cropH := bounds.Dx(), bounds.Dy()

	offX := float64(cropX) + float64(cropW)/2 - float64(ob.Dx())/2
	offY := float64(cropY+cropH) - float64(ob.Dy())

	return imaging.Crop(img, bounds), Metadata{
		SchemaVersion:  SchemaVersion,
		Mode:           ModeCrop,
		OriginalWidth:  ob.Dx(),
		OriginalHeight: ob.Dy(),
		CropX:          cropX,
		CropY:          cropY,
		CropWidth:      cropW,
		CropHeight:     cropH,
		ScaleFactor:    1,
		NewWidth:       cropW,
		NewHeight:      cropH,
		CanvasWidth:    cropW,
		CanvasHeight:   cropH,
		CenterOffsetX:  &offX,
		CenterOffsetY:  &offY,
	}
}

// Passthrough returns an unchanged copy of a fully transparent image and the
// degenerate record describing it: full-frame crop, unit scale, zero offsets.
func Passthrough(img image.Image, mode Mode) (*image.NRGBA, Metadata) {
	ob := img.Bounds()
	w, h := ob.Dx(), ob.Dy()
	md := Metadata{
		SchemaVersion:  SchemaVersion,
		Mode:           mode,
		OriginalWidth:  w,
		OriginalHeight: h,
		CropWidth:      w,
		CropHeight:     h,
		ScaleFactor:    1,
		NewWidth:       w,
		NewHeight:      h,
		CanvasWidth:    w,
		CanvasHeight:   h,
		Transparent:    true,
	}
	if mode == ModeCrop {
		var offX, offY float64
		md.CenterOffsetX, md.CenterOffsetY = &offX, &offY
	}
	return imaging.Clone(img), md
}

// scaledDim truncates toward zero but never below one pixel.
func scaledDim(n int, scale float64) int {
	d := int(float64(n) * scale)
	if d < 1 {
		d = 1
	}
	return d
}

// floorDiv divides rounding toward negative infinity, so oversized sprites
// are offset the same way on both sides of zero.
func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// Rescale resizes the whole image by factor, truncating the new size.
func Rescale(img image.Image, factor float64, filter imaging.ResampleFilter) *image.NRGBA {
	b := img.Bounds()
	if filter.Kernel == nil {
		filter = imaging.Lanczos
	}
	return imaging.Resize(img, scaledDim(b.Dx(), factor), scaledDim(b.Dy(), factor), filter)
}
