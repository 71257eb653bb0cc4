package snakeshot

import (
	"errors"
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// MaxCanvasDimension bounds the width and height of a canvas in pixels.
const MaxCanvasDimension = 1 << 14

var (
	ErrDotOutOfRange  = errors.New("dot out of map range")
	ErrInvalidMapSize = errors.New("invalid map size")
	ErrInvalidBounds  = errors.New("invalid pixel bounds")
	ErrCanvasTooLarge = errors.New("canvas too large")
)

// Renderer rasterizes a map and its objects onto a grid canvas. It keeps no
// state between calls and is safe for concurrent use.
type Renderer struct {
	palette Palette
}

func NewRenderer(palette Palette) *Renderer {
	return &Renderer{
		palette: palette,
	}
}

// Render draws objects in order onto a grid sized to fit bounds. In strict
// mode the result is resampled so that its longer side equals the smaller of
// the two bounds.
func (r *Renderer) Render(size MapSize, bounds image.Point, objects []Object, strict bool) (image.Image, error) {
	if !size.Valid() {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidMapSize, size.Width, size.Height)
	}
	if bounds.X <= 0 || bounds.Y <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBounds, bounds.X, bounds.Y)
	}

	geometry := ComputeGeometry(size, bounds)
	if geometry.Width > MaxCanvasDimension || geometry.Height > MaxCanvasDimension {
		return nil, fmt.Errorf("%w: %dx%d map needs %dx%d pixels", ErrCanvasTooLarge, size.Width, size.Height, geometry.Width, geometry.Height)
	}

	canvas := newGridCanvas(geometry, r.palette)

	for _, obj := range objects {
		clr := obj.Color()
		for _, d := range obj.Dots() {
			if !size.Contains(d) {
				return nil, fmt.Errorf("%w: %s %d at %s on %dx%d map", ErrDotOutOfRange, obj.Kind, obj.ID, d, size.Width, size.Height)
			}
			canvas.drawDot(d, clr)
		}
	}

	if !strict {
		return canvas.img, nil
	}

	return resample(canvas.img, min(bounds.X, bounds.Y)), nil
}

// Render draws with the default palette.
func Render(size MapSize, bounds image.Point, objects []Object, strict bool) (image.Image, error) {
	return NewRenderer(DefaultPalette).Render(size, bounds, objects, strict)
}

// StrictSize returns the size of a w×h image scaled so that its longer side
// is maxLength.
func StrictSize(w, h, maxLength int) (int, int) {
	switch {
	case w == h:
		return maxLength, maxLength
	case w > h:
		return maxLength, max(h*maxLength/w, 1)
	default:
		return max(w*maxLength/h, 1), maxLength
	}
}

func resample(src *image.RGBA, maxLength int) image.Image {
	bounds := src.Bounds()
	w, h := StrictSize(bounds.Dx(), bounds.Dy(), maxLength)
	if w == bounds.Dx() && h == bounds.Dy() {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)
	return dst
}
