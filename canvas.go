package snakeshot

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	BorderSize = 2

	// grid lines take a tenth of a cell
	lineSizeDivisor = 10
	lineSizeMin     = 1
	dotSizeMin      = 5
)

// Geometry describes the pixel layout of a grid canvas. It is derived from
// the map size and the pixel bounds on every render.
type Geometry struct {
	Cell   int
	Line   int
	Dot    int
	Border int
	Width  int
	Height int
}

// ComputeGeometry picks the largest cell that fits the whole grid plus the
// border into bounds, bound by the tighter axis.
func ComputeGeometry(size MapSize, bounds image.Point) Geometry {
	cell := min(
		ceilDiv(bounds.X-BorderSize*2, size.Width),
		ceilDiv(bounds.Y-BorderSize*2, size.Height),
	)
	if cell < 1 {
		cell = 1
	}

	line := cell / lineSizeDivisor
	if line < lineSizeMin && cell-line > dotSizeMin {
		line = lineSizeMin
	}
	dot := cell - line

	return Geometry{
		Cell:   cell,
		Line:   line,
		Dot:    dot,
		Border: BorderSize,
		Width:  dot*size.Width + line*(size.Width+1) + BorderSize*2,
		Height: dot*size.Height + line*(size.Height+1) + BorderSize*2,
	}
}

// DotRect returns the pixel rectangle a dot occupies.
func (g Geometry) DotRect(d Dot) image.Rectangle {
	x := g.Border + d.X*g.Cell + g.Line
	y := g.Border + d.Y*g.Cell + g.Line
	return image.Rect(x, y, x+g.Dot, y+g.Dot)
}

func ceilDiv(a, b int) int {
	if a <= 0 {
		return 0
	}
	return (a + b - 1) / b
}

type gridCanvas struct {
	geometry Geometry
	img      *image.RGBA
}

func newGridCanvas(geometry Geometry, palette Palette) *gridCanvas {
	c := &gridCanvas{
		geometry: geometry,
		img:      image.NewRGBA(image.Rect(0, 0, geometry.Width, geometry.Height)),
	}
	c.fillRect(c.img.Bounds(), palette.Background)
	c.drawBorders(palette.Border)
	c.drawGrid(palette.Grid)
	return c
}

func (c *gridCanvas) drawBorders(clr color.RGBA) {
	b := c.geometry.Border
	if b <= 0 {
		return
	}
	w, h := c.geometry.Width, c.geometry.Height

	c.fillRect(image.Rect(0, 0, b, h), clr)
	c.fillRect(image.Rect(0, 0, w, b), clr)
	c.fillRect(image.Rect(w-b, 0, w, h), clr)
	c.fillRect(image.Rect(0, h-b, w, h), clr)
}

func (c *gridCanvas) drawGrid(clr color.RGBA) {
	g := c.geometry
	if g.Line <= 0 {
		return
	}

	for x := g.Border; x < g.Width-g.Border; x += g.Cell {
		c.fillRect(image.Rect(x, g.Border, x+g.Line, g.Height-g.Border), clr)
	}
	for y := g.Border; y < g.Height-g.Border; y += g.Cell {
		c.fillRect(image.Rect(g.Border, y, g.Width-g.Border, y+g.Line), clr)
	}
}

func (c *gridCanvas) drawDot(d Dot, clr color.RGBA) {
	c.fillRect(c.geometry.DotRect(d), clr)
}

func (c *gridCanvas) fillRect(r image.Rectangle, clr color.RGBA) {
	draw.Draw(c.img, r, &image.Uniform{C: clr}, image.Point{}, draw.Src)
}
