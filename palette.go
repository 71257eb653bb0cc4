package snakeshot

import (
	"fmt"
	"image/color"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/gamut"
)

// Palette holds the colors of everything on a canvas that is not a game
// object.
type Palette struct {
	Background color.RGBA
	Border     color.RGBA
	Grid       color.RGBA
}

var DefaultPalette = Palette{
	Background: color.RGBA{R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	Border:     color.RGBA{R: 0x00, G: 0x11, B: 0x00, A: 0xff},
	Grid:       color.RGBA{R: 0x00, G: 0x22, B: 0x00, A: 0xff},
}

// NewPalette builds a palette from hex strings, empty values keep the
// default. When only the grid color is given the border is derived from it.
func NewPalette(background, border, grid string) (Palette, error) {
	p := DefaultPalette

	if background != "" {
		c, err := parseHex(background)
		if err != nil {
			return p, fmt.Errorf("background color: %w", err)
		}
		p.Background = c
	}

	if grid != "" {
		c, err := parseHex(grid)
		if err != nil {
			return p, fmt.Errorf("grid color: %w", err)
		}
		p.Grid = c
		if border == "" {
			p.Border = toRGBA(gamut.Darker(c, 0.5))
		}
	}

	if border != "" {
		c, err := parseHex(border)
		if err != nil {
			return p, fmt.Errorf("border color: %w", err)
		}
		p.Border = c
	}

	return p, nil
}

// Hex renders a color as a #rrggbb string.
func Hex(c color.Color) string {
	clr, _ := colorful.MakeColor(c)
	return clr.Hex()
}

func parseHex(s string) (color.RGBA, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return color.RGBA{}, err
	}
	return toRGBA(c), nil
}

func toRGBA(c color.Color) color.RGBA {
	rgba := color.RGBAModel.Convert(c).(color.RGBA)
	rgba.A = 0xff
	return rgba
}
