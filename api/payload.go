package api

import (
	"errors"
	"fmt"

	"github.com/b1naryth1ef/snakeshot"
)

// ErrPayload marks a response that could not be parsed or failed validation.
var ErrPayload = errors.New("malformed payload")

// DefaultMaxMapDimension bounds the width and height of a decoded map.
const DefaultMaxMapDimension = 1024

type MapPayload struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type ObjectPayload struct {
	ID        int     `json:"id"`
	Type      *string `json:"type"`
	Dot       []int   `json:"dot"`
	Dots      [][]int `json:"dots"`
	Direction string  `json:"direction"`
}

// ObjectsPayload is the body of GET /games/{id}/objects.
type ObjectsPayload struct {
	Map     *MapPayload      `json:"map"`
	Objects *[]ObjectPayload `json:"objects"`
}

// Decode validates the payload and converts it into the object model. Every
// dot must lie on the map.
func (p *ObjectsPayload) Decode() (snakeshot.MapSize, []snakeshot.Object, error) {
	return p.DecodeWithin(DefaultMaxMapDimension)
}

// DecodeWithin is Decode with maps wider or taller than maxDimension
// rejected. A maxDimension <= 0 uses DefaultMaxMapDimension.
func (p *ObjectsPayload) DecodeWithin(maxDimension int) (snakeshot.MapSize, []snakeshot.Object, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultMaxMapDimension
	}
	if p.Map == nil {
		return snakeshot.MapSize{}, nil, fmt.Errorf("%w: missing map", ErrPayload)
	}
	if p.Objects == nil {
		return snakeshot.MapSize{}, nil, fmt.Errorf("%w: missing objects", ErrPayload)
	}

	size := snakeshot.MapSize{Width: p.Map.Width, Height: p.Map.Height}
	if !size.Valid() {
		return size, nil, fmt.Errorf("%w: invalid map size %dx%d", ErrPayload, size.Width, size.Height)
	}
	if size.Width > maxDimension || size.Height > maxDimension {
		return size, nil, fmt.Errorf("%w: map size %dx%d exceeds %d", ErrPayload, size.Width, size.Height, maxDimension)
	}

	objects := make([]snakeshot.Object, 0, len(*p.Objects))
	for i, raw := range *p.Objects {
		obj, err := raw.decode()
		if err != nil {
			return size, nil, fmt.Errorf("object %d: %w", i, err)
		}
		for _, d := range obj.Dots() {
			if !size.Contains(d) {
				return size, nil, fmt.Errorf("%w: %s %d has dot %s outside %dx%d map", ErrPayload, obj.Kind, obj.ID, d, size.Width, size.Height)
			}
		}
		objects = append(objects, obj)
	}

	return size, objects, nil
}

// decode takes "dot" over "dots" for every kind. An object with neither has
// nothing to draw and becomes an unknown object without dots.
func (p ObjectPayload) decode() (snakeshot.Object, error) {
	if p.Type == nil {
		return snakeshot.Object{}, fmt.Errorf("%w: missing type", ErrPayload)
	}
	kind := snakeshot.ParseKind(*p.Type)
	obj := snakeshot.Object{ID: p.ID, Kind: kind, Direction: p.Direction}

	var raw [][]int
	switch {
	case p.Dot != nil:
		raw = [][]int{p.Dot}
	case p.Dots != nil:
		raw = p.Dots
	default:
		obj.Kind = snakeshot.KindUnknown
		return obj, nil
	}

	dots := make([]snakeshot.Dot, 0, len(raw))
	for _, r := range raw {
		d, err := decodeDot(r)
		if err != nil {
			return obj, err
		}
		dots = append(dots, d)
	}

	if kind.SingleDot() {
		if len(dots) != 1 {
			return obj, fmt.Errorf("%w: %s %d must have exactly one dot, got %d", ErrPayload, kind, p.ID, len(dots))
		}
		obj.Dot = dots[0]
		return obj, nil
	}

	obj.DotList = dots
	return obj, nil
}

func decodeDot(raw []int) (snakeshot.Dot, error) {
	if len(raw) != 2 {
		return snakeshot.Dot{}, fmt.Errorf("%w: dot must have 2 coordinates, got %v", ErrPayload, raw)
	}
	return snakeshot.Dot{X: raw[0], Y: raw[1]}, nil
}
