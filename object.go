package snakeshot

import (
	"fmt"
	"image/color"
)

type SessionID int

type MapSize struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

func (s MapSize) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// Contains reports whether d lies on the map.
func (s MapSize) Contains(d Dot) bool {
	return d.X >= 0 && d.X < s.Width && d.Y >= 0 && d.Y < s.Height
}

type Dot struct {
	X int
	Y int
}

func (d Dot) String() string {
	return fmt.Sprintf("(%d, %d)", d.X, d.Y)
}

type Kind int

const (
	KindUnknown Kind = iota
	KindApple
	KindCorpse
	KindMouse
	KindSnake
	KindWall
	KindWatermelon
)

var kindNames = map[Kind]string{
	KindUnknown:    "unknown",
	KindApple:      "apple",
	KindCorpse:     "corpse",
	KindMouse:      "mouse",
	KindSnake:      "snake",
	KindWall:       "wall",
	KindWatermelon: "watermelon",
}

// Kinds lists every object kind in a stable order.
var Kinds = []Kind{
	KindApple,
	KindCorpse,
	KindMouse,
	KindSnake,
	KindWall,
	KindWatermelon,
	KindUnknown,
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return kindNames[KindUnknown]
}

// ParseKind maps a server type label onto a Kind. Unrecognised labels are
// KindUnknown.
func ParseKind(label string) Kind {
	for k, name := range kindNames {
		if name == label {
			return k
		}
	}
	return KindUnknown
}

// SingleDot reports whether objects of this kind occupy exactly one dot.
func (k Kind) SingleDot() bool {
	return k == KindApple || k == KindMouse
}

func (k Kind) Color() color.RGBA {
	switch k {
	case KindApple:
		return color.RGBA{R: 0x00, G: 0xff, B: 0x00, A: 0xff}
	case KindCorpse:
		return color.RGBA{R: 0x00, G: 0x00, B: 0xff, A: 0xff}
	case KindMouse:
		return color.RGBA{R: 0xff, G: 0x00, B: 0x00, A: 0xff}
	case KindSnake:
		return color.RGBA{R: 0xff, G: 0x44, B: 0x44, A: 0xff}
	case KindWall:
		return color.RGBA{R: 0x44, G: 0x77, B: 0x44, A: 0xff}
	case KindWatermelon:
		return color.RGBA{R: 0xf0, G: 0xff, B: 0x00, A: 0xff}
	default:
		return color.RGBA{R: 0x66, G: 0x66, B: 0x66, A: 0xff}
	}
}

// Object is a renderable game object. Single dot kinds keep their position in
// Dot, the rest in DotList.
type Object struct {
	ID        int
	Kind      Kind
	Dot       Dot
	DotList   []Dot
	Direction string
}

func NewApple(id int, d Dot) Object {
	return Object{ID: id, Kind: KindApple, Dot: d}
}

func NewMouse(id int, d Dot, direction string) Object {
	return Object{ID: id, Kind: KindMouse, Dot: d, Direction: direction}
}

func NewCorpse(id int, dots ...Dot) Object {
	return Object{ID: id, Kind: KindCorpse, DotList: dots}
}

func NewSnake(id int, dots ...Dot) Object {
	return Object{ID: id, Kind: KindSnake, DotList: dots}
}

func NewWall(id int, dots ...Dot) Object {
	return Object{ID: id, Kind: KindWall, DotList: dots}
}

func NewWatermelon(id int, dots ...Dot) Object {
	return Object{ID: id, Kind: KindWatermelon, DotList: dots}
}

func (o Object) Color() color.RGBA {
	return o.Kind.Color()
}

func (o Object) Dots() []Dot {
	switch o.Kind {
	case KindApple, KindMouse:
		return []Dot{o.Dot}
	default:
		return o.DotList
	}
}
