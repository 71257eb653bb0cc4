package web

import (
	"sort"

	"github.com/b1naryth1ef/snakeshot"
)

// FrontendData is the input of the index template.
type FrontendData struct {
	Sessions []SessionData
	Legend   []LegendEntry
}

type SessionData struct {
	ID          snakeshot.SessionID
	Screenshots []string
}

type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func newFrontendData(manifest snakeshot.Manifest, palette snakeshot.Palette) FrontendData {
	data := FrontendData{
		Sessions: []SessionData{},
		Legend:   legend(palette),
	}
	for id, files := range manifest {
		data.Sessions = append(data.Sessions, SessionData{ID: id, Screenshots: files})
	}
	sort.Slice(data.Sessions, func(i, j int) bool {
		return data.Sessions[i].ID < data.Sessions[j].ID
	})
	return data
}

func legend(palette snakeshot.Palette) []LegendEntry {
	entries := make([]LegendEntry, 0, len(snakeshot.Kinds)+3)
	for _, kind := range snakeshot.Kinds {
		entries = append(entries, LegendEntry{Name: kind.String(), Color: snakeshot.Hex(kind.Color())})
	}
	entries = append(entries,
		LegendEntry{Name: "background", Color: snakeshot.Hex(palette.Background)},
		LegendEntry{Name: "border", Color: snakeshot.Hex(palette.Border)},
		LegendEntry{Name: "grid", Color: snakeshot.Hex(palette.Grid)},
	)
	return entries
}
