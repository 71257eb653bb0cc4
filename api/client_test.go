package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/b1naryth1ef/snakeshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, routes map[string]func(w http.ResponseWriter, r *http.Request)) *Client {
	t.Helper()

	mux := http.NewServeMux()
	for pattern, handler := range routes {
		mux.HandleFunc(pattern, handler)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := New(srv.URL+"/api", "test-client", 0)
	require.NoError(t, err)
	return client
}

func respond(status int, body string) func(w http.ResponseWriter, r *http.Request) {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}
}

func TestNewRequiresAPISuffix(t *testing.T) {
	_, err := New("http://localhost:8080", "", 0)
	assert.Error(t, err)

	_, err = New("http://localhost:8080/api/", "", 0)
	assert.NoError(t, err)
}

func TestListSessions(t *testing.T) {
	client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /api/games": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "test-client", r.Header.Get("User-Agent"))
			assert.Equal(t, "test-client", r.Header.Get("X-Snake-Client"))
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			respond(http.StatusOK, `{"games":[{"id":3,"limit":10,"count":2,"width":40,"height":30,"rate":5},{"id":8}],"limit":100,"count":2}`)(w, r)
		},
	})

	ids, err := client.ListSessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []snakeshot.SessionID{3, 8}, ids)

	games, err := client.ListGames(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Game{ID: 3, Limit: 10, Count: 2, Width: 40, Height: 30, Rate: 5}, games.Games[0])
}

func TestListSessionsErrors(t *testing.T) {
	tests := map[string]struct {
		status  int
		body    string
		payload bool
		text    string
	}{
		"error status with text": {status: http.StatusServiceUnavailable, body: `{"code":503,"text":"server is busy"}`, text: "server is busy"},
		"error status no text":   {status: http.StatusInternalServerError, body: `oops`, text: undefinedError},
		"missing games":          {status: http.StatusOK, body: `{"limit":1}`, payload: true},
		"not json":               {status: http.StatusOK, body: `<html>`, payload: true},
		"invalid id":             {status: http.StatusOK, body: `{"games":[{"id":0}]}`, payload: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
				"GET /api/games": respond(tt.status, tt.body),
			})

			_, err := client.ListSessions(context.Background())
			require.Error(t, err)
			if tt.payload {
				assert.ErrorIs(t, err, ErrPayload)
				return
			}
			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.text, apiErr.Text)
			assert.True(t, IsAPIError(err))
		})
	}
}

func TestMapAndObjects(t *testing.T) {
	client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /api/games/5/objects": respond(http.StatusOK, `{
			"map": {"width": 10, "height": 8},
			"objects": [
				{"id": 1, "type": "apple", "dot": [1, 1]},
				{"id": 2, "type": "snake", "dots": [[2, 2], [2, 3], [3, 3]]},
				{"id": 3, "type": "mouse", "dot": [9, 7], "direction": "south"},
				{"id": 4, "type": "wall", "dots": []},
				{"id": 5, "type": "corpse", "dots": [[0, 7]]},
				{"id": 6, "type": "watermelon", "dots": [[5, 5], [5, 6], [6, 5], [6, 6]]},
				{"id": 7, "type": "portal", "dot": [4, 4]},
				{"id": 8, "type": "cloud"}
			]
		}`),
	})

	size, objects, err := client.MapAndObjects(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, snakeshot.MapSize{Width: 10, Height: 8}, size)
	require.Len(t, objects, 8)

	assert.Equal(t, snakeshot.NewApple(1, snakeshot.Dot{X: 1, Y: 1}), objects[0])
	assert.Equal(t, snakeshot.KindSnake, objects[1].Kind)
	assert.Equal(t, []snakeshot.Dot{{X: 2, Y: 2}, {X: 2, Y: 3}, {X: 3, Y: 3}}, objects[1].Dots())
	assert.Equal(t, snakeshot.NewMouse(3, snakeshot.Dot{X: 9, Y: 7}, "south"), objects[2])
	assert.Empty(t, objects[3].Dots())
	assert.Equal(t, snakeshot.KindCorpse, objects[4].Kind)
	assert.Equal(t, snakeshot.KindWatermelon, objects[5].Kind)
	assert.Equal(t, snakeshot.KindUnknown, objects[6].Kind)
	assert.Equal(t, []snakeshot.Dot{{X: 4, Y: 4}}, objects[6].Dots())
	assert.Empty(t, objects[7].Dots())
}

func TestMapAndObjectsPayloadErrors(t *testing.T) {
	tests := map[string]string{
		"missing map":         `{"objects": []}`,
		"missing objects":     `{"map": {"width": 4, "height": 4}}`,
		"zero size":           `{"map": {"width": 0, "height": 4}, "objects": []}`,
		"missing type":        `{"map": {"width": 4, "height": 4}, "objects": [{"id": 1, "dot": [0, 0]}]}`,
		"apple with two dots": `{"map": {"width": 4, "height": 4}, "objects": [{"id": 1, "type": "apple", "dots": [[0, 0], [1, 1]]}]}`,
		"short dot":           `{"map": {"width": 4, "height": 4}, "objects": [{"id": 1, "type": "apple", "dot": [1]}]}`,
		"out of range":        `{"map": {"width": 4, "height": 4}, "objects": [{"id": 1, "type": "wall", "dots": [[0, 0], [4, 0]]}]}`,
		"huge map":            `{"map": {"width": 2147483648, "height": 2147483648}, "objects": []}`,
		"too wide":            `{"map": {"width": 1025, "height": 4}, "objects": []}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
				"GET /api/games/1/objects": respond(http.StatusOK, body),
			})
			_, _, err := client.MapAndObjects(context.Background(), 1)
			assert.ErrorIs(t, err, ErrPayload)
		})
	}
}

func TestMapAndObjectsAcceptsEitherDotField(t *testing.T) {
	client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /api/games/1/objects": respond(http.StatusOK, `{
			"map": {"width": 4, "height": 4},
			"objects": [
				{"id": 1, "type": "apple", "dots": [[1, 1]]},
				{"id": 2, "type": "wall", "dot": [2, 2]},
				{"id": 3, "type": "snake", "dot": [0, 0], "dots": [[3, 3]]},
				{"id": 4, "type": "snake"}
			]
		}`),
	})

	_, objects, err := client.MapAndObjects(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, objects, 4)

	assert.Equal(t, snakeshot.NewApple(1, snakeshot.Dot{X: 1, Y: 1}), objects[0])
	assert.Equal(t, []snakeshot.Dot{{X: 2, Y: 2}}, objects[1].Dots())
	assert.Equal(t, []snakeshot.Dot{{X: 0, Y: 0}}, objects[2].Dots())
	assert.Equal(t, snakeshot.KindUnknown, objects[3].Kind)
	assert.Empty(t, objects[3].Dots())
}

func TestMapAndObjectsMaxMapDimension(t *testing.T) {
	client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /api/games/1/objects": respond(http.StatusOK, `{"map": {"width": 40, "height": 20}, "objects": []}`),
	})

	size, _, err := client.MapAndObjects(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, snakeshot.MapSize{Width: 40, Height: 20}, size)

	client.MaxMapDimension = 32
	_, _, err = client.MapAndObjects(context.Background(), 1)
	assert.ErrorIs(t, err, ErrPayload)
}

func TestMapAndObjectsNotFound(t *testing.T) {
	client := newTestServer(t, map[string]func(w http.ResponseWriter, r *http.Request){
		"GET /api/games/2/objects": respond(http.StatusNotFound, `{"code":404,"text":"game not found"}`),
	})
	_, _, err := client.MapAndObjects(context.Background(), 2)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "status 404: game not found", apiErr.Error())
}
