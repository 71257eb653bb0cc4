// Package api is a client for the Snake-Server HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/b1naryth1ef/snakeshot"
)

const (
	DefaultUserAgent = "SnakeAPIClient"
	DefaultTimeout   = 10 * time.Second

	undefinedError = "undefined error"
)

// APIError is returned when the server answers with an error status.
type APIError struct {
	Status int
	Text   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Text)
}

type Client struct {
	address   string
	userAgent string
	http      *http.Client

	// MaxMapDimension bounds the map size accepted by MapAndObjects. If <= 0,
	// DefaultMaxMapDimension is used.
	MaxMapDimension int
}

// New creates a client for the API rooted at address, which must end with
// "/api".
func New(address, userAgent string, timeout time.Duration) (*Client, error) {
	address = strings.TrimRight(address, "/")
	if !strings.HasSuffix(address, "/api") {
		return nil, fmt.Errorf("api address must end with \"/api\", got %q", address)
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		address:   address,
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}, nil
}

type Game struct {
	ID     int `json:"id"`
	Limit  int `json:"limit"`
	Count  int `json:"count"`
	Width  int `json:"width"`
	Height int `json:"height"`
	Rate   int `json:"rate"`
}

type Games struct {
	Games []Game `json:"games"`
	Limit int    `json:"limit"`
	Count int    `json:"count"`
}

func (c *Client) ListGames(ctx context.Context) (*Games, error) {
	var raw struct {
		Games *[]Game `json:"games"`
		Limit int     `json:"limit"`
		Count int     `json:"count"`
	}
	if err := c.call(ctx, http.MethodGet, &raw, "games"); err != nil {
		return nil, err
	}
	if raw.Games == nil {
		return nil, fmt.Errorf("%w: missing games", ErrPayload)
	}
	return &Games{Games: *raw.Games, Limit: raw.Limit, Count: raw.Count}, nil
}

// ListSessions returns the identifiers of all games on the server.
func (c *Client) ListSessions(ctx context.Context) ([]snakeshot.SessionID, error) {
	games, err := c.ListGames(ctx)
	if err != nil {
		return nil, err
	}

	ids := make([]snakeshot.SessionID, 0, len(games.Games))
	for _, game := range games.Games {
		if game.ID <= 0 {
			return nil, fmt.Errorf("%w: invalid game id %d", ErrPayload, game.ID)
		}
		ids = append(ids, snakeshot.SessionID(game.ID))
	}
	return ids, nil
}

// MapAndObjects returns the map size of a game and the objects placed on it.
func (c *Client) MapAndObjects(ctx context.Context, id snakeshot.SessionID) (snakeshot.MapSize, []snakeshot.Object, error) {
	var payload ObjectsPayload
	if err := c.call(ctx, http.MethodGet, &payload, "games", strconv.Itoa(int(id)), "objects"); err != nil {
		return snakeshot.MapSize{}, nil, err
	}
	return payload.DecodeWithin(c.MaxMapDimension)
}

func (c *Client) call(ctx context.Context, method string, out any, parts ...string) error {
	url := c.address + "/" + strings.Join(parts, "/")

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Snake-Client", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{Status: resp.StatusCode, Text: errorText(body)}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("%w: %v", ErrPayload, err)
	}
	return nil
}

func errorText(body []byte) string {
	var result struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(body, &result); err != nil || result.Text == nil {
		return undefinedError
	}
	return *result.Text
}

// IsAPIError reports whether err carries an error status from the server.
func IsAPIError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr)
}
