package snakeshot

import "context"

// SessionLister enumerates the sessions currently live on the game server.
type SessionLister interface {
	ListSessions(ctx context.Context) ([]SessionID, error)
}

// SessionSource provides everything needed to capture sessions.
type SessionSource interface {
	SessionLister
	MapAndObjects(ctx context.Context, id SessionID) (MapSize, []Object, error)
}
