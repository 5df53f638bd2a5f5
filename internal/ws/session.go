package ws

import (
	"context"

	"boostd/internal/domain"
	"boostd/internal/game"
	"boostd/internal/service"
)

// Session is the part of a live game session a websocket client drives.
type Session interface {
	ID() string
	Params() domain.GameParameters
	Start() error
	End() bool
	Tap() bool
	TapCell(cell int) bool
	Flip(card int) game.FlipOutcome
	Answer(snippetID, answer string) bool
	Snapshot() game.Snapshot
	Close()
}

// OpenFunc opens a session for user on boostID that reports to obs.
type OpenFunc func(ctx context.Context, user service.User, boostID string, obs game.Observer) (Session, error)

// ServiceOpener opens sessions through the boost game service.
func ServiceOpener(svc *service.BoostGameService) OpenFunc {
	return func(ctx context.Context, user service.User, boostID string, obs game.Observer) (Session, error) {
		h, err := svc.OpenSession(ctx, user, boostID, obs)
		if err != nil {
			return nil, err
		}
		return h, nil
	}
}
