package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"boostd/internal/domain"
	"boostd/internal/game"
	"boostd/internal/logger"
	"boostd/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrBoostNotFound   = errors.New("boost not found")
	ErrBoostHasNoGame  = errors.New("boost has no game")
	ErrHistoryDisabled = errors.New("game history is disabled")
)

// Backend is the boost API as seen by one authenticated user.
type Backend interface {
	FetchBoost(ctx context.Context, boostID string) (*domain.Boost, error)
	game.Submitter
	game.BalanceRefresher
	game.StatusViewer
}

// BackendFactory returns a Backend that authenticates with the user's token.
type BackendFactory func(token string) Backend

type OutcomeStore interface {
	Create(ctx context.Context, rec *domain.GameOutcomeRecord) error
	GetByUser(ctx context.Context, userID string, limit int) ([]*domain.GameOutcomeRecord, error)
	StatsByUser(ctx context.Context, userID string) (*repository.OutcomeStats, error)
}

type SessionLocker interface {
	Acquire(ctx context.Context, userID, boostID, sessionID string) error
	Release(ctx context.Context, userID, boostID, sessionID string) error
}

// BoostGameConfig tunes the sessions the service creates.
type BoostGameConfig struct {
	TickInterval  time.Duration
	RevealDelay   time.Duration
	SubmitTimeout time.Duration
	// Scheduler overrides the wall clock, mainly for tests.
	Scheduler game.Scheduler
}

// User identifies the caller; Token is forwarded to the boost API.
type User struct {
	ID    string
	Token string
}

// BoostGameService loads boost games from the boost API and runs sessions
// for them. Store and locks are optional.
type BoostGameService struct {
	backends BackendFactory
	store    OutcomeStore
	locks    SessionLocker
	cfg      BoostGameConfig
	factory  *game.Factory
}

func NewBoostGameService(backends BackendFactory, store OutcomeStore, locks SessionLocker, cfg BoostGameConfig) *BoostGameService {
	return &BoostGameService{
		backends: backends,
		store:    store,
		locks:    locks,
		cfg:      cfg,
		factory:  game.NewFactory(nil),
	}
}

func (s *BoostGameService) fetchBoost(ctx context.Context, backend Backend, boostID string) (*domain.Boost, error) {
	boost, err := backend.FetchBoost(ctx, boostID)
	if err != nil {
		return nil, fmt.Errorf("fetch boost %s: %w", boostID, err)
	}
	if boost == nil {
		return nil, ErrBoostNotFound
	}
	return boost, nil
}

// GameDetails returns the played-game view of a boost.
func (s *BoostGameService) GameDetails(ctx context.Context, user User, boostID string) (*domain.GameDetails, error) {
	boost, err := s.fetchBoost(ctx, s.backends(user.Token), boostID)
	if err != nil {
		return nil, err
	}
	details := game.ConvertBoostAndLogsToGameDetails(*boost, boost.GameLogs)
	return &details, nil
}

// Params returns the validated game parameters of a boost.
func (s *BoostGameService) Params(ctx context.Context, user User, boostID string) (*domain.GameParameters, error) {
	boost, err := s.fetchBoost(ctx, s.backends(user.Token), boostID)
	if err != nil {
		return nil, err
	}
	if boost.GameParams == nil {
		return nil, ErrBoostHasNoGame
	}
	params := *boost.GameParams
	if params.BoostID == "" {
		params.BoostID = boost.BoostID
	}
	if err := game.ValidateParameters(&params); err != nil {
		logger.Error("boost game configuration error", "boost_id", boostID, "error", err)
		return nil, err
	}
	return &params, nil
}

// OpenSession prepares an IDLE session for the user. The caller drives it
// through the returned handle and must Close it.
func (s *BoostGameService) OpenSession(ctx context.Context, user User, boostID string, observer game.Observer) (*SessionHandle, error) {
	backend := s.backends(user.Token)
	boost, err := s.fetchBoost(ctx, backend, boostID)
	if err != nil {
		return nil, err
	}
	if boost.GameParams == nil {
		return nil, ErrBoostHasNoGame
	}
	params := *boost.GameParams
	if params.BoostID == "" {
		params.BoostID = boost.BoostID
	}

	sessionID := uuid.NewString()
	if s.locks != nil {
		if err := s.locks.Acquire(ctx, user.ID, params.BoostID, sessionID); err != nil {
			return nil, err
		}
	}

	h := &SessionHandle{svc: s, user: user, observer: observer}
	h.Session = game.NewSession(context.Background(), sessionID, params, game.Collaborators{
		Submitter: backend,
		Balance:   backend,
		Viewer:    backend,
		Observer:  h,
	}, game.Options{
		Scheduler:     s.cfg.Scheduler,
		TickInterval:  s.cfg.TickInterval,
		RevealDelay:   s.cfg.RevealDelay,
		SubmitTimeout: s.cfg.SubmitTimeout,
		Factory:       s.factory,
	})
	ActiveSessions.Inc()
	logger.Info("boost game session opened", "session_id", sessionID, "user_id", user.ID, "boost_id", params.BoostID)
	return h, nil
}

// History lists the user's recorded sessions.
func (s *BoostGameService) History(ctx context.Context, userID string, limit int) ([]*domain.GameOutcomeRecord, *repository.OutcomeStats, error) {
	if s.store == nil {
		return nil, nil, ErrHistoryDisabled
	}
	records, err := s.store.GetByUser(ctx, userID, limit)
	if err != nil {
		return nil, nil, err
	}
	stats, err := s.store.StatsByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return records, stats, nil
}

// SessionHandle is a session owned by the service: terminal results are
// recorded and the per-boost lock is released once it is done.
type SessionHandle struct {
	*game.Session

	svc      *BoostGameService
	user     User
	observer game.Observer

	releaseOnce sync.Once
}

// Start starts the session; invalid parameters are reported as a
// configuration error and leave the session IDLE.
func (h *SessionHandle) Start() error {
	err := h.Session.Start()
	switch {
	case errors.Is(err, game.ErrInvalidParameters):
		ConfigErrors.Inc()
		logger.Error("boost game configuration error", "session_id", h.ID(), "boost_id", h.Params().BoostID, "error", err)
	case err == nil:
		SessionsStarted.WithLabelValues(string(h.Params().GameType)).Inc()
	}
	return err
}

// Close destroys the session and frees its lock. Safe to call more than once.
func (h *SessionHandle) Close() {
	h.Session.Destroy()
	h.release()
}

func (h *SessionHandle) OnSessionEvent(ev game.Event) {
	if h.observer != nil {
		h.observer.OnSessionEvent(ev)
	}
	if ev.Type == game.EventResult || ev.Type == game.EventFailed {
		h.record(ev)
		h.release()
	}
}

func (h *SessionHandle) record(ev game.Event) {
	params := h.Params()
	result := ev.Outcome.Category()
	SessionResults.WithLabelValues(string(params.GameType), string(result)).Inc()
	if ev.Outcome != nil && ev.Outcome.Failure != nil {
		SubmissionFailures.WithLabelValues(string(ev.Outcome.Failure.Reason)).Inc()
	}

	if h.svc.store == nil {
		return
	}
	snap := h.Snapshot()
	rec := &domain.GameOutcomeRecord{
		SessionID:        snap.ID,
		UserID:           h.user.ID,
		BoostID:          params.BoostID,
		GameType:         params.GameType,
		State:            snap.State,
		Result:           result,
		InteractionCount: snap.InteractionCount,
		TimeTakenMillis:  snap.TimeTakenMillis,
		Details:          map[string]any{"outcome": ev.Outcome, "game": snap.Game},
	}
	if ev.AmountWonDisplay != "" {
		rec.Details["amount_won"] = ev.AmountWonDisplay
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.svc.store.Create(ctx, rec); err != nil {
		logger.Warn("failed to record boost game outcome", "session_id", snap.ID, "error", err)
	}
}

func (h *SessionHandle) release() {
	h.releaseOnce.Do(func() {
		ActiveSessions.Dec()
		if h.svc.locks == nil {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := h.svc.locks.Release(ctx, h.user.ID, h.Params().BoostID, h.ID()); err != nil {
			logger.Warn("failed to release boost session lock", "session_id", h.ID(), "error", err)
		}
	})
}
