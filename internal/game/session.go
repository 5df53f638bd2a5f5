package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"boostd/internal/domain"
	"boostd/internal/logger"

	"github.com/looplab/fsm"
	"go.uber.org/zap"
)

var (
	ErrSessionClosed     = errors.New("session closed")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrEmptyResponse     = errors.New("submission returned no result")
)

// Submitter posts the finished game to the boost backend.
type Submitter interface {
	SubmitOutcome(ctx context.Context, req domain.OutcomeRequest) (*domain.OutcomeResponse, error)
}

// BalanceRefresher reloads the account balance after a payout.
type BalanceRefresher interface {
	RefreshBalance(ctx context.Context) (*domain.Balance, error)
}

// StatusViewer records that the user has seen a boost status.
type StatusViewer interface {
	MarkStatusViewed(ctx context.Context, boostID, status string) error
}

// Observer receives session events. Calls are made without the session lock
// held, so an observer may query the session.
type Observer interface {
	OnSessionEvent(ev Event)
}

type ObserverFunc func(ev Event)

func (f ObserverFunc) OnSessionEvent(ev Event) { f(ev) }

type Collaborators struct {
	Submitter Submitter
	Balance   BalanceRefresher
	Viewer    StatusViewer
	Observer  Observer
}

type Options struct {
	Scheduler     Scheduler
	TickInterval  time.Duration
	RevealDelay   time.Duration
	SubmitTimeout time.Duration
	Factory       *Factory
}

const DefaultSubmitTimeout = 15 * time.Second

// fsm events
const (
	eventStart   = "start"
	eventEnd     = "end"
	eventSubmit  = "submit"
	eventResolve = "resolve"
	eventFail    = "fail"
)

// Session is one play-through of a boost mini-game:
// IDLE -> RUNNING -> ENDED -> SUBMITTING -> RESULTED | FAILED.
type Session struct {
	id     string
	params domain.GameParameters
	opts   Options
	collab Collaborators
	log    *zap.SugaredLogger

	ctx    context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	machine     *fsm.FSM
	variant     Variant
	countdown   *Countdown
	revealTimer Timer
	remaining   int
	startedAt   time.Time
	endedAt     time.Time
	timeTaken   int64
	outcome     *domain.Outcome
	destroyed   bool
}

func NewSession(ctx context.Context, id string, params domain.GameParameters, collab Collaborators, opts Options) *Session {
	if opts.Scheduler == nil {
		opts.Scheduler = WallClock()
	}
	if opts.RevealDelay <= 0 {
		opts.RevealDelay = DefaultRevealDelay
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.Factory == nil {
		opts.Factory = NewFactory(nil)
	}
	ctx, cancel := context.WithCancel(ctx)

	s := &Session{
		id:        id,
		params:    params,
		opts:      opts,
		collab:    collab,
		log:       logger.With("session_id", id, "boost_id", params.BoostID, "game_type", string(params.GameType)),
		ctx:       ctx,
		cancel:    cancel,
		countdown: NewCountdown(opts.Scheduler, opts.TickInterval),
		remaining: params.TimeLimitSeconds,
	}
	s.machine = fsm.NewFSM(
		string(domain.SessionIdle),
		fsm.Events{
			{Name: eventStart, Src: []string{string(domain.SessionIdle)}, Dst: string(domain.SessionRunning)},
			{Name: eventEnd, Src: []string{string(domain.SessionRunning)}, Dst: string(domain.SessionEnded)},
			{Name: eventSubmit, Src: []string{string(domain.SessionEnded)}, Dst: string(domain.SessionSubmitting)},
			{Name: eventResolve, Src: []string{string(domain.SessionSubmitting)}, Dst: string(domain.SessionResulted)},
			{Name: eventFail, Src: []string{string(domain.SessionSubmitting)}, Dst: string(domain.SessionFailed)},
		},
		fsm.Callbacks{},
	)
	return s
}

func (s *Session) ID() string { return s.id }

func (s *Session) Params() domain.GameParameters { return s.params }

func (s *Session) State() domain.SessionState {
	return domain.SessionState(s.machine.Current())
}

// transition must be called with s.mu held.
func (s *Session) transition(event string) error {
	if !s.machine.Can(event) {
		return ErrInvalidTransition
	}
	return s.machine.Event(context.Background(), event)
}

// running must be called with s.mu held.
func (s *Session) running() bool {
	return !s.destroyed && s.State() == domain.SessionRunning
}

// Start validates the parameters and begins the countdown. On invalid
// parameters the session stays IDLE.
func (s *Session) Start() error {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	if !s.machine.Can(eventStart) {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	variant, err := s.opts.Factory.CreateVariant(&s.params)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.transition(eventStart); err != nil {
		s.mu.Unlock()
		return err
	}
	s.variant = variant
	s.startedAt = s.opts.Scheduler.Now()
	s.remaining = s.params.TimeLimitSeconds
	s.countdown.Start(s.params.TimeLimitSeconds, s.onTick, s.onExpire)
	ev := s.eventLocked(EventState)
	s.mu.Unlock()

	s.log.Infow("boost game started", "time_limit", s.params.TimeLimitSeconds)
	s.emit(ev)
	return nil
}

func (s *Session) onTick(remaining int) {
	s.mu.Lock()
	if !s.running() {
		s.mu.Unlock()
		return
	}
	s.remaining = remaining
	ev := s.eventLocked(EventTick)
	s.mu.Unlock()

	s.emit(ev)
}

func (s *Session) onExpire() {
	s.finish(true)
}

// End terminates a running session early. It reports whether this call
// performed the RUNNING -> ENDED transition.
func (s *Session) End() bool {
	return s.finish(false)
}

func (s *Session) finish(expired bool) bool {
	s.mu.Lock()
	if s.destroyed || s.State() != domain.SessionRunning {
		s.mu.Unlock()
		return false
	}
	if err := s.transition(eventEnd); err != nil {
		s.mu.Unlock()
		return false
	}
	s.countdown.Stop()
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
	s.endedAt = s.opts.Scheduler.Now()
	if expired {
		s.remaining = 0
		s.timeTaken = int64(s.params.TimeLimitSeconds) * 1000
	} else {
		s.timeTaken = s.endedAt.Sub(s.startedAt).Milliseconds()
	}
	ended := s.eventLocked(EventState)

	req := domain.OutcomeRequest{
		BoostID:         s.params.BoostID,
		EventType:       domain.EventTypeGameCompletion,
		TimeTakenMillis: s.timeTaken,
	}
	s.variant.Fill(&req)

	_ = s.transition(eventSubmit)
	submitting := s.eventLocked(EventState)
	ctx := s.ctx
	s.mu.Unlock()

	s.log.Infow("boost game ended", "expired", expired, "count", ended.Count, "time_taken_ms", req.TimeTakenMillis)
	s.emit(ended)
	s.emit(submitting)

	s.submit(ctx, req)
	return true
}

func (s *Session) submit(ctx context.Context, req domain.OutcomeRequest) {
	var (
		resp *domain.OutcomeResponse
		err  error
	)
	if s.collab.Submitter == nil {
		err = errors.New("no submitter configured")
	} else {
		sctx, cancel := context.WithTimeout(ctx, s.opts.SubmitTimeout)
		resp, err = s.collab.Submitter.SubmitOutcome(sctx, req)
		cancel()
	}

	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		s.log.Debugw("session destroyed during submission, dropping response")
		return
	}

	var outcome domain.Outcome
	switch {
	case err != nil:
		reason := domain.FailureTransport
		switch {
		case errors.Is(err, context.Canceled):
			reason = domain.FailureCancelled
		case errors.Is(err, domain.ErrUnusableResponse):
			reason = domain.FailureEmptyResponse
		}
		if reason == domain.FailureEmptyResponse {
			s.log.Errorw("boost outcome submission completed without a usable result", "error", err)
		} else {
			s.log.Errorw("boost outcome submission failed", "reason", string(reason), "error", err)
		}
		outcome.Failure = newFailure(reason, err)
		_ = s.transition(eventFail)
	case resp == nil:
		s.log.Errorw("boost outcome submission completed without a usable result", "error", ErrEmptyResponse)
		outcome.Failure = newFailure(domain.FailureEmptyResponse, ErrEmptyResponse)
		_ = s.transition(eventFail)
	default:
		outcome = s.variant.Classify(resp)
		_ = s.transition(eventResolve)
	}
	s.outcome = &outcome
	stateEv := s.eventLocked(EventState)
	resultEv := s.eventLocked(EventResult)
	if outcome.Failure != nil {
		resultEv.Type = EventFailed
	}
	s.mu.Unlock()

	s.emit(stateEv)
	s.emit(resultEv)

	if outcome.Failure == nil {
		s.log.Infow("boost game resulted", "result", string(outcome.Category()))
		s.applyResult(ctx, outcome)
	}
}

func newFailure(reason domain.FailureReason, err error) *domain.Failure {
	return &domain.Failure{
		Reason:       reason,
		Message:      err.Error(),
		RetryOptions: []string{domain.RetryContactSupport, domain.RetryGoHome},
	}
}

// applyResult runs the post-result side effects: a balance refresh when
// something was paid out and one viewed notification per status tag.
func (s *Session) applyResult(ctx context.Context, outcome domain.Outcome) {
	var (
		paidOut   bool
		statusMet []string
	)
	switch {
	case outcome.Game != nil:
		paidOut = outcome.Game.AmountWon != nil
		statusMet = outcome.Game.StatusMet
	case outcome.Quiz != nil:
		paidOut = outcome.Quiz.BoostRedeemed
		statusMet = outcome.Quiz.StatusMet
	}

	if paidOut && s.collab.Balance != nil {
		balance, err := s.collab.Balance.RefreshBalance(ctx)
		if err != nil {
			s.log.Warnw("balance refresh after boost failed", "error", err)
		} else if balance != nil {
			s.emit(balanceEvent(s.id, balance))
		}
	}

	if s.collab.Viewer != nil {
		for _, status := range statusMet {
			if err := s.collab.Viewer.MarkStatusViewed(ctx, s.params.BoostID, status); err != nil {
				s.log.Warnw("mark boost status viewed failed", "status", status, "error", err)
			}
		}
	}
}

// Tap counts a tap for the tap-screen and chase-arrow games.
func (s *Session) Tap() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running() {
		return false
	}
	t, ok := s.variant.(Tapper)
	return ok && t.Tap()
}

// TapCell damages one cell of the breaking-image grid.
func (s *Session) TapCell(cell int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running() {
		return false
	}
	t, ok := s.variant.(CellTapper)
	return ok && t.TapCell(cell)
}

// Answer records a quiz answer.
func (s *Session) Answer(snippetID, answer string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running() {
		return false
	}
	a, ok := s.variant.(Answerer)
	return ok && a.Answer(snippetID, answer)
}

// Flip turns a matching card. A mismatched pair is concealed again after the
// reveal delay; until then further flips are rejected.
func (s *Session) Flip(card int) FlipOutcome {
	s.mu.Lock()
	if !s.running() {
		s.mu.Unlock()
		return FlipRejected
	}
	f, ok := s.variant.(CardFlipper)
	if !ok {
		s.mu.Unlock()
		return FlipRejected
	}
	res := f.Flip(card)
	if res == FlipRejected {
		s.mu.Unlock()
		return res
	}
	ev := s.eventLocked(EventFlip)
	ev.Card = &card
	ev.Icon = f.Icon(card)
	ev.Flip = res.String()
	if res == FlipMismatch {
		s.revealTimer = s.opts.Scheduler.AfterFunc(s.opts.RevealDelay, s.concealMismatch)
	}
	s.mu.Unlock()

	s.emit(ev)
	return res
}

func (s *Session) concealMismatch() {
	s.mu.Lock()
	if !s.running() {
		s.mu.Unlock()
		return
	}
	s.revealTimer = nil
	f, ok := s.variant.(CardFlipper)
	if !ok {
		s.mu.Unlock()
		return
	}
	pair, ok := f.ConcealMismatch()
	if !ok {
		s.mu.Unlock()
		return
	}
	ev := s.eventLocked(EventConceal)
	ev.Cards = pair[:]
	s.mu.Unlock()

	s.emit(ev)
}

// Destroy tears the session down: pending timers are cancelled and an
// in-flight submission is aborted and its response dropped.
func (s *Session) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	s.destroyed = true
	s.countdown.Stop()
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}
	s.cancel()
}

// Snapshot is a copy of the session's observable state.
type Snapshot struct {
	ID               string              `json:"sessionId"`
	BoostID          string              `json:"boostId"`
	GameType         domain.GameType     `json:"gameType"`
	State            domain.SessionState `json:"state"`
	TimeRemaining    int                 `json:"timeRemaining"`
	InteractionCount int                 `json:"interactionCount"`
	StartedAt        *time.Time          `json:"startedAt,omitempty"`
	EndedAt          *time.Time          `json:"endedAt,omitempty"`
	TimeTakenMillis  int64               `json:"timeTakenMillis,omitempty"`
	Outcome          *domain.Outcome     `json:"outcome,omitempty"`
	Game             map[string]any      `json:"game,omitempty"`
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:              s.id,
		BoostID:         s.params.BoostID,
		GameType:        s.params.GameType,
		State:           s.State(),
		TimeRemaining:   s.remaining,
		TimeTakenMillis: s.timeTaken,
		Outcome:         s.outcome,
	}
	if s.variant != nil {
		snap.InteractionCount = s.variant.Count()
		snap.Game = s.variant.SerializeState()
	}
	if !s.startedAt.IsZero() {
		t := s.startedAt
		snap.StartedAt = &t
	}
	if !s.endedAt.IsZero() {
		t := s.endedAt
		snap.EndedAt = &t
	}
	return snap
}

func (s *Session) emit(ev Event) {
	if s.collab.Observer != nil {
		s.collab.Observer.OnSessionEvent(ev)
	}
}
