package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"boostd/internal/domain"
	"boostd/internal/game"
	"boostd/internal/logger"
	"boostd/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Set(zap.NewNop())
	os.Exit(m.Run())
}

type fakeBackend struct {
	mu      sync.Mutex
	boost   *domain.Boost
	resp    *domain.OutcomeResponse
	submits int
	viewed  []string
	tokens  []string
}

func (f *fakeBackend) factory(token string) Backend {
	f.mu.Lock()
	f.tokens = append(f.tokens, token)
	f.mu.Unlock()
	return f
}

func (f *fakeBackend) FetchBoost(context.Context, string) (*domain.Boost, error) {
	return f.boost, nil
}

func (f *fakeBackend) SubmitOutcome(context.Context, domain.OutcomeRequest) (*domain.OutcomeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return f.resp, nil
}

func (f *fakeBackend) RefreshBalance(context.Context) (*domain.Balance, error) {
	return &domain.Balance{}, nil
}

func (f *fakeBackend) MarkStatusViewed(_ context.Context, _, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewed = append(f.viewed, status)
	return nil
}

type memStore struct {
	mu      sync.Mutex
	records []*domain.GameOutcomeRecord
}

func (s *memStore) Create(_ context.Context, rec *domain.GameOutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, rec)
	return nil
}

func (s *memStore) GetByUser(_ context.Context, userID string, _ int) ([]*domain.GameOutcomeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.GameOutcomeRecord
	for _, r := range s.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *memStore) StatsByUser(_ context.Context, userID string) (*repository.OutcomeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats := &repository.OutcomeStats{UserID: userID}
	for _, r := range s.records {
		if r.UserID != userID {
			continue
		}
		stats.Total++
		switch r.Result {
		case domain.ResultRedeemed:
			stats.Redeemed++
		case domain.ResultPending:
			stats.Pending++
		default:
			stats.Failed++
		}
	}
	return stats, nil
}

func tapBoost(seconds int) *domain.Boost {
	return &domain.Boost{
		BoostID:     "boost-1",
		BoostStatus: "OFFERED",
		GameParams:  &domain.GameParameters{GameType: domain.GameTypeTapScreen, TimeLimitSeconds: seconds},
	}
}

func newTestService(t *testing.T, backend *fakeBackend) (*BoostGameService, *memStore, *game.ManualScheduler) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	store := &memStore{}
	sched := game.NewManualScheduler(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	svc := NewBoostGameService(backend.factory, store, repository.NewSessionLocks(rdb, time.Minute), BoostGameConfig{Scheduler: sched})
	return svc, store, sched
}

func TestBoostGameServiceRecordsResultAndReleasesLock(t *testing.T) {
	backend := &fakeBackend{
		boost: tapBoost(5),
		resp: &domain.OutcomeResponse{
			Result:          []string{"TRIGGERED"},
			StatusMet:       []string{"REDEEMED"},
			AmountAllocated: &domain.Amount{Amount: 2000, Unit: domain.UnitWholeCent, Currency: "ZAR"},
		},
	}
	svc, store, sched := newTestService(t, backend)
	user := User{ID: "u1", Token: "tok"}
	ctx := context.Background()

	var results int
	h, err := svc.OpenSession(ctx, user, "boost-1", game.ObserverFunc(func(ev game.Event) {
		if ev.Type == game.EventResult {
			results++
		}
	}))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := svc.OpenSession(ctx, user, "boost-1", nil); !errors.Is(err, repository.ErrSessionLocked) {
		t.Fatalf("second open err = %v; want ErrSessionLocked", err)
	}

	if err := h.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	for i := 0; i < 3; i++ {
		h.Tap()
	}
	sched.Advance(5 * time.Second)

	if results != 1 {
		t.Fatalf("result events = %d; want 1", results)
	}
	if len(store.records) != 1 {
		t.Fatalf("records = %d; want 1", len(store.records))
	}
	rec := store.records[0]
	if rec.UserID != "u1" || rec.BoostID != "boost-1" || rec.Result != domain.ResultRedeemed ||
		rec.InteractionCount != 3 || rec.TimeTakenMillis != 5000 || rec.State != domain.SessionResulted {
		t.Fatalf("record = %+v", rec)
	}
	if rec.Details["amount_won"] != "ZAR 20.00" {
		t.Fatalf("amount_won = %v; want ZAR 20.00", rec.Details["amount_won"])
	}
	if len(backend.tokens) == 0 || backend.tokens[0] != "tok" {
		t.Fatalf("backend tokens = %v", backend.tokens)
	}

	again, err := svc.OpenSession(ctx, user, "boost-1", nil)
	if err != nil {
		t.Fatalf("open after result: %v", err)
	}
	again.Close()

	records, stats, err := svc.History(ctx, "u1", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(records) != 1 || stats.Redeemed != 1 || stats.Total != 1 {
		t.Fatalf("history = %v %+v", records, stats)
	}
}

func TestBoostGameServiceInvalidParamsStayIdle(t *testing.T) {
	backend := &fakeBackend{boost: tapBoost(0)}
	svc, store, sched := newTestService(t, backend)
	user := User{ID: "u1"}

	h, err := svc.OpenSession(context.Background(), user, "boost-1", nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := h.Start(); !errors.Is(err, game.ErrInvalidParameters) {
		t.Fatalf("start err = %v; want ErrInvalidParameters", err)
	}
	if h.State() != domain.SessionIdle {
		t.Fatalf("state = %s; want IDLE", h.State())
	}
	sched.Advance(time.Minute)
	if backend.submits != 0 || len(store.records) != 0 {
		t.Fatalf("invalid session submitted or recorded")
	}

	h.Close()
	h.Close()
	next, err := svc.OpenSession(context.Background(), user, "boost-1", nil)
	if err != nil {
		t.Fatalf("open after close: %v", err)
	}
	next.Close()

	if _, err := svc.Params(context.Background(), user, "boost-1"); !errors.Is(err, game.ErrInvalidParameters) {
		t.Fatalf("params err = %v; want ErrInvalidParameters", err)
	}
}

func TestBoostGameServiceLookups(t *testing.T) {
	winners := 3
	backend := &fakeBackend{boost: &domain.Boost{
		BoostID:     "boost-1",
		BoostStatus: "REDEEMED",
		GameParams:  &domain.GameParameters{GameType: domain.GameTypeTapScreen, TimeLimitSeconds: 10, NumberWinners: &winners},
		GameLogs: []domain.GameLog{
			{LogType: domain.GameLogTypeOutcome, LogContext: domain.LogContext{NumberTaps: 8}},
			{LogType: domain.GameLogTypeOutcome, LogContext: domain.LogContext{NumberTaps: 11}},
		},
	}}
	svc, _, _ := newTestService(t, backend)
	user := User{ID: "u1"}

	details, err := svc.GameDetails(context.Background(), user, "boost-1")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if details.GameResult != domain.DetailResultRedeemed || details.AwardBasis != domain.AwardBasisTournament ||
		details.GameLog == nil || details.GameLog.LogContext.NumberTaps != 11 {
		t.Fatalf("details = %+v", details)
	}

	params, err := svc.Params(context.Background(), user, "boost-1")
	if err != nil {
		t.Fatalf("params: %v", err)
	}
	if params.BoostID != "boost-1" {
		t.Fatalf("params boost id = %q; want it filled from the boost", params.BoostID)
	}

	backend.boost = &domain.Boost{BoostID: "plain"}
	if _, err := svc.Params(context.Background(), user, "plain"); !errors.Is(err, ErrBoostHasNoGame) {
		t.Fatalf("params err = %v; want ErrBoostHasNoGame", err)
	}
	backend.boost = nil
	if _, err := svc.GameDetails(context.Background(), user, "gone"); !errors.Is(err, ErrBoostNotFound) {
		t.Fatalf("details err = %v; want ErrBoostNotFound", err)
	}
}

func TestBoostGameServiceHistoryDisabled(t *testing.T) {
	svc := NewBoostGameService((&fakeBackend{}).factory, nil, nil, BoostGameConfig{})
	if _, _, err := svc.History(context.Background(), "u1", 10); !errors.Is(err, ErrHistoryDisabled) {
		t.Fatalf("err = %v; want ErrHistoryDisabled", err)
	}
}
