package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"boostd/internal/boostapi"
	"boostd/internal/config"
	"boostd/internal/domain"
	httpserver "boostd/internal/http"
	"boostd/internal/http/handlers"
	"boostd/internal/logger"
	"boostd/internal/repository"
	"boostd/internal/service"
	"boostd/internal/ws"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Set(zap.NewNop())
	gin.SetMode(gin.TestMode)
	service.InitJWT("test-secret")
	os.Exit(m.Run())
}

// fakeBoostAPI serves one TAP_SCREEN boost and records what the engine sends.
type fakeBoostAPI struct {
	mu       sync.Mutex
	requests []domain.OutcomeRequest
	auth     []string
	viewed   []string
}

func (f *fakeBoostAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/boost/detail", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		if r.URL.Query().Get("boostId") != "boost-e2e" {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("null"))
			return
		}
		writeJSON(w, domain.Boost{
			BoostID:     "boost-e2e",
			BoostStatus: "OFFERED",
			GameParams:  &domain.GameParameters{GameType: domain.GameTypeTapScreen, TimeLimitSeconds: 30},
		})
	})
	mux.HandleFunc("/boost/respond", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var req domain.OutcomeRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		f.mu.Lock()
		f.requests = append(f.requests, req)
		f.mu.Unlock()
		writeJSON(w, domain.OutcomeResponse{Result: []string{"TRIGGERED"}, StatusMet: []string{"REDEEMED"}})
	})
	mux.HandleFunc("/boost/status/viewed", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		var body struct {
			Status string `json:"status"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.viewed = append(f.viewed, body.Status)
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/balance", func(w http.ResponseWriter, r *http.Request) {
		f.record(r)
		_, _ = w.Write([]byte(`{"currentBalance":{"amount":1500,"unit":"WHOLE_CENT","currency":"ZAR"}}`))
	})
	return mux
}

func (f *fakeBoostAPI) record(r *http.Request) {
	f.mu.Lock()
	f.auth = append(f.auth, r.Header.Get("Authorization"))
	f.mu.Unlock()
}

func (f *fakeBoostAPI) viewedStatuses() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.viewed...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// startReader runs the single reader a gorilla connection allows.
func startReader(conn *websocket.Conn) <-chan wsMessage {
	out := make(chan wsMessage, 64)
	go func() {
		defer close(out)
		for {
			_, raw, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var msg wsMessage
			if json.Unmarshal(raw, &msg) == nil {
				out <- msg
			}
		}
	}()
	return out
}

func waitFor(t *testing.T, in <-chan wsMessage, msgType string) wsMessage {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg, ok := <-in:
			if !ok {
				t.Fatalf("connection closed while waiting for %q", msgType)
			}
			if msg.Type == msgType {
				return msg
			}
			if msg.Type == "error" || msg.Type == "failed" {
				t.Fatalf("got %s while waiting for %q: %s", msg.Type, msgType, msg.Payload)
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %q", msgType)
		}
	}
}

type testServer struct {
	url   string
	api   *fakeBoostAPI
	store *memStore
	locks *repository.SessionLocks
	hub   *ws.Hub
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	api := &fakeBoostAPI{}
	apiSrv := httptest.NewServer(api.handler())
	t.Cleanup(apiSrv.Close)

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	locks := repository.NewSessionLocks(rdb, time.Minute)

	client := boostapi.NewClient(apiSrv.URL, 5*time.Second)
	store := &memStore{}
	svc := service.NewBoostGameService(
		func(token string) service.Backend { return client.WithToken(token) },
		store,
		locks,
		service.BoostGameConfig{TickInterval: time.Second, RevealDelay: 10 * time.Millisecond},
	)
	hub := ws.NewHub(ws.ServiceOpener(svc))
	t.Cleanup(hub.Shutdown)

	cfg := &config.Config{
		APIRateLimit:   1000,
		APIRateWindow:  60,
		GameRateLimit:  1000,
		GameRateWindow: 60,
	}
	r := gin.New()
	httpserver.RegisterRoutes(r, cfg, httpserver.Deps{
		Games:  svc,
		Health: handlers.NewHealthHandler(nil, rdb, hub.Count, "test"),
		Hub:    hub,
	})
	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)

	return &testServer{url: ts.URL, api: api, store: store, locks: locks, hub: hub}
}

func (s *testServer) dial(t *testing.T, token, boostID string) *websocket.Conn {
	t.Helper()
	wsURL := strings.Replace(s.url, "http", "ws", 1) + "/ws?token=" + token + "&boost_id=" + boostID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

type memStore struct {
	mu      sync.Mutex
	records []*domain.GameOutcomeRecord
}

func (s *memStore) Create(_ context.Context, rec *domain.GameOutcomeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
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
	recs, _ := s.GetByUser(context.Background(), userID, 0)
	stats := &repository.OutcomeStats{UserID: userID, Total: len(recs)}
	for _, r := range recs {
		if r.Result == domain.ResultRedeemed {
			stats.Redeemed++
		}
	}
	return stats, nil
}

func TestE2E_WS_TapScreenRedeemed(t *testing.T) {
	srv := newTestServer(t)
	token, err := service.GenerateJWT("user-e2e", time.Hour)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	conn := srv.dial(t, token, "boost-e2e")
	in := startReader(conn)

	ready := waitFor(t, in, "ready")
	var rp struct {
		SessionID string                `json:"sessionId"`
		Params    domain.GameParameters `json:"params"`
	}
	if err := json.Unmarshal(ready.Payload, &rp); err != nil {
		t.Fatalf("decode ready: %v", err)
	}
	if rp.SessionID == "" || rp.Params.GameType != domain.GameTypeTapScreen || rp.Params.BoostID != "boost-e2e" {
		t.Fatalf("ready payload = %s", ready.Payload)
	}
	holder, err := srv.locks.Holder(context.Background(), "user-e2e", "boost-e2e")
	if err != nil || holder != rp.SessionID {
		t.Fatalf("lock holder = %q, %v; want %q", holder, err, rp.SessionID)
	}

	send := func(msg string) {
		if err := conn.WriteMessage(websocket.TextMessage, []byte(msg)); err != nil {
			t.Fatalf("write %s: %v", msg, err)
		}
	}
	send(`{"type":"start"}`)
	for i := 0; i < 5; i++ {
		send(`{"type":"tap"}`)
	}
	send(`{"type":"end"}`)

	result := waitFor(t, in, "result")
	var ev struct {
		State   domain.SessionState `json:"state"`
		Count   int                 `json:"count"`
		Outcome domain.Outcome      `json:"outcome"`
	}
	if err := json.Unmarshal(result.Payload, &ev); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if ev.Count != 5 || ev.Outcome.Game == nil || ev.Outcome.Game.Category != domain.ResultRedeemed {
		t.Fatalf("result payload = %s", result.Payload)
	}
	waitFor(t, in, "balance")

	srv.api.mu.Lock()
	reqs := append([]domain.OutcomeRequest(nil), srv.api.requests...)
	auth := append([]string(nil), srv.api.auth...)
	srv.api.mu.Unlock()
	if len(reqs) != 1 {
		t.Fatalf("submissions = %d; want 1", len(reqs))
	}
	if reqs[0].BoostID != "boost-e2e" || reqs[0].NumberTaps == nil || *reqs[0].NumberTaps != 5 {
		t.Fatalf("submitted = %+v", reqs[0])
	}
	for _, a := range auth {
		if a != "Bearer "+token {
			t.Fatalf("boost API saw Authorization %q; want the user's token", a)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	for len(srv.api.viewedStatuses()) == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if viewed := srv.api.viewedStatuses(); len(viewed) != 1 || viewed[0] != "REDEEMED" {
		t.Fatalf("viewed = %v; want [REDEEMED]", viewed)
	}

	srv.store.mu.Lock()
	recorded := len(srv.store.records)
	srv.store.mu.Unlock()
	if recorded != 1 {
		t.Fatalf("recorded outcomes = %d; want 1", recorded)
	}
	if holder, _ := srv.locks.Holder(context.Background(), "user-e2e", "boost-e2e"); holder != "" {
		t.Fatalf("lock still held by %q after result", holder)
	}
}

func TestE2E_WS_UnknownBoost(t *testing.T) {
	srv := newTestServer(t)
	token, err := service.GenerateJWT("user-e2e", time.Hour)
	if err != nil {
		t.Fatalf("gen token: %v", err)
	}

	in := startReader(srv.dial(t, token, "missing"))
	msg := waitForAny(t, in)
	if msg.Type != "error" || !strings.Contains(string(msg.Payload), "boost not found") {
		t.Fatalf("first message = %s %s; want boost not found error", msg.Type, msg.Payload)
	}
}

func TestE2E_WS_RejectsBadToken(t *testing.T) {
	srv := newTestServer(t)
	wsURL := strings.Replace(srv.url, "http", "ws", 1) + "/ws?token=garbage&boost_id=boost-e2e"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("dial with a bad token succeeded")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("response = %v; want 401", resp)
	}
}

func waitForAny(t *testing.T, in <-chan wsMessage) wsMessage {
	t.Helper()
	select {
	case msg, ok := <-in:
		if !ok {
			t.Fatalf("connection closed")
		}
		return msg
	case <-time.After(5 * time.Second):
		t.Fatalf("timeout waiting for a message")
	}
	return wsMessage{}
}

func applyMigrationsToPool(t *testing.T, dbp *pgxpool.Pool) {
	t.Helper()
	migDir := filepath.Join("..", "migrations")
	files, err := os.ReadDir(migDir)
	if err != nil {
		t.Fatalf("read migrations: %v", err)
	}
	for _, f := range files {
		b, err := os.ReadFile(filepath.Join(migDir, f.Name()))
		if err != nil {
			t.Fatalf("read file: %v", err)
		}
		if _, err := dbp.Exec(context.Background(), string(b)); err != nil {
			t.Fatalf("apply migration %s: %v", f.Name(), err)
		}
	}
}

func TestOutcomeRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set")
	}
	ctx := context.Background()
	dbp, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	defer dbp.Close()
	applyMigrationsToPool(t, dbp)

	repo := repository.NewOutcomeRepository(dbp)
	userID := "it-" + time.Now().Format("150405.000000")
	rec := &domain.GameOutcomeRecord{
		SessionID:        userID + "-s1",
		UserID:           userID,
		BoostID:          "boost-it",
		GameType:         domain.GameTypeTapScreen,
		State:            domain.SessionResulted,
		Result:           domain.ResultRedeemed,
		InteractionCount: 7,
		TimeTakenMillis:  5000,
		Details:          map[string]any{"note": "integration"},
	}
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("create: %v", err)
	}
	// same session again updates in place
	rec.Result = domain.ResultPending
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, err := repo.GetByUser(ctx, userID, 10)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if len(got) != 1 || got[0].Result != domain.ResultPending || got[0].InteractionCount != 7 {
		t.Fatalf("records = %+v", got)
	}
	stats, err := repo.StatsByUser(ctx, userID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.Total != 1 || stats.Pending != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}
