package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay-server/internal/auth"
	"github.com/vovakirdan/wirerelay-server/internal/config"
	"github.com/vovakirdan/wirerelay-server/internal/core"
	"github.com/vovakirdan/wirerelay-server/internal/proto"
	"github.com/vovakirdan/wirerelay-server/internal/store"
	"github.com/vovakirdan/wirerelay-server/internal/store/memory"
)

const testJWTSecret = "test-secret-0123456789abcdef"

// testEnv is a full relay stack running on an httptest server.
type testEnv struct {
	server *httptest.Server
	store  store.Store
	auth   *auth.Service
}

// newTestEnv wires store, auth, hub, and HTTP server together. mutate lets a
// test tweak the config before the server is built.
func newTestEnv(t *testing.T, mutate func(*config.Config)) *testEnv {
	t.Helper()

	cfg := config.Default()
	cfg.JWT.Secret = testJWTSecret
	if mutate != nil {
		mutate(&cfg)
	}

	logger := zerolog.Nop()
	st := memory.New()

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	binder := core.NewBinder(authService)
	hub := core.NewHub(st, &logger, nil)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	srv := NewServer(hub, binder, authService, nil, nil, cfg, &logger)
	ts := httptest.NewServer(srv.Handler)

	t.Cleanup(func() {
		ts.Close()
		cancel()
		_ = st.Close()
	})

	return &testEnv{server: ts, store: st, auth: authService}
}

func (e *testEnv) wsURL() string {
	return "ws" + strings.TrimPrefix(e.server.URL, "http") + "/ws"
}

// registerUser creates an account and returns its token.
func (e *testEnv) registerUser(t *testing.T, username string) string {
	t.Helper()

	token, err := e.auth.Register(context.Background(), username, "password123")
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return token
}

// storeLen reports how many messages the log currently holds.
func (e *testEnv) storeLen(t *testing.T) int {
	t.Helper()

	msgs, err := e.store.FindAfter(context.Background(), 0)
	if err != nil {
		t.Fatalf("FindAfter: %v", err)
	}
	return len(msgs)
}

func dialWS(ctx context.Context, t *testing.T, url string) *websocket.Conn {
	t.Helper()

	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	return conn
}

func sendInbound(ctx context.Context, t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()

	var data json.RawMessage
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal %s payload: %v", msgType, err)
		}
		data = raw
	}
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: msgType, Data: data}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// frame mirrors proto.Outbound with the data left raw so each test can
// decode the shape it expects.
type frame struct {
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	Error *frameError     `json:"error"`
}

type frameError struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}

type messageEvent struct {
	ID   int64  `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

type deletedEvent struct {
	ID int64 `json:"id"`
}

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) frame {
	t.Helper()

	var f frame
	if err := wsjson.Read(ctx, conn, &f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

// readMessageEvent fails the test unless the next frame is a message event.
func readMessageEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) messageEvent {
	t.Helper()

	f := readFrame(ctx, t, conn)
	if f.Type != "event" || f.Event != "message" {
		t.Fatalf("expected message event, got type=%q event=%q error=%+v", f.Type, f.Event, f.Error)
	}
	var ev messageEvent
	if err := json.Unmarshal(f.Data, &ev); err != nil {
		t.Fatalf("decode message event: %v", err)
	}
	return ev
}

// readDeletedEvent fails the test unless the next frame is a deleted event.
func readDeletedEvent(ctx context.Context, t *testing.T, conn *websocket.Conn) deletedEvent {
	t.Helper()

	f := readFrame(ctx, t, conn)
	if f.Type != "event" || f.Event != "deleted" {
		t.Fatalf("expected deleted event, got type=%q event=%q error=%+v", f.Type, f.Event, f.Error)
	}
	var ev deletedEvent
	if err := json.Unmarshal(f.Data, &ev); err != nil {
		t.Fatalf("decode deleted event: %v", err)
	}
	return ev
}

// readErrorFrame fails the test unless the next frame is an error.
func readErrorFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) frameError {
	t.Helper()

	f := readFrame(ctx, t, conn)
	if f.Type != "error" || f.Error == nil {
		t.Fatalf("expected error frame, got type=%q event=%q", f.Type, f.Event)
	}
	return *f.Error
}
