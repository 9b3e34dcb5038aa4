package agent

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dkeye/VoiceLink/internal/protocol"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

func startAgent(t *testing.T, opts Options) (*Controller, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	ctrl := NewController(opts)
	r := gin.New()
	r.GET("/ws", func(c *gin.Context) {
		c.Set("client_token", "tok-1")
		ctrl.HandleSignal(ctx, c)
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return ctrl, "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, data any) {
	t.Helper()
	env, err := protocol.NewEnvelope(typ, data)
	if err != nil {
		t.Fatalf("envelope: %v", err)
	}
	b, err := protocol.Encode(env, time.Now())
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func recv(t *testing.T, conn *websocket.Conn) protocol.Envelope {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	env, err := protocol.Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestAgentAnswersHandshakeAndPing(t *testing.T) {
	_, url := startAgent(t, Options{Name: "test-bot"})
	conn := dial(t, url)

	send(t, conn, protocol.TypeClientReady, protocol.ReadyData{Version: "1.0.0"})
	env := recv(t, conn)
	if env.Type != protocol.TypeBotReady || env.Label != protocol.Label {
		t.Fatalf("got %s/%s, want bot-ready", env.Label, env.Type)
	}
	var ready BotReadyData
	if err := env.DecodeData(&ready); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if ready.Version != "1.0.0" || ready.Name != "test-bot" {
		t.Fatalf("payload = %+v", ready)
	}

	send(t, conn, protocol.TypePing, nil)
	if env := recv(t, conn); env.Type != protocol.TypePong {
		t.Fatalf("got %s, want pong", env.Type)
	}
}

func TestAgentEchoesUserText(t *testing.T) {
	_, url := startAgent(t, Options{})
	conn := dial(t, url)

	send(t, conn, protocol.TypeUserText, map[string]string{"text": "hello"})

	env := recv(t, conn)
	var tr protocol.Transcript
	if env.Type != protocol.TypeUserTranscript || env.DecodeData(&tr) != nil {
		t.Fatalf("got %s", env.Type)
	}
	if tr.Text != "hello" || !tr.Final || tr.UserID != "tok-1" {
		t.Fatalf("transcript = %+v", tr)
	}

	env = recv(t, conn)
	var bt protocol.BotText
	if env.Type != protocol.TypeBotLLMText || env.DecodeData(&bt) != nil || bt.Text != "hello" {
		t.Fatalf("got %s %+v", env.Type, bt)
	}
}

func TestAgentRateLimitsUserText(t *testing.T) {
	_, url := startAgent(t, Options{TextLimit: 1, TextWindow: time.Minute})
	conn := dial(t, url)

	send(t, conn, protocol.TypeUserText, map[string]string{"text": "one"})
	recv(t, conn)
	recv(t, conn)

	send(t, conn, protocol.TypeUserText, map[string]string{"text": "two"})
	env := recv(t, conn)
	var e protocol.ErrorData
	if env.Type != protocol.TypeError || env.DecodeData(&e) != nil || e.Message != "rate limited" {
		t.Fatalf("got %s %+v", env.Type, e)
	}
}

func TestAgentPingLoop(t *testing.T) {
	_, url := startAgent(t, Options{PingPeriod: 20 * time.Millisecond})
	conn := dial(t, url)
	if env := recv(t, conn); env.Type != protocol.TypePing {
		t.Fatalf("got %s, want ping", env.Type)
	}
}

func TestCloseAllDropsClients(t *testing.T) {
	ctrl, url := startAgent(t, Options{})
	conn := dial(t, url)

	send(t, conn, protocol.TypePing, nil)
	recv(t, conn)
	if ctrl.Active() != 1 {
		t.Fatalf("active = %d", ctrl.Active())
	}

	ctrl.CloseAll()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatal("read after CloseAll should fail")
	}
	deadline := time.Now().Add(2 * time.Second)
	for ctrl.Active() != 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if ctrl.Active() != 0 {
		t.Fatalf("active = %d after CloseAll", ctrl.Active())
	}
}

func TestTextRateLimiterWindow(t *testing.T) {
	now := time.Unix(1000, 0)
	rl := NewTextRateLimiter(2, 10*time.Second)
	rl.now = func() time.Time { return now }

	if !rl.Allow("a") || !rl.Allow("a") {
		t.Fatal("first two should pass")
	}
	if rl.Allow("a") {
		t.Fatal("third within window should be limited")
	}
	if !rl.Allow("b") {
		t.Fatal("limit is per client")
	}
	now = now.Add(11 * time.Second)
	if !rl.Allow("a") {
		t.Fatal("window should slide")
	}

	var unlimited *TextRateLimiter
	if !unlimited.Allow("x") {
		t.Fatal("nil limiter allows everything")
	}
}
