package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dkeye/VoiceLink/internal/adapters/agent"
	"github.com/dkeye/VoiceLink/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{Mode: "release", Agent: config.Agent{Secret: "test-secret-0123456789"}}
}

func TestHealthzSetsClientCookie(t *testing.T) {
	r := SetupRouter(context.Background(), testConfig(), agent.NewController(agent.Options{}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Clients int    `json:"clients"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Clients != 0 {
		t.Fatalf("body = %+v", body)
	}

	found := false
	for _, c := range w.Result().Cookies() {
		if c.Name == sessionName {
			found = true
		}
	}
	if !found {
		t.Fatal("session cookie not set")
	}
}
