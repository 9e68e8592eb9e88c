package dashboard

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/mockapi"
	"github.com/leisambientais/leischat/internal/ui"
	"github.com/leisambientais/leischat/internal/view"
)

func setupTest(t *testing.T) (*mockapi.API, *httptest.Server) {
	t.Helper()

	api := mockapi.New()
	backendSrv := httptest.NewServer(api.Router())
	t.Cleanup(backendSrv.Close)

	d := New(backend.NewClient(backendSrv.URL), nil, Options{})
	r := chi.NewRouter()
	d.RegisterRoutes(r)
	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return api, server
}

func dial(t *testing.T, server *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?" + query
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("websocket dial: %v", err)
	}
	if resp.StatusCode != http.StatusSwitchingProtocols {
		t.Fatalf("expected 101, got %d", resp.StatusCode)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

// readUntil reads effects until match returns true.
func readUntil(t *testing.T, conn *websocket.Conn, match func(ui.Effect) bool) ui.Effect {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		var e ui.Effect
		if err := conn.ReadJSON(&e); err != nil {
			t.Fatalf("reading effect: %v", err)
		}
		if match(e) {
			return e
		}
	}
}

func TestPagesServeShell(t *testing.T) {
	_, server := setupTest(t)

	tests := []struct {
		path string
		want string
	}{
		{"/", `<div id="login-form">`},
		{"/dashboard", `<div id="app">`},
		{"/tabelas", `<div id="tables-app">`},
	}
	for _, tt := range tests {
		resp, err := http.Get(server.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("%s: status %d", tt.path, resp.StatusCode)
		}
		if !strings.Contains(string(body), tt.want) || !strings.Contains(string(body), "/static/app.js") {
			t.Errorf("%s: shell missing root or script: %s", tt.path, body)
		}
	}

	resp, err := http.Get(server.URL + "/static/app.js")
	if err != nil {
		t.Fatalf("GET app.js: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("app.js: status %d", resp.StatusCode)
	}
}

func TestShimAppliesEveryEffect(t *testing.T) {
	data, err := staticFS.ReadFile("static/app.js")
	if err != nil {
		t.Fatal(err)
	}
	js := string(data)
	for _, typ := range []string{ui.EffectRender, ui.EffectFocus, ui.EffectReload, ui.EffectRedirect, ui.EffectAlert, ui.EffectDownload, ui.EffectValue} {
		if !strings.Contains(js, "case '"+typ+"'") {
			t.Errorf("app.js does not handle %q effects", typ)
		}
	}
	// Shift+Enter must reach the textarea as a newline.
	if !strings.Contains(js, "if (e.key !== 'Enter' || e.shiftKey) return;") {
		t.Error("app.js forwards Shift+Enter")
	}
}

func TestWebSocketUnknownPage(t *testing.T) {
	_, server := setupTest(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws?page=nope"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", resp)
	}
}

func TestWebSocketChatRoundTrip(t *testing.T) {
	api, server := setupTest(t)
	conn := dial(t, server, "page=chat")

	first := readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectRender })
	if first.Target != view.IDApp || !strings.Contains(first.HTML, "Olá! Como posso ajudar você hoje?") {
		t.Fatalf("unexpected first render %+v", first)
	}

	ev := ui.Event{Component: "composer", Name: "submit", Value: "Qual a legislação aplicável?"}
	if err := conn.WriteJSON(ev); err != nil {
		t.Fatalf("write: %v", err)
	}
	readUntil(t, conn, func(e ui.Effect) bool {
		return e.Type == ui.EffectRender && strings.Contains(e.HTML, "Recebido: Qual a legislação aplicável?")
	})
	if n := len(api.Calls(http.MethodPost, "/ask-ia")); n != 1 {
		t.Errorf("expected one ask, got %d", n)
	}
}

func TestWebSocketUnknownEventAlerts(t *testing.T) {
	_, server := setupTest(t)
	conn := dial(t, server, "page=chat")
	readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectRender })

	conn.WriteJSON(ui.Event{Component: "composer", Name: "explode"})
	alert := readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectAlert })
	if alert.Message != MsgUnknownEvent {
		t.Errorf("alert %q", alert.Message)
	}

	conn.WriteMessage(websocket.TextMessage, []byte("{not json"))
	alert = readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectAlert })
	if alert.Message != MsgInvalidEvent {
		t.Errorf("alert %q", alert.Message)
	}

	// The mount is still alive.
	conn.WriteJSON(ui.Event{Component: "newchat", Name: "click"})
	readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectFocus })
}

func TestWebSocketLoginRedirect(t *testing.T) {
	api, server := setupTest(t)
	api.AddUser("ana@exemplo.com", "segredo")
	conn := dial(t, server, "page=login")
	readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectRender })

	conn.WriteJSON(ui.Event{Component: "login", Name: "submit", Form: map[string]string{
		"email": "ana@exemplo.com", "password": "segredo",
	}})
	redirect := readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectRedirect })
	if redirect.Location != "/dashboard?user=ana%40exemplo.com" {
		t.Errorf("location %q", redirect.Location)
	}
}

func TestStatsEndpoint(t *testing.T) {
	_, server := setupTest(t)
	conn := dial(t, server, "page=tables")
	readUntil(t, conn, func(e ui.Effect) bool { return e.Type == ui.EffectRender })

	resp, err := http.Get(server.URL + "/api/dashboard/stats")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	defer resp.Body.Close()

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
	if stats.Total != 1 || stats.ActiveMounts["tables"] != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
