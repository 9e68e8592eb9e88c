package login

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/mockapi"
)

func TestLoginForm(t *testing.T) {
	api := mockapi.New()
	api.AddUser("ana@example.com", "segredo")
	ts := httptest.NewServer(api.Router())
	defer ts.Close()
	client := backend.NewClient(ts.URL)

	tests := []struct {
		name     string
		creds    backend.Credentials
		redirect string
		message  string
		requests int
	}{
		{"empty email", backend.Credentials{Password: "x"}, "", MsgMissingFields, 0},
		{"empty password", backend.Credentials{Email: "ana@example.com"}, "", MsgMissingFields, 0},
		{"wrong password", backend.Credentials{Email: "ana@example.com", Password: "x"}, "", "Email ou senha inválidos.", 1},
		{"success", backend.Credentials{Email: " ana@example.com ", Password: "segredo"}, DefaultRedirect, "", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := len(api.Calls(http.MethodPost, "/login"))
			f := New(client, "")
			got := f.Submit(context.Background(), tt.creds)
			if got != tt.redirect {
				t.Errorf("redirect %q, want %q", got, tt.redirect)
			}
			if f.Message() != tt.message {
				t.Errorf("message %q, want %q", f.Message(), tt.message)
			}
			if n := len(api.Calls(http.MethodPost, "/login")) - before; n != tt.requests {
				t.Errorf("requests %d, want %d", n, tt.requests)
			}
		})
	}
}

func TestLoginGenericAndConnectionErrors(t *testing.T) {
	api := mockapi.New()
	api.Fail(http.MethodPost, "/login", http.StatusInternalServerError)
	ts := httptest.NewServer(api.Router())

	f := New(backend.NewClient(ts.URL), "/chat")
	f.Submit(context.Background(), backend.Credentials{Email: "a@b.c", Password: "p"})
	if f.Message() != "falha simulada" {
		t.Errorf("server message should be shown verbatim, got %q", f.Message())
	}

	if got := f.Finish(&backend.LoginResult{}, nil); got != "" || f.Message() != MsgGeneric {
		t.Errorf("expected generic message, got %q", f.Message())
	}

	ts.Close()
	f.Submit(context.Background(), backend.Credentials{Email: "a@b.c", Password: "p"})
	if f.Message() != MsgConnection {
		t.Errorf("expected connection message, got %q", f.Message())
	}
}

func TestLoginViewKeepsEmailAndShowsMessage(t *testing.T) {
	f := New(nil, "")
	f.Begin(backend.Credentials{Email: "ana@example.com"})
	html := f.View().HTML()
	if !strings.Contains(html, `value="ana@example.com"`) {
		t.Error("email should be kept")
	}
	if !strings.Contains(html, MsgMissingFields) {
		t.Error("message should be rendered")
	}
	if !strings.Contains(html, `data-on-submit="login:submit"`) {
		t.Error("form should be wired to login:submit")
	}
}
