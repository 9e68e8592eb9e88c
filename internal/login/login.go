// Package login is the login form.
package login

import (
	"context"
	"log"
	"strings"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/view"
)

// Messages shown by the form.
const (
	MsgMissingFields = "Preencha o email e a senha."
	MsgGeneric       = "Ocorreu um erro."
	MsgConnection    = "Não foi possível conectar ao servidor."
)

// DefaultRedirect is where a successful login leads.
const DefaultRedirect = "/dashboard"

// IDForm is the id of the rendered form.
const IDForm = "login-form"

// Authenticator checks credentials.
type Authenticator interface {
	Login(ctx context.Context, creds backend.Credentials) (*backend.LoginResult, error)
}

// Form is the login form of one UI mount.
type Form struct {
	api      Authenticator
	redirect string

	email   string
	message string
	pending bool
	userID  string
}

// New creates an empty form. An empty redirect uses DefaultRedirect.
func New(api Authenticator, redirect string) *Form {
	if redirect == "" {
		redirect = DefaultRedirect
	}
	return &Form{api: api, redirect: redirect}
}

// Message returns the error line under the form.
func (f *Form) Message() string { return f.message }

// Email returns the trimmed email of the last attempt.
func (f *Form) Email() string { return f.email }

// UserID returns the user of the last successful login.
func (f *Form) UserID() string { return f.userID }

// Pending reports whether a request is in flight.
func (f *Form) Pending() bool { return f.pending }

// Begin validates creds and marks the form busy. It returns false when
// nothing should be sent.
func (f *Form) Begin(creds backend.Credentials) bool {
	if f.pending {
		return false
	}
	f.message = ""
	f.email = strings.TrimSpace(creds.Email)
	if f.email == "" || creds.Password == "" {
		f.message = MsgMissingFields
		return false
	}
	f.pending = true
	return true
}

// Finish applies the login outcome and returns the redirect target on
// success, or "" when the form stays.
func (f *Form) Finish(res *backend.LoginResult, err error) string {
	f.pending = false
	switch {
	case err != nil:
		log.Printf("login: %v", err)
		f.message = MsgConnection
		return ""
	case !res.OK:
		f.message = res.Message
		if f.message == "" {
			f.message = MsgGeneric
		}
		return ""
	}
	f.userID = res.UserID
	if f.userID == "" {
		f.userID = f.email
	}
	return f.redirect
}

// Submit runs a whole login synchronously.
func (f *Form) Submit(ctx context.Context, creds backend.Credentials) string {
	if !f.Begin(creds) {
		return ""
	}
	creds.Email = f.email
	res, err := f.api.Login(ctx, creds)
	return f.Finish(res, err)
}

// View renders the form.
func (f *Form) View() *view.Node {
	button := view.El("button", "login-btn").Set("type", "submit").WithText("Entrar")
	if f.pending {
		button.Set("disabled", "disabled").WithText("Entrando...")
	}
	return view.El("form", "login-form").WithID(IDForm).
		On("submit", "login:submit", "").
		Append(
			view.El("h1").WithText("Leis Ambientais"),
			view.El("label").Set("for", "email").WithText("Email"),
			view.El("input").WithID("email").Set("type", "email").Set("name", "email").Set("value", f.email),
			view.El("label").Set("for", "password").WithText("Senha"),
			view.El("input").WithID("password").Set("type", "password").Set("name", "password"),
			view.El("div", "error-message").WithID("error-message").WithText(f.message),
			button,
		)
}
