package session

import (
	"context"
	"net/url"
	"sync"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/login"
	"github.com/leisambientais/leischat/internal/ui"
)

// LoginPage is one mount of the login page.
type LoginPage struct {
	mu  sync.Mutex
	api login.Authenticator

	Form *login.Form

	out    *ui.Outbox
	routes *ui.Dispatcher
	bg     tasks
}

// NewLogin builds a login page. A successful login redirects to redirect
// with the user id in the query string.
func NewLogin(api login.Authenticator, redirect string) *LoginPage {
	p := &LoginPage{
		api:    api,
		Form:   login.New(api, redirect),
		out:    ui.NewOutbox(),
		routes: ui.NewDispatcher(),
	}
	p.routes.Handle("login", "submit", p.submit)
	return p
}

// Outbox returns the page's effect queue.
func (p *LoginPage) Outbox() *ui.Outbox { return p.out }

// Wait blocks until a login request in flight has been applied.
func (p *LoginPage) Wait() { p.bg.wait() }

// Mount queues the empty form.
func (p *LoginPage) Mount(_ context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out.Render(p.Form.View())
	return nil
}

// Dispatch applies ev and queues the updated form.
func (p *LoginPage) Dispatch(ctx context.Context, ev ui.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.routes.Dispatch(ctx, ev)
	p.out.Render(p.Form.View())
	return err
}

func (p *LoginPage) submit(ctx context.Context, ev ui.Event) error {
	creds := backend.Credentials{Email: ev.Form["email"], Password: ev.Form["password"]}
	if !p.Form.Begin(creds) {
		return nil
	}
	creds.Email = p.Form.Email()
	p.bg.run(func() {
		res, err := p.api.Login(ctx, creds)
		p.mu.Lock()
		defer p.mu.Unlock()
		if to := p.Form.Finish(res, err); to != "" {
			p.out.Redirect(withUser(to, p.Form.UserID()))
			return
		}
		p.out.Render(p.Form.View())
	})
	return nil
}

func withUser(target, userID string) string {
	if userID == "" {
		return target
	}
	u, err := url.Parse(target)
	if err != nil {
		return target
	}
	q := u.Query()
	q.Set("user", userID)
	u.RawQuery = q.Encode()
	return u.String()
}
