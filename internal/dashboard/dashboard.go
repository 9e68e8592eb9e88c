// Package dashboard serves the pages and the websocket each page mount talks
// to. Pages render on the server; the browser only runs a small shim that
// forwards events and applies effects.
package dashboard

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/login"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/session"
	"github.com/leisambientais/leischat/internal/tables"
)

// API is everything the pages call on the backend.
type API interface {
	session.ChatAPI
	login.Authenticator
	tables.Generator
}

// Options configures the pages.
type Options struct {
	Title string
	// Chat is the template of every chat mount; the user id comes from the
	// websocket query string.
	Chat session.ChatOptions
	// LoginRedirect is where a successful login leads.
	LoginRedirect string
}

// Dashboard serves the chat, login and tables pages.
type Dashboard struct {
	api   API
	prefs *prefs.Store
	opts  Options

	mu     sync.Mutex
	mounts map[string]string // mount id -> page name
}

// New creates a Dashboard. store may be nil.
func New(api API, store *prefs.Store, opts Options) *Dashboard {
	if opts.Title == "" {
		opts.Title = "Leis Ambientais"
	}
	if opts.LoginRedirect == "" {
		opts.LoginRedirect = login.DefaultRedirect
	}
	opts.Chat.Prefs = store
	return &Dashboard{
		api:    api,
		prefs:  store,
		opts:   opts,
		mounts: make(map[string]string),
	}
}

// RegisterRoutes mounts all dashboard routes onto the given router.
func (d *Dashboard) RegisterRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/", d.servePage(session.PageLogin))
		r.Get("/dashboard", d.servePage(session.PageChat))
		r.Get("/tabelas", d.servePage(session.PageTables))
		r.Get("/static/app.js", serveStatic("static/app.js", "application/javascript"))
		r.Get("/static/style.css", serveStatic("static/style.css", "text/css"))
		r.Get("/api/dashboard/stats", d.handleStats)
	})
	r.Get("/ws", d.handleWebSocket)
}

// newPage builds a fresh mount of the named page.
func (d *Dashboard) newPage(name, userID string) (session.Page, error) {
	switch name {
	case session.PageChat:
		opts := d.opts.Chat
		opts.UserID = userID
		opts.Lazy = opts.Lazy && userID != ""
		return session.NewChat(d.api, opts), nil
	case session.PageLogin:
		return session.NewLogin(d.api, d.opts.LoginRedirect), nil
	case session.PageTables:
		return session.NewTables(d.api, userID, d.prefs), nil
	default:
		return nil, fmt.Errorf("unknown page %q", name)
	}
}

// track records an active mount and returns its id.
func (d *Dashboard) track(page string) string {
	id := uuid.NewString()
	d.mu.Lock()
	d.mounts[id] = page
	d.mu.Unlock()
	return id
}

func (d *Dashboard) untrack(id string) {
	d.mu.Lock()
	delete(d.mounts, id)
	d.mu.Unlock()
}

// ActiveMounts returns the number of open mounts per page.
func (d *Dashboard) ActiveMounts() map[string]int {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make(map[string]int)
	for _, page := range d.mounts {
		out[page]++
	}
	return out
}

var _ API = (*backend.Client)(nil)
