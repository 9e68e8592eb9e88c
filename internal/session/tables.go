package session

import (
	"context"
	"errors"
	"log"
	"sync"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/tables"
	"github.com/leisambientais/leischat/internal/ui"
)

// TablesPage is one mount of the table generator.
type TablesPage struct {
	mu     sync.Mutex
	api    tables.Generator
	userID string
	prefs  *prefs.Store

	Form *tables.Form

	out    *ui.Outbox
	routes *ui.Dispatcher
	bg     tasks
}

// NewTables builds a tables page. store may be nil, in which case the theme
// is not remembered.
func NewTables(api tables.Generator, userID string, store *prefs.Store) *TablesPage {
	p := &TablesPage{
		api:    api,
		userID: userID,
		prefs:  store,
		Form:   tables.New(api),
		out:    ui.NewOutbox(),
		routes: ui.NewDispatcher(),
	}
	p.routes.Handle("tables", "method", p.method)
	p.routes.Handle("tables", "theme", p.theme)
	p.routes.Handle("tables", "describe", p.describe)
	p.routes.Handle("tables", "generate", p.generate)
	p.routes.Handle("tables", "download", p.download)
	return p
}

// Outbox returns the page's effect queue.
func (p *TablesPage) Outbox() *ui.Outbox { return p.out }

// Wait blocks until generations and downloads in flight have been applied.
func (p *TablesPage) Wait() { p.bg.wait() }

// Mount restores the saved theme, renders the form and loads the source
// counters in the background.
func (p *TablesPage) Mount(ctx context.Context) error {
	p.mu.Lock()
	if p.prefs != nil {
		p.Form.SetTheme(p.prefs.GetDefault(ctx, p.userID, prefs.KeyTheme, tables.ThemeDark))
	}
	p.flush()
	p.mu.Unlock()

	p.bg.run(func() {
		src, err := p.api.Sources(ctx)
		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			log.Printf("session: loading sources: %v", err)
			return
		}
		p.Form.SetSources(src)
		p.flush()
	})
	return nil
}

// Dispatch copies the submitted fields into the form, applies ev and queues
// the updated form.
func (p *TablesPage) Dispatch(ctx context.Context, ev ui.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Form.ApplyForm(ev.Form)
	err := p.routes.Dispatch(ctx, ev)
	p.flush()
	return err
}

func (p *TablesPage) flush() {
	p.out.Render(p.Form.View())
}

func (p *TablesPage) method(_ context.Context, ev ui.Event) error {
	p.Form.SetMethod(ev.Target)
	return nil
}

func (p *TablesPage) theme(ctx context.Context, _ ui.Event) error {
	next := tables.ThemeLight
	if p.Form.Theme == tables.ThemeLight {
		next = tables.ThemeDark
	}
	p.Form.SetTheme(next)
	if p.prefs != nil {
		return p.prefs.Set(ctx, p.userID, prefs.KeyTheme, next)
	}
	return nil
}

func (p *TablesPage) describe(_ context.Context, ev ui.Event) error {
	p.Form.Describe(ev.Value)
	return nil
}

func (p *TablesPage) generate(ctx context.Context, ev ui.Event) error {
	kind := backend.TableKind(ev.Target)
	if kind != backend.TableSummary {
		kind = backend.TableStructure
	}
	req, err := p.Form.Begin(kind)
	if err != nil {
		var ve *tables.ValidationError
		if errors.As(err, &ve) || errors.Is(err, tables.ErrBusy) {
			return nil
		}
		return err
	}
	p.bg.run(func() {
		data, err := p.api.GenerateTable(ctx, req)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Form.Finish(kind, data, err)
		p.flush()
	})
	return nil
}

func (p *TablesPage) download(ctx context.Context, ev ui.Event) error {
	req, err := p.Form.DownloadRequest(ev.Target)
	if err != nil {
		return nil
	}
	p.bg.run(func() {
		data, err := p.api.DownloadTable(ctx, req)
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Form.Downloaded(req.Format, err)
		if err == nil {
			p.out.Download(p.Form.FileName(req.Format), data)
		}
		p.flush()
	})
	return nil
}
