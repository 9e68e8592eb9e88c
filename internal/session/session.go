// Package session holds the per-mount state of each page. A page owns its
// controllers, a dispatch table and an outbox; every event and every network
// completion is applied while holding the page lock, then the affected part
// of the page is queued for rendering.
package session

import (
	"context"
	"sync"

	"github.com/leisambientais/leischat/internal/ui"
)

// Page names accepted by the dashboard.
const (
	PageChat   = "chat"
	PageLogin  = "login"
	PageTables = "tables"
)

// Page is one mounted UI.
type Page interface {
	// Mount queues the initial rendering. Network calls made while mounting
	// use ctx, which lives as long as the mount.
	Mount(ctx context.Context) error
	// Dispatch applies one browser event.
	Dispatch(ctx context.Context, ev ui.Event) error
	// Outbox returns the queue of effects for the browser.
	Outbox() *ui.Outbox
	// Wait blocks until background requests started by the page finish.
	Wait()
}

// tasks runs network calls off the page lock.
type tasks struct {
	wg sync.WaitGroup
}

func (t *tasks) run(fn func()) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		fn()
	}()
}

func (t *tasks) wait() {
	t.wg.Wait()
}
