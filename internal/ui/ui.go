// Package ui is the event plumbing between a page and its browser: events
// come in, are routed through a dispatch table, and handlers queue effects
// on an outbox.
package ui

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/leisambientais/leischat/internal/view"
)

// ErrUnknownRoute is returned for events no handler is registered for.
var ErrUnknownRoute = errors.New("ui: unknown route")

// File is a file picked or dropped in the browser.
type File struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
	Data []byte `json:"data"` // base64 on the wire
}

// Event is a user action forwarded by the browser.
type Event struct {
	Component string            `json:"component"`
	Name      string            `json:"event"`
	Target    string            `json:"target,omitempty"` // conversation key or other handle
	Value     string            `json:"value,omitempty"`
	Key       string            `json:"key,omitempty"`
	Shift     bool              `json:"shift,omitempty"`
	Form      map[string]string `json:"form,omitempty"`
	File      *File             `json:"file,omitempty"`
}

// Route returns "component:event".
func (e Event) Route() string {
	return e.Component + ":" + e.Name
}

// Handler handles one routed event.
type Handler func(ctx context.Context, ev Event) error

// Dispatcher maps (component, event) pairs to handlers.
type Dispatcher struct {
	routes map[string]Handler
}

// NewDispatcher creates an empty dispatch table.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{routes: make(map[string]Handler)}
}

// Handle registers h for component and event.
func (d *Dispatcher) Handle(component, event string, h Handler) {
	d.routes[component+":"+event] = h
}

// Routes returns the number of registered routes.
func (d *Dispatcher) Routes() int {
	return len(d.routes)
}

// Dispatch runs the handler registered for ev.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) error {
	h, ok := d.routes[ev.Route()]
	if !ok {
		return fmt.Errorf("%s: %w", ev.Route(), ErrUnknownRoute)
	}
	return h(ctx, ev)
}

// Effect kinds.
const (
	EffectRender   = "render"
	EffectFocus    = "focus"
	EffectReload   = "reload"
	EffectRedirect = "redirect"
	EffectAlert    = "alert"
	EffectDownload = "download"
	EffectValue    = "value"
)

// Effect is a UI instruction sent to the browser.
type Effect struct {
	Type     string `json:"type"`
	HTML     string `json:"html,omitempty"`
	Target   string `json:"target,omitempty"`
	Location string `json:"location,omitempty"`
	Message  string `json:"message,omitempty"`
	FileName string `json:"filename,omitempty"`
	Data     []byte `json:"data,omitempty"`
	Value    string `json:"value,omitempty"`
}

// Outbox collects effects until the transport drains them. It is safe for
// concurrent use; Notify is signalled whenever something is queued.
type Outbox struct {
	mu      sync.Mutex
	effects []Effect
	notify  chan struct{}
}

// NewOutbox creates an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{notify: make(chan struct{}, 1)}
}

func (o *Outbox) push(e Effect) {
	o.mu.Lock()
	o.effects = append(o.effects, e)
	o.mu.Unlock()
	select {
	case o.notify <- struct{}{}:
	default:
	}
}

// Render replaces the element with n's id by n.
func (o *Outbox) Render(n *view.Node) {
	o.push(Effect{Type: EffectRender, Target: n.ID, HTML: n.HTML()})
}

// RenderInto replaces the contents of the element with id target.
func (o *Outbox) RenderInto(target string, n *view.Node) {
	html := ""
	if n != nil {
		html = n.HTML()
	}
	o.push(Effect{Type: EffectRender, Target: target, HTML: html})
}

// Focus moves the keyboard focus to the element with id.
func (o *Outbox) Focus(id string) {
	o.push(Effect{Type: EffectFocus, Target: id})
}

// SetValue replaces the value of the form field with id, leaving the rest of
// the page alone.
func (o *Outbox) SetValue(id, value string) {
	o.push(Effect{Type: EffectValue, Target: id, Value: value})
}

// Reload reloads the page.
func (o *Outbox) Reload() {
	o.push(Effect{Type: EffectReload})
}

// Redirect navigates to url.
func (o *Outbox) Redirect(url string) {
	o.push(Effect{Type: EffectRedirect, Location: url})
}

// Alert shows a blocking message.
func (o *Outbox) Alert(msg string) {
	o.push(Effect{Type: EffectAlert, Message: msg})
}

// Download hands a file to the browser.
func (o *Outbox) Download(name string, data []byte) {
	o.push(Effect{Type: EffectDownload, FileName: name, Data: data})
}

// Drain returns and clears the queued effects.
func (o *Outbox) Drain() []Effect {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.effects
	o.effects = nil
	return out
}

// Notify is signalled after effects are queued.
func (o *Outbox) Notify() <-chan struct{} {
	return o.notify
}
