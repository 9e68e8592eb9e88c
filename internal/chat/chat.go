// Package chat implements the send-message protocol: user input goes into the
// conversation store, is sent to the backend with the full history, and the
// reply (or a fallback) is appended when the call resolves.
package chat

import (
	"context"
	"log"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/view"
)

const (
	// DefaultGreeting seeds every new conversation.
	DefaultGreeting = "Olá! Como posso ajudar você hoje?"
	// DefaultFallback replaces the reply when the backend call fails.
	DefaultFallback = "Desculpe, ocorreu um erro ao tentar conectar-me à IA."
	// TitleLength is the number of characters kept when deriving a title.
	TitleLength = 28
)

// Asker sends a chat history to the backend.
type Asker interface {
	Ask(ctx context.Context, req backend.AskRequest) (*backend.AskResponse, error)
}

// List is the part of the sidebar the chat drives.
type List interface {
	Created(key string)
	SetTitle(key, title string) bool
	AttachBackendID(key, id string) error
}

// Controller runs the send protocol for one UI mount.
type Controller struct {
	store    *conversation.Store
	list     List
	messages *view.MessageView
	doc      *view.ChatDocument
	api      Asker

	greeting string
	fallback string

	ui       sync.Locker
	onUpdate func(key string)

	queuesMu sync.Mutex
	queues   map[string][]*Exchange // pending sends per conversation, oldest first
}

// Option configures a Controller.
type Option func(*Controller)

// WithGreeting overrides the seeded assistant greeting.
func WithGreeting(s string) Option {
	return func(c *Controller) {
		if s != "" {
			c.greeting = s
		}
	}
}

// WithFallback overrides the message shown when the backend call fails.
func WithFallback(s string) Option {
	return func(c *Controller) {
		if s != "" {
			c.fallback = s
		}
	}
}

// WithUILock sets the lock guarding the mount's view. Deliver takes it
// before touching the store or the view.
func WithUILock(l sync.Locker) Option {
	return func(c *Controller) { c.ui = l }
}

// WithOnUpdate registers fn, called with the UI lock held after a reply (or
// fallback) was applied.
func WithOnUpdate(fn func(key string)) Option {
	return func(c *Controller) { c.onUpdate = fn }
}

// New creates a chat controller.
func New(store *conversation.Store, list List, doc *view.ChatDocument, messages *view.MessageView, api Asker, opts ...Option) *Controller {
	c := &Controller{
		store:    store,
		list:     list,
		messages: messages,
		doc:      doc,
		api:      api,
		greeting: DefaultGreeting,
		fallback: DefaultFallback,
		ui:       &sync.Mutex{},
		queues:   make(map[string][]*Exchange),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewChat creates a conversation seeded with the greeting, lists it, makes
// it current and shows it.
func (c *Controller) NewChat() string {
	key := c.store.Create(conversation.Message{Role: conversation.RoleAssistant, Content: c.greeting})
	c.list.Created(key)
	c.store.SetCurrent(key)
	conv, _ := c.store.Get(key)
	c.messages.Show(conv.Messages)
	return key
}

// KeyDown applies the composer key binding. Enter submits unless Shift is
// held, in which case a newline is inserted.
func (c *Controller) KeyDown(key string, shift bool) (submit bool) {
	if key != "Enter" {
		return false
	}
	if shift {
		c.doc.SetInputValue(c.doc.InputValue() + "\n")
		return false
	}
	return true
}

// Exchange is a submitted user turn waiting for its reply.
type Exchange struct {
	Key     string
	History []backend.Message // snapshot taken at submission

	done chan struct{}
}

// Done is closed once the reply (or fallback) of the exchange was applied.
func (ex *Exchange) Done() <-chan struct{} { return ex.done }

// Submit runs the synchronous part of a send: it appends and shows the user
// turn, clears the input and derives the title. The caller must hold the UI
// lock. Blank text is ignored.
func (c *Controller) Submit(text string) (*Exchange, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, false
	}

	key, ok := c.store.Current()
	if !ok {
		key = c.NewChat()
	}

	c.store.Append(key, conversation.RoleUser, text)
	c.messages.Add(conversation.RoleUser, text)
	c.doc.SetInputValue("")

	conv, _ := c.store.Get(key)
	if conv.UserTurns() == 1 && conv.Title == c.store.DefaultTitle() {
		c.list.SetTitle(key, DeriveTitle(text))
	}

	history := make([]backend.Message, 0, len(conv.Messages))
	for _, m := range conv.Messages {
		history = append(history, backend.Message{Role: string(m.Role), Content: m.Content})
	}
	return &Exchange{Key: key, History: history, done: make(chan struct{})}, true
}

// Queue appends ex to the pending sends of its conversation. It returns true
// when no worker is draining that conversation, in which case the caller
// must run Drain. Call it in submission order, under the UI lock, so the
// queue keeps the order the user sent in.
func (c *Controller) Queue(ex *Exchange) (start bool) {
	c.queuesMu.Lock()
	defer c.queuesMu.Unlock()
	q, running := c.queues[ex.Key]
	c.queues[ex.Key] = append(q, ex)
	return !running
}

// next pops the oldest pending send of key. The queue entry is removed once
// it is empty, which also ends the worker.
func (c *Controller) next(key string) (*Exchange, bool) {
	c.queuesMu.Lock()
	defer c.queuesMu.Unlock()
	q := c.queues[key]
	if len(q) == 0 {
		delete(c.queues, key)
		return nil, false
	}
	c.queues[key] = q[1:]
	return q[0], true
}

// Pending returns the number of conversations with sends in flight.
func (c *Controller) Pending() int {
	c.queuesMu.Lock()
	defer c.queuesMu.Unlock()
	return len(c.queues)
}

// Drain delivers the queued sends of key one at a time, oldest first, until
// the queue is empty. Each request reads the backend id after the previous
// reply was applied. Must be called without the UI lock.
func (c *Controller) Drain(ctx context.Context, key string) {
	for {
		ex, ok := c.next(key)
		if !ok {
			return
		}
		c.deliver(ctx, ex)
	}
}

// Deliver queues ex and drains its conversation on the calling goroutine
// when no other worker does. Must be called without the UI lock.
func (c *Controller) Deliver(ctx context.Context, ex *Exchange) {
	if c.Queue(ex) {
		c.Drain(ctx, ex.Key)
	}
}

func (c *Controller) deliver(ctx context.Context, ex *Exchange) {
	defer close(ex.done)
	if _, ok := c.store.Get(ex.Key); !ok {
		// Deleted while queued.
		return
	}

	req := backend.AskRequest{History: ex.History}
	if id := c.store.BackendID(ex.Key); id != "" {
		req.ConversationID = &id
	}

	resp, err := c.api.Ask(ctx, req)

	c.ui.Lock()
	defer c.ui.Unlock()
	c.finish(ex.Key, resp, err)
	if c.onUpdate != nil {
		c.onUpdate(ex.Key)
	}
}

func (c *Controller) finish(key string, resp *backend.AskResponse, err error) {
	reply := c.fallback
	if err != nil {
		log.Printf("chat: ask %s: %v", key, err)
	} else {
		reply = resp.Response
		if resp.ConversationID != "" && c.store.BackendID(key) == "" {
			if err := c.list.AttachBackendID(key, resp.ConversationID); err != nil {
				log.Printf("chat: attach %s: %v", key, err)
			}
		}
	}

	if !c.store.Append(key, conversation.RoleAssistant, reply) {
		// Deleted while the request was in flight.
		return
	}
	if c.store.IsCurrent(key) {
		c.messages.Add(conversation.RoleAssistant, reply)
	}
}

// Send submits text and waits for the reply.
func (c *Controller) Send(ctx context.Context, text string) (key string, sent bool) {
	c.ui.Lock()
	ex, ok := c.Submit(text)
	start := ok && c.Queue(ex)
	c.ui.Unlock()
	if !ok {
		return "", false
	}
	if start {
		c.Drain(ctx, ex.Key)
	}
	<-ex.done
	return ex.Key, true
}

// DeriveTitle shortens the first user message into a conversation title.
func DeriveTitle(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	if utf8.RuneCountInString(text) <= TitleLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:TitleLength]) + "…"
}
