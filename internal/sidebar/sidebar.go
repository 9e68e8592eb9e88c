// Package sidebar keeps the rendered conversation list in step with the
// conversation store and handles select, rename and delete.
package sidebar

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/view"
)

// Messages shown around deletion.
const (
	ConfirmDelete = "Tem certeza que deseja excluir este chat? Esta ação não pode ser desfeita."
	MsgDeleteFail = "Erro ao excluir chat. Tente novamente."
)

// Backend is the part of the API the sidebar needs.
type Backend interface {
	Rename(ctx context.Context, conversationID, title string) error
	Delete(ctx context.Context, conversationID string) error
	Messages(ctx context.Context, conversationID string) ([]backend.Message, error)
}

// Controller owns the conversation list element.
type Controller struct {
	store    *conversation.Store
	list     *view.Node
	messages *view.MessageView
	api      Backend
	items    map[string]*view.Node

	// pending tracks fire-and-forget renames.
	pending sync.WaitGroup

	// renameMu guards titles and renaming. At most one PATCH per
	// conversation is in flight; titles holds the newest one still to send.
	renameMu sync.Mutex
	titles   map[string]string
	renaming map[string]bool
}

// New creates a sidebar bound to a list element and a message view.
func New(store *conversation.Store, list *view.Node, messages *view.MessageView, api Backend) *Controller {
	return &Controller{
		store:    store,
		list:     list,
		messages: messages,
		api:      api,
		items:    make(map[string]*view.Node),
		titles:   make(map[string]string),
		renaming: make(map[string]bool),
	}
}

func (c *Controller) newItem(key, title string) *view.Node {
	li := view.El("li", "chat-item").
		Set("data-key", key).
		On("click", "sidebar:select", key)
	li.Append(
		view.El("span", "chat-title").
			Set("contenteditable", "true").
			Set("data-on-blur", "sidebar:rename").
			Set("data-target", key).
			WithText(title),
		view.El("button", "delete-btn").
			Set("type", "button").
			Set("title", "Excluir").
			Set("data-confirm", ConfirmDelete).
			WithText("🗑").
			On("click", "sidebar:delete", key),
	)
	if id := c.store.BackendID(key); id != "" {
		li.Set("data-id", id)
	}
	return li
}

// Item returns the list item of key.
func (c *Controller) Item(key string) (*view.Node, bool) {
	li, ok := c.items[key]
	return li, ok
}

// Created prepends the item of a freshly created conversation and makes it
// the only active one.
func (c *Controller) Created(key string) {
	conv, ok := c.store.Get(key)
	if !ok {
		return
	}
	li := c.newItem(key, conv.Title)
	c.items[key] = li
	c.list.Prepend(li)
	c.activate(key)
}

// Loaded appends the item of a conversation loaded from the backend without
// activating it.
func (c *Controller) Loaded(key string) {
	if _, exists := c.items[key]; exists {
		return
	}
	conv, ok := c.store.Get(key)
	if !ok {
		return
	}
	li := c.newItem(key, conv.Title)
	c.items[key] = li
	c.list.Append(li)
}

func (c *Controller) activate(key string) {
	for k, li := range c.items {
		if k == key {
			li.AddClass("active")
		} else {
			li.RemoveClass("active")
		}
	}
}

func titleNode(li *view.Node) *view.Node {
	return li.First(func(n *view.Node) bool { return n.HasClass("chat-title") })
}

// SetTitle renames a conversation locally: store and displayed title only.
func (c *Controller) SetTitle(key, title string) bool {
	if !c.store.Rename(key, title) {
		return false
	}
	if li, ok := c.items[key]; ok {
		titleNode(li).Text = title
	}
	return true
}

// Rename applies a title typed by the user. Persisted conversations are also
// renamed on the backend in the background; failures there are logged only.
// It reports whether anything changed: blank titles restore the displayed
// title and an unchanged title is a no-op.
func (c *Controller) Rename(ctx context.Context, key, title string) bool {
	conv, ok := c.store.Get(key)
	if !ok {
		return false
	}
	title = strings.TrimSpace(title)
	if title == "" || title == conv.Title {
		if li, ok := c.items[key]; ok {
			titleNode(li).Text = conv.Title
		}
		return false
	}

	c.SetTitle(key, title)
	if conv.BackendID == "" || c.api == nil {
		return true
	}

	c.persistTitle(ctx, conv.BackendID, title)
	return true
}

// persistTitle queues title for id. Renames of one conversation reach the
// backend in order and intermediate titles typed during a slow request are
// skipped.
func (c *Controller) persistTitle(ctx context.Context, id, title string) {
	c.renameMu.Lock()
	c.titles[id] = title
	if c.renaming[id] {
		c.renameMu.Unlock()
		return
	}
	c.renaming[id] = true
	c.renameMu.Unlock()

	c.pending.Add(1)
	go func() {
		defer c.pending.Done()
		for {
			c.renameMu.Lock()
			title, ok := c.titles[id]
			if !ok {
				delete(c.renaming, id)
				c.renameMu.Unlock()
				return
			}
			delete(c.titles, id)
			c.renameMu.Unlock()

			if err := c.api.Rename(ctx, id, title); err != nil {
				log.Printf("sidebar: rename %s: %v", id, err)
			}
		}
	}()
}

// Wait blocks until background renames have finished.
func (c *Controller) Wait() {
	c.pending.Wait()
}

// AttachBackendID records the backend id of key in the store and on its item.
func (c *Controller) AttachBackendID(key, id string) error {
	if err := c.store.AttachBackendID(key, id); err != nil {
		return err
	}
	if li, ok := c.items[key]; ok {
		li.Set("data-id", id)
	}
	return nil
}

// DeleteRemote deletes the backend copy of key, when there is one.
func (c *Controller) DeleteRemote(ctx context.Context, key string) error {
	id := c.store.BackendID(key)
	if id == "" || c.api == nil {
		return nil
	}
	if err := c.api.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting conversation: %w", err)
	}
	return nil
}

// Remove drops key from the store and the list. When it was current the
// message view is cleared.
func (c *Controller) Remove(key string) {
	wasCurrent := c.store.IsCurrent(key)
	c.store.Delete(key)
	if li, ok := c.items[key]; ok {
		c.list.Remove(li)
		delete(c.items, key)
	}
	if wasCurrent {
		c.messages.Clear()
	}
}

// Delete deletes the backend copy first and then removes key locally. On a
// backend failure nothing changes and the error is returned.
func (c *Controller) Delete(ctx context.Context, key string) error {
	if _, ok := c.store.Get(key); !ok {
		return conversation.ErrNotFound
	}
	if err := c.DeleteRemote(ctx, key); err != nil {
		return err
	}
	c.Remove(key)
	return nil
}

// Select makes key current and shows its messages. It reports whether the
// history has to be fetched first (no messages yet but persisted).
func (c *Controller) Select(key string) (needsHistory bool, err error) {
	if err := c.store.SetCurrent(key); err != nil {
		return false, err
	}
	c.activate(key)
	conv, _ := c.store.Get(key)
	c.messages.Show(conv.Messages)
	return len(conv.Messages) == 0 && conv.BackendID != "", nil
}

// FetchHistory loads the messages of a persisted conversation.
func (c *Controller) FetchHistory(ctx context.Context, key string) ([]conversation.Message, error) {
	id := c.store.BackendID(key)
	if id == "" {
		return nil, nil
	}
	msgs, err := c.api.Messages(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading history: %w", err)
	}
	out := make([]conversation.Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, conversation.Message{Role: conversation.Role(m.Role), Content: m.Content})
	}
	return out, nil
}

// ApplyHistory stores fetched messages unless the conversation gained
// messages in the meantime, and shows them when key is still current.
func (c *Controller) ApplyHistory(key string, msgs []conversation.Message) {
	conv, ok := c.store.Get(key)
	if !ok || len(conv.Messages) > 0 {
		return
	}
	c.store.Replace(key, msgs)
	if c.store.IsCurrent(key) {
		c.messages.Show(msgs)
	}
}

// Open selects key and, when needed, fetches its history synchronously.
func (c *Controller) Open(ctx context.Context, key string) error {
	needs, err := c.Select(key)
	if err != nil {
		return err
	}
	if !needs {
		return nil
	}
	msgs, err := c.FetchHistory(ctx, key)
	if err != nil {
		return err
	}
	c.ApplyHistory(key, msgs)
	return nil
}
