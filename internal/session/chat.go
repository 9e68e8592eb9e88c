package session

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/chat"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/prefs"
	"github.com/leisambientais/leischat/internal/sidebar"
	"github.com/leisambientais/leischat/internal/ui"
	"github.com/leisambientais/leischat/internal/upload"
	"github.com/leisambientais/leischat/internal/view"
)

// ChatAPI is everything the chat page calls on the backend.
type ChatAPI interface {
	chat.Asker
	sidebar.Backend
	upload.Uploader
	ListConversations(ctx context.Context, userID string) ([]backend.ConversationSummary, error)
}

// ChatOptions configures a chat page.
type ChatOptions struct {
	UserID string
	// Lazy lists the user's conversations on mount instead of starting a
	// new chat.
	Lazy          bool
	Greeting      string
	Fallback      string
	Markdown      bool
	Avatars       view.Avatars
	MaxUploadSize int64
	// UploadPatterns replaces the accepted document name patterns.
	UploadPatterns []string
	Prefs          *prefs.Store // optional
}

// ChatPage is one mount of the chat page.
type ChatPage struct {
	mu   sync.Mutex
	opts ChatOptions
	api  ChatAPI

	Store   *conversation.Store
	Doc     *view.ChatDocument
	Sidebar *sidebar.Controller
	Chat    *chat.Controller
	Upload  *upload.Widget

	out      *ui.Outbox
	routes   *ui.Dispatcher
	bg       tasks
	deleting map[string]bool // keys with a DELETE in flight
}

// NewChat builds a chat page around api.
func NewChat(api ChatAPI, opts ChatOptions) *ChatPage {
	p := &ChatPage{
		opts:     opts,
		api:      api,
		Store:    conversation.NewStore(),
		Doc:      view.NewChatDocument(),
		out:      ui.NewOutbox(),
		routes:   ui.NewDispatcher(),
		deleting: make(map[string]bool),
	}

	var ropts []view.RendererOption
	if opts.Avatars != nil {
		ropts = append(ropts, view.WithAvatars(opts.Avatars))
	}
	if opts.Markdown {
		ropts = append(ropts, view.WithMarkdown())
	}
	messages := view.NewMessageView(p.Doc.Messages, view.NewMessageRenderer(ropts...))

	p.Sidebar = sidebar.New(p.Store, p.Doc.List, messages, api)
	p.Chat = chat.New(p.Store, p.Sidebar, p.Doc, messages, api,
		chat.WithGreeting(opts.Greeting),
		chat.WithFallback(opts.Fallback),
		chat.WithUILock(&p.mu),
		chat.WithOnUpdate(p.replied),
	)

	var uopts []upload.Option
	if opts.MaxUploadSize > 0 {
		uopts = append(uopts, upload.WithMaxSize(opts.MaxUploadSize))
	}
	if len(opts.UploadPatterns) > 0 {
		uopts = append(uopts, upload.WithPatterns(opts.UploadPatterns...))
	}
	p.Upload = upload.New(api, uopts...)

	p.routes.Handle("newchat", "click", p.newChat)
	p.routes.Handle("composer", "submit", p.submit)
	p.routes.Handle("composer", "keydown", p.keyDown)
	p.routes.Handle("sidebar", "select", p.selectConversation)
	p.routes.Handle("sidebar", "rename", p.rename)
	p.routes.Handle("sidebar", "delete", p.delete)
	p.routes.Handle("upload", "open", p.uploadOpen)
	p.routes.Handle("upload", "close", p.uploadClose)
	p.routes.Handle("upload", "dragover", p.uploadDragOver)
	p.routes.Handle("upload", "dragleave", p.uploadDragLeave)
	p.routes.Handle("upload", "file", p.uploadFile)
	p.routes.Handle("upload", "continue", p.uploadContinue)
	p.routes.Handle("upload", "retry", p.uploadRetry)
	return p
}

// Outbox returns the page's effect queue.
func (p *ChatPage) Outbox() *ui.Outbox { return p.out }

// Wait blocks until replies, history loads, deletions, uploads and renames
// in flight have been applied.
func (p *ChatPage) Wait() {
	p.bg.wait()
	p.Sidebar.Wait()
}

// Do runs fn with the page lock held and flushes the page afterwards.
func (p *ChatPage) Do(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
	p.flush()
}

// Read runs fn with the page lock held, without queueing a render.
func (p *ChatPage) Read(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fn()
}

// Mount starts a new chat, or in lazy mode lists the user's conversations
// and reopens the one opened last.
func (p *ChatPage) Mount(ctx context.Context) error {
	if !p.opts.Lazy {
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Chat.NewChat()
		p.flushAll()
		return nil
	}

	summaries, err := p.api.ListConversations(ctx, p.opts.UserID)
	if err != nil {
		log.Printf("session: listing conversations: %v", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	defer p.flushAll()

	for _, s := range summaries {
		if err := p.Store.Add(s.ID, s.Title); err != nil {
			log.Printf("session: %v", err)
			continue
		}
		p.Sidebar.Loaded(s.ID)
	}
	if p.Store.Len() == 0 {
		p.Chat.NewChat()
		return nil
	}
	if p.opts.Prefs == nil {
		return nil
	}
	last := p.opts.Prefs.GetDefault(ctx, p.opts.UserID, prefs.KeyLastConversation, "")
	if _, ok := p.Store.Get(last); ok {
		p.open(ctx, last)
	}
	return nil
}

// Dispatch applies ev and queues the updated page.
func (p *ChatPage) Dispatch(ctx context.Context, ev ui.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	err := p.routes.Dispatch(ctx, ev)
	p.flush()
	return err
}

// flushAll queues the whole page. Only a mount renders the composer; later
// renders leave it to the browser so a draft survives replies. Must hold
// p.mu.
func (p *ChatPage) flushAll() {
	p.renderModal()
	p.out.Render(p.Doc.Root)
}

// flush queues the regions the server owns: the conversation list, the
// message area and the modal. Must hold p.mu.
func (p *ChatPage) flush() {
	p.renderModal()
	p.out.Render(p.Doc.List)
	p.out.Render(p.Doc.Messages)
	p.out.Render(p.Doc.ModalRoot)
}

func (p *ChatPage) renderModal() {
	p.Doc.ModalRoot.Clear()
	p.Doc.ModalRoot.Append(p.Upload.View())
}

// replied runs under the lock once a reply has been applied.
func (p *ChatPage) replied(key string) {
	if p.Store.IsCurrent(key) {
		p.remember(key)
	}
	p.flush()
}

// remember stores the backend id of key as the last opened conversation.
func (p *ChatPage) remember(key string) {
	id := p.Store.BackendID(key)
	if p.opts.Prefs == nil || id == "" {
		return
	}
	if err := p.opts.Prefs.Set(context.Background(), p.opts.UserID, prefs.KeyLastConversation, id); err != nil {
		log.Printf("session: %v", err)
	}
}

// open selects key and loads its history in the background when needed.
// Must hold p.mu.
func (p *ChatPage) open(ctx context.Context, key string) error {
	needs, err := p.Sidebar.Select(key)
	if err != nil {
		return err
	}
	p.remember(key)
	if !needs {
		return nil
	}
	p.bg.run(func() {
		msgs, err := p.Sidebar.FetchHistory(ctx, key)
		p.mu.Lock()
		defer p.mu.Unlock()
		if err != nil {
			log.Printf("session: %v", err)
			return
		}
		p.Sidebar.ApplyHistory(key, msgs)
		p.flush()
	})
	return nil
}

// send submits the composer contents. Must hold p.mu.
func (p *ChatPage) send(ctx context.Context) {
	ex, ok := p.Chat.Submit(p.Doc.InputValue())
	if !ok {
		return
	}
	p.out.SetValue(view.IDInput, "")
	if p.Chat.Queue(ex) {
		p.bg.run(func() { p.Chat.Drain(ctx, ex.Key) })
	}
}

func (p *ChatPage) newChat(_ context.Context, _ ui.Event) error {
	p.Chat.NewChat()
	p.out.Focus(view.IDInput)
	return nil
}

func (p *ChatPage) submit(ctx context.Context, ev ui.Event) error {
	p.Doc.SetInputValue(ev.Value)
	p.send(ctx)
	return nil
}

func (p *ChatPage) keyDown(ctx context.Context, ev ui.Event) error {
	p.Doc.SetInputValue(ev.Value)
	if p.Chat.KeyDown(ev.Key, ev.Shift) {
		p.send(ctx)
	}
	return nil
}

func (p *ChatPage) selectConversation(ctx context.Context, ev ui.Event) error {
	return p.open(ctx, ev.Target)
}

func (p *ChatPage) rename(ctx context.Context, ev ui.Event) error {
	if _, ok := p.Store.Get(ev.Target); !ok {
		return fmt.Errorf("renaming %s: %w", ev.Target, conversation.ErrNotFound)
	}
	p.Sidebar.Rename(ctx, ev.Target, ev.Value)
	return nil
}

// delete removes the backend copy first; the local record only goes away
// once that succeeded.
func (p *ChatPage) delete(ctx context.Context, ev ui.Event) error {
	key := ev.Target
	if _, ok := p.Store.Get(key); !ok {
		return fmt.Errorf("deleting %s: %w", key, conversation.ErrNotFound)
	}
	if p.deleting[key] {
		return nil
	}
	p.deleting[key] = true
	p.bg.run(func() {
		err := p.Sidebar.DeleteRemote(ctx, key)
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.deleting, key)
		if err != nil {
			log.Printf("session: %v", err)
			p.out.Alert(sidebar.MsgDeleteFail)
			return
		}
		p.Sidebar.Remove(key)
		p.flush()
	})
	return nil
}

func (p *ChatPage) uploadOpen(_ context.Context, _ ui.Event) error {
	p.Upload.Open()
	return nil
}

func (p *ChatPage) uploadClose(_ context.Context, _ ui.Event) error {
	p.Upload.Close()
	return nil
}

func (p *ChatPage) uploadDragOver(_ context.Context, _ ui.Event) error {
	p.Upload.DragOver()
	return nil
}

func (p *ChatPage) uploadDragLeave(_ context.Context, _ ui.Event) error {
	p.Upload.DragLeave()
	return nil
}

func (p *ChatPage) uploadFile(ctx context.Context, ev ui.Event) error {
	f := ev.File
	if f == nil {
		return errors.New("upload: event carries no file")
	}
	size := f.Size
	if size == 0 {
		size = int64(len(f.Data))
	}
	if err := p.Upload.Begin(f.Name, size); err != nil {
		if errors.Is(err, upload.ErrRejected) {
			// Shown inline by the modal.
			return nil
		}
		return err
	}
	name, data := f.Name, f.Data
	p.bg.run(func() {
		res, err := p.api.Upload(ctx, name, bytes.NewReader(data))
		p.mu.Lock()
		defer p.mu.Unlock()
		p.Upload.Finish(res, err)
		p.flush()
	})
	return nil
}

func (p *ChatPage) uploadContinue(_ context.Context, _ ui.Event) error {
	if p.Upload.Continue() {
		p.out.Focus(view.IDInput)
	}
	return nil
}

// uploadRetry starts over with a fresh page.
func (p *ChatPage) uploadRetry(_ context.Context, _ ui.Event) error {
	p.Upload.Retry()
	p.out.Reload()
	return nil
}
