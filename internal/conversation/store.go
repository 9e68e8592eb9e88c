package conversation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store holds the conversations of one UI mount and the current pointer.
// It is safe for concurrent use.
type Store struct {
	mu           sync.RWMutex
	items        map[string]*Conversation
	order        []string // creation order, oldest first
	current      string
	defaultTitle string
	newKey       func() string
	now          func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithDefaultTitle sets the placeholder title for new conversations.
func WithDefaultTitle(title string) Option {
	return func(s *Store) {
		if title != "" {
			s.defaultTitle = title
		}
	}
}

// WithKeyFunc overrides the temporary key generator.
func WithKeyFunc(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newKey = fn
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		items:        make(map[string]*Conversation),
		defaultTitle: DefaultTitle,
		newKey:       newTempKey,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newTempKey() string {
	return TempKeyPrefix + uuid.NewString()
}

// DefaultTitle returns the placeholder title used by this store.
func (s *Store) DefaultTitle() string {
	return s.defaultTitle
}

// Create inserts a new conversation seeded with the given messages and
// returns its key. Other records are not touched.
func (s *Store) Create(seed ...Message) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := s.newKey()
	for _, exists := s.items[key]; exists; _, exists = s.items[key] {
		key = s.newKey()
	}

	msgs := make([]Message, len(seed))
	copy(msgs, seed)
	s.items[key] = &Conversation{
		Key:       key,
		Title:     s.defaultTitle,
		Messages:  msgs,
		CreatedAt: s.now(),
	}
	s.order = append(s.order, key)
	return key
}

// Add inserts a conversation loaded from the backend. The backend id doubles
// as the key and the message list starts empty until the conversation is
// opened.
func (s *Store) Add(backendID, title string) error {
	if backendID == "" {
		return ErrEmptyBackendID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[backendID]; exists {
		return fmt.Errorf("adding %s: %w", backendID, ErrDuplicateKey)
	}
	if title == "" {
		title = s.defaultTitle
	}
	s.items[backendID] = &Conversation{
		Key:       backendID,
		BackendID: backendID,
		Title:     title,
		Messages:  []Message{},
		CreatedAt: s.now(),
	}
	s.order = append(s.order, backendID)
	return nil
}

// Get returns a copy of the conversation stored under key.
func (s *Store) Get(key string) (Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.items[key]
	if !ok {
		return Conversation{}, false
	}
	out := *c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out, true
}

// Append adds a message at the end of the conversation. It reports false and
// does nothing when the key is absent.
func (s *Store) Append(key string, role Role, content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[key]
	if !ok {
		return false
	}
	c.Messages = append(c.Messages, Message{Role: role, Content: content})
	return true
}

// Replace swaps the whole message list, used when history is loaded lazily.
func (s *Store) Replace(key string, msgs []Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[key]
	if !ok {
		return false
	}
	c.Messages = make([]Message, len(msgs))
	copy(c.Messages, msgs)
	return true
}

// Rename updates the title in place.
func (s *Store) Rename(key, title string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[key]
	if !ok {
		return false
	}
	c.Title = title
	return true
}

// AttachBackendID records the backend id of a conversation. The id can be set
// once: repeating the same id succeeds, a different id is rejected with
// ErrBackendIDAssigned and the first id stays in effect.
func (s *Store) AttachBackendID(key, id string) error {
	if id == "" {
		return ErrEmptyBackendID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.items[key]
	if !ok {
		return fmt.Errorf("attaching backend id to %s: %w", key, ErrNotFound)
	}
	if c.BackendID == id {
		return nil
	}
	if c.BackendID != "" {
		return fmt.Errorf("attaching %s to %s (has %s): %w", id, key, c.BackendID, ErrBackendIDAssigned)
	}
	c.BackendID = id
	return nil
}

// BackendID returns the backend id of key, empty when unassigned or absent.
func (s *Store) BackendID(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.items[key]; ok {
		return c.BackendID
	}
	return ""
}

// Delete removes the conversation and clears the current pointer if it
// pointed at it.
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; !ok {
		return false
	}
	delete(s.items, key)
	for i, k := range s.order {
		if k == key {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	if s.current == key {
		s.current = ""
	}
	return true
}

// SetCurrent makes key the current conversation. An empty key clears the
// pointer.
func (s *Store) SetCurrent(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if key == "" {
		s.current = ""
		return nil
	}
	if _, ok := s.items[key]; !ok {
		return fmt.Errorf("selecting %s: %w", key, ErrNotFound)
	}
	s.current = key
	return nil
}

// Current returns the current conversation key.
func (s *Store) Current() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, s.current != ""
}

// IsCurrent reports whether key is the current conversation.
func (s *Store) IsCurrent(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return key != "" && s.current == key
}

// Keys returns all keys, most recently created first.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]string, 0, len(s.order))
	for i := len(s.order) - 1; i >= 0; i-- {
		out = append(out, s.order[i])
	}
	return out
}

// Len returns the number of conversations.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
