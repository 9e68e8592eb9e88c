package conversation

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestCreateUniqueKeys(t *testing.T) {
	s := NewStore()

	k1 := s.Create()
	k2 := s.Create()
	if k1 == k2 {
		t.Fatalf("expected distinct keys, got %q twice", k1)
	}
	if s.Len() != 2 {
		t.Errorf("expected 2 conversations, got %d", s.Len())
	}
	c, ok := s.Get(k1)
	if !ok {
		t.Fatalf("expected %q to be present", k1)
	}
	if !c.IsTemporary() {
		t.Errorf("expected temporary key, got %q", c.Key)
	}
	if c.Title != DefaultTitle {
		t.Errorf("expected default title, got %q", c.Title)
	}
}

func TestCreateRedrawsCollidingKey(t *testing.T) {
	keys := []string{"temp_a", "temp_a", "temp_b"}
	i := 0
	s := NewStore(WithKeyFunc(func() string {
		k := keys[i]
		i++
		return k
	}))

	k1 := s.Create()
	k2 := s.Create()
	if k1 != "temp_a" || k2 != "temp_b" {
		t.Errorf("expected temp_a then temp_b, got %q and %q", k1, k2)
	}
}

func TestCreateConcurrent(t *testing.T) {
	s := NewStore()
	const n = 200

	var wg sync.WaitGroup
	keys := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			keys <- s.Create()
		}()
	}
	wg.Wait()
	close(keys)

	seen := map[string]bool{}
	for k := range keys {
		if seen[k] {
			t.Fatalf("duplicate key %q", k)
		}
		seen[k] = true
	}
	if s.Len() != n {
		t.Errorf("expected %d conversations, got %d", n, s.Len())
	}
}

func TestCreateWithSeed(t *testing.T) {
	s := NewStore(WithDefaultTitle("Novo chat o3"))
	seed := Message{Role: RoleAssistant, Content: "Olá!"}

	key := s.Create(seed)
	c, _ := s.Get(key)
	if len(c.Messages) != 1 || c.Messages[0] != seed {
		t.Errorf("expected seeded greeting, got %+v", c.Messages)
	}
	if c.Title != "Novo chat o3" {
		t.Errorf("expected variant title, got %q", c.Title)
	}
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore()
	key := s.Create(Message{Role: RoleAssistant, Content: "seed"})

	for i := 0; i < 5; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		if !s.Append(key, role, fmt.Sprintf("m%d", i)) {
			t.Fatalf("append %d failed", i)
		}
	}

	c, _ := s.Get(key)
	if len(c.Messages) != 6 {
		t.Fatalf("expected 6 messages, got %d", len(c.Messages))
	}
	for i := 0; i < 5; i++ {
		if want := fmt.Sprintf("m%d", i); c.Messages[i+1].Content != want {
			t.Errorf("message %d: got %q, want %q", i+1, c.Messages[i+1].Content, want)
		}
	}
	if c.UserTurns() != 3 {
		t.Errorf("expected 3 user turns, got %d", c.UserTurns())
	}
}

func TestAppendMissingKeyIsNoop(t *testing.T) {
	s := NewStore()
	if s.Append("missing", RoleUser, "hi") {
		t.Error("expected append to missing key to report false")
	}
	if s.Len() != 0 {
		t.Errorf("expected empty store, got %d", s.Len())
	}
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore()
	key := s.Create(Message{Role: RoleAssistant, Content: "seed"})

	c, _ := s.Get(key)
	c.Messages[0].Content = "changed"
	c.Title = "changed"

	again, _ := s.Get(key)
	if again.Messages[0].Content != "seed" || again.Title != DefaultTitle {
		t.Errorf("store mutated through copy: %+v", again)
	}
}

func TestRenameKeepsMessages(t *testing.T) {
	s := NewStore()
	key := s.Create(Message{Role: RoleAssistant, Content: "seed"})

	if !s.Rename(key, "Licenciamento") {
		t.Fatal("rename failed")
	}
	c, _ := s.Get(key)
	if c.Title != "Licenciamento" {
		t.Errorf("title: got %q", c.Title)
	}
	if len(c.Messages) != 1 {
		t.Errorf("rename touched messages: %+v", c.Messages)
	}
}

func TestAttachBackendIDOnce(t *testing.T) {
	s := NewStore()
	key := s.Create()

	if err := s.AttachBackendID(key, "abc-123"); err != nil {
		t.Fatalf("first attach: %v", err)
	}
	if err := s.AttachBackendID(key, "abc-123"); err != nil {
		t.Errorf("repeating the same id should succeed, got %v", err)
	}
	err := s.AttachBackendID(key, "xyz-999")
	if !errors.Is(err, ErrBackendIDAssigned) {
		t.Fatalf("expected ErrBackendIDAssigned, got %v", err)
	}
	if got := s.BackendID(key); got != "abc-123" {
		t.Errorf("expected first id to stay, got %q", got)
	}
	c, _ := s.Get(key)
	if c.Key != key {
		t.Errorf("key changed to %q", c.Key)
	}
}

func TestAttachBackendIDErrors(t *testing.T) {
	s := NewStore()
	key := s.Create()

	if err := s.AttachBackendID(key, ""); !errors.Is(err, ErrEmptyBackendID) {
		t.Errorf("expected ErrEmptyBackendID, got %v", err)
	}
	if err := s.AttachBackendID("missing", "id"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteClearsCurrent(t *testing.T) {
	s := NewStore()
	a := s.Create()
	b := s.Create()

	if err := s.SetCurrent(a); err != nil {
		t.Fatalf("SetCurrent: %v", err)
	}
	if !s.Delete(b) {
		t.Fatal("delete b failed")
	}
	if cur, ok := s.Current(); !ok || cur != a {
		t.Errorf("deleting another record changed current to %q", cur)
	}
	if !s.Delete(a) {
		t.Fatal("delete a failed")
	}
	if cur, ok := s.Current(); ok {
		t.Errorf("expected no current conversation, got %q", cur)
	}
	if s.Delete(a) {
		t.Error("second delete should report false")
	}
}

func TestSetCurrentUnknown(t *testing.T) {
	s := NewStore()
	if err := s.SetCurrent("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	key := s.Create()
	s.SetCurrent(key)
	s.SetCurrent("")
	if _, ok := s.Current(); ok {
		t.Error("empty key should clear current")
	}
}

func TestKeysMostRecentFirst(t *testing.T) {
	s := NewStore()
	a := s.Create()
	b := s.Create()
	c := s.Create()
	s.Delete(b)

	keys := s.Keys()
	if len(keys) != 2 || keys[0] != c || keys[1] != a {
		t.Errorf("expected [%s %s], got %v", c, a, keys)
	}
}

func TestAddLoaded(t *testing.T) {
	s := NewStore()
	if err := s.Add("uuid-1", "Licença prévia"); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := s.Add("uuid-1", "again"); !errors.Is(err, ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
	if err := s.Add("", "x"); !errors.Is(err, ErrEmptyBackendID) {
		t.Errorf("expected ErrEmptyBackendID, got %v", err)
	}

	c, ok := s.Get("uuid-1")
	if !ok {
		t.Fatal("loaded conversation missing")
	}
	if c.BackendID != "uuid-1" || len(c.Messages) != 0 || c.IsTemporary() {
		t.Errorf("unexpected loaded record: %+v", c)
	}
}

func TestReplace(t *testing.T) {
	s := NewStore()
	s.Add("uuid-1", "")
	msgs := []Message{{Role: RoleUser, Content: "a"}, {Role: RoleAssistant, Content: "b"}}

	if !s.Replace("uuid-1", msgs) {
		t.Fatal("replace failed")
	}
	msgs[0].Content = "mutated"
	c, _ := s.Get("uuid-1")
	if len(c.Messages) != 2 || c.Messages[0].Content != "a" {
		t.Errorf("unexpected messages: %+v", c.Messages)
	}
	if c.Title != DefaultTitle {
		t.Errorf("empty loaded title should default, got %q", c.Title)
	}
}
