package prefs

import (
	"context"
	"testing"

	"github.com/leisambientais/leischat/internal/db"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return NewStore(database)
}

func TestSetGetOverwrite(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	if _, ok, err := s.Get(ctx, "ana", KeyTheme); err != nil || ok {
		t.Fatalf("expected unset, got ok=%v err=%v", ok, err)
	}
	if err := s.Set(ctx, "ana", KeyTheme, "light"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Set(ctx, "ana", KeyTheme, "dark"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "ana", KeyTheme)
	if err != nil || !ok || v != "dark" {
		t.Errorf("Get = %q %v %v", v, ok, err)
	}
}

func TestScopesAreSeparate(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	s.Set(ctx, "ana", KeyLastConversation, "conv-1")
	s.Set(ctx, "", KeyLastConversation, "conv-2")

	if got := s.GetDefault(ctx, "bruno", KeyLastConversation, "none"); got != "none" {
		t.Errorf("other user should see default, got %q", got)
	}
	if got := s.GetDefault(ctx, Anonymous, KeyLastConversation, ""); got != "conv-2" {
		t.Errorf("empty user maps to anonymous, got %q", got)
	}

	all, err := s.All(ctx, "ana")
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 || all[KeyLastConversation] != "conv-1" {
		t.Errorf("unexpected prefs %v", all)
	}

	if err := s.Delete(ctx, "ana", KeyLastConversation); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ana", KeyLastConversation); ok {
		t.Error("preference should be gone")
	}
}
