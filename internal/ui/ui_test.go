package ui

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/leisambientais/leischat/internal/view"
)

func TestDispatchRoutes(t *testing.T) {
	d := NewDispatcher()
	var got []string
	d.Handle("sidebar", "select", func(_ context.Context, ev Event) error {
		got = append(got, "select "+ev.Target)
		return nil
	})
	d.Handle("sidebar", "delete", func(_ context.Context, ev Event) error {
		return errors.New("boom")
	})

	if err := d.Dispatch(context.Background(), Event{Component: "sidebar", Name: "select", Target: "temp_1"}); err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if len(got) != 1 || got[0] != "select temp_1" {
		t.Errorf("handler not called with target: %v", got)
	}
	if err := d.Dispatch(context.Background(), Event{Component: "sidebar", Name: "delete"}); err == nil || err.Error() != "boom" {
		t.Errorf("handler error should pass through, got %v", err)
	}
	err := d.Dispatch(context.Background(), Event{Component: "sidebar", Name: "explode"})
	if !errors.Is(err, ErrUnknownRoute) {
		t.Errorf("expected ErrUnknownRoute, got %v", err)
	}
	if d.Routes() != 2 {
		t.Errorf("expected 2 routes, got %d", d.Routes())
	}
}

func TestEventJSON(t *testing.T) {
	raw := `{"component":"upload","event":"file","file":{"name":"a.pdf","size":3,"data":"YWJj"}}`
	var ev Event
	if err := json.Unmarshal([]byte(raw), &ev); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if ev.Route() != "upload:file" || ev.File == nil || string(ev.File.Data) != "abc" {
		t.Errorf("unexpected event %+v", ev)
	}
}

func TestOutboxDrainAndNotify(t *testing.T) {
	o := NewOutbox()
	o.Render(view.El("div").WithID("x").WithText("oi"))
	o.Focus("message-input")
	o.Alert("erro")

	select {
	case <-o.Notify():
	default:
		t.Fatal("expected notification")
	}

	effects := o.Drain()
	if len(effects) != 3 {
		t.Fatalf("expected 3 effects, got %d", len(effects))
	}
	if effects[0].Type != EffectRender || effects[0].Target != "x" || effects[0].HTML != `<div id="x">oi</div>` {
		t.Errorf("unexpected render %+v", effects[0])
	}
	if effects[1].Type != EffectFocus || effects[2].Message != "erro" {
		t.Errorf("unexpected effects %+v", effects[1:])
	}
	if len(o.Drain()) != 0 {
		t.Error("drain should empty the outbox")
	}
}
