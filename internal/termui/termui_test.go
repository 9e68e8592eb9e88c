package termui

import (
	"strings"
	"testing"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/view"
)

func TestMessages(t *testing.T) {
	doc := view.NewChatDocument()
	mv := view.NewMessageView(doc.Messages, view.NewMessageRenderer(view.WithMarkdown()))
	mv.Add(conversation.RoleUser, "Qual a lei?")
	mv.Add(conversation.RoleAssistant, "A **Lei 9.605** & decretos.")

	out := New(0).Messages(doc.Messages)
	for _, want := range []string{"Qual a lei?", "A Lei 9.605 & decretos.", view.DefaultAvatars[conversation.RoleAssistant]} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "<strong>") {
		t.Errorf("markup leaked into output:\n%s", out)
	}
	if strings.Index(out, "Qual a lei?") > strings.Index(out, "Lei 9.605") {
		t.Error("messages out of order")
	}
}

func TestConversationList(t *testing.T) {
	r := New(0)
	list := view.El("ul")
	if out := r.ConversationList(list); !strings.Contains(out, "nenhuma conversa") {
		t.Errorf("empty list: %q", out)
	}

	list.Append(
		view.El("li", "chat-item").Set("data-id", "c1").Append(view.El("span", "chat-title").WithText("Licenças")),
		view.El("li", "chat-item", "active").Append(view.El("span", "chat-title").WithText("Novo chat")),
	)
	lines := strings.Split(r.ConversationList(list), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", lines)
	}
	if !strings.Contains(lines[0], "1. Licenças") || !strings.Contains(lines[0], "[c1]") || strings.Contains(lines[0], ">") {
		t.Errorf("line 1: %q", lines[0])
	}
	if !strings.Contains(lines[1], "> 2. Novo chat") {
		t.Errorf("line 2: %q", lines[1])
	}
}

func TestModal(t *testing.T) {
	r := New(0)
	if r.Modal(nil) != "" {
		t.Error("nil modal should render empty")
	}
	n := view.El("div", "modal").Set("data-state", "failed").Append(
		view.El("h3").WithText("Erro no processamento"),
		view.El("p").WithText("Arquivo inválido"),
		view.El("button").WithText("Tentar novamente"),
	)
	out := r.Modal(n)
	if !strings.Contains(out, "Erro no processamento") || !strings.Contains(out, "Arquivo inválido") {
		t.Errorf("modal: %s", out)
	}
	if strings.Contains(out, "Tentar novamente") {
		t.Errorf("buttons should be skipped: %s", out)
	}
}

func TestTable(t *testing.T) {
	r := New(0)
	if out := r.Table(nil); !strings.Contains(out, "sem resultados") {
		t.Errorf("empty table: %q", out)
	}

	row := orderedmap.New[string, any]()
	row.Set("numero", "12.651")
	row.Set("ementa", "")
	out := r.Table([]backend.Row{row})
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one row, got %q", lines)
	}
	if lines[1] != "12.651 | -" {
		t.Errorf("row %q", lines[1])
	}
}
