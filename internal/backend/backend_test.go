package backend_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/mockapi"
)

func newClient(t *testing.T) (*backend.Client, *mockapi.API) {
	t.Helper()
	api := mockapi.New()
	ts := httptest.NewServer(api.Router())
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL), api
}

func TestAskSendsNullConversationID(t *testing.T) {
	c, api := newClient(t)

	resp, err := c.Ask(context.Background(), backend.AskRequest{
		History: []backend.Message{{Role: "user", Content: "Qual a legislação aplicável?"}},
	})
	if err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if resp.ConversationID == "" {
		t.Error("expected a conversation id from the backend")
	}
	if !strings.Contains(resp.Response, "Qual a legislação aplicável?") {
		t.Errorf("unexpected reply %q", resp.Response)
	}

	calls := api.Calls(http.MethodPost, "/ask-ia")
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	var body map[string]json.RawMessage
	if err := json.Unmarshal(calls[0].Body, &body); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if string(body["conversation_id"]) != "null" {
		t.Errorf("expected conversation_id null, got %s", body["conversation_id"])
	}
}

func TestAskErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   any
		check  func(error) bool
	}{
		{"server error", http.StatusInternalServerError, map[string]string{"detail": "boom"}, func(err error) bool {
			var se *backend.StatusError
			return errors.As(err, &se) && se.Code == 500 && se.Message == "boom"
		}},
		{"missing response", http.StatusOK, map[string]string{"conversation_id": "x"}, func(err error) bool {
			return errors.Is(err, backend.ErrMalformed)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, api := newClient(t)
			api.SetAsk(func(backend.AskRequest) (int, any) { return tt.status, tt.body })
			_, err := c.Ask(context.Background(), backend.AskRequest{})
			if err == nil || !tt.check(err) {
				t.Errorf("unexpected error %v", err)
			}
		})
	}
}

func TestAskUnreachable(t *testing.T) {
	c := backend.NewClient("http://127.0.0.1:1")
	if _, err := c.Ask(context.Background(), backend.AskRequest{}); err == nil {
		t.Error("expected transport error")
	}
}

func TestWithChatPath(t *testing.T) {
	api := mockapi.New()
	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	c := backend.NewClient(ts.URL+"/", backend.WithChatPath("/ask-ia-o3"))
	if _, err := c.Ask(context.Background(), backend.AskRequest{}); err != nil {
		t.Fatalf("Ask: %v", err)
	}
	if n := len(api.Calls(http.MethodPost, "/ask-ia-o3")); n != 1 {
		t.Errorf("expected 1 call on the o3 path, got %d", n)
	}
}

func TestConversationLifecycle(t *testing.T) {
	c, api := newClient(t)
	ctx := context.Background()
	id := api.Seed("u1", "Licenciamento", backend.Message{Role: "user", Content: "oi"}, backend.Message{Role: "assistant", Content: "olá"})
	api.Seed("u2", "Outro")

	list, err := c.ListConversations(ctx, "u1")
	if err != nil {
		t.Fatalf("ListConversations: %v", err)
	}
	if len(list) != 1 || list[0].ID != id || list[0].Title != "Licenciamento" {
		t.Errorf("unexpected list %+v", list)
	}

	msgs, err := c.Messages(ctx, id)
	if err != nil {
		t.Fatalf("Messages: %v", err)
	}
	if len(msgs) != 2 || msgs[1].Content != "olá" {
		t.Errorf("unexpected messages %+v", msgs)
	}

	if err := c.Rename(ctx, id, "Outorga"); err != nil {
		t.Fatalf("Rename: %v", err)
	}
	if title, _ := api.Title(id); title != "Outorga" {
		t.Errorf("expected renamed title, got %q", title)
	}

	if err := c.Delete(ctx, id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if api.Exists(id) {
		t.Error("conversation should be gone")
	}
	var se *backend.StatusError
	if err := c.Delete(ctx, id); !errors.As(err, &se) || se.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %v", err)
	}
}

func TestUpload(t *testing.T) {
	c, api := newClient(t)
	ctx := context.Background()

	res, err := c.Upload(ctx, "report.pdf", strings.NewReader("%PDF-1.4 conteúdo"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if !res.OK || res.Success.Filename != "report.pdf" || res.Success.Size == 0 {
		t.Errorf("unexpected result %+v", res)
	}

	api.SetUploadDetail("PDF sem texto")
	res, err = c.Upload(ctx, "scan.pdf", strings.NewReader("x"))
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if res.OK || res.Detail != "PDF sem texto" {
		t.Errorf("expected failure detail, got %+v", res)
	}
}

func TestLogin(t *testing.T) {
	c, api := newClient(t)
	api.AddUser("ana@example.com", "segredo")

	res, err := c.Login(context.Background(), backend.Credentials{Email: "ana@example.com", Password: "segredo"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !res.OK || res.UserID != "ana@example.com" {
		t.Errorf("expected success, got %+v", res)
	}

	res, err = c.Login(context.Background(), backend.Credentials{Email: "ana@example.com", Password: "x"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.OK || res.Message != "Email ou senha inválidos." {
		t.Errorf("expected refusal, got %+v", res)
	}
}

func TestGenerateTableKeepsColumnOrder(t *testing.T) {
	c, _ := newClient(t)
	data, err := c.GenerateTable(context.Background(), backend.TableRequest{
		Kind:                  backend.TableSummary,
		Method:                "descricao",
		EnterpriseDescription: "aterro sanitário",
		Spheres:               backend.Spheres{Federal: true, Municipal: true},
		MaxDocuments:          10,
	})
	if err != nil {
		t.Fatalf("GenerateTable: %v", err)
	}
	if len(data.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(data.Rows))
	}
	var cols []string
	for pair := data.Rows[0].Oldest(); pair != nil; pair = pair.Next() {
		cols = append(cols, pair.Key)
	}
	if strings.Join(cols, ",") != "lei,artigo,descricao,esfera" {
		t.Errorf("column order lost: %v", cols)
	}
	if data.Stats == nil || data.Stats.Total != 2 || data.Stats.Municipal != 1 {
		t.Errorf("unexpected stats %+v", data.Stats)
	}

	csv, err := c.DownloadTable(context.Background(), backend.DownloadRequest{Data: *data, Format: "csv", FileName: "quadro"})
	if err != nil {
		t.Fatalf("DownloadTable: %v", err)
	}
	if !strings.Contains(string(csv), "Lei 6.938/1981") {
		t.Errorf("unexpected csv %q", csv)
	}
}

func TestSources(t *testing.T) {
	c, _ := newClient(t)
	src, err := c.Sources(context.Background())
	if err != nil {
		t.Fatalf("Sources: %v", err)
	}
	if src.Total != src.Federal+src.State+src.Municipal {
		t.Errorf("inconsistent counts %+v", src)
	}
}
