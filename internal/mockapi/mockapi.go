// Package mockapi is an in-memory stand-in for the legislation assistant API.
// It backs `leischat mock` for local development and the package tests.
package mockapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/leisambientais/leischat/internal/backend"
)

// Call is a recorded request.
type Call struct {
	Method string
	Path   string
	Body   []byte
}

// AskFunc overrides the chat endpoint. It returns a status and a JSON body.
type AskFunc func(req backend.AskRequest) (int, any)

type conversation struct {
	id       string
	userID   string
	title    string
	messages []backend.Message
	seq      int
}

// API is the fake backend.
type API struct {
	mu            sync.Mutex
	calls         []Call
	conversations map[string]*conversation
	seq           int
	users         map[string]string // email -> password
	ask           AskFunc
	uploadDetail  string
	failures      map[string]int // "METHOD /path" -> status
}

// New creates an empty fake backend.
func New() *API {
	return &API{
		conversations: make(map[string]*conversation),
		users:         make(map[string]string),
		failures:      make(map[string]int),
	}
}

// SetAsk replaces the default echo reply of the chat endpoint.
func (a *API) SetAsk(fn AskFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.ask = fn
}

// SetUploadDetail makes every upload fail with detail. Empty restores success.
func (a *API) SetUploadDetail(detail string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.uploadDetail = detail
}

// Fail makes requests to method and path answer with status.
func (a *API) Fail(method, path string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.failures[method+" "+path] = status
}

// Recover undoes Fail.
func (a *API) Recover(method, path string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.failures, method+" "+path)
}

// AddUser registers login credentials.
func (a *API) AddUser(email, password string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.users[email] = password
}

// Seed stores a persisted conversation and returns its id.
func (a *API) Seed(userID, title string, msgs ...backend.Message) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.seq++
	id := fmt.Sprintf("conv-%d", a.seq)
	a.conversations[id] = &conversation{id: id, userID: userID, title: title, messages: msgs, seq: a.seq}
	return id
}

// Title returns the stored title of a conversation.
func (a *API) Title(id string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.conversations[id]
	if !ok {
		return "", false
	}
	return c.title, true
}

// Exists reports whether a conversation is stored.
func (a *API) Exists(id string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	_, ok := a.conversations[id]
	return ok
}

// Calls returns the recorded requests matching method and path prefix.
func (a *API) Calls(method, pathPrefix string) []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []Call
	for _, c := range a.calls {
		if c.Method == method && strings.HasPrefix(c.Path, pathPrefix) {
			out = append(out, c)
		}
	}
	return out
}

// Router returns the HTTP handler serving the fake API.
func (a *API) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(a.record)

	r.Post("/ask-ia", a.handleAsk)
	r.Post("/ask-ia-o3", a.handleAsk)
	r.Post("/ask-ia-o3-mini", a.handleAsk)
	r.Get("/conversations", a.handleList)
	r.Get("/conversations/{id}/messages", a.handleMessages)
	r.Patch("/conversations/{id}", a.handleRename)
	r.Delete("/chat/{id}", a.handleDelete)
	r.Post("/documents/upload", a.handleUpload)
	r.Post("/login", a.handleLogin)
	r.Get("/api/fontes-dados", a.handleSources)
	r.Post("/api/gerar-estrutura", a.handleTable)
	r.Post("/api/gerar-quadro-resumo", a.handleTable)
	r.Post("/api/download-tabela", a.handleDownload)
	return r
}

func (a *API) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil && !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(strings.NewReader(string(body)))
		}
		a.mu.Lock()
		a.calls = append(a.calls, Call{Method: r.Method, Path: r.URL.Path, Body: body})
		status, failing := a.failures[r.Method+" "+r.URL.Path]
		a.mu.Unlock()

		if failing {
			writeJSON(w, status, map[string]string{"message": "falha simulada", "detail": "falha simulada"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req backend.AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	a.mu.Lock()
	ask := a.ask
	a.mu.Unlock()
	if ask != nil {
		status, body := ask(req)
		writeJSON(w, status, body)
		return
	}

	var last string
	if n := len(req.History); n > 0 {
		last = req.History[n-1].Content
	}
	reply := "Recebido: " + last

	a.mu.Lock()
	var c *conversation
	if req.ConversationID != nil {
		c = a.conversations[*req.ConversationID]
	}
	if c == nil {
		a.seq++
		c = &conversation{id: uuid.NewString(), title: "Novo chat", seq: a.seq}
		a.conversations[c.id] = c
	}
	c.messages = append(append([]backend.Message(nil), req.History...), backend.Message{Role: "assistant", Content: reply})
	id := c.id
	a.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"response": reply, "conversation_id": id})
}

func (a *API) handleList(w http.ResponseWriter, r *http.Request) {
	user := r.URL.Query().Get("user_id")
	a.mu.Lock()
	list := make([]*conversation, 0, len(a.conversations))
	for _, c := range a.conversations {
		if user == "" || c.userID == "" || c.userID == user {
			list = append(list, c)
		}
	}
	sort.Slice(list, func(i, j int) bool { return list[i].seq > list[j].seq })
	out := make([]backend.ConversationSummary, 0, len(list))
	for _, c := range list {
		out = append(out, backend.ConversationSummary{ID: c.id, Title: c.title})
	}
	a.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (a *API) handleMessages(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	c, ok := a.conversations[chi.URLParam(r, "id")]
	var msgs []backend.Message
	if ok {
		msgs = append([]backend.Message{}, c.messages...)
	}
	a.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "conversa não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, msgs)
}

func (a *API) handleRename(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	a.mu.Lock()
	c, ok := a.conversations[chi.URLParam(r, "id")]
	if ok {
		c.title = body.Title
	}
	a.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "conversa não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	_, ok := a.conversations[id]
	delete(a.conversations, id)
	a.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"detail": "conversa não encontrada"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "arquivo ausente"})
		return
	}
	defer file.Close()
	data, _ := io.ReadAll(file)

	a.mu.Lock()
	detail := a.uploadDetail
	a.mu.Unlock()
	if detail != "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"detail": detail})
		return
	}

	preview := string(data)
	if len(preview) > 200 {
		preview = preview[:200]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"filename":    header.Filename,
		"size":        len(data),
		"text_length": len(data),
		"num_chunks":  len(data)/1000 + 1,
		"preview":     preview,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds backend.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Requisição inválida."})
		return
	}
	a.mu.Lock()
	pw, ok := a.users[creds.Email]
	a.mu.Unlock()
	if !ok || pw != creds.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Email ou senha inválidos."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "ok", "user_id": creds.Email})
}

func (a *API) handleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, backend.SourceCounts{Federal: 12, State: 7, Municipal: 3, Total: 22})
}

func (a *API) handleTable(w http.ResponseWriter, r *http.Request) {
	var req backend.TableRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "message": "invalid body"})
		return
	}

	var rows []backend.Row
	spheres := []struct {
		on   bool
		name string
		law  string
	}{
		{req.Spheres.Federal, "Federal", "Lei 6.938/1981"},
		{req.Spheres.State, "Estadual", "Lei Estadual 1.000/2000"},
		{req.Spheres.Municipal, "Municipal", "Lei Municipal 100/2010"},
	}
	stats := &backend.TableStats{}
	for _, s := range spheres {
		if !s.on {
			continue
		}
		row := orderedmap.New[string, any]()
		row.Set("lei", s.law)
		row.Set("artigo", "Art. 1º")
		row.Set("descricao", "Dispõe sobre "+req.EnterpriseDescription)
		row.Set("esfera", s.name)
		rows = append(rows, row)
		switch s.name {
		case "Federal":
			stats.Federal++
		case "Estadual":
			stats.State++
		case "Municipal":
			stats.Municipal++
		}
		stats.Total++
	}

	data := backend.TableData{Rows: rows}
	if req.Kind == backend.TableSummary {
		data.Stats = stats
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "ok", "data": data})
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	var req backend.DownloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"detail": "invalid body"})
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", req.FileName+"."+req.Format))
	w.Header().Set("Content-Type", "text/csv")
	fmt.Fprintln(w, "lei,artigo,descricao,esfera")
	for _, row := range req.Data.Rows {
		var cells []string
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			cells = append(cells, fmt.Sprint(pair.Value))
		}
		fmt.Fprintln(w, strings.Join(cells, ","))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
