// Package backend is the typed HTTP client for the legislation assistant API.
// The API itself lives elsewhere; this package only knows its request and
// response shapes.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Paths are the endpoint paths relative to the base URL.
type Paths struct {
	Chat          string // POST
	Conversations string // GET list, PATCH/GET messages below it
	Delete        string // DELETE <Delete>/<id>
	Upload        string
	Login         string
	Structure     string
	Summary       string
	Download      string
	Sources       string
}

// DefaultPaths are the paths of the reference backend.
var DefaultPaths = Paths{
	Chat:          "/ask-ia",
	Conversations: "/conversations",
	Delete:        "/chat",
	Upload:        "/documents/upload",
	Login:         "/login",
	Structure:     "/api/gerar-estrutura",
	Summary:       "/api/gerar-quadro-resumo",
	Download:      "/api/download-tabela",
	Sources:       "/api/fontes-dados",
}

// Client talks to the backend API.
type Client struct {
	baseURL string
	paths   Paths
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithChatPath overrides the chat endpoint (model variants use their own).
func WithChatPath(path string) Option {
	return func(c *Client) {
		if path != "" {
			c.paths.Chat = path
		}
	}
}

// WithPaths replaces all endpoint paths.
func WithPaths(p Paths) Option {
	return func(c *Client) { c.paths = p }
}

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		paths:   DefaultPaths,
		http:    &http.Client{Timeout: 120 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ask sends the conversation history and returns the assistant reply.
// Non-2xx answers yield a *StatusError; a body without "response" yields
// ErrMalformed.
func (c *Client) Ask(ctx context.Context, req AskRequest) (*AskResponse, error) {
	if req.History == nil {
		req.History = []Message{}
	}
	resp, err := c.doJSON(ctx, http.MethodPost, c.paths.Chat, req)
	if err != nil {
		return nil, fmt.Errorf("asking: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("asking: %w", err)
	}

	var wire askWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("asking: %w: %v", ErrMalformed, err)
	}
	if wire.Response == nil {
		return nil, fmt.Errorf("asking: %w: missing response", ErrMalformed)
	}
	out := &AskResponse{Response: *wire.Response}
	if wire.ConversationID != nil {
		out.ConversationID = *wire.ConversationID
	}
	return out, nil
}

// ListConversations returns the conversations of a user.
func (c *Client) ListConversations(ctx context.Context, userID string) ([]ConversationSummary, error) {
	path := c.paths.Conversations + "?user_id=" + url.QueryEscape(userID)
	var out []ConversationSummary
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("listing conversations: %w", err)
	}
	return out, nil
}

// Messages returns the full history of a persisted conversation.
func (c *Client) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	path := c.paths.Conversations + "/" + url.PathEscape(conversationID) + "/messages"
	var out []Message
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, fmt.Errorf("fetching messages of %s: %w", conversationID, err)
	}
	return out, nil
}

// Rename changes the title of a persisted conversation.
func (c *Client) Rename(ctx context.Context, conversationID, title string) error {
	path := c.paths.Conversations + "/" + url.PathEscape(conversationID)
	resp, err := c.doJSON(ctx, http.MethodPatch, path, renameRequest{Title: title})
	if err != nil {
		return fmt.Errorf("renaming %s: %w", conversationID, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("renaming %s: %w", conversationID, err)
	}
	return nil
}

// Delete removes a persisted conversation.
func (c *Client) Delete(ctx context.Context, conversationID string) error {
	path := c.paths.Delete + "/" + url.PathEscape(conversationID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", conversationID, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("deleting %s: %w", conversationID, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return fmt.Errorf("deleting %s: %w", conversationID, err)
	}
	return nil
}

// Upload sends a document as the "file" field of a multipart form. A server
// refusal is reported in the result, not as an error; errors are transport
// failures only.
func (c *Client) Upload(ctx context.Context, filename string, r io.Reader) (*UploadResult, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)
	go func() {
		part, err := mw.CreateFormFile("file", filename)
		if err == nil {
			_, err = io.Copy(part, r)
		}
		if err == nil {
			err = mw.Close()
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.paths.Upload, pr)
	if err != nil {
		pr.Close()
		return nil, fmt.Errorf("uploading %s: %w", filename, err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uploading %s: %w", filename, err)
	}
	defer resp.Body.Close()

	var wire uploadWire
	decodeErr := json.NewDecoder(resp.Body).Decode(&wire)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 && decodeErr == nil && wire.Success {
		return &UploadResult{OK: true, Success: wire.UploadSuccess}, nil
	}
	return &UploadResult{Detail: wire.Detail}, nil
}

// Login posts credentials. A refusal is reported in the result.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.paths.Login, creds)
	if err != nil {
		return nil, fmt.Errorf("logging in: %w", err)
	}
	defer resp.Body.Close()

	var wire loginWire
	_ = json.NewDecoder(resp.Body).Decode(&wire)
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &LoginResult{OK: true, UserID: wire.UserID, Message: wire.Message}, nil
	}
	return &LoginResult{Message: wire.Message}, nil
}

// GenerateTable asks the backend for a legislation table.
func (c *Client) GenerateTable(ctx context.Context, req TableRequest) (*TableData, error) {
	path := c.paths.Structure
	if req.Kind == TableSummary {
		path = c.paths.Summary
	}
	resp, err := c.doJSON(ctx, http.MethodPost, path, req)
	if err != nil {
		return nil, fmt.Errorf("generating %s: %w", req.Kind, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("generating %s: %w", req.Kind, err)
	}

	var wire tableWire
	if err := json.NewDecoder(resp.Body).Decode(&wire); err != nil {
		return nil, fmt.Errorf("generating %s: %w: %v", req.Kind, ErrMalformed, err)
	}
	if !wire.Success {
		return nil, fmt.Errorf("generating %s: %w", req.Kind, &StatusError{Code: resp.StatusCode, Message: wire.Message})
	}
	return &wire.Data, nil
}

// DownloadTable exports a table and returns the file contents.
func (c *Client) DownloadTable(ctx context.Context, req DownloadRequest) ([]byte, error) {
	resp, err := c.doJSON(ctx, http.MethodPost, c.paths.Download, req)
	if err != nil {
		return nil, fmt.Errorf("downloading table: %w", err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, fmt.Errorf("downloading table: %w", err)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("downloading table: %w", err)
	}
	return data, nil
}

// Sources returns how many documents are indexed per legal sphere.
func (c *Client) Sources(ctx context.Context) (*SourceCounts, error) {
	var out SourceCounts
	if err := c.getJSON(ctx, c.paths.Sources, &out); err != nil {
		return nil, fmt.Errorf("loading data sources: %w", err)
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.http.Do(req)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// checkStatus turns a non-2xx response into a *StatusError, picking up a
// "message" or "detail" field when the body has one.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var msg struct {
		Message string `json:"message"`
		Detail  string `json:"detail"`
	}
	_ = json.Unmarshal(body, &msg)
	text := msg.Message
	if text == "" {
		text = msg.Detail
	}
	return &StatusError{Code: resp.StatusCode, Message: text}
}
