package backend

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// ErrMalformed is returned when a 2xx response lacks a required field or is
// not valid JSON.
var ErrMalformed = errors.New("backend: malformed response")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Code    int
	Message string // server supplied message, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: status %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("backend: status %d", e.Code)
}

// Message is a chat turn on the wire.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AskRequest is the body of a chat send.
type AskRequest struct {
	History        []Message `json:"history"`
	ConversationID *string   `json:"conversation_id"` // null on the first exchange
}

// AskResponse is a validated chat reply.
type AskResponse struct {
	Response       string
	ConversationID string // empty when the backend did not send one
}

// askWire mirrors the JSON so field presence can be checked.
type askWire struct {
	Response       *string `json:"response"`
	ConversationID *string `json:"conversation_id"`
}

// ConversationSummary is an entry of the conversation listing.
type ConversationSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type renameRequest struct {
	Title string `json:"title"`
}

// UploadSuccess is the metadata returned after a PDF was processed.
type UploadSuccess struct {
	Filename   string `json:"filename"`
	Size       int64  `json:"size"`
	TextLength int    `json:"text_length"`
	NumChunks  int    `json:"num_chunks"`
	Preview    string `json:"preview"`
}

// UploadResult is either a success or a failure carrying the server detail.
type UploadResult struct {
	OK      bool
	Success UploadSuccess
	Detail  string // server supplied failure detail, may be empty
}

type uploadWire struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail"`
	UploadSuccess
}

// Credentials are posted by the login form.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is either a success or a failure carrying the server message.
type LoginResult struct {
	OK      bool
	UserID  string
	Message string
}

type loginWire struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
}

// TableKind selects the legislation table to generate.
type TableKind string

const (
	TableStructure TableKind = "estrutura"
	TableSummary   TableKind = "quadro-resumo"
)

// Spheres selects the legal spheres to search.
type Spheres struct {
	Federal   bool `json:"federal"`
	State     bool `json:"estadual"`
	Municipal bool `json:"municipal"`
}

// TableRequest is the body of a table generation request.
type TableRequest struct {
	Kind                  TableKind `json:"tipo"`
	Method                string    `json:"metodo"`
	ProjectDescription    string    `json:"descricao_projeto,omitempty"`
	Municipality          string    `json:"municipio,omitempty"`
	Activity              string    `json:"atividade,omitempty"`
	EnterpriseDescription string    `json:"descricao_empreendimento"`
	Spheres               Spheres   `json:"esferas"`
	MaxDocuments          int       `json:"max_documentos"`
	DownloadFormat        string    `json:"formato_download"`
}

// TableStats summarises a generated summary table.
type TableStats struct {
	Total     int `json:"total"`
	Federal   int `json:"federais"`
	State     int `json:"estaduais"`
	Municipal int `json:"municipais"`
}

// Row is one table row; columns keep the order the backend sent them in.
type Row = *orderedmap.OrderedMap[string, any]

// TableData is the generated table. Rows keep the backend column names.
type TableData struct {
	Rows  []Row       `json:"tabela"`
	Stats *TableStats `json:"estatisticas,omitempty"`
}

type tableWire struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    TableData `json:"data"`
}

// DownloadRequest asks the backend to export a table.
type DownloadRequest struct {
	Data     TableData `json:"dados"`
	Format   string    `json:"formato"`
	FileName string    `json:"nome_arquivo"`
}

// SourceCounts is the number of indexed documents per legal sphere.
type SourceCounts struct {
	Federal   int `json:"federal"`
	State     int `json:"estadual"`
	Municipal int `json:"municipal"`
	Total     int `json:"total"`
}
