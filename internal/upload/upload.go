// Package upload is the document upload modal: a small state machine that
// validates the chosen file, posts it and shows the result.
package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"path"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/view"
)

// ErrRejected is returned for files that may not be uploaded.
var ErrRejected = errors.New("upload: file rejected")

// Messages shown by the widget.
const (
	MsgOnlyPDF        = "Por favor, selecione apenas arquivos PDF."
	MsgTooLarge       = "O arquivo excede o tamanho máximo permitido."
	MsgUnknownError   = "Erro desconhecido"
	MsgConnTitle      = "Erro de conexão"
	MsgConnDetail     = "Não foi possível conectar ao servidor. Tente novamente."
	MsgFailedTitle    = "Erro no processamento"
	MsgSucceededTitle = "Documento processado com sucesso!"
	MsgProcessing     = "Processando documento..."
)

// DefaultPatterns are the accepted file name patterns.
var DefaultPatterns = []string{"*.pdf"}

// State is the modal state.
type State int

const (
	Closed State = iota
	Idle
	Uploading
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case Idle:
		return "idle"
	case Uploading:
		return "uploading"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Uploader posts a document.
type Uploader interface {
	Upload(ctx context.Context, filename string, r io.Reader) (*backend.UploadResult, error)
}

// Widget is the upload modal of one UI mount.
type Widget struct {
	api      Uploader
	patterns []string
	maxSize  int64

	state    State
	dragging bool
	filename string
	invalid  string // inline validation message while Idle
	result   backend.UploadSuccess
	errTitle string
	errText  string
}

// Option configures a Widget.
type Option func(*Widget)

// WithPatterns sets the accepted file name patterns (doublestar syntax,
// matched case-insensitively against the base name).
func WithPatterns(patterns ...string) Option {
	return func(w *Widget) {
		if len(patterns) > 0 {
			w.patterns = patterns
		}
	}
}

// WithMaxSize rejects files larger than n bytes. Zero disables the check.
func WithMaxSize(n int64) Option {
	return func(w *Widget) { w.maxSize = n }
}

// New creates a closed widget.
func New(api Uploader, opts ...Option) *Widget {
	w := &Widget{api: api, patterns: DefaultPatterns}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// State returns the current state.
func (w *Widget) State() State { return w.state }

// Result returns the metadata of the last successful upload.
func (w *Widget) Result() backend.UploadSuccess { return w.result }

// Error returns the title and text of the failure panel, or the inline
// validation message with an empty title.
func (w *Widget) Error() (title, text string) {
	if w.state == Idle {
		return "", w.invalid
	}
	return w.errTitle, w.errText
}

func (w *Widget) reset() {
	w.dragging = false
	w.filename = ""
	w.invalid = ""
	w.result = backend.UploadSuccess{}
	w.errTitle, w.errText = "", ""
}

// Open shows the modal ready for a file.
func (w *Widget) Open() {
	if w.state == Uploading {
		return
	}
	w.reset()
	w.state = Idle
}

// Close hides the modal. An upload in progress keeps it open.
func (w *Widget) Close() bool {
	if w.state == Uploading {
		return false
	}
	w.reset()
	w.state = Closed
	return true
}

// DragOver highlights the drop area.
func (w *Widget) DragOver() {
	if w.state == Idle {
		w.dragging = true
	}
}

// DragLeave removes the highlight.
func (w *Widget) DragLeave() {
	w.dragging = false
}

// Accepts reports whether name matches one of the accepted patterns.
func (w *Widget) Accepts(name string) bool {
	base := strings.ToLower(path.Base(strings.ReplaceAll(name, "\\", "/")))
	for _, p := range w.patterns {
		ok, err := doublestar.Match(strings.ToLower(p), base)
		if err != nil {
			log.Printf("upload: bad pattern %q: %v", p, err)
			continue
		}
		if ok {
			return true
		}
	}
	return false
}

// Validate checks a file before any request is made. A rejected file leaves
// the modal open with an inline message.
func (w *Widget) Validate(name string, size int64) error {
	if !w.Accepts(name) {
		w.invalid = MsgOnlyPDF
		return fmt.Errorf("%s: %w", name, ErrRejected)
	}
	if w.maxSize > 0 && size > w.maxSize {
		w.invalid = MsgTooLarge
		return fmt.Errorf("%s is %s: %w", name, FormatSize(size), ErrRejected)
	}
	w.invalid = ""
	return nil
}

// Begin validates the file and switches to Uploading.
func (w *Widget) Begin(name string, size int64) error {
	if w.state != Idle {
		return fmt.Errorf("upload: cannot start while %s", w.state)
	}
	w.dragging = false
	if err := w.Validate(name, size); err != nil {
		return err
	}
	w.filename = name
	w.state = Uploading
	return nil
}

// Finish applies the outcome of the request started by Begin.
func (w *Widget) Finish(res *backend.UploadResult, err error) {
	if w.state != Uploading {
		return
	}
	switch {
	case err != nil:
		log.Printf("upload: %s: %v", w.filename, err)
		w.state = Failed
		w.errTitle, w.errText = MsgConnTitle, MsgConnDetail
	case res.OK:
		w.state = Succeeded
		w.result = res.Success
	default:
		w.state = Failed
		w.errTitle = MsgFailedTitle
		w.errText = res.Detail
		if w.errText == "" {
			w.errText = MsgUnknownError
		}
	}
}

// Upload runs a whole upload synchronously.
func (w *Widget) Upload(ctx context.Context, name string, size int64, r io.Reader) error {
	if w.state == Closed {
		w.Open()
	}
	if err := w.Begin(name, size); err != nil {
		return err
	}
	res, err := w.api.Upload(ctx, name, r)
	w.Finish(res, err)
	return err
}

// Continue closes the modal after a success. The caller moves focus to the
// message input.
func (w *Widget) Continue() bool {
	if w.state != Succeeded {
		return false
	}
	return w.Close()
}

// Retry goes back to the empty modal after a failure.
func (w *Widget) Retry() {
	if w.state == Failed {
		w.Open()
	}
}

// FormatSize renders a byte count as "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	units := []string{"Bytes", "KB", "MB", "GB"}
	i := int(math.Floor(math.Log(float64(n)) / math.Log(1024)))
	if i >= len(units) {
		i = len(units) - 1
	}
	v := math.Round(float64(n)/math.Pow(1024, float64(i))*100) / 100
	return strconv.FormatFloat(v, 'f', -1, 64) + " " + units[i]
}

// View renders the modal, or nil when closed.
func (w *Widget) View() *view.Node {
	if w.state == Closed {
		return nil
	}
	content := view.El("div", "modal-content")
	content.Append(
		view.El("div", "modal-header").Append(
			view.El("h2").WithText("Enviar documento"),
			view.El("button", "modal-close").Set("type", "button").WithText("×").On("click", "upload:close", ""),
		),
	)

	switch w.state {
	case Idle:
		area := view.El("div", "upload-area").WithID("upload-area").
			On("dragover", "upload:dragover", "").
			On("dragleave", "upload:dragleave", "").
			On("drop", "upload:file", "")
		if w.dragging {
			area.AddClass("dragover")
		}
		area.Append(
			view.El("p").WithText("Arraste um arquivo PDF aqui ou clique para selecionar"),
			view.El("input").WithID("file-input").
				Set("type", "file").
				Set("accept", strings.Join(w.patterns, ",")).
				On("change", "upload:file", ""),
		)
		content.Append(area)
		if w.invalid != "" {
			content.Append(view.El("div", "upload-error").WithText(w.invalid))
		}
	case Uploading:
		content.Append(view.El("div", "upload-progress").Append(
			view.El("div", "spinner"),
			view.El("p").WithText(MsgProcessing),
			view.El("p", "filename").WithText(w.filename),
		))
	case Succeeded:
		r := w.result
		content.Append(view.El("div", "upload-success").Append(
			view.El("h3").WithText("✅ "+MsgSucceededTitle),
			view.El("p").WithText("Arquivo: "+r.Filename),
			view.El("p").WithText("Tamanho: "+FormatSize(r.Size)),
			view.El("p").WithText("Caracteres extraídos: "+strconv.Itoa(r.TextLength)),
			view.El("p").WithText("Partes processadas: "+strconv.Itoa(r.NumChunks)),
			view.El("pre", "preview").WithText(r.Preview),
			view.El("button", "continue-btn").Set("type", "button").
				WithText("Continuar conversa").On("click", "upload:continue", ""),
		))
	case Failed:
		content.Append(view.El("div", "upload-failure").Append(
			view.El("h3").WithText("❌ "+w.errTitle),
			view.El("p").WithText(w.errText),
			view.El("button", "retry-btn").Set("type", "button").
				WithText("Tentar novamente").On("click", "upload:retry", ""),
		))
	}

	return view.El("div", "modal").WithID("upload-modal").
		Set("data-state", w.state.String()).
		Append(content)
}
