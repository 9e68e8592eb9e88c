// Package tables is the legislation table generator form: it validates the
// project data, asks the backend for a table and renders the result.
package tables

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/leisambientais/leischat/internal/backend"
)

// Input methods.
const (
	MethodDetailed = "detailed"
	MethodManual   = "manual"
)

// Themes.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Download formats.
const (
	FormatExcel = "excel"
	FormatCSV   = "csv"
)

// Validation messages.
const (
	MsgDescribeProject     = "Por favor, descreva seu projeto."
	MsgIrrelevant          = "A descrição deve conter informações relevantes sobre o projeto (localização, atividade, características)."
	MsgSpam                = "A descrição contém caracteres ou padrões inválidos."
	MsgEnterpriseSpam      = "A descrição do empreendimento contém caracteres inválidos."
	MsgMunicipality        = "Por favor, informe o município."
	MsgInvalidMunicipality = "Por favor, informe um município válido."
	MsgActivity            = "Por favor, selecione o tipo de atividade."
	MsgSphere              = "Por favor, selecione pelo menos uma esfera legal."
	MsgNoResults           = "Nenhum resultado disponível para download."
)

// ValidationError is a form input problem, shown to the user as is.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ErrBusy is returned while a table is being generated.
var ErrBusy = errors.New("tables: request in progress")

// Generator is the part of the API the form needs.
type Generator interface {
	GenerateTable(ctx context.Context, req backend.TableRequest) (*backend.TableData, error)
	DownloadTable(ctx context.Context, req backend.DownloadRequest) ([]byte, error)
	Sources(ctx context.Context) (*backend.SourceCounts, error)
}

// Input is what the user typed and picked.
type Input struct {
	Method                string
	Description           string
	Municipality          string
	Activity              string
	EnterpriseDescription string
	Spheres               backend.Spheres
	MaxDocuments          int
	DownloadFormat        string
}

// Form is the table generator of one UI mount.
type Form struct {
	api Generator
	now func() time.Time

	Input Input
	Theme string

	extractedMunicipality string
	extractedActivity     string

	sources    *backend.SourceCounts
	processing bool
	result     *backend.TableData
	resultKind backend.TableKind
	success    string
	failure    string
}

// New creates a form with the defaults of the page.
func New(api Generator) *Form {
	return &Form{
		api: api,
		now: time.Now,
		Input: Input{
			Method:         MethodDetailed,
			Spheres:        backend.Spheres{Federal: true, State: true, Municipal: true},
			MaxDocuments:   20,
			DownloadFormat: FormatExcel,
		},
		Theme: ThemeDark,
	}
}

// Processing reports whether a table is being generated.
func (f *Form) Processing() bool { return f.processing }

// Result returns the last generated table.
func (f *Form) Result() (*backend.TableData, backend.TableKind) { return f.result, f.resultKind }

// Messages returns the success and error banners.
func (f *Form) Messages() (success, failure string) { return f.success, f.failure }

// SetMethod switches between the detailed and manual input methods.
func (f *Form) SetMethod(m string) {
	if m == MethodDetailed || m == MethodManual {
		f.Input.Method = m
	}
}

// SetTheme switches the page theme.
func (f *Form) SetTheme(theme string) {
	if theme == ThemeDark || theme == ThemeLight {
		f.Theme = theme
	}
}

// SetMaxDocuments stores n clamped to the allowed range.
func (f *Form) SetMaxDocuments(n int) {
	f.Input.MaxDocuments = ClampDocuments(n)
}

// Describe stores the project description and extracts the municipality and
// activity it mentions. Extracted values fill empty manual fields.
func (f *Form) Describe(text string) (municipality, activity string) {
	f.Input.Description = text
	text = strings.TrimSpace(text)
	f.extractedMunicipality, f.extractedActivity = "", ""
	if len([]rune(text)) < MinDescription {
		return "", ""
	}
	f.extractedMunicipality = ExtractMunicipality(text)
	f.extractedActivity = ExtractActivity(text)
	if f.extractedMunicipality != "" && strings.TrimSpace(f.Input.Municipality) == "" {
		f.Input.Municipality = f.extractedMunicipality
	}
	if f.extractedActivity != "" && f.Input.Activity == "" {
		f.Input.Activity = f.extractedActivity
	}
	return f.extractedMunicipality, f.extractedActivity
}

// Validate checks the input for the selected method.
func (f *Form) Validate() error {
	in := f.Input
	if in.Method == MethodManual {
		municipality := strings.TrimSpace(in.Municipality)
		switch {
		case municipality == "":
			return &ValidationError{MsgMunicipality}
		case in.Activity == "":
			return &ValidationError{MsgActivity}
		case len([]rune(municipality)) < 2:
			return &ValidationError{MsgInvalidMunicipality}
		}
	} else {
		desc := strings.TrimSpace(in.Description)
		switch {
		case desc == "":
			return &ValidationError{MsgDescribeProject}
		case !IsRelevant(desc):
			return &ValidationError{MsgIrrelevant}
		case IsSpam(desc):
			return &ValidationError{MsgSpam}
		}
	}
	if ed := strings.TrimSpace(in.EnterpriseDescription); ed != "" && IsSpam(ed) {
		return &ValidationError{MsgEnterpriseSpam}
	}
	if !in.Spheres.Federal && !in.Spheres.State && !in.Spheres.Municipal {
		return &ValidationError{MsgSphere}
	}
	return nil
}

// Request builds the backend request for kind.
func (f *Form) Request(kind backend.TableKind) backend.TableRequest {
	in := f.Input
	req := backend.TableRequest{
		Kind:                  kind,
		Method:                in.Method,
		EnterpriseDescription: strings.TrimSpace(in.EnterpriseDescription),
		Spheres:               in.Spheres,
		MaxDocuments:          ClampDocuments(in.MaxDocuments),
		DownloadFormat:        in.DownloadFormat,
	}
	if in.Method == MethodManual {
		req.Municipality = strings.TrimSpace(in.Municipality)
		req.Activity = in.Activity
	} else {
		req.ProjectDescription = strings.TrimSpace(in.Description)
	}
	return req
}

// Begin validates the input and marks the form busy. Validation problems
// are shown in the error banner.
func (f *Form) Begin(kind backend.TableKind) (backend.TableRequest, error) {
	if f.processing {
		return backend.TableRequest{}, ErrBusy
	}
	f.success, f.failure = "", ""
	if err := f.Validate(); err != nil {
		f.failure = err.Error()
		return backend.TableRequest{}, err
	}
	f.processing = true
	return f.Request(kind), nil
}

func kindLabel(kind backend.TableKind) string {
	if kind == backend.TableSummary {
		return "Quadro-resumo"
	}
	return "Estrutura"
}

// Finish applies the outcome of the request started by Begin.
func (f *Form) Finish(kind backend.TableKind, data *backend.TableData, err error) {
	f.processing = false
	if err != nil {
		log.Printf("tables: generate %s: %v", kind, err)
		msg := err.Error()
		var se *backend.StatusError
		if errors.As(err, &se) && se.Message != "" {
			msg = se.Message
		}
		f.failure = fmt.Sprintf("Erro ao gerar %s: %s", kind, msg)
		return
	}
	f.result, f.resultKind = data, kind
	f.success = kindLabel(kind) + " gerado com sucesso!"
}

// Generate runs a whole generation synchronously.
func (f *Form) Generate(ctx context.Context, kind backend.TableKind) error {
	req, err := f.Begin(kind)
	if err != nil {
		return err
	}
	data, err := f.api.GenerateTable(ctx, req)
	f.Finish(kind, data, err)
	return err
}

// FileName returns the download file name for format.
func (f *Form) FileName(format string) string {
	ext := "csv"
	if format == FormatExcel {
		ext = "xlsx"
	}
	return f.baseName() + "." + ext
}

func (f *Form) baseName() string {
	return "tabela_legislacao_" + f.now().Format("2006-01-02")
}

// DownloadRequest builds the export request for the last result.
func (f *Form) DownloadRequest(format string) (backend.DownloadRequest, error) {
	if f.result == nil {
		f.failure = MsgNoResults
		return backend.DownloadRequest{}, &ValidationError{MsgNoResults}
	}
	if format != FormatExcel && format != FormatCSV {
		format = f.Input.DownloadFormat
	}
	return backend.DownloadRequest{Data: *f.result, Format: format, FileName: f.baseName()}, nil
}

// Downloaded records the outcome of an export.
func (f *Form) Downloaded(format string, err error) {
	if err != nil {
		log.Printf("tables: download %s: %v", format, err)
		f.failure = "Erro ao baixar arquivo: " + err.Error()
		return
	}
	f.success = "Arquivo " + strings.ToUpper(format) + " baixado com sucesso!"
}

// Download exports the last result and returns the file name and contents.
func (f *Form) Download(ctx context.Context, format string) (string, []byte, error) {
	req, err := f.DownloadRequest(format)
	if err != nil {
		return "", nil, err
	}
	data, err := f.api.DownloadTable(ctx, req)
	f.Downloaded(req.Format, err)
	if err != nil {
		return "", nil, err
	}
	return f.FileName(req.Format), data, nil
}

// LoadSources fetches the indexed document counts. Failures are logged and
// leave the counters empty.
func (f *Form) LoadSources(ctx context.Context) {
	src, err := f.api.Sources(ctx)
	if err != nil {
		log.Printf("tables: loading sources: %v", err)
		return
	}
	f.sources = src
}

// SetSources stores fetched document counts.
func (f *Form) SetSources(src *backend.SourceCounts) {
	f.sources = src
}

// ApplyForm copies submitted form fields into the input. Checkboxes are
// checked when their field is present.
func (f *Form) ApplyForm(values map[string]string) {
	if values == nil {
		return
	}
	if v, ok := values["projectDescription"]; ok {
		f.Input.Description = v
	}
	if v, ok := values["municipio"]; ok {
		f.Input.Municipality = v
	}
	if v, ok := values["atividade"]; ok {
		f.Input.Activity = v
	}
	if v, ok := values["descricaoEmpreendimento"]; ok {
		f.Input.EnterpriseDescription = v
	}
	if v, ok := values["downloadFormat"]; ok && (v == FormatExcel || v == FormatCSV) {
		f.Input.DownloadFormat = v
	}
	if v, ok := values["maxDocumentsNumber"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			n = MinDocuments
		}
		f.SetMaxDocuments(n)
	}
	_, federal := values["federal"]
	_, state := values["estadual"]
	_, municipal := values["municipal"]
	f.Input.Spheres = backend.Spheres{Federal: federal, State: state, Municipal: municipal}
}
