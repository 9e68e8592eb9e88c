package tables

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/mockapi"
)

const goodDescription = "Construção de um aterro sanitário localizado no município de Belo Horizonte, MG"

func TestIsRelevant(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"curto demais", false},
		{goodDescription, true},
		{"Quero saber sobre a cidade onde moro agora", true},
		{"Um texto comprido mas sem nenhuma pista útil", false},
		{"IMPLANTAÇÃO DE UMA PEQUENA CENTRAL ELÉTRICA", true},
	}
	for _, tt := range tests {
		if got := IsRelevant(tt.text); got != tt.want {
			t.Errorf("IsRelevant(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestIsSpam(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{goodDescription, false},
		{"Operação de usina (fase 2): geração solar; área rural.", false},
		{"abababababab obra", true},
		{"obra aaaaaaaaaaaa", true},
		{"obra com símbolo $ estranho", true},
		{"obra 🚧 em andamento", true},
	}
	for _, tt := range tests {
		if got := IsSpam(tt.text); got != tt.want {
			t.Errorf("IsSpam(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestExtractMunicipality(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{goodDescription, "Belo Horizonte"},
		{"Fábrica de cimento instalada em Sorocaba, SP com grande porte", "Sorocaba"},
		{"Loteamento residencial situado em São José dos Campos", "São José Dos Campos"},
		{"Projeto sem localização definida ainda", ""},
	}
	for _, tt := range tests {
		if got := ExtractMunicipality(tt.text); got != tt.want {
			t.Errorf("ExtractMunicipality(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestExtractActivity(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Extração de minério de ferro", "mineracao"},
		{"Usina solar fotovoltaica", "energia"},
		{"Produção de cimento", "industria"},
		{"Hotel fazenda", "agropecuaria"}, // fazenda is matched before hotel
		{"Nada a ver", ""},
	}
	for _, tt := range tests {
		if got := ExtractActivity(tt.text); got != tt.want {
			t.Errorf("ExtractActivity(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestColumnNameAndClamp(t *testing.T) {
	if ColumnName("descricao") != "Descrição" || ColumnName("ano") != "Ano" || ColumnName("órgão") != "Órgão" {
		t.Error("unexpected column names")
	}
	for in, want := range map[int]int{0: 5, 5: 5, 20: 20, 50: 50, 99: 50} {
		if got := ClampDocuments(in); got != want {
			t.Errorf("ClampDocuments(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name  string
		input func(in *Input)
		want  string
	}{
		{"empty description", func(in *Input) {}, MsgDescribeProject},
		{"irrelevant", func(in *Input) { in.Description = "Um texto comprido mas sem nenhuma pista útil" }, MsgIrrelevant},
		{"spam", func(in *Input) { in.Description = goodDescription + " $$$" }, MsgSpam},
		{"enterprise spam", func(in *Input) {
			in.Description = goodDescription
			in.EnterpriseDescription = "zzzzzzzzzzzzzzz"
		}, MsgEnterpriseSpam},
		{"no sphere", func(in *Input) {
			in.Description = goodDescription
			in.Spheres = backend.Spheres{}
		}, MsgSphere},
		{"manual without municipality", func(in *Input) { in.Method = MethodManual }, MsgMunicipality},
		{"manual without activity", func(in *Input) {
			in.Method = MethodManual
			in.Municipality = "Recife"
		}, MsgActivity},
		{"manual short municipality", func(in *Input) {
			in.Method = MethodManual
			in.Municipality = "R"
			in.Activity = "turismo"
		}, MsgInvalidMunicipality},
		{"detailed ok", func(in *Input) { in.Description = goodDescription }, ""},
		{"manual ok", func(in *Input) {
			in.Method = MethodManual
			in.Municipality = "Recife"
			in.Activity = "turismo"
		}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(nil)
			tt.input(&f.Input)
			err := f.Validate()
			if tt.want == "" {
				if err != nil {
					t.Errorf("unexpected error %v", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) || ve.Message != tt.want {
				t.Errorf("got %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDescribeFillsManualFields(t *testing.T) {
	f := New(nil)
	m, a := f.Describe("Hotel e pousada no município de Paraty para ecoturismo")
	if m != "Paraty" || a != "turismo" {
		t.Errorf("extracted %q %q", m, a)
	}
	if f.Input.Municipality != "Paraty" || f.Input.Activity != "turismo" {
		t.Errorf("manual fields not filled: %+v", f.Input)
	}

	f.Input.Municipality = "Angra"
	f.Describe("Hotel e pousada no município de Paraty para ecoturismo")
	if f.Input.Municipality != "Angra" {
		t.Error("typed municipality must not be overwritten")
	}
	if !strings.Contains(f.View().HTML(), "Turismo") {
		t.Error("extracted activity label should be shown")
	}
}

func TestRequestByMethod(t *testing.T) {
	f := New(nil)
	f.Input.Description = "  " + goodDescription + "  "
	f.Input.Municipality = "ignored"
	f.SetMaxDocuments(500)

	req := f.Request(backend.TableStructure)
	if req.ProjectDescription != goodDescription || req.Municipality != "" || req.MaxDocuments != MaxDocuments {
		t.Errorf("unexpected detailed request %+v", req)
	}

	f.SetMethod(MethodManual)
	f.Input.Activity = "energia"
	req = f.Request(backend.TableSummary)
	if req.ProjectDescription != "" || req.Municipality != "ignored" || req.Activity != "energia" || req.Method != MethodManual {
		t.Errorf("unexpected manual request %+v", req)
	}
}

func TestGenerateAndDownload(t *testing.T) {
	api := mockapi.New()
	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	f := New(backend.NewClient(ts.URL))
	f.now = func() time.Time { return time.Date(2026, 3, 5, 10, 0, 0, 0, time.UTC) }

	if _, _, err := f.Download(context.Background(), FormatCSV); err == nil {
		t.Error("download without results should fail")
	}

	f.Input.Description = goodDescription
	f.Input.EnterpriseDescription = "aterro sanitário"
	if err := f.Generate(context.Background(), backend.TableSummary); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	data, kind := f.Result()
	if kind != backend.TableSummary || len(data.Rows) != 3 {
		t.Fatalf("unexpected result %v %d", kind, len(data.Rows))
	}
	if ok, _ := f.Messages(); ok != "Quadro-resumo gerado com sucesso!" {
		t.Errorf("success banner %q", ok)
	}
	html := f.View().HTML()
	for _, want := range []string{"<th>Lei</th>", "<th>Descrição</th>", "Total de legislações: 3", "tables:download"} {
		if !strings.Contains(html, want) {
			t.Errorf("missing %q", want)
		}
	}

	name, file, err := f.Download(context.Background(), FormatCSV)
	if err != nil {
		t.Fatalf("Download: %v", err)
	}
	if name != "tabela_legislacao_2026-03-05.csv" {
		t.Errorf("file name %q", name)
	}
	if !strings.Contains(string(file), "Lei 6.938/1981") {
		t.Errorf("file %q", file)
	}
	if n := len(api.Calls(http.MethodPost, "/api/download-tabela")); n != 1 {
		t.Errorf("expected one download request, got %d", n)
	}
}

func TestGenerateFailureAndBusy(t *testing.T) {
	api := mockapi.New()
	api.Fail(http.MethodPost, "/api/gerar-estrutura", http.StatusInternalServerError)
	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	f := New(backend.NewClient(ts.URL))
	f.Input.Description = goodDescription
	if err := f.Generate(context.Background(), backend.TableStructure); err == nil {
		t.Fatal("expected error")
	}
	if _, failure := f.Messages(); failure != "Erro ao gerar estrutura: falha simulada" {
		t.Errorf("failure banner %q", failure)
	}
	if f.Processing() {
		t.Error("form should be idle again")
	}

	if _, err := f.Begin(backend.TableStructure); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := f.Begin(backend.TableStructure); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
}

func TestValidationFailureSendsNothing(t *testing.T) {
	api := mockapi.New()
	ts := httptest.NewServer(api.Router())
	defer ts.Close()

	f := New(backend.NewClient(ts.URL))
	f.Input.Spheres = backend.Spheres{}
	f.Input.Description = goodDescription
	f.Generate(context.Background(), backend.TableStructure)
	if n := len(api.Calls(http.MethodPost, "/api/")); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
	if _, failure := f.Messages(); failure != MsgSphere {
		t.Errorf("failure banner %q", failure)
	}
}

func TestApplyForm(t *testing.T) {
	f := New(nil)
	f.ApplyForm(map[string]string{
		"projectDescription": goodDescription,
		"maxDocumentsNumber": "abc",
		"federal":            "on",
		"downloadFormat":     "pdf",
	})
	if f.Input.Description != goodDescription || f.Input.MaxDocuments != MinDocuments {
		t.Errorf("unexpected input %+v", f.Input)
	}
	if !f.Input.Spheres.Federal || f.Input.Spheres.State || f.Input.Spheres.Municipal {
		t.Errorf("unexpected spheres %+v", f.Input.Spheres)
	}
	if f.Input.DownloadFormat != FormatExcel {
		t.Error("unknown formats are ignored")
	}
}

func TestTableNodeEmptyCells(t *testing.T) {
	row := orderedmap.New[string, any]()
	row.Set("lei", "Lei 9.605/1998")
	row.Set("artigo", "")
	row.Set("observacoes", nil)
	html := TableNode([]backend.Row{row}).HTML()
	want := "<tr><td>Lei 9.605/1998</td><td>-</td><td>-</td></tr>"
	if !strings.Contains(html, want) {
		t.Errorf("got %s", html)
	}
	if !strings.Contains(html, "<th>Observações</th>") {
		t.Errorf("header missing: %s", html)
	}
}

func TestThemeView(t *testing.T) {
	f := New(nil)
	f.SetTheme("blue")
	if f.Theme != ThemeDark {
		t.Error("unknown theme should be ignored")
	}
	f.SetTheme(ThemeLight)
	html := f.View().HTML()
	if !strings.Contains(html, `data-theme="light"`) || !strings.Contains(html, "Modo Claro") {
		t.Error("light theme not rendered")
	}
}
