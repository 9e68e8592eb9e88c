package tables

import (
	"fmt"
	"strconv"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/view"
)

// Element ids of the tables page.
const (
	IDPage    = "tables-app"
	IDResults = "results-section"
)

func checkbox(id, label string, checked bool) *view.Node {
	in := view.El("input").WithID(id).Set("type", "checkbox").Set("name", id)
	if checked {
		in.Set("checked", "checked")
	}
	return view.El("label", "sphere").Append(in, view.El("span").WithText(label))
}

func count(n int) string { return strconv.Itoa(n) }

// View renders the whole page.
func (f *Form) View() *view.Node {
	root := view.El("div", "app-container").WithID(IDPage).Set("data-theme", f.Theme)

	themeLabel := "Modo Escuro"
	if f.Theme == ThemeLight {
		themeLabel = "Modo Claro"
	}
	toggle := view.El("input").WithID("themeToggle").Set("type", "checkbox").
		On("change", "tables:theme", "")
	if f.Theme == ThemeDark {
		toggle.Set("checked", "checked")
	}

	sidebar := view.El("aside", "sidebar").Append(
		view.El("h2").WithText("Fontes de dados"),
		f.sourcesView(),
		view.El("label", "theme-toggle").Append(toggle, view.El("span", "theme-label").WithText(themeLabel)),
	)

	main := view.El("main", "main-content").Append(
		view.El("h1").WithText("Gerador de Tabelas de Legislação Ambiental"),
		f.messagesView(),
		f.formView(),
	)
	if f.processing {
		main.Append(view.El("div", "loading").WithID("loading").WithText("Processando..."))
	}
	if f.result != nil {
		main.Append(f.resultsView())
	}
	return root.Append(sidebar, main)
}

func (f *Form) sourcesView() *view.Node {
	src := backend.SourceCounts{}
	if f.sources != nil {
		src = *f.sources
	}
	row := func(id, label string, n int) *view.Node {
		return view.El("li").Append(
			view.El("span").WithText(label),
			view.El("strong").WithID(id).WithText(count(n)),
		)
	}
	return view.El("ul", "data-sources").Append(
		row("federalCount", "Federal", src.Federal),
		row("estadualCount", "Estadual", src.State),
		row("municipalCount", "Municipal", src.Municipal),
		row("totalCount", "Total", src.Total),
	)
}

func (f *Form) messagesView() *view.Node {
	box := view.El("div", "messages")
	if f.success != "" {
		box.Append(view.El("div", "success-message").WithID("successMessage").WithText(f.success))
	}
	if f.failure != "" {
		box.Append(view.El("div", "error-message").WithID("errorMessage").WithText(f.failure))
	}
	return box
}

func (f *Form) formView() *view.Node {
	in := f.Input
	methodBtn := func(method, label string) *view.Node {
		b := view.El("button", "toggle-btn").Set("type", "button").Set("data-method", method).
			WithText(label).On("click", "tables:method", method)
		if in.Method == method {
			b.AddClass("active")
		}
		return b
	}

	form := view.El("form", "generator-form").WithID("generator-form").Append(
		view.El("div", "method-toggle").Append(
			methodBtn(MethodDetailed, "Descrição detalhada"),
			methodBtn(MethodManual, "Seleção manual"),
		),
	)

	if in.Method == MethodDetailed {
		detailed := view.El("div", "method").WithID("detailedMethod").Append(
			view.El("label").Set("for", "projectDescription").WithText("Descreva seu projeto"),
			view.El("textarea").WithID("projectDescription").Set("name", "projectDescription").
				Set("rows", "5").WithText(in.Description).On("change", "tables:describe", ""),
		)
		if f.extractedMunicipality != "" || f.extractedActivity != "" {
			municipality := f.extractedMunicipality
			if municipality == "" {
				municipality = "Não identificado"
			}
			activity := ActivityLabel(f.extractedActivity)
			if activity == "" {
				activity = "Não identificada"
			}
			detailed.Append(view.El("div", "extracted-info").WithID("extractedInfo").Append(
				view.El("p").WithText("Município: ").Append(view.El("span").WithID("extractedMunicipio").WithText(municipality)),
				view.El("p").WithText("Atividade: ").Append(view.El("span").WithID("extractedAtividade").WithText(activity)),
			))
		}
		form.Append(detailed)
	} else {
		sel := view.El("select").WithID("atividade").Set("name", "atividade").
			Append(view.El("option").Set("value", "").WithText("Selecione..."))
		for pair := Activities.Oldest(); pair != nil; pair = pair.Next() {
			opt := view.El("option").Set("value", pair.Key).WithText(ActivityLabel(pair.Key))
			if in.Activity == pair.Key {
				opt.Set("selected", "selected")
			}
			sel.Append(opt)
		}
		form.Append(view.El("div", "method").WithID("manualMethod").Append(
			view.El("label").Set("for", "municipio").WithText("Município"),
			view.El("input").WithID("municipio").Set("name", "municipio").Set("type", "text").Set("value", in.Municipality),
			view.El("label").Set("for", "atividade").WithText("Tipo de atividade"),
			sel,
		))
	}

	format := view.El("select").WithID("downloadFormat").Set("name", "downloadFormat")
	for _, opt := range []struct{ value, label string }{{FormatExcel, "Excel"}, {FormatCSV, "CSV"}} {
		o := view.El("option").Set("value", opt.value).WithText(opt.label)
		if in.DownloadFormat == opt.value {
			o.Set("selected", "selected")
		}
		format.Append(o)
	}

	generate := func(id, label string, kind backend.TableKind) *view.Node {
		b := view.El("button", "generate-btn").WithID(id).Set("type", "button").
			WithText(label).On("click", "tables:generate", string(kind))
		if f.processing {
			b.Set("disabled", "disabled")
		}
		return b
	}

	return form.Append(
		view.El("label").Set("for", "descricaoEmpreendimento").WithText("Descrição do empreendimento"),
		view.El("textarea").WithID("descricaoEmpreendimento").Set("name", "descricaoEmpreendimento").
			Set("rows", "3").WithText(in.EnterpriseDescription),
		view.El("fieldset", "spheres").Append(
			view.El("legend").WithText("Esferas legais"),
			checkbox("federal", "Federal", in.Spheres.Federal),
			checkbox("estadual", "Estadual", in.Spheres.State),
			checkbox("municipal", "Municipal", in.Spheres.Municipal),
		),
		view.El("label").Set("for", "maxDocumentsNumber").WithText("Máximo de documentos"),
		view.El("input").WithID("maxDocumentsNumber").Set("name", "maxDocumentsNumber").Set("type", "number").
			Set("min", count(MinDocuments)).Set("max", count(MaxDocuments)).Set("value", count(in.MaxDocuments)),
		format,
		view.El("div", "actions").Append(
			generate("gerarEstrutura", "Gerar estrutura", backend.TableStructure),
			generate("gerarQuadroResumo", "Gerar quadro-resumo", backend.TableSummary),
		),
	)
}

func (f *Form) resultsView() *view.Node {
	section := view.El("section", "results").WithID(IDResults)
	section.Append(TableNode(f.result.Rows))
	if f.resultKind == backend.TableSummary && f.result.Stats != nil {
		st := f.result.Stats
		section.Append(view.El("div", "stats").WithID("statsSection").Append(
			view.El("p").WithText(fmt.Sprintf("Total de legislações: %d", st.Total)),
			view.El("p").WithText(fmt.Sprintf("Federais: %d", st.Federal)),
			view.El("p").WithText(fmt.Sprintf("Estaduais: %d", st.State)),
			view.El("p").WithText(fmt.Sprintf("Municipais: %d", st.Municipal)),
		))
	}
	section.Append(view.El("div", "downloads").Append(
		view.El("button", "download-btn").WithID("downloadExcel").Set("type", "button").
			WithText("Baixar Excel").On("click", "tables:download", FormatExcel),
		view.El("button", "download-btn").WithID("downloadCsv").Set("type", "button").
			WithText("Baixar CSV").On("click", "tables:download", FormatCSV),
	))
	return section
}

// TableNode renders rows as a table. Headers come from the first row; empty
// cells show "-".
func TableNode(rows []backend.Row) *view.Node {
	table := view.El("table", "result-table")
	if len(rows) > 0 && rows[0] != nil {
		tr := view.El("tr")
		for pair := rows[0].Oldest(); pair != nil; pair = pair.Next() {
			tr.Append(view.El("th").WithText(ColumnName(pair.Key)))
		}
		table.Append(view.El("thead").Append(tr))
	}
	body := view.El("tbody")
	for _, row := range rows {
		if row == nil {
			continue
		}
		tr := view.El("tr")
		for pair := row.Oldest(); pair != nil; pair = pair.Next() {
			tr.Append(view.El("td").WithText(cellText(pair.Value)))
		}
		body.Append(tr)
	}
	return table.Append(body)
}

// CellText returns the display text of a row's column, "-" when the value
// is missing or empty.
func CellText(row backend.Row, key string) string {
	if row == nil {
		return "-"
	}
	v, _ := row.Get(key)
	return cellText(v)
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case string:
		if x == "" {
			return "-"
		}
		return x
	case bool:
		if !x {
			return "-"
		}
		return "true"
	case float64:
		if x == 0 {
			return "-"
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}
