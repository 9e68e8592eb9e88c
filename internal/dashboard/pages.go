package dashboard

import (
	"embed"
	"log"
	"net/http"

	"github.com/leisambientais/leischat/internal/login"
	"github.com/leisambientais/leischat/internal/session"
	"github.com/leisambientais/leischat/internal/tables"
	"github.com/leisambientais/leischat/internal/view"
)

//go:embed static
var staticFS embed.FS

// pageRoots are the ids of the element each page renders into.
var pageRoots = map[string]string{
	session.PageChat:   view.IDApp,
	session.PageLogin:  login.IDForm,
	session.PageTables: tables.IDPage,
}

// Shell returns the HTML document of page. It holds an empty root element
// that the first render over the websocket replaces.
func (d *Dashboard) Shell(page string) string {
	title := d.opts.Title
	if page == session.PageTables {
		title = "Gerador de Tabelas de Legislação"
	}
	doc := view.El("html").Set("lang", "pt-BR").Append(
		view.El("head").Append(
			view.El("meta").Set("charset", "utf-8"),
			view.El("meta").Set("name", "viewport").Set("content", "width=device-width, initial-scale=1"),
			view.El("title").WithText(title),
			view.El("link").Set("rel", "stylesheet").Set("href", "/static/style.css"),
		),
		view.El("body").Set("data-page", page).Append(
			view.El("div").WithID(pageRoots[page]).WithText("Carregando..."),
			view.El("script").Set("src", "/static/app.js"),
		),
	)
	return "<!DOCTYPE html>\n" + doc.HTML()
}

func (d *Dashboard) servePage(page string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Write([]byte(d.Shell(page)))
	}
}

func serveStatic(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := staticFS.ReadFile(name)
		if err != nil {
			log.Printf("dashboard: %s: %v", name, err)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", contentType+"; charset=utf-8")
		w.Write(data)
	}
}
