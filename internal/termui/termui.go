// Package termui draws the chat page's node tree in a terminal.
package termui

import (
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/leisambientais/leischat/internal/backend"
	"github.com/leisambientais/leischat/internal/conversation"
	"github.com/leisambientais/leischat/internal/tables"
	"github.com/leisambientais/leischat/internal/view"
)

// Theme holds the terminal styles.
type Theme struct {
	Header    lipgloss.Style
	User      lipgloss.Style
	Assistant lipgloss.Style
	Muted     lipgloss.Style
	Active    lipgloss.Style
	Success   lipgloss.Style
	Danger    lipgloss.Style
	Box       lipgloss.Style
}

// DefaultTheme returns the standard palette.
func DefaultTheme() Theme {
	accent := lipgloss.Color("#22C55E")
	user := lipgloss.Color("#60A5FA")
	secondary := lipgloss.Color("#7D7D7D")
	danger := lipgloss.Color("#FF0055")

	return Theme{
		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		User: lipgloss.NewStyle().
			Foreground(user),
		Assistant: lipgloss.NewStyle(),
		Muted: lipgloss.NewStyle().
			Foreground(secondary),
		Active: lipgloss.NewStyle().
			Bold(true).
			Foreground(accent),
		Success: lipgloss.NewStyle().
			Foreground(accent),
		Danger: lipgloss.NewStyle().
			Foreground(danger),
		Box: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(secondary).
			Padding(0, 1),
	}
}

// Renderer turns view nodes into terminal text.
type Renderer struct {
	theme Theme
	width int
}

// New creates a renderer wrapping text at width columns (0 for no wrap).
func New(width int) *Renderer {
	return &Renderer{theme: DefaultTheme(), width: width}
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plain returns the visible text of a node, dropping markup from rendered
// Markdown.
func plain(n *view.Node) string {
	if n.Raw != "" {
		return strings.TrimSpace(html.UnescapeString(tagPattern.ReplaceAllString(n.Raw, "")))
	}
	return n.TextContent()
}

func (r *Renderer) wrap(s lipgloss.Style) lipgloss.Style {
	if r.width > 0 {
		return s.Width(r.width)
	}
	return s
}

// Header renders a title line.
func (r *Renderer) Header(title string) string {
	return r.theme.Header.Render(title)
}

// Message renders one `div.message` node.
func (r *Renderer) Message(n *view.Node) string {
	var avatar, text string
	for _, c := range n.Children {
		switch {
		case c.HasClass("avatar"):
			avatar = c.Text
		case c.HasClass("text"):
			text = plain(c)
		}
	}
	style := r.theme.Assistant
	if n.Attr("data-role") == string(conversation.RoleUser) {
		style = r.theme.User
	}
	return r.wrap(style).Render(strings.TrimSpace(avatar + " " + text))
}

// Messages renders every message of a message area.
func (r *Renderer) Messages(area *view.Node) string {
	var lines []string
	for _, c := range area.Children {
		if c.HasClass("message") {
			lines = append(lines, r.Message(c))
		}
	}
	return strings.Join(lines, "\n\n")
}

// ConversationList renders the sidebar list, one numbered line per item.
func (r *Renderer) ConversationList(list *view.Node) string {
	if len(list.Children) == 0 {
		return r.theme.Muted.Render("(nenhuma conversa)")
	}
	var lines []string
	for i, li := range list.Children {
		title := ""
		if t := li.First(func(x *view.Node) bool { return x.HasClass("chat-title") }); t != nil {
			title = t.Text
		}
		line := strconv.Itoa(i+1) + ". " + title
		if id := li.Attr("data-id"); id != "" {
			line += r.theme.Muted.Render("  [" + id + "]")
		}
		if li.HasClass("active") {
			line = r.theme.Active.Render("> " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// Modal renders a modal node as a bordered box of its text.
func (r *Renderer) Modal(n *view.Node) string {
	if n == nil {
		return ""
	}
	var lines []string
	for _, c := range n.All(func(x *view.Node) bool { return x.Text != "" && x.Tag != "button" }) {
		lines = append(lines, c.Text)
	}
	style := r.theme.Box
	switch n.Attr("data-state") {
	case "succeeded":
		style = style.BorderForeground(r.theme.Success.GetForeground())
	case "failed":
		style = style.BorderForeground(r.theme.Danger.GetForeground())
	}
	return style.Render(strings.Join(lines, "\n"))
}

// Table renders generated rows with the same headers as the web page.
func (r *Renderer) Table(rows []backend.Row) string {
	if len(rows) == 0 {
		return r.theme.Muted.Render("(sem resultados)")
	}
	var b strings.Builder
	var keys []string
	for pair := rows[0].Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	headers := make([]string, len(keys))
	for i, k := range keys {
		headers[i] = tables.ColumnName(k)
	}
	b.WriteString(r.theme.Header.Render(strings.Join(headers, " | ")))
	for _, row := range rows {
		cells := make([]string, len(keys))
		for i, k := range keys {
			cells[i] = tables.CellText(row, k)
		}
		b.WriteString("\n" + strings.Join(cells, " | "))
	}
	return b.String()
}

// Error renders an error line.
func (r *Renderer) Error(msg string) string {
	return r.theme.Danger.Render(msg)
}

// Success renders a confirmation line.
func (r *Renderer) Success(msg string) string {
	return r.theme.Success.Render(msg)
}

// Muted renders secondary text.
func (r *Renderer) Muted(msg string) string {
	return r.theme.Muted.Render(msg)
}
