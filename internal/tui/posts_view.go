package tui

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/kingrea/acme-blogs/internal/render"
	"github.com/kingrea/acme-blogs/internal/uitree"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B"))
	bodyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#DDDDDD"))
	metaStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	commentStyle    = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#5B8DEF"))
	placeholderText = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")).Italic(true)
	buttonStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	buttonFocused   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#1E1E1E")).Background(lipgloss.Color("#5B8DEF"))
)

// postsView is the rendered display area plus the line of the focused button.
type postsView struct {
	content     string
	focusedLine int
}

// renderDisplay draws the mounted tree. focusedPost marks which toggle
// button is highlighted; hidden comment sections are skipped.
func renderDisplay(display *uitree.Node, focusedPost int, width int) postsView {
	if width < 20 {
		width = 20
	}
	r := &treeRenderer{
		width:       width,
		focused:     strconv.Itoa(focusedPost),
		focusedLine: -1,
	}
	r.node(display, 0)
	return postsView{
		content:     strings.TrimRight(strings.Join(r.lines, "\n"), "\n"),
		focusedLine: r.focusedLine,
	}
}

type treeRenderer struct {
	width       int
	focused     string
	lines       []string
	focusedLine int
}

func (r *treeRenderer) node(n *uitree.Node, depth int) {
	if n == nil || n.Hidden() {
		return
	}
	indent := strings.Repeat("  ", depth)
	switch n.Tag {
	case "article":
		if len(r.lines) > 0 && depth == 0 {
			r.lines = append(r.lines, "")
		}
	case "h2":
		r.text(indent, n.Text, titleStyle)
	case "h3":
		r.text(indent, n.Text, commentStyle)
	case "button":
		style := buttonStyle
		if id, _ := n.Data(render.DataPostID); id == r.focused {
			style = buttonFocused
			r.focusedLine = len(r.lines)
		}
		r.lines = append(r.lines, indent+style.Render("[ "+n.Text+" ]"))
	case uitree.DefaultTag:
		style := bodyStyle
		switch {
		case n.HasClass(render.ClassDefaultText):
			style = placeholderText
		case strings.HasPrefix(n.Text, "Post ID:"), strings.HasPrefix(n.Text, "Author:"), strings.HasPrefix(n.Text, "From:"):
			style = metaStyle
		}
		r.text(indent, n.Text, style)
	}
	next := depth
	if n.Tag == "section" {
		next = depth + 1
	}
	for _, child := range n.Children() {
		r.node(child, next)
	}
}

func (r *treeRenderer) text(indent, text string, style lipgloss.Style) {
	if text == "" {
		return
	}
	wrapped := wordwrap.String(text, r.width-len(indent))
	for _, line := range strings.Split(wrapped, "\n") {
		r.lines = append(r.lines, indent+style.Render(line))
	}
}
