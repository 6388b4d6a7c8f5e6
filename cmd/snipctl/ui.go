package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/sakif/snippet-vault/internal/model"
)

var (
	colorAccent  = lipgloss.Color("#20B9B4")
	colorWarning = lipgloss.Color("#F4D03F")
	colorError   = lipgloss.Color("#E74C3C")
	colorMuted   = lipgloss.Color("#7F8C8D")
)

var styles = struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Tag     lipgloss.Style
	Code    lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorAccent),
	Success: lipgloss.NewStyle().Foreground(colorAccent),
	Warning: lipgloss.NewStyle().Foreground(colorWarning),
	Error:   lipgloss.NewStyle().Foreground(colorError),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Tag:     lipgloss.NewStyle().Foreground(colorAccent),
	Code: lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorMuted).
		Padding(0, 1),
}

func success(w io.Writer, msg string) { fmt.Fprintln(w, styles.Success.Render(msg)) }
func warning(w io.Writer, msg string) { fmt.Fprintln(w, styles.Warning.Render("⚠ "+msg)) }

func renderTags(tags []string) string {
	if len(tags) == 0 {
		return styles.Muted.Render("-")
	}
	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = styles.Tag.Render("#" + t)
	}
	return strings.Join(out, " ")
}

// renderList draws the snippet table followed by the count label.
func renderList(w io.Writer, rows []model.Snippet, count string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No snippets found. Add some with `snipctl add`."))
	} else {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
			Headers("ID", "TITLE", "LANGUAGE", "USECASE", "TAGS")
		for _, s := range rows {
			t.Row(s.ID, s.Title, string(s.Language), truncate(s.Usecase, 40), renderTags(s.Tags))
		}
		fmt.Fprintln(w, t.String())
	}
	fmt.Fprintln(w, styles.Muted.Render(count))
}

func renderSnippet(w io.Writer, s *model.Snippet) {
	fmt.Fprintln(w, styles.Title.Render(s.Title))
	fmt.Fprintf(w, "%s  %s\n", styles.Muted.Render(string(s.Language)), renderTags(s.Tags))
	fmt.Fprintln(w, s.Usecase)
	fmt.Fprintln(w, styles.Code.Render(s.Code))
	fmt.Fprintln(w, styles.Muted.Render("id "+s.ID+" · created "+s.CreatedAt.Format("2006-01-02 15:04")))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
