package dashboard

import (
	"strings"
	"unicode/utf8"

	"github.com/KaramelBytes/skatelens-cli/internal/dataset"
)

const maxCellRunes = 80

// RenderMarkdown renders t as a GitHub-flavoured Markdown table. Missing
// cells are shown blank.
func RenderMarkdown(t *dataset.Table) string {
	if t == nil || len(t.Columns) == 0 {
		return ""
	}
	var b strings.Builder
	writeRow(&b, t.Columns, len(t.Columns), func(s string) string {
		s = strings.TrimSpace(s)
		if s == "" {
			return "(unnamed)"
		}
		return safeCell(s)
	})
	seps := make([]string, len(t.Columns))
	for i := range seps {
		seps[i] = "---"
	}
	writeRow(&b, seps, len(seps), func(s string) string { return s })
	for _, r := range t.Rows {
		writeRow(&b, r, len(t.Columns), safeCell)
	}
	return b.String()
}

// RenderTab renders one tab: the table and its total, the insights report,
// or the empty-state message.
func RenderTab(tab Tab) string {
	var b strings.Builder
	b.WriteString("## " + tab.Title + "\n\n")
	switch {
	case tab.IsEmpty():
		b.WriteString(tab.Empty + "\n")
	case tab.Report != nil:
		b.WriteString(tab.Report.Markdown())
	default:
		b.WriteString(RenderMarkdown(tab.Table))
		b.WriteString("\n**" + tab.Total + "**\n")
		if len(tab.Missing) > 0 {
			b.WriteString("_Columns not in source: " + strings.Join(tab.Missing, ", ") + "_\n")
		}
	}
	return b.String()
}

// RenderView renders the events table, every tab and any load warnings.
func RenderView(v *View) string {
	var b strings.Builder
	b.WriteString("# Events\n\n")
	for _, w := range v.Warnings {
		b.WriteString("> " + w.String() + "\n")
	}
	if len(v.Warnings) > 0 {
		b.WriteString("\n")
	}
	b.WriteString(RenderMarkdown(v.Events))
	if v.Notice != "" {
		b.WriteString("\n" + v.Notice + "\n")
	}
	if v.Headline != nil {
		b.WriteString("\nEvent Details: " + v.Headline.String() + "\n")
	}
	for _, tab := range v.Tabs {
		b.WriteString("\n")
		b.WriteString(RenderTab(tab))
	}
	return b.String()
}

func writeRow(b *strings.Builder, cells []string, width int, format func(string) string) {
	b.WriteString("|")
	for i := 0; i < width; i++ {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		b.WriteString(" ")
		b.WriteString(format(v))
		b.WriteString(" |")
	}
	b.WriteString("\n")
}

func safeCell(s string) string {
	s = strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
	if utf8.RuneCountInString(s) > maxCellRunes {
		r := []rune(s)
		s = string(r[:maxCellRunes-3]) + "..."
	}
	return s
}
