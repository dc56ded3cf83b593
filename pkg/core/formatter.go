package core

import (
	"fmt"
	"strings"
)

const maxFieldLen = 100

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

// PrettyText formats a hit as a short multi-line description.
func PrettyText(h Hit) string {
	var b strings.Builder

	title := h.DisplayTitle()
	if title == "" {
		title = "(untitled)"
	}
	b.WriteString(Truncate(title, maxFieldLen))

	details := []string{}
	if author := h.AuthorName(); author != "" {
		details = append(details, "by "+author)
	}
	details = append(details, fmt.Sprintf("%d points", h.Points))
	details = append(details, fmt.Sprintf("%d comments", h.NumComments))
	if created := h.CreatedAt(); !created.IsZero() {
		details = append(details, created.Format("2006-01-02"))
	}
	b.WriteString("\n  " + strings.Join(details, " | "))

	if link := h.LinkURL(); link != "" {
		b.WriteString("\n  " + Truncate(link, maxFieldLen))
	}
	b.WriteString("\n  id: " + h.ObjectID)

	return b.String()
}
