package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rubiojr/hnsearch/pkg/core"
	"github.com/rubiojr/hnsearch/pkg/view"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Define styles using lipgloss
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	selectedStyle = cellStyle.
			Foreground(lipgloss.Color("86")).
			Bold(true)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)
)

// sortColumns are the table columns that can be sorted, in display order.
var sortColumns = []view.SortKey{view.SortTitle, view.SortAuthor, view.SortComments, view.SortPoints}

const maxTitleWidth = 60

// columnTitle names a column, marking the active sort and its direction
func columnTitle(key view.SortKey, sorter view.Sorter) string {
	title := cases.Title(language.English).String(strings.ToLower(string(key)))
	if sorter.Key != key {
		return title
	}
	if sorter.Reverse {
		return title + " ▼"
	}
	return title + " ▲"
}

// renderTable renders hits, already in display order, as a table. selected
// is the highlighted row or -1.
func renderTable(hits []core.Hit, sorter view.Sorter, selected int) string {
	if len(hits) == 0 {
		return noDataStyle.Render("No results")
	}

	headers := make([]string, 0, len(sortColumns)+1)
	for _, key := range sortColumns {
		headers = append(headers, columnTitle(key, sorter))
	}
	headers = append(headers, "Posted")

	rows := make([][]string, len(hits))
	for i, h := range hits {
		posted := ""
		if h.CreatedAtI > 0 {
			posted = formatTime(h.CreatedAt())
		}
		rows[i] = []string{
			core.Truncate(h.DisplayTitle(), maxTitleWidth),
			h.AuthorName(),
			formatNumber(h.NumComments),
			formatNumber(h.Points),
			posted,
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case row == selected:
				return selectedStyle
			}
			return cellStyle
		})
	return t.String()
}

// renderSummary describes the term being shown
func renderSummary(term string, page, count int) string {
	return titleStyle.Render(term) + " " +
		metaStyle.Render(fmt.Sprintf("%d results, page %d", count, page))
}

// formatNumber formats a number with K/M suffixes for readability
func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	} else if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	} else {
		return fmt.Sprintf("%.1fM", float64(n)/1000000)
	}
}

// formatTime formats a time relative to now or as an absolute date
func formatTime(t time.Time) string {
	now := time.Now()
	diff := now.Sub(t)

	// If it's within the last day, show relative time
	if diff < 24*time.Hour {
		if diff < time.Hour {
			minutes := int(diff.Minutes())
			if minutes < 1 {
				return "just now"
			}
			return fmt.Sprintf("%d minutes ago", minutes)
		}
		hours := int(diff.Hours())
		return fmt.Sprintf("%d hours ago", hours)
	}

	// If it's within the last week, show days ago
	if diff < 7*24*time.Hour {
		days := int(diff.Hours() / 24)
		return fmt.Sprintf("%d days ago", days)
	}

	// Otherwise show the date
	if t.Year() == now.Year() {
		return t.Format("Jan 2, 15:04")
	}
	return t.Format("Jan 2, 2006")
}
