package ui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/truncate"

	"github.com/osa030/playdeck/internal/app/playback"
	"github.com/osa030/playdeck/internal/app/widget"
)

const (
	maxTitleWidth  = 48
	maxArtistWidth = 28
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	header := fmt.Sprintf("playdeck · %s", m.playlist)
	if m.totalPages > 0 {
		header += fmt.Sprintf(" · page %d/%d", m.page, m.totalPages)
	}
	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n\n")

	switch {
	case m.widget == nil && m.err == nil:
		b.WriteString(faintStyle.Render("loading..."))
		b.WriteString("\n")
	case len(m.rows) == 0 && m.widget != nil:
		b.WriteString(faintStyle.Render("No tracks on this page."))
		b.WriteString("\n")
	}

	for i, row := range m.rows {
		b.WriteString(m.renderRow(row, i == m.cursor))
	}

	b.WriteString("\n")
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	} else if m.status != "" {
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderRow(row widget.Row, selected bool) string {
	cursor := "  "
	if selected {
		cursor = cursorStyle.Render("› ")
	}
	indicator := " "
	if row.Opacity < playback.NormalOpacity {
		indicator = playingStyle.Render("▶")
	}

	line := lipgloss.JoinHorizontal(lipgloss.Top,
		cursor,
		indicator, " ",
		titleStyle.Render(truncate.StringWithTail(row.Title, maxTitleWidth, "…")), " ",
		artistStyle.Render(truncate.StringWithTail(row.Artist, maxArtistWidth, "…")), " ",
		faintStyle.Render(row.Date), " ",
		faintStyle.Render(playCountIcon+" "+row.PlayCount),
	)

	var b strings.Builder
	b.WriteString(line)
	b.WriteString("\n    ")
	b.WriteString(m.bar.ViewAs(widthRatio(row.ProgressWidth)))
	b.WriteString("\n")
	if row.MenuOpen {
		b.WriteString(menuStyle.Render("x  remove from playlist"))
		b.WriteString("\n")
	}
	return b.String()
}

// widthRatio converts a progress width such as "65%" into 0.65.
// Unparseable and non-finite widths render as an empty bar.
func widthRatio(width string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSuffix(width, "%"), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Max(0, math.Min(1, v/100))
}
