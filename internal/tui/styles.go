package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/jpalmerr/productboard/catalog"
)

var (
	dimColor     = lipgloss.Color("7")
	accentColor  = lipgloss.Color("12")
	successColor = lipgloss.Color("10")
	warningColor = lipgloss.Color("11")
	dangerColor  = lipgloss.Color("9")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accentColor)

	dimStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true)

	cardLabelStyle = lipgloss.NewStyle().
			Foreground(dimColor)

	cardValueStyle = lipgloss.NewStyle().
			Bold(true)

	fieldErrorStyle = lipgloss.NewStyle().
			Foreground(dangerColor)
)

// stockStyle colours a stock label by level.
func stockStyle(level catalog.StockLevel) lipgloss.Style {
	switch level {
	case catalog.OutOfStock:
		return lipgloss.NewStyle().Foreground(dangerColor)
	case catalog.LowStock:
		return lipgloss.NewStyle().Foreground(warningColor)
	default:
		return lipgloss.NewStyle().Foreground(successColor)
	}
}

func tableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(warningColor).
		Bold(true)
	return s
}

// formatFooter renders alternating key/description pairs.
// Usage: formatFooter("r", "Refresh", "q", "Quit")
func formatFooter(parts ...string) string {
	descStyle := lipgloss.NewStyle().Foreground(accentColor).Bold(true)
	var result []string
	for i := 0; i+1 < len(parts); i += 2 {
		result = append(result, parts[i]+" "+descStyle.Render(parts[i+1]))
	}
	return strings.Join(result, "  ")
}

// renderModal lays out the borderless three-section modal: title, body and
// footer, centered in the terminal.
func renderModal(title, body, footer string, titleColor lipgloss.Color, width, height int) string {
	modalWidth := 60
	if width < modalWidth+10 {
		modalWidth = width - 10
	}
	if modalWidth < 20 {
		modalWidth = 20
	}

	titleSection := lipgloss.NewStyle().
		Bold(true).
		Foreground(titleColor).
		Align(lipgloss.Center).
		Width(modalWidth).
		Render(title)

	section := lipgloss.NewStyle().
		BorderTop(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(dimColor).
		Width(modalWidth)

	bodySection := section.Padding(1, 2).Render(body)
	footerSection := section.
		Foreground(dimColor).
		Align(lipgloss.Center).
		Render(footer)

	content := strings.Join([]string{titleSection, bodySection, footerSection}, "\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
