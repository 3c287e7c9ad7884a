package tui

import (
	"fmt"
	"strings"

	"github.com/jpalmerr/productboard/catalog"
)

func (m Model) View() string {
	switch m.mode {
	case modeForm:
		return m.formView()
	case modeConfirmDelete:
		return m.confirmView()
	}

	var b strings.Builder
	b.WriteString(m.headerView())
	b.WriteString("\n")
	b.WriteString(m.summaryView())
	b.WriteString("\n")
	if m.state.Error != "" {
		b.WriteString(errorStyle.Render("! "+m.state.Error) + dimStyle.Render("  (c to dismiss)"))
		b.WriteString("\n")
	}
	if m.mode == modeFilter || m.filter.Value() != "" {
		b.WriteString(m.filter.View())
		b.WriteString("\n")
	}
	if len(m.visible) == 0 {
		b.WriteString(dimStyle.Render("No products"))
	} else {
		b.WriteString(m.table.View())
	}
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(dimStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.footerView())
	return b.String()
}

func (m Model) headerView() string {
	polling := "auto-refresh on"
	if !m.state.IsPolling {
		polling = "auto-refresh paused"
	}
	parts := []string{
		titleStyle.Render("ProductBoard"),
		dimStyle.Render(polling),
		dimStyle.Render("updated " + catalog.FormatRelative(m.state.LastRefresh)),
	}
	if m.state.Loading {
		parts = append(parts, dimStyle.Render("loading..."))
	}
	return strings.Join(parts, "  ")
}

func (m Model) summaryView() string {
	s := catalog.Summarize(m.state.Products)
	card := func(label, value string) string {
		return cardLabelStyle.Render(label+" ") + cardValueStyle.Render(value)
	}
	return strings.Join([]string{
		card("Products", catalog.FormatNumber(s.TotalProducts)),
		card("Inventory", catalog.FormatDecimal(s.InventoryValue)),
		card("Units sold", catalog.FormatNumber(s.UnitsSold)),
		card("Revenue", catalog.FormatDecimal(s.Revenue)),
		stockStyle(catalog.LowStock).Render(fmt.Sprintf("Low %d", s.LowStock)),
		stockStyle(catalog.OutOfStock).Render(fmt.Sprintf("Out %d", s.OutOfStock)),
	}, "   ")
}

func (m Model) footerView() string {
	if m.mode == modeFilter {
		return formatFooter("enter", "Apply", "esc", "Clear")
	}
	return formatFooter(
		"r", "Refresh",
		"p", "Polling",
		"n", "New",
		"e", "Edit",
		"d", "Delete",
		"/", "Filter",
		"c", "Clear error",
		"q", "Quit",
	)
}

func (m Model) formView() string {
	title := "New product"
	if m.editing != nil {
		title = "Edit " + m.editing.Name
	}

	fieldKeys := [fieldCount]string{"name", "price", "stockQuantity"}
	var lines []string
	for i := range m.fields {
		lines = append(lines, m.fields[i].View())
		for _, fe := range m.formErrs {
			if fe.Field == fieldKeys[i] {
				lines = append(lines, fieldErrorStyle.Render("  "+fe.Message))
			}
		}
	}

	if m.saving {
		lines = append(lines, "", dimStyle.Render("saving..."))
	} else if m.state.Error != "" {
		lines = append(lines, "", errorStyle.Render("! "+m.state.Error))
	}

	footer := formatFooter("tab", "Next", "enter", "Save", "esc", "Cancel")
	return renderModal(title, strings.Join(lines, "\n"), footer, accentColor, m.width, m.height)
}

func (m Model) confirmView() string {
	name := ""
	if m.deleting != nil {
		name = m.deleting.Name
	}
	body := fmt.Sprintf("Delete %q?\nThis cannot be undone.", name)
	if m.saving {
		body += "\n\n" + dimStyle.Render("deleting...")
	}
	footer := formatFooter("y", "Yes", "n", "No")
	return renderModal("Delete product", body, footer, warningColor, m.width, m.height)
}
