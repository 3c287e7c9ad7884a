// Package tui is a terminal front end for the refresh coordinator.
//
// It renders the product list in a table and forwards user intent to the
// coordinator. Opening the product form or the delete confirmation marks the
// user as interacting so background refreshes do not reshuffle the table
// mid-edit.
package tui

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/coordinator"
)

// Controller is the subset of the coordinator the terminal UI drives.
type Controller interface {
	State() coordinator.State
	Subscribe() <-chan coordinator.State
	Unsubscribe(ch <-chan coordinator.State)

	ManualRefresh(ctx context.Context)
	TogglePolling() bool
	SetUserInteracting(interacting bool)
	ClearError()

	Create(ctx context.Context, req catalog.ProductRequest) error
	Update(ctx context.Context, id string, req catalog.ProductRequest) error
	Delete(ctx context.Context, id string) error
}

type mode int

const (
	modeBrowse mode = iota
	modeFilter
	modeForm
	modeConfirmDelete
)

const (
	fieldName = iota
	fieldPrice
	fieldStock
	fieldCount
)

type stateMsg coordinator.State

type subscriptionClosedMsg struct{}

type mutationDoneMsg struct {
	op  string
	err error
}

// Model is the bubbletea model for the product terminal UI.
type Model struct {
	ctx  context.Context
	ctrl Controller
	sub  <-chan coordinator.State

	state    coordinator.State
	visible  []catalog.Product
	table    table.Model
	filter   textinput.Model
	fields   [fieldCount]textinput.Model
	focus    int
	mode     mode
	editing  *catalog.Product
	deleting *catalog.Product
	formErrs catalog.ValidationErrors
	status   string
	// saving is set while a submitted form or confirmed delete awaits the
	// coordinator; the modal stays open until the result arrives.
	saving bool

	width  int
	height int
}

// New builds a Model subscribed to ctrl. The subscription is released when
// the program exits through [Run].
func New(ctx context.Context, ctrl Controller) Model {
	columns := []table.Column{
		{Title: "Name", Width: 24},
		{Title: "Price", Width: 10},
		{Title: "Stock", Width: 8},
		{Title: "Status", Width: 13},
		{Title: "Sold", Width: 8},
		{Title: "Revenue", Width: 12},
		{Title: "Created", Width: 22},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(15),
	)
	t.SetStyles(tableStyles())

	filter := textinput.New()
	filter.Placeholder = "fuzzy search by name"
	filter.Prompt = "/ "
	filter.CharLimit = 64

	var fields [fieldCount]textinput.Model
	for i, placeholder := range []string{"Name", "Price", "Stock quantity"} {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = placeholder + ": "
		ti.CharLimit = 64
		fields[i] = ti
	}

	m := Model{
		ctx:    ctx,
		ctrl:   ctrl,
		sub:    ctrl.Subscribe(),
		table:  t,
		filter: filter,
		fields: fields,
	}
	m.applyState(ctrl.State())
	return m
}

// Run starts the terminal program and blocks until the user quits or ctx is
// cancelled.
func Run(ctx context.Context, ctrl Controller) error {
	m := New(ctx, ctrl)
	defer ctrl.Unsubscribe(m.sub)

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return waitForState(m.sub)
}

func waitForState(ch <-chan coordinator.State) tea.Cmd {
	return func() tea.Msg {
		st, ok := <-ch
		if !ok {
			return subscriptionClosedMsg{}
		}
		return stateMsg(st)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := msg.Height - 8; h > 3 {
			m.table.SetHeight(h)
		}
		return m, nil

	case stateMsg:
		m.applyState(coordinator.State(msg))
		return m, waitForState(m.sub)

	case subscriptionClosedMsg:
		return m, tea.Quit

	case mutationDoneMsg:
		m.saving = false
		if msg.err != nil {
			m.status = ""
			if m.mode == modeForm {
				// the coordinator released the interaction when the save
				// failed; the form is still open for a resubmit
				m.ctrl.SetUserInteracting(true)
				return m, nil
			}
		} else {
			m.status = msg.op + " succeeded"
		}
		if m.mode == modeForm || m.mode == modeConfirmDelete {
			m = m.closeModal()
		}
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeFilter:
			return m.updateFilter(msg)
		case modeForm:
			return m.updateForm(msg)
		case modeConfirmDelete:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit

	case "r":
		ctx, ctrl := m.ctx, m.ctrl
		return m, func() tea.Msg {
			ctrl.ManualRefresh(ctx)
			return nil
		}

	case "p":
		if m.ctrl.TogglePolling() {
			m.status = "auto-refresh resumed"
		} else {
			m.status = "auto-refresh paused"
		}
		return m, nil

	case "c":
		m.ctrl.ClearError()
		return m, nil

	case "/":
		m.mode = modeFilter
		cmd := m.filter.Focus()
		return m, cmd

	case "n":
		return m.openForm(nil)

	case "e":
		if p := m.selected(); p != nil {
			return m.openForm(p)
		}
		return m, nil

	case "d":
		if p := m.selected(); p != nil {
			m.deleting = p
			m.mode = modeConfirmDelete
			m.ctrl.SetUserInteracting(true)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filter.SetValue("")
		m.filter.Blur()
		m.mode = modeBrowse
		m.refreshRows()
		return m, nil
	case "enter":
		m.filter.Blur()
		m.mode = modeBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.refreshRows()
	return m, cmd
}

func (m Model) openForm(p *catalog.Product) (tea.Model, tea.Cmd) {
	m.editing = p
	m.formErrs = nil
	m.focus = fieldName
	for i := range m.fields {
		m.fields[i].SetValue("")
		m.fields[i].Blur()
	}
	if p != nil {
		m.fields[fieldName].SetValue(p.Name)
		m.fields[fieldPrice].SetValue(strconv.FormatFloat(p.Price, 'f', 2, 64))
		m.fields[fieldStock].SetValue(strconv.Itoa(p.StockQuantity))
	}
	m.mode = modeForm
	m.ctrl.SetUserInteracting(true)
	cmd := m.fields[fieldName].Focus()
	return m, cmd
}

func (m Model) closeModal() Model {
	m.mode = modeBrowse
	m.editing = nil
	m.deleting = nil
	m.formErrs = nil
	m.ctrl.SetUserInteracting(false)
	return m
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		return m.closeModal(), nil
	case "tab", "down":
		return m.focusField((m.focus + 1) % fieldCount)
	case "shift+tab", "up":
		return m.focusField((m.focus + fieldCount - 1) % fieldCount)
	case "enter":
		return m.submitForm()
	}

	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m Model) focusField(i int) (tea.Model, tea.Cmd) {
	m.fields[m.focus].Blur()
	m.focus = i
	cmd := m.fields[i].Focus()
	return m, cmd
}

// formRequest converts the form inputs into a validated request.
func (m Model) formRequest() (catalog.ProductRequest, catalog.ValidationErrors) {
	req := catalog.ProductRequest{Name: m.fields[fieldName].Value()}

	var errs catalog.ValidationErrors
	price, err := strconv.ParseFloat(strings.TrimSpace(m.fields[fieldPrice].Value()), 64)
	if err != nil {
		errs = append(errs, catalog.FieldError{Field: "price", Message: "Price must be a valid number"})
	}
	req.Price = price

	stock, err := strconv.Atoi(strings.TrimSpace(m.fields[fieldStock].Value()))
	if err != nil {
		errs = append(errs, catalog.FieldError{Field: "stockQuantity", Message: "Stock quantity must be a whole number"})
	}
	req.StockQuantity = stock

	req = req.Normalize()
	if verr := req.Validate(); verr != nil {
		var verrs catalog.ValidationErrors
		if errors.As(verr, &verrs) {
			for _, fe := range verrs {
				if !hasField(errs, fe.Field) {
					errs = append(errs, fe)
				}
			}
		}
	}
	return req, errs
}

func hasField(errs catalog.ValidationErrors, field string) bool {
	for _, fe := range errs {
		if fe.Field == field {
			return true
		}
	}
	return false
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	req, errs := m.formRequest()
	if len(errs) > 0 {
		m.formErrs = errs
		return m, nil
	}

	m.formErrs = nil
	m.saving = true
	m.status = "saving..."

	ctx, ctrl := m.ctx, m.ctrl
	var cmd tea.Cmd
	if m.editing != nil {
		id := m.editing.ID
		cmd = func() tea.Msg {
			return mutationDoneMsg{op: "update", err: ctrl.Update(ctx, id, req)}
		}
	} else {
		cmd = func() tea.Msg {
			return mutationDoneMsg{op: "create", err: ctrl.Create(ctx, req)}
		}
	}
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.saving {
		return m, nil
	}
	switch msg.String() {
	case "y", "enter":
		id := m.deleting.ID
		ctx, ctrl := m.ctx, m.ctrl
		m.saving = true
		m.status = "deleting..."
		return m, func() tea.Msg {
			return mutationDoneMsg{op: "delete", err: ctrl.Delete(ctx, id)}
		}
	case "n", "esc":
		return m.closeModal(), nil
	}
	return m, nil
}

func (m Model) selected() *catalog.Product {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.visible) {
		return nil
	}
	p := m.visible[i]
	return &p
}

func (m *Model) applyState(st coordinator.State) {
	m.state = st
	m.refreshRows()
}

func (m *Model) refreshRows() {
	f := catalog.Filter{Name: strings.TrimSpace(m.filter.Value()), Fuzzy: true}
	m.visible = catalog.Apply(m.state.Products, f, catalog.DefaultSort)

	rows := make([]table.Row, len(m.visible))
	for i, p := range m.visible {
		level := catalog.StockStatus(p.StockQuantity)
		rows[i] = table.Row{
			p.Name,
			catalog.FormatCurrency(p.Price),
			catalog.FormatNumber(p.StockQuantity),
			level.String(),
			catalog.FormatNumber(p.SoldCount),
			catalog.FormatCurrency(p.SoldSum),
			catalog.FormatDate(p.CreatedAt),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}
