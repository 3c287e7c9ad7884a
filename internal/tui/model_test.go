package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/productboard/catalog"
	"github.com/jpalmerr/productboard/internal/coordinator"
)

type fakeController struct {
	mu          sync.Mutex
	state       coordinator.State
	sub         chan coordinator.State
	refreshes   int
	cleared     int
	interacting []bool
	created     []catalog.ProductRequest
	updated     map[string]catalog.ProductRequest
	deleted     []string
	createErr   error
	deleteErr   error
}

func newFakeController(products ...catalog.Product) *fakeController {
	return &fakeController{
		state:   coordinator.State{Products: products, IsPolling: true, Visible: true},
		sub:     make(chan coordinator.State, 16),
		updated: make(map[string]catalog.ProductRequest),
	}
}

func (f *fakeController) State() coordinator.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeController) Subscribe() <-chan coordinator.State { return f.sub }
func (f *fakeController) Unsubscribe(<-chan coordinator.State) {}

func (f *fakeController) ManualRefresh(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshes++
}

func (f *fakeController) TogglePolling() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state.IsPolling = !f.state.IsPolling
	return f.state.IsPolling
}

func (f *fakeController) SetUserInteracting(interacting bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interacting = append(f.interacting, interacting)
}

func (f *fakeController) ClearError() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeController) Create(_ context.Context, req catalog.ProductRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, req)
	return f.createErr
}

func (f *fakeController) Update(_ context.Context, id string, req catalog.ProductRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updated[id] = req
	return nil
}

func (f *fakeController) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return f.deleteErr
}

func sampleProducts() []catalog.Product {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []catalog.Product{
		{ID: "p1", Name: "Milk", Price: 1.99, StockQuantity: 40, CreatedAt: base.Add(2 * time.Hour)},
		{ID: "p2", Name: "Bread", Price: 2.49, StockQuantity: 5, CreatedAt: base.Add(time.Hour)},
		{ID: "p3", Name: "Cheddar", Price: 4.5, StockQuantity: 0, CreatedAt: base},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(Model)
	}
	return m, cmd
}

func typeText(t *testing.T, m Model, text string) Model {
	t.Helper()
	for _, r := range text {
		m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestNewShowsProductsNewestFirst(t *testing.T) {
	m := New(context.Background(), newFakeController(sampleProducts()...))

	require.Len(t, m.visible, 3)
	assert.Equal(t, "Milk", m.visible[0].Name)
	assert.Equal(t, "Cheddar", m.visible[2].Name)
	assert.Contains(t, m.View(), "Milk")
}

func TestStateMessageReplacesRows(t *testing.T) {
	m := New(context.Background(), newFakeController(sampleProducts()...))

	m, cmd := send(t, m, stateMsg(coordinator.State{Products: []catalog.Product{{ID: "x", Name: "Eggs"}}}))

	require.NotNil(t, cmd, "keeps listening for state")
	require.Len(t, m.visible, 1)
	assert.Equal(t, "Eggs", m.visible[0].Name)
}

func TestSubscriptionClosedQuits(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)
	close(fc.sub)

	msg := m.Init()()
	_, cmd := send(t, m, msg)

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestRefreshKeyRunsManualRefresh(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	_, cmd := send(t, m, key("r"))
	require.NotNil(t, cmd)
	cmd()

	assert.Equal(t, 1, fc.refreshes)
}

func TestTogglePollingKey(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("p"))
	assert.Equal(t, "auto-refresh paused", m.status)
	m, _ = send(t, m, key("p"))
	assert.Equal(t, "auto-refresh resumed", m.status)
}

func TestClearErrorKey(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	send(t, m, key("c"))
	assert.Equal(t, 1, fc.cleared)
}

func TestFilterNarrowsRows(t *testing.T) {
	m := New(context.Background(), newFakeController(sampleProducts()...))

	m, _ = send(t, m, key("/"))
	require.Equal(t, modeFilter, m.mode)
	m = typeText(t, m, "chd")

	require.Len(t, m.visible, 1)
	assert.Equal(t, "Cheddar", m.visible[0].Name)

	m, _ = send(t, m, key("esc"))
	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, m.visible, 3, "esc clears the filter")
}

func TestCreateFormMarksInteractionAndSubmits(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("n"))
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, []bool{true}, fc.interacting)

	m = typeText(t, m, " Milk ")
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "1.99")
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "100")

	m, cmd := send(t, m, key("enter"))
	assert.Equal(t, modeForm, m.mode, "form stays open until the save completes")
	assert.True(t, m.saving)
	assert.Equal(t, []bool{true}, fc.interacting)

	require.NotNil(t, cmd)
	done, ok := cmd().(mutationDoneMsg)
	require.True(t, ok)
	require.NoError(t, done.err)

	require.Len(t, fc.created, 1)
	assert.Equal(t, catalog.ProductRequest{Name: "Milk", Price: 1.99, StockQuantity: 100}, fc.created[0])

	m, _ = send(t, m, done)
	assert.Equal(t, modeBrowse, m.mode)
	assert.False(t, m.saving)
	assert.Equal(t, "create succeeded", m.status)
	assert.Equal(t, []bool{true, false}, fc.interacting)
}

func TestFailedCreateKeepsFormAndInput(t *testing.T) {
	fc := newFakeController()
	fc.createErr = &catalog.APIError{StatusCode: 400, Kind: catalog.KindValidation, Message: "name taken"}
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("n"))
	m = typeText(t, m, "Milk")
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "1.99")
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "10")

	m, cmd := send(t, m, key("enter"))
	require.NotNil(t, cmd)

	// keys are ignored while the save is in flight
	m, _ = send(t, m, key("esc"))
	require.Equal(t, modeForm, m.mode)

	done := cmd().(mutationDoneMsg)
	require.Error(t, done.err)
	m, _ = send(t, m, done, stateMsg(coordinator.State{Error: "name taken"}))

	assert.Equal(t, modeForm, m.mode)
	assert.False(t, m.saving)
	assert.Equal(t, "Milk", m.fields[fieldName].Value())
	assert.Equal(t, "1.99", m.fields[fieldPrice].Value())
	assert.Equal(t, "10", m.fields[fieldStock].Value())
	assert.Contains(t, m.View(), "name taken")
	assert.Equal(t, []bool{true, true}, fc.interacting, "interaction is held again for the resubmit")

	fc.createErr = nil
	m, cmd = send(t, m, key("enter"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())

	assert.Equal(t, modeBrowse, m.mode)
	assert.Len(t, fc.created, 2)
	assert.Equal(t, []bool{true, true, false}, fc.interacting)
}

func TestInvalidFormStaysOpen(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("n"))
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "abc")
	m, _ = send(t, m, key("tab"))
	m = typeText(t, m, "-1")

	m, cmd := send(t, m, key("enter"))

	assert.Nil(t, cmd)
	assert.Equal(t, modeForm, m.mode)
	assert.Empty(t, fc.created)

	fields := make([]string, 0, len(m.formErrs))
	for _, fe := range m.formErrs {
		fields = append(fields, fe.Field)
	}
	assert.ElementsMatch(t, []string{"price", "name", "stockQuantity"}, fields)
	assert.Contains(t, m.View(), "Price must be a valid number")
	assert.Equal(t, []bool{true}, fc.interacting, "still interacting while the form is open")
}

func TestEditPrefillsSelectedProduct(t *testing.T) {
	fc := newFakeController(sampleProducts()...)
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("e"))
	require.Equal(t, modeForm, m.mode)
	assert.Equal(t, "Milk", m.fields[fieldName].Value())
	assert.Equal(t, "1.99", m.fields[fieldPrice].Value())
	assert.Equal(t, "40", m.fields[fieldStock].Value())

	_, cmd := send(t, m, key("enter"))
	require.NotNil(t, cmd)
	cmd()

	assert.Contains(t, fc.updated, "p1")
}

func TestEscCancelsForm(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("n"), key("esc"))

	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, []bool{true, false}, fc.interacting)
	assert.Empty(t, fc.created)
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fc := newFakeController(sampleProducts()...)
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("d"))
	require.Equal(t, modeConfirmDelete, m.mode)
	assert.Contains(t, m.View(), "Milk")

	m, cmd := send(t, m, key("n"))
	assert.Nil(t, cmd)
	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, fc.deleted)

	m, _ = send(t, m, key("d"))
	m, cmd = send(t, m, key("y"))
	require.NotNil(t, cmd)
	assert.Equal(t, modeConfirmDelete, m.mode, "dialog stays up while the delete runs")
	m, _ = send(t, m, cmd())

	assert.Equal(t, modeBrowse, m.mode)
	assert.Equal(t, []string{"p1"}, fc.deleted)
	assert.Equal(t, []bool{true, false, true, false}, fc.interacting)
}

func TestFailedDeleteClosesDialog(t *testing.T) {
	fc := newFakeController(sampleProducts()...)
	fc.deleteErr = &catalog.APIError{StatusCode: 404, Kind: catalog.KindNotFound, Message: "Product not found"}
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("d"))
	m, cmd := send(t, m, key("y"))
	require.NotNil(t, cmd)
	m, _ = send(t, m, cmd())

	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, m.status)
	assert.Equal(t, []bool{true, false}, fc.interacting)
}

func TestDeleteWithNoProductsIsIgnored(t *testing.T) {
	fc := newFakeController()
	m := New(context.Background(), fc)

	m, _ = send(t, m, key("d"))

	assert.Equal(t, modeBrowse, m.mode)
	assert.Empty(t, fc.interacting)
	assert.Contains(t, m.View(), "No products")
}

func TestErrorIsRendered(t *testing.T) {
	m := New(context.Background(), newFakeController())

	m, _ = send(t, m, stateMsg(coordinator.State{Error: coordinator.MsgFetchFailed}))

	assert.Contains(t, m.View(), coordinator.MsgFetchFailed)
}

func TestQuitKey(t *testing.T) {
	m := New(context.Background(), newFakeController())

	_, cmd := send(t, m, key("q"))

	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}
