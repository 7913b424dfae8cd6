// Package tui implements the interactive pipeline dashboard on bubbletea.
// All data flows through the synchronization controller; the TUI only
// renders snapshots and dispatches intents.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cata32101/odysseus-app/internal/cli"
	"github.com/cata32101/odysseus-app/internal/filter"
	"github.com/cata32101/odysseus-app/internal/pager"
	"github.com/cata32101/odysseus-app/internal/selection"
	"github.com/cata32101/odysseus-app/internal/syncer"
)

// State represents the current input mode of the TUI.
type State int

const (
	StateBrowse State = iota
	StateSearch
	StateGroupInput
	StateConfirmDelete
	StateHelp
)

// View represents the current view mode.
type View int

const (
	ViewCompanies View = iota
	ViewContacts
	ViewStats
)

// sortFields is the cycle order for the sort key.
var sortFields = []string{
	"id",
	"domain",
	"unified_score",
	"geography_score",
	"industry_score",
	"russia_score",
	"size_score",
}

// Model holds the main TUI state.
type Model struct {
	ctx  context.Context
	ctrl *syncer.Controller

	snapshot syncer.Snapshot
	selected map[int]struct{}

	companyTable table.Model
	contactTable table.Model
	searchInput  textinput.Model
	groupInput   textinput.Model
	spinner      spinner.Model

	keymap     KeyMap
	state      State
	view       View
	statusLine string
	width      int
	height     int
	quitting   bool
	ready      bool
}

func newModel(ctx context.Context, ctrl *syncer.Controller) Model {
	search := textinput.New()
	search.Placeholder = "name or domain"
	search.CharLimit = 120

	group := textinput.New()
	group.Placeholder = "group name"
	group.CharLimit = 120

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(cli.PrimaryColor)

	return Model{
		ctx:          ctx,
		ctrl:         ctrl,
		selected:     map[int]struct{}{},
		companyTable: newCompanyTable(),
		contactTable: newContactTable(),
		searchInput:  search,
		groupInput:   group,
		spinner:      spin,
		keymap:       DefaultKeyMap(),
		state:        StateBrowse,
		view:         ViewCompanies,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		m.spinner.Tick,
		m.readState(),
	)
}

// readState pulls the controller's current snapshot into the program.
func (m Model) readState() tea.Cmd {
	return func() tea.Msg {
		return stateChangedMsg{}
	}
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.handleResize()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateChangedMsg:
		m.applySnapshot(m.ctrl.Snapshot())
		return m, nil

	case bulkAppliedMsg:
		if msg.err != nil {
			m.statusLine = cli.FormatError(userMessage(msg.err))
		} else {
			m.statusLine = cli.FormatSuccess(fmt.Sprintf(
				"%s: %d processed, %d skipped", msg.action, msg.outcome.Processed, msg.outcome.Skipped))
		}
		return m, nil

	case errorMsg:
		m.statusLine = cli.FormatError(userMessage(msg.err))
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.delegate(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateSearch:
		return m.handleSearchKey(msg)
	case StateGroupInput:
		return m.handleGroupKey(msg)
	case StateConfirmDelete:
		return m.handleConfirmKey(msg)
	case StateHelp:
		if key.Matches(msg, m.keymap.ToggleHelp) || key.Matches(msg, m.keymap.Quit) {
			m.state = StateBrowse
		}
		return m, nil
	}

	return m.handleBrowseKey(msg)
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keymap
	switch {
	case key.Matches(msg, k.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, k.ToggleHelp):
		m.state = StateHelp
		return m, nil

	case key.Matches(msg, k.ToggleView):
		m.view = (m.view + 1) % 3
		return m, nil

	case key.Matches(msg, k.Refresh):
		m.ctrl.Refresh(m.ctx)
		return m, nil

	case key.Matches(msg, k.PrevPage):
		m.ctrl.SetPage(m.ctx, m.snapshot.Page-1)
		return m, nil

	case key.Matches(msg, k.NextPage):
		m.ctrl.SetPage(m.ctx, m.snapshot.Page+1)
		return m, nil

	case key.Matches(msg, k.CyclePageSize):
		m.ctrl.SetPageSize(m.ctx, nextPageSize(m.snapshot.PageSize))
		return m, nil

	case key.Matches(msg, k.CycleSort):
		m.ctrl.ToggleSort(m.ctx, nextSortField(m.snapshot.SortField))
		return m, nil

	case key.Matches(msg, k.ToggleUnscored):
		spec := m.ctrl.Filter()
		spec.IncludeUnscored = !spec.IncludeUnscored
		m.ctrl.SetFilter(m.ctx, spec)
		return m, nil

	case key.Matches(msg, k.ClearFilters):
		m.ctrl.SetFilter(m.ctx, filter.New())
		m.statusLine = ""
		return m, nil

	case key.Matches(msg, k.Search):
		m.state = StateSearch
		m.searchInput.SetValue(m.ctrl.Filter().Search)
		m.searchInput.Focus()
		return m, textinput.Blink

	case key.Matches(msg, k.ToggleSelect):
		if id, ok := m.cursorCompanyID(); ok {
			m.ctrl.ToggleSelect(id)
		}
		return m, nil

	case key.Matches(msg, k.SelectAll):
		m.ctrl.ToggleSelectAll()
		return m, nil

	case key.Matches(msg, k.DeselectAll):
		m.ctrl.ClearSelection()
		return m, nil

	case key.Matches(msg, k.Vet):
		return m, m.applyBulk(selection.ActionVet, "")

	case key.Matches(msg, k.Approve):
		return m, m.applyBulk(selection.ActionApprove, "")

	case key.Matches(msg, k.Reject):
		return m, m.applyBulk(selection.ActionReject, "")

	case key.Matches(msg, k.Delete):
		if len(m.snapshot.Selected) == 0 {
			m.statusLine = cli.FormatWarning("nothing selected")
			return m, nil
		}
		m.state = StateConfirmDelete
		return m, nil

	case key.Matches(msg, k.Move):
		if len(m.snapshot.Selected) == 0 {
			m.statusLine = cli.FormatWarning("nothing selected")
			return m, nil
		}
		m.state = StateGroupInput
		m.groupInput.SetValue("")
		m.groupInput.Focus()
		return m, textinput.Blink
	}

	return m.delegate(msg)
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		spec := m.ctrl.Filter()
		spec.Search = m.searchInput.Value()
		m.ctrl.SetFilter(m.ctx, spec)
		m.searchInput.Blur()
		m.state = StateBrowse
		return m, nil
	case "esc":
		m.searchInput.Blur()
		m.state = StateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	return m, cmd
}

func (m Model) handleGroupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		group := m.groupInput.Value()
		m.groupInput.Blur()
		m.state = StateBrowse
		return m, m.applyBulk(selection.ActionMove, group)
	case "esc":
		m.groupInput.Blur()
		m.state = StateBrowse
		return m, nil
	}

	var cmd tea.Cmd
	m.groupInput, cmd = m.groupInput.Update(msg)
	return m, cmd
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		m.state = StateBrowse
		return m, m.applyBulk(selection.ActionDelete, "")
	case "n", "N", "esc":
		m.state = StateBrowse
		return m, nil
	}
	return m, nil
}

// delegate forwards unhandled messages to the focused table.
func (m Model) delegate(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case ViewCompanies:
		m.companyTable, cmd = m.companyTable.Update(msg)
	case ViewContacts:
		m.contactTable, cmd = m.contactTable.Update(msg)
	}
	return m, cmd
}

// applySnapshot folds a controller snapshot into the view state.
func (m *Model) applySnapshot(s syncer.Snapshot) {
	m.snapshot = s
	m.ready = true

	m.selected = make(map[int]struct{}, len(s.Selected))
	for _, id := range s.Selected {
		m.selected[id] = struct{}{}
	}

	m.companyTable.SetRows(companyRows(s, m.selected))
	m.contactTable.SetRows(contactRows(s))

	if s.LastError != "" {
		m.statusLine = cli.FormatError(s.LastError)
	}
}

func (m Model) applyBulk(action selection.Action, group string) tea.Cmd {
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		outcome, err := ctrl.ApplyBulk(ctx, action, group)
		return bulkAppliedMsg{action: string(action), outcome: outcome, err: err}
	}
}

// cursorCompanyID resolves the table cursor to a company ID.
func (m Model) cursorCompanyID() (int, bool) {
	idx := m.companyTable.Cursor()
	if idx < 0 || idx >= len(m.snapshot.Companies) {
		return 0, false
	}
	return m.snapshot.Companies[idx].ID, true
}

func (m *Model) handleResize() {
	tableHeight := m.height - 10
	if tableHeight < 4 {
		tableHeight = 4
	}
	m.companyTable.SetHeight(tableHeight)
	m.contactTable.SetHeight(tableHeight)
	m.companyTable.SetWidth(m.width)
	m.contactTable.SetWidth(m.width)
}

func nextSortField(current string) string {
	for i, f := range sortFields {
		if f == current {
			return sortFields[(i+1)%len(sortFields)]
		}
	}
	return sortFields[0]
}

func nextPageSize(current int) int {
	sizes := pager.AllowedPageSizes
	for i, n := range sizes {
		if n == current {
			return sizes[(i+1)%len(sizes)]
		}
	}
	return sizes[0]
}
