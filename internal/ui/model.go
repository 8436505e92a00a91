package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"

	"courier/internal/app"
	"courier/internal/domain"
	"courier/internal/ui/commands"
	"courier/internal/ui/handlers"
	"courier/internal/ui/input"
	inputtypes "courier/internal/ui/input/types"
	"courier/internal/ui/state"
	"courier/internal/ui/views"
)

// chrome is the number of terminal rows used by everything but the list
const chrome = 14

// Model represents the UI state
type Model struct {
	app   *app.App
	state *state.AppState // centralized state

	// UI-specific state not in AppState
	width       int
	height      int
	help        help.Model
	keys        views.KeyMap
	spinner     spinner.Model
	spinning    bool
	inPagerMode bool // tracks if we're currently in pager mode

	// Handlers
	renderer     *views.Renderer        // view renderer
	eventHandler *handlers.EventHandler // event processing handler
	cmdExecutor  *commands.Executor     // command executor
	inputHandler *input.Handler         // input handling
	palette      *commands.Palette      // command palette entries
	pager        *Pager                 // external pager

	// Program reference for terminal management
	program *tea.Program
}

// NewModel creates a new UI model over a running app
func NewModel(ctx context.Context, a *app.App) *Model {
	appState := state.NewAppState()

	m := &Model{
		app:          a,
		state:        appState,
		help:         help.New(),
		keys:         views.NewKeyMap(),
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot)),
		renderer:     views.NewRenderer(),
		inputHandler: input.New(),
		palette:      commands.NewPalette(),
	}

	m.eventHandler = handlers.NewEventHandler(appState, m.refresh)
	m.cmdExecutor = commands.NewExecutor(&commands.CommandContext{
		Ctx:       ctx,
		State:     appState,
		Queue:     a.Queue,
		Session:   a.Session,
		OpenFiles: a.OpenFiles,
		Purge:     a.PurgeSuggestions,
	})

	m.refresh()
	return m
}

// SetProgram sets the program reference for terminal management
func (m *Model) SetProgram(p *tea.Program) {
	m.program = p
	m.pager = NewPager(p)
}

// refresh copies the queue and session snapshots into the state
func (m *Model) refresh() {
	m.state.SetUploads(m.app.Queue.Items())
	m.state.SetSearch(m.app.Session.Snapshot())
}

// Init returns an initial command
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.updateViewportHeight()
		return m, nil

	case tea.KeyMsg:
		if m.state.ShowPopup {
			switch msg.String() {
			case "esc", "q", "enter", "?":
				m.state.ClosePopup()
			case "ctrl+c":
				return m, tea.Quit
			}
			return m, nil
		}

		// Handle input through the mode handler
		actions, cmd := m.inputHandler.HandleKey(msg, m.inputContext())

		cmds := []tea.Cmd{}
		if cmd != nil {
			cmds = append(cmds, cmd)
		}
		for _, action := range actions {
			if actionCmd := m.processAction(action); actionCmd != nil {
				cmds = append(cmds, actionCmd)
			}
		}
		return m, tea.Batch(cmds...)

	default:
		// Handle non-keyboard messages
		if cmd := m.inputHandler.Update(msg); cmd != nil {
			return m, cmd
		}
		return m.handleNonKeyboardMsg(msg)
	}
}

func (m *Model) inputContext() *input.ModelContext {
	return &input.ModelContext{
		State:   m.state,
		Palette: m.palette.Match,
	}
}

// View renders the UI
func (m *Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	if m.inPagerMode {
		return ""
	}

	vs := views.ViewState{
		Width:               m.width,
		Height:              m.height,
		ActiveTab:           m.state.ActiveTab,
		Uploads:             m.state.Uploads,
		UploadIndex:         m.state.UploadIndex,
		MaxFiles:            m.app.Queue.Config().MaxCount,
		Rejected:            m.state.Rejected,
		Dropped:             m.state.Dropped,
		Search:              m.state.Search,
		ResultIndex:         m.state.ResultIndex,
		SuggestionHighlight: m.state.SuggestionIndex,
		ViewportOffset:      m.state.ViewportOffset,
		ViewportHeight:      m.state.ViewportHeight,
		StatusMessage:       m.state.StatusMessage,
		StatusIsError:       m.state.StatusIsError,
		Busy:                m.busy(),
		Spinner:             m.spinner.View(),
		ConfirmClear:        m.inputHandler.CurrentMode() == inputtypes.ModeConfirmClear,
		PaletteOpen:         m.inputHandler.CurrentMode() == inputtypes.ModePalette,
		PaletteIndex:        m.state.PaletteIndex,
		ShowPopup:           m.state.ShowPopup,
		PopupTitle:          m.state.PopupTitle,
		PopupContent:        m.state.PopupContent,
		HelpModel:           m.help,
		Keys:                m.keys,
	}

	if ti := m.inputHandler.TextInput(); ti != nil {
		vs.InputMode = m.inputHandler.ModeName()
		vs.TextInput = ti.View()
		if vs.PaletteOpen {
			for _, name := range m.palette.Match(ti.Value()) {
				entry, _ := m.palette.Lookup(name)
				vs.Palette = append(vs.Palette, views.PaletteLine{Name: entry.Name, Description: entry.Description})
			}
		}
	}

	return m.renderer.Render(vs)
}

// busy reports whether an upload or search is in flight
func (m *Model) busy() bool {
	if m.state.Search.Loading {
		return true
	}
	for _, item := range m.state.Uploads {
		if item.Status == domain.StatusUploading {
			return true
		}
	}
	return false
}

// startSpinner begins the spinner animation if work is in flight
func (m *Model) startSpinner() tea.Cmd {
	if m.spinning || !m.busy() {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

func (m *Model) updateViewportHeight() {
	height := m.height - chrome
	if height < 3 {
		height = 3
	}
	m.state.ViewportHeight = height
	m.state.EnsureVisible()
}

func (m *Model) processAction(action inputtypes.Action) tea.Cmd {
	log.Debugf("processAction: %T", action)
	switch a := action.(type) {
	case inputtypes.NavigateAction:
		switch a.Direction {
		case "up":
			m.state.MoveSelection(-1)
		case "down":
			m.state.MoveSelection(1)
		case "pageup":
			m.state.MoveSelection(-m.state.ViewportHeight)
		case "pagedown":
			m.state.MoveSelection(m.state.ViewportHeight)
		case "home":
			m.state.SetSelection(0)
		case "end":
			m.state.SetSelection(m.state.ItemCount() - 1)
		}

	case inputtypes.SwitchTabAction:
		if a.Tab < 0 {
			m.state.SwitchTab((m.state.ActiveTab + 1) % 2)
		} else {
			m.state.SwitchTab(state.Tab(a.Tab))
		}

	case inputtypes.ChangeModeAction:
		switch a.Mode {
		case inputtypes.ModeQuery, inputtypes.ModeFilter:
			m.state.SwitchTab(state.TabSearch)
		case inputtypes.ModeAddFiles, inputtypes.ModeConfirmClear:
			m.state.SwitchTab(state.TabUploads)
		case inputtypes.ModePalette:
			m.state.PaletteIndex = 0
		}

	case inputtypes.UpdateTextAction:
		if a.Mode == inputtypes.ModeQuery {
			return m.cmdExecutor.ExecuteSetQuery(a.Text)
		}

	case inputtypes.SubmitTextAction:
		return m.submitText(a)

	case inputtypes.CancelTextAction:
		if a.Mode == inputtypes.ModeQuery {
			m.state.SuggestionIndex = -1
		}

	case inputtypes.UploadItemAction:
		return m.withSpinner(m.cmdExecutor.ExecuteUploadItem(a.ItemID))

	case inputtypes.UploadAllAction:
		m.state.SwitchTab(state.TabUploads)
		return m.withSpinner(m.cmdExecutor.ExecuteUploadAll())

	case inputtypes.RemoveItemAction:
		return m.cmdExecutor.ExecuteRemoveItem(a.ItemID)

	case inputtypes.ClearQueueAction:
		return m.cmdExecutor.ExecuteClearQueue()

	case inputtypes.SearchAction:
		return m.cmdExecutor.ExecuteSearch(a.Reset)

	case inputtypes.LoadMoreAction:
		m.state.SwitchTab(state.TabSearch)
		return m.cmdExecutor.ExecuteLoadMore()

	case inputtypes.ClearFiltersAction:
		m.state.SwitchTab(state.TabSearch)
		return m.cmdExecutor.ExecuteClearFilters()

	case inputtypes.ClearRecentAction:
		return m.cmdExecutor.ExecuteClearRecent()

	case inputtypes.PurgeSuggestionsAction:
		return m.cmdExecutor.ExecutePurgeSuggestions()

	case inputtypes.HighlightSuggestionAction:
		m.state.SuggestionIndex = a.Index

	case inputtypes.UpdatePaletteIndexAction:
		m.state.PaletteIndex = a.Index

	case inputtypes.RunCommandAction:
		return m.runPaletteCommand(a.Name)

	case inputtypes.OpenDetailAction:
		if res, ok := m.state.CurrentResult(); ok {
			return m.showInPager(domain.ResultTitle(res), views.ResultDetail(res))
		}

	case inputtypes.ToggleHelpAction:
		if m.state.ShowPopup {
			m.state.ClosePopup()
			return nil
		}
		return m.showInPager("Help", m.renderer.RenderHelpContent())

	case inputtypes.ClosePopupAction:
		m.state.ClosePopup()

	case inputtypes.QuitAction:
		return tea.Quit
	}

	return nil
}

func (m *Model) submitText(a inputtypes.SubmitTextAction) tea.Cmd {
	switch a.Mode {
	case inputtypes.ModeAddFiles:
		return m.cmdExecutor.ExecuteSelectFiles(a.Text)
	case inputtypes.ModeQuery:
		m.state.SuggestionIndex = -1
		return tea.Batch(
			m.cmdExecutor.ExecuteSetQuery(a.Text),
			m.cmdExecutor.ExecuteSearch(true),
		)
	case inputtypes.ModeFilter:
		return m.cmdExecutor.ExecuteSetFilter(a.Text)
	}
	return nil
}

// runPaletteCommand performs the action bound to a palette entry
func (m *Model) runPaletteCommand(name string) tea.Cmd {
	entry, ok := m.palette.Lookup(name)
	if !ok {
		m.state.SetError(fmt.Sprintf("Unknown command: %s", name))
		return nil
	}
	change, ok := entry.Action.(inputtypes.ChangeModeAction)
	if !ok {
		return m.processAction(entry.Action)
	}

	data := change.Data
	if change.Mode == inputtypes.ModeQuery {
		data = m.state.Search.Query
	}
	actions, cmd := m.inputHandler.ChangeMode(change.Mode, data, m.inputContext())
	cmds := []tea.Cmd{cmd, m.processAction(change)}
	for _, action := range actions {
		cmds = append(cmds, m.processAction(action))
	}
	return tea.Batch(cmds...)
}

// withSpinner starts the spinner alongside cmd
func (m *Model) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	if m.spinning {
		return cmd
	}
	m.spinning = true
	return tea.Batch(cmd, m.spinner.Tick)
}

// showInPager shows content in ov, falling back to a popup when the
// terminal cannot be handed over
func (m *Model) showInPager(title, content string) tea.Cmd {
	if m.program == nil {
		m.state.OpenPopup(title, content)
		return nil
	}
	return func() tea.Msg {
		// Send pause message to stop rendering
		m.program.Send(pauseRenderingMsg{})

		err := m.pager.Show(content)

		// Send resume message to restart rendering
		m.program.Send(resumeRenderingMsg{})

		return pagerMsg{title: title, content: content, err: err}
	}
}

func clearStatusAfter(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg { return clearStatusMsg{} })
}

// handleNonKeyboardMsg handles non-keyboard messages
func (m *Model) handleNonKeyboardMsg(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EventMsg:
		cmd := m.eventHandler.HandleEvent(msg.Event)
		return m, tea.Batch(cmd, m.startSpinner())

	case spinner.TickMsg:
		if !m.busy() || m.inPagerMode {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case commands.ResultMsg:
		m.refresh()
		switch {
		case msg.Err != nil:
			m.state.SetError(msg.Err.Error())
			return m, clearStatusAfter(5 * time.Second)
		case msg.Text != "":
			m.state.SetStatus(msg.Text)
			return m, clearStatusAfter(3 * time.Second)
		}
		return m, nil

	case commands.SelectionMsg:
		m.refresh()
		m.state.SetRejected(msg.Rejected, msg.Dropped)
		text := fmt.Sprintf("Added %d file(s)", msg.Accepted)
		if n := len(msg.Rejected); n > 0 {
			text += fmt.Sprintf(", %d rejected", n)
		}
		if msg.Dropped > 0 || len(msg.Rejected) > 0 {
			m.state.SetError(text)
		} else {
			m.state.SetStatus(text)
		}
		return m, tea.Batch(m.startSpinner(), clearStatusAfter(5*time.Second))

	case pagerMsg:
		if msg.err != nil {
			// Pager failed, log and fall back to popup silently
			log.Warnf("Pager failed: %v, falling back to popup", msg.err)
			m.state.OpenPopup(msg.title, msg.content)
		}
		return m, nil

	case pauseRenderingMsg:
		m.inPagerMode = true
		return m, nil

	case resumeRenderingMsg:
		m.inPagerMode = false
		return m, m.startSpinner()

	case clearStatusMsg:
		m.state.ClearStatus()
		return m, nil
	}

	return m, nil
}
