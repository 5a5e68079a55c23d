package update

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"

	"github.com/sandeepkv93/errands/internal/app"
	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/scheduler"
	"github.com/sandeepkv93/errands/internal/settings"
	"github.com/sandeepkv93/errands/internal/watch"
)

type Mode string

const (
	ModeNormal  Mode = "normal"
	ModeAdd     Mode = "add"
	ModeSearch  Mode = "search"
	ModePalette Mode = "palette"
)

const (
	// previewCount is how many upcoming occurrences the recurrence pane lists.
	previewCount = 5
	// defaultListName is created on the first add when no list exists.
	defaultListName = "Tasks"
)

type StatusBar struct {
	Text    string
	IsError bool
}

type KeyMap struct {
	Up            key.Binding
	Down          key.Binding
	NextList      key.Binding
	PrevList      key.Binding
	Add           key.Binding
	Search        key.Binding
	Palette       key.Binding
	Toggle        key.Binding
	Trash         key.Binding
	ShowCompleted key.Binding
	Recurrence    key.Binding
	Help          key.Binding
	Quit          key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:            key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("k/↑", "move up")),
		Down:          key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("j/↓", "move down")),
		NextList:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next list")),
		PrevList:      key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "previous list")),
		Add:           key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add task")),
		Search:        key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		Palette:       key.NewBinding(key.WithKeys(":"), key.WithHelp(":", "command palette")),
		Toggle:        key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle done")),
		Trash:         key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "trash / restore")),
		ShowCompleted: key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "show/hide completed")),
		Recurrence:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "recurrence preview")),
		Help:          key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
		Quit:          key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Add, k.Search, k.Toggle, k.NextList, k.Help, k.Quit}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextList, k.PrevList},
		{k.Add, k.Search, k.Palette, k.Toggle, k.Trash},
		{k.ShowCompleted, k.Recurrence, k.Help, k.Quit},
	}
}

// Model is the bubbletea model. It reads and mutates the stores owned by
// App; every mutation goes through the stores so saves are coalesced.
type Model struct {
	App *app.App

	Mode              Mode
	ListID            string
	Query             string
	Cursor            int
	ShowCompleted     bool
	HelpVisible       bool
	RecurrenceVisible bool
	Status            StatusBar
	LastError         error
	Keys              KeyMap
	Width             int
	Height            int
	Quitting          bool

	rows         []model.Task
	addInput     textinput.Model
	searchInput  textinput.Model
	commandInput textinput.Model
	helpModel    help.Model
	notes        viewport.Model
	now          func() time.Time
}

type TimerFiredMsg struct {
	Event scheduler.Event
}

type ExternalChangeMsg struct {
	Change watch.Change
}

type SetStatusMsg struct {
	Text    string
	IsError bool
}

type ClearStatusMsg struct{}

type AppErrorMsg struct {
	Err error
}

func NewModel(a *app.App) Model {
	m := Model{
		App:           a,
		Mode:          ModeNormal,
		ListID:        model.AllListsID,
		ShowCompleted: true,
		Keys:          DefaultKeyMap(),
		now:           time.Now,
	}
	if show, err := a.Settings.Bool(settings.KeyShowCompleted); err == nil {
		m.ShowCompleted = show
	}
	m.initBubbleComponents()
	m.refresh()
	return m
}

func (m *Model) initBubbleComponents() {
	m.addInput = textinput.New()
	m.addInput.Prompt = "add> "
	m.addInput.CharLimit = 256
	m.addInput.Width = 48

	m.searchInput = textinput.New()
	m.searchInput.Prompt = "search> "
	m.searchInput.CharLimit = 128
	m.searchInput.Width = 48

	m.commandInput = textinput.New()
	m.commandInput.Prompt = ":"
	m.commandInput.CharLimit = 256
	m.commandInput.Width = 48

	m.helpModel = help.New()
	m.notes = viewport.New(54, 10)
}

// Rows returns the tasks currently on screen.
func (m Model) Rows() []model.Task {
	return m.rows
}

// Selected returns the task under the cursor.
func (m Model) Selected() (model.Task, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return model.Task{}, false
	}
	return m.rows[m.Cursor], true
}

// refresh rebuilds the visible rows from the store and keeps the cursor on
// the same task when it is still visible.
func (m *Model) refresh() {
	selectedID := ""
	if task, ok := m.Selected(); ok {
		selectedID = task.ID
	}
	if m.ListID != model.AllListsID {
		if _, ok := m.App.Tasks.List(m.ListID); !ok {
			m.ListID = model.AllListsID
		}
	}

	visible := m.App.Tasks.Visible(m.ListID, m.Query)
	rows := make([]model.Task, 0, len(visible))
	for _, t := range visible {
		if t.Completed && !m.ShowCompleted {
			continue
		}
		rows = append(rows, t)
	}
	m.rows = rows

	for i, t := range m.rows {
		if t.ID == selectedID {
			m.Cursor = i
			break
		}
	}
	m.clampCursor()
	m.syncNotes()
}

func (m *Model) clampCursor() {
	if m.Cursor >= len(m.rows) {
		m.Cursor = len(m.rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
}

func (m *Model) setStatus(text string) {
	m.Status = StatusBar{Text: text}
}

func (m *Model) setError(err error) {
	m.LastError = err
	if err != nil {
		m.Status = StatusBar{Text: err.Error(), IsError: true}
		m.App.Logger.Warn("ui action failed", "error", err)
	}
}

func (m Model) listName(id string) string {
	if id == model.AllListsID {
		return "All"
	}
	if l, ok := m.App.Tasks.List(id); ok {
		return l.Name
	}
	return "?"
}

// cycleList moves to the next (step 1) or previous (step -1) list. The
// all-tasks view sits before the first list.
func (m *Model) cycleList(step int) {
	ids := []string{model.AllListsID}
	for _, l := range m.App.Tasks.Lists() {
		ids = append(ids, l.ID)
	}
	current := 0
	for i, id := range ids {
		if id == m.ListID {
			current = i
			break
		}
	}
	next := (current + step + len(ids)) % len(ids)
	m.ListID = ids[next]
	m.Cursor = 0
	m.refresh()
	m.setStatus("list: " + m.listName(m.ListID))
}
