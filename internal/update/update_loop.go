package update

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/scheduler"
	"github.com/sandeepkv93/errands/internal/settings"
	"github.com/sandeepkv93/errands/internal/views"
	"github.com/sandeepkv93/errands/internal/watch"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{waitForEventCmd(m.App.Engine.C())}
	if m.App.Watcher != nil {
		cmds = append(cmds, waitForChangeCmd(m.App.Watcher.C()))
	}
	return tea.Batch(cmds...)
}

func waitForEventCmd(ch <-chan scheduler.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		return TimerFiredMsg{Event: ev}
	}
}

func waitForChangeCmd(ch <-chan watch.Change) tea.Cmd {
	return func() tea.Msg {
		change, ok := <-ch
		if !ok {
			return nil
		}
		return ExternalChangeMsg{Change: change}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch typed := msg.(type) {
	case tea.KeyMsg:
		switch m.Mode {
		case ModeAdd:
			return m.handleAddKey(typed)
		case ModeSearch:
			return m.handleSearchKey(typed)
		case ModePalette:
			return m.handlePaletteKey(typed)
		}
		return m.handleNormalKey(typed)
	case tea.WindowSizeMsg:
		m.Width, m.Height = typed.Width, typed.Height
		m.notes.Width = views.PaneWidth(typed.Width)
		err := errors.Join(
			m.App.Settings.SetNumber(settings.KeyWindowWidth, float64(typed.Width)),
			m.App.Settings.SetNumber(settings.KeyWindowHeight, float64(typed.Height)),
		)
		if err != nil {
			m.setError(err)
		}
		return m, nil
	case TimerFiredMsg:
		if err := m.App.RunEvent(typed.Event); err != nil {
			m.setError(err)
		}
		return m, waitForEventCmd(m.App.Engine.C())
	case ExternalChangeMsg:
		reloaded, err := m.App.ReloadIfChanged(typed.Change.Name)
		switch {
		case err != nil:
			m.setError(fmt.Errorf("reload %s: %w", typed.Change.Name, err))
		case reloaded:
			if show, err := m.App.Settings.Bool(settings.KeyShowCompleted); err == nil {
				m.ShowCompleted = show
			}
			m.refresh()
			m.setStatus("reloaded " + typed.Change.Name)
		}
		if m.App.Watcher != nil {
			return m, waitForChangeCmd(m.App.Watcher.C())
		}
		return m, nil
	case SetStatusMsg:
		m.Status = StatusBar{Text: typed.Text, IsError: typed.IsError}
		return m, nil
	case ClearStatusMsg:
		m.Status = StatusBar{}
		return m, nil
	case AppErrorMsg:
		m.setError(typed.Err)
		return m, nil
	}
	return m, nil
}

func (m Model) handleNormalKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.Keys.Quit):
		m.Quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.Keys.Up):
		if m.Cursor > 0 {
			m.Cursor--
			m.syncNotes()
		}
	case key.Matches(msg, m.Keys.Down):
		if m.Cursor < len(m.rows)-1 {
			m.Cursor++
			m.syncNotes()
		}
	case key.Matches(msg, m.Keys.NextList):
		m.cycleList(1)
	case key.Matches(msg, m.Keys.PrevList):
		m.cycleList(-1)
	case key.Matches(msg, m.Keys.Add):
		m.Mode = ModeAdd
		m.addInput.SetValue("")
		m.addInput.Focus()
		m.setStatus("adding to " + m.listName(m.addTargetList()))
	case key.Matches(msg, m.Keys.Search):
		m.Mode = ModeSearch
		m.searchInput.SetValue(m.Query)
		m.searchInput.Focus()
	case key.Matches(msg, m.Keys.Palette):
		m.Mode = ModePalette
		m.commandInput.SetValue("")
		m.commandInput.Focus()
		m.setStatus("command palette active")
	case key.Matches(msg, m.Keys.Toggle):
		m.toggleSelected()
	case key.Matches(msg, m.Keys.Trash):
		m.trashSelected()
	case key.Matches(msg, m.Keys.ShowCompleted):
		m.ShowCompleted = !m.ShowCompleted
		if err := m.App.Settings.SetBool(settings.KeyShowCompleted, m.ShowCompleted); err != nil {
			m.setError(err)
		}
		m.refresh()
		if m.ShowCompleted {
			m.setStatus("showing completed tasks")
		} else {
			m.setStatus("hiding completed tasks")
		}
	case key.Matches(msg, m.Keys.Recurrence):
		m.RecurrenceVisible = !m.RecurrenceVisible
	case key.Matches(msg, m.Keys.Help):
		m.HelpVisible = !m.HelpVisible
		m.helpModel.ShowAll = m.HelpVisible
	}
	return m, nil
}

func (m Model) handleAddKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Mode = ModeNormal
		m.addInput.Blur()
		m.setStatus("add cancelled")
		return m, nil
	case tea.KeyEnter:
		text := strings.TrimSpace(m.addInput.Value())
		m.Mode = ModeNormal
		m.addInput.Blur()
		if text == "" {
			// Empty input adds nothing.
			return m, nil
		}
		if err := m.addTask(text); err != nil {
			m.setError(err)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.addInput, cmd = m.addInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.Mode = ModeNormal
		m.searchInput.Blur()
		m.Query = ""
		m.refresh()
		m.setStatus("search cleared")
		return m, nil
	case tea.KeyEnter:
		m.Mode = ModeNormal
		m.searchInput.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.searchInput, cmd = m.searchInput.Update(msg)
	// The filter follows every keystroke.
	m.Query = m.searchInput.Value()
	m.Cursor = 0
	m.refresh()
	return m, cmd
}

// addTargetList picks the list new tasks go to. The all-tasks view cannot
// own tasks, so it adds to the first list.
func (m Model) addTargetList() string {
	if m.ListID != model.AllListsID {
		return m.ListID
	}
	if lists := m.App.Tasks.Lists(); len(lists) > 0 {
		return lists[0].ID
	}
	return ""
}

func (m *Model) addTask(text string) error {
	listID := m.addTargetList()
	if listID == "" {
		list, err := m.App.Tasks.AddList(defaultListName)
		if err != nil {
			return err
		}
		listID = list.ID
	}
	task, err := m.App.Tasks.AddTask(listID, "", text)
	m.refresh()
	if task.ID != "" {
		// Added even when the save failed.
		m.selectID(task.ID)
	}
	if err != nil {
		return err
	}
	m.setStatus("added: " + task.Text)
	return nil
}

func (m *Model) toggleSelected() {
	task, ok := m.Selected()
	if !ok {
		return
	}
	done, err := m.App.Tasks.ToggleCompleted(task.ID)
	m.refresh()
	if err != nil {
		m.setError(err)
		return
	}
	if done {
		m.setStatus("completed: " + task.Text)
	} else {
		m.setStatus("reopened: " + task.Text)
	}
}

func (m *Model) trashSelected() {
	task, ok := m.Selected()
	if !ok {
		return
	}
	trashed, err := m.App.Tasks.Trash(task.ID)
	m.refresh()
	if err != nil {
		m.setError(err)
		return
	}
	if trashed {
		m.setStatus("trashed: " + task.Text)
	} else {
		m.setStatus("restored: " + task.Text)
	}
}

func (m *Model) selectID(id string) {
	for i, t := range m.rows {
		if t.ID == id {
			m.Cursor = i
			m.syncNotes()
			return
		}
	}
}

func (m Model) View() string {
	status := m.Status.Text
	if m.Status.IsError && !strings.Contains(strings.ToLower(status), "error") {
		status = "error: " + status
	}

	right := m.renderDetail()
	if m.RecurrenceVisible {
		right += "\n\n" + m.renderRecurrence()
	}

	var notification string
	if m.HelpVisible {
		notification = m.renderHelpView()
	}
	if m.Mode == ModePalette {
		notification = views.RenderCommandPalette(true, m.commandInput.View())
	}

	return views.RenderApp(views.AppData{
		Header:       fmt.Sprintf("errands | %s", m.listName(m.ListID)),
		LeftPane:     m.renderTaskList(),
		RightPane:    right,
		StatusLine:   status,
		Notification: notification,
		Footer:       m.helpModel.ShortHelpView(m.Keys.ShortHelp()),
		Width:        m.Width,
	})
}

func (m Model) renderTaskList() string {
	rows := make([]views.TaskRowData, 0, len(m.rows))
	for _, t := range m.rows {
		row := views.TaskRowData{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			Trashed:   t.Trashed,
			Subtask:   t.ParentID != "",
			Recurring: t.IsRecurring(),
			DueDate:   t.DueDate,
		}
		if m.ListID == model.AllListsID {
			row.ListName = m.listName(t.ListID)
		}
		rows = append(rows, row)
	}
	var input string
	switch m.Mode {
	case ModeAdd:
		input = m.addInput.View()
	case ModeSearch:
		input = m.searchInput.View()
	}
	return views.RenderTaskListPanel(views.TaskListPanelData{
		Title:    m.listName(m.ListID),
		Subtitle: m.App.Tasks.Stats(m.ListID).Subtitle(),
		Query:    m.Query,
		InputRow: input,
		Rows:     rows,
		Cursor:   m.Cursor,
	})
}
