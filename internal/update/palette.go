package update

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/errands/internal/commands"
	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/store"
)

func (m Model) handlePaletteKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.closePalette()
		m.setStatus("command palette closed")
		return m, nil
	case tea.KeyEnter:
		raw := m.commandInput.Value()
		m.closePalette()
		m.executePaletteCommand(raw)
		return m, nil
	}
	var cmd tea.Cmd
	m.commandInput, cmd = m.commandInput.Update(msg)
	return m, cmd
}

func (m *Model) closePalette() {
	m.Mode = ModeNormal
	m.commandInput.SetValue("")
	m.commandInput.Blur()
}

func (m *Model) executePaletteCommand(raw string) {
	cmd, err := commands.Parse(raw)
	if err != nil {
		m.setError(err)
		return
	}
	res, err := commands.Execute(cmd, m.handlers())
	m.refresh()
	if err != nil {
		m.setError(err)
		return
	}
	m.setStatus(res.Message)
}

// resolve maps a command target to a task: the selected row or an id prefix.
func (m *Model) resolve(target string) (model.Task, error) {
	if target == commands.TargetSelected {
		task, ok := m.Selected()
		if !ok {
			return model.Task{}, &commands.CommandError{Code: commands.ErrCodeInvalidArgument, Message: "no task selected"}
		}
		return task, nil
	}
	return m.App.Tasks.Resolve(target)
}

func (m *Model) handlers() commands.Handlers {
	tasks := m.App.Tasks
	return commands.Handlers{
		Add: func(a commands.AddArgs) (commands.Result, error) {
			if err := m.addTask(a.Text); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: fmt.Sprintf("added: %s", a.Text)}, nil
		},
		Search: func(s commands.SearchArgs) (commands.Result, error) {
			m.Query = s.Query
			m.searchInput.SetValue(s.Query)
			m.Cursor = 0
			if s.Query == "" {
				return commands.Result{Message: "search cleared"}, nil
			}
			return commands.Result{Message: fmt.Sprintf("search: %s", s.Query)}, nil
		},
		List: func(l commands.ListArgs) (commands.Result, error) {
			if l.All {
				m.ListID = model.AllListsID
				m.Cursor = 0
				return commands.Result{Message: "list: All"}, nil
			}
			list, ok := tasks.ListByName(l.Name)
			if !ok {
				return commands.Result{}, fmt.Errorf("%w: %q", store.ErrListNotFound, l.Name)
			}
			m.ListID = list.ID
			m.Cursor = 0
			return commands.Result{Message: "list: " + list.Name}, nil
		},
		NewList: func(n commands.NewListArgs) (commands.Result, error) {
			list, err := tasks.AddList(n.Name)
			if list.ID != "" {
				m.ListID = list.ID
				m.Cursor = 0
			}
			if err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "created list: " + list.Name}, nil
		},
		Done: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolve(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := tasks.SetCompleted(task.ID, true); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "completed: " + task.Text}, nil
		},
		Repeat: func(r commands.RepeatArgs) (commands.Result, error) {
			task, err := m.resolve(r.Target)
			if err != nil {
				return commands.Result{}, err
			}
			spec := r.Spec
			if err := tasks.SetRecurrence(task.ID, &spec); err != nil {
				return commands.Result{}, err
			}
			m.RecurrenceVisible = true
			return commands.Result{Message: spec.Describe()}, nil
		},
		NoRepeat: func(t commands.TargetArgs) (commands.Result, error) {
			task, err := m.resolve(t.Target)
			if err != nil {
				return commands.Result{}, err
			}
			if err := tasks.SetRecurrence(task.ID, nil); err != nil {
				return commands.Result{}, err
			}
			return commands.Result{Message: "no longer repeats: " + task.Text}, nil
		},
		Due: func(d commands.DueArgs) (commands.Result, error) {
			task, err := m.resolve(d.Target)
			if err != nil {
				return commands.Result{}, err
			}
			due, err := model.ComposeDateTime(d.Date, d.Clock, m.now())
			if err != nil {
				return commands.Result{}, err
			}
			if err := tasks.SetDates(task.ID, task.StartDate, due); err != nil {
				return commands.Result{}, err
			}
			if due == "" {
				return commands.Result{Message: "due date cleared: " + task.Text}, nil
			}
			return commands.Result{Message: fmt.Sprintf("due %s: %s", due, task.Text)}, nil
		},
	}
}
