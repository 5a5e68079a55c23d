package update

import (
	"time"

	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/views"
)

// syncNotes renders the selected task's notes into the notes viewport.
func (m *Model) syncNotes() {
	task, ok := m.Selected()
	if !ok {
		m.notes.SetContent("")
		return
	}
	m.notes.SetContent(views.RenderMarkdown(task.Notes))
	m.notes.GotoTop()
}

func (m Model) renderDetail() string {
	task, ok := m.Selected()
	if !ok {
		return views.RenderTaskDetail(views.TaskDetailData{})
	}
	data := views.TaskDetailData{
		ID:        task.ID,
		Text:      task.Text,
		ListName:  m.listName(task.ListID),
		StartDate: task.StartDate,
		DueDate:   task.DueDate,
		Tags:      task.Tags,
	}
	if spec, ok := task.Recurrence(); ok {
		data.Recurrence = spec.Describe()
	}
	if task.Notes != "" {
		data.NotesView = m.notes.View()
	}
	return views.RenderTaskDetail(data)
}

// previewStart anchors the series at the task's start date, then its due
// date, then the current minute.
func (m Model) previewStart(task model.Task) time.Time {
	for _, s := range []string{task.StartDate, task.DueDate} {
		if s == "" {
			continue
		}
		if t, _, err := model.ParseDate(s); err == nil {
			return t
		}
	}
	return m.now().UTC().Truncate(time.Minute)
}

func (m Model) renderRecurrence() string {
	task, ok := m.Selected()
	if !ok {
		return views.RenderRecurrencePanel(views.RecurrencePanelData{ErrorMsg: "no task selected"})
	}
	spec, ok := task.Recurrence()
	if !ok {
		return views.RenderRecurrencePanel(views.RecurrencePanelData{})
	}
	start := m.previewStart(task)
	data := views.RecurrencePanelData{
		Rule:    model.EncodeRecurrence(spec),
		Summary: spec.Describe(),
		Start:   start.Format("2006-01-02 15:04"),
	}
	for _, at := range spec.Preview(start, previewCount) {
		data.Preview = append(data.Preview, at.Format("2006-01-02 15:04"))
	}
	return views.RenderRecurrencePanel(data)
}
