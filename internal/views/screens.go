package views

import (
	"fmt"
	"strings"
)

type TaskRowData struct {
	ID        string
	Text      string
	ListName  string
	Completed bool
	Trashed   bool
	Subtask   bool
	Recurring bool
	DueDate   string
}

type TaskListPanelData struct {
	Title    string
	Subtitle string
	Query    string
	InputRow string
	Rows     []TaskRowData
	Cursor   int
}

type TaskDetailData struct {
	ID         string
	Text       string
	ListName   string
	StartDate  string
	DueDate    string
	Tags       []string
	Recurrence string
	NotesView  string
}

type HelpPanelData struct {
	Bindings []string
	HelpView string
}

type RecurrencePanelData struct {
	Rule     string
	Summary  string
	Start    string
	Preview  []string
	ErrorMsg string
}

func RenderTaskListPanel(data TaskListPanelData) string {
	var b strings.Builder
	b.WriteString(data.Title)
	if data.Subtitle != "" {
		b.WriteString(" · " + data.Subtitle)
	}
	b.WriteString("\n")
	if data.Query != "" {
		b.WriteString(fmt.Sprintf("search: %q\n", data.Query))
	}
	if data.InputRow != "" {
		b.WriteString(data.InputRow + "\n")
	}
	if len(data.Rows) == 0 {
		b.WriteString("\n  (no tasks)")
		return b.String()
	}
	b.WriteString("\n")
	for i, row := range data.Rows {
		cursor := " "
		if i == data.Cursor {
			cursor = ">"
		}
		b.WriteString(fmt.Sprintf("%s %s %s", cursor, checkbox(row), rowText(row)))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func checkbox(row TaskRowData) string {
	switch {
	case row.Trashed:
		return "[-]"
	case row.Completed:
		return "[x]"
	default:
		return "[ ]"
	}
}

func rowText(row TaskRowData) string {
	text := row.Text
	if row.Subtask {
		text = "  " + text
	}
	if row.Recurring {
		text += " ↻"
	}
	if row.DueDate != "" {
		text += " due:" + row.DueDate
	}
	if row.ListName != "" {
		text += " (" + row.ListName + ")"
	}
	return text
}

func RenderTaskDetail(data TaskDetailData) string {
	if strings.TrimSpace(data.ID) == "" {
		return "details:\n(no selection)"
	}
	var b strings.Builder
	b.WriteString("details:\n")
	b.WriteString(fmt.Sprintf("id: %s\n", data.ID))
	b.WriteString(fmt.Sprintf("task: %s\n", data.Text))
	b.WriteString(fmt.Sprintf("list: %s\n", data.ListName))
	if data.StartDate != "" {
		b.WriteString(fmt.Sprintf("start: %s\n", data.StartDate))
	}
	if data.DueDate != "" {
		b.WriteString(fmt.Sprintf("due: %s\n", data.DueDate))
	}
	if len(data.Tags) > 0 {
		b.WriteString(fmt.Sprintf("tags: %s\n", strings.Join(data.Tags, ",")))
	}
	if data.Recurrence != "" {
		b.WriteString(fmt.Sprintf("repeat: %s\n", data.Recurrence))
	}
	if data.NotesView != "" {
		b.WriteString("\nnotes:\n" + data.NotesView)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func RenderCommandPalette(active bool, input string) string {
	if !active {
		return ""
	}
	return fmt.Sprintf("command: %s", input)
}

func RenderHelpPanel(data HelpPanelData) string {
	return fmt.Sprintf("help:\n%s\n\n%s", strings.Join(data.Bindings, "\n"), data.HelpView)
}

func RenderRecurrencePanel(data RecurrencePanelData) string {
	var b strings.Builder
	b.WriteString("recurrence:\n")
	if data.ErrorMsg != "" {
		b.WriteString("error: " + data.ErrorMsg)
		return b.String()
	}
	if data.Rule == "" {
		b.WriteString("(does not repeat)")
		return b.String()
	}
	b.WriteString(data.Rule + "\n")
	b.WriteString(data.Summary + "\n")
	if data.Start != "" {
		b.WriteString(fmt.Sprintf("from %s:\n", data.Start))
	}
	for _, item := range data.Preview {
		b.WriteString("- " + item + "\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}
