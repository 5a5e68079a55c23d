package update

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sandeepkv93/errands/internal/app"
	"github.com/sandeepkv93/errands/internal/config"
	"github.com/sandeepkv93/errands/internal/logging"
	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/scheduler"
	"github.com/sandeepkv93/errands/internal/settings"
	"github.com/sandeepkv93/errands/internal/store"
	"github.com/sandeepkv93/errands/internal/watch"
)

func newTestApp(t *testing.T) *app.App {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.WatchExternal = false
	cfg.SaveCooldown = time.Minute
	a, err := app.Open(t.Context(), cfg, app.Options{Logger: logging.Discard(), DisableWatch: true})
	if err != nil {
		t.Fatalf("open app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func rowTexts(m Model) []string {
	out := make([]string, 0, len(m.Rows()))
	for _, t := range m.Rows() {
		out = append(out, t.Text)
	}
	return out
}

func seed(t *testing.T, a *app.App, listName string, texts ...string) model.TaskList {
	t.Helper()
	list, err := a.Tasks.AddList(listName)
	if err != nil {
		t.Fatalf("add list: %v", err)
	}
	for _, text := range texts {
		if _, err := a.Tasks.AddTask(list.ID, "", text); err != nil {
			t.Fatalf("add task: %v", err)
		}
	}
	return list
}

func TestNewModelDefaults(t *testing.T) {
	m := NewModel(newTestApp(t))
	if m.Mode != ModeNormal {
		t.Fatalf("expected normal mode, got %q", m.Mode)
	}
	if m.ListID != model.AllListsID {
		t.Fatalf("expected all-tasks view, got %q", m.ListID)
	}
	if !m.ShowCompleted {
		t.Fatal("expected completed tasks to be shown by default")
	}
	if len(m.Rows()) != 0 {
		t.Fatalf("expected no rows, got %v", rowTexts(m))
	}
}

func TestQuickAddCreatesDefaultList(t *testing.T) {
	a := newTestApp(t)
	m := NewModel(a)

	m = send(t, m, runes("a"))
	if m.Mode != ModeAdd {
		t.Fatalf("expected add mode, got %q", m.Mode)
	}
	m = send(t, m, runes("buy milk"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Mode != ModeNormal {
		t.Fatalf("expected normal mode after enter, got %q", m.Mode)
	}
	if got := rowTexts(m); len(got) != 1 || got[0] != "buy milk" {
		t.Fatalf("unexpected rows: %v", got)
	}
	lists := a.Tasks.Lists()
	if len(lists) != 1 || lists[0].Name != defaultListName {
		t.Fatalf("expected default list, got %+v", lists)
	}

	// Blank input adds nothing.
	m = send(t, m, runes("a"), runes("   "), tea.KeyMsg{Type: tea.KeyEnter})
	if len(m.Rows()) != 1 {
		t.Fatalf("blank add should be ignored, got %v", rowTexts(m))
	}
}

func TestToggleCompletionMovesTaskDown(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "first", "second")
	m := NewModel(a)
	if got := rowTexts(m); strings.Join(got, ",") != "second,first" {
		t.Fatalf("unexpected initial order: %v", got)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if got := rowTexts(m); strings.Join(got, ",") != "first,second" {
		t.Fatalf("completed task should move behind active ones: %v", got)
	}
	selected, ok := m.Selected()
	if !ok || selected.Text != "second" || !selected.Completed {
		t.Fatalf("cursor should follow the toggled task, got %+v", selected)
	}
	if !strings.HasPrefix(m.Status.Text, "completed:") {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
	if !strings.Contains(m.View(), "Completed: 1 / 2") {
		t.Fatal("expected completion subtitle in view")
	}
}

func TestShowCompletedTogglePersists(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "first", "second")
	m := NewModel(a)
	m = send(t, m, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})

	m = send(t, m, runes("c"))
	if m.ShowCompleted {
		t.Fatal("expected completed tasks to be hidden")
	}
	if got := rowTexts(m); len(got) != 1 || got[0] != "first" {
		t.Fatalf("unexpected rows: %v", got)
	}
	show, err := a.Settings.Bool(settings.KeyShowCompleted)
	if err != nil || show {
		t.Fatalf("expected persisted setting false, got %v %v", show, err)
	}

	// A new model picks the setting up.
	if NewModel(a).ShowCompleted {
		t.Fatal("expected new model to honour show_completed")
	}
}

func TestSearchFiltersAndEscClears(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "buy milk", "call plumber", "milk the cow")
	m := NewModel(a)

	m = send(t, m, runes("/"), runes("milk"))
	if m.Mode != ModeSearch || m.Query != "milk" {
		t.Fatalf("unexpected search state: %q %q", m.Mode, m.Query)
	}
	if got := rowTexts(m); strings.Join(got, ",") != "milk the cow,buy milk" {
		t.Fatalf("unexpected filtered rows: %v", got)
	}

	m = send(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.Query != "" || len(m.Rows()) != 3 {
		t.Fatalf("esc should clear search, got %q %v", m.Query, rowTexts(m))
	}
}

func TestTabCyclesLists(t *testing.T) {
	a := newTestApp(t)
	home := seed(t, a, "Home", "dishes")
	work := seed(t, a, "Work", "report")
	m := NewModel(a)

	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.ListID != home.ID || strings.Join(rowTexts(m), ",") != "dishes" {
		t.Fatalf("expected Home list, got %q %v", m.ListID, rowTexts(m))
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.ListID != work.ID {
		t.Fatalf("expected Work list, got %q", m.ListID)
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.ListID != model.AllListsID || len(m.Rows()) != 2 {
		t.Fatalf("expected wrap to all tasks, got %q %v", m.ListID, rowTexts(m))
	}
	m = send(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.ListID != work.ID {
		t.Fatalf("expected shift+tab back to Work, got %q", m.ListID)
	}
}

func TestPaletteRepeatAndDue(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "water plants")
	m := NewModel(a)
	m.now = func() time.Time { return time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC) }

	m = send(t, m, runes(":"), runes("repeat FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5;"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.Status.IsError {
		t.Fatalf("repeat failed: %s", m.Status.Text)
	}
	task, _ := m.Selected()
	if task.RecurrenceRule != "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5;" {
		t.Fatalf("unexpected rule: %q", task.RecurrenceRule)
	}
	if !m.RecurrenceVisible {
		t.Fatal("expected recurrence pane to open")
	}
	if view := m.View(); !strings.Contains(view, "Repeat every 2 weeks on MO, WE, 5 times") {
		t.Fatalf("expected recurrence summary in view:\n%s", view)
	}

	m = send(t, m, runes(":"), runes("due 2026-03-01 09:30:00"), tea.KeyMsg{Type: tea.KeyEnter})
	task, _ = m.Selected()
	if task.DueDate != "2026-03-01T09:30:00Z" {
		t.Fatalf("unexpected due date: %q (%s)", task.DueDate, m.Status.Text)
	}

	m = send(t, m, runes(":"), runes("norepeat"), tea.KeyMsg{Type: tea.KeyEnter})
	task, _ = m.Selected()
	if task.IsRecurring() {
		t.Fatal("expected rule to be cleared")
	}
}

func TestPaletteListsAndErrors(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "dishes")
	m := NewModel(a)

	m = send(t, m, runes(":"), runes("newlist Errands"), tea.KeyMsg{Type: tea.KeyEnter})
	list, ok := a.Tasks.ListByName("Errands")
	if !ok || m.ListID != list.ID {
		t.Fatalf("expected switch to new list, got %q", m.ListID)
	}
	m = send(t, m, runes(":"), runes("add post letter"), tea.KeyMsg{Type: tea.KeyEnter})
	if got := rowTexts(m); len(got) != 1 || got[0] != "post letter" {
		t.Fatalf("expected task in new list, got %v", got)
	}

	m = send(t, m, runes(":"), runes("list all"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.ListID != model.AllListsID || len(m.Rows()) != 2 {
		t.Fatalf("expected all tasks, got %q %v", m.ListID, rowTexts(m))
	}

	m = send(t, m, runes(":"), runes("list Nowhere"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError || m.LastError == nil {
		t.Fatalf("expected error status, got %+v", m.Status)
	}

	m = send(t, m, runes(":"), runes("fly away"), tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Status.IsError || !strings.Contains(m.Status.Text, "unknown_command") {
		t.Fatalf("expected unknown command error, got %+v", m.Status)
	}
	if m.Mode != ModeNormal {
		t.Fatalf("palette should close after enter, got %q", m.Mode)
	}
}

func TestTimerFiredRunsEvent(t *testing.T) {
	m := NewModel(newTestApp(t))
	called := false
	updated, cmd := m.Update(TimerFiredMsg{Event: scheduler.Event{Name: "test", Fire: func() error {
		called = true
		return nil
	}}})
	if !called {
		t.Fatal("expected event callback to run")
	}
	if cmd == nil {
		t.Fatal("expected the wait command to be re-armed")
	}
	if updated.(Model).Status.IsError {
		t.Fatalf("unexpected error status: %+v", updated.(Model).Status)
	}
}

func TestWindowSizeIsPersisted(t *testing.T) {
	a := newTestApp(t)
	m := send(t, NewModel(a), tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.Width != 120 || m.Height != 40 {
		t.Fatalf("unexpected size: %dx%d", m.Width, m.Height)
	}
	w, err := a.Settings.Number(settings.KeyWindowWidth)
	if err != nil || w != 120 {
		t.Fatalf("unexpected width setting: %v %v", w, err)
	}
	h, err := a.Settings.Number(settings.KeyWindowHeight)
	if err != nil || h != 40 {
		t.Fatalf("unexpected height setting: %v %v", h, err)
	}
}

func TestExternalChangeReloadsTasks(t *testing.T) {
	a := newTestApp(t)
	seed(t, a, "Home", "buy milk")
	if err := a.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}
	m := NewModel(a)

	path := filepath.Join(a.Config.DataDir, store.DocumentPath)
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read tasks: %v", err)
	}
	edited := strings.Replace(string(raw), "buy milk", "buy oat milk", 1)
	if err := os.WriteFile(path, []byte(edited), 0o644); err != nil {
		t.Fatalf("write tasks: %v", err)
	}

	m = send(t, m, ExternalChangeMsg{Change: watch.Change{Name: store.DocumentPath, Path: path}})
	if got := rowTexts(m); len(got) != 1 || got[0] != "buy oat milk" {
		t.Fatalf("expected reloaded rows, got %v", got)
	}
	if m.Status.Text != "reloaded "+store.DocumentPath {
		t.Fatalf("unexpected status: %+v", m.Status)
	}
}

func TestQuitKey(t *testing.T) {
	m := NewModel(newTestApp(t))
	updated, cmd := m.Update(runes("q"))
	if !updated.(Model).Quitting {
		t.Fatal("expected quitting flag")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}

func TestHelpToggle(t *testing.T) {
	m := send(t, NewModel(newTestApp(t)), runes("?"))
	if !m.HelpVisible {
		t.Fatal("expected help to be visible")
	}
	if !strings.Contains(m.View(), "recurrence preview") {
		t.Fatal("expected key help in view")
	}
	m = send(t, m, runes("?"))
	if m.HelpVisible {
		t.Fatal("expected help to be hidden")
	}
}
