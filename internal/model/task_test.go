package model

import (
	"errors"
	"testing"
	"time"
)

func TestTaskValidateSuccess(t *testing.T) {
	task := Task{
		ID:             "task-1",
		ListID:         "inbox",
		Text:           "Buy milk",
		StartDate:      "2026-02-09T08:00:00Z",
		DueDate:        "2026-02-10",
		RecurrenceRule: "RRULE:FREQ=DAILY;INTERVAL=1;",
	}
	if err := task.Validate(); err != nil {
		t.Fatalf("expected valid task, got error: %v", err)
	}
}

func TestTaskValidateRequiresRealList(t *testing.T) {
	task := Task{ID: "task-1", ListID: AllListsID, Text: "orphan"}
	err := task.Validate()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "model: task list_id is required" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTaskValidateRejectsSelfParent(t *testing.T) {
	task := Task{ID: "task-1", ListID: "inbox", ParentID: "task-1"}
	if err := task.Validate(); err == nil {
		t.Fatal("expected self-parent error")
	}
}

func TestTaskValidateDatesAndRule(t *testing.T) {
	task := Task{ID: "task-1", ListID: "inbox", DueDate: "tomorrow"}
	err := task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got: %v", err)
	}

	task.DueDate = ""
	task.StartDate = "2026-02-09T8:00"
	err = task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate for start date, got: %v", err)
	}

	task.StartDate = ""
	task.RecurrenceRule = "FREQ=DAILY"
	err = task.Validate()
	if err == nil || !errors.Is(err, ErrInvalidRecurrence) {
		t.Fatalf("expected ErrInvalidRecurrence, got: %v", err)
	}
}

func TestTaskRecurrence(t *testing.T) {
	task := Task{ID: "task-1", ListID: "inbox"}
	if _, ok := task.Recurrence(); ok {
		t.Fatal("expected non-recurring task")
	}
	task.RecurrenceRule = "RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5;"
	spec, ok := task.Recurrence()
	if !ok {
		t.Fatal("expected recurring task")
	}
	want := RecurrenceSpec{Frequency: Weekly, Interval: 2, Weekdays: NewWeekdaySet(time.Monday, time.Wednesday), Termination: AfterCount(5)}
	if !spec.Equal(want) {
		t.Fatalf("unexpected spec: %+v", spec)
	}
}

func TestTaskListValidate(t *testing.T) {
	if err := (TaskList{ID: "inbox", Name: "Inbox"}).Validate(); err != nil {
		t.Fatalf("expected valid list, got %v", err)
	}
	if err := (TaskList{ID: "inbox"}).Validate(); err == nil {
		t.Fatal("expected missing name error")
	}
	if err := (TaskList{Name: "Inbox"}).Validate(); err == nil {
		t.Fatal("expected missing id error")
	}
}
