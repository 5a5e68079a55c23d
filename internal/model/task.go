package model

import (
	"errors"
	"fmt"
	"strings"
)

// AllListsID is the sentinel list id of the virtual all-tasks view. It is
// never the id of a real list.
const AllListsID = ""

var (
	ErrInvalidDate       = errors.New("model: invalid date")
	ErrInvalidRecurrence = errors.New("model: invalid recurrence rule")
)

type TaskList struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Deleted bool   `json:"deleted"`
}

func (l TaskList) Validate() error {
	if strings.TrimSpace(l.ID) == "" {
		return errors.New("model: list id is required")
	}
	if strings.TrimSpace(l.Name) == "" {
		return errors.New("model: list name is required")
	}
	return nil
}

type Task struct {
	ID             string   `json:"id"`
	ListID         string   `json:"list_id"`
	ParentID       string   `json:"parent_id"`
	Text           string   `json:"text"`
	Notes          string   `json:"notes"`
	Tags           []string `json:"tags"`
	Completed      bool     `json:"completed"`
	Deleted        bool     `json:"deleted"`
	Trashed        bool     `json:"trashed"`
	StartDate      string   `json:"start_date"`
	DueDate        string   `json:"due_date"`
	RecurrenceRule string   `json:"recurrence_rule"`
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return errors.New("model: task id is required")
	}
	if t.ListID == AllListsID {
		return errors.New("model: task list_id is required")
	}
	if t.ParentID == t.ID {
		return errors.New("model: task cannot be its own parent")
	}
	if err := ValidateDate(t.StartDate); err != nil {
		return fmt.Errorf("start_date: %w", err)
	}
	if err := ValidateDate(t.DueDate); err != nil {
		return fmt.Errorf("due_date: %w", err)
	}
	if t.RecurrenceRule != "" && !strings.HasPrefix(t.RecurrenceRule, RulePrefix) {
		return fmt.Errorf("%w: %q", ErrInvalidRecurrence, t.RecurrenceRule)
	}
	return nil
}

// IsRecurring reports whether the task carries a recurrence rule.
func (t Task) IsRecurring() bool {
	return t.RecurrenceRule != ""
}

// Recurrence decodes the task's rule. ok is false for non-recurring tasks.
func (t Task) Recurrence() (spec RecurrenceSpec, ok bool) {
	if !t.IsRecurring() {
		return RecurrenceSpec{}, false
	}
	return DecodeRecurrence(t.RecurrenceRule), true
}
