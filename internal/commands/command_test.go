package commands

import (
	"errors"
	"testing"
	"time"

	"github.com/sandeepkv93/errands/internal/model"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{":add pay rent", TypeAdd},
		{"search urgent", TypeSearch},
		{"list all", TypeList},
		{"newlist Groceries", TypeNewList},
		{"done", TypeDone},
		{"repeat FREQ=DAILY;INTERVAL=2;", TypeRepeat},
		{"norepeat abc", TypeNoRepeat},
		{"/due 2026-03-01 09:00:00", TypeDue},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseKeepsFreeText(t *testing.T) {
	cmd, err := Parse("add  call   mum ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Add.Text != "call   mum" {
		t.Fatalf("unexpected text: %q", cmd.Add.Text)
	}

	cmd, err = Parse("search ")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Search.Query != "" {
		t.Fatalf("expected empty query to clear the search, got %q", cmd.Search.Query)
	}
}

func TestParseList(t *testing.T) {
	cmd, err := Parse("list ALL")
	if err != nil || !cmd.List.All {
		t.Fatalf("expected all-tasks list, got %+v %v", cmd.List, err)
	}
	cmd, err = Parse("list Home Chores")
	if err != nil || cmd.List.Name != "Home Chores" || cmd.List.All {
		t.Fatalf("unexpected list args: %+v %v", cmd.List, err)
	}
}

func TestParseRepeat(t *testing.T) {
	cmd, err := Parse("repeat task-9 RRULE:FREQ=WEEKLY;INTERVAL=2;BYDAY=MO,WE;COUNT=5;")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Repeat.Target != "task-9" {
		t.Fatalf("unexpected target: %q", cmd.Repeat.Target)
	}
	want := model.RecurrenceSpec{Frequency: model.Weekly, Interval: 2, Weekdays: model.NewWeekdaySet(time.Monday, time.Wednesday), Termination: model.AfterCount(5)}
	if !cmd.Repeat.Spec.Equal(want) {
		t.Fatalf("unexpected spec: %+v", cmd.Repeat.Spec)
	}

	_, err = Parse("repeat INTERVAL=3;")
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
		t.Fatalf("expected invalid argument for rule without FREQ, got %v", err)
	}
}

func TestParseDue(t *testing.T) {
	cmd, err := Parse("due 2026-03-01")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Due.Target != TargetSelected || cmd.Due.Date != "2026-03-01" || cmd.Due.Clock != "" {
		t.Fatalf("unexpected due args: %+v", cmd.Due)
	}

	cmd, err = Parse("due t1 2026-03-01 07:30:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cmd.Due.Target != "t1" || cmd.Due.Clock != "07:30:00" {
		t.Fatalf("unexpected due args: %+v", cmd.Due)
	}

	cmd, err = Parse("due none")
	if err != nil || cmd.Due.Date != "" {
		t.Fatalf("expected cleared date, got %+v %v", cmd.Due, err)
	}

	if _, err := Parse("due t1 2026-03-01 07:30:00 extra"); err == nil {
		t.Fatal("expected error for extra arguments")
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]ErrorCode{
		"":              ErrCodeEmptyInput,
		":":             ErrCodeEmptyInput,
		"/unknown do x": ErrCodeUnknownCommand,
		"add":           ErrCodeInvalidArgument,
		"list":          ErrCodeInvalidArgument,
		"newlist":       ErrCodeInvalidArgument,
		"repeat":        ErrCodeInvalidArgument,
		"due":           ErrCodeInvalidArgument,
	}
	for in, code := range cases {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != code {
			t.Fatalf("parse %q: expected %s, got %v", in, code, err)
		}
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse(":add write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Text != "write docs" {
				t.Fatalf("unexpected text: %q", a.Text)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("done")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
