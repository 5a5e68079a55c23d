package commands

import (
	"fmt"
	"strings"

	"github.com/sandeepkv93/errands/internal/model"
)

type Type string

const (
	TypeAdd      Type = "add"
	TypeSearch   Type = "search"
	TypeList     Type = "list"
	TypeNewList  Type = "newlist"
	TypeDone     Type = "done"
	TypeRepeat   Type = "repeat"
	TypeNoRepeat Type = "norepeat"
	TypeDue      Type = "due"
)

type ErrorCode string

const (
	ErrCodeEmptyInput      ErrorCode = "empty_input"
	ErrCodeUnknownCommand  ErrorCode = "unknown_command"
	ErrCodeInvalidArgument ErrorCode = "invalid_argument"
	ErrCodeHandlerMissing  ErrorCode = "handler_missing"
)

type CommandError struct {
	Code    ErrorCode
	Message string
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// TargetSelected refers to the task under the cursor.
const TargetSelected = "selected"

type AddArgs struct {
	Text string
}

type SearchArgs struct {
	Query string
}

// ListArgs selects a list by name; All selects the all-tasks view.
type ListArgs struct {
	Name string
	All  bool
}

type NewListArgs struct {
	Name string
}

type TargetArgs struct {
	Target string
}

type RepeatArgs struct {
	Target string
	Spec   model.RecurrenceSpec
}

type DueArgs struct {
	Target string
	Date   string
	Clock  string
}

type Command struct {
	Type     Type
	Raw      string
	Add      *AddArgs
	Search   *SearchArgs
	List     *ListArgs
	NewList  *NewListArgs
	Done     *TargetArgs
	Repeat   *RepeatArgs
	NoRepeat *TargetArgs
	Due      *DueArgs
}

func Parse(input string) (Command, error) {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}
	if strings.HasPrefix(raw, ":") || strings.HasPrefix(raw, "/") {
		raw = strings.TrimSpace(raw[1:])
	}
	if raw == "" {
		return Command{}, &CommandError{Code: ErrCodeEmptyInput, Message: "command is empty"}
	}

	parts := strings.Fields(raw)
	head := strings.ToLower(parts[0])
	args := parts[1:]
	// Free text keeps its inner spacing.
	rest := strings.TrimSpace(strings.TrimPrefix(raw, parts[0]))

	switch Type(head) {
	case TypeAdd:
		return parseAdd(input, rest)
	case TypeSearch:
		return Command{Type: TypeSearch, Raw: input, Search: &SearchArgs{Query: rest}}, nil
	case TypeList:
		return parseList(input, rest)
	case TypeNewList:
		if rest == "" {
			return Command{}, invalid("newlist requires a name")
		}
		return Command{Type: TypeNewList, Raw: input, NewList: &NewListArgs{Name: rest}}, nil
	case TypeDone:
		return Command{Type: TypeDone, Raw: input, Done: &TargetArgs{Target: target(args)}}, nil
	case TypeRepeat:
		return parseRepeat(input, args)
	case TypeNoRepeat:
		return Command{Type: TypeNoRepeat, Raw: input, NoRepeat: &TargetArgs{Target: target(args)}}, nil
	case TypeDue:
		return parseDue(input, args)
	default:
		return Command{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unsupported command: %s", head)}
	}
}

func invalid(msg string) error {
	return &CommandError{Code: ErrCodeInvalidArgument, Message: msg}
}

func target(args []string) string {
	if len(args) == 0 {
		return TargetSelected
	}
	return args[0]
}

func parseAdd(raw, text string) (Command, error) {
	if text == "" {
		return Command{}, invalid("add requires text")
	}
	return Command{Type: TypeAdd, Raw: raw, Add: &AddArgs{Text: text}}, nil
}

func parseList(raw, name string) (Command, error) {
	if name == "" {
		return Command{}, invalid("list requires a name or all")
	}
	if strings.EqualFold(name, "all") {
		return Command{Type: TypeList, Raw: raw, List: &ListArgs{All: true}}, nil
	}
	return Command{Type: TypeList, Raw: raw, List: &ListArgs{Name: name}}, nil
}

// parseRepeat accepts "repeat [target] <rule>". The rule may omit the RRULE:
// prefix but must name a frequency.
func parseRepeat(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("repeat requires a rule")
	}
	tgt := TargetSelected
	rule := args[len(args)-1]
	if len(args) > 1 {
		tgt = args[0]
	}
	if !strings.HasPrefix(strings.ToUpper(rule), model.RulePrefix) {
		rule = model.RulePrefix + rule
	}
	spec, err := model.DecodeRecurrenceStrict(rule)
	if err != nil {
		return Command{}, invalid(err.Error())
	}
	return Command{Type: TypeRepeat, Raw: raw, Repeat: &RepeatArgs{Target: tgt, Spec: spec}}, nil
}

// parseDue accepts "due [target] <date|none> [time]".
func parseDue(raw string, args []string) (Command, error) {
	if len(args) == 0 {
		return Command{}, invalid("due requires a date")
	}
	tgt := TargetSelected
	if len(args) > 1 && !looksLikeDate(args[0]) {
		tgt, args = args[0], args[1:]
	}
	if len(args) > 2 {
		return Command{}, invalid("due takes a date and an optional time")
	}
	out := &DueArgs{Target: tgt}
	if !strings.EqualFold(args[0], "none") {
		out.Date = args[0]
	}
	if len(args) == 2 {
		out.Clock = args[1]
	}
	return Command{Type: TypeDue, Raw: raw, Due: out}, nil
}

func looksLikeDate(s string) bool {
	return strings.EqualFold(s, "none") || (len(s) == len(model.DateLayout) && strings.Count(s, "-") == 2)
}
