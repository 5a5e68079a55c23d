package commands

import "fmt"

type Result struct {
	Message string
}

type Handlers struct {
	Add      func(AddArgs) (Result, error)
	Search   func(SearchArgs) (Result, error)
	List     func(ListArgs) (Result, error)
	NewList  func(NewListArgs) (Result, error)
	Done     func(TargetArgs) (Result, error)
	Repeat   func(RepeatArgs) (Result, error)
	NoRepeat func(TargetArgs) (Result, error)
	Due      func(DueArgs) (Result, error)
}

func missing(name string) error {
	return &CommandError{Code: ErrCodeHandlerMissing, Message: name + " handler not configured"}
}

func Execute(cmd Command, handlers Handlers) (Result, error) {
	switch cmd.Type {
	case TypeAdd:
		if handlers.Add == nil {
			return Result{}, missing("add")
		}
		return handlers.Add(*cmd.Add)
	case TypeSearch:
		if handlers.Search == nil {
			return Result{}, missing("search")
		}
		return handlers.Search(*cmd.Search)
	case TypeList:
		if handlers.List == nil {
			return Result{}, missing("list")
		}
		return handlers.List(*cmd.List)
	case TypeNewList:
		if handlers.NewList == nil {
			return Result{}, missing("newlist")
		}
		return handlers.NewList(*cmd.NewList)
	case TypeDone:
		if handlers.Done == nil {
			return Result{}, missing("done")
		}
		return handlers.Done(*cmd.Done)
	case TypeRepeat:
		if handlers.Repeat == nil {
			return Result{}, missing("repeat")
		}
		return handlers.Repeat(*cmd.Repeat)
	case TypeNoRepeat:
		if handlers.NoRepeat == nil {
			return Result{}, missing("norepeat")
		}
		return handlers.NoRepeat(*cmd.NoRepeat)
	case TypeDue:
		if handlers.Due == nil {
			return Result{}, missing("due")
		}
		return handlers.Due(*cmd.Due)
	default:
		return Result{}, &CommandError{Code: ErrCodeUnknownCommand, Message: fmt.Sprintf("unknown command type: %s", cmd.Type)}
	}
}
