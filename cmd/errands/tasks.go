package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/errands/internal/app"
	"github.com/sandeepkv93/errands/internal/model"
	"github.com/sandeepkv93/errands/internal/store"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage tasks without the TUI",
}

var tasksListCmd = &cobra.Command{
	Use:   "list",
	Short: "List tasks in display order",
	Args:  cobra.NoArgs,
	RunE:  runTasksList,
}

var tasksAddCmd = &cobra.Command{
	Use:   "add [text]",
	Short: "Add a task to a list",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runTasksAdd,
}

var tasksDoneCmd = &cobra.Command{
	Use:   "done [task-id]",
	Short: "Mark a task completed (id prefixes are accepted)",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksDone,
}

var tasksListsCmd = &cobra.Command{
	Use:   "lists",
	Short: "Show task lists with completion counts",
	Args:  cobra.NoArgs,
	RunE:  runTasksLists,
}

var (
	taskListName string
	taskSearch   string
	addListName  string
)

// shortIDLen is how much of a task id the table shows.
const shortIDLen = 8

func init() {
	tasksCmd.AddCommand(tasksListCmd, tasksAddCmd, tasksDoneCmd, tasksListsCmd)

	tasksListCmd.Flags().StringVar(&taskListName, "list", "", "Only show this list (default all lists)")
	tasksListCmd.Flags().StringVar(&taskSearch, "search", "", "Case-sensitive text to look for in text, notes and tags")

	tasksAddCmd.Flags().StringVar(&addListName, "list", "Tasks", "List to add to; created when missing")
}

func runTasksList(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	listID := model.AllListsID
	if taskListName != "" {
		list, ok := a.Tasks.ListByName(taskListName)
		if !ok {
			return fmt.Errorf("%w: %q", store.ErrListNotFound, taskListName)
		}
		listID = list.ID
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDONE\tLIST\tTASK\tDUE\tREPEAT")
	for _, t := range a.Tasks.Visible(listID, taskSearch) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), doneMark(t), listName(a, t.ListID), t.Text, t.DueDate, repeatSummary(t))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if subtitle := a.Tasks.Stats(listID).Subtitle(); subtitle != "" {
		fmt.Fprintln(cmd.OutOrStdout(), subtitle)
	}
	return nil
}

func runTasksAdd(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	list, ok := a.Tasks.ListByName(addListName)
	if !ok {
		if list, err = a.Tasks.AddList(addListName); err != nil {
			return err
		}
	}
	task, err := a.Tasks.AddTask(list.ID, "", strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "added %s to %s\n", task.ID, list.Name)
	return nil
}

func runTasksDone(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	task, err := a.Tasks.Resolve(args[0])
	if err != nil {
		return err
	}
	if task.Completed {
		fmt.Fprintf(cmd.OutOrStdout(), "already completed: %s\n", task.Text)
		return nil
	}
	if err := a.Tasks.SetCompleted(task.ID, true); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "completed: %s\n", task.Text)
	return nil
}

func runTasksLists(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	lists := a.Tasks.Lists()
	if len(lists) == 0 {
		return errors.New("no lists yet; add a task first")
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LIST\tCOMPLETED\tTOTAL")
	for _, l := range lists {
		c := a.Tasks.Stats(l.ID)
		fmt.Fprintf(tw, "%s\t%d\t%d\n", l.Name, c.Completed, c.Total)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > shortIDLen {
		return id[:shortIDLen]
	}
	return id
}

func doneMark(t model.Task) string {
	switch {
	case t.Trashed:
		return "trash"
	case t.Completed:
		return "x"
	default:
		return ""
	}
}

func listName(a *app.App, id string) string {
	if l, ok := a.Tasks.List(id); ok {
		return l.Name
	}
	return "?"
}

func repeatSummary(t model.Task) string {
	spec, ok := t.Recurrence()
	if !ok {
		return ""
	}
	return spec.Describe()
}
