package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Read and change persisted settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Print one setting, or all of them",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSettingsGet,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Change a setting; recognized keys keep their type",
	Args:  cobra.ExactArgs(2),
	RunE:  runSettingsSet,
}

func init() {
	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
}

func runSettingsGet(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	if len(args) == 1 {
		v, err := a.Settings.Get(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), v.String())
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, k := range a.Settings.Keys() {
		v, err := a.Settings.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "%s\t%s\n", k, v.String())
	}
	return tw.Flush()
}

func runSettingsSet(cmd *cobra.Command, args []string) (err error) {
	a, err := openCLIApp(cmd)
	if err != nil {
		return err
	}
	defer func() { err = closeApp(a, err) }()

	v, err := a.Settings.Parse(args[0], args[1])
	if err != nil {
		return err
	}
	if err := a.Settings.Set(args[0], v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", args[0], v.String())
	return nil
}
