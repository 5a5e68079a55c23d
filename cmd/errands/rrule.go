package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/errands/internal/model"
)

var rruleCmd = &cobra.Command{
	Use:   "rrule",
	Short: "Encode, decode and preview recurrence rules",
}

var rruleEncodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Build an RRULE string from flags",
	Args:  cobra.NoArgs,
	RunE:  runRRuleEncode,
}

var rruleDecodeCmd = &cobra.Command{
	Use:   "decode [rule]",
	Short: "Decode an RRULE string",
	Args:  cobra.ExactArgs(1),
	RunE:  runRRuleDecode,
}

var rrulePreviewCmd = &cobra.Command{
	Use:   "preview [rule]",
	Short: "List upcoming occurrences of a rule",
	Args:  cobra.ExactArgs(1),
	RunE:  runRRulePreview,
}

var (
	ruleFreq     string
	ruleInterval int
	ruleByDay    string
	ruleByMonth  string
	ruleCount    int
	ruleUntil    string
	ruleStart    string
	ruleStrict   bool
	previewN     int
)

func init() {
	rruleCmd.AddCommand(rruleEncodeCmd, rruleDecodeCmd, rrulePreviewCmd)

	rruleEncodeCmd.Flags().StringVar(&ruleFreq, "freq", "daily", "Frequency: minutely, hourly, daily, weekly, monthly, yearly")
	rruleEncodeCmd.Flags().IntVar(&ruleInterval, "interval", 1, "Interval between periods")
	rruleEncodeCmd.Flags().StringVar(&ruleByDay, "byday", "", "Weekday codes, e.g. MO,WE")
	rruleEncodeCmd.Flags().StringVar(&ruleByMonth, "bymonth", "", "Month numbers, e.g. 1,6")
	rruleEncodeCmd.Flags().IntVar(&ruleCount, "count", 0, "Number of occurrences (0 repeats forever)")
	rruleEncodeCmd.Flags().StringVar(&ruleUntil, "until", "", "Last date, YYYY-MM-DD (takes priority over --count)")
	rruleEncodeCmd.Flags().StringVar(&ruleStart, "start", "", "Task start date; its time of day is attached to --until")

	rruleDecodeCmd.Flags().BoolVar(&ruleStrict, "strict", false, "Fail on malformed components instead of using defaults")

	rrulePreviewCmd.Flags().StringVar(&ruleStart, "start", "", "First occurrence, YYYY-MM-DD or YYYY-MM-DDTHH:MM:SSZ (default now)")
	rrulePreviewCmd.Flags().IntVar(&previewN, "n", 5, "Number of occurrences to list")
}

func runRRuleEncode(cmd *cobra.Command, args []string) error {
	spec, err := specFromFlags()
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), model.EncodeRecurrence(spec))
	return nil
}

func specFromFlags() (model.RecurrenceSpec, error) {
	freq, ok := model.ParseFrequency(ruleFreq)
	if !ok {
		return model.RecurrenceSpec{}, fmt.Errorf("%w: %q", model.ErrUnknownFrequency, ruleFreq)
	}
	if ruleInterval < 1 {
		return model.RecurrenceSpec{}, fmt.Errorf("%w: %d", model.ErrInvalidInterval, ruleInterval)
	}
	spec := model.RecurrenceSpec{Frequency: freq, Interval: ruleInterval}

	for _, code := range splitFlagList(ruleByDay) {
		day, ok := model.ParseWeekdayCode(code)
		if !ok {
			return model.RecurrenceSpec{}, fmt.Errorf("%w: %q", model.ErrInvalidWeekday, code)
		}
		spec.Weekdays = spec.Weekdays.With(day)
	}
	for _, raw := range splitFlagList(ruleByMonth) {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 12 {
			return model.RecurrenceSpec{}, fmt.Errorf("%w: %q", model.ErrInvalidMonth, raw)
		}
		spec.Months = spec.Months.With(time.Month(n))
	}

	switch {
	case ruleUntil != "":
		term, err := model.UntilFromStart(ruleUntil, ruleStart)
		if err != nil {
			return model.RecurrenceSpec{}, err
		}
		spec.Termination = term
	case ruleCount > 0:
		spec.Termination = model.AfterCount(ruleCount)
	}
	return spec, nil
}

func splitFlagList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func decodeArg(rule string) (model.RecurrenceSpec, error) {
	if !strings.HasPrefix(strings.ToUpper(rule), model.RulePrefix) {
		rule = model.RulePrefix + rule
	}
	if ruleStrict {
		return model.DecodeRecurrenceStrict(rule)
	}
	return model.DecodeRecurrence(rule), nil
}

func runRRuleDecode(cmd *cobra.Command, args []string) error {
	spec, err := decodeArg(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "frequency: %s\n", spec.Frequency)
	fmt.Fprintf(out, "interval:  %d\n", spec.Interval)
	if !spec.Weekdays.IsEmpty() {
		fmt.Fprintf(out, "byday:     %s\n", strings.Join(spec.Weekdays.Codes(), ","))
	}
	if !spec.Months.IsEmpty() {
		months := make([]string, 0, 12)
		for _, m := range spec.Months.Months() {
			months = append(months, strconv.Itoa(int(m)))
		}
		fmt.Fprintf(out, "bymonth:   %s\n", strings.Join(months, ","))
	}
	fmt.Fprintf(out, "summary:   %s\n", spec.Describe())
	fmt.Fprintf(out, "canonical: %s\n", model.EncodeRecurrence(spec))
	return nil
}

func runRRulePreview(cmd *cobra.Command, args []string) error {
	spec, err := decodeArg(args[0])
	if err != nil {
		return err
	}
	start := time.Now().UTC().Truncate(time.Minute)
	if ruleStart != "" {
		start, _, err = model.ParseDate(ruleStart)
		if err != nil {
			return err
		}
	}
	for _, at := range spec.Preview(start, previewN) {
		fmt.Fprintln(cmd.OutOrStdout(), at.Format(model.DateTimeLayout))
	}
	return nil
}
