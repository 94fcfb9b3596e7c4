package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"taskboard/recurrence"

	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var errNoRule = errors.New("a recurrence rule is required, pass --frequency or --file")

// ruleFlags are the flags shared by every command that takes a rule.
type ruleFlags struct {
	file         string
	frequency    string
	interval     int
	days         string
	unit         string
	monthlyDay   int
	endCondition string
	count        int
	until        string
}

func (f *ruleFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.file, "file", "", "YAML file holding the recurrence rule")
	fs.StringVar(&f.frequency, "frequency", "", "daily, weekly, monthly or custom")
	fs.IntVar(&f.interval, "interval", 1, "step between occurrences")
	fs.StringVar(&f.days, "days", "", "comma separated weekdays for weekly rules, e.g. mon,thu")
	fs.StringVar(&f.unit, "unit", "", "days, weeks or months for custom rules")
	fs.IntVar(&f.monthlyDay, "monthly-day", 0, "day of month for monthly rules")
	fs.StringVar(&f.endCondition, "end-condition", "", "never, after or onDate")
	fs.IntVar(&f.count, "count", 0, "number of occurrences in the series")
	fs.StringVar(&f.until, "until", "", "last date of the series")
}

// rule returns nil when no rule was given.
func (f *ruleFlags) rule(cmd *cobra.Command) (*recurrence.Rule, error) {
	var m map[string]any
	switch {
	case f.file != "":
		fromFile, err := readRuleFile(f.file)
		if err != nil {
			return nil, err
		}
		m = fromFile
	case f.frequency != "":
		m = map[string]any{"enabled": true, "frequency": f.frequency}
	default:
		return nil, nil
	}

	flags := cmd.Flags()
	if flags.Changed("frequency") {
		m["frequency"] = f.frequency
	}
	if flags.Changed("interval") {
		m["interval"] = f.interval
	}
	if flags.Changed("days") {
		m["weekly_days"] = f.days
	}
	if flags.Changed("unit") {
		m["custom_unit"] = f.unit
	}
	if flags.Changed("monthly-day") {
		m["monthly_day"] = f.monthlyDay
	}
	if flags.Changed("count") {
		m["end_condition"] = string(recurrence.EndAfter)
		m["end_after_occurrences"] = f.count
	}
	if flags.Changed("until") {
		if recurrence.ParseDate(f.until).IsAbsent() {
			return nil, fmt.Errorf("invalid --until date %q", f.until)
		}
		m["end_condition"] = string(recurrence.EndOnDate)
		m["end_date"] = f.until
	}
	if flags.Changed("end-condition") {
		m["end_condition"] = f.endCondition
	}

	rule := recurrence.FromMap(m)
	return &rule, nil
}

// readRuleFile accepts either a bare rule or a document with a top level
// recurrence key. A rule without an enabled key is taken as enabled.
func readRuleFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rule file: %w", err)
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse rule file: %w", err)
	}
	if nested, ok := doc["recurrence"].(map[string]any); ok {
		doc = nested
	}
	if doc == nil {
		return nil, errors.New("rule file is empty")
	}
	if _, ok := recurrence.Lookup(doc, "enabled"); !ok {
		doc["enabled"] = true
	}
	return doc, nil
}

func parseDateFlag(name, value string) (mo.Option[time.Time], error) {
	if value == "" {
		return mo.None[time.Time](), nil
	}
	t := recurrence.ParseInstant(value)
	if t.IsAbsent() {
		return t, fmt.Errorf("invalid --%s value %q", name, value)
	}
	return t, nil
}

func formatInstant(t mo.Option[time.Time]) string {
	v, ok := t.Get()
	if !ok {
		return "-"
	}
	if v.Equal(recurrence.DateOf(v)) {
		return v.Format(recurrence.DateLayout)
	}
	return v.Format(time.RFC3339)
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "recurctl",
		Short:         "Inspect task recurrence rules offline",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newPreviewCmd(), newDueCmd())
	return root
}

func newPreviewCmd() *cobra.Command {
	var (
		rf         ruleFlags
		start, end string
		index      int
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "preview",
		Short: "List the occurrences that follow a task",
		Example: "  recurctl preview --start 2025-10-20 --frequency weekly --days mon,thu --count 5\n" +
			"  recurctl preview --start 2025-10-20T09:00:00Z --file rule.yaml --limit 10",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(cmd)
			if err != nil {
				return err
			}
			if rule == nil {
				return errNoRule
			}
			if !rule.Enabled {
				return errors.New("rule is disabled")
			}
			if limit <= 0 {
				return errors.New("--limit must be positive")
			}
			startAt, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			if startAt.IsAbsent() {
				return errors.New("--start is required")
			}
			endAt, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}

			occurrences := recurrence.Preview(startAt, endAt, *rule, index, limit)
			printPreview(cmd.OutOrStdout(), occurrences)
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "start of the current occurrence")
	cmd.Flags().StringVar(&end, "end", "", "end of the current occurrence")
	cmd.Flags().IntVar(&index, "index", 1, "occurrence number of the current occurrence")
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum number of occurrences to list")
	return cmd
}

func printPreview(w io.Writer, occurrences []recurrence.NextOccurrence) {
	if len(occurrences) == 0 {
		fmt.Fprintln(w, "no further occurrences")
		return
	}
	for _, occ := range occurrences {
		line := fmt.Sprintf("#%d %s", occ.Index, formatInstant(occ.Start))
		if occ.End.IsPresent() {
			line += " .. " + formatInstant(occ.End)
		}
		fmt.Fprintln(w, line)
	}
}

func newDueCmd() *cobra.Command {
	var (
		rf              ruleFlags
		start, end, ref string
		maxSteps        int
	)

	cmd := &cobra.Command{
		Use:   "due",
		Short: "Resolve the effective due date of a task",
		Example: "  recurctl due --start 2025-10-01 --frequency daily --at 2025-10-24\n" +
			"  recurctl due --end 2025-11-30",
		RunE: func(cmd *cobra.Command, args []string) error {
			rule, err := rf.rule(cmd)
			if err != nil {
				return err
			}
			startAt, err := parseDateFlag("start", start)
			if err != nil {
				return err
			}
			endAt, err := parseDateFlag("end", end)
			if err != nil {
				return err
			}
			at := time.Now()
			if ref != "" {
				parsed, err := parseDateFlag("at", ref)
				if err != nil {
					return err
				}
				at = parsed.MustGet()
			}

			resolver := recurrence.NewResolver(recurrence.WithMaxSteps(maxSteps))
			result, err := resolver.Resolve(&recurrence.Schedule{
				StartDate: startAt,
				EndDate:   endAt,
				Rule:      rule,
			}, at)
			if err != nil {
				return err
			}
			printResult(cmd.OutOrStdout(), result)
			return nil
		},
	}

	rf.register(cmd)
	cmd.Flags().StringVar(&start, "start", "", "task start date")
	cmd.Flags().StringVar(&end, "end", "", "task end date")
	cmd.Flags().StringVar(&ref, "at", "", "reference date, defaults to now")
	cmd.Flags().IntVar(&maxSteps, "max-steps", recurrence.DefaultMaxSteps, "step cap for the forward walk")
	return cmd
}

func printResult(w io.Writer, result recurrence.Result) {
	var b strings.Builder
	fmt.Fprintf(&b, "due:       %s\n", formatInstant(result.DueDate))
	fmt.Fprintf(&b, "recurring: %t\n", result.IsRecurring)
	fmt.Fprintf(&b, "outcome:   %s\n", result.Outcome)
	fmt.Fprintf(&b, "steps:     %d\n", result.Steps)
	io.WriteString(w, b.String())
}
