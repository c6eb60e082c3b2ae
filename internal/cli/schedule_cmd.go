package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/crawl/internal/cli/formatter"
	"github.com/alexanderramin/crawl/internal/domain"
	"github.com/alexanderramin/crawl/internal/schedule"
	"github.com/alexanderramin/crawl/internal/tree"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func newScheduleCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show or change when an item is on air",
	}

	cmd.AddCommand(
		newScheduleShowCmd(app),
		newScheduleSetCmd(app),
		newScheduleClearCmd(app),
	)

	return cmd
}

func resolveItem(app *App, ref string) (tree.Row, error) {
	row, err := resolveRef(app, ref)
	if err != nil {
		return tree.Row{}, err
	}
	if row.Node.Type != domain.TypeItem {
		return tree.Row{}, fmt.Errorf("%s is a %s; only items have a schedule", row.DisplayPath, row.Node.Type)
	}
	return row, nil
}

func newScheduleShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show an item's schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveItem(app, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.RenderSchedule(row.DisplayPath, row.Node, app.now()))
			return nil
		},
	}
}

func newScheduleSetCmd(app *App) *cobra.Command {
	var from, until string
	var ranges []string
	var days weekdaysFlag

	cmd := &cobra.Command{
		Use:   "set REF",
		Short: "Replace an item's schedule",
		Long: `Replace the whole schedule of an item. Every dimension left out is
unconstrained. Ranges are HH:MM-HH:MM; an end before the start runs past
midnight. Days take English names or their first three letters.`,
		Example: `  crawl schedule set "News / Sport / A / Widget" --range 06:00-10:00 --days mon,tue,wed
  crawl schedule set i1 --from 2026-03-01 --until "2026-03-31 18:00"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveItem(app, args[0])
			if err != nil {
				return err
			}
			s, err := buildSchedule(from, until, ranges, days)
			if err != nil {
				return err
			}
			outcome, err := app.Catalog.SetSchedule(cmd.Context(), row.Node.ID, s)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Scheduled", outcome)
			if outcome.Applied {
				fmt.Fprintln(cmd.OutOrStdout(), formatter.Dim(s.Summary()))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&from, "from", "", "Start date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	cmd.Flags().StringVar(&until, "until", "", "End date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")")
	cmd.Flags().StringArrayVar(&ranges, "range", nil, "Time-of-day range HH:MM-HH:MM (repeatable)")
	cmd.Flags().Var(&days, "days", "Weekdays, comma separated (repeatable)")
	return cmd
}

func newScheduleClearCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "clear REF",
		Short: "Make an item always on air",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			row, err := resolveItem(app, args[0])
			if err != nil {
				return err
			}
			outcome, err := app.Catalog.SetSchedule(cmd.Context(), row.Node.ID, nil)
			if err != nil {
				return err
			}
			printOutcome(cmd.OutOrStdout(), "Cleared schedule of", outcome)
			return nil
		},
	}
}

func buildSchedule(from, until string, ranges []string, days weekdaysFlag) (*schedule.Schedule, error) {
	s := &schedule.Schedule{}
	var err error
	if s.StartDate, err = parseDateFlag("--from", from); err != nil {
		return nil, err
	}
	if s.EndDate, err = parseDateFlag("--until", until); err != nil {
		return nil, err
	}
	for _, raw := range ranges {
		r, err := schedule.ParseRange(raw)
		if err != nil {
			return nil, err
		}
		s.Ranges = append(s.Ranges, r)
	}
	s.Days = schedule.NewWeekdaySet(days...)
	return s.Normalized(), nil
}

// weekdaysFlag collects weekdays from comma separated values.
type weekdaysFlag []time.Weekday

var _ pflag.Value = (*weekdaysFlag)(nil)

func (f *weekdaysFlag) Set(value string) error {
	for _, raw := range strings.Split(value, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		d, err := schedule.ParseWeekday(raw)
		if err != nil {
			return err
		}
		*f = append(*f, d)
	}
	return nil
}

func (f *weekdaysFlag) String() string {
	names := make([]string, len(*f))
	for i, d := range *f {
		names[i] = d.String()[:3]
	}
	return strings.Join(names, ",")
}

func (f *weekdaysFlag) Type() string { return "weekdays" }

var dateLayouts = []string{"2006-01-02 15:04", "2006-01-02T15:04", "2006-01-02"}

func parseDateFlag(flag, value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("%s: cannot read %q as a date (YYYY-MM-DD or \"YYYY-MM-DD HH:MM\")", flag, value)
}
