package commands

import (
	"fmt"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewDashboardCmd creates the dashboard command
func NewDashboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "dashboard",
		Aliases: []string{"dash", "analytics"},
		Short:   "Show user analytics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDashboard(WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}
}

func runDashboard(opts ...Option) error {
	o, err := prepare(opts)
	if err != nil {
		return err
	}

	analytics, err := o.api.Analytics(o.ctx)
	if err != nil {
		return err
	}

	fmt.Fprintf(o.out, "Total users:        %d\n", analytics.TotalUsers)
	fmt.Fprintf(o.out, "Users with mailing: %d\n", analytics.UsersWithMailing)

	days := make(map[string]struct{}, len(analytics.AddedUsersByDay))
	for day := range analytics.AddedUsersByDay {
		days[day] = struct{}{}
	}
	for day := range analytics.MailingUsersByDay {
		days[day] = struct{}{}
	}
	if len(days) == 0 {
		return nil
	}

	sorted := make([]string, 0, len(days))
	for day := range days {
		sorted = append(sorted, day)
	}
	sort.Strings(sorted)

	fmt.Fprintln(o.out)
	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "DATE\tADDED\tMAILING ENABLED")
	fmt.Fprintln(w, "────\t─────\t───────────────")
	for _, day := range sorted {
		fmt.Fprintf(w, "%s\t%d\t%d\n", day, analytics.AddedUsersByDay[day], analytics.MailingUsersByDay[day])
	}
	return w.Flush()
}
