package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/procharity/pcadmin/internal/cli/client"
)

const (
	defaultPage  = 1
	defaultLimit = 20

	notSet     = "not set"
	dateLayout = "2 January 2006"
)

// rowsPerPage are the page sizes the API accepts
var rowsPerPage = []int{20, 50, 100}

// NewUsersCmd creates the users command
func NewUsersCmd() *cobra.Command {
	var page, limit int

	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"ls"},
		Short:   "List registered volunteers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUsers(page, limit, WithEnvironmentAlias(envAlias(cmd)), WithContext(cmd.Context()))
		},
	}

	cmd.Flags().IntVar(&page, "page", defaultPage, "Page number (starting at 1)")
	cmd.Flags().IntVar(&limit, "limit", defaultLimit, "Rows per page (20, 50 or 100)")

	return cmd
}

func validatePaging(page, limit int) error {
	if page < 1 {
		return fmt.Errorf("page must be 1 or greater, got %d", page)
	}
	for _, allowed := range rowsPerPage {
		if limit == allowed {
			return nil
		}
	}
	return fmt.Errorf("limit must be one of %v, got %d", rowsPerPage, limit)
}

func runUsers(page, limit int, opts ...Option) error {
	if err := validatePaging(page, limit); err != nil {
		return err
	}

	o, err := prepare(opts)
	if err != nil {
		return err
	}

	users, err := o.api.ListUsers(o.ctx, page, limit)
	if err != nil {
		return err
	}

	if len(users.Result) == 0 {
		fmt.Fprintln(o.out, "No users found.")
		return nil
	}

	w := tabwriter.NewWriter(o.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tE-MAIL\tMAILING\tUSERNAME\tREGISTERED")
	fmt.Fprintln(w, "────\t──────\t───────\t────────\t──────────")

	for _, user := range users.Result {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			fullName(user),
			orNotSet(user.Email),
			mailingStatus(user.HasMailing),
			orNotSet(user.Username),
			user.DateRegistration.Format(dateLayout),
		)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(o.out, "\nPage %d of %d (%d users)\n", users.CurrentPage, users.Pages, users.Total)
	return nil
}

func fullName(user client.User) string {
	if user.LastName == nil || *user.LastName == "" {
		return user.FirstName
	}
	return user.FirstName + " " + *user.LastName
}

func orNotSet(value *string) string {
	if value == nil || *value == "" {
		return notSet
	}
	return *value
}

func mailingStatus(enabled bool) string {
	if enabled {
		return "enabled"
	}
	return "disabled"
}
