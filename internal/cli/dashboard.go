package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/samvad-hq/bizdesk/internal/domain"
	"github.com/samvad-hq/bizdesk/internal/preferences"
)

const dateLayout = "2006-01-02"

func newDashboardCmd(e *env) *cobra.Command {
	metrics := &cobra.Command{
		Use:   "metrics",
		Short: "Headline dashboard metrics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := e.rt.Services.Dashboard.Metrics(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}

	var from, to string
	var userOnly bool
	sales := &cobra.Command{
		Use:   "sales",
		Short: "Sales time series",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var q domain.SalesSeriesQuery
			var err error
			if q.From, err = parseDateFlag("from", from); err != nil {
				return err
			}
			if q.To, err = parseDateFlag("to", to); err != nil {
				return err
			}
			if !q.From.IsZero() && !q.To.IsZero() && q.To.Before(q.From) {
				return fmt.Errorf("--to must not be before --from")
			}
			if cmd.Flags().Changed("user-only") {
				q.UserOnly = &userOnly
			}
			resp, err := e.rt.Services.Dashboard.SalesSeries(cmd.Context(), q)
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	sales.Flags().StringVar(&from, "from", "", "start date (YYYY-MM-DD)")
	sales.Flags().StringVar(&to, "to", "", "end date (YYYY-MM-DD)")
	sales.Flags().BoolVar(&userOnly, "user-only", false, "only the signed-in user's sales")

	var all bool
	accounts := &cobra.Command{
		Use:   "accounts",
		Short: "Account summaries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			fetch := e.rt.Services.Dashboard.Accounts
			if all {
				fetch = e.rt.Services.Dashboard.AllAccounts
			}
			resp, err := fetch(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
	accounts.Flags().BoolVar(&all, "all", false, "include every account")

	return newGroup("dashboard", "Dashboard metrics and series", metrics, sales, accounts)
}

func parseDateFlag(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s must be YYYY-MM-DD: %w", name, err)
	}
	return t, nil
}

func newCountriesCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "countries",
		Short: "List dialing codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := e.rt.Services.CountryCodes.List(cmd.Context())
			if err != nil {
				return err
			}
			return printResponse(cmd.OutOrStdout(), resp)
		},
	}
}

func newPrefsCmd(e *env) *cobra.Command {
	names := strings.Join(preferences.Names(), ", ")
	get := &cobra.Command{
		Use:   "get [NAME]",
		Short: "Show one preference or all of them",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				all, err := e.rt.Prefs.All()
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), all)
			}
			v, ok, err := e.rt.Prefs.Get(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("preference %s is not set", args[0])
			}
			return printJSON(cmd.OutOrStdout(), json.RawMessage(v))
		},
	}
	set := &cobra.Command{
		Use:   "set NAME VALUE",
		Short: "Store a preference (" + names + ")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := e.rt.Prefs.Set(args[0], []byte(args[1])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", strings.ToLower(args[0]))
			return nil
		},
	}
	return newGroup("prefs", "Local UI preferences", get, set)
}
