package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/benvon/levelup-ai/internal/database"
	"github.com/benvon/levelup-ai/internal/quota"
	"github.com/spf13/cobra"
)

// NewUsageCmd creates the usage command with show, reset, history and totals subcommands
func NewUsageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "usage",
		Short: "Inspect and manage daily request quotas",
	}
	cmd.AddCommand(newUsageShowCmd())
	cmd.AddCommand(newUsageResetCmd())
	cmd.AddCommand(newUsageHistoryCmd())
	cmd.AddCommand(newUsageTotalsCmd())
	return cmd
}

func newUsageShowCmd() *cobra.Command {
	var userID string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show today's usage for a user",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			usage, err := e.tracker.Usage(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("failed to read usage: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "User:      %s\n", userID)
			fmt.Fprintf(out, "Day:       %s\n", e.tracker.Today())
			fmt.Fprintf(out, "Usage:     %d\n", usage.Usage)
			fmt.Fprintf(out, "Limit:     %d\n", usage.Limit)
			fmt.Fprintf(out, "Remaining: %d\n", usage.Remaining)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newUsageResetCmd() *cobra.Command {
	var userID, day string
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset a user's counter for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()

			if day == "" {
				day = e.tracker.Today()
			}
			if err := e.tracker.Reset(cmd.Context(), userID, day); err != nil {
				return fmt.Errorf("failed to reset usage: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Usage for %s on %s reset.\n", userID, day)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().StringVar(&day, "day", "", "Day to reset, "+quota.DayLayout+" (default today)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newUsageHistoryCmd() *cobra.Command {
	var userID string
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent recorded requests for a user (postgres only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if e.stores.DB == nil {
				return fmt.Errorf("usage history requires STORE_BACKEND=postgres")
			}

			events, err := database.NewUsageEventRepository(e.stores.DB).ListByUser(cmd.Context(), userID, limit)
			if err != nil {
				return fmt.Errorf("failed to list usage events: %w", err)
			}
			if len(events) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No recorded requests.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TIME\tMODE\tINPUT\tCOUNT\tOK\tLATENCY\tERROR")
			for _, ev := range events {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%v\t%dms\t%s\n",
					ev.CreatedAt.Local().Format(time.DateTime), ev.Mode, ev.InputKind,
					ev.Count, ev.Success, ev.LatencyMS, ev.Error)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID (required)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum rows to show")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newUsageTotalsCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Show per-day request totals (postgres only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context())
			if err != nil {
				return err
			}
			defer e.Close()
			if e.stores.DB == nil {
				return fmt.Errorf("usage totals requires STORE_BACKEND=postgres")
			}

			totals, err := database.NewUsageEventRepository(e.stores.DB).DailyTotals(cmd.Context(), days)
			if err != nil {
				return fmt.Errorf("failed to aggregate usage: %w", err)
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "DAY\tREQUESTS\tFAILURES\tUSERS\tAVG LATENCY")
			for _, d := range totals {
				fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%dms\n", d.Day, d.Requests, d.Failures, d.Users, d.AvgLatency)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "Number of days to include")
	return cmd
}
