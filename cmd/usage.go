package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/usage"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Record and check per-client lead usage",
}

var (
	usageClient   string
	usageCampaign string
)

var usageRecordCmd = &cobra.Command{
	Use:   "record <lead-id>",
	Short: "Book a lead to a client for a campaign",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tenant, err := tenantID()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		reused, err := usage.New(st).Record(ctx, tenant, args[0], usageClient, usageCampaign)
		if err != nil {
			return eris.Wrap(err, "record usage")
		}

		zap.L().Info("usage recorded",
			zap.String("lead_id", args[0]),
			zap.String("client", usageClient),
			zap.String("campaign", usageCampaign),
			zap.Bool("already_recorded", reused),
		)
		return nil
	},
}

var usageCheckCmd = &cobra.Command{
	Use:   "check <lead-id>...",
	Short: "Check a candidate batch for client conflicts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tenant, err := tenantID()
		if err != nil {
			return err
		}
		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		report, err := usage.New(st).Conflicts(ctx, tenant, usageClient, args)
		if err != nil {
			return eris.Wrap(err, "check conflicts")
		}

		fmt.Printf("total %d, safe %d, conflicts %d\n", report.Total, report.SafeCount, report.ConflictCount)
		if report.ConflictCount > 0 {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "LEAD ID\tNAME")
			for _, id := range report.ConflictingLeadIDs {
				fmt.Fprintf(w, "%s\t%s\n", id, report.ConflictingNames[id])
			}
			return w.Flush()
		}
		return nil
	},
}

func init() {
	usageCmd.PersistentFlags().StringVar(&usageClient, "client", "", "client ID (required)")
	usageRecordCmd.Flags().StringVar(&usageCampaign, "campaign", "", "campaign ID")
	_ = usageCmd.MarkPersistentFlagRequired("client")

	usageCmd.AddCommand(usageRecordCmd, usageCheckCmd)
	rootCmd.AddCommand(usageCmd)
}
