package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/flagging"
)

var flagsCmd = &cobra.Command{
	Use:   "flags",
	Short: "Detect, review and resolve lead quality flags",
}

var flagsDetectLead string

var flagsDetectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run the quality-flag chain over the inventory",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		detector := flagging.NewDetector(st).WithMinTokenLen(cfg.Flags.MinTokenLen)
		lists, err := detector.LoadLists(ctx, tenant)
		if err != nil {
			return eris.Wrap(err, "load mapping lists")
		}

		leads, err := st.ListLeadDetails(ctx, tenant)
		if err != nil {
			return eris.Wrap(err, "list leads")
		}

		flagged := 0
		for i := range leads {
			if flagsDetectLead != "" && leads[i].ID != flagsDetectLead {
				continue
			}
			saved := detector.Detect(ctx, &leads[i].Lead, leads[i].Email, leads[i].CompanyName, lists)
			flagged += len(saved)
		}

		zap.L().Info("flag detection complete",
			zap.Int("leads", len(leads)),
			zap.Int("new_flags", flagged),
		)
		return nil
	},
}

var (
	flagsResolveBy      string
	flagsResolveNote    string
	flagsResolveNoLearn bool
)

var flagsResolveCmd = &cobra.Command{
	Use:   "resolve <flag-id>",
	Short: "Resolve a flag, optionally teaching the whitelist",
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

		resolver := flagging.NewResolver(st)
		if err := resolver.Resolve(ctx, tenant, args[0], flagsResolveBy, flagsResolveNote, !flagsResolveNoLearn); err != nil {
			return eris.Wrap(err, "resolve flag")
		}

		zap.L().Info("flag resolved",
			zap.String("flag_id", args[0]),
			zap.Bool("learned", !flagsResolveNoLearn),
		)
		return nil
	},
}

var flagsSummaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Count unresolved flags by type",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		summary, err := st.FlagSummary(ctx, tenant)
		if err != nil {
			return eris.Wrap(err, "flag summary")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FLAG TYPE\tSEVERITY\tCOUNT")
		for ft, c := range summary.ByType {
			fmt.Fprintf(w, "%s\t%s\t%d\n", ft, c.Severity, c.Count)
		}
		fmt.Fprintf(w, "total\t\t%d\n", summary.Total)
		return w.Flush()
	},
}

var flagsListLead string

var flagsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List unresolved flags with lead context",
	RunE: func(cmd *cobra.Command, _ []string) error {
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

		entries, err := st.ListUnresolvedFlags(ctx, tenant, flagsListLead)
		if err != nil {
			return eris.Wrap(err, "list flags")
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "FLAG ID\tTYPE\tSEVERITY\tLEAD\tCOMPANY\tEMAIL\tDETAIL")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				e.ID, e.Type, e.Severity, e.LeadName, e.CompanyName, e.Email, e.Detail)
		}
		return w.Flush()
	},
}

func init() {
	flagsDetectCmd.Flags().StringVar(&flagsDetectLead, "lead", "", "restrict detection to one lead ID")
	flagsResolveCmd.Flags().StringVar(&flagsResolveBy, "by", "", "who resolved the flag (required)")
	flagsResolveCmd.Flags().StringVar(&flagsResolveNote, "note", "", "resolution note")
	flagsResolveCmd.Flags().BoolVar(&flagsResolveNoLearn, "no-learn", false, "skip whitelist learning")
	_ = flagsResolveCmd.MarkFlagRequired("by")
	flagsListCmd.Flags().StringVar(&flagsListLead, "lead", "", "restrict to one lead ID")

	flagsCmd.AddCommand(flagsDetectCmd, flagsResolveCmd, flagsSummaryCmd, flagsListCmd)
	rootCmd.AddCommand(flagsCmd)
}
