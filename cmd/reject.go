package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/inventory"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

var (
	rejectReason string
	rejectNote   string
	rejectBy     string
)

var rejectCmd = &cobra.Command{
	Use:   "reject <lead-id>",
	Short: "Pull a lead out of circulation with a reason",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		tenant, err := tenantID()
		if err != nil {
			return err
		}
		reason := model.RejectReason(rejectReason)
		if !reason.Valid() {
			return eris.Errorf("unknown reject reason: %s", rejectReason)
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := inventory.NewRepository(st)
		if err := repo.Reject(ctx, tenant, args[0], reason, rejectNote, rejectBy); err != nil {
			return eris.Wrap(err, "reject lead")
		}

		zap.L().Info("lead rejected",
			zap.String("lead_id", args[0]),
			zap.String("reason", rejectReason),
		)
		return nil
	},
}

func init() {
	rejectCmd.Flags().StringVar(&rejectReason, "reason", "", "rejection reason (required)")
	rejectCmd.Flags().StringVar(&rejectNote, "note", "", "free-form context")
	rejectCmd.Flags().StringVar(&rejectBy, "by", "", "who rejected the lead")
	_ = rejectCmd.MarkFlagRequired("reason")
	rootCmd.AddCommand(rejectCmd)
}
