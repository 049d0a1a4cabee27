package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/flagging"
	"github.com/dashin-hq/inventory-cli/internal/ingest"
	"github.com/dashin-hq/inventory-cli/internal/inventory"
	"github.com/dashin-hq/inventory-cli/internal/model"
)

var (
	ingestFile     string
	ingestSource   string
	ingestEvent    string
	ingestEventURL string
	ingestCategory string
	ingestBy       string
	ingestNoFlags  bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Import leads from a CSV or XLSX file",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		tenant, err := tenantID()
		if err != nil {
			return err
		}
		source := model.SourceType(ingestSource)
		if !source.Valid() {
			return eris.Errorf("unknown source type: %s", ingestSource)
		}

		f, err := os.Open(ingestFile)
		if err != nil {
			return eris.Wrapf(err, "open %s", ingestFile)
		}
		defer f.Close()

		rows, _, err := ingest.ReadFile(ctx, ingestFile, f)
		if err != nil {
			return eris.Wrap(err, "read upload")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		repo := inventory.NewRepository(st)
		detector := flagging.NewDetector(st).WithMinTokenLen(cfg.Flags.MinTokenLen)
		importer := inventory.NewImporter(repo, detector)

		res, err := importer.Import(ctx, tenant, rows, inventory.ImportOptions{
			Source:      source,
			EventName:   ingestEvent,
			EventURL:    ingestEventURL,
			Category:    ingestCategory,
			EnrichedBy:  ingestBy,
			DetectFlags: !ingestNoFlags,
		})
		if err != nil {
			return eris.Wrap(err, "import")
		}

		zap.L().Info("ingest complete",
			zap.String("file", ingestFile),
			zap.Int("new", res.New),
			zap.Int("merged", res.Merged),
			zap.Int("skipped", res.Skipped),
			zap.Int("errored", res.Errored),
			zap.Int("with_email", res.WithEmail),
			zap.Int("no_email", res.NoEmail),
			zap.Int("flagged", res.Flagged),
			zap.Bool("cancelled", res.Cancelled),
		)
		for _, e := range res.Errors {
			zap.L().Warn("row error", zap.String("detail", e))
		}
		return nil
	},
}

func init() {
	ingestCmd.Flags().StringVar(&ingestFile, "file", "", "path to CSV or XLSX file (required)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", string(model.SourceCSVUpload), "source type (event, directory, csv_upload, manual)")
	ingestCmd.Flags().StringVar(&ingestEvent, "event", "", "event name for appearance provenance")
	ingestCmd.Flags().StringVar(&ingestEventURL, "event-url", "", "event URL for appearance provenance")
	ingestCmd.Flags().StringVar(&ingestCategory, "category", "", "event category")
	ingestCmd.Flags().StringVar(&ingestBy, "by", "", "attribution for enrichment data in this file")
	ingestCmd.Flags().BoolVar(&ingestNoFlags, "no-flags", false, "skip quality-flag detection")
	_ = ingestCmd.MarkFlagRequired("file")
	rootCmd.AddCommand(ingestCmd)
}
