package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"github.com/tealeg/xlsx/v2"
	"go.uber.org/zap"

	"github.com/dashin-hq/inventory-cli/internal/model"
)

var (
	exportOut    string
	exportFormat string
	exportIDs    []string
)

var exportHeader = []string{
	"lead_id", "name", "company", "title", "persona", "status",
	"email", "phone", "linkedin", "country", "industry", "company_size",
	"notes", "has_email", "open_flags",
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export leads with enrichment and open flags",
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

		records, err := st.ExportLeads(ctx, tenant, exportIDs)
		if err != nil {
			return eris.Wrap(err, "export leads")
		}

		switch exportFormat {
		case "csv":
			err = writeExportCSV(exportOut, records)
		case "xlsx":
			err = writeExportXLSX(exportOut, records)
		default:
			return eris.Errorf("unsupported export format: %s", exportFormat)
		}
		if err != nil {
			return err
		}

		withEmail := 0
		for _, r := range records {
			if r.HasEmail {
				withEmail++
			}
		}
		zap.L().Info("export complete",
			zap.String("out", exportOut),
			zap.Int("leads", len(records)),
			zap.Int("with_email", withEmail),
			zap.Int("no_email", len(records)-withEmail),
		)
		return nil
	},
}

func exportRow(r model.ExportRecord) []string {
	return []string{
		r.LeadID, r.FullName, r.Company, r.Title, r.Persona, string(r.Status),
		r.Email, r.Phone, r.LinkedInURL, r.Country, r.Industry, r.CompanySize,
		r.Notes, fmt.Sprintf("%t", r.HasEmail), strings.Join(r.OpenFlags, ";"),
	}
}

func writeExportCSV(path string, records []model.ExportRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(exportHeader); err != nil {
		return eris.Wrap(err, "write header")
	}
	for _, r := range records {
		if err := w.Write(exportRow(r)); err != nil {
			return eris.Wrap(err, "write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "flush csv")
}

func writeExportXLSX(path string, records []model.ExportRecord) error {
	wb := xlsx.NewFile()
	sheet, err := wb.AddSheet("Leads")
	if err != nil {
		return eris.Wrap(err, "add sheet")
	}

	hr := sheet.AddRow()
	for _, h := range exportHeader {
		hr.AddCell().SetString(h)
	}
	for _, r := range records {
		row := sheet.AddRow()
		for _, v := range exportRow(r) {
			row.AddCell().SetString(v)
		}
	}
	return eris.Wrapf(wb.Save(path), "save %s", path)
}

func init() {
	exportCmd.Flags().StringVar(&exportOut, "out", "leads_export.csv", "output file path")
	exportCmd.Flags().StringVar(&exportFormat, "format", "csv", "output format (csv or xlsx)")
	exportCmd.Flags().StringSliceVar(&exportIDs, "ids", nil, "restrict export to these lead IDs")
	rootCmd.AddCommand(exportCmd)
}
