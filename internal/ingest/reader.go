package ingest

import (
	"context"
	"encoding/csv"
	"io"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/dashin-hq/inventory-cli/internal/inventory"
)

// ErrNoNameColumn means the upload has no recognizable name column and
// cannot be ingested.
var ErrNoNameColumn = eris.New("ingest: no name column detected in header")

// ReadFile parses an upload by extension and maps it to semantic rows.
func ReadFile(ctx context.Context, path string, r io.Reader) ([]inventory.Row, ColumnMap, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return readXLSX(path)
	default:
		return readCSV(ctx, r)
	}
}

func readCSV(ctx context.Context, r io.Reader) ([]inventory.Row, ColumnMap, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ColumnMap{}, eris.New("ingest: empty file")
	}
	if err != nil {
		return nil, ColumnMap{}, eris.Wrap(err, "ingest: read header")
	}

	cm := DetectColumns(header)
	if !cm.HasName() {
		return nil, cm, ErrNoNameColumn
	}

	var rows []inventory.Row
	for {
		if ctx.Err() != nil {
			return rows, cm, eris.Wrap(ctx.Err(), "ingest: cancelled")
		}
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, cm, eris.Wrap(err, "ingest: read row")
		}
		rows = append(rows, cm.mapRecord(record))
	}
	return rows, cm, nil
}

func readXLSX(path string) ([]inventory.Row, ColumnMap, error) {
	wb, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, ColumnMap{}, eris.Wrapf(err, "ingest: open %s", path)
	}
	if len(wb.Sheets) == 0 {
		return nil, ColumnMap{}, eris.New("ingest: workbook has no sheets")
	}
	sheet := wb.Sheets[0]
	if len(sheet.Rows) == 0 {
		return nil, ColumnMap{}, eris.New("ingest: empty sheet")
	}

	header := make([]string, len(sheet.Rows[0].Cells))
	for i, c := range sheet.Rows[0].Cells {
		header[i] = c.String()
	}
	cm := DetectColumns(header)
	if !cm.HasName() {
		return nil, cm, ErrNoNameColumn
	}

	var rows []inventory.Row
	for _, xr := range sheet.Rows[1:] {
		record := make([]string, len(xr.Cells))
		for i, c := range xr.Cells {
			record[i] = c.String()
		}
		rows = append(rows, cm.mapRecord(record))
	}
	return rows, cm, nil
}

// mapRecord lifts one raw record into a semantic row. Cells are
// cleaned; junk placeholders like "nan" come through empty.
func (cm ColumnMap) mapRecord(record []string) inventory.Row {
	return inventory.Row{
		FullName: cm.cell(record, cm.Name),
		Company:  cm.cell(record, cm.Company),
		Title:    cm.cell(record, cm.Title),
		Email:    cm.cell(record, cm.Email),
		Phone:    cm.cell(record, cm.Phone),
		LinkedIn: cm.cell(record, cm.LinkedIn),
		Country:  cm.cell(record, cm.Country),
		Industry: cm.cell(record, cm.Industry),
	}
}
