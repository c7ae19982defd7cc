package exporter

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/razeghi71/dqflow/table"
)

const defaultSheet = "Sheet1"

// ExcelFile writes the table to a new xlsx workbook with a header row. An
// empty sheet name keeps the default "Sheet1".
func ExcelFile(filename, sheet string, t *table.Table) error {
	f, err := workbook(sheet, t)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.SaveAs(filename); err != nil {
		return errors.Wrapf(err, "cannot save %s", filename)
	}
	return nil
}

// WriteExcel writes the table as an xlsx workbook to w.
func WriteExcel(w io.Writer, sheet string, t *table.Table) error {
	f, err := workbook(sheet, t)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.WriteTo(w)
	return err
}

func workbook(sheet string, t *table.Table) (*excelize.File, error) {
	f := excelize.NewFile()
	if sheet == "" {
		sheet = defaultSheet
	} else if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			f.Close()
			return nil, errors.Wrapf(err, "sheet %q", sheet)
		}
	}

	header := make([]any, t.Schema.Len())
	for i, name := range t.Columns() {
		header[i] = name
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		f.Close()
		return nil, err
	}

	for r, row := range t.Rows {
		cells := make([]any, len(row.Values))
		for i, v := range row.Values {
			cells[i] = cellValue(v)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			f.Close()
			return nil, err
		}
	}
	return f, nil
}

func cellValue(v table.Value) any {
	switch v.Type {
	case table.TypeNull:
		return nil
	case table.TypeList:
		return v.AsString()
	default:
		return v.Interface()
	}
}
