package loader

import (
	"io"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/razeghi71/dqflow/table"
)

// ExcelFile reads one worksheet of an xlsx workbook. The first row is the
// header. An empty sheet name selects the first worksheet.
func ExcelFile(filename, sheet string) (*table.Table, error) {
	f, err := excelize.OpenFile(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %s", filename)
	}
	defer f.Close()

	t, err := readSheet(f, sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", filename)
	}
	return t, nil
}

// ReadExcel reads one worksheet of an xlsx workbook from r.
func ReadExcel(r io.Reader, sheet string) (*table.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "cannot read workbook")
	}
	defer f.Close()
	return readSheet(f, sheet)
}

func readSheet(f *excelize.File, sheet string) (*table.Table, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.New("workbook has no worksheets")
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "sheet %q", sheet)
	}
	if len(records) == 0 {
		return table.NewTable(nil), nil
	}

	header := trimAll(records[0])
	rows := make([][]table.Value, 0, len(records)-1)
	for _, record := range records[1:] {
		rows = append(rows, parseRecord(record, len(header)))
	}
	return build(header, rows)
}
