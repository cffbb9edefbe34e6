package source

import (
	"io"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

// ParseXLSX reads the first worksheet of a workbook. The first row is the header.
func ParseXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.Wrap(err, "open workbook")
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrNoHeader
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, errors.Wrapf(err, "read sheet %q", sheets[0])
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	t := &Table{Header: NormalizeHeader(rows[0])}
	for i, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		t.Records = append(t.Records, Record{Line: i + 2, Cells: row})
	}
	return t, nil
}
