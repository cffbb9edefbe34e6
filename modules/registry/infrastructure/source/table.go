// Package source reads registry source files (CSV or XLSX) into header + records
// and maps header aliases onto the canonical field set of an entity kind.
package source

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	primaryDelimiter   = ','
	secondaryDelimiter = ';'
	byteOrderMark      = "\ufeff"
)

// ErrNoHeader is returned for a source without a single record.
var ErrNoHeader = errors.New("missing header row")

// Record is one data row with its 1-based line number in the source.
type Record struct {
	Line  int
	Cells []string
}

// Table is a parsed source: normalized header cells plus raw data records.
type Table struct {
	Path      string
	Header    []string
	Records   []Record
	Delimiter rune
}

// Open reads path as CSV, or as a workbook when it has an .xlsx extension.
func Open(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	var t *Table
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		t, err = ParseXLSX(f)
	} else {
		t, err = ParseCSV(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	t.Path = path
	return t, nil
}

// ParseCSV parses delimited text. The comma is tried first; when that yields a
// single header cell containing a semicolon the whole input is re-read with ';'.
func ParseCSV(r io.Reader) (*Table, error) {
	raw, err := io.ReadAll(transform.NewReader(r, unicode.BOMOverride(transform.Nop)))
	if err != nil {
		return nil, errors.Wrap(err, "read source")
	}

	t, err := parseDelimited(raw, primaryDelimiter)
	if err != nil {
		return nil, err
	}
	if len(t.Header) == 1 && strings.ContainsRune(t.Header[0], secondaryDelimiter) {
		return parseDelimited(raw, secondaryDelimiter)
	}
	return t, nil
}

func parseDelimited(raw []byte, delimiter rune) (*Table, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.Comma = delimiter
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		if err == io.EOF {
			return nil, ErrNoHeader
		}
		return nil, errors.Wrap(err, "read header")
	}

	t := &Table{
		Header:    NormalizeHeader(header),
		Delimiter: delimiter,
	}
	for {
		rec, err := r.Read()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.Wrap(err, "read record")
		}
		line, _ := r.FieldPos(0)
		if isBlank(rec) {
			continue
		}
		t.Records = append(t.Records, Record{Line: line, Cells: rec})
	}
	return t, nil
}

// NormalizeHeader strips a byte-order mark from the first cell only, then trims,
// NFC-normalizes and lowercases every cell.
func NormalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		if i == 0 {
			c = strings.TrimPrefix(c, byteOrderMark)
		}
		out[i] = strings.ToLower(norm.NFC.String(strings.TrimSpace(c)))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
