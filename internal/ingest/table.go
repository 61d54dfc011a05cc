// Package ingest reads storefront exports (CSV or XLSX) into raw listings,
// parsing spec columns into canonical text.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Format is a tabular file format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat returns declared when set, otherwise infers the format
// from the file extension.
func DetectFormat(path, declared string) (Format, error) {
	if declared != "" {
		switch f := Format(strings.ToLower(declared)); f {
		case FormatCSV, FormatXLSX:
			return f, nil
		}
		return "", eris.Errorf("ingest: unsupported format %q", declared)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX, nil
	case ".csv", ".txt", "":
		return FormatCSV, nil
	}
	return "", eris.Errorf("ingest: cannot infer format of %s", path)
}

// Table is a header row plus data rows. Rows may be ragged.
type Table struct {
	Header []string
	Rows   [][]string
}

// Cell returns row[i] trimmed, or "" when the row is too short.
func (t *Table) Cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadTable loads path in the given format.
func ReadTable(ctx context.Context, path string, format Format) (*Table, error) {
	switch format {
	case FormatXLSX:
		return ReadXLSX(path, "")
	case FormatCSV:
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: open %s", path)
		}
		defer f.Close() //nolint:errcheck
		return ReadCSV(ctx, f)
	}
	return nil, eris.Errorf("ingest: unsupported format %q", format)
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ReadCSV parses a CSV stream. A UTF-8 byte order mark is dropped and the
// delimiter (comma or semicolon) is sniffed from the header line.
func ReadCSV(ctx context.Context, r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	if line, _ := br.Peek(4096); len(line) > 0 {
		reader.Comma = sniffDelimiter(line)
	}

	header, err := reader.Read()
	if err == io.EOF {
		return nil, eris.New("ingest: csv is empty")
	}
	if err != nil {
		return nil, eris.Wrap(err, "ingest: read csv header")
	}

	t := &Table{Header: header}
	for {
		if ctx.Err() != nil {
			return nil, eris.Wrap(ctx.Err(), "ingest: csv read cancelled")
		}
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "ingest: read csv row %d", len(t.Rows)+2)
		}
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return t, nil
}

func sniffDelimiter(sample []byte) rune {
	line := sample
	if i := bytes.IndexByte(sample, '\n'); i >= 0 {
		line = sample[:i]
	}
	if bytes.Count(line, []byte{';'}) > bytes.Count(line, []byte{','}) {
		return ';'
	}
	return ','
}

func blank(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ReadXLSX reads one sheet of an XLSX workbook, the first when sheet is
// empty. The first row is the header.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open xlsx %s", path)
	}

	var sh *xlsx.Sheet
	if sheet != "" {
		s, ok := f.Sheet[sheet]
		if !ok {
			return nil, eris.Errorf("ingest: sheet %q not found in %s", sheet, path)
		}
		sh = s
	} else {
		if len(f.Sheets) == 0 {
			return nil, eris.Errorf("ingest: %s has no sheets", path)
		}
		sh = f.Sheets[0]
	}
	if len(sh.Rows) == 0 {
		return nil, eris.Errorf("ingest: sheet %q is empty", sh.Name)
	}

	t := &Table{Header: rowCells(sh.Rows[0])}
	for _, row := range sh.Rows[1:] {
		cells := rowCells(row)
		if blank(cells) {
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t, nil
}

func rowCells(row *xlsx.Row) []string {
	if row == nil {
		return nil
	}
	cells := make([]string, len(row.Cells))
	for j, cell := range row.Cells {
		cells[j] = cell.String()
	}
	return cells
}
