package export

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rotisserie/eris"
)

// ReadOptions configures ReadNames.
type ReadOptions struct {
	SheetName string // XLSX only; if set, overrides the first sheet
	Column    int    // zero-based column holding the plant name
	SkipRows  int    // header rows to skip
}

// ReadNames returns the non-empty plant names in one column of a .csv or
// .xlsx file.
func ReadNames(path string, opts ReadOptions) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		f, err := os.Open(path)
		if err != nil {
			return nil, eris.Wrap(err, "export: open csv")
		}
		defer f.Close() //nolint:errcheck
		return readCSVNames(f, opts)
	default:
		return readXLSXNames(path, opts)
	}
}

func readCSVNames(r io.Reader, opts ReadOptions) ([]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var names []string
	for i := 0; ; i++ {
		record, err := reader.Read()
		if err == io.EOF {
			return names, nil
		}
		if err != nil {
			return nil, eris.Wrapf(err, "export: read csv row %d", i+1)
		}
		if i < opts.SkipRows || opts.Column >= len(record) {
			continue
		}
		if name := strings.TrimSpace(record[opts.Column]); name != "" {
			names = append(names, name)
		}
	}
}
