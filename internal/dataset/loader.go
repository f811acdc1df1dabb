package dataset

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// LoadOptions controls how a file is read into a Table.
type LoadOptions struct {
	// Name overrides the table name; defaults to the file's base name.
	Name string
	// Delimiter for delimited text. If 0, picked from the extension ('\t' for .tsv, ',' otherwise).
	Delimiter rune
	// Sheet selects an XLSX worksheet by name; empty means the first sheet.
	Sheet string
	// Numeric parsing locale. Zero values mean '.' decimals and no thousands separator.
	DecimalSeparator   rune
	ThousandsSeparator rune
}

// ErrUnsupported indicates a file format that has no loader.
var ErrUnsupported = errors.New("unsupported dataset format")

// LoadError reports a dataset that could not be loaded. It is fatal for the
// session: no partial table is produced.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader reads a file into raw records, header first.
type Loader interface {
	CanLoad(path string) bool
	Records(path string, opt LoadOptions) ([][]string, error)
}

var registry []Loader

// Register adds a loader implementation to the registry.
func Register(l Loader) {
	registry = append(registry, l)
}

func init() {
	Register(xlsxLoader{})
	Register(csvLoader{})
}

// naValues are normalized to missing for every format.
var naValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "<nil>"}

// Load reads the file at path into a Table. Any failure is a *LoadError.
func Load(path string, opt LoadOptions) (*Table, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	var l Loader = csvLoader{}
	for _, cand := range registry {
		if cand.CanLoad(path) {
			l = cand
			break
		}
	}
	if strings.EqualFold(filepath.Ext(path), ".xls") {
		return nil, &LoadError{Path: path, Err: ErrUnsupported}
	}
	recs, err := l.Records(path, opt)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	name := opt.Name
	if name == "" {
		name = filepath.Base(path)
	}
	t, err := FromRecords(name, recs, opt)
	if err != nil {
		return nil, &LoadError{Path: path, Err: err}
	}
	return t, nil
}

// FromRecords builds a Table from raw records whose first entry is the header.
// Short rows are padded with missing cells; long rows are an error.
func FromRecords(name string, records [][]string, opt LoadOptions) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, errors.New("missing header row")
	}
	header := uniqueHeader(records[0])
	ncol := len(header)
	body := make([][]string, 0, len(records)-1)
	for i, rec := range records[1:] {
		if len(rec) > ncol {
			return nil, fmt.Errorf("row %d: %d fields, header has %d", i+2, len(rec), ncol)
		}
		if len(rec) < ncol {
			tmp := make([]string, ncol)
			copy(tmp, rec)
			rec = tmp
		}
		body = append(body, rec)
	}

	if len(body) == 0 {
		cols := make([]*Column, ncol)
		for j, h := range header {
			cols[j] = &Column{Name: h, Kind: KindText, Texts: []string{}, Null: []bool{}}
		}
		return NewTable(name, cols)
	}

	df := dataframe.LoadRecords(
		append([][]string{header}, body...),
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(naValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("build frame: %w", df.Err)
	}
	nrow, names := df.Nrow(), df.Names()
	cols := make([]*Column, len(names))
	for j, n := range names {
		raw := make([]string, nrow)
		null := make([]bool, nrow)
		for i := 0; i < nrow; i++ {
			e := df.Elem(i, j)
			if e.IsNA() {
				null[i] = true
				continue
			}
			s := e.String()
			if isNA(strings.TrimSpace(s)) {
				null[i] = true
				continue
			}
			raw[i] = s
		}
		cols[j] = inferColumn(n, raw, null, opt)
	}
	return NewTable(name, cols)
}

func isNA(s string) bool {
	for _, v := range naValues {
		if s == v {
			return true
		}
	}
	return false
}

// uniqueHeader trims names, labels blank ones and suffixes duplicates.
func uniqueHeader(h []string) []string {
	out := make([]string, len(h))
	seen := map[string]int{}
	for i, name := range h {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if n, ok := seen[name]; ok {
			seen[name] = n + 1
			name = fmt.Sprintf("%s.%d", name, n+1)
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}
