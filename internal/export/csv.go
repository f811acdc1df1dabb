package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/dataset"
)

// ContentType is the media type of exported tables.
const ContentType = "text/csv"

// WriteCSV writes t as comma-separated text: a header row of column names,
// then one record per row. Missing cells are empty fields and numbers use
// their shortest exact form, so loading the output reproduces the values of t.
// Kinds are inferred again on load: a text column whose remaining cells all
// parse as numbers, such as "007", comes back numeric.
func WriteCSV(w io.Writer, t *dataset.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i := 0; i < t.Rows(); i++ {
		if err := cw.Write(t.Record(i)); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// CSV returns the encoded bytes of t.
func CSV(t *dataset.Table) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, t); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Filename returns the download name for an export: name when set, otherwise
// filtered_<dataset>.csv. Path separators and quotes are stripped.
func Filename(name, dataset string) string {
	if strings.TrimSpace(name) == "" {
		base := strings.TrimSuffix(filepath.Base(dataset), filepath.Ext(dataset))
		if base == "" || base == "." {
			base = "data"
		}
		name = "filtered_" + base + ".csv"
	}
	name = filepath.Base(strings.NewReplacer(`"`, "", "\\", "/").Replace(name))
	if !strings.HasSuffix(strings.ToLower(name), ".csv") {
		name += ".csv"
	}
	return name
}
