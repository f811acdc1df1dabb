package filter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// Query parameter prefixes: f.<Column>=value (repeatable) selects values,
// r.<Column>=lo:hi sets the numeric range.
const (
	CategoryPrefix = "f."
	RangePrefix    = "r."
)

// ParseQuery builds a Selection from URL query values. Values are kept byte
// for byte, since cells may carry surrounding whitespace. Empty values are
// dropped, so a lone "f.Title=" selects nothing for Title and a blank
// "r.Age=" sets no range. It reports false when the query holds no filter
// parameters at all.
func ParseQuery(q url.Values) (Selection, bool, error) {
	var sel Selection
	found := false
	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch {
		case strings.HasPrefix(k, CategoryPrefix):
			col := strings.TrimPrefix(k, CategoryPrefix)
			if col == "" {
				return Selection{}, false, fmt.Errorf("%w: empty column in %q", ErrInvalidSelection, k)
			}
			if sel.Categories == nil {
				sel.Categories = map[string][]string{}
			}
			vals := []string{}
			for _, v := range q[k] {
				if v != "" {
					vals = append(vals, v)
				}
			}
			sel.Categories[col] = vals
			found = true
		case strings.HasPrefix(k, RangePrefix):
			found = true
			if strings.TrimSpace(q.Get(k)) == "" {
				continue
			}
			if sel.Range != nil {
				return Selection{}, false, fmt.Errorf("%w: only one range is supported", ErrInvalidSelection)
			}
			r, err := parseRange(strings.TrimPrefix(k, RangePrefix), q.Get(k))
			if err != nil {
				return Selection{}, false, err
			}
			sel.Range = &r
		}
	}
	return sel, found, nil
}

// Encode is the inverse of ParseQuery.
func (s Selection) Encode() url.Values {
	q := url.Values{}
	for _, col := range s.Columns() {
		vals := s.Categories[col]
		if len(vals) == 0 {
			q[CategoryPrefix+col] = []string{""}
			continue
		}
		q[CategoryPrefix+col] = append([]string(nil), vals...)
	}
	if s.Range != nil {
		q.Set(RangePrefix+s.Range.Column, formatBound(s.Range.Low)+":"+formatBound(s.Range.High))
	}
	return q
}

// ParseSelect parses a command-line selection "Column=a,b,c". The value list
// is one CSV record, so a value holding a comma is written quoted:
// Location="Yerevan, Armenia". Space after a separator is ignored. "Column="
// is an empty selection set.
func ParseSelect(s string) (string, []string, error) {
	col, list, ok := strings.Cut(s, "=")
	col = strings.TrimSpace(col)
	if !ok || col == "" {
		return "", nil, fmt.Errorf("%w: expected Column=value[,value...], got %q", ErrInvalidSelection, s)
	}
	vals := []string{}
	if list == "" {
		return col, vals, nil
	}
	r := csv.NewReader(strings.NewReader(list))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1
	rec, err := r.Read()
	if err != nil && !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("%w: values for %s: %v", ErrInvalidSelection, col, err)
	}
	if _, err := r.Read(); !errors.Is(err, io.EOF) {
		return "", nil, fmt.Errorf("%w: values for %s span several lines", ErrInvalidSelection, col)
	}
	for _, v := range rec {
		if v != "" {
			vals = append(vals, v)
		}
	}
	return col, vals, nil
}

// ParseRange parses a command-line range "Column=lo:hi". Either bound may be
// left empty to leave that side open.
func ParseRange(s string) (Range, error) {
	col, bounds, ok := strings.Cut(s, "=")
	if !ok {
		return Range{}, fmt.Errorf("%w: expected Column=lo:hi, got %q", ErrInvalidSelection, s)
	}
	return parseRange(strings.TrimSpace(col), bounds)
}

// ParseSelection combines repeated --select and one optional --range flag.
func ParseSelection(selects []string, rng string) (Selection, error) {
	var sel Selection
	for _, s := range selects {
		col, vals, err := ParseSelect(s)
		if err != nil {
			return Selection{}, err
		}
		if sel.Categories == nil {
			sel.Categories = map[string][]string{}
		}
		sel.Categories[col] = append(sel.Categories[col], vals...)
	}
	if rng != "" {
		r, err := ParseRange(rng)
		if err != nil {
			return Selection{}, err
		}
		sel.Range = &r
	}
	return sel, nil
}

func parseRange(col, bounds string) (Range, error) {
	if col == "" {
		return Range{}, fmt.Errorf("%w: range needs a column", ErrInvalidSelection)
	}
	lo, hi, ok := strings.Cut(bounds, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: range %q for %s must be lo:hi", ErrInvalidSelection, bounds, col)
	}
	r := Range{Column: col, Low: math.Inf(-1), High: math.Inf(1)}
	var err error
	if lo = strings.TrimSpace(lo); lo != "" {
		if r.Low, err = parseBound(lo); err != nil {
			return Range{}, fmt.Errorf("%w: range low %q: %v", ErrInvalidSelection, lo, err)
		}
	}
	if hi = strings.TrimSpace(hi); hi != "" {
		if r.High, err = parseBound(hi); err != nil {
			return Range{}, fmt.Errorf("%w: range high %q: %v", ErrInvalidSelection, hi, err)
		}
	}
	return r, nil
}

func parseBound(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, errors.New("not a number")
	}
	return v, nil
}

func formatBound(v float64) string {
	if math.IsInf(v, 0) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
