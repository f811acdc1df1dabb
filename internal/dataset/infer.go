package dataset

import (
	"math"
	"strconv"
	"strings"
)

// inferColumn types a column as numeric when it has at least one value and
// every non-missing value parses as a number; otherwise it stays text.
func inferColumn(name string, raw []string, null []bool, opt LoadOptions) *Column {
	nums := make([]float64, len(raw))
	seen := 0
	numeric := true
	for i, v := range raw {
		if null[i] {
			nums[i] = math.NaN()
			continue
		}
		seen++
		x, ok := parseNumeric(v, opt)
		if !ok {
			numeric = false
			break
		}
		nums[i] = x
	}
	if numeric && seen > 0 {
		return &Column{Name: name, Kind: KindNumeric, Nums: nums, Null: null}
	}
	return &Column{Name: name, Kind: KindText, Texts: raw, Null: null}
}

func parseNumeric(s string, opt LoadOptions) (float64, bool) {
	raw := strings.TrimSpace(strings.ReplaceAll(s, "\u00A0", " "))
	if raw == "" {
		return 0, false
	}
	dec := opt.DecimalSeparator
	if dec == 0 {
		dec = '.'
	}
	if thou := opt.ThousandsSeparator; thou != 0 && thou != dec {
		raw = strings.ReplaceAll(raw, string(thou), "")
	}
	if dec != '.' {
		if strings.Contains(raw, ".") {
			return 0, false
		}
		raw = strings.ReplaceAll(raw, string(dec), ".")
	}
	// ParseFloat also accepts "inf", hex floats and underscores; none of those are data.
	if strings.ContainsAny(raw, "_xXpP") {
		return 0, false
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
