package chart

import (
	"errors"
	"fmt"
	"strings"
)

// Kind names a chart type.
type Kind string

const (
	KindBar          Kind = "bar"
	KindCrossTab     Kind = "crosstab"
	KindHistogram    Kind = "histogram"
	KindCorrelation  Kind = "correlation"
	KindDistribution Kind = "distribution"
)

// Kinds lists every supported chart kind.
var Kinds = []Kind{KindBar, KindCrossTab, KindHistogram, KindCorrelation, KindDistribution}

// Chart data sources.
const (
	SourceView  = "view"
	SourceTable = "table"
)

// Defaults for chart specs that leave Top or Bins unset.
const (
	DefaultTop  = 10
	DefaultBins = 20
)

// ErrInvalidSpec marks a chart spec that is missing a required field or
// names an unknown kind or source.
var ErrInvalidSpec = errors.New("invalid chart spec")

// Spec describes one chart of a dashboard.
type Spec struct {
	Kind   Kind   `mapstructure:"kind" yaml:"kind" json:"kind"`
	Column string `mapstructure:"column" yaml:"column,omitempty" json:"column,omitempty"`
	// By is the second column of a cross-tabulation.
	By   string `mapstructure:"by" yaml:"by,omitempty" json:"by,omitempty"`
	Top  int    `mapstructure:"top" yaml:"top,omitempty" json:"top,omitempty"`
	Bins int    `mapstructure:"bins" yaml:"bins,omitempty" json:"bins,omitempty"`
	// Source is "view" (the filtered rows, default) or "table" (all rows).
	Source string `mapstructure:"source" yaml:"source,omitempty" json:"source,omitempty"`
	Title  string `mapstructure:"title" yaml:"title,omitempty" json:"title,omitempty"`
}

// ParseKind maps a user-supplied name to a Kind.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case "heatmap", "pivot":
		return KindCrossTab, nil
	case "corr":
		return KindCorrelation, nil
	case "hist":
		return KindHistogram, nil
	}
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s)
}

// Validate checks that the spec names what its kind requires.
func (s Spec) Validate() error {
	switch s.Kind {
	case KindBar, KindCrossTab, KindHistogram, KindCorrelation, KindDistribution:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s.Kind)
	}
	switch s.Kind {
	case KindBar, KindHistogram, KindDistribution:
		if s.Column == "" {
			return fmt.Errorf("%w: %s chart needs a column", ErrInvalidSpec, s.Kind)
		}
	case KindCrossTab:
		if s.Column == "" || s.By == "" {
			return fmt.Errorf("%w: crosstab chart needs column and by", ErrInvalidSpec)
		}
	}
	switch s.Source {
	case "", SourceView, SourceTable:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidSpec, s.Source)
	}
	if s.Top < 0 || s.Bins < 0 {
		return fmt.Errorf("%w: top and bins must not be negative", ErrInvalidSpec)
	}
	return nil
}

// UsesTable reports whether the chart reads the unfiltered table.
func (s Spec) UsesTable() bool { return s.Source == SourceTable }

func (s Spec) top() int {
	if s.Top > 0 {
		return s.Top
	}
	return DefaultTop
}

func (s Spec) bins() int {
	if s.Bins > 0 {
		return s.Bins
	}
	return DefaultBins
}

// DisplayTitle returns Title or a title derived from the kind and columns.
func (s Spec) DisplayTitle() string {
	if s.Title != "" {
		return s.Title
	}
	switch s.Kind {
	case KindBar:
		return fmt.Sprintf("Top %d %s", s.top(), s.Column)
	case KindCrossTab:
		return fmt.Sprintf("%s by %s", s.Column, s.By)
	case KindHistogram, KindDistribution:
		return "Distribution of " + s.Column
	case KindCorrelation:
		return "Correlation heatmap"
	}
	return string(s.Kind)
}
