package chart

import (
	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/dataset"
)

// Data is a computed chart: exactly one of Bars, Histogram or Matrix is set.
type Data struct {
	Kind      Kind                     `json:"kind"`
	Title     string                   `json:"title"`
	Bars      []analysis.CategoryCount `json:"bars,omitempty"`
	Histogram *analysis.Histogram      `json:"histogram,omitempty"`
	Matrix    *analysis.Matrix         `json:"matrix,omitempty"`
}

// Compute evaluates spec against t. Charts that cannot be drawn from the data
// return an *analysis.InsufficientDataError.
func Compute(t *dataset.Table, spec Spec) (*Data, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	d := &Data{Kind: spec.Kind, Title: spec.DisplayTitle()}
	var err error
	switch spec.Kind {
	case KindBar:
		d.Bars, err = analysis.TopN(t, spec.Column, spec.top())
		if err == nil && len(d.Bars) == 0 {
			err = &analysis.InsufficientDataError{Chart: d.Title, Reason: "no values to count"}
		}
	case KindCrossTab:
		d.Matrix, err = analysis.CrossTab(t, spec.Column, spec.By, spec.top())
	case KindHistogram:
		d.Histogram, err = analysis.NewHistogram(t, spec.Column, spec.bins())
	case KindCorrelation:
		d.Matrix, err = analysis.Correlation(t)
	case KindDistribution:
		d.Bars, d.Histogram, err = analysis.Distribution(t, spec.Column, spec.bins())
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}
