package config

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/dataset"
	"github.com/KaramelBytes/tableloom/internal/export"
	"github.com/KaramelBytes/tableloom/internal/filter"
)

// ErrUnknownDataset is returned when no profile has the requested name.
var ErrUnknownDataset = errors.New("unknown dataset")

// Profile selects the dataset-specific behavior of a dashboard: which file to
// load, which columns can be filtered and which charts are drawn.
type Profile struct {
	Name  string `mapstructure:"name" yaml:"name" json:"name"`
	Title string `mapstructure:"title" yaml:"title,omitempty" json:"title,omitempty"`
	Path  string `mapstructure:"path" yaml:"path" json:"path"`
	// Sheet selects a worksheet of an XLSX file.
	Sheet     string `mapstructure:"sheet" yaml:"sheet,omitempty" json:"sheet,omitempty"`
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter,omitempty" json:"delimiter,omitempty"`
	// Locale-aware number parsing; one character each.
	DecimalSeparator   string `mapstructure:"decimal_separator" yaml:"decimal_separator,omitempty" json:"decimal_separator,omitempty"`
	ThousandsSeparator string `mapstructure:"thousands_separator" yaml:"thousands_separator,omitempty" json:"thousands_separator,omitempty"`

	// Filters are the categorical columns offered for selection.
	Filters []string `mapstructure:"filters" yaml:"filters,omitempty" json:"filters,omitempty"`
	// DefaultSelected is how many values of each filter are preselected, in
	// order of appearance; 0 preselects everything.
	DefaultSelected int           `mapstructure:"default_selected" yaml:"default_selected" json:"default_selected"`
	Range           *filter.Range `mapstructure:"range" yaml:"range,omitempty" json:"range,omitempty"`
	// ViewRows caps the filtered rows shown on a page; 0 shows all.
	ViewRows   int          `mapstructure:"view_rows" yaml:"view_rows,omitempty" json:"view_rows,omitempty"`
	Charts     []chart.Spec `mapstructure:"charts" yaml:"charts,omitempty" json:"charts,omitempty"`
	ExportName string       `mapstructure:"export_name" yaml:"export_name,omitempty" json:"export_name,omitempty"`
}

// Validate checks the profile's own fields; column names are checked only
// once the dataset is loaded.
func (p Profile) Validate() error {
	if p.Name == "" {
		return errors.New("dataset profile without a name")
	}
	if p.Path == "" {
		return fmt.Errorf("dataset %q: path is required", p.Name)
	}
	if _, err := p.LoadOptions(); err != nil {
		return fmt.Errorf("dataset %q: %w", p.Name, err)
	}
	if p.Range != nil {
		if p.Range.Column == "" {
			return fmt.Errorf("dataset %q: range needs a column", p.Name)
		}
		if math.IsNaN(p.Range.Low) || math.IsNaN(p.Range.High) {
			return fmt.Errorf("dataset %q: range bounds must be numbers", p.Name)
		}
		if p.Range.Low > p.Range.High {
			return fmt.Errorf("dataset %q: range low is above high", p.Name)
		}
	}
	for i, s := range p.Charts {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("dataset %q chart %d: %w", p.Name, i, err)
		}
	}
	return nil
}

// LoadOptions converts the profile's file settings for the loader.
func (p Profile) LoadOptions() (dataset.LoadOptions, error) {
	opt := dataset.LoadOptions{Sheet: p.Sheet}
	d, err := dataset.ParseDelimiter(p.Delimiter)
	if err != nil {
		return opt, err
	}
	opt.Delimiter = d
	if opt.DecimalSeparator, err = single("decimal_separator", p.DecimalSeparator); err != nil {
		return opt, err
	}
	if opt.ThousandsSeparator, err = single("thousands_separator", p.ThousandsSeparator); err != nil {
		return opt, err
	}
	return opt, nil
}

// ExportFilename is the download name of the filtered CSV.
func (p Profile) ExportFilename() string { return export.Filename(p.ExportName, p.Path) }

// DisplayTitle returns Title, falling back to Name.
func (p Profile) DisplayTitle() string {
	if p.Title != "" {
		return p.Title
	}
	return p.Name
}

func single(key, s string) (rune, error) {
	r := []rune(s)
	switch len(r) {
	case 0:
		return 0, nil
	case 1:
		return r[0], nil
	}
	return 0, fmt.Errorf("%s must be a single character, got %q", key, s)
}

// DefaultProfiles are used when no datasets are configured: the job market
// dashboard, its reduced variant, and the student social media dashboard.
func DefaultProfiles() []Profile {
	jobCharts := []chart.Spec{
		{Kind: chart.KindBar, Column: "Company", Top: 10, Source: chart.SourceTable, Title: "Top 10 Hiring Companies"},
		{Kind: chart.KindBar, Column: "Title", Top: 10, Source: chart.SourceTable, Title: "Top 10 Job Titles"},
	}
	return []Profile{
		{
			Name:            "jobs",
			Title:           "Job Market Dashboard",
			Path:            "data job posts.csv",
			Filters:         []string{"Title", "Location"},
			DefaultSelected: 3,
			Charts: append(append([]chart.Spec{}, jobCharts...),
				chart.Spec{Kind: chart.KindBar, Column: "Location", Top: 10, Source: chart.SourceTable, Title: "Top 10 Locations"},
				chart.Spec{Kind: chart.KindCrossTab, Column: "Title", By: "Location", Top: 10, Source: chart.SourceTable, Title: "Job Distribution Heatmap"},
			),
			ExportName: "filtered_jobs.csv",
		},
		{
			Name:            "jobs-basic",
			Title:           "Job Market Dashboard",
			Path:            "data job posts.csv",
			Filters:         []string{"Title", "Location"},
			DefaultSelected: 3,
			Charts:          append([]chart.Spec{}, jobCharts...),
			ExportName:      "filtered_jobs.csv",
		},
		{
			Name:            "students",
			Title:           "Student Social Media Addiction Dashboard",
			Path:            "Students Social Media Addiction.csv",
			Filters:         []string{"Gender"},
			DefaultSelected: 0,
			Range:           &filter.Range{Column: "Age", Low: 15, High: 25},
			ViewRows:        5,
			Charts: []chart.Spec{
				{Kind: chart.KindDistribution, Column: "Age", Bins: 20, Source: chart.SourceTable},
				{Kind: chart.KindCorrelation, Source: chart.SourceTable, Title: "Correlation Between Numeric Factors"},
			},
			ExportName: "filtered_students.csv",
		},
	}
}
