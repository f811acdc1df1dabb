package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	cfgpkg "github.com/KaramelBytes/tableloom/internal/config"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/KaramelBytes/tableloom/internal/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// sourceFlags pick the dataset a command works on: a configured profile, an
// ad-hoc file, or a profile applied to another file.
type sourceFlags struct {
	dataset   string
	file      string
	sheet     string
	delimiter string
}

func (s *sourceFlags) register(c *cobra.Command) {
	c.Flags().StringVarP(&s.dataset, "dataset", "d", "", "configured dataset profile (see `tableloom datasets`)")
	c.Flags().StringVarP(&s.file, "file", "f", "", "CSV/TSV/XLSX file (overrides the profile path)")
	c.Flags().StringVar(&s.sheet, "sheet", "", "XLSX: sheet name (default: first sheet)")
	c.Flags().StringVar(&s.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|' (auto-detect if omitted)")
}

// profile resolves the flags to a profile and the path to load.
func (s *sourceFlags) profile() (cfgpkg.Profile, string, error) {
	var p cfgpkg.Profile
	path := s.file
	switch {
	case s.dataset != "":
		c, err := requireConfig()
		if err != nil {
			return p, "", err
		}
		if p, err = c.Dataset(s.dataset); err != nil {
			return p, "", err
		}
		if path == "" {
			path = c.ResolvePath(p)
		} else {
			p.Path = path
		}
	case path != "":
		p = adhocProfile(path)
	default:
		return p, "", errors.New("specify --dataset or --file")
	}
	if s.sheet != "" {
		p.Sheet = s.sheet
	}
	if s.delimiter != "" {
		p.Delimiter = s.delimiter
	}
	if err := p.Validate(); err != nil {
		return p, "", err
	}
	return p, path, nil
}

func (s *sourceFlags) open() (*dashboard.Dashboard, error) {
	p, path, err := s.profile()
	if err != nil {
		return nil, err
	}
	d, err := dashboard.Load(path, p, summaryOptions())
	if err != nil {
		return nil, err
	}
	logger.Debug("dataset loaded", "dataset", p.Name, "path", path, "rows", d.Table().Rows())
	return d, nil
}

// adhocProfile describes a file that has no configured profile: no filters,
// no charts, the file's base name as dataset name.
func adhocProfile(path string) cfgpkg.Profile {
	base := filepath.Base(path)
	return cfgpkg.Profile{
		Name: strings.TrimSuffix(base, filepath.Ext(base)),
		Path: path,
	}
}

func summaryOptions() analysis.Options {
	opt := analysis.DefaultOptions()
	if cfg != nil && cfg.PreviewRows > 0 {
		opt.PreviewRows = cfg.PreviewRows
	}
	return opt
}

// selectionFlags are the --select/--range pair shared by filter and chart.
type selectionFlags struct {
	selects  []string
	rng      string
	defaults bool
}

func (s *selectionFlags) register(c *cobra.Command) {
	c.Flags().StringArrayVar(&s.selects, "select", nil, `keep rows whose column is one of the values: Col=a,b (repeatable; quote values holding commas: Col="a, b",c; Col= selects nothing)`)
	c.Flags().StringVar(&s.rng, "range", "", "keep rows whose numeric column is within bounds: Col=lo:hi (inclusive, either bound optional)")
	c.Flags().BoolVar(&s.defaults, "defaults", false, "start from the profile's default selection")
}

// selection builds the filter: the profile defaults when requested, with the
// flags overriding per column.
func (s *selectionFlags) selection(d *dashboard.Dashboard) (filter.Selection, error) {
	given, err := filter.ParseSelection(s.selects, s.rng)
	if err != nil {
		return filter.Selection{}, err
	}
	if !s.defaults {
		return given, nil
	}
	sel := d.DefaultSelection()
	for col, vals := range given.Categories {
		if sel.Categories == nil {
			sel.Categories = map[string][]string{}
		}
		sel.Categories[col] = vals
	}
	if given.Range != nil {
		sel.Range = given.Range
	}
	return sel, nil
}

// writeOutput writes data to path, or to w when path is empty.
func writeOutput(w io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := w.Write(data)
		return err
	}
	if err := utils.SafeWriteFile(path, data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func okf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓"), fmt.Sprintf(format, args...))
}

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.YellowString("⚠ Warning:"), fmt.Sprintf(format, args...))
}
