package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/chart"
	"github.com/KaramelBytes/tableloom/internal/dashboard"
	"github.com/KaramelBytes/tableloom/internal/filter"
	"github.com/KaramelBytes/tableloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	chSource sourceFlags
	chSel    selectionFlags
	chKind   string
	chColumn string
	chBy     string
	chTop    int
	chBins   int
	chAll    bool
	chTitle  string
	chIndex  int
	chOutput string
	chJSON   bool
)

var chartCmd = &cobra.Command{
	Use:   "chart",
	Short: "Draw a chart of a dataset as SVG",
	Long: `Draw a bar, crosstab (heatmap), histogram, distribution or correlation chart.
The chart is computed over the rows kept by --select/--range, or over every row
with --all. --index draws one of the charts configured for the dataset instead.`,
	Example: `  tableloom chart -d jobs --kind bar --column Company -o companies.svg
  tableloom chart -d jobs --kind heatmap --column Title --by Location -o heatmap.svg
  tableloom chart -d students --index 1 -o correlation.svg`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := chSource.open()
		if err != nil {
			return err
		}
		sel, err := chSel.selection(d)
		if err != nil {
			return err
		}

		var data *chart.Data
		if cmd.Flags().Changed("index") {
			data, err = d.Chart(chIndex, sel, dashboard.RenderOptions{})
		} else {
			var spec chart.Spec
			if spec, err = chartSpec(); err != nil {
				return err
			}
			data, err = computeChart(d, spec, sel)
		}
		var ide *analysis.InsufficientDataError
		if errors.As(err, &ide) {
			warnf(cmd.ErrOrStderr(), "%v", ide)
			return nil
		}
		if err != nil {
			return err
		}

		var buf bytes.Buffer
		if chJSON {
			b, err := utils.PrettyJSON(data)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		} else if err := chart.RenderSVG(&buf, data); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := writeOutput(out, chOutput, buf.Bytes()); err != nil {
			return err
		}
		if chOutput != "" {
			okf(out, "Wrote %s to %s", data.Title, chOutput)
		}
		return nil
	},
}

func chartSpec() (chart.Spec, error) {
	if chKind == "" {
		return chart.Spec{}, fmt.Errorf("%w: --kind is required (one of %s)", chart.ErrInvalidSpec, kindList())
	}
	kind, err := chart.ParseKind(chKind)
	if err != nil {
		return chart.Spec{}, err
	}
	spec := chart.Spec{
		Kind:   kind,
		Column: chColumn,
		By:     chBy,
		Top:    chTop,
		Bins:   chBins,
		Source: chart.SourceView,
		Title:  chTitle,
	}
	if chAll {
		spec.Source = chart.SourceTable
	}
	return spec, spec.Validate()
}

func computeChart(d *dashboard.Dashboard, spec chart.Spec, sel filter.Selection) (*chart.Data, error) {
	if spec.UsesTable() {
		return d.ComputeChart(spec, nil)
	}
	res, err := d.ApplyFilter(sel)
	if err != nil {
		return nil, err
	}
	if res.Warning != nil {
		logger.Debug("chart over empty view", "warning", res.Warning.Error())
	}
	return d.ComputeChart(spec, res.View)
}

func kindList() string {
	names := make([]string, len(chart.Kinds))
	for i, k := range chart.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}

func init() {
	rootCmd.AddCommand(chartCmd)
	chSource.register(chartCmd)
	chSel.register(chartCmd)
	chartCmd.Flags().StringVar(&chKind, "kind", "", "chart kind: bar | crosstab (heatmap) | histogram | distribution | correlation")
	chartCmd.Flags().StringVar(&chColumn, "column", "", "column to chart")
	chartCmd.Flags().StringVar(&chBy, "by", "", "crosstab: second column")
	chartCmd.Flags().IntVar(&chTop, "top", chart.DefaultTop, "bar/crosstab: number of categories kept")
	chartCmd.Flags().IntVar(&chBins, "bins", chart.DefaultBins, "histogram: number of bins")
	chartCmd.Flags().BoolVar(&chAll, "all", false, "chart every row, ignoring the selection")
	chartCmd.Flags().StringVar(&chTitle, "title", "", "chart title")
	chartCmd.Flags().IntVar(&chIndex, "index", 0, "draw the configured chart at this position of the dataset profile")
	chartCmd.Flags().StringVarP(&chOutput, "output", "o", "", "SVG file to write (default: stdout)")
	chartCmd.Flags().BoolVar(&chJSON, "json", false, "print the computed chart data as JSON instead of SVG")
}
