package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/KaramelBytes/tableloom/internal/analysis"
	"github.com/KaramelBytes/tableloom/internal/utils"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	sumSource   sourceFlags
	sumJSON     bool
	sumMarkdown bool
	sumOutput   string
	sumPreview  int
)

var summaryCmd = &cobra.Command{
	Use:   "summary [files...]",
	Short: "Summarize datasets: shape, column statistics, missing values and a preview",
	Long: `Summarize one or more CSV/TSV/XLSX files (globs allowed), or the dataset of
a configured profile with --dataset. Output is a terminal table by default,
or JSON/Markdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if sumJSON && sumMarkdown {
			return fmt.Errorf("--json and --markdown are mutually exclusive")
		}
		files, err := expandFiles(args)
		if err != nil {
			return err
		}
		if len(files) == 0 && sumSource.dataset == "" && sumSource.file == "" {
			return fmt.Errorf("specify files, --file or --dataset")
		}

		var reports []*analysis.Report
		if sumSource.dataset != "" || sumSource.file != "" {
			d, err := sumSource.open()
			if err != nil {
				return err
			}
			reports = append(reports, d.Summary())
		}
		for _, f := range files {
			src := sumSource
			src.dataset, src.file = "", f
			d, err := src.open()
			if err != nil {
				return err
			}
			reports = append(reports, d.Summary())
		}
		if sumPreview > 0 {
			for _, r := range reports {
				if len(r.Preview) > sumPreview {
					r.Preview = r.Preview[:sumPreview]
				}
			}
		}

		var buf bytes.Buffer
		switch {
		case sumJSON:
			var v any = reports
			if len(reports) == 1 {
				v = reports[0]
			}
			b, err := utils.PrettyJSON(v)
			if err != nil {
				return err
			}
			buf.Write(b)
			buf.WriteByte('\n')
		case sumMarkdown:
			for i, r := range reports {
				if i > 0 {
					buf.WriteString("\n")
				}
				buf.WriteString(r.Markdown())
			}
		default:
			for i, r := range reports {
				if i > 0 {
					buf.WriteString("\n")
				}
				printReport(&buf, r)
			}
		}

		if err := writeOutput(cmd.OutOrStdout(), sumOutput, buf.Bytes()); err != nil {
			return err
		}
		if sumOutput != "" {
			okf(cmd.OutOrStdout(), "Wrote summary of %d dataset(s) to %s", len(reports), sumOutput)
		}
		return nil
	},
}

// expandFiles resolves globs, keeping literal paths that exist.
func expandFiles(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, err := filepath.Glob(arg)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %q: %w", arg, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(arg); err != nil {
				return nil, fmt.Errorf("no input files matched %q", arg)
			}
			matches = []string{arg}
		}
		sort.Strings(matches)
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	return files, nil
}

// printReport renders a summary as terminal tables.
func printReport(w io.Writer, r *analysis.Report) {
	missing := 0
	for _, c := range r.Cols {
		missing += c.Missing
	}
	fmt.Fprintln(w, color.New(color.FgCyan, color.Bold).Sprint(r.Name))
	fmt.Fprintf(w, "Rows: %d  Columns: %d  Missing values: %d\n\n", r.Rows, r.Columns, missing)

	if len(r.Preview) > 0 {
		fmt.Fprintln(w, color.YellowString("Preview"))
		preview := tablewriter.NewWriter(w)
		preview.SetHeader(r.Header)
		preview.SetAutoFormatHeaders(false)
		preview.AppendBulk(r.Preview)
		preview.Render()
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, color.YellowString("Columns"))
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Column", "Kind", "Count", "Missing", "Unique", "Mean", "Std", "Min", "Median", "Max", "Top"})
	table.SetAutoFormatHeaders(false)
	for _, c := range r.Cols {
		top := ""
		if c.Freq > 0 {
			top = fmt.Sprintf("%s (%d)", c.Top, c.Freq)
		}
		table.Append([]string{
			c.Name,
			c.Kind,
			strconv.Itoa(c.NonNull),
			strconv.Itoa(c.Missing),
			strconv.Itoa(c.Unique),
			stat(c.Mean),
			stat(c.Std),
			stat(c.Min),
			stat(c.Median),
			stat(c.Max),
			top,
		})
	}
	table.Render()
	for _, warn := range r.Warnings {
		warnf(w, "%s", warn)
	}
}

func stat(f analysis.Float) string {
	if !f.Valid() {
		return ""
	}
	return f.String()
}

func init() {
	rootCmd.AddCommand(summaryCmd)
	sumSource.register(summaryCmd)
	summaryCmd.Flags().BoolVar(&sumJSON, "json", false, "print the summary as JSON")
	summaryCmd.Flags().BoolVar(&sumMarkdown, "markdown", false, "print the summary as Markdown")
	summaryCmd.Flags().StringVarP(&sumOutput, "output", "o", "", "write the summary to a file instead of stdout")
	summaryCmd.Flags().IntVar(&sumPreview, "preview", 0, "limit preview rows (default: preview_rows from config)")
}
