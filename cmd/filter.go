package cmd

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	fltSource sourceFlags
	fltSel    selectionFlags
	fltOutput string
	fltTable  bool
)

var filterCmd = &cobra.Command{
	Use:   "filter",
	Short: "Filter a dataset and export the matching rows as CSV",
	Long: `Keep the rows matching every --select (column value is one of the listed
values) and the --range (numeric column within inclusive bounds), then write
them as CSV to stdout or to --output.`,
	Example: `  tableloom filter -d jobs --select Title=Accountant,Lawyer --select Location=Yerevan -o jobs.csv
  tableloom filter -f students.csv --range Age=15:25 --table`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := fltSource.open()
		if err != nil {
			return err
		}
		sel, err := fltSel.selection(d)
		if err != nil {
			return err
		}
		res, err := d.ApplyFilter(sel)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if res.Warning != nil {
			warnf(cmd.ErrOrStderr(), "%v", res.Warning)
		}

		if fltTable {
			table := tablewriter.NewWriter(out)
			table.SetHeader(res.View.Names())
			table.SetAutoFormatHeaders(false)
			table.AppendBulk(res.View.Records(0))
			table.Render()
			fmt.Fprintf(out, "%d of %d rows\n", res.View.Rows(), d.Table().Rows())
			return nil
		}

		var buf bytes.Buffer
		if err := d.ExportCSV(&buf, res.View); err != nil {
			return err
		}
		if err := writeOutput(out, fltOutput, buf.Bytes()); err != nil {
			return err
		}
		if fltOutput != "" {
			okf(out, "Wrote %d of %d rows to %s", res.View.Rows(), d.Table().Rows(), fltOutput)
		}
		logger.Debug("filter applied", "dataset", d.Profile().Name, "selection", sel.Columns(), "rows", res.View.Rows())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(filterCmd)
	fltSource.register(filterCmd)
	fltSel.register(filterCmd)
	filterCmd.Flags().StringVarP(&fltOutput, "output", "o", "", "CSV file to write (default: stdout)")
	filterCmd.Flags().BoolVar(&fltTable, "table", false, "print the matching rows as a table instead of CSV")
}
