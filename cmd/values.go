package cmd

import (
	"fmt"

	"github.com/KaramelBytes/tableloom/internal/utils"
	"github.com/spf13/cobra"
)

var (
	valSource sourceFlags
	valJSON   bool
)

var valuesCmd = &cobra.Command{
	Use:   "values <column>",
	Short: "List the distinct non-missing values of a column",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := valSource.open()
		if err != nil {
			return err
		}
		vals, err := d.ListDistinctValues(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if valJSON {
			b, err := utils.PrettyJSON(vals)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(vals) == 0 {
			fmt.Fprintln(out, "(no values)")
			return nil
		}
		for _, v := range vals {
			fmt.Fprintln(out, v)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(valuesCmd)
	valSource.register(valuesCmd)
	valuesCmd.Flags().BoolVar(&valJSON, "json", false, "print values as a JSON array")
}
