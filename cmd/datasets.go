package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/tableloom/internal/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var dsJSON bool

var datasetsCmd = &cobra.Command{
	Use:     "datasets",
	Aliases: []string{"list"},
	Short:   "List configured dataset profiles",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := requireConfig()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if dsJSON {
			b, err := utils.PrettyJSON(c.Datasets)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}
		if len(c.Datasets) == 0 {
			fmt.Fprintln(out, "(no datasets)")
			return nil
		}
		table := tablewriter.NewWriter(out)
		table.SetHeader([]string{"Name", "Title", "Path", "Filters", "Range", "Charts"})
		table.SetAutoFormatHeaders(false)
		for _, p := range c.Datasets {
			rng := ""
			if p.Range != nil {
				rng = p.Range.String()
			}
			table.Append([]string{
				p.Name,
				p.DisplayTitle(),
				c.ResolvePath(p),
				strings.Join(p.Filters, ", "),
				rng,
				strconv.Itoa(len(p.Charts)),
			})
		}
		table.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(datasetsCmd)
	datasetsCmd.Flags().BoolVar(&dsJSON, "json", false, "print profiles as JSON")
}
