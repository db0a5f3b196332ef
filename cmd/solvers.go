package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/anneal-bench/anneal-bench/spinglass/compare"
)

// solversCmd lists the reachable QPU solvers
var solversCmd = &cobra.Command{
	Use:   "solvers",
	Short: "List reachable QPU solvers and their anneal time ranges",
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := newBackend(appConfig)
		if err != nil {
			return err
		}
		defer b.Close()

		solvers, err := b.runner.Solvers(cmd.Context())
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tGENERATION\tTOPOLOGY\tQUBITS\tONLINE\tSTANDARD\tFAST")
		for _, s := range solvers {
			fmt.Fprintf(tw, "%s\t%s\t%s%v\t%d\t%t\t%s\t%s\n", s.Name, compare.Generation(s.Name),
				s.Family, s.Shape, s.NumQubits, s.Online, s.Anneal.Standard, s.Anneal.Fast)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		if !compare.PartitionSolvers(solvers).Ready() {
			fmt.Fprintln(cmd.OutOrStdout(), compare.NoAccess)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(solversCmd)
}
