package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cwbudde/neldermead/internal/objective"
)

var objectivesCmd = &cobra.Command{
	Use:   "objectives",
	Short: "List the built-in objective functions",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tDIMENSION\tOPTIMUM")
		for _, name := range objective.Names() {
			spec, err := objective.Lookup(name)
			if err != nil {
				return err
			}
			dimStr := "any"
			if spec.Dim > 0 {
				dimStr = fmt.Sprintf("%d", spec.Dim)
			}
			fmt.Fprintf(w, "%s\t%s\t%.6g\n", spec.Name, dimStr, spec.Optimum)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(objectivesCmd)
}
