package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kotoba-ml/umekomi/internal/catalog"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List available models",
	RunE:  runModels,
}

func runModels(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tDIMENSIONS\tMAX TOKENS\tREPO")
	for _, spec := range catalog.All() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", spec.Name, spec.Dimension, spec.MaxTokens, spec.Repo)
	}
	return w.Flush()
}
