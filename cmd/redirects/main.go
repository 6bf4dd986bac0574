// Command redirects compiles the site's redirect mappings into the rule table
// served at the edge and checks URLs against it.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "redirects",
		Short:         "Compile and check the site redirect table",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().String("file", "redirects.json", "mapping file to read (- for stdin)")
	root.PersistentFlags().String("log-level", "warn", "log level for load diagnostics")
	root.AddCommand(newCompileCmd(), newCheckCmd())
	return root
}
