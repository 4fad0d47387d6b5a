// Command routegen builds, inspects and verifies RAN route catalogs.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "routegen",
		Short: "Enumerate backhaul, midhaul and fronthaul routes in a RAN topology",
		Long: `routegen turns a node/link topology into a catalog of routes from the core
to every base station. Each route splits its path into up to three haul
segments anchored at hosting units along the way.

Commands:
  generate - build a catalog from the configured topology
  inspect  - print routes or a summary of a stored catalog
  verify   - rebuild a catalog and compare it to a stored one

Examples:
  routegen generate --config routegen.yaml --out routes.json
  routegen inspect routes.json --target node4_bs1
  routegen verify routes.json --config routegen.yaml`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newGenerateCmd(), newInspectCmd(), newVerifyCmd())
	return root
}
