package main

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/spf13/cobra"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/logging"
	"github.com/dd0wney/ranroutes/pkg/topology"
)

// maxReportedDiffs caps the identifiers listed when catalogs disagree
const maxReportedDiffs = 20

var errVerifyFailed = errors.New("catalog verification failed")

type verifyOptions struct {
	configPath string
	key        string
}

func newVerifyCmd() *cobra.Command {
	opts := &verifyOptions{}
	cmd := &cobra.Command{
		Use:   "verify [CATALOG]",
		Short: "Rebuild a catalog and compare it to a stored one",
		Long: `Rebuild the catalog from the configured topology and compare it route by
route with the stored one. Delays and run identifiers are not compared.

Every anchor is also checked against the topology: a route may only
terminate a segment at a hosting unit that belongs to the anchor node.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd, args, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (YAML)")
	cmd.Flags().StringVar(&opts.key, "key", "", "Load the catalog from the configured store under this key")
	return cmd
}

func runVerify(cmd *cobra.Command, args []string, opts *verifyOptions) error {
	stored, err := openCatalog(cmd, args, opts.key, opts.configPath)
	if err != nil {
		return err
	}

	s, err := newSession(opts.configPath)
	if err != nil {
		return err
	}
	defer s.flushMetrics()

	rebuilt, topo, err := s.build(cmd.Context())
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	ok := true
	if !stored.Equal(rebuilt) {
		ok = false
		diff := stored.Diff(rebuilt, maxReportedDiffs)
		fmt.Fprintf(w, "Stored catalog has %d routes, rebuild has %d\n", stored.Len(), rebuilt.Len())
		fmt.Fprintf(w, "Routes that differ: %v\n", diff)
	}
	if bad := misplacedAnchors(w, stored, topo); bad > 0 {
		ok = false
		fmt.Fprintf(w, "Routes with misplaced anchors: %d\n", bad)
	}

	if !ok {
		s.logger.Error("catalog verification failed", logging.RunID(stored.RunID().String()))
		return errVerifyFailed
	}
	fmt.Fprintf(w, "OK: %d routes match the topology\n", stored.Len())
	return nil
}

// misplacedAnchors reports routes whose anchors name a unit not hosted at
// the anchor node
func misplacedAnchors(w io.Writer, cat *catalog.Catalog, topo *topology.Topology) int {
	bad := 0
	for _, r := range cat.Routes() {
		for _, get := range []func() (compose.Anchor, bool){r.BackhaulAnchor, r.MidhaulAnchor} {
			a, has := get()
			if !has {
				continue
			}
			if !slices.Contains(topo.HostingUnits(a.Node), a.Unit) {
				fmt.Fprintf(w, "route %d: unit %s is not hosted at %s\n", r.ID(), a.Unit, a.Node)
				bad++
				break
			}
		}
	}
	return bad
}
