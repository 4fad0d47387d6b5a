package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dd0wney/ranroutes/pkg/catalog"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/storage"
)

type inspectOptions struct {
	id         int
	target     string
	key        string
	configPath string
}

func newInspectCmd() *cobra.Command {
	opts := &inspectOptions{}
	cmd := &cobra.Command{
		Use:   "inspect [CATALOG]",
		Short: "Print routes or a summary of a catalog",
		Long: `Print one route (--id), the routes to one base station (--target) or a
summary of the whole catalog.

The catalog is read from the CATALOG file, or with --key from the storage
backend named in --config.

Examples:
  routegen inspect routes.json
  routegen inspect routes.json.sz --id 12
  routegen inspect --config routegen.yaml --key net-a --target node4_bs1`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}
	cmd.Flags().IntVar(&opts.id, "id", 0, "Print the route with this identifier")
	cmd.Flags().StringVar(&opts.target, "target", "", "Print every route to this base station")
	cmd.Flags().StringVar(&opts.key, "key", "", "Load the catalog from the configured store under this key")
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "Configuration file (YAML), used with --key")
	return cmd
}

func runInspect(cmd *cobra.Command, args []string, opts *inspectOptions) error {
	cat, err := openCatalog(cmd, args, opts.key, opts.configPath)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()

	switch {
	case opts.id != 0:
		r, ok := cat.Route(opts.id)
		if !ok {
			return fmt.Errorf("no route with identifier %d", opts.id)
		}
		fmt.Fprintln(w, r)
	case opts.target != "":
		routes := cat.ForTarget(graph.NodeID(opts.target))
		if len(routes) == 0 {
			return fmt.Errorf("no routes to %s", opts.target)
		}
		for _, r := range routes {
			fmt.Fprintln(w, r)
		}
	default:
		printSummary(w, cat)
	}
	return nil
}

// openCatalog reads the catalog from the single file argument or, with a
// key, from the configured store
func openCatalog(cmd *cobra.Command, args []string, key, configPath string) (*catalog.Catalog, error) {
	if key == "" {
		if len(args) != 1 {
			return nil, errors.New("a catalog file or --key is required")
		}
		return catalog.ReadFile(args[0])
	}
	if len(args) != 0 {
		return nil, errors.New("pass either a catalog file or --key, not both")
	}

	s, err := newSession(configPath)
	if err != nil {
		return nil, err
	}
	opt := s.cfg.StorageOptions()
	opt.Metrics = s.metrics
	opt.Logger = s.logger
	store, err := storage.Open(cmd.Context(), opt)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(cmd.Context(), key)
}
