// Package catalog turns enumerated paths into the route catalog: every
// admissible (path, stage split, hosting units) combination from the origin
// to each demand point, with per-stage delays. It also reads and writes the
// catalog's JSON form.
package catalog

import (
	"sort"

	"github.com/google/uuid"

	"github.com/dd0wney/ranroutes/pkg/graph"
)

// Catalog is an ordered, immutable set of routes from one build or import
type Catalog struct {
	runID  uuid.UUID
	routes []*Route
	byID   map[int]*Route
}

// New wraps routes into a catalog. Routes keep their order.
func New(runID uuid.UUID, routes []*Route) *Catalog {
	c := &Catalog{
		runID:  runID,
		routes: make([]*Route, len(routes)),
		byID:   make(map[int]*Route, len(routes)),
	}
	copy(c.routes, routes)
	for _, r := range routes {
		c.byID[r.ID()] = r
	}
	return c
}

// RunID identifies the build or import that produced the catalog
func (c *Catalog) RunID() uuid.UUID {
	return c.runID
}

// Len returns the number of routes
func (c *Catalog) Len() int {
	return len(c.routes)
}

// Routes returns the routes in identifier order
func (c *Catalog) Routes() []*Route {
	out := make([]*Route, len(c.routes))
	copy(out, c.routes)
	return out
}

// Route looks a route up by identifier
func (c *Catalog) Route(id int) (*Route, bool) {
	r, ok := c.byID[id]
	return r, ok
}

// ForTarget returns the routes ending at a demand point, in catalog order
func (c *Catalog) ForTarget(target graph.NodeID) []*Route {
	out := make([]*Route, 0)
	for _, r := range c.routes {
		if r.Target() == target {
			out = append(out, r)
		}
	}
	return out
}

// Targets returns the distinct demand points served, in first-seen order
func (c *Catalog) Targets() []graph.NodeID {
	seen := make(map[graph.NodeID]bool)
	out := make([]graph.NodeID, 0)
	for _, r := range c.routes {
		if !seen[r.Target()] {
			seen[r.Target()] = true
			out = append(out, r.Target())
		}
	}
	return out
}

// StageCounts returns how many routes have 1, 2 and 3 stages
func (c *Catalog) StageCounts() map[int]int {
	out := make(map[int]int, 3)
	for _, r := range c.routes {
		out[r.Stages()]++
	}
	return out
}

// UnitsUsed returns every hosting unit some route anchors at, sorted
func (c *Catalog) UnitsUsed() []string {
	seen := make(map[string]bool)
	for _, r := range c.routes {
		for _, u := range r.HardwareKeys() {
			seen[string(u)] = true
		}
	}
	out := make([]string, 0, len(seen))
	for u := range seen {
		out = append(out, u)
	}
	sort.Strings(out)
	return out
}

// Equal reports whether both catalogs hold the same routes, in the same
// order, under the same identifiers. Run IDs and delays are not compared.
func (c *Catalog) Equal(other *Catalog) bool {
	if c == nil || other == nil {
		return c == other
	}
	if len(c.routes) != len(other.routes) {
		return false
	}
	for i, r := range c.routes {
		o := other.routes[i]
		if r.ID() != o.ID() || !r.Equal(o) {
			return false
		}
	}
	return true
}

// Diff returns the identifiers at which two catalogs disagree, up to max
// entries (0 means no cap). A length mismatch reports the first missing id.
func (c *Catalog) Diff(other *Catalog, max int) []int {
	out := make([]int, 0)
	n := len(c.routes)
	if len(other.routes) < n {
		n = len(other.routes)
	}
	for i := 0; i < n; i++ {
		if max > 0 && len(out) >= max {
			return out
		}
		r, o := c.routes[i], other.routes[i]
		if r.ID() != o.ID() || !r.Equal(o) {
			out = append(out, r.ID())
		}
	}
	if len(c.routes) != len(other.routes) && (max == 0 || len(out) < max) {
		out = append(out, n+1)
	}
	return out
}
