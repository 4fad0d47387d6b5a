package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/uuid"
	"golang.org/x/exp/mmap"

	"github.com/dd0wney/ranroutes/pkg/compose"
	"github.com/dd0wney/ranroutes/pkg/graph"
	"github.com/dd0wney/ranroutes/pkg/validation"
)

// CompressedSuffix marks catalog files stored snappy-compressed
const CompressedSuffix = ".sz"

// ErrMalformedRecord is returned for records that cannot form a route
var ErrMalformedRecord = errors.New("malformed route record")

// record is the persisted form of a route. Field order follows the
// established file layout.
type record struct {
	Identifier     int        `json:"identifier" validate:"gte=1"`
	Source         string     `json:"source" validate:"required"`
	Target         string     `json:"target" validate:"required"`
	Sequence       []string   `json:"sequence" validate:"len=3,dive,required"`
	Fronthaul      [][]string `json:"fronthaul" validate:"min=1,dive,len=2,dive,required"`
	Midhaul        [][]string `json:"midhaul" validate:"dive,len=2,dive,required"`
	Backhaul       [][]string `json:"backhaul" validate:"dive,len=2,dive,required"`
	DelayFronthaul float64    `json:"delay_fronthaul" validate:"gte=0"`
	DelayMidhaul   float64    `json:"delay_midhaul" validate:"gte=0"`
	DelayBackhaul  float64    `json:"delay_backhaul" validate:"gte=0"`
}

func toRecord(r *Route) record {
	seq := r.Sequence()
	return record{
		Identifier:     r.ID(),
		Source:         string(r.Source()),
		Target:         string(r.Target()),
		Sequence:       []string{string(seq[0]), string(seq[1]), string(seq[2])},
		Fronthaul:      pairs(r.FronthaulLinks()),
		Midhaul:        pairs(r.MidhaulLinks()),
		Backhaul:       pairs(r.BackhaulLinks()),
		DelayFronthaul: r.DelayFronthaul(),
		DelayMidhaul:   r.DelayMidhaul(),
		DelayBackhaul:  r.DelayBackhaul(),
	}
}

func pairs(hops []compose.Hop) [][]string {
	out := make([][]string, len(hops))
	for i, h := range hops {
		out[i] = []string{string(h.From), string(h.To)}
	}
	return out
}

// fromRecord rebuilds a route. Backhaul and midhaul end in their anchor pair.
func fromRecord(rec *record) (*Route, error) {
	if err := validation.Struct(rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	backhaul, err := anchoredSegment(rec.Backhaul)
	if err != nil {
		return nil, fmt.Errorf("backhaul: %w", err)
	}
	midhaul, err := anchoredSegment(rec.Midhaul)
	if err != nil {
		return nil, fmt.Errorf("midhaul: %w", err)
	}
	if !backhaul.Empty() && midhaul.Empty() {
		return nil, fmt.Errorf("%w: backhaul without midhaul", ErrMalformedRecord)
	}

	d := compose.Decomposition{
		Backhaul:  backhaul,
		Midhaul:   midhaul,
		Fronthaul: compose.Segment{Hops: toHops(rec.Fronthaul)},
	}
	source := graph.NodeID(rec.Source)
	target := graph.NodeID(rec.Target)
	if err := checkChain(d.Hops(), source, target); err != nil {
		return nil, err
	}

	r := NewRoute(rec.Identifier, source, target, d, Delays{
		Backhaul:  rec.DelayBackhaul,
		Midhaul:   rec.DelayMidhaul,
		Fronthaul: rec.DelayFronthaul,
	})
	seq := r.Sequence()
	for i := range seq {
		if string(seq[i]) != rec.Sequence[i] {
			return nil, fmt.Errorf("%w: sequence slot %d is %q, segments give %q",
				ErrMalformedRecord, i, rec.Sequence[i], seq[i])
		}
	}
	return r, nil
}

func toHops(p [][]string) []compose.Hop {
	out := make([]compose.Hop, len(p))
	for i, pair := range p {
		out[i] = compose.Hop{From: graph.NodeID(pair[0]), To: graph.NodeID(pair[1])}
	}
	return out
}

func anchoredSegment(p [][]string) (compose.Segment, error) {
	if len(p) == 0 {
		return compose.Segment{}, nil
	}
	if len(p) < 2 {
		return compose.Segment{}, fmt.Errorf("%w: anchored segment needs a hop and an anchor", ErrMalformedRecord)
	}
	hops := toHops(p[:len(p)-1])
	last := p[len(p)-1]
	anchor := &compose.Anchor{Node: graph.NodeID(last[0]), Unit: compose.UnitID(last[1])}
	if hops[len(hops)-1].To != anchor.Node {
		return compose.Segment{}, fmt.Errorf("%w: anchor %s is not at segment end %s",
			ErrMalformedRecord, anchor.Node, hops[len(hops)-1].To)
	}
	return compose.Segment{Hops: hops, Anchor: anchor}, nil
}

func checkChain(hops []compose.Hop, source, target graph.NodeID) error {
	if hops[0].From != source {
		return fmt.Errorf("%w: route starts at %s, not %s", ErrMalformedRecord, hops[0].From, source)
	}
	for i := 1; i < len(hops); i++ {
		if hops[i].From != hops[i-1].To {
			return fmt.Errorf("%w: hop %d does not continue from %s", ErrMalformedRecord, i, hops[i-1].To)
		}
	}
	if end := hops[len(hops)-1].To; end != target {
		return fmt.Errorf("%w: route ends at %s, not %s", ErrMalformedRecord, end, target)
	}
	return nil
}

// MarshalRoute encodes one route in its persisted record form
func MarshalRoute(r *Route) ([]byte, error) {
	data, err := json.Marshal(toRecord(r))
	if err != nil {
		return nil, fmt.Errorf("encode route %d: %w", r.ID(), err)
	}
	return data, nil
}

// UnmarshalRoute decodes and checks one record written by MarshalRoute
func UnmarshalRoute(data []byte) (*Route, error) {
	var rec record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode route: %w", err)
	}
	return fromRecord(&rec)
}

// Export writes routes as an indented JSON array
func Export(w io.Writer, routes []*Route) error {
	records := make([]record, len(routes))
	for i, r := range routes {
		records[i] = toRecord(r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return nil
}

// Import reads a JSON array written by Export. Identifiers are kept.
func Import(r io.Reader) (*Catalog, error) {
	var records []record
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	routes := make([]*Route, 0, len(records))
	seen := make(map[int]bool, len(records))
	for i := range records {
		route, err := fromRecord(&records[i])
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		if seen[route.ID()] {
			return nil, fmt.Errorf("record %d: %w: duplicate identifier %d", i, ErrMalformedRecord, route.ID())
		}
		seen[route.ID()] = true
		routes = append(routes, route)
	}
	return New(uuid.New(), routes), nil
}

// ExportCompressed writes the Export form as one snappy block
func ExportCompressed(w io.Writer, routes []*Route) error {
	var buf bytes.Buffer
	if err := Export(&buf, routes); err != nil {
		return err
	}
	if _, err := w.Write(snappy.Encode(nil, buf.Bytes())); err != nil {
		return fmt.Errorf("write compressed catalog: %w", err)
	}
	return nil
}

// ImportCompressed reads a catalog written by ExportCompressed
func ImportCompressed(r io.Reader) (*Catalog, error) {
	compressed, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read compressed catalog: %w", err)
	}
	data, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("decompress catalog: %w", err)
	}
	return Import(bytes.NewReader(data))
}

// WriteFile stores a catalog at path, snappy-compressed when path ends in
// CompressedSuffix. The file is replaced atomically.
func WriteFile(path string, cat *Catalog) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp catalog: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if strings.HasSuffix(path, CompressedSuffix) {
		err = ExportCompressed(tmp, cat.Routes())
	} else {
		err = Export(tmp, cat.Routes())
	}
	if err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync catalog: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close catalog: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename catalog: %w", err)
	}
	return nil
}

// ReadFile loads a catalog written by WriteFile through a read-only mapping
func ReadFile(path string) (*Catalog, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", path, err)
	}
	defer r.Close()

	section := io.NewSectionReader(r, 0, int64(r.Len()))
	if strings.HasSuffix(path, CompressedSuffix) {
		return ImportCompressed(section)
	}
	return Import(section)
}
