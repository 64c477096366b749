// Package export persists networks and their results.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"grid-planner/internal/model"
)

const (
	documentFormat  = "grid-planner/network"
	documentVersion = 1
)

// SeriesEntry is one time series in a network document.
type SeriesEntry struct {
	Kind   model.ComponentKind `json:"kind"`
	Name   string              `json:"name"`
	Attr   string              `json:"attr"`
	Values []float64           `json:"values"`
}

// Document is the self-describing file form of a network: every component attribute,
// the temporal index, the weightings, the time series and the results.
type Document struct {
	Format  string         `json:"format"`
	Version int            `json:"version"`
	Network *model.Network `json:"network"`
	Series  []SeriesEntry  `json:"series,omitempty"`
}

func NewDocument(n *model.Network) *Document {
	doc := &Document{Format: documentFormat, Version: documentVersion, Network: n}
	for k, v := range n.Series {
		doc.Series = append(doc.Series, SeriesEntry{Kind: k.Kind, Name: k.Name, Attr: k.Attr, Values: v})
	}
	sort.Slice(doc.Series, func(i, j int) bool {
		a, b := doc.Series[i], doc.Series[j]
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Attr < b.Attr
	})
	return doc
}

// ToNetwork rebuilds and validates the network held by the document.
func (d *Document) ToNetwork() (*model.Network, error) {
	if d.Format != documentFormat {
		return nil, model.ConfigErrorf("load network", "unexpected format %q", d.Format)
	}
	if d.Version != documentVersion {
		return nil, model.ConfigErrorf("load network", "unsupported version %d", d.Version)
	}
	if d.Network == nil {
		return nil, model.ConfigErrorf("load network", "document has no network")
	}
	n := d.Network
	n.Series = model.Series{}
	for _, s := range d.Series {
		n.Series[model.SeriesKey{Kind: s.Kind, Name: s.Name, Attr: s.Attr}] = s.Values
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	if n.Results != nil {
		if err := checkResults(n); err != nil {
			return nil, err
		}
	}
	return n, nil
}

func checkResults(n *model.Network) error {
	T := len(n.Snapshots)
	r := n.Results
	if len(r.Committed) != T {
		return model.ConfigErrorf("load network", "results cover %d snapshots, network has %d", len(r.Committed), T)
	}
	for _, m := range []map[string][]float64{r.GeneratorP, r.StorageDispatch, r.StorageStore, r.StorageSOC, r.LineFlow} {
		for name, v := range m {
			if len(v) != T {
				return model.ConfigErrorf("load network", "result series %q has %d values, want %d", name, len(v), T)
			}
		}
	}
	return nil
}

func Encode(w io.Writer, n *model.Network) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewDocument(n))
}

func Decode(r io.Reader) (*model.Network, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode network document: %w", err)
	}
	return doc.ToNetwork()
}

// SaveNetwork writes n to path, creating parent directories as needed.
func SaveNetwork(path string, n *model.Network) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Encode(f, n); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func LoadNetwork(path string) (*model.Network, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}
