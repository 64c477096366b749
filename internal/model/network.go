package model

import (
	"fmt"
	"sync/atomic"
)

// Network owns the assets, the temporal index and the results of a planning problem.
// It is built by a driver, then handed to exactly one optimizer at a time.
type Network struct {
	Name       string            `json:"name"`
	Snapshots  []Snapshot        `json:"snapshots"`
	Weightings []PeriodWeighting `json:"weightings,omitempty"`

	Buses        []Bus         `json:"buses"`
	Lines        []Line        `json:"lines"`
	Generators   []Generator   `json:"generators"`
	StorageUnits []StorageUnit `json:"storage_units"`
	Loads        []Load        `json:"loads"`

	Series  Series   `json:"-"`
	Results *Results `json:"results,omitempty"`

	solving atomic.Bool
}

// NewNetwork creates an empty network over the given snapshots.
func NewNetwork(name string, snapshots []Snapshot) (*Network, error) {
	if err := ValidateSnapshots(snapshots); err != nil {
		return nil, err
	}
	return &Network{
		Name:      name,
		Snapshots: append([]Snapshot(nil), snapshots...),
		Series:    Series{},
	}, nil
}

// HasPeriods reports whether snapshots are grouped into investment periods.
func (n *Network) HasPeriods() bool {
	return len(n.Snapshots) > 0 && n.Snapshots[0].Period != 0
}

// Periods lists the distinct period keys in snapshot order.
func (n *Network) Periods() []int {
	if !n.HasPeriods() {
		return nil
	}
	var out []int
	for i, s := range n.Snapshots {
		if i == 0 || s.Period != n.Snapshots[i-1].Period {
			out = append(out, s.Period)
		}
	}
	return out
}

// SetWeightings installs the period weighting table. Every period present in the
// snapshots needs exactly one entry.
func (n *Network) SetWeightings(w []PeriodWeighting) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	periods := n.Periods()
	if len(periods) != len(w) {
		return ConfigErrorf("set weightings", "%d weightings for %d periods", len(w), len(periods))
	}
	for i, p := range periods {
		if w[i].Period != p {
			return ConfigErrorf("set weightings", "weighting %d is for period %d, want %d", i, w[i].Period, p)
		}
	}
	n.Weightings = append([]PeriodWeighting(nil), w...)
	return nil
}

// Weighting returns the weighting of period p. Networks without periods weigh every
// snapshot with 1 and never discount.
func (n *Network) Weighting(p int) PeriodWeighting {
	for _, w := range n.Weightings {
		if w.Period == p {
			return w
		}
	}
	return PeriodWeighting{Period: p, Years: 1, Objective: 1}
}

func (n *Network) checkBuilding() error {
	if n.solving.Load() {
		return ErrNetworkBusy
	}
	return nil
}

// BeginSolve marks the network as being solved. The returned func ends the solve.
func (n *Network) BeginSolve() (func(), error) {
	if !n.solving.CompareAndSwap(false, true) {
		return nil, ErrNetworkBusy
	}
	return func() { n.solving.Store(false) }, nil
}

func (n *Network) AddBus(b Bus) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	if b.Name == "" {
		return ConfigErrorf("add bus", "name is required")
	}
	if n.BusIndex(b.Name) >= 0 {
		return ConfigErrorf("add bus", "duplicate bus %q", b.Name)
	}
	n.Buses = append(n.Buses, b)
	return nil
}

func (n *Network) AddLine(l Line) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	if err := n.checkNew(KindLine, l.Name, l.Bus0, l.Bus1); err != nil {
		return err
	}
	if err := l.Validate(); err != nil {
		return ConfigErrorf("add line", "%s: %w", l.Name, err)
	}
	n.Lines = append(n.Lines, l)
	return nil
}

func (n *Network) AddGenerator(g Generator) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	if err := n.checkNew(KindGenerator, g.Name, g.Bus); err != nil {
		return err
	}
	g.applyDefaults()
	if err := g.Validate(); err != nil {
		return ConfigErrorf("add generator", "%s: %w", g.Name, err)
	}
	n.Generators = append(n.Generators, g)
	return nil
}

func (n *Network) AddStorageUnit(s StorageUnit) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	if err := n.checkNew(KindStorageUnit, s.Name, s.Bus); err != nil {
		return err
	}
	s.applyDefaults()
	if err := s.Validate(); err != nil {
		return ConfigErrorf("add storage unit", "%s: %w", s.Name, err)
	}
	if s.Cyclic == CyclicPerPeriod && !n.HasPeriods() {
		return ConfigErrorf("add storage unit", "%s: per-period cyclic storage needs investment periods", s.Name)
	}
	n.StorageUnits = append(n.StorageUnits, s)
	return nil
}

func (n *Network) AddLoad(l Load) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	if err := n.checkNew(KindLoad, l.Name, l.Bus); err != nil {
		return err
	}
	n.Loads = append(n.Loads, l)
	return nil
}

// SetSeries attaches a time series to an existing component.
func (n *Network) SetSeries(kind ComponentKind, name, attr string, values []float64) error {
	if err := n.checkBuilding(); err != nil {
		return err
	}
	key := SeriesKey{Kind: kind, Name: name, Attr: attr}
	if err := validateSeriesKey(key, len(n.Snapshots), values); err != nil {
		return ConfigErrorf("set series", "%w", err)
	}
	if !n.hasComponent(kind, name) {
		return ConfigErrorf("set series", "unknown %s %q", kind, name)
	}
	if n.Series == nil {
		n.Series = Series{}
	}
	n.Series[key] = append([]float64(nil), values...)
	return nil
}

func (n *Network) checkNew(kind ComponentKind, name string, buses ...string) error {
	op := "add " + string(kind)
	if name == "" {
		return ConfigErrorf(op, "name is required")
	}
	if n.hasComponent(kind, name) {
		return ConfigErrorf(op, "duplicate %s %q", kind, name)
	}
	for _, b := range buses {
		if n.BusIndex(b) < 0 {
			return ConfigErrorf(op, "%s %q references unknown bus %q", kind, name, b)
		}
	}
	return nil
}

func (n *Network) hasComponent(kind ComponentKind, name string) bool {
	switch kind {
	case KindBus:
		return n.BusIndex(name) >= 0
	case KindLine:
		for i := range n.Lines {
			if n.Lines[i].Name == name {
				return true
			}
		}
	case KindGenerator:
		for i := range n.Generators {
			if n.Generators[i].Name == name {
				return true
			}
		}
	case KindStorageUnit:
		for i := range n.StorageUnits {
			if n.StorageUnits[i].Name == name {
				return true
			}
		}
	case KindLoad:
		for i := range n.Loads {
			if n.Loads[i].Name == name {
				return true
			}
		}
	}
	return false
}

func (n *Network) BusIndex(name string) int {
	for i := range n.Buses {
		if n.Buses[i].Name == name {
			return i
		}
	}
	return -1
}

// Validate re-checks a network assembled without the Add methods (e.g. decoded from a
// file) and applies the same defaults the Add methods apply.
func (n *Network) Validate() error {
	if err := ValidateSnapshots(n.Snapshots); err != nil {
		return err
	}
	if n.HasPeriods() && len(n.Weightings) > 0 {
		if err := n.SetWeightings(n.Weightings); err != nil {
			return err
		}
	}
	fresh := &Network{Name: n.Name, Snapshots: n.Snapshots, Weightings: n.Weightings, Series: Series{}}
	for _, b := range n.Buses {
		if err := fresh.AddBus(b); err != nil {
			return err
		}
	}
	for _, l := range n.Lines {
		if err := fresh.AddLine(l); err != nil {
			return err
		}
	}
	for _, g := range n.Generators {
		if err := fresh.AddGenerator(g); err != nil {
			return err
		}
	}
	for _, s := range n.StorageUnits {
		if err := fresh.AddStorageUnit(s); err != nil {
			return err
		}
	}
	for _, l := range n.Loads {
		if err := fresh.AddLoad(l); err != nil {
			return err
		}
	}
	for k, v := range n.Series {
		if err := fresh.SetSeries(k.Kind, k.Name, k.Attr, v); err != nil {
			return err
		}
	}
	n.Generators = fresh.Generators
	n.StorageUnits = fresh.StorageUnits
	return nil
}

// Clone returns a deep copy sharing no mutable state with n. The copy is not being solved.
func (n *Network) Clone() *Network {
	return &Network{
		Name:         n.Name,
		Snapshots:    append([]Snapshot(nil), n.Snapshots...),
		Weightings:   append([]PeriodWeighting(nil), n.Weightings...),
		Buses:        append([]Bus(nil), n.Buses...),
		Lines:        append([]Line(nil), n.Lines...),
		Generators:   append([]Generator(nil), n.Generators...),
		StorageUnits: append([]StorageUnit(nil), n.StorageUnits...),
		Loads:        append([]Load(nil), n.Loads...),
		Series:       n.Series.clone(),
		Results:      n.Results.clone(),
	}
}

func (n *Network) String() string {
	return fmt.Sprintf("network %q: %d snapshots, %d buses, %d lines, %d generators, %d storage units, %d loads",
		n.Name, len(n.Snapshots), len(n.Buses), len(n.Lines), len(n.Generators), len(n.StorageUnits), len(n.Loads))
}
