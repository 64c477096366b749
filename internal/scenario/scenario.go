// Package scenario builds ready-made planning networks for demos and tests.
package scenario

import (
	"fmt"
	"math/rand"
	"time"

	"grid-planner/internal/model"
)

// Investment periods shared by the bundled scenarios.
var Periods = []int{2020, 2030, 2040, 2050}

type Options struct {
	// Seed drives the generated load and availability profiles. Equal seeds give equal networks.
	Seed               int64
	SnapshotsPerPeriod int
	FreqHours          int
	DiscountRate       float64
}

func (o Options) withDefaults() Options {
	if o.SnapshotsPerPeriod == 0 {
		o.SnapshotsPerPeriod = 12
	}
	if o.FreqHours == 0 {
		o.FreqHours = 24
	}
	return o
}

// periodNetwork creates a network with one block of snapshots per period, ten years
// per period, and the discounted weightings for rate.
func periodNetwork(name string, perPeriod, freqHours int, rate float64) (*model.Network, error) {
	specs := make([]model.PeriodSpec, 0, len(Periods))
	for _, p := range Periods {
		specs = append(specs, model.PeriodSpec{
			Period: p,
			Start:  time.Date(p, 1, 1, 0, 0, 0, 0, time.UTC),
			Freq:   time.Duration(freqHours) * time.Hour,
			Count:  perPeriod,
		})
	}
	sns, err := model.BuildSnapshots(specs)
	if err != nil {
		return nil, err
	}
	n, err := model.NewNetwork(name, sns)
	if err != nil {
		return nil, err
	}
	w, err := model.Weightings(rate, model.SpansFromPeriods(Periods, 10))
	if err != nil {
		return nil, err
	}
	if err := n.SetWeightings(w); err != nil {
		return nil, err
	}
	return n, nil
}

func addBuses(n *model.Network, count int) error {
	for i := 0; i < count; i++ {
		if err := n.AddBus(model.Bus{Name: fmt.Sprintf("bus %d", i)}); err != nil {
			return err
		}
	}
	return nil
}

// MultiInvestment is the four-period ring network: three buses, extendable lines, a
// solar plant retiring after 2030, gas plants arriving in 2040, two storage units and
// a fixed plus a random load.
func MultiInvestment(opts Options) (*model.Network, error) {
	opts = opts.withDefaults()
	if opts.DiscountRate == 0 {
		opts.DiscountRate = 0.01
	}
	n, err := periodNetwork("multi-investment", opts.SnapshotsPerPeriod, opts.FreqHours, opts.DiscountRate)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(opts.Seed))
	T := len(n.Snapshots)

	if err := addBuses(n, 3); err != nil {
		return nil, err
	}
	lines := []model.Line{
		{Name: "line 0->1", Bus0: "bus 0", Bus1: "bus 1"},
		{Name: "line 1->2", Bus0: "bus 1", Bus1: "bus 2", CapitalCost: 10, Lifecycle: model.Lifecycle{BuildYear: 2030}},
		{Name: "line 2->0", Bus0: "bus 2", Bus1: "bus 0"},
	}
	for _, l := range lines {
		l.X = 0.0001
		l.SNomExtendable = true
		if err := n.AddLine(l); err != nil {
			return nil, err
		}
	}

	gens := []model.Generator{
		{
			Name: "generator ext 0 2020", Bus: "bus 0", Carrier: "solar",
			PNom: 50, PNomExtendable: true, MarginalCost: 2, CapitalCost: 1,
			Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 20},
		},
		{
			Name: "generator ext 0 2040", Bus: "bus 0", Carrier: "OCGT",
			PNom: 50, PNomExtendable: true, MarginalCost: 25, CapitalCost: 10,
			Lifecycle: model.Lifecycle{BuildYear: 2040, Lifetime: 11},
		},
		{
			Name: "generator fix 1 2040", Bus: "bus 1", Carrier: "CCGT",
			PNom: 50, MarginalCost: 20, CapitalCost: 1,
			Lifecycle: model.Lifecycle{BuildYear: 2040, Lifetime: 10},
		},
	}
	for _, g := range gens {
		if err := n.AddGenerator(g); err != nil {
			return nil, err
		}
	}
	solar := make([]float64, T)
	for t := range solar {
		solar[t] = rng.Float64()
	}
	if err := n.SetSeries(model.KindGenerator, "generator ext 0 2020", model.AttrPMaxPU, solar); err != nil {
		return nil, err
	}

	stores := []model.StorageUnit{
		{
			Name: "storageunit non-cyclic 2030", Bus: "bus 2", CapitalCost: 2,
			Cyclic:    model.CyclicNone,
			Lifecycle: model.Lifecycle{BuildYear: 2030, Lifetime: 21},
		},
		{
			Name: "storageunit periodic 2020", Bus: "bus 2", CapitalCost: 1,
			PNomExtendable: true, Cyclic: model.CyclicPerPeriod,
			Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 21},
		},
	}
	for _, s := range stores {
		if err := n.AddStorageUnit(s); err != nil {
			return nil, err
		}
	}

	if err := n.AddLoad(model.Load{Name: "load 2", Bus: "bus 2"}); err != nil {
		return nil, err
	}
	load := make([]float64, T)
	for t := range load {
		load[t] = 100 * rng.Float64()
	}
	if err := n.SetSeries(model.KindLoad, "load 2", model.AttrPSet, load); err != nil {
		return nil, err
	}
	if err := n.AddLoad(model.Load{Name: "load 1", Bus: "bus 1", PSet: 75}); err != nil {
		return nil, err
	}
	return n, nil
}

// Ring is a small deterministic three-bus network:
//   - "solar" at bus 0, extendable, in service 2020 through 2040, availability 0.5 / 1
//     alternating;
//   - "thermal" at bus 1, fixed 50 MW, in service from 2040;
//   - "line 1->2" extendable, the other two ring lines fixed at 100 MW;
//   - a 10 MW load at bus 1.
func Ring(opts Options) (*model.Network, error) {
	if opts.SnapshotsPerPeriod == 0 {
		opts.SnapshotsPerPeriod = 2
	}
	opts = opts.withDefaults()
	n, err := periodNetwork("ring", opts.SnapshotsPerPeriod, opts.FreqHours, opts.DiscountRate)
	if err != nil {
		return nil, err
	}
	if err := addBuses(n, 3); err != nil {
		return nil, err
	}
	lines := []model.Line{
		{Name: "line 0->1", Bus0: "bus 0", Bus1: "bus 1", SNom: 100},
		{Name: "line 1->2", Bus0: "bus 1", Bus1: "bus 2", SNomExtendable: true, CapitalCost: 10},
		{Name: "line 2->0", Bus0: "bus 2", Bus1: "bus 0", SNom: 100},
	}
	for _, l := range lines {
		if err := n.AddLine(l); err != nil {
			return nil, err
		}
	}
	if err := n.AddGenerator(model.Generator{
		Name: "solar", Bus: "bus 0", Carrier: "solar",
		PNomExtendable: true, CapitalCost: 1,
		Lifecycle: model.Lifecycle{BuildYear: 2020, Lifetime: 30},
	}); err != nil {
		return nil, err
	}
	if err := n.AddGenerator(model.Generator{
		Name: "thermal", Bus: "bus 1", Carrier: "CCGT",
		PNom: 50, MarginalCost: 20,
		Lifecycle: model.Lifecycle{BuildYear: 2040},
	}); err != nil {
		return nil, err
	}
	avail := make([]float64, len(n.Snapshots))
	for t := range avail {
		avail[t] = 0.5
		if t%2 == 1 {
			avail[t] = 1
		}
	}
	if err := n.SetSeries(model.KindGenerator, "solar", model.AttrPMaxPU, avail); err != nil {
		return nil, err
	}
	if err := n.AddLoad(model.Load{Name: "load", Bus: "bus 1", PSet: 10}); err != nil {
		return nil, err
	}
	return n, nil
}
