package optimize

import (
	"fmt"
	"math"

	"grid-planner/internal/model"
	"grid-planner/internal/solver"
)

type varKey struct {
	kind  model.ComponentKind
	asset int
	t     int
}

type capKey struct {
	kind  model.ComponentKind
	asset int
}

// storageSeed fixes the storage level entering the first snapshot of a window.
type storageSeed struct {
	before float64
	// start, when set, also pins the level at the first snapshot itself.
	start *float64
}

// buildSpec describes which slice of the network a Model covers.
type buildSpec struct {
	snapshots []int
	// cyclic applies the storage units' cyclic boundary conditions.
	cyclic bool
	seeds  map[int]storageSeed
	// capitalShare scales capital cost per period key; 1 for a full solve.
	capitalShare map[int]float64
	weighting    CapitalWeighting
}

// Model is a built optimization problem plus the index from network quantities to
// problem columns. Only active (asset, snapshot) pairs own columns.
type Model struct {
	Problem   *solver.Problem
	Snapshots []int

	net      *model.Network
	dispatch map[varKey]int
	store    map[varKey]int
	soc      map[varKey]int
	capacity map[capKey]int
}

// Build constructs the model over the given snapshot indices without solving it.
// A nil snapshots slice selects every snapshot of n; cyclic storage conditions are
// applied only in that case.
func Build(n *model.Network, snapshots []int, opts Options) (*Model, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if snapshots == nil {
		return build(n, fullSpec(n, opts.CapitalWeighting))
	}
	for i, t := range snapshots {
		if t < 0 || t >= len(n.Snapshots) || (i > 0 && t <= snapshots[i-1]) {
			return nil, model.ConfigErrorf("build", "snapshot %d out of range or out of order", t)
		}
	}
	return build(n, buildSpec{
		snapshots:    snapshots,
		capitalShare: periodShares(n, snapshots),
		weighting:    opts.CapitalWeighting,
	})
}

func fullSpec(n *model.Network, w CapitalWeighting) buildSpec {
	sns := make([]int, len(n.Snapshots))
	for i := range sns {
		sns[i] = i
	}
	return buildSpec{snapshots: sns, cyclic: true, weighting: w}
}

// DispatchVar returns the column of the dispatch (generator output, storage dispatch,
// line flow) of the named asset at network snapshot t.
func (m *Model) DispatchVar(kind model.ComponentKind, name string, t int) (int, bool) {
	i := assetIndex(m.net, kind, name)
	if i < 0 {
		return 0, false
	}
	j, ok := m.dispatch[varKey{kind, i, t}]
	return j, ok
}

// SOCVar returns the state-of-charge column of a storage unit at snapshot t.
func (m *Model) SOCVar(name string, t int) (int, bool) {
	i := assetIndex(m.net, model.KindStorageUnit, name)
	if i < 0 {
		return 0, false
	}
	j, ok := m.soc[varKey{model.KindStorageUnit, i, t}]
	return j, ok
}

// CapacityVar returns the capacity column of an extendable asset.
func (m *Model) CapacityVar(kind model.ComponentKind, name string) (int, bool) {
	i := assetIndex(m.net, kind, name)
	if i < 0 {
		return 0, false
	}
	j, ok := m.capacity[capKey{kind, i}]
	return j, ok
}

// periodShares is the fraction of each period's snapshot weight covered by snapshots.
func periodShares(n *model.Network, snapshots []int) map[int]float64 {
	total := map[int]float64{}
	for _, s := range n.Snapshots {
		total[s.Period] += s.Weight
	}
	covered := map[int]float64{}
	for _, t := range snapshots {
		covered[n.Snapshots[t].Period] += n.Snapshots[t].Weight
	}
	out := make(map[int]float64, len(covered))
	for p, w := range covered {
		out[p] = w / total[p]
	}
	return out
}

func assetIndex(n *model.Network, kind model.ComponentKind, name string) int {
	switch kind {
	case model.KindGenerator:
		for i := range n.Generators {
			if n.Generators[i].Name == name {
				return i
			}
		}
	case model.KindStorageUnit:
		for i := range n.StorageUnits {
			if n.StorageUnits[i].Name == name {
				return i
			}
		}
	case model.KindLine:
		for i := range n.Lines {
			if n.Lines[i].Name == name {
				return i
			}
		}
	}
	return -1
}

type builder struct {
	n    *model.Network
	spec buildSpec
	m    *Model
	// opWeight is the objective weight of one unit of power at each model snapshot.
	opWeight map[int]float64
}

func build(n *model.Network, spec buildSpec) (*Model, error) {
	if len(spec.snapshots) == 0 {
		return nil, model.ConfigErrorf("build", "no snapshots to optimize")
	}
	b := &builder{
		n:    n,
		spec: spec,
		m: &Model{
			Problem:   &solver.Problem{},
			Snapshots: spec.snapshots,
			net:       n,
			dispatch:  map[varKey]int{},
			store:     map[varKey]int{},
			soc:       map[varKey]int{},
			capacity:  map[capKey]int{},
		},
		opWeight: make(map[int]float64, len(spec.snapshots)),
	}
	for _, t := range spec.snapshots {
		s := n.Snapshots[t]
		b.opWeight[t] = n.Weighting(s.Period).Objective * s.Weight
	}

	b.addCapacities()
	b.addGenerators()
	b.addStorage()
	b.addLines()
	b.addCycles()
	b.addBalance()
	return b.m, nil
}

// capitalCoef is the objective coefficient of one unit of capacity of a.
func (b *builder) capitalCoef(a model.Sized) float64 {
	if a.Capital() == 0 {
		return 0
	}
	total := 0.0
	seen := map[int]bool{}
	for _, t := range b.spec.snapshots {
		p := b.n.Snapshots[t].Period
		if seen[p] || !b.n.ActiveAt(a, t) {
			continue
		}
		seen[p] = true
		w := b.n.Weighting(p)
		weight := w.Years
		if b.spec.weighting == CapitalByObjective {
			weight = w.Objective
		}
		share := 1.0
		if b.spec.capitalShare != nil {
			share = b.spec.capitalShare[p]
		}
		total += weight * share
	}
	return a.Capital() * total
}

func (b *builder) activeSomewhere(a model.Asset) bool {
	for _, t := range b.spec.snapshots {
		if b.n.ActiveAt(a, t) {
			return true
		}
	}
	return false
}

func (b *builder) addCapacity(kind model.ComponentKind, i int, a model.Sized) {
	if !a.IsExtendable() || !b.activeSomewhere(a) {
		return
	}
	lo, hi := a.NominalBounds()
	if hi == 0 {
		hi = math.Inf(1)
	}
	name := fmt.Sprintf("%s-nom[%s]", kind, a.AssetName())
	b.m.capacity[capKey{kind, i}] = b.m.Problem.AddColumn(name, lo, hi, b.capitalCoef(a))
}

func (b *builder) addCapacities() {
	for i := range b.n.Generators {
		b.addCapacity(model.KindGenerator, i, &b.n.Generators[i])
	}
	for i := range b.n.StorageUnits {
		b.addCapacity(model.KindStorageUnit, i, &b.n.StorageUnits[i])
	}
	for i := range b.n.Lines {
		b.addCapacity(model.KindLine, i, &b.n.Lines[i])
	}
}

func (b *builder) series(kind model.ComponentKind, name, attr string, t int, def float64) float64 {
	return b.n.Series.At(model.SeriesKey{Kind: kind, Name: name, Attr: attr}, t, def)
}

func (b *builder) addGenerators() {
	p := b.m.Problem
	for i := range b.n.Generators {
		g := &b.n.Generators[i]
		capCol, ext := b.m.capacity[capKey{model.KindGenerator, i}]
		for _, t := range b.spec.snapshots {
			if !b.n.ActiveAt(g, t) {
				continue
			}
			pmax := b.series(model.KindGenerator, g.Name, model.AttrPMaxPU, t, g.PMaxPU)
			pmin := b.series(model.KindGenerator, g.Name, model.AttrPMinPU, t, g.PMinPU)
			mc := b.series(model.KindGenerator, g.Name, model.AttrMarginalCost, t, g.MarginalCost)
			name := fmt.Sprintf("p[%s,%d]", g.Name, t)
			cost := b.opWeight[t] * mc

			var col int
			if ext {
				lo := 0.0
				if pmin < 0 {
					lo = math.Inf(-1)
				}
				col = p.AddColumn(name, lo, math.Inf(1), cost)
				p.AddRow("pmax"+name[1:], solver.LE, 0, solver.Term{Col: col, Coef: 1}, solver.Term{Col: capCol, Coef: -pmax})
				if pmin != 0 {
					p.AddRow("pmin"+name[1:], solver.GE, 0, solver.Term{Col: col, Coef: 1}, solver.Term{Col: capCol, Coef: -pmin})
				}
			} else {
				col = p.AddColumn(name, pmin*g.PNom, pmax*g.PNom, cost)
			}
			b.m.dispatch[varKey{model.KindGenerator, i, t}] = col
		}
	}
}

func (b *builder) addStorage() {
	p := b.m.Problem
	for i := range b.n.StorageUnits {
		s := &b.n.StorageUnits[i]
		capCol, ext := b.m.capacity[capKey{model.KindStorageUnit, i}]
		var active []int
		for _, t := range b.spec.snapshots {
			if !b.n.ActiveAt(s, t) {
				continue
			}
			active = append(active, t)
			pmax := b.series(model.KindStorageUnit, s.Name, model.AttrPMaxPU, t, 1)
			mc := b.series(model.KindStorageUnit, s.Name, model.AttrMarginalCost, t, s.MarginalCost)
			key := varKey{model.KindStorageUnit, i, t}
			dn := fmt.Sprintf("dispatch[%s,%d]", s.Name, t)
			sn := fmt.Sprintf("store[%s,%d]", s.Name, t)
			en := fmt.Sprintf("soc[%s,%d]", s.Name, t)
			if ext {
				d := p.AddColumn(dn, 0, math.Inf(1), b.opWeight[t]*mc)
				st := p.AddColumn(sn, 0, math.Inf(1), 0)
				e := p.AddColumn(en, 0, math.Inf(1), 0)
				p.AddRow("max-"+dn, solver.LE, 0, solver.Term{Col: d, Coef: 1}, solver.Term{Col: capCol, Coef: -pmax})
				p.AddRow("max-"+sn, solver.LE, 0, solver.Term{Col: st, Coef: 1}, solver.Term{Col: capCol, Coef: -1})
				p.AddRow("max-"+en, solver.LE, 0, solver.Term{Col: e, Coef: 1}, solver.Term{Col: capCol, Coef: -s.MaxHours})
				b.m.dispatch[key], b.m.store[key], b.m.soc[key] = d, st, e
			} else {
				b.m.dispatch[key] = p.AddColumn(dn, 0, pmax*s.PNom, b.opWeight[t]*mc)
				b.m.store[key] = p.AddColumn(sn, 0, s.PNom, 0)
				b.m.soc[key] = p.AddColumn(en, 0, s.MaxHours*s.PNom, 0)
			}
		}
		if seed, ok := b.spec.seeds[i]; ok && seed.start != nil && len(active) > 0 && active[0] == b.spec.snapshots[0] {
			col := &p.Cols[b.m.soc[varKey{model.KindStorageUnit, i, active[0]}]]
			col.Lower, col.Upper = *seed.start, *seed.start
		}
		for _, group := range b.socGroups(s, active) {
			b.addSOCTransitions(i, s, group)
		}
	}
}

// socGroups splits a storage unit's active snapshots into the chains that share one
// boundary condition: one chain per period for per-period cyclic storage, else one.
func (b *builder) socGroups(s *model.StorageUnit, active []int) [][]int {
	if len(active) == 0 {
		return nil
	}
	if !b.spec.cyclic || s.Cyclic != model.CyclicPerPeriod {
		return [][]int{active}
	}
	var out [][]int
	start := 0
	for k := 1; k <= len(active); k++ {
		if k == len(active) || b.n.Snapshots[active[k]].Period != b.n.Snapshots[active[start]].Period {
			out = append(out, active[start:k])
			start = k
		}
	}
	return out
}

// addSOCTransitions adds soc[t] = soc[prev]·(1-loss)^w + w·(η_s·store − dispatch/η_d + inflow).
func (b *builder) addSOCTransitions(i int, s *model.StorageUnit, group []int) {
	p := b.m.Problem
	for k, t := range group {
		key := varKey{model.KindStorageUnit, i, t}
		w := b.n.Snapshots[t].Weight
		keep := math.Pow(1-s.StandingLoss, w)
		inflow := b.series(model.KindStorageUnit, s.Name, model.AttrInflow, t, 0)

		terms := []solver.Term{
			{Col: b.m.soc[key], Coef: 1},
			{Col: b.m.store[key], Coef: -w * s.EfficiencyStore},
			{Col: b.m.dispatch[key], Coef: w / s.EfficiencyDispatch},
		}
		rhs := w * inflow
		switch {
		case k > 0:
			prev := varKey{model.KindStorageUnit, i, group[k-1]}
			terms = append(terms, solver.Term{Col: b.m.soc[prev], Coef: -keep})
		case b.hasSeed(i, t):
			rhs += keep * b.spec.seeds[i].before
		case b.spec.cyclic && s.Cyclic != model.CyclicNone:
			last := varKey{model.KindStorageUnit, i, group[len(group)-1]}
			terms = append(terms, solver.Term{Col: b.m.soc[last], Coef: -keep})
		default:
			rhs += keep * s.SOCInitial
		}
		p.AddRow(fmt.Sprintf("soc-balance[%s,%d]", s.Name, t), solver.EQ, rhs, terms...)
	}
}

func (b *builder) hasSeed(i, t int) bool {
	_, ok := b.spec.seeds[i]
	return ok && t == b.spec.snapshots[0]
}

func (b *builder) addLines() {
	p := b.m.Problem
	for i := range b.n.Lines {
		l := &b.n.Lines[i]
		capCol, ext := b.m.capacity[capKey{model.KindLine, i}]
		for _, t := range b.spec.snapshots {
			if !b.n.ActiveAt(l, t) {
				continue
			}
			name := fmt.Sprintf("flow[%s,%d]", l.Name, t)
			var col int
			if ext {
				col = p.AddColumn(name, math.Inf(-1), math.Inf(1), 0)
				p.AddRow("max-"+name, solver.LE, 0, solver.Term{Col: col, Coef: 1}, solver.Term{Col: capCol, Coef: -1})
				p.AddRow("min-"+name, solver.GE, 0, solver.Term{Col: col, Coef: 1}, solver.Term{Col: capCol, Coef: 1})
			} else {
				col = p.AddColumn(name, -l.SNom, l.SNom, 0)
			}
			b.m.dispatch[varKey{model.KindLine, i, t}] = col
		}
	}
}

// cycleEdge is a line traversed along (+1) or against (-1) its bus0 to bus1 direction.
type cycleEdge struct {
	line int
	sign float64
}

// addCycles adds Kirchhoff's voltage law, Σ x·flow = 0, around every independent cycle
// of the lines that have a reactance. Lines with X = 0 are controllable transport
// links and take part in no cycle.
func (b *builder) addCycles() {
	p := b.m.Problem
	basis := map[int][][]cycleEdge{}
	for _, t := range b.spec.snapshots {
		period := b.n.Snapshots[t].Period
		cycles, ok := basis[period]
		if !ok {
			var lines []int
			for i := range b.n.Lines {
				if _, has := b.m.dispatch[varKey{model.KindLine, i, t}]; has && b.n.Lines[i].X > 0 {
					lines = append(lines, i)
				}
			}
			cycles = cycleBasis(b.n, lines)
			basis[period] = cycles
		}
		for k, c := range cycles {
			scale := 0.0
			for _, e := range c {
				scale = math.Max(scale, b.n.Lines[e.line].X)
			}
			terms := make([]solver.Term, 0, len(c))
			for _, e := range c {
				col := b.m.dispatch[varKey{model.KindLine, e.line, t}]
				terms = append(terms, solver.Term{Col: col, Coef: e.sign * b.n.Lines[e.line].X / scale})
			}
			p.AddRow(fmt.Sprintf("kvl[%d,%d]", k, t), solver.EQ, 0, terms...)
		}
	}
}

// cycleBasis grows a spanning forest over lines in order; every line that closes a
// loop yields one cycle: the line itself followed by the tree path back to its bus0.
func cycleBasis(n *model.Network, lines []int) [][]cycleEdge {
	type hop struct {
		to   int
		edge cycleEdge
	}
	root := make([]int, len(n.Buses))
	for i := range root {
		root[i] = i
	}
	find := func(v int) int {
		for root[v] != v {
			root[v] = root[root[v]]
			v = root[v]
		}
		return v
	}
	tree := make([][]hop, len(n.Buses))

	var out [][]cycleEdge
	for _, li := range lines {
		l := &n.Lines[li]
		u, v := n.BusIndex(l.Bus0), n.BusIndex(l.Bus1)
		if ru, rv := find(u), find(v); ru != rv {
			root[ru] = rv
			tree[u] = append(tree[u], hop{to: v, edge: cycleEdge{li, 1}})
			tree[v] = append(tree[v], hop{to: u, edge: cycleEdge{li, -1}})
			continue
		}
		// breadth-first path v -> u through the tree
		type step struct {
			from int
			edge cycleEdge
		}
		came := map[int]step{v: {from: -1}}
		queue := []int{v}
		for len(queue) > 0 && queue[0] != u {
			cur := queue[0]
			queue = queue[1:]
			for _, h := range tree[cur] {
				if _, seen := came[h.to]; !seen {
					came[h.to] = step{from: cur, edge: h.edge}
					queue = append(queue, h.to)
				}
			}
		}
		var path []cycleEdge
		for at := u; at != v; at = came[at].from {
			path = append(path, came[at].edge)
		}
		cycle := []cycleEdge{{li, 1}}
		for k := len(path) - 1; k >= 0; k-- {
			cycle = append(cycle, path[k])
		}
		out = append(out, cycle)
	}
	return out
}

// addBalance adds generation + inflow − outflow = load for every bus and snapshot.
func (b *builder) addBalance() {
	p := b.m.Problem
	for _, t := range b.spec.snapshots {
		terms := make([][]solver.Term, len(b.n.Buses))
		rhs := make([]float64, len(b.n.Buses))
		for i := range b.n.Generators {
			if col, ok := b.m.dispatch[varKey{model.KindGenerator, i, t}]; ok {
				bus := b.n.BusIndex(b.n.Generators[i].Bus)
				terms[bus] = append(terms[bus], solver.Term{Col: col, Coef: 1})
			}
		}
		for i := range b.n.StorageUnits {
			key := varKey{model.KindStorageUnit, i, t}
			if col, ok := b.m.dispatch[key]; ok {
				bus := b.n.BusIndex(b.n.StorageUnits[i].Bus)
				terms[bus] = append(terms[bus],
					solver.Term{Col: col, Coef: 1},
					solver.Term{Col: b.m.store[key], Coef: -1})
			}
		}
		for i := range b.n.Lines {
			if col, ok := b.m.dispatch[varKey{model.KindLine, i, t}]; ok {
				l := &b.n.Lines[i]
				from, to := b.n.BusIndex(l.Bus0), b.n.BusIndex(l.Bus1)
				terms[from] = append(terms[from], solver.Term{Col: col, Coef: -1})
				terms[to] = append(terms[to], solver.Term{Col: col, Coef: 1})
			}
		}
		for i := range b.n.Loads {
			ld := &b.n.Loads[i]
			bus := b.n.BusIndex(ld.Bus)
			rhs[bus] += b.series(model.KindLoad, ld.Name, model.AttrPSet, t, ld.PSet)
		}
		for bus := range b.n.Buses {
			p.AddRow(fmt.Sprintf("balance[%s,%d]", b.n.Buses[bus].Name, t), solver.EQ, rhs[bus], terms[bus]...)
		}
	}
}
