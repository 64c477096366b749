package optimize

import (
	"math"

	"grid-planner/internal/model"
)

// writeDispatch copies the solved operational values of the snapshots in commit into
// res and marks them committed. Inactive pairs keep their zero value.
func (m *Model) writeDispatch(res *model.Results, values []float64, commit []int) {
	n := m.net
	for _, t := range commit {
		for i := range n.Generators {
			if j, ok := m.dispatch[varKey{model.KindGenerator, i, t}]; ok {
				res.GeneratorP[n.Generators[i].Name][t] = clean(values[j])
			}
		}
		for i := range n.StorageUnits {
			key := varKey{model.KindStorageUnit, i, t}
			if j, ok := m.dispatch[key]; ok {
				name := n.StorageUnits[i].Name
				res.StorageDispatch[name][t] = clean(values[j])
				res.StorageStore[name][t] = clean(values[m.store[key]])
				res.StorageSOC[name][t] = clean(values[m.soc[key]])
			}
		}
		for i := range n.Lines {
			if j, ok := m.dispatch[varKey{model.KindLine, i, t}]; ok {
				res.LineFlow[n.Lines[i].Name][t] = clean(values[j])
			}
		}
		res.Committed[t] = true
	}
}

// capacities returns the solved capacity of every extendable asset that owns a column.
func (m *Model) capacities(values []float64) map[capKey]float64 {
	out := make(map[capKey]float64, len(m.capacity))
	for k, j := range m.capacity {
		out[k] = clean(values[j])
	}
	return out
}

func writeCapacities(n *model.Network, res *model.Results, caps map[capKey]float64) {
	for k, v := range caps {
		switch k.kind {
		case model.KindGenerator:
			res.GeneratorPNom[n.Generators[k.asset].Name] = v
		case model.KindStorageUnit:
			res.StoragePNom[n.StorageUnits[k.asset].Name] = v
		case model.KindLine:
			res.LineSNom[n.Lines[k.asset].Name] = v
		}
	}
}

// clean snaps solver noise around zero.
func clean(v float64) float64 {
	if math.Abs(v) < 1e-9 {
		return 0
	}
	return v
}
