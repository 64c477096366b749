package analysis

import (
	"grid-planner/internal/model"
)

// PeriodValues maps asset name to a value within one investment period.
type PeriodValues struct {
	Period int                `json:"period"`
	Values map[string]float64 `json:"values"`
	Total  float64            `json:"total"`
}

func (p *PeriodValues) add(name string, v float64) {
	p.Values[name] += v
	p.Total += v
}

func periodTable(n *model.Network) ([]PeriodValues, map[int]int) {
	periods := n.Periods()
	if periods == nil {
		periods = []int{0}
	}
	out := make([]PeriodValues, len(periods))
	idx := make(map[int]int, len(periods))
	for i, p := range periods {
		out[i] = PeriodValues{Period: p, Values: map[string]float64{}}
		idx[p] = i
	}
	return out, idx
}

// CapacityByPeriod is the optimal capacity of every asset of kind that is in service in
// each period; retired or not-yet-built assets contribute zero.
func CapacityByPeriod(n *model.Network, kind model.ComponentKind) ([]PeriodValues, error) {
	res := n.Results
	if res == nil {
		return nil, model.ConfigErrorf("capacity by period", "network %q is not solved", n.Name)
	}
	var caps map[string]float64
	switch kind {
	case model.KindGenerator:
		caps = res.GeneratorPNom
	case model.KindStorageUnit:
		caps = res.StoragePNom
	case model.KindLine:
		caps = res.LineSNom
	default:
		return nil, model.ConfigErrorf("capacity by period", "%s has no capacity", kind)
	}

	out, _ := periodTable(n)
	for _, a := range n.Assets() {
		if a.AssetKind() != kind {
			continue
		}
		for i := range out {
			v := 0.0
			if out[i].Period == 0 || model.IsActive(a, out[i].Period) {
				v = caps[a.AssetName()]
			}
			out[i].add(a.AssetName(), v)
		}
	}
	return out, nil
}

// GenerationByPeriod is the energy produced by each generator per period: the sum of
// output times snapshot weight over committed snapshots.
func GenerationByPeriod(n *model.Network) ([]PeriodValues, error) {
	res := n.Results
	if res == nil {
		return nil, model.ConfigErrorf("generation by period", "network %q is not solved", n.Name)
	}
	out, idx := periodTable(n)
	for _, g := range n.Generators {
		for i := range out {
			out[i].Values[g.Name] = 0
		}
		for t, s := range n.Snapshots {
			if !res.Committed[t] {
				continue
			}
			out[idx[s.Period]].add(g.Name, s.Weight*res.GeneratorP[g.Name][t])
		}
	}
	return out, nil
}
