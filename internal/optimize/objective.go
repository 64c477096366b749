package optimize

import (
	"grid-planner/internal/model"
)

// EvaluateObjective prices the dispatch and capacities stored in n.Results with the
// same cost terms the multi-period model minimizes. Rolling-horizon runs report this
// stitched value, so it can be compared with a full solve directly.
func EvaluateObjective(n *model.Network, opts Options) (float64, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return 0, err
	}
	res := n.Results
	if res == nil {
		return 0, model.ConfigErrorf("evaluate objective", "network %q has no results", n.Name)
	}
	b := &builder{n: n, spec: fullSpec(n, opts.CapitalWeighting)}

	total := 0.0
	for t, s := range n.Snapshots {
		w := n.Weighting(s.Period).Objective * s.Weight
		for i := range n.Generators {
			g := &n.Generators[i]
			if !n.ActiveAt(g, t) {
				continue
			}
			mc := b.series(model.KindGenerator, g.Name, model.AttrMarginalCost, t, g.MarginalCost)
			total += w * mc * res.GeneratorP[g.Name][t]
		}
		for i := range n.StorageUnits {
			su := &n.StorageUnits[i]
			if !n.ActiveAt(su, t) {
				continue
			}
			mc := b.series(model.KindStorageUnit, su.Name, model.AttrMarginalCost, t, su.MarginalCost)
			total += w * mc * res.StorageDispatch[su.Name][t]
		}
	}
	for _, a := range n.Assets() {
		sz, ok := a.(model.Sized)
		if !ok || !sz.IsExtendable() || !b.activeSomewhere(sz) {
			continue
		}
		total += b.capitalCoef(sz) * resultCapacity(res, sz)
	}
	return total, nil
}

func resultCapacity(res *model.Results, a model.Sized) float64 {
	switch a.AssetKind() {
	case model.KindGenerator:
		return res.GeneratorPNom[a.AssetName()]
	case model.KindStorageUnit:
		return res.StoragePNom[a.AssetName()]
	case model.KindLine:
		return res.LineSNom[a.AssetName()]
	}
	return 0
}
