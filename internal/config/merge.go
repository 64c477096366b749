package config

import (
	"grid-planner/internal/model"
)

// MergeNetwork overlays the inline components onto n. Components whose name already
// exists are merged field by field, new ones are added. Series replace whatever the
// base network had for the same key.
func MergeNetwork(n *model.Network, nc NetworkConfig) error {
	for _, b := range nc.Buses {
		if n.BusIndex(b.Name) >= 0 {
			continue
		}
		if err := n.AddBus(b); err != nil {
			return err
		}
	}
	for _, l := range nc.Lines {
		if i := indexOf(len(n.Lines), func(i int) string { return n.Lines[i].Name }, l.Name); i >= 0 {
			n.Lines[i] = MergeLine(n.Lines[i], l)
			continue
		}
		if err := n.AddLine(l); err != nil {
			return err
		}
	}
	for _, g := range nc.Generators {
		if i := indexOf(len(n.Generators), func(i int) string { return n.Generators[i].Name }, g.Name); i >= 0 {
			n.Generators[i] = MergeGenerator(n.Generators[i], g)
			continue
		}
		if err := n.AddGenerator(g); err != nil {
			return err
		}
	}
	for _, s := range nc.StorageUnits {
		if i := indexOf(len(n.StorageUnits), func(i int) string { return n.StorageUnits[i].Name }, s.Name); i >= 0 {
			n.StorageUnits[i] = MergeStorageUnit(n.StorageUnits[i], s)
			continue
		}
		if err := n.AddStorageUnit(s); err != nil {
			return err
		}
	}
	for _, l := range nc.Loads {
		if i := indexOf(len(n.Loads), func(i int) string { return n.Loads[i].Name }, l.Name); i >= 0 {
			n.Loads[i] = l
			continue
		}
		if err := n.AddLoad(l); err != nil {
			return err
		}
	}
	// merged components skipped the Add* checks
	if err := n.Validate(); err != nil {
		return err
	}
	for _, s := range nc.Series {
		if err := n.SetSeries(s.Kind, s.Name, s.Attr, s.Values); err != nil {
			return err
		}
	}
	return nil
}

func indexOf(count int, name func(int) string, want string) int {
	for i := 0; i < count; i++ {
		if name(i) == want {
			return i
		}
	}
	return -1
}

// MergeGenerator overlays the non-zero fields of override onto base.
// Boolean flags can only be switched on.
func MergeGenerator(base, override model.Generator) model.Generator {
	out := base
	if override.Bus != "" {
		out.Bus = override.Bus
	}
	if override.Carrier != "" {
		out.Carrier = override.Carrier
	}
	if override.PNom != 0 {
		out.PNom = override.PNom
	}
	if override.PNomExtendable {
		out.PNomExtendable = true
	}
	if override.PNomMin != 0 {
		out.PNomMin = override.PNomMin
	}
	if override.PNomMax != 0 {
		out.PNomMax = override.PNomMax
	}
	if override.PMaxPU != 0 {
		out.PMaxPU = override.PMaxPU
	}
	if override.PMinPU != 0 {
		out.PMinPU = override.PMinPU
	}
	if override.MarginalCost != 0 {
		out.MarginalCost = override.MarginalCost
	}
	if override.CapitalCost != 0 {
		out.CapitalCost = override.CapitalCost
	}
	out.Lifecycle = mergeLifecycle(base.Lifecycle, override.Lifecycle)
	return out
}

func MergeStorageUnit(base, override model.StorageUnit) model.StorageUnit {
	out := base
	if override.Bus != "" {
		out.Bus = override.Bus
	}
	if override.Carrier != "" {
		out.Carrier = override.Carrier
	}
	if override.PNom != 0 {
		out.PNom = override.PNom
	}
	if override.PNomExtendable {
		out.PNomExtendable = true
	}
	if override.PNomMin != 0 {
		out.PNomMin = override.PNomMin
	}
	if override.PNomMax != 0 {
		out.PNomMax = override.PNomMax
	}
	if override.MaxHours != 0 {
		out.MaxHours = override.MaxHours
	}
	if override.EfficiencyStore != 0 {
		out.EfficiencyStore = override.EfficiencyStore
	}
	if override.EfficiencyDispatch != 0 {
		out.EfficiencyDispatch = override.EfficiencyDispatch
	}
	if override.StandingLoss != 0 {
		out.StandingLoss = override.StandingLoss
	}
	// Note: an initial level of 0 is common, so only a non-zero override applies.
	if override.SOCInitial != 0 {
		out.SOCInitial = override.SOCInitial
	}
	if override.Cyclic != "" {
		out.Cyclic = override.Cyclic
	}
	if override.MarginalCost != 0 {
		out.MarginalCost = override.MarginalCost
	}
	if override.CapitalCost != 0 {
		out.CapitalCost = override.CapitalCost
	}
	out.Lifecycle = mergeLifecycle(base.Lifecycle, override.Lifecycle)
	return out
}

func MergeLine(base, override model.Line) model.Line {
	out := base
	if override.Bus0 != "" {
		out.Bus0 = override.Bus0
	}
	if override.Bus1 != "" {
		out.Bus1 = override.Bus1
	}
	if override.SNom != 0 {
		out.SNom = override.SNom
	}
	if override.SNomExtendable {
		out.SNomExtendable = true
	}
	if override.SNomMin != 0 {
		out.SNomMin = override.SNomMin
	}
	if override.SNomMax != 0 {
		out.SNomMax = override.SNomMax
	}
	if override.CapitalCost != 0 {
		out.CapitalCost = override.CapitalCost
	}
	if override.X != 0 {
		out.X = override.X
	}
	out.Lifecycle = mergeLifecycle(base.Lifecycle, override.Lifecycle)
	return out
}

func mergeLifecycle(base, override model.Lifecycle) model.Lifecycle {
	out := base
	if override.BuildYear != 0 {
		out.BuildYear = override.BuildYear
	}
	if override.Lifetime != 0 {
		out.Lifetime = override.Lifetime
	}
	return out
}
