package analysis

import (
	"math"
	"sort"

	"grid-planner/internal/model"
)

type RankedGenerator struct {
	Name    string  `json:"name"`
	Carrier string  `json:"carrier,omitempty"`
	Energy  float64 `json:"energy"`
	Share   float64 `json:"share"`
}

// RankByGeneration sorts generators by total energy produced, descending.
func RankByGeneration(n *model.Network) ([]RankedGenerator, error) {
	byPeriod, err := GenerationByPeriod(n)
	if err != nil {
		return nil, err
	}
	total := 0.0
	out := make([]RankedGenerator, 0, len(n.Generators))
	for _, g := range n.Generators {
		e := 0.0
		for _, p := range byPeriod {
			e += p.Values[g.Name]
		}
		total += e
		out = append(out, RankedGenerator{Name: g.Name, Carrier: g.Carrier, Energy: e})
	}
	if total > 0 {
		for i := range out {
			out[i].Share = out[i].Energy / total
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Energy > out[j].Energy
	})
	return out, nil
}

// RunComparison contrasts the objectives of two solved copies of a network.
type RunComparison struct {
	BaseMode      string  `json:"base_mode"`
	OtherMode     string  `json:"other_mode"`
	BaseObjective float64 `json:"base_objective"`
	Objective     float64 `json:"objective"`
	Gap           float64 `json:"gap"`
	// RelativeGap is Gap over |BaseObjective|, 0 when the base objective is 0.
	RelativeGap float64 `json:"relative_gap"`
	// MaxCapacityDelta is the largest absolute capacity difference over all assets.
	MaxCapacityDelta float64 `json:"max_capacity_delta"`
}

func CompareRuns(base, other *model.Network) (RunComparison, error) {
	if base.Results == nil || other.Results == nil {
		return RunComparison{}, model.ConfigErrorf("compare runs", "both networks must be solved")
	}
	a, b := base.Results, other.Results
	c := RunComparison{
		BaseMode:      a.Mode,
		OtherMode:     b.Mode,
		BaseObjective: a.Objective,
		Objective:     b.Objective,
		Gap:           b.Objective - a.Objective,
	}
	if a.Objective != 0 {
		c.RelativeGap = c.Gap / math.Abs(a.Objective)
	}
	for _, pair := range [][2]map[string]float64{
		{a.GeneratorPNom, b.GeneratorPNom},
		{a.StoragePNom, b.StoragePNom},
		{a.LineSNom, b.LineSNom},
	} {
		for name, v := range pair[0] {
			c.MaxCapacityDelta = math.Max(c.MaxCapacityDelta, math.Abs(v-pair[1][name]))
		}
	}
	return c, nil
}
