package analysis

import (
	"math"
	"sort"

	"grid-planner/internal/model"
)

// SeriesStats summarizes one solved series over the committed snapshots.
type SeriesStats struct {
	Kind model.ComponentKind `json:"kind"`
	Name string              `json:"name"`

	Count int `json:"count"`

	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	P05  float64 `json:"p05"`
	P95  float64 `json:"p95"`

	SpreadP95P05 float64 `json:"spread_p95_p05"`
}

func ComputeStats(kind model.ComponentKind, name string, values []float64) SeriesStats {
	s := SeriesStats{Kind: kind, Name: name}
	if len(values) == 0 {
		return s
	}
	s.Count = len(values)

	sum := 0.0
	minv := math.Inf(1)
	maxv := math.Inf(-1)
	vals := make([]float64, 0, len(values))
	for _, v := range values {
		vals = append(vals, v)
		sum += v
		if v < minv {
			minv = v
		}
		if v > maxv {
			maxv = v
		}
	}
	sort.Float64s(vals)
	s.Min = minv
	s.Max = maxv
	s.Mean = sum / float64(len(vals))
	s.P05 = percentileSorted(vals, 0.05)
	s.P95 = percentileSorted(vals, 0.95)
	s.SpreadP95P05 = s.P95 - s.P05
	return s
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// DispatchStats summarizes generator output, net storage output and line flow of a
// solved network. Only committed snapshots where the asset is active are counted.
func DispatchStats(n *model.Network) []SeriesStats {
	res := n.Results
	if res == nil {
		return nil
	}
	collect := func(a model.Asset, series func(t int) float64) []float64 {
		var out []float64
		for t := range n.Snapshots {
			if res.Committed[t] && n.ActiveAt(a, t) {
				out = append(out, series(t))
			}
		}
		return out
	}

	var out []SeriesStats
	for i := range n.Generators {
		g := &n.Generators[i]
		out = append(out, ComputeStats(model.KindGenerator, g.Name,
			collect(g, func(t int) float64 { return res.GeneratorP[g.Name][t] })))
	}
	for i := range n.StorageUnits {
		s := &n.StorageUnits[i]
		out = append(out, ComputeStats(model.KindStorageUnit, s.Name,
			collect(s, func(t int) float64 { return res.StorageP(s.Name, t) })))
	}
	for i := range n.Lines {
		l := &n.Lines[i]
		out = append(out, ComputeStats(model.KindLine, l.Name,
			collect(l, func(t int) float64 { return res.LineFlow[l.Name][t] })))
	}
	return out
}
