package model

import "fmt"

// Time-varying attribute names.
const (
	AttrPMaxPU       = "p_max_pu"
	AttrPMinPU       = "p_min_pu"
	AttrMarginalCost = "marginal_cost"
	AttrPSet         = "p_set"
	AttrInflow       = "inflow"
)

var seriesAttrs = map[ComponentKind]map[string]bool{
	KindGenerator:   {AttrPMaxPU: true, AttrPMinPU: true, AttrMarginalCost: true},
	KindStorageUnit: {AttrPMaxPU: true, AttrInflow: true, AttrMarginalCost: true},
	KindLoad:        {AttrPSet: true},
}

// SeriesKey addresses one time series: (component kind, name, attribute).
type SeriesKey struct {
	Kind ComponentKind `json:"kind"`
	Name string        `json:"name"`
	Attr string        `json:"attr"`
}

// Series is a sparse map of per-snapshot values. A missing key means the static
// attribute applies to every snapshot.
type Series map[SeriesKey][]float64

// At returns the value of key at snapshot t, or def when no series is attached.
func (s Series) At(key SeriesKey, t int, def float64) float64 {
	if v, ok := s[key]; ok {
		return v[t]
	}
	return def
}

func (s Series) clone() Series {
	out := make(Series, len(s))
	for k, v := range s {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

func validateSeriesKey(key SeriesKey, n int, values []float64) error {
	attrs, ok := seriesAttrs[key.Kind]
	if !ok || !attrs[key.Attr] {
		return fmt.Errorf("%s has no time-varying attribute %q", key.Kind, key.Attr)
	}
	if len(values) != n {
		return fmt.Errorf("series %s/%s/%s has %d values, want %d", key.Kind, key.Name, key.Attr, len(values), n)
	}
	return nil
}
