package export

import (
	"time"

	"grid-planner/internal/model"
)

// actionTolerance is the net storage output below which a unit counts as idle.
const actionTolerance = 1e-6

// LedgerRow is one solved quantity of one asset at one snapshot.
type LedgerRow struct {
	Index  int
	Time   time.Time
	Period int
	Weight float64

	Kind  model.ComponentKind
	Asset string
	Bus   string

	// Power is generator output, net storage output or line flow.
	Power float64
	// Store, Dispatch and SOC are set for storage units only.
	Store    float64
	Dispatch float64
	SOC      float64

	Action    model.Action
	Committed bool
}

// DispatchLedger flattens n.Results into ledger rows, snapshot by snapshot. Assets
// that are not in service at a snapshot are skipped.
func DispatchLedger(n *model.Network) []LedgerRow {
	res := n.Results
	if res == nil {
		return nil
	}
	var out []LedgerRow
	for t, s := range n.Snapshots {
		base := LedgerRow{Index: t, Time: s.Time, Period: s.Period, Weight: s.Weight, Committed: res.Committed[t]}
		for i := range n.Generators {
			g := &n.Generators[i]
			if !n.ActiveAt(g, t) {
				continue
			}
			row := base
			row.Kind, row.Asset, row.Bus = model.KindGenerator, g.Name, g.Bus
			row.Power = res.GeneratorP[g.Name][t]
			out = append(out, row)
		}
		for i := range n.StorageUnits {
			su := &n.StorageUnits[i]
			if !n.ActiveAt(su, t) {
				continue
			}
			row := base
			row.Kind, row.Asset, row.Bus = model.KindStorageUnit, su.Name, su.Bus
			row.Power = res.StorageP(su.Name, t)
			row.Store = res.StorageStore[su.Name][t]
			row.Dispatch = res.StorageDispatch[su.Name][t]
			row.SOC = res.StorageSOC[su.Name][t]
			row.Action = model.ActionFromNet(row.Power, actionTolerance)
			out = append(out, row)
		}
		for i := range n.Lines {
			l := &n.Lines[i]
			if !n.ActiveAt(l, t) {
				continue
			}
			row := base
			row.Kind, row.Asset, row.Bus = model.KindLine, l.Name, l.Bus0
			row.Power = res.LineFlow[l.Name][t]
			out = append(out, row)
		}
	}
	return out
}
