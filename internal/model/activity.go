package model

import "fmt"

// IsActive reports whether asset a is in service at year (or period key) t:
// build_year <= t < build_year + lifetime. Assets without a build year are always active.
func IsActive(a Asset, t int) bool {
	l := a.Life()
	if l.BuildYear == 0 {
		return true
	}
	if t < l.BuildYear {
		return false
	}
	return l.Lifetime == 0 || t < l.BuildYear+l.Lifetime
}

// ActiveAt reports whether a is in service at snapshot index t of n.
func (n *Network) ActiveAt(a Asset, t int) bool {
	return IsActive(a, n.Snapshots[t].Year())
}

// ActivePeriods lists the investment periods in which a is in service.
func (n *Network) ActivePeriods(a Asset) []int {
	var out []int
	for _, p := range n.Periods() {
		if IsActive(a, p) {
			out = append(out, p)
		}
	}
	return out
}

// Warning is a non-fatal finding about a network.
type Warning struct {
	Kind    ComponentKind
	Name    string
	Message string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s %q: %s", w.Kind, w.Name, w.Message)
}

// Assets lists every asset carrying a lifecycle, in a stable order.
func (n *Network) Assets() []Asset {
	out := make([]Asset, 0, len(n.Lines)+len(n.Generators)+len(n.StorageUnits))
	for i := range n.Generators {
		out = append(out, &n.Generators[i])
	}
	for i := range n.StorageUnits {
		out = append(out, &n.StorageUnits[i])
	}
	for i := range n.Lines {
		out = append(out, &n.Lines[i])
	}
	return out
}

// AuditActivity flags assets that are in service at no snapshot. Such assets are
// allowed and contribute nothing to the optimization.
func (n *Network) AuditActivity() []Warning {
	var out []Warning
	for _, a := range n.Assets() {
		active := false
		for t := range n.Snapshots {
			if n.ActiveAt(a, t) {
				active = true
				break
			}
		}
		if !active {
			l := a.Life()
			out = append(out, Warning{
				Kind: a.AssetKind(),
				Name: a.AssetName(),
				Message: fmt.Sprintf("not active in any snapshot (build_year=%d, lifetime=%d)",
					l.BuildYear, l.Lifetime),
			})
		}
	}
	return out
}
