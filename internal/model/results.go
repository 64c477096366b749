package model

// RunStatus is the state of a network's results slot.
type RunStatus string

const (
	StatusUnsolved RunStatus = "unsolved"
	StatusOptimal  RunStatus = "optimal"
	// StatusPartial marks a rolling-horizon run that failed after committing some windows.
	StatusPartial RunStatus = "partial"
	StatusFailed  RunStatus = "failed"
)

// Failure records why the last optimization did not finish.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Scope   string `json:"scope,omitempty"`
	Message string `json:"message"`
	// Window is the failing rolling-horizon window, -1 otherwise.
	Window int `json:"window"`
	Start  int `json:"start"`
	End    int `json:"end"`
}

// Results holds solved quantities. Every series has one value per network snapshot;
// snapshots where an asset is inactive or that were never committed hold 0.
type Results struct {
	Status    RunStatus `json:"status"`
	Mode      string    `json:"mode,omitempty"`
	Objective float64   `json:"objective"`
	Committed []bool    `json:"committed"`

	GeneratorP      map[string][]float64 `json:"generator_p"`
	StorageDispatch map[string][]float64 `json:"storage_dispatch"`
	StorageStore    map[string][]float64 `json:"storage_store"`
	StorageSOC      map[string][]float64 `json:"storage_soc"`
	LineFlow        map[string][]float64 `json:"line_flow"`

	GeneratorPNom map[string]float64 `json:"generator_p_nom"`
	StoragePNom   map[string]float64 `json:"storage_p_nom"`
	LineSNom      map[string]float64 `json:"line_s_nom"`

	Failure *Failure `json:"failure,omitempty"`
}

// NewResults allocates zeroed series for every asset of n.
func NewResults(n *Network) *Results {
	T := len(n.Snapshots)
	r := &Results{
		Status:          StatusUnsolved,
		Committed:       make([]bool, T),
		GeneratorP:      make(map[string][]float64, len(n.Generators)),
		StorageDispatch: make(map[string][]float64, len(n.StorageUnits)),
		StorageStore:    make(map[string][]float64, len(n.StorageUnits)),
		StorageSOC:      make(map[string][]float64, len(n.StorageUnits)),
		LineFlow:        make(map[string][]float64, len(n.Lines)),
		GeneratorPNom:   make(map[string]float64, len(n.Generators)),
		StoragePNom:     make(map[string]float64, len(n.StorageUnits)),
		LineSNom:        make(map[string]float64, len(n.Lines)),
	}
	for _, g := range n.Generators {
		r.GeneratorP[g.Name] = make([]float64, T)
		r.GeneratorPNom[g.Name] = g.PNom
	}
	for _, s := range n.StorageUnits {
		r.StorageDispatch[s.Name] = make([]float64, T)
		r.StorageStore[s.Name] = make([]float64, T)
		r.StorageSOC[s.Name] = make([]float64, T)
		r.StoragePNom[s.Name] = s.PNom
	}
	for _, l := range n.Lines {
		r.LineFlow[l.Name] = make([]float64, T)
		r.LineSNom[l.Name] = l.SNom
	}
	return r
}

// StorageP is the net storage output (dispatch minus store) at snapshot t.
func (r *Results) StorageP(name string, t int) float64 {
	return r.StorageDispatch[name][t] - r.StorageStore[name][t]
}

// AllCommitted reports whether every snapshot has a committed solution.
func (r *Results) AllCommitted() bool {
	for _, c := range r.Committed {
		if !c {
			return false
		}
	}
	return len(r.Committed) > 0
}

func (r *Results) clone() *Results {
	if r == nil {
		return nil
	}
	out := *r
	out.Committed = append([]bool(nil), r.Committed...)
	out.GeneratorP = cloneSeriesMap(r.GeneratorP)
	out.StorageDispatch = cloneSeriesMap(r.StorageDispatch)
	out.StorageStore = cloneSeriesMap(r.StorageStore)
	out.StorageSOC = cloneSeriesMap(r.StorageSOC)
	out.LineFlow = cloneSeriesMap(r.LineFlow)
	out.GeneratorPNom = cloneScalarMap(r.GeneratorPNom)
	out.StoragePNom = cloneScalarMap(r.StoragePNom)
	out.LineSNom = cloneScalarMap(r.LineSNom)
	if r.Failure != nil {
		f := *r.Failure
		out.Failure = &f
	}
	return &out
}

func cloneSeriesMap(m map[string][]float64) map[string][]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string][]float64, len(m))
	for k, v := range m {
		out[k] = append([]float64(nil), v...)
	}
	return out
}

func cloneScalarMap(m map[string]float64) map[string]float64 {
	if m == nil {
		return nil
	}
	out := make(map[string]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
