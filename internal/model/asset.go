package model

import (
	"errors"
	"fmt"
)

// ComponentKind names a component collection. Values appear in exported files.
type ComponentKind string

const (
	KindBus         ComponentKind = "Bus"
	KindLine        ComponentKind = "Line"
	KindGenerator   ComponentKind = "Generator"
	KindStorageUnit ComponentKind = "StorageUnit"
	KindLoad        ComponentKind = "Load"
)

// Lifecycle is the build-year / lifetime metadata shared by capacity-bearing assets.
// BuildYear 0 means "always active". Lifetime 0 means the asset never retires.
type Lifecycle struct {
	BuildYear int `json:"build_year,omitempty" yaml:"build_year"`
	Lifetime  int `json:"lifetime,omitempty" yaml:"lifetime"`
}

func (l Lifecycle) Validate() error {
	if l.Lifetime < 0 {
		return errors.New("lifetime must be > 0 (0 = unlimited)")
	}
	return nil
}

// Asset is anything the activity resolver can reason about.
type Asset interface {
	AssetName() string
	AssetKind() ComponentKind
	Life() Lifecycle
}

// Sized is an asset with a nominal capacity that may be a decision variable.
type Sized interface {
	Asset
	Nominal() float64
	IsExtendable() bool
	NominalBounds() (min, max float64)
	Capital() float64
}

type Bus struct {
	Name    string  `json:"name" yaml:"name"`
	Carrier string  `json:"carrier,omitempty" yaml:"carrier"`
	X       float64 `json:"x,omitempty" yaml:"x"`
	Y       float64 `json:"y,omitempty" yaml:"y"`
}

// Line is a transport branch from Bus0 to Bus1. Positive flow runs Bus0 -> Bus1.
type Line struct {
	Name           string  `json:"name" yaml:"name"`
	Bus0           string  `json:"bus0" yaml:"bus0"`
	Bus1           string  `json:"bus1" yaml:"bus1"`
	SNom           float64 `json:"s_nom" yaml:"s_nom"`
	SNomExtendable bool    `json:"s_nom_extendable,omitempty" yaml:"s_nom_extendable"`
	SNomMin        float64 `json:"s_nom_min,omitempty" yaml:"s_nom_min"`
	SNomMax        float64 `json:"s_nom_max,omitempty" yaml:"s_nom_max"` // 0 = unlimited
	CapitalCost    float64 `json:"capital_cost,omitempty" yaml:"capital_cost"`
	X              float64 `json:"x,omitempty" yaml:"x"`
	Lifecycle      `yaml:",inline"`
}

func (l *Line) AssetName() string { return l.Name }
func (l *Line) AssetKind() ComponentKind { return KindLine }
func (l *Line) Life() Lifecycle { return l.Lifecycle }
func (l *Line) Nominal() float64 { return l.SNom }
func (l *Line) IsExtendable() bool { return l.SNomExtendable }
func (l *Line) NominalBounds() (float64, float64) { return l.SNomMin, l.SNomMax }
func (l *Line) Capital() float64 { return l.CapitalCost }

type Generator struct {
	Name           string  `json:"name" yaml:"name"`
	Bus            string  `json:"bus" yaml:"bus"`
	Carrier        string  `json:"carrier,omitempty" yaml:"carrier"`
	PNom           float64 `json:"p_nom" yaml:"p_nom"`
	PNomExtendable bool    `json:"p_nom_extendable,omitempty" yaml:"p_nom_extendable"`
	PNomMin        float64 `json:"p_nom_min,omitempty" yaml:"p_nom_min"`
	PNomMax        float64 `json:"p_nom_max,omitempty" yaml:"p_nom_max"` // 0 = unlimited
	PMaxPU         float64 `json:"p_max_pu" yaml:"p_max_pu"`
	PMinPU         float64 `json:"p_min_pu,omitempty" yaml:"p_min_pu"`
	MarginalCost   float64 `json:"marginal_cost,omitempty" yaml:"marginal_cost"`
	CapitalCost    float64 `json:"capital_cost,omitempty" yaml:"capital_cost"`
	Lifecycle      `yaml:",inline"`
}

func (g *Generator) AssetName() string { return g.Name }
func (g *Generator) AssetKind() ComponentKind { return KindGenerator }
func (g *Generator) Life() Lifecycle { return g.Lifecycle }
func (g *Generator) Nominal() float64 { return g.PNom }
func (g *Generator) IsExtendable() bool { return g.PNomExtendable }
func (g *Generator) NominalBounds() (float64, float64) { return g.PNomMin, g.PNomMax }
func (g *Generator) Capital() float64 { return g.CapitalCost }

// CyclicMode selects the boundary condition of a storage unit's state of charge.
type CyclicMode string

const (
	// CyclicNone starts from SOCInitial and leaves the final level free.
	CyclicNone CyclicMode = "none"
	// CyclicGlobal ties the level before the first snapshot to the last snapshot's level.
	CyclicGlobal CyclicMode = "global"
	// CyclicPerPeriod applies the same tie independently inside every investment period.
	CyclicPerPeriod CyclicMode = "per_period"
)

type StorageUnit struct {
	Name               string     `json:"name" yaml:"name"`
	Bus                string     `json:"bus" yaml:"bus"`
	Carrier            string     `json:"carrier,omitempty" yaml:"carrier"`
	PNom               float64    `json:"p_nom" yaml:"p_nom"`
	PNomExtendable     bool       `json:"p_nom_extendable,omitempty" yaml:"p_nom_extendable"`
	PNomMin            float64    `json:"p_nom_min,omitempty" yaml:"p_nom_min"`
	PNomMax            float64    `json:"p_nom_max,omitempty" yaml:"p_nom_max"` // 0 = unlimited
	MaxHours           float64    `json:"max_hours" yaml:"max_hours"`
	EfficiencyStore    float64    `json:"efficiency_store" yaml:"efficiency_store"`
	EfficiencyDispatch float64    `json:"efficiency_dispatch" yaml:"efficiency_dispatch"`
	StandingLoss       float64    `json:"standing_loss,omitempty" yaml:"standing_loss"`
	SOCInitial         float64    `json:"state_of_charge_initial,omitempty" yaml:"state_of_charge_initial"`
	Cyclic             CyclicMode `json:"cyclic,omitempty" yaml:"cyclic"`
	MarginalCost       float64    `json:"marginal_cost,omitempty" yaml:"marginal_cost"`
	CapitalCost        float64    `json:"capital_cost,omitempty" yaml:"capital_cost"`
	Lifecycle          `yaml:",inline"`
}

func (s *StorageUnit) AssetName() string { return s.Name }
func (s *StorageUnit) AssetKind() ComponentKind { return KindStorageUnit }
func (s *StorageUnit) Life() Lifecycle { return s.Lifecycle }
func (s *StorageUnit) Nominal() float64 { return s.PNom }
func (s *StorageUnit) IsExtendable() bool { return s.PNomExtendable }
func (s *StorageUnit) NominalBounds() (float64, float64) { return s.PNomMin, s.PNomMax }
func (s *StorageUnit) Capital() float64 { return s.CapitalCost }

// Load is a fixed demand. Loads have no lifecycle: they are always present.
type Load struct {
	Name string  `json:"name" yaml:"name"`
	Bus  string  `json:"bus" yaml:"bus"`
	PSet float64 `json:"p_set" yaml:"p_set"`
}

func (l *Load) AssetName() string { return l.Name }
func (l *Load) AssetKind() ComponentKind { return KindLoad }
func (l *Load) Life() Lifecycle { return Lifecycle{} }

// applyDefaults fills in the defaults a zero value would get wrong.
func (g *Generator) applyDefaults() {
	if g.PMaxPU == 0 {
		g.PMaxPU = 1
	}
}

func (s *StorageUnit) applyDefaults() {
	if s.MaxHours == 0 {
		s.MaxHours = 1
	}
	if s.EfficiencyStore == 0 {
		s.EfficiencyStore = 1
	}
	if s.EfficiencyDispatch == 0 {
		s.EfficiencyDispatch = 1
	}
	if s.Cyclic == "" {
		s.Cyclic = CyclicNone
	}
}

func validateSized(a Sized) error {
	if err := a.Life().Validate(); err != nil {
		return err
	}
	if a.Nominal() < 0 {
		return errors.New("nominal capacity must be >= 0")
	}
	lo, hi := a.NominalBounds()
	if lo < 0 || hi < 0 {
		return errors.New("capacity bounds must be >= 0")
	}
	if hi > 0 && lo > hi {
		return fmt.Errorf("capacity min %v exceeds max %v", lo, hi)
	}
	if a.Capital() < 0 {
		return errors.New("capital cost must be >= 0")
	}
	return nil
}

func (g *Generator) Validate() error {
	if err := validateSized(g); err != nil {
		return err
	}
	if g.PMinPU > g.PMaxPU {
		return fmt.Errorf("p_min_pu %v exceeds p_max_pu %v", g.PMinPU, g.PMaxPU)
	}
	return nil
}

func (s *StorageUnit) Validate() error {
	if err := validateSized(s); err != nil {
		return err
	}
	if s.MaxHours <= 0 {
		return errors.New("max_hours must be > 0")
	}
	if s.EfficiencyStore <= 0 || s.EfficiencyStore > 1 {
		return errors.New("efficiency_store must be in (0, 1]")
	}
	if s.EfficiencyDispatch <= 0 || s.EfficiencyDispatch > 1 {
		return errors.New("efficiency_dispatch must be in (0, 1]")
	}
	if s.StandingLoss < 0 || s.StandingLoss >= 1 {
		return errors.New("standing_loss must be in [0, 1)")
	}
	if s.SOCInitial < 0 {
		return errors.New("state_of_charge_initial must be >= 0")
	}
	switch s.Cyclic {
	case CyclicNone, CyclicGlobal, CyclicPerPeriod:
	default:
		return fmt.Errorf("unknown cyclic mode %q", s.Cyclic)
	}
	return nil
}

func (l *Line) Validate() error {
	if l.Bus0 == l.Bus1 {
		return errors.New("bus0 and bus1 must differ")
	}
	return validateSized(l)
}
