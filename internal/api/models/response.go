package models

import (
	"time"

	"grid-planner/internal/analysis"
	"grid-planner/internal/export"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
)

// RunResponse describes one stored optimization run
type RunResponse struct {
	ID        string            `json:"id"`
	Network   string            `json:"network"`
	Outcome   *optimize.Outcome `json:"outcome,omitempty"`
	Failure   *model.Failure    `json:"failure,omitempty"`
	Capacity  CapacitySummary   `json:"capacity"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	ExpiresAt time.Time         `json:"expires_at"`
}

// CapacitySummary holds the optimal nominal capacity of every asset
type CapacitySummary struct {
	Generators   map[string]float64 `json:"generators"`
	StorageUnits map[string]float64 `json:"storage_units"`
	Lines        map[string]float64 `json:"lines"`
}

// CompareResponse contains a full and a rolling-horizon run of the same network
type CompareResponse struct {
	Full       RunResponse             `json:"full"`
	Rolling    RunResponse             `json:"rolling"`
	Gap        float64                 `json:"gap"`
	Comparison *analysis.RunComparison `json:"comparison,omitempty"`
}

// DispatchResponse is the JSON form of GET /api/v1/runs/:id/dispatch
type DispatchResponse struct {
	ID   string        `json:"id"`
	Rows []DispatchRow `json:"rows"`
}

// DispatchRow represents one asset at one snapshot in the dispatch ledger
type DispatchRow struct {
	Index     int       `json:"index"`
	Time      time.Time `json:"time"`
	Period    int       `json:"period,omitempty"`
	Weight    float64   `json:"weight"`
	Kind      string    `json:"kind"`
	Asset     string    `json:"asset"`
	Bus       string    `json:"bus,omitempty"`
	Power     float64   `json:"power"`
	Store     float64   `json:"store,omitempty"`
	Dispatch  float64   `json:"dispatch,omitempty"`
	SOC       float64   `json:"soc,omitempty"`
	Action    string    `json:"action,omitempty"` // "CHARGING", "DISCHARGING", "IDLE"
	Committed bool      `json:"committed"`
}

func DispatchRows(ledger []export.LedgerRow) []DispatchRow {
	out := make([]DispatchRow, 0, len(ledger))
	for _, r := range ledger {
		out = append(out, DispatchRow{
			Index:     r.Index,
			Time:      r.Time,
			Period:    r.Period,
			Weight:    r.Weight,
			Kind:      string(r.Kind),
			Asset:     r.Asset,
			Bus:       r.Bus,
			Power:     r.Power,
			Store:     r.Store,
			Dispatch:  r.Dispatch,
			SOC:       r.SOC,
			Action:    string(r.Action),
			Committed: r.Committed,
		})
	}
	return out
}

// AnalysisResponse contains the per-period tables of a solved run
type AnalysisResponse struct {
	ID                string                     `json:"id"`
	GeneratorCapacity []analysis.PeriodValues    `json:"generator_capacity"`
	StorageCapacity   []analysis.PeriodValues    `json:"storage_capacity"`
	Generation        []analysis.PeriodValues    `json:"generation"`
	Ranking           []analysis.RankedGenerator `json:"ranking"`
	Stats             []analysis.SeriesStats     `json:"stats"`
}

// SolversResponse lists the registered LP backends
type SolversResponse struct {
	Solvers []string `json:"solvers"`
	Default string   `json:"default"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
