package handlers

import (
	"fmt"
	"net/http"

	"grid-planner/internal/analysis"
	"grid-planner/internal/api/models"
	"grid-planner/internal/export"
	"grid-planner/internal/model"
	"grid-planner/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// lookup resolves the :id path parameter. It writes a 404 when the run is unknown or expired.
func (h *PlanHandler) lookup(c *gin.Context) (*store.Run, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_RUN_ID", err.Error(), nil)
		return nil, false
	}
	r, ok := h.runs.Get(id)
	if !ok {
		respondError(c, http.StatusNotFound, "RUN_NOT_FOUND", fmt.Sprintf("run %s not found or expired", id), nil)
		return nil, false
	}
	return r, true
}

// GetRun handles GET /api/v1/runs/:id
func (h *PlanHandler) GetRun(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, runResponse(r))
}

// GetDispatch handles GET /api/v1/runs/:id/dispatch. format=csv returns the ledger as CSV.
func (h *PlanHandler) GetDispatch(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	ledger := export.DispatchLedger(r.Network)
	if asset := c.Query("asset"); asset != "" {
		filtered := ledger[:0:0]
		for _, row := range ledger {
			if row.Asset == asset {
				filtered = append(filtered, row)
			}
		}
		ledger = filtered
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv")
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=dispatch-%s.csv", r.ID))
		c.Status(http.StatusOK)
		if err := export.WriteLedgerCSV(c.Writer, ledger); err != nil {
			h.log.Error("write dispatch csv", "run_id", r.ID.String(), "error", err)
		}
	case "json":
		c.JSON(http.StatusOK, models.DispatchResponse{ID: r.ID.String(), Rows: models.DispatchRows(ledger)})
	default:
		respondError(c, http.StatusBadRequest, "INVALID_FORMAT", "format must be json or csv", nil)
	}
}

// GetAnalysis handles GET /api/v1/runs/:id/analysis
func (h *PlanHandler) GetAnalysis(c *gin.Context) {
	r, ok := h.lookup(c)
	if !ok {
		return
	}
	resp, err := buildAnalysis(r)
	if err != nil {
		respondPlanError(c, err, map[string]interface{}{"run_id": r.ID.String()})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func buildAnalysis(r *store.Run) (models.AnalysisResponse, error) {
	n := r.Network
	resp := models.AnalysisResponse{ID: r.ID.String(), Stats: analysis.DispatchStats(n)}
	var err error
	if resp.GeneratorCapacity, err = analysis.CapacityByPeriod(n, model.KindGenerator); err != nil {
		return resp, err
	}
	if resp.StorageCapacity, err = analysis.CapacityByPeriod(n, model.KindStorageUnit); err != nil {
		return resp, err
	}
	if resp.Generation, err = analysis.GenerationByPeriod(n); err != nil {
		return resp, err
	}
	resp.Ranking, err = analysis.RankByGeneration(n)
	return resp, err
}
