package handlers

import (
	"context"
	"net/http"

	"grid-planner/internal/analysis"
	"grid-planner/internal/api/models"
	"grid-planner/internal/config"
	"grid-planner/internal/logger"
	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
	"grid-planner/internal/store"

	"github.com/gin-gonic/gin"
)

// PlanHandler runs optimizations and keeps their results in a run store
type PlanHandler struct {
	runs *store.RunStore
	log  *logger.Logger
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(runs *store.RunStore, log *logger.Logger) *PlanHandler {
	return &PlanHandler{runs: runs, log: logger.OrNop(log)}
}

// bind decodes the request into a network and validated optimizer settings. It
// writes the error response itself and returns ok=false on failure.
func (h *PlanHandler) bind(c *gin.Context) (*model.Network, config.OptimizerConfig, bool) {
	var req models.OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
		return nil, config.OptimizerConfig{}, false
	}

	var (
		n   *model.Network
		err error
	)
	switch {
	case req.Network != nil && req.Scenario != nil:
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "network and scenario are mutually exclusive", nil)
		return nil, config.OptimizerConfig{}, false
	case req.Network != nil:
		n, err = req.Network.ToNetwork()
	case req.Scenario != nil:
		n, err = req.Scenario.ToConfig().Build()
	default:
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST", "either network or scenario is required", nil)
		return nil, config.OptimizerConfig{}, false
	}
	if err != nil {
		respondPlanError(c, err, nil)
		return nil, config.OptimizerConfig{}, false
	}

	opts := req.Options.ToConfig()
	if err := opts.Validate(); err != nil {
		respondPlanError(c, err, nil)
		return nil, config.OptimizerConfig{}, false
	}
	return n, opts, true
}

// Optimize handles POST /api/v1/optimize
func (h *PlanHandler) Optimize(c *gin.Context) {
	n, cfg, ok := h.bind(c)
	if !ok {
		return
	}
	opts := cfg.ToOptions()
	opts.Logger = h.log

	out, err := run(c.Request.Context(), n, cfg.Mode, opts)
	if out == nil {
		respondPlanError(c, err, nil)
		return
	}
	r := h.runs.Put(n, out, err)
	if err != nil {
		// a rolling run that committed some windows stays retrievable
		respondPlanError(c, err, map[string]interface{}{
			"run_id": r.ID.String(),
			"status": out.Status,
		})
		return
	}
	h.log.Info("run stored", "run_id", r.ID.String(), "objective", out.Objective)
	c.JSON(http.StatusOK, runResponse(r))
}

func run(ctx context.Context, n *model.Network, mode optimize.Mode, opts optimize.RollingOptions) (*optimize.Outcome, error) {
	if mode == optimize.ModeRollingHorizon {
		return optimize.OptimizeRollingHorizon(ctx, n, opts)
	}
	return optimize.OptimizeMultiPeriod(ctx, n, opts.Options)
}

// Compare handles POST /api/v1/compare. Both runs are stored.
func (h *PlanHandler) Compare(c *gin.Context) {
	n, cfg, ok := h.bind(c)
	if !ok {
		return
	}
	opts := cfg.ToOptions()
	opts.Logger = h.log

	cmp, err := optimize.Compare(c.Request.Context(), n, opts)
	if err != nil {
		details := map[string]interface{}{}
		if cmp.FullOutcome != nil {
			details["full_run_id"] = h.runs.Put(cmp.Full, cmp.FullOutcome, nil).ID.String()
		}
		if cmp.RollingOutcome != nil {
			details["rolling_run_id"] = h.runs.Put(cmp.Rolling, cmp.RollingOutcome, err).ID.String()
		}
		respondPlanError(c, err, details)
		return
	}

	full := h.runs.Put(cmp.Full, cmp.FullOutcome, nil)
	rolling := h.runs.Put(cmp.Rolling, cmp.RollingOutcome, nil)
	resp := models.CompareResponse{
		Full:    runResponse(full),
		Rolling: runResponse(rolling),
		Gap:     cmp.Gap,
	}
	if rc, err := analysis.CompareRuns(cmp.Full, cmp.Rolling); err == nil {
		resp.Comparison = &rc
	}
	c.JSON(http.StatusOK, resp)
}

func runResponse(r *store.Run) models.RunResponse {
	resp := models.RunResponse{
		ID:        r.ID.String(),
		Network:   r.Network.Name,
		Outcome:   r.Outcome,
		Error:     r.Err,
		CreatedAt: r.CreatedAt,
		ExpiresAt: r.ExpiresAt,
	}
	if res := r.Network.Results; res != nil {
		resp.Failure = res.Failure
		resp.Capacity = models.CapacitySummary{
			Generators:   res.GeneratorPNom,
			StorageUnits: res.StoragePNom,
			Lines:        res.LineSNom,
		}
	}
	return resp
}

// Routes registers the planning endpoints on an /api/v1 group.
func (h *PlanHandler) Routes(api *gin.RouterGroup) {
	api.GET("/solvers", ListSolvers)
	api.POST("/optimize", h.Optimize)
	api.POST("/compare", h.Compare)
	api.GET("/runs/:id", h.GetRun)
	api.GET("/runs/:id/dispatch", h.GetDispatch)
	api.GET("/runs/:id/analysis", h.GetAnalysis)
}
