package handlers

import (
	"context"
	"errors"
	"net/http"

	"grid-planner/internal/api/models"
	"grid-planner/internal/model"

	"github.com/gin-gonic/gin"
)

// errorStatus maps a planning error to an HTTP status and an error code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, model.ErrNetworkBusy):
		return http.StatusConflict, "NETWORK_BUSY"
	case errors.Is(err, model.ErrConfiguration):
		return http.StatusBadRequest, "INVALID_CONFIG"
	case errors.Is(err, model.ErrUnbounded):
		return http.StatusUnprocessableEntity, "UNBOUNDED"
	case errors.Is(err, model.ErrInfeasible):
		return http.StatusUnprocessableEntity, "INFEASIBLE"
	case errors.Is(err, model.ErrSolver):
		return http.StatusBadGateway, "SOLVER_ERROR"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	case errors.Is(err, context.Canceled):
		return 499, "CANCELLED"
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

func respondPlanError(c *gin.Context, err error, details map[string]interface{}) {
	_ = c.Error(err)
	status, code := errorStatus(err)
	respondError(c, status, code, err.Error(), details)
}
