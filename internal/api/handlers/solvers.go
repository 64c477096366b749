package handlers

import (
	"net/http"

	"grid-planner/internal/api/models"
	"grid-planner/internal/solver"

	"github.com/gin-gonic/gin"
)

// Health handles GET /health
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// ListSolvers handles GET /api/v1/solvers
func ListSolvers(c *gin.Context) {
	c.JSON(http.StatusOK, models.SolversResponse{
		Solvers: solver.Names(),
		Default: "simplex",
	})
}
