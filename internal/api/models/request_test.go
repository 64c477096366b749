package models

import (
	"testing"
	"time"

	"grid-planner/internal/optimize"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeOptionsToConfig(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := OptimizeOptions{}.ToConfig()
		require.NoError(t, c.Validate())
		assert.Equal(t, optimize.ModeMultiPeriod, c.Mode)
		assert.Equal(t, "simplex", c.Solver)
		assert.Equal(t, DefaultTimeout, c.Timeout)
	})

	t.Run("explicit timeout", func(t *testing.T) {
		c := OptimizeOptions{Mode: "rolling_horizon", Horizon: 4, Overlap: 1, TimeoutSeconds: 1.5}.ToConfig()
		require.NoError(t, c.Validate())
		assert.Equal(t, 1500*time.Millisecond, c.Timeout)
		assert.Equal(t, optimize.SeedLastCommitted, c.SeedPolicy)
	})
}
