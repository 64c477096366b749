package scenario

import (
	"testing"

	"grid-planner/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMultiInvestment(t *testing.T) {
	n, err := MultiInvestment(Options{Seed: 5, SnapshotsPerPeriod: 4})
	require.NoError(t, err)

	assert.Len(t, n.Snapshots, 16)
	assert.Equal(t, Periods, n.Periods())
	assert.Len(t, n.Buses, 3)
	assert.Len(t, n.Lines, 3)
	assert.Len(t, n.Generators, 3)
	assert.Len(t, n.StorageUnits, 2)
	assert.Len(t, n.Loads, 2)
	for _, l := range n.Lines {
		assert.True(t, l.SNomExtendable, l.Name)
	}

	// default rate 1%: the first period discounts years 0..9
	w := n.Weighting(2020)
	assert.Equal(t, 10.0, w.Years)
	assert.Less(t, w.Objective, 10.0)
	assert.Greater(t, w.Objective, n.Weighting(2030).Objective)

	require.NoError(t, n.Validate())
	assert.Empty(t, n.AuditActivity())
}

func TestMultiInvestmentSeed(t *testing.T) {
	a, err := MultiInvestment(Options{Seed: 9})
	require.NoError(t, err)
	b, err := MultiInvestment(Options{Seed: 9})
	require.NoError(t, err)
	c, err := MultiInvestment(Options{Seed: 10})
	require.NoError(t, err)

	assert.Equal(t, a.Series, b.Series)
	assert.NotEqual(t, a.Series, c.Series)
}

func TestRing(t *testing.T) {
	n, err := Ring(Options{})
	require.NoError(t, err)
	assert.Len(t, n.Snapshots, 8)
	assert.Equal(t, 10.0, n.Weighting(2050).Objective)

	solar := &n.Generators[0]
	assert.True(t, n.ActiveAt(solar, 5))
	assert.False(t, n.ActiveAt(solar, 6))
	assert.Equal(t, []int{2040, 2050}, n.ActivePeriods(&n.Generators[1]))

	key := model.SeriesKey{Kind: model.KindGenerator, Name: "solar", Attr: model.AttrPMaxPU}
	assert.Equal(t, 0.5, n.Series.At(key, 0, 0))
	assert.Equal(t, 1.0, n.Series.At(key, 1, 0))

	more, err := Ring(Options{SnapshotsPerPeriod: 3, FreqHours: 1})
	require.NoError(t, err)
	assert.Len(t, more.Snapshots, 12)
}
