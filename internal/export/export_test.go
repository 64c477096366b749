package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"grid-planner/internal/model"
	"grid-planner/internal/optimize"
	"grid-planner/internal/scenario"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assertSameNetwork(t *testing.T, want, got *model.Network) {
	t.Helper()
	assert.Equal(t, want.Name, got.Name)
	require.Len(t, got.Snapshots, len(want.Snapshots))
	for i := range want.Snapshots {
		assert.True(t, want.Snapshots[i].Time.Equal(got.Snapshots[i].Time), "snapshot %d", i)
		assert.Equal(t, want.Snapshots[i].Period, got.Snapshots[i].Period)
		assert.Equal(t, want.Snapshots[i].Weight, got.Snapshots[i].Weight)
	}
	assert.Equal(t, want.Weightings, got.Weightings)
	assert.Equal(t, want.Buses, got.Buses)
	assert.Equal(t, want.Lines, got.Lines)
	assert.Equal(t, want.Generators, got.Generators)
	assert.Equal(t, want.StorageUnits, got.StorageUnits)
	assert.Equal(t, want.Loads, got.Loads)
	assert.Equal(t, want.Series, got.Series)
	assert.Equal(t, want.Results, got.Results)
}

func TestNetworkRoundTrip(t *testing.T) {
	t.Run("unsolved network with random series", func(t *testing.T) {
		n, err := scenario.MultiInvestment(scenario.Options{Seed: 7, SnapshotsPerPeriod: 5})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, n))
		got, err := Decode(&buf)
		require.NoError(t, err)
		assertSameNetwork(t, n, got)
	})

	t.Run("results survive bit for bit", func(t *testing.T) {
		n, err := scenario.MultiInvestment(scenario.Options{Seed: 3, SnapshotsPerPeriod: 3})
		require.NoError(t, err)
		res := model.NewResults(n)
		rng := rand.New(rand.NewSource(11))
		for _, m := range []map[string][]float64{res.GeneratorP, res.StorageDispatch, res.StorageStore, res.StorageSOC, res.LineFlow} {
			for _, v := range m {
				for i := range v {
					v[i] = rng.NormFloat64() * 1e3
				}
			}
		}
		res.Objective = rng.Float64() * 1e7
		res.Status = model.StatusPartial
		res.Failure = &model.Failure{Kind: model.KindInfeasible, Scope: "window 2", Message: "no plan", Window: 2, Start: 4, End: 6}
		n.Results = res

		path := filepath.Join(t.TempDir(), "out", "network.json")
		require.NoError(t, SaveNetwork(path, n))
		got, err := LoadNetwork(path)
		require.NoError(t, err)
		assertSameNetwork(t, n, got)
	})

	t.Run("solved ring", func(t *testing.T) {
		n, err := scenario.Ring(scenario.Options{})
		require.NoError(t, err)
		_, err = optimize.OptimizeMultiPeriod(context.Background(), n, optimize.Options{})
		require.NoError(t, err)

		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, n))
		got, err := Decode(&buf)
		require.NoError(t, err)
		assertSameNetwork(t, n, got)
	})
}

func TestDecodeRejects(t *testing.T) {
	cases := map[string]string{
		"wrong format":  `{"format":"other","version":1,"network":{}}`,
		"wrong version": `{"format":"grid-planner/network","version":9,"network":{}}`,
		"no network":    `{"format":"grid-planner/network","version":1}`,
		"bad snapshots": `{"format":"grid-planner/network","version":1,"network":{"name":"x","snapshots":[]}}`,
	}
	for name, doc := range cases {
		_, err := Decode(strings.NewReader(doc))
		assert.ErrorIs(t, err, model.ErrConfiguration, name)
	}

	_, err := Decode(strings.NewReader("{"))
	assert.Error(t, err)
}

func TestDispatchCSV(t *testing.T) {
	n, err := scenario.Ring(scenario.Options{})
	require.NoError(t, err)
	_, err = optimize.OptimizeMultiPeriod(context.Background(), n, optimize.Options{})
	require.NoError(t, err)

	ledger := DispatchLedger(n)
	// 3 lines everywhere, solar in 6 snapshots, thermal in 4
	assert.Len(t, ledger, 3*8+6+4)

	path := filepath.Join(t.TempDir(), "dispatch.csv")
	require.NoError(t, WriteDispatchCSV(path, n))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, len(ledger)+1)
	assert.Equal(t, "index", rows[0][0])
	assert.Equal(t, "committed", rows[0][len(rows[0])-1])

	found := false
	for _, r := range rows[1:] {
		if r[5] == "thermal" && r[2] == "2050" {
			assert.Equal(t, "10.000000", r[7])
			found = true
		}
	}
	assert.True(t, found)
}

func TestDispatchLedgerStorageAction(t *testing.T) {
	n, err := scenario.MultiInvestment(scenario.Options{Seed: 1, SnapshotsPerPeriod: 2})
	require.NoError(t, err)
	res := model.NewResults(n)
	res.StorageDispatch["storageunit periodic 2020"][0] = 3
	res.StorageStore["storageunit periodic 2020"][1] = 2
	n.Results = res

	actions := map[int]model.Action{}
	for _, r := range DispatchLedger(n) {
		if r.Asset == "storageunit periodic 2020" {
			actions[r.Index] = r.Action
		}
	}
	assert.Equal(t, model.ActionDischarging, actions[0])
	assert.Equal(t, model.ActionCharging, actions[1])
	assert.Equal(t, model.ActionIdle, actions[2])
	assert.Nil(t, DispatchLedger(&model.Network{}))
}
