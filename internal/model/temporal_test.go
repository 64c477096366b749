package model

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightings(t *testing.T) {
	t.Run("durations cover the horizon exactly", func(t *testing.T) {
		cases := [][]int{
			{2020, 2030, 2040, 2050},
			{2025},
			{2020, 2023, 2031},
		}
		for _, periods := range cases {
			spans := SpansFromPeriods(periods, 5)
			w, err := Weightings(0.03, spans)
			require.NoError(t, err)

			total := 0.0
			for _, pw := range w {
				total += pw.Years
			}
			span := periods[len(periods)-1] + 5 - periods[0]
			assert.Equal(t, float64(span), total, "periods %v", periods)
		}
	})

	t.Run("zero rate gives objective equal to years", func(t *testing.T) {
		w, err := Weightings(0, SpansFromPeriods([]int{2020, 2030, 2040, 2050}, 10))
		require.NoError(t, err)
		for _, pw := range w {
			assert.Equal(t, pw.Years, pw.Objective)
		}
	})

	t.Run("discounting", func(t *testing.T) {
		w, err := Weightings(0.01, SpansFromPeriods([]int{2020, 2030}, 10))
		require.NoError(t, err)

		want := 0.0
		for y := 10; y < 20; y++ {
			want += 1 / math.Pow(1.01, float64(y))
		}
		assert.InDelta(t, want, w[1].Objective, 1e-12)
		assert.Greater(t, w[0].Objective, w[1].Objective)
		assert.Less(t, w[0].Objective, w[0].Years+1e-12)
	})

	t.Run("configuration errors", func(t *testing.T) {
		cases := []struct {
			name  string
			rate  float64
			spans []PeriodSpan
		}{
			{"no periods", 0, nil},
			{"negative rate", -0.01, []PeriodSpan{{2020, 10}}},
			{"zero years", 0, []PeriodSpan{{2020, 0}}},
			{"unordered", 0, []PeriodSpan{{2030, 10}, {2020, 10}}},
			{"overlap", 0, []PeriodSpan{{2020, 15}, {2030, 10}}},
			{"gap", 0, []PeriodSpan{{2020, 5}, {2030, 10}}},
		}
		for _, tc := range cases {
			_, err := Weightings(tc.rate, tc.spans)
			assert.ErrorIs(t, err, ErrConfiguration, tc.name)
		}
	})
}

func TestBuildSnapshots(t *testing.T) {
	start := func(y int) time.Time { return time.Date(y, 1, 1, 0, 0, 0, 0, time.UTC) }

	t.Run("periods expand in order", func(t *testing.T) {
		sns, err := BuildSnapshots([]PeriodSpec{
			{Period: 2020, Start: start(2020), Freq: 6 * time.Hour, Count: 4},
			{Period: 2030, Start: start(2030), Freq: 6 * time.Hour, Count: 4},
		})
		require.NoError(t, err)
		require.Len(t, sns, 8)
		assert.Equal(t, 2020, sns[3].Period)
		assert.Equal(t, 2030, sns[4].Period)
		assert.Equal(t, 6.0, sns[0].Weight)
		assert.Equal(t, start(2020).Add(18*time.Hour), sns[3].Time)
		assert.NoError(t, ValidateSnapshots(sns))
	})

	t.Run("invalid specs", func(t *testing.T) {
		cases := []struct {
			name  string
			specs []PeriodSpec
		}{
			{"empty", nil},
			{"zero count", []PeriodSpec{{Period: 2020, Start: start(2020), Freq: time.Hour}}},
			{"zero frequency", []PeriodSpec{{Period: 2020, Start: start(2020), Count: 2}}},
			{"unordered periods", []PeriodSpec{
				{Period: 2030, Start: start(2030), Freq: time.Hour, Count: 2},
				{Period: 2020, Start: start(2040), Freq: time.Hour, Count: 2},
			}},
			{"overlapping time", []PeriodSpec{
				{Period: 2020, Start: start(2020), Freq: 24 * time.Hour, Count: 3},
				{Period: 2030, Start: start(2020).Add(time.Hour), Freq: time.Hour, Count: 2},
			}},
		}
		for _, tc := range cases {
			_, err := BuildSnapshots(tc.specs)
			assert.ErrorIs(t, err, ErrConfiguration, tc.name)
		}
	})

	t.Run("mixed tagging rejected", func(t *testing.T) {
		sns := []Snapshot{
			{Period: 2020, Time: start(2020), Weight: 1},
			{Time: start(2021), Weight: 1},
		}
		assert.ErrorIs(t, ValidateSnapshots(sns), ErrConfiguration)
	})

	t.Run("year of untagged snapshot", func(t *testing.T) {
		sns, err := HourlySnapshots(start(2035), time.Hour, 3)
		require.NoError(t, err)
		assert.Equal(t, 2035, sns[2].Year())
		assert.Equal(t, 1.0, sns[2].Weight)
	})
}
