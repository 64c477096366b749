package model

import (
	"math"
	"time"
)

// Snapshot is one time point at which power balance is enforced.
// Period is the investment period key (0 when periods are not in use).
// Weight is the number of hours the snapshot stands for.
type Snapshot struct {
	Period int       `json:"period" yaml:"period"`
	Time   time.Time `json:"time" yaml:"time"`
	Weight float64   `json:"weight" yaml:"weight"`
}

// Year returns the activity key of the snapshot: its period, or the calendar year
// when the snapshot is not tagged with one.
func (s Snapshot) Year() int {
	if s.Period != 0 {
		return s.Period
	}
	return s.Time.Year()
}

// PeriodSpec describes the snapshots of one investment period.
type PeriodSpec struct {
	Period int
	Start  time.Time
	Freq   time.Duration
	Count  int
}

// BuildSnapshots expands period specs into one ordered snapshot sequence.
func BuildSnapshots(specs []PeriodSpec) ([]Snapshot, error) {
	const op = "build snapshots"
	if len(specs) == 0 {
		return nil, ConfigErrorf(op, "no periods given")
	}
	out := make([]Snapshot, 0)
	for i, sp := range specs {
		if sp.Count <= 0 {
			return nil, ConfigErrorf(op, "period %d: count must be > 0, got %d", sp.Period, sp.Count)
		}
		if sp.Freq <= 0 {
			return nil, ConfigErrorf(op, "period %d: frequency must be > 0", sp.Period)
		}
		if i > 0 {
			prev := specs[i-1]
			if sp.Period <= prev.Period {
				return nil, ConfigErrorf(op, "period %d does not follow period %d", sp.Period, prev.Period)
			}
			last := out[len(out)-1].Time
			if !sp.Start.After(last) {
				return nil, ConfigErrorf(op, "period %d starts at %s, before the end of period %d",
					sp.Period, sp.Start.Format(time.RFC3339), prev.Period)
			}
		}
		for k := 0; k < sp.Count; k++ {
			out = append(out, Snapshot{
				Period: sp.Period,
				Time:   sp.Start.Add(time.Duration(k) * sp.Freq),
				Weight: sp.Freq.Hours(),
			})
		}
	}
	return out, nil
}

// HourlySnapshots builds count untagged snapshots (no investment periods).
func HourlySnapshots(start time.Time, freq time.Duration, count int) ([]Snapshot, error) {
	if count <= 0 || freq <= 0 {
		return nil, ConfigErrorf("build snapshots", "count and frequency must be > 0")
	}
	out := make([]Snapshot, count)
	for k := range out {
		out[k] = Snapshot{Time: start.Add(time.Duration(k) * freq), Weight: freq.Hours()}
	}
	return out, nil
}

// ValidateSnapshots checks ordering and period tagging of a snapshot sequence.
func ValidateSnapshots(sns []Snapshot) error {
	const op = "validate snapshots"
	if len(sns) == 0 {
		return ConfigErrorf(op, "no snapshots")
	}
	tagged := sns[0].Period != 0
	for i, s := range sns {
		if s.Weight <= 0 {
			return ConfigErrorf(op, "snapshot %d: weight must be > 0", i)
		}
		if (s.Period != 0) != tagged {
			return ConfigErrorf(op, "snapshot %d: either every snapshot has a period or none does", i)
		}
		if i == 0 {
			continue
		}
		prev := sns[i-1]
		if s.Period < prev.Period {
			return ConfigErrorf(op, "snapshot %d: period %d after period %d", i, s.Period, prev.Period)
		}
		if s.Period == prev.Period && !s.Time.After(prev.Time) {
			return ConfigErrorf(op, "snapshot %d is not after snapshot %d", i, i-1)
		}
	}
	return nil
}

// PeriodSpan is the number of real years an investment period stands for.
type PeriodSpan struct {
	Period int `json:"period" yaml:"period"`
	Years  int `json:"years" yaml:"years"`
}

// PeriodWeighting is the duration and discounted objective weight of a period.
type PeriodWeighting struct {
	Period    int     `json:"period"`
	Years     float64 `json:"years"`
	Objective float64 `json:"objective"`
}

// SpansFromPeriods gives each period the distance to the next one and the last
// period lastYears.
func SpansFromPeriods(periods []int, lastYears int) []PeriodSpan {
	out := make([]PeriodSpan, len(periods))
	for i, p := range periods {
		years := lastYears
		if i+1 < len(periods) {
			years = periods[i+1] - p
		}
		out[i] = PeriodSpan{Period: p, Years: years}
	}
	return out
}

// Weightings computes the weighting table. The objective weight of a period is the sum
// of yearly discount factors 1/(1+rate)^t over the years it covers, counted from the
// start of the first period.
func Weightings(rate float64, spans []PeriodSpan) ([]PeriodWeighting, error) {
	const op = "period weightings"
	if len(spans) == 0 {
		return nil, ConfigErrorf(op, "no periods given")
	}
	if rate < 0 || math.IsNaN(rate) {
		return nil, ConfigErrorf(op, "discount rate must be >= 0, got %v", rate)
	}
	for i, sp := range spans {
		if sp.Years <= 0 {
			return nil, ConfigErrorf(op, "period %d: years must be > 0, got %d", sp.Period, sp.Years)
		}
		if i == 0 {
			continue
		}
		prev := spans[i-1]
		if sp.Period <= prev.Period {
			return nil, ConfigErrorf(op, "period %d does not follow period %d", sp.Period, prev.Period)
		}
		end := prev.Period + prev.Years
		if end > sp.Period {
			return nil, ConfigErrorf(op, "period %d (%d years) overlaps period %d", prev.Period, prev.Years, sp.Period)
		}
		if end < sp.Period {
			return nil, ConfigErrorf(op, "gap between period %d (%d years) and period %d", prev.Period, prev.Years, sp.Period)
		}
	}

	out := make([]PeriodWeighting, len(spans))
	t := 0
	for i, sp := range spans {
		obj := 0.0
		for y := t; y < t+sp.Years; y++ {
			obj += 1 / math.Pow(1+rate, float64(y))
		}
		out[i] = PeriodWeighting{Period: sp.Period, Years: float64(sp.Years), Objective: obj}
		t += sp.Years
	}
	return out, nil
}
