package export

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"

	"grid-planner/internal/model"
)

// WriteDispatchCSV writes the dispatch ledger of a solved network to path.
func WriteDispatchCSV(path string, n *model.Network) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteLedgerCSV(f, DispatchLedger(n))
}

func WriteLedgerCSV(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	defer w.Flush()

	header := []string{
		"index",
		"time",
		"period",
		"weight",
		"kind",
		"asset",
		"bus",
		"power",
		"store",
		"dispatch",
		"soc",
		"action",
		"committed",
	}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Time),
			strconv.Itoa(r.Period),
			fmtFloat(r.Weight),
			string(r.Kind),
			r.Asset,
			r.Bus,
			fmtFloat(r.Power),
			fmtFloat(r.Store),
			fmtFloat(r.Dispatch),
			fmtFloat(r.SOC),
			string(r.Action),
			strconv.FormatBool(r.Committed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
