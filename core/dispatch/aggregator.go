package dispatch

import (
	"fmt"
	"math"

	"github.com/kilianp07/prosumer/core/model"
)

// ApplySolution writes the decision values of sol into the window rows of
// series. Sell and Dis are stored negated as outflows. A solution without
// values writes NaN to every output column of the window.
func ApplySolution(series model.TimeSeries, w model.Window, sol model.WindowSolution) error {
	if w.Start < 0 || w.End > len(series) || w.Len() <= 0 {
		return fmt.Errorf("window %s outside series of %d steps", w, len(series))
	}
	rows := series.Slice(w)
	if !sol.HasValues() {
		nan := math.NaN()
		for i := range rows {
			setOutputs(&rows[i], model.StepSolution{
				Buy: nan, Sell: nan, Cap: nan, Dis: nan, Char: nan,
				BStat: nan, SStat: nan, DStat: nan, CStat: nan,
			})
		}
		return nil
	}
	if len(sol.Steps) != len(rows) {
		return fmt.Errorf("window %s: solution has %d steps, want %d", w, len(sol.Steps), len(rows))
	}
	for i, st := range sol.Steps {
		if st.T != rows[i].T {
			return fmt.Errorf("window %s: solution step %d has label %d, want %d", w, i, st.T, rows[i].T)
		}
		setOutputs(&rows[i], st)
	}
	return nil
}

func setOutputs(row *model.Step, st model.StepSolution) {
	row.Buy = st.Buy
	row.Sell = outflow(st.Sell)
	row.Cap = st.Cap
	row.Char = st.Char
	row.Dis = outflow(st.Dis)
	row.BStat = st.BStat
	row.SStat = st.SStat
	row.DStat = st.DStat
	row.CStat = st.CStat
}

// outflow negates v without producing a negative zero.
func outflow(v float64) float64 {
	if v == 0 {
		return 0
	}
	return -v
}
