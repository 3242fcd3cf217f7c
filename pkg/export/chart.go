package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/prosumer/core/dispatch"
)

// WriteChart renders the dispatch schedule of res as an HTML line chart.
// Steps without values are drawn as gaps.
func WriteChart(w io.Writer, res dispatch.AgentResult) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Dispatch " + res.Agent,
			Subtitle: fmt.Sprintf("cost %s, status %s", FormatCost(res.State.Cost), res.State.Status),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "t"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "energy"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	rows := Rows(res.Series)
	x := make([]string, len(rows))
	series := map[string][]opts.LineData{}
	names := []string{"pv", "dem", "buy", "sell", "char", "dis", "cap"}
	for i, r := range rows {
		x[i] = strconv.Itoa(r.T)
		vals := []*float64{&r.PV, &r.Dem, r.Buy, r.Sell, r.Char, r.Dis, r.Cap}
		for j, name := range names {
			if vals[j] == nil {
				series[name] = append(series[name], opts.LineData{Value: "-"})
				continue
			}
			series[name] = append(series[name], opts.LineData{Value: *vals[j]})
		}
	}
	line.SetXAxis(x)
	for _, name := range names {
		line.AddSeries(name, series[name])
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
