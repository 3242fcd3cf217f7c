// Package export renders agent results as CSV, JSON, YAML and HTML charts.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/kilianp07/prosumer/core/dispatch"
	"github.com/kilianp07/prosumer/core/model"
)

// Row is one exported timestep. Output columns are null when the window of
// the step produced no values.
type Row struct {
	T     int      `json:"t" yaml:"t"`
	PV    float64  `json:"pv" yaml:"pv"`
	Dem   float64  `json:"dem" yaml:"dem"`
	MP    float64  `json:"mp" yaml:"mp"`
	FP    float64  `json:"fp" yaml:"fp"`
	Sell  *float64 `json:"sell" yaml:"sell"`
	Buy   *float64 `json:"buy" yaml:"buy"`
	Cap   *float64 `json:"cap" yaml:"cap"`
	BStat *float64 `json:"b_stat" yaml:"b_stat"`
	SStat *float64 `json:"s_stat" yaml:"s_stat"`
	CStat *float64 `json:"c_stat" yaml:"c_stat"`
	DStat *float64 `json:"d_stat" yaml:"d_stat"`
	Char  *float64 `json:"char" yaml:"char"`
	Dis   *float64 `json:"dis" yaml:"dis"`
}

// WindowReport is the exported outcome of one window.
type WindowReport struct {
	Start     int          `json:"start" yaml:"start"`
	End       int          `json:"end" yaml:"end"`
	Status    model.Status `json:"status" yaml:"status"`
	Objective *float64     `json:"objective" yaml:"objective"`
	Nodes     int          `json:"nodes" yaml:"nodes"`
}

// Report is the exported form of an agent result.
type Report struct {
	Agent    string         `json:"agent" yaml:"agent"`
	RunID    string         `json:"run_id" yaml:"run_id"`
	Cost     string         `json:"cost" yaml:"cost"`
	Status   model.Status   `json:"status" yaml:"status"`
	Started  time.Time      `json:"started" yaml:"started"`
	Finished time.Time      `json:"finished" yaml:"finished"`
	Windows  []WindowReport `json:"windows" yaml:"windows"`
	Series   []Row          `json:"series" yaml:"series"`
}

// NewReport converts res into its exported form.
func NewReport(res dispatch.AgentResult) Report {
	r := Report{
		Agent:    res.Agent,
		RunID:    res.RunID,
		Cost:     FormatCost(res.State.Cost),
		Status:   res.State.Status,
		Started:  res.Started,
		Finished: res.Finished,
		Windows:  make([]WindowReport, len(res.Windows)),
		Series:   Rows(res.Series),
	}
	for i, w := range res.Windows {
		r.Windows[i] = WindowReport{
			Start:     w.Window.Start,
			End:       w.Window.End,
			Status:    w.Status,
			Objective: num(w.Objective),
			Nodes:     w.Nodes,
		}
	}
	return r
}

// Rows converts a series into export rows.
func Rows(s model.TimeSeries) []Row {
	rows := make([]Row, len(s))
	for i, st := range s {
		rows[i] = Row{
			T: st.T, PV: st.PV, Dem: st.Dem, MP: st.MP, FP: st.FP,
			Sell: num(st.Sell), Buy: num(st.Buy), Cap: num(st.Cap),
			BStat: num(st.BStat), SStat: num(st.SStat), CStat: num(st.CStat), DStat: num(st.DStat),
			Char: num(st.Char), Dis: num(st.Dis),
		}
	}
	return rows
}

func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// FormatCost renders a cost with four decimals.
func FormatCost(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return decimal.NewFromFloat(v).Round(4).StringFixed(4)
}

// WriteJSON writes the report of res to w in JSON format.
func WriteJSON(w io.Writer, res dispatch.AgentResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewReport(res))
}

// WriteYAML writes the report of res to w in YAML format.
func WriteYAML(w io.Writer, res dispatch.AgentResult) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewReport(res)); err != nil {
		return err
	}
	return enc.Close()
}

var csvHeader = []string{"t", "pv", "dem", "mp", "fp", "sell", "buy", "cap", "b_stat", "s_stat", "c_stat", "d_stat", "char", "dis"}

// WriteCSV writes the enriched series to w. Missing outputs are left empty.
func WriteCSV(w io.Writer, s model.TimeSeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range Rows(s) {
		rec := []string{
			strconv.Itoa(r.T),
			formatFloat(&r.PV), formatFloat(&r.Dem), formatFloat(&r.MP), formatFloat(&r.FP),
			formatFloat(r.Sell), formatFloat(r.Buy), formatFloat(r.Cap),
			formatFloat(r.BStat), formatFloat(r.SStat), formatFloat(r.CStat), formatFloat(r.DStat),
			formatFloat(r.Char), formatFloat(r.Dis),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// WriteSummary writes one CSV line per result.
func WriteSummary(w io.Writer, results []dispatch.AgentResult) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"agent", "run_id", "cost", "status", "windows"}); err != nil {
		return err
	}
	for _, r := range results {
		rec := []string{r.Agent, r.RunID, FormatCost(r.State.Cost), string(r.State.Status), strconv.Itoa(r.State.Windows)}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
