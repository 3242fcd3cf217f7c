// Package source implements the input providers of core/source.
package source

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/prosumer/core/model"
)

// CSVConfig locates the series file of each agent.
type CSVConfig struct {
	// Dir holds <agent>.csv files.
	Dir string `json:"dir"`
	// Files overrides the path for individual agents.
	Files map[string]string `json:"files"`
}

// CSVSeries reads agent time series from CSV files with a header row. The
// columns t, pv, dem, mp and fp are required; other columns are ignored.
type CSVSeries struct {
	cfg CSVConfig
}

// NewCSVSeries returns a provider for cfg.
func NewCSVSeries(cfg CSVConfig) *CSVSeries { return &CSVSeries{cfg: cfg} }

// Path returns the file read for agent.
func (c *CSVSeries) Path(agent string) string {
	if p, ok := c.cfg.Files[agent]; ok {
		return p
	}
	return filepath.Join(c.cfg.Dir, agent+".csv")
}

// Series reads and validates the series of agent.
func (c *CSVSeries) Series(ctx context.Context, agent string) (model.TimeSeries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := c.Path(agent)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("series %s: %w", agent, err)
	}
	defer func() { _ = f.Close() }()
	s, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("series %s (%s): %w", agent, path, err)
	}
	return s, nil
}

var requiredColumns = []string{"t", "pv", "dem", "mp", "fp"}

// ReadCSV parses a series from r.
func ReadCSV(r io.Reader) (model.TimeSeries, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.Comment = '#'
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, model.ErrEmptySeries
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	cols := make([]int, len(requiredColumns))
	for i, name := range requiredColumns {
		pos, ok := idx[name]
		if !ok {
			return nil, fmt.Errorf("missing column %q", name)
		}
		cols[i] = pos
	}

	var s model.TimeSeries
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		vals := make([]float64, len(cols))
		for i, pos := range cols {
			v, err := strconv.ParseFloat(strings.TrimSpace(rec[pos]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, requiredColumns[i], err)
			}
			vals[i] = v
		}
		t := int(vals[0])
		if float64(t) != vals[0] {
			return nil, fmt.Errorf("line %d: timestep %v is not an integer", line, vals[0])
		}
		s = append(s, model.Step{T: t, PV: vals[1], Dem: vals[2], MP: vals[3], FP: vals[4]})
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}
