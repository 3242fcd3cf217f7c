package source

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/prosumer/core/model"
)

const sampleCSV = `t,pv,dem,mp,fp,buy
# forecasts for house-1
1,0,1,1,0.5,
2, 2.5 ,1,1,0.5,9
3,0,1.25,2,0.5,
`

func TestReadCSV(t *testing.T) {
	s, err := ReadCSV(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, s, 3)
	assert.Equal(t, model.Step{T: 2, PV: 2.5, Dem: 1, MP: 1, FP: 0.5}, s[1])
	assert.Equal(t, 1.25, s[2].Dem)
	// output columns in the file are not read back
	assert.Equal(t, 0.0, s[1].Buy)
}

func TestReadCSV_Errors(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.True(t, errors.Is(err, model.ErrEmptySeries))

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp\n1,0,1,1\n"))
	assert.ErrorContains(t, err, `missing column "fp"`)

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp,fp\n1,x,1,1,1\n"))
	assert.ErrorContains(t, err, "line 2 column pv")

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp,fp\n1.5,0,1,1,1\n"))
	assert.ErrorContains(t, err, "not an integer")

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp,fp\n1,0,1,1,1\n3,0,1,1,1\n"))
	assert.Error(t, err)

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp,fp\n"))
	assert.True(t, errors.Is(err, model.ErrEmptySeries))

	_, err = ReadCSV(strings.NewReader("t,pv,dem,mp,fp\n1,0,NaN,1,1\n2,0,1,Inf,1\n"))
	var cfgErr *model.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "series.dem[t=1]", cfgErr.Field)
}

func TestCSVSeries(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "house-1.csv"), []byte(sampleCSV), 0o644))
	other := filepath.Join(t.TempDir(), "elsewhere.csv")
	require.NoError(t, os.WriteFile(other, []byte(sampleCSV), 0o644))

	p := NewCSVSeries(CSVConfig{Dir: dir, Files: map[string]string{"house-2": other}})
	s, err := p.Series(context.Background(), "house-1")
	require.NoError(t, err)
	assert.Len(t, s, 3)
	s, err = p.Series(context.Background(), "house-2")
	require.NoError(t, err)
	assert.Len(t, s, 3)

	_, err = p.Series(context.Background(), "missing")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestConfigParameters(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	h := 2
	good := model.RawParameters{
		MinDis: f(0), MaxDis: f(10), MinCha: f(0), MaxCha: f(10),
		ThresDown: f(0), ThresUp: f(10), MaxBuy: f(10), MaxSell: f(10),
		InitSOC: f(0), EndSOC: f(0), Horizont: &h,
	}
	p, err := NewConfigParameters(map[string]model.RawParameters{"house-1": good})
	require.NoError(t, err)
	got, err := p.Parameters(context.Background(), "house-1")
	require.NoError(t, err)
	assert.Equal(t, 2, got.Horizont)
	assert.Equal(t, 1.0, got.BattEff)

	_, err = p.Parameters(context.Background(), "house-9")
	var cfgErr *model.ConfigError
	assert.True(t, errors.As(err, &cfgErr))

	bad := good
	bad.Horizont = nil
	_, err = NewConfigParameters(map[string]model.RawParameters{"house-1": good, "house-2": bad})
	assert.ErrorContains(t, err, "agent house-2")
	assert.ErrorContains(t, err, "horizont: missing")
}
