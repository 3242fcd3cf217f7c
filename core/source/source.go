// Package source declares the data-access boundary of a dispatch run. The
// application receives providers for inputs and writers for results instead
// of reaching into a shared data handle.
package source

import (
	"context"

	"github.com/kilianp07/prosumer/core/dispatch"
	"github.com/kilianp07/prosumer/core/model"
)

// SeriesProvider loads the input time series of an agent.
type SeriesProvider interface {
	Series(ctx context.Context, agent string) (model.TimeSeries, error)
}

// ParameterProvider loads the validated battery and market parameters of an
// agent.
type ParameterProvider interface {
	Parameters(ctx context.Context, agent string) (model.AgentParameters, error)
}

// ResultWriter hands a finished run to an output channel.
type ResultWriter interface {
	WriteResult(ctx context.Context, res dispatch.AgentResult) error
}

// ResultWriters fans a result out to several writers and stops at the
// first error.
type ResultWriters []ResultWriter

func (ws ResultWriters) WriteResult(ctx context.Context, res dispatch.AgentResult) error {
	for _, w := range ws {
		if err := w.WriteResult(ctx, res); err != nil {
			return err
		}
	}
	return nil
}
