package dispatch

import (
	"fmt"

	"github.com/kilianp07/prosumer/core/model"
)

// WindowEnds returns the exclusive end position of every optimization
// window over n steps with window length l: l, 2l, ... and finally n when n
// is not a multiple of l.
func WindowEnds(n, l int) ([]int, error) {
	if l <= 0 {
		return nil, &model.ConfigError{Field: "horizont", Reason: fmt.Sprintf("must be positive, got %d", l)}
	}
	if n <= 0 {
		return nil, &model.ConfigError{Field: "steps", Reason: fmt.Sprintf("must be positive, got %d", n)}
	}
	full := n / l
	ends := make([]int, 0, full+1)
	for p := 1; p <= full; p++ {
		ends = append(ends, p*l)
	}
	if n%l > 0 {
		ends = append(ends, n)
	}
	return ends, nil
}

// Segment partitions [0, n) into consecutive windows of length l, the last
// one possibly shorter.
func Segment(n, l int) ([]model.Window, error) {
	ends, err := WindowEnds(n, l)
	if err != nil {
		return nil, err
	}
	windows := make([]model.Window, len(ends))
	start := 0
	for i, end := range ends {
		windows[i] = model.Window{Start: start, End: end}
		start = end
	}
	return windows, nil
}
