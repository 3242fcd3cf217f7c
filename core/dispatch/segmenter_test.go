package dispatch

import (
	"errors"
	"testing"

	"github.com/kilianp07/prosumer/core/model"
)

func TestWindowEnds(t *testing.T) {
	cases := []struct {
		n, l int
		want []int
	}{
		{4, 2, []int{2, 4}},
		{5, 2, []int{2, 4, 5}},
		{3, 10, []int{3}},
		{4, 4, []int{4}},
		{3, 1, []int{1, 2, 3}},
	}
	for _, c := range cases {
		got, err := WindowEnds(c.n, c.l)
		if err != nil {
			t.Fatalf("WindowEnds(%d,%d): %v", c.n, c.l, err)
		}
		if len(got) != len(c.want) {
			t.Fatalf("WindowEnds(%d,%d) = %v, want %v", c.n, c.l, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("WindowEnds(%d,%d) = %v, want %v", c.n, c.l, got, c.want)
			}
		}
	}
}

func TestSegmentPartitions(t *testing.T) {
	for n := 1; n <= 25; n++ {
		for l := 1; l <= 30; l++ {
			ws, err := Segment(n, l)
			if err != nil {
				t.Fatalf("Segment(%d,%d): %v", n, l, err)
			}
			if want := (n + l - 1) / l; len(ws) != want {
				t.Fatalf("Segment(%d,%d): %d windows, want %d", n, l, len(ws), want)
			}
			next := 0
			for _, w := range ws {
				if w.Start != next || w.Len() <= 0 || w.Len() > l {
					t.Fatalf("Segment(%d,%d): bad window %s after %d", n, l, w, next)
				}
				next = w.End
			}
			if next != n {
				t.Fatalf("Segment(%d,%d): covers [0,%d)", n, l, next)
			}
		}
	}
}

func TestSegmentInvalid(t *testing.T) {
	for _, c := range [][2]int{{4, 0}, {4, -1}, {0, 2}} {
		_, err := Segment(c[0], c[1])
		var cfgErr *model.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("Segment(%d,%d): expected ConfigError got %v", c[0], c[1], err)
		}
	}
}
