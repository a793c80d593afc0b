package interval

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Region is a contiguous range [Start, Stop) on chromosome Chr.
type Region struct {
	Chr   string
	Start uint32
	Stop  uint32
}

// Validate returns an errors.Invalid error if Stop < Start.
func (r Region) Validate() error {
	if r.Stop < r.Start {
		return errors.E(errors.Invalid, fmt.Sprintf("malformed interval %v: stop precedes start", r))
	}
	return nil
}

// Length returns Stop - Start.  A malformed region yields an error instead of
// a wrapped-around length.
func (r Region) Length() (uint32, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	return r.Stop - r.Start, nil
}

func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chr, r.Start, r.Stop)
}

// Intersect returns the number of positions shared by a and b.  Both regions
// must be well-formed and on the same chromosome; the chromosome is not
// checked.
//
// The disjointness test uses strict comparisons, so regions that merely touch
// (a.Stop == b.Start) are considered overlapping and yield 0.
func Intersect(a, b Region) uint32 {
	if b.Start > a.Stop || a.Start > b.Stop {
		return 0
	}
	start := a.Start
	if b.Start > start {
		start = b.Start
	}
	stop := a.Stop
	if b.Stop < stop {
		stop = b.Stop
	}
	return stop - start
}
