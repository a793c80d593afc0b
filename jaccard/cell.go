// Package jaccard scores single cells against a reference population of
// genomic intervals.  For every cell it sums the lengths of the intervals
// assigned to the cell (the union), measures how much of them the reference
// covers (the intersection), and reports
//
//   jaccard = intersection / (union + known - intersection)
//
// where known is the total length of the reference.  The work is split into
// strictly ordered phases: sequential ingestion (Dataset), a sequential scan
// of the reference (KnownUnion), a parallel overlap pass that only produces
// per-cell results (Overlap), a single-threaded merge (Dataset.Merge), and
// scoring (Score).
package jaccard

import (
	"fmt"
	"math"

	"github.com/grailbio/base/errors"
)

// Cell holds the accumulators of one cell.
type Cell struct {
	// UnionLength is the summed length of every assigned interval, counted
	// with multiplicity.
	UnionLength uint32
	// IntersectionLength is the summed overlap between the cell's intervals
	// and the reference.
	IntersectionLength uint32
	// IntersectionCount is the number of (interval, reference interval)
	// pairs with a positive overlap.
	IntersectionCount uint32
	// RegionCount is the number of assigned intervals processed by the
	// overlap pass.
	RegionCount uint32

	merged bool
}

func add32(acc *uint32, v uint32, what string) error {
	if v > math.MaxUint32-*acc {
		return errors.E(errors.Invalid, fmt.Sprintf("%s overflows: %d + %d", what, *acc, v))
	}
	*acc += v
	return nil
}

// Jaccard returns the cell's score against a reference of total length
// known.  A denominator <= 0 yields an errors.Invalid error.
func (c *Cell) Jaccard(known uint32) (float64, error) {
	isec := float64(c.IntersectionLength)
	denom := float64(c.UnionLength) + float64(known) - isec
	if denom <= 0 {
		return 0, errors.E(errors.Invalid,
			fmt.Sprintf("degenerate jaccard denominator %v (union %d, known %d, intersection %d)",
				denom, c.UnionLength, known, c.IntersectionLength))
	}
	return isec / denom, nil
}
