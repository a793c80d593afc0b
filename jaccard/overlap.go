package jaccard

import (
	"context"
	"fmt"
	"math"
	"sync/atomic"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/scjaccard/reference"
)

// DefaultPadding is the default widening, on each side, of every reference
// query.
const DefaultPadding = 1000

// OverlapOpts configures Overlap.
type OverlapOpts struct {
	// Parallelism is the number of workers.  Values < 1 mean 1.  It is capped
	// at the number of cells.
	Parallelism int
	// Padding widens each reference query on both sides.  Overlaps are
	// always measured against the unpadded interval.
	Padding uint32
}

// DefaultOverlapOpts is the default OverlapOpts.
var DefaultOverlapOpts = OverlapOpts{
	Parallelism: 1,
	Padding:     DefaultPadding,
}

// Result is the overlap pass output for one cell.
type Result struct {
	Cell               uint32
	IntersectionLength uint32
	IntersectionCount  uint32
	RegionCount        uint32
}

// padded returns [start-pad, stop+pad), saturating at both ends.
func padded(r interval.Region, pad uint32) (uint32, uint32) {
	start := uint32(0)
	if r.Start > pad {
		start = r.Start - pad
	}
	stop := uint32(math.MaxUint32)
	if r.Stop < math.MaxUint32-pad {
		stop = r.Stop + pad
	}
	return start, stop
}

// cellWorker is the per-goroutine state of Overlap.
type cellWorker struct {
	h     reference.Handle
	table *Table
	pad   uint32
	// refIDs caches contig name resolution.
	refIDs map[string]int
}

func (w *cellWorker) refID(chr string) (int, error) {
	if id, ok := w.refIDs[chr]; ok {
		return id, nil
	}
	id, err := w.h.RefID(chr)
	if err != nil {
		return -1, err
	}
	w.refIDs[chr] = id
	return id, nil
}

// processCell computes the result of one cell.  It depends only on the
// cell's own assignment list.
func (w *cellWorker) processCell(cell uint32, ordinals []uint32) (Result, error) {
	res := Result{Cell: cell}
	debug := log.At(log.Debug)
	for _, ordinal := range ordinals {
		r, err := w.table.Get(ordinal)
		if err != nil {
			return res, err
		}
		id, err := w.refID(r.Chr)
		if err != nil {
			return res, errors.E(fmt.Sprintf("cell %d", cell), err)
		}
		start, stop := w.padded(r)
		if debug {
			log.Debug.Printf("cell %d: query %s:%d-%d for %v", cell, r.Chr, start, stop, r)
		}
		var ferr error
		err = w.h.Fetch(id, start, stop, func(ref interval.Region) {
			if ferr != nil {
				return
			}
			isec := interval.Intersect(r, ref)
			if debug {
				log.Debug.Printf("cell %d: %v vs %v: %d", cell, r, ref, isec)
			}
			if isec == 0 {
				return
			}
			if ferr = add32(&res.IntersectionLength, isec, fmt.Sprintf("intersection length of cell %d", cell)); ferr == nil {
				ferr = add32(&res.IntersectionCount, 1, fmt.Sprintf("intersection count of cell %d", cell))
			}
		})
		if err == nil {
			err = ferr
		}
		if err != nil {
			return res, errors.E(fmt.Sprintf("cell %d, region %v", cell, r), err)
		}
		if err := add32(&res.RegionCount, 1, fmt.Sprintf("region count of cell %d", cell)); err != nil {
			return res, err
		}
	}
	return res, nil
}

func (w *cellWorker) padded(r interval.Region) (uint32, uint32) {
	start, stop := padded(r, w.pad)
	if stop > reference.MaxPos {
		stop = reference.MaxPos
	}
	return start, stop
}

// Overlap runs the overlap pass over every cell of d.  Cells are handed out
// to opts.Parallelism workers, each with its own store handle.  The first
// error stops every worker, and no results are returned with it.  Results
// are in increasing cell order.
//
// d is only read.  Merge the results with d.Merge once Overlap returns.
func Overlap(ctx context.Context, store reference.Store, d *Dataset, opts OverlapOpts) ([]Result, error) {
	cells := d.CellIDs()
	parallelism := opts.Parallelism
	if parallelism < 1 {
		parallelism = 1
	}
	if parallelism > len(cells) {
		parallelism = len(cells)
	}
	if parallelism == 0 {
		return nil, nil
	}
	results := make([]Result, len(cells))
	var (
		next int64 = -1
		errs errors.Once
	)
	err := traverse.Each(parallelism, func(workerIdx int) error {
		h, err := store.Open(ctx)
		if err != nil {
			errs.Set(err)
			return err
		}
		w := &cellWorker{
			h:      h,
			table:  d.Table,
			pad:    opts.Padding,
			refIDs: map[string]int{},
		}
		nCells := 0
		for errs.Err() == nil {
			idx := int(atomic.AddInt64(&next, 1))
			if idx >= len(cells) {
				break
			}
			if err := ctx.Err(); err != nil {
				errs.Set(err)
				break
			}
			cell := cells[idx]
			res, err := w.processCell(cell, d.Assignments[cell])
			if err != nil {
				errs.Set(err)
				break
			}
			// Each index is claimed by exactly one worker.
			results[idx] = res
			nCells++
		}
		log.Debug.Printf("overlap worker %d: %d cells", workerIdx, nCells)
		if err := h.Close(); err != nil {
			errs.Set(err)
		}
		return errs.Err()
	})
	if err == nil {
		err = errs.Err()
	}
	if err != nil {
		return nil, err
	}
	return results, nil
}
