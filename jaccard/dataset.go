package jaccard

import (
	"fmt"
	"sort"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/scjaccard/encoding/mtx"
	"github.com/grailbio/scjaccard/interval"
)

// Table maps 1-based ordinals to the intervals of the region file.  It is
// immutable once built.
type Table struct {
	regions []interval.Region
}

// NewTable returns a table where regions[i] has ordinal i+1.  Every region
// must be well-formed.
func NewTable(regions []interval.Region) (*Table, error) {
	for i, r := range regions {
		if err := r.Validate(); err != nil {
			return nil, errors.E(fmt.Sprintf("region %d", i+1), err)
		}
	}
	return &Table{regions: regions}, nil
}

// Len returns the number of intervals.
func (t *Table) Len() int { return len(t.regions) }

// Get returns the interval with the given ordinal.
func (t *Table) Get(ordinal uint32) (interval.Region, error) {
	if ordinal == 0 || int(ordinal) > len(t.regions) {
		return interval.Region{}, errors.E(errors.Invalid,
			fmt.Sprintf("region ordinal %d out of range [1, %d]", ordinal, len(t.regions)))
	}
	return t.regions[ordinal-1], nil
}

// Dataset holds the per-cell state of a run.
type Dataset struct {
	Table *Table
	// Cells is keyed by cell ordinal.
	Cells map[uint32]*Cell
	// Assignments lists, per cell ordinal, the region ordinals assigned to
	// the cell in input order.  Duplicates are kept.
	Assignments map[uint32][]uint32
}

// NewDataset returns an empty dataset over table.  sizeHint pre-sizes the
// cell maps.
func NewDataset(table *Table, sizeHint int) *Dataset {
	return &Dataset{
		Table:       table,
		Cells:       make(map[uint32]*Cell, sizeHint),
		Assignments: make(map[uint32][]uint32, sizeHint),
	}
}

// AddCell registers cell with no assigned regions, if it is not already
// known.
func (d *Dataset) AddCell(cell uint32) {
	if d.Cells[cell] == nil {
		d.Cells[cell] = &Cell{}
	}
}

// Assign records that the region with the given ordinal was observed in
// cell, adding its length to the cell's union.
func (d *Dataset) Assign(cell, ordinal uint32) error {
	r, err := d.Table.Get(ordinal)
	if err != nil {
		return err
	}
	length, err := r.Length()
	if err != nil {
		return err
	}
	d.AddCell(cell)
	c := d.Cells[cell]
	if err := add32(&c.UnionLength, length, fmt.Sprintf("union length of cell %d", cell)); err != nil {
		return err
	}
	d.Assignments[cell] = append(d.Assignments[cell], ordinal)
	return nil
}

// IngestMatrix assigns every entry of a MatrixMarket stream whose rows are
// region ordinals and whose columns are cell ordinals.
func (d *Dataset) IngestMatrix(r *mtx.Reader) error {
	for r.Scan() {
		e := r.Entry()
		if err := d.Assign(e.Col, e.Row); err != nil {
			return err
		}
	}
	return r.Err()
}

// CellIDs returns the cell ordinals in increasing order.
func (d *Dataset) CellIDs() []uint32 {
	ids := make([]uint32, 0, len(d.Cells))
	for id := range d.Cells {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Merge folds the overlap results into the cell accumulators.  Each cell may
// be merged at most once.  Merge must not run concurrently with anything
// else touching d.
func (d *Dataset) Merge(results []Result) error {
	for _, res := range results {
		c := d.Cells[res.Cell]
		if c == nil {
			return errors.E(errors.Invalid, fmt.Sprintf("result for unknown cell %d", res.Cell))
		}
		if c.merged {
			return errors.E(errors.Invalid, fmt.Sprintf("cell %d merged twice", res.Cell))
		}
		c.merged = true
		c.IntersectionLength = res.IntersectionLength
		c.IntersectionCount = res.IntersectionCount
		c.RegionCount = res.RegionCount
	}
	return nil
}
