package jaccard

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scjaccard/encoding/mtx"
	"github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/scjaccard/reference"
	"github.com/grailbio/scjaccard/util"
)

// Opts configures Run.
type Opts struct {
	// MatrixPath is the MatrixMarket file; rows are region ordinals, columns
	// cell ordinals.
	MatrixPath string
	// RegionPath is the BED file whose i-th interval is region ordinal i.
	RegionPath string
	// BarcodePath names the cells; line i is cell ordinal i.
	BarcodePath string
	// ReferencePath is the reference BED, bgzipped and tabix-indexed unless
	// ReferenceInMemory is set.
	ReferencePath      string
	ReferenceIndexPath string
	// ReferenceInMemory loads the whole reference into memory instead of
	// querying it through its index.
	ReferenceInMemory bool

	Parallelism    int
	NumChromosomes int
	Padding        uint32
	// Full selects the full output format.
	Full bool
}

// DefaultOpts is the default Opts.
var DefaultOpts = Opts{
	Parallelism:    1,
	NumChromosomes: 22,
	Padding:        DefaultPadding,
}

func stage(name string, start time.Time) {
	log.Printf("%s: done in %v", name, time.Since(start))
}

// LoadDataset reads the region table and the matrix.
func LoadDataset(ctx context.Context, regionPath, matrixPath string) (d *Dataset, err error) {
	regions, err := interval.ReadBEDFromPath(ctx, regionPath)
	if err != nil {
		return nil, err
	}
	table, err := NewTable(regions)
	if err != nil {
		return nil, errors.E(regionPath, err)
	}
	reader, closer, err := util.OpenReader(ctx, matrixPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	m, err := mtx.NewReader(reader)
	if err != nil {
		return nil, errors.E(errors.Invalid, matrixPath, err)
	}
	header := m.Header()
	if header.Rows > table.Len() {
		return nil, errors.E(errors.Invalid,
			fmt.Sprintf("%s: %d rows, but %s has only %d regions", matrixPath, header.Rows, regionPath, table.Len()))
	}
	d = NewDataset(table, header.Cols)
	if err := d.IngestMatrix(m); err != nil {
		return nil, errors.E(matrixPath, err)
	}
	return d, nil
}

// Run scores every cell of the matrix and writes one line per cell to out.
// It returns the rows written.
func Run(ctx context.Context, opts Opts, out io.Writer) (rows []Row, err error) {
	start := time.Now()
	d, err := LoadDataset(ctx, opts.RegionPath, opts.MatrixPath)
	if err != nil {
		return nil, err
	}
	log.Printf("loaded %d regions and %d cells", d.Table.Len(), len(d.Cells))
	barcodes, err := ReadBarcodesFromPath(ctx, opts.BarcodePath)
	if err != nil {
		return nil, err
	}
	stage("ingestion", start)

	start = time.Now()
	store, err := reference.Open(ctx, opts.ReferencePath, opts.ReferenceIndexPath, opts.ReferenceInMemory)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	known, err := KnownUnion(ctx, store, opts.NumChromosomes)
	if err != nil {
		return nil, err
	}
	log.Printf("known union over %d chromosomes: %d", opts.NumChromosomes, known)
	stage("known union", start)

	start = time.Now()
	results, err := Overlap(ctx, store, d, OverlapOpts{Parallelism: opts.Parallelism, Padding: opts.Padding})
	if err != nil {
		return nil, err
	}
	if err := d.Merge(results); err != nil {
		return nil, err
	}
	stage("overlap", start)

	if rows, err = Score(d, known, barcodes); err != nil {
		return nil, err
	}
	if err := WriteRows(out, rows, opts.Full); err != nil {
		return nil, err
	}
	log.Printf("wrote %d rows, digest %016x", len(rows), Digest(rows))
	return rows, nil
}
