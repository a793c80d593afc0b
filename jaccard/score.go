package jaccard

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/dgryski/go-farm"
	"github.com/grailbio/base/log"
)

// Row is one line of output.
type Row struct {
	Ordinal uint32
	Barcode string
	Cell
	Known uint32
	// Score is valid iff Err is nil.
	Score float64
	Err   error
}

// Score computes a Row for every cell of d, in increasing cell order.  A
// degenerate denominator is reported in the row's Err, not as an error of
// Score; a cell without a barcode is an error.
func Score(d *Dataset, known uint32, barcodes *Barcodes) ([]Row, error) {
	ids := d.CellIDs()
	rows := make([]Row, 0, len(ids))
	nErr := 0
	for _, id := range ids {
		barcode, err := barcodes.Lookup(id)
		if err != nil {
			return nil, err
		}
		row := Row{Ordinal: id, Barcode: barcode, Cell: *d.Cells[id], Known: known}
		if row.Score, row.Err = row.Cell.Jaccard(known); row.Err != nil {
			log.Error.Printf("cell %s: %v", barcode, row.Err)
			nErr++
		}
		rows = append(rows, row)
	}
	if nErr > 0 {
		log.Printf("%d of %d cells could not be scored", nErr, len(rows))
	}
	return rows, nil
}

func (r *Row) scoreString() string {
	if r.Err != nil {
		return "error: " + r.Err.Error()
	}
	return fmt.Sprintf("%.5f", r.Score)
}

// Format renders the row in compact ("<barcode> <score>") or full
// ("<barcode>, <union>, <intersection>, <hits>, <known>, <regions>,
// <score>") form.
func (r *Row) Format(full bool) string {
	if !full {
		return r.Barcode + " " + r.scoreString()
	}
	return fmt.Sprintf("%s, %d, %d, %d, %d, %d, %s", r.Barcode, r.UnionLength, r.IntersectionLength,
		r.IntersectionCount, r.Known, r.RegionCount, r.scoreString())
}

// WriteRows writes one line per row.  Consumers must not depend on the row
// order.
func WriteRows(w io.Writer, rows []Row, full bool) error {
	bw := bufio.NewWriter(w)
	for i := range rows {
		if _, err := bw.WriteString(rows[i].Format(full)); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Digest returns a fingerprint of rows that ignores their order.  Two runs
// over the same inputs have the same digest.
func Digest(rows []Row) uint64 {
	var d uint64
	for i := range rows {
		r := &rows[i]
		score := r.scoreString()
		if r.Err == nil {
			score = fmt.Sprint(math.Float64bits(r.Score))
		}
		key := fmt.Sprintf("%d\x00%s\x00%d\x00%d\x00%d\x00%d\x00%d\x00%s", r.Ordinal, r.Barcode,
			r.UnionLength, r.IntersectionLength, r.IntersectionCount, r.Known, r.RegionCount, score)
		d ^= farm.Hash64([]byte(key))
	}
	return d
}
