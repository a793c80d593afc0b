// Package mtx reads sparse matrices in MatrixMarket coordinate format, as
// written by single-cell pipelines for (region x cell) count matrices.
//
// The format is
//   %%MatrixMarket matrix coordinate integer general
//   % any number of comment lines
//   <rows> <cols> <entries>
//   <row> <col> [<value>]
//   ...
// Row and column indices are 1-based.  The value column is optional, to
// allow pattern matrices; integer and real values are both accepted.
package mtx

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/pkg/errors"
)

// Header holds the dimensions declared on the size line.
type Header struct {
	Rows    int
	Cols    int
	Entries int
}

// Entry is one (row, col, value) triplet.
type Entry struct {
	Row   uint32
	Col   uint32
	Value float64
}

// Reader streams entries from a MatrixMarket coordinate file.
//
// Example:
//   r, err := mtx.NewReader(in)
//   for r.Scan() {
//     e := r.Entry()
//     ...
//   }
//   err = r.Err()
type Reader struct {
	scanner *bufio.Scanner
	header  Header
	lineIdx int
	nEntry  int
	entry   Entry
	fields  [][]byte
	err     error
}

const maxLineLen = 1 << 20

// NewReader consumes the banner, comments and size line of in, and returns a
// Reader positioned at the first entry.
func NewReader(in io.Reader) (*Reader, error) {
	r := &Reader{scanner: bufio.NewScanner(in)}
	r.scanner.Buffer(make([]byte, 64*1024), maxLineLen)
	line, ok := r.nextDataLine()
	if !ok {
		if r.err != nil {
			return nil, r.err
		}
		return nil, errors.Errorf("mtx: no size line found")
	}
	r.fields = bytes.Fields(line)
	if len(r.fields) != 3 {
		return nil, errors.Errorf("mtx: line %d: size line must have 3 columns, got %q", r.lineIdx, line)
	}
	dims := [3]*int{&r.header.Rows, &r.header.Cols, &r.header.Entries}
	for i, d := range dims {
		v, err := strconv.Atoi(gunsafe.BytesToString(r.fields[i]))
		if err != nil || v < 0 {
			return nil, errors.Errorf("mtx: line %d: bad size value %q", r.lineIdx, r.fields[i])
		}
		*d = v
	}
	return r, nil
}

// Header returns the dimensions from the size line.
func (r *Reader) Header() Header { return r.header }

// nextDataLine returns the next non-blank, non-comment line.
func (r *Reader) nextDataLine() ([]byte, bool) {
	for r.scanner.Scan() {
		r.lineIdx++
		line := bytes.TrimSpace(r.scanner.Bytes())
		if len(line) == 0 || line[0] == '%' {
			continue
		}
		return line, true
	}
	if err := r.scanner.Err(); err != nil {
		r.err = errors.Wrapf(err, "mtx: line %d", r.lineIdx+1)
	}
	return nil, false
}

func parseOrdinal(b []byte) (uint32, error) {
	v, err := strconv.ParseUint(gunsafe.BytesToString(b), 10, 32)
	if err != nil {
		return 0, err
	}
	if v == 0 {
		return 0, errors.New("ordinals are 1-based")
	}
	return uint32(v), nil
}

// Scan reads the next entry.  It returns false at EOF or on error; check Err
// afterwards.
func (r *Reader) Scan() bool {
	if r.err != nil {
		return false
	}
	line, ok := r.nextDataLine()
	if !ok {
		if r.err == nil && r.nEntry != r.header.Entries {
			r.err = errors.Errorf("mtx: size line declares %d entries, found %d", r.header.Entries, r.nEntry)
		}
		return false
	}
	r.fields = bytes.Fields(line)
	if len(r.fields) < 2 || len(r.fields) > 3 {
		r.err = errors.Errorf("mtx: line %d: expected 2 or 3 columns, got %d", r.lineIdx, len(r.fields))
		return false
	}
	var err error
	if r.entry.Row, err = parseOrdinal(r.fields[0]); err != nil {
		r.err = errors.Wrapf(err, "mtx: line %d: bad row index %q", r.lineIdx, r.fields[0])
		return false
	}
	if r.entry.Col, err = parseOrdinal(r.fields[1]); err != nil {
		r.err = errors.Wrapf(err, "mtx: line %d: bad column index %q", r.lineIdx, r.fields[1])
		return false
	}
	r.entry.Value = 1
	if len(r.fields) == 3 {
		if r.entry.Value, err = strconv.ParseFloat(gunsafe.BytesToString(r.fields[2]), 64); err != nil {
			r.err = errors.Wrapf(err, "mtx: line %d: bad value %q", r.lineIdx, r.fields[2])
			return false
		}
	}
	if int(r.entry.Row) > r.header.Rows || int(r.entry.Col) > r.header.Cols {
		r.err = errors.Errorf("mtx: line %d: entry (%d, %d) outside declared %dx%d matrix",
			r.lineIdx, r.entry.Row, r.entry.Col, r.header.Rows, r.header.Cols)
		return false
	}
	r.nEntry++
	return true
}

// Entry returns the most recently scanned entry.
func (r *Reader) Entry() Entry { return r.entry }

// Err returns the first error encountered, if any.
func (r *Reader) Err() error { return r.err }
