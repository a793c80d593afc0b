package tabix

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"github.com/biogo/hts/bgzf"
	gbgzf "github.com/grailbio/scjaccard/encoding/bgzf"
	"github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/scjaccard/util"
	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
)

// Writer bgzips a coordinate-sorted BED stream and builds its tabix index on
// the fly.  Records must be grouped by contig, and sorted by start within a
// contig.
type Writer struct {
	bw       *gbgzf.Writer
	idx      *Index
	curChr   string
	curStart uint32
	started  bool
	seen     map[string]bool
	tiles    int
	line     int
	closed   bool
}

// NewWriter returns a Writer producing bgzf data on w.
func NewWriter(w io.Writer) (*Writer, error) {
	return NewWriterSize(w, gbgzf.DefaultUncompressedBlockSize)
}

// NewWriterSize is NewWriter with a configurable bgzf block size.
func NewWriterSize(w io.Writer, blockSize int) (*Writer, error) {
	bw, err := gbgzf.NewWriterSize(w, flate.DefaultCompression, blockSize)
	if err != nil {
		return nil, err
	}
	return &Writer{
		bw:   bw,
		idx:  newBEDIndex(),
		seen: map[string]bool{},
	}, nil
}

// WriteLine appends one BED line (without its trailing newline) to the data
// file and indexes it.  Comment lines are copied through unindexed, blank
// lines are dropped, and "track" and "browser" lines are only accepted
// before the first record.
func (w *Writer) WriteLine(line []byte) error {
	w.line++
	r, ok, err := interval.ParseBEDLine(line)
	if err != nil {
		return errors.Wrapf(err, "tabix: line %d", w.line)
	}
	if !ok {
		if len(bytes.TrimSpace(line)) == 0 {
			return nil
		}
		if line[0] != '#' {
			if w.started {
				return errors.Errorf("tabix: line %d: header line %q after first record", w.line, line)
			}
			w.idx.Skip++
		}
		return w.writeRaw(line)
	}
	if int(r.Stop) > maxRecordEnd {
		return errors.Errorf("tabix: line %d: %v ends beyond the maximum indexable position %d", w.line, r, maxRecordEnd)
	}
	if !w.started || r.Chr != w.curChr {
		if w.seen[r.Chr] {
			return errors.Errorf("tabix: line %d: records for %s are not contiguous", w.line, r.Chr)
		}
		w.startRef(r.Chr)
	} else if r.Start < w.curStart {
		return errors.Errorf("tabix: line %d: %s not sorted, %d follows %d", w.line, r.Chr, r.Start, w.curStart)
	}
	w.curStart = r.Start

	voffBeg := w.bw.VOffset()
	if err := w.writeRaw(line); err != nil {
		return err
	}
	chunk := bgzf.Chunk{Begin: toOffset(voffBeg), End: toOffset(w.bw.VOffset())}
	rec := record{chr: r.Chr, start: int(r.Start), end: w.indexEnd(int(r.Start), int(r.Stop))}
	if err := w.idx.Add(rec, chunk, true, true); err != nil {
		return errors.Wrapf(err, "tabix: line %d", w.line)
	}
	if _, ok := w.idx.IDs()[r.Chr]; !ok {
		// Index.Add does not record new names in the ID map.
		w.idx.IDs()[r.Chr] = len(w.idx.Names()) - 1
	}
	return nil
}

// indexEnd returns the end under which a record spanning [start, stop) is
// added to the index.  Index.Add extends the linear index only below the
// tile holding the end it is given, and panics when that tile is the next
// one to append, so the end is moved to the next tile boundary past the
// linear index.  w.tiles mirrors the contig's linear index length.
func (w *Writer) indexEnd(start, stop int) int {
	if stop <= start {
		stop = start + 1
	}
	last := (stop - 1) / tileWidth
	switch {
	case last >= w.tiles:
		w.tiles = last + 1
		return w.tiles * tileWidth
	case stop/tileWidth == w.tiles:
		w.tiles++
		return w.tiles * tileWidth
	}
	return stop
}

func (w *Writer) startRef(chr string) {
	w.started = true
	w.seen[chr] = true
	w.curChr = chr
	w.tiles = 0
}

func (w *Writer) writeRaw(line []byte) error {
	if _, err := w.bw.Write(line); err != nil {
		return err
	}
	_, err := w.bw.Write([]byte{'\n'})
	return err
}

// Close flushes the data file.  It does not close the underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.bw.Close()
}

// Index returns the index of everything written.  It must be called after
// Close.
func (w *Writer) Index() *Index {
	if !w.closed {
		panic("tabix: Index called before Close")
	}
	return w.idx
}

// IndexPath returns the conventional index location for a data file.
func IndexPath(path string) string {
	return path + ".tbi"
}

// BuildFromPath bgzips the sorted BED file at in (itself optionally
// gzipped) into out, and writes the tabix index to IndexPath(out).
func BuildFromPath(ctx context.Context, in, out string) (err error) {
	reader, closeIn, err := util.OpenReader(ctx, in)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeIn(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	dataOut, closeData, err := util.CreateWriter(ctx, out)
	if err != nil {
		return err
	}
	tw, err := NewWriter(dataOut)
	if err != nil {
		_ = closeData()
		return err
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(nil, maxLineLen)
	for scanner.Scan() {
		if err = tw.WriteLine(scanner.Bytes()); err != nil {
			break
		}
	}
	if err == nil {
		err = scanner.Err()
	}
	if cerr := tw.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if cerr := closeData(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return errors.Wrap(err, in)
	}

	indexOut, closeIndex, err := util.CreateWriter(ctx, IndexPath(out))
	if err != nil {
		return err
	}
	err = WriteIndex(indexOut, tw.Index())
	if cerr := closeIndex(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
