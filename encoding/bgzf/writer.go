// Package bgzf includes a Writer for the .bgzf (block gzipped) file
// format.  A .bgzf file consists of one or more complete gzip blocks
// concatenated together.  Each of the gzip blocks must represent at
// most 64KB of uncompressed data, and the compressed size of the
// block must be at most 64KB.  The payload of the .bgzf file is equal
// to the uncompressed content of each block, concatenated together in
// order.  A valid .bgzf file ends with the 28 byte .bgzf terminator
// shown below; the terminator is a valid gzip block containing an
// empty payload.
//
// Here the format carries bgzipped BED files and their tabix indexes.
// Reading is left to github.com/biogo/hts/bgzf.
//
// For more information about the .bgzf file format, see the SAM/BAM
// spec here: https://samtools.github.io/hts-specs/SAMv1.pdf
//
// Example use:
//   var bgzfFile bytes.Buffer
//   w, err := NewWriter(&bgzfFile, flate.DefaultCompression)
//   n, err := w.Write([]byte("chr1\t100\t200\n"))
//   voff := w.VOffset() // virtual offset of the next line
//   err = w.Close()
package bgzf

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"v.io/x/lib/vlog"
)

const (
	// DefaultUncompressedBlockSize is the default bgzf
	// uncompressedBlockSize chosen by both sambamba and biogo.  See
	// the SAM/BAM specification for details.
	DefaultUncompressedBlockSize = 0x0ff00

	// MaxUncompressedBlockSize is the largest legal value for
	// uncompressedBlockSize.
	MaxUncompressedBlockSize = 0x10000

	// compressedBlockSize is the maximum size of the compressed data
	// for a Bgzf block.  See the SAM/BAM specification for details.
	compressedBlockSize = 0x10000
)

var (
	// bgzfExtra goes into the gzip's Extra subfield, with subfield
	// ids: 66, 67, and length 2.  See the SAM/BAM spec.
	bgzfExtra       = [...]byte{66, 67, 2, 0, 0, 0}
	bgzfExtraPrefix = [...]byte{66, 67, 2, 0}

	// terminator is the Bgzf EOF terminator.  It belongs at the end
	// of a valid Bgzf file.  See the SAM/BAM spec.
	terminator = []byte{
		0x1f, 0x8b, 0x08, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0xff, 0x06, 0x00, 0x42, 0x43,
		0x02, 0x00, 0x1b, 0x00, 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

// Writer compresses data into .bgzf format.  Each gzip block has
// an uncompressed size of at most 64KB, and carries the compressed
// block size in its Extra header field.  Writer is not safe for
// concurrent use.
type Writer struct {
	level            int
	uncompressedSize int
	w                io.Writer
	original         bytes.Buffer
	compressed       bytes.Buffer
	gz               *gzip.Writer
	coffset          uint64 // starting file position of the current gzip block
}

// NewWriter returns a new .bgzf writer with the given compression
// level.
func NewWriter(w io.Writer, level int) (*Writer, error) {
	return NewWriterSize(w, level, DefaultUncompressedBlockSize)
}

// NewWriterSize is NewWriter with a configurable uncompressed block
// size.  Small block sizes are mostly useful in tests, where they make
// block boundaries easy to provoke.
func NewWriterSize(w io.Writer, level, uncompressedBlockSize int) (*Writer, error) {
	if uncompressedBlockSize <= 0 || uncompressedBlockSize > MaxUncompressedBlockSize {
		return nil, fmt.Errorf("bgzf: uncompressed block size %d out of range (0, %d]",
			uncompressedBlockSize, MaxUncompressedBlockSize)
	}
	gz, err := gzip.NewWriterLevel(&bytes.Buffer{}, level)
	if err != nil {
		return nil, err
	}
	return &Writer{
		level:            level,
		uncompressedSize: uncompressedBlockSize,
		w:                w,
		gz:               gz,
	}, nil
}

// Write appends buf to the .bgzf payload.  Returns the number of bytes
// consumed from buf and any error encountered.
func (w *Writer) Write(buf []byte) (int, error) {
	for i := 0; i < len(buf); {
		// Write one block at a time to avoid creating an entire copy of the input
		// buf.
		end := len(buf)
		limit := i + w.uncompressedSize - w.original.Len()
		if limit < end {
			end = limit
		}
		n, _ := w.original.Write(buf[i:end])
		i += n
		if err := w.tryCompress(false); err != nil {
			return i, err
		}
	}
	return len(buf), nil
}

// Flush ends the current block, if it holds any data.  The next byte
// written starts a new block, so its VOffset has a zero block offset.
func (w *Writer) Flush() error {
	return w.tryCompress(true)
}

// Close ends the current block and appends the .bgzf terminator.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	_, err := w.w.Write(terminator)
	return err
}

// tryCompress compresses full blocks (and the partial remainder, if
// compressRemainder is set) from w.original and writes them out.
func (w *Writer) tryCompress(compressRemainder bool) error {
	for w.original.Len() >= w.uncompressedSize || (compressRemainder && w.original.Len() > 0) {
		w.gz.Reset(&w.compressed)
		w.gz.Header.Extra = make([]byte, len(bgzfExtra))
		copy(w.gz.Header.Extra, bgzfExtra[:])
		w.gz.Header.OS = 0xff // Unknown OS value

		if _, err := w.gz.Write(w.original.Next(w.uncompressedSize)); err != nil {
			return err
		}
		if err := w.gz.Close(); err != nil {
			return err
		}

		// Replace bgzf BSIZE header with compressed length - 1.
		b := w.compressed.Bytes()
		offset := 12 // This is the offset of the Extra field in the gzip header.
		bsize := w.compressed.Len() - 1
		if bsize >= compressedBlockSize {
			return fmt.Errorf("bgzf compressed block is too big: %d > %d", bsize,
				compressedBlockSize)
		}
		if w.compressed.Len() < (offset + len(bgzfExtra)) {
			vlog.Fatalf("compressed length is too short: %d < %d", w.compressed.Len(),
				offset+len(bgzfExtra))
		}
		if !bytes.Equal(b[offset:offset+len(bgzfExtraPrefix)], bgzfExtraPrefix[:]) {
			vlog.Fatalf("could not find bgzf extra prefix")
		}
		b[offset+4] = byte(bsize)
		b[offset+5] = byte(bsize >> 8)

		sz := w.compressed.Len()
		if _, err := w.compressed.WriteTo(w.w); err != nil {
			return err
		}
		w.coffset += uint64(sz)
	}
	return nil
}

// VOffset returns the virtual-offset of the next byte to be written:
// the file offset of the current block in the upper 48 bits, and the
// position within the block's payload in the lower 16.
func (w *Writer) VOffset() uint64 {
	return w.coffset<<16 | uint64(w.original.Len())
}
