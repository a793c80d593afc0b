package tabix

import (
	"io"

	"github.com/biogo/hts/bgzf"
	btabix "github.com/biogo/hts/tabix"
	gbgzf "github.com/grailbio/scjaccard/encoding/bgzf"
	"github.com/klauspost/compress/flate"
)

// MaxPos is one past the largest coordinate a tabix index can address.
const MaxPos = 1 << 29

// tileWidth is the span of one linear index entry.
const tileWidth = 1 << 14

// maxRecordEnd bounds the end of a record the Writer accepts, leaving room
// to round it up past the next tile boundary.
const maxRecordEnd = MaxPos - 2*tileWidth

// formatGeneric is the tabix column preset for files other than SAM or VCF.
const formatGeneric = 0

// Index is a loaded or freshly built tabix index.
type Index = btabix.Index

// newBEDIndex returns an empty index with the BED column layout: contig,
// zero-based start and exclusive end in the first three columns.
func newBEDIndex() *Index {
	idx := btabix.New()
	idx.Format = formatGeneric
	idx.ZeroBased = true
	idx.NameColumn = 1
	idx.BeginColumn = 2
	idx.EndColumn = 3
	idx.MetaChar = '#'
	return idx
}

// ReadIndex reads a bgzf-compressed .tbi stream.
func ReadIndex(r io.Reader) (*Index, error) {
	br, err := bgzf.NewReader(r, 1)
	if err != nil {
		return nil, err
	}
	idx, err := btabix.ReadFrom(br)
	if err != nil {
		_ = br.Close()
		return nil, err
	}
	if idx == nil {
		// ReadFrom yields no index for a file without contigs.
		idx = newBEDIndex()
	}
	return idx, br.Close()
}

// WriteIndex writes idx to w in the bgzf-compressed form tabix expects.
func WriteIndex(w io.Writer, idx *Index) error {
	bw, err := gbgzf.NewWriter(w, flate.DefaultCompression)
	if err != nil {
		return err
	}
	if err := btabix.WriteTo(bw, idx); err != nil {
		return err
	}
	return bw.Close()
}

// toOffset converts a packed virtual offset to its bgzf form.
func toOffset(v uint64) bgzf.Offset {
	return bgzf.Offset{File: int64(v >> 16), Block: uint16(v)}
}

// record adapts a BED region to the index's record interface.
type record struct {
	chr        string
	start, end int
}

func (r record) RefName() string { return r.chr }
func (r record) Start() int      { return r.start }
func (r record) End() int        { return r.end }
