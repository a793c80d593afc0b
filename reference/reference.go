// Package reference provides the queryable store of reference intervals
// that cells are scored against.  A Store is shared by a whole run; each
// worker opens its own Handle from it, since a Handle carries query state
// that must not be shared between goroutines.
package reference

import (
	"context"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scjaccard/encoding/tabix"
	"github.com/grailbio/scjaccard/interval"
)

// MaxPos is one past the largest coordinate a Store can hold.  Fetching
// [0, MaxPos) returns every interval on a contig.
const MaxPos = tabix.MaxPos

// Handle answers overlap queries.  Contig IDs are dense, starting at 0, in
// the order the contigs first appear in the reference file.
type Handle interface {
	// RefID resolves a contig name.  Unknown names yield an
	// errors.NotExist error.
	RefID(chr string) (int, error)
	// NumRefs returns the number of contigs in the store.
	NumRefs() int
	// Fetch calls fn for every interval on contig refID overlapping the
	// half-open range [start, stop).
	Fetch(refID int, start, stop uint32, fn func(interval.Region)) error
	Close() error
}

// Store creates Handles.
type Store interface {
	// Open returns a new Handle, exclusively owned by the caller.
	Open(ctx context.Context) (Handle, error)
	Close() error
}

// Open returns a Store over the BED file at path.  Unless inMemory is set,
// path must be bgzipped and carry a tabix index at indexPath (or, when
// indexPath is empty, path + ".tbi"); a missing index is an
// errors.Unavailable error.  With inMemory, the index is ignored and the
// whole file is loaded into memory.
func Open(ctx context.Context, path, indexPath string, inMemory bool) (Store, error) {
	if inMemory {
		log.Printf("reference: loading %s into memory", path)
		return NewMemoryFromPath(ctx, path)
	}
	if indexPath == "" {
		indexPath = tabix.IndexPath(path)
	}
	if _, err := file.Stat(ctx, indexPath); err != nil {
		return nil, unavailable(indexPath, err)
	}
	log.Debug.Printf("reference: querying %s through %s", path, indexPath)
	return NewTabix(ctx, path, indexPath)
}
