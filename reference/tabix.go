package reference

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/scjaccard/encoding/tabix"
	"github.com/grailbio/scjaccard/interval"
)

func unavailable(path string, err error) error {
	return errors.E(errors.Unavailable, fmt.Sprintf("reference %s", path), err)
}

// Tabix is a Store over a bgzipped, tabix-indexed BED file.
type Tabix struct {
	provider *tabix.Provider
}

// NewTabix returns a Store reading path through the index at indexPath
// (path + ".tbi" if empty).  The index is loaded eagerly so that a missing
// or corrupt index is reported here rather than by the first worker.
func NewTabix(ctx context.Context, path, indexPath string) (*Tabix, error) {
	p := &tabix.Provider{Path: path, IndexPath: indexPath}
	if _, err := p.Index(ctx); err != nil {
		return nil, unavailable(path, err)
	}
	return &Tabix{provider: p}, nil
}

// Open implements Store.
func (t *Tabix) Open(ctx context.Context) (Handle, error) {
	r, err := t.provider.NewReader(ctx)
	if err != nil {
		return nil, unavailable(t.provider.Path, err)
	}
	return &tabixHandle{path: t.provider.Path, r: r, index: r.Index()}, nil
}

// Close implements Store.
func (t *Tabix) Close() error {
	return t.provider.Close()
}

type tabixHandle struct {
	path  string
	r     *tabix.Reader
	index *tabix.Index
}

func (h *tabixHandle) RefID(chr string) (int, error) {
	id, ok := h.index.IDs()[chr]
	if !ok {
		return -1, errors.E(errors.NotExist, fmt.Sprintf("chromosome %s not in reference %s", chr, h.path))
	}
	return id, nil
}

func (h *tabixHandle) NumRefs() int { return len(h.index.Names()) }

func (h *tabixHandle) Fetch(refID int, start, stop uint32, fn func(interval.Region)) error {
	if refID < 0 || refID >= len(h.index.Names()) {
		return errors.E(errors.NotExist, fmt.Sprintf("chromosome index %d not in reference %s", refID, h.path))
	}
	err := h.r.Query(refID, int(start), int(stop), func(r interval.Region) error {
		fn(r)
		return nil
	})
	if err != nil {
		return unavailable(h.path, err)
	}
	return nil
}

func (h *tabixHandle) Close() error {
	return h.r.Close()
}
