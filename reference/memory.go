package reference

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/biogo/store/interval"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	ginterval "github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/scjaccard/util"
)

// region is a reference interval stored in an IntTree.
type region struct {
	ginterval.Region
	end int
	uid uintptr
}

func (r region) Overlap(b interval.IntRange) bool {
	// Half-open; zero-length regions cover their start.
	return r.end > b.Start && int(r.Start) < b.End
}
func (r region) ID() uintptr              { return r.uid }
func (r region) Range() interval.IntRange { return interval.IntRange{Start: int(r.Start), End: r.end} }

// query is a half-open search range.
type query struct {
	start, end int
}

func (q query) Overlap(b interval.IntRange) bool { return b.End > q.start && b.Start < q.end }
func (q query) ID() uintptr                       { return 0 }
func (q query) Range() interval.IntRange          { return interval.IntRange{Start: q.start, End: q.end} }

// Memory is a Store holding every reference interval in per-contig
// interval trees.  Once built it is read-only, so all its handles share the
// trees.
type Memory struct {
	names  []string
	ids    map[string]int
	trees  []*interval.IntTree
	nextID uintptr
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{ids: map[string]int{}}
}

// Add inserts r.  It must not be called once handles are open.
func (m *Memory) Add(r ginterval.Region) error {
	if err := r.Validate(); err != nil {
		return err
	}
	if r.Start >= MaxPos {
		return errors.E(errors.Invalid, fmt.Sprintf("%v: start beyond %d", r, MaxPos))
	}
	id, ok := m.ids[r.Chr]
	if !ok {
		id = len(m.names)
		m.ids[r.Chr] = id
		m.names = append(m.names, r.Chr)
		m.trees = append(m.trees, &interval.IntTree{})
	}
	end := int(r.Stop)
	if end <= int(r.Start) {
		end = int(r.Start) + 1
	}
	m.nextID++
	return m.trees[id].Insert(region{Region: r, end: end, uid: m.nextID}, false)
}

// NewMemoryFromReader loads a BED stream.
func NewMemoryFromReader(r io.Reader) (*Memory, error) {
	m := NewMemory()
	if err := ginterval.ScanBED(r, m.Add); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMemoryFromPath loads the (optionally gzipped) BED file at path.
func NewMemoryFromPath(ctx context.Context, path string) (m *Memory, err error) {
	reader, closer, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = unavailable(path, cerr)
		}
	}()
	if m, err = NewMemoryFromReader(reader); err != nil {
		return nil, errors.E(path, err)
	}
	log.Printf("reference: loaded %d intervals on %d chromosomes from %s", m.nextID, len(m.names), path)
	return m, nil
}

// Open implements Store.
func (m *Memory) Open(ctx context.Context) (Handle, error) {
	return &memoryHandle{m: m}, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

type memoryHandle struct {
	m *Memory
	// hits is reused across Fetch calls so that results can be sorted.
	hits []region
}

func (h *memoryHandle) RefID(chr string) (int, error) {
	id, ok := h.m.ids[chr]
	if !ok {
		return -1, errors.E(errors.NotExist, fmt.Sprintf("chromosome %s not in reference", chr))
	}
	return id, nil
}

func (h *memoryHandle) NumRefs() int { return len(h.m.names) }

// Fetch yields overlapping intervals in (start, insertion) order, matching
// the file order a sorted, indexed reference would give.
func (h *memoryHandle) Fetch(refID int, start, stop uint32, fn func(ginterval.Region)) error {
	if refID < 0 || refID >= len(h.m.trees) {
		return errors.E(errors.NotExist, fmt.Sprintf("chromosome index %d not in reference", refID))
	}
	if start >= stop {
		return nil
	}
	h.hits = h.hits[:0]
	h.m.trees[refID].DoMatching(func(iv interval.IntInterface) bool {
		h.hits = append(h.hits, iv.(region))
		return false
	}, query{start: int(start), end: int(stop)})
	sortRegions(h.hits)
	for _, r := range h.hits {
		fn(r.Region)
	}
	return nil
}

func (h *memoryHandle) Close() error {
	h.hits = nil
	return nil
}

func sortRegions(rs []region) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Start != rs[j].Start {
			return rs[i].Start < rs[j].Start
		}
		return rs[i].uid < rs[j].uid
	})
}
