package tabix

import (
	"bufio"
	"context"
	"io"
	"sync"

	"github.com/biogo/hts/bgzf"
	"github.com/biogo/hts/bgzf/index"
	grailerrors "github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/scjaccard/interval"
	"github.com/pkg/errors"
	"v.io/x/lib/vlog"
)

// maxLineLen bounds the length of one BED record.
const maxLineLen = 1 << 20

// ReadIndexFromPath loads a bgzf-compressed .tbi file.
func ReadIndexFromPath(ctx context.Context, path string) (idx *Index, err error) {
	in, err := file.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := in.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if idx, err = ReadIndex(in.Reader(ctx)); err != nil {
		return nil, errors.Wrap(err, path)
	}
	return idx, nil
}

// Provider hands out independent Readers over one bgzipped BED file.  The
// index is loaded once and shared; every Reader opens its own file handle.
type Provider struct {
	// Path of the .bed.gz file.  Must be nonempty.
	Path string
	// IndexPath is the .tbi file.  If "", IndexPath(Path).
	IndexPath string

	err     grailerrors.Once
	once    sync.Once
	index   *Index
	mu      sync.Mutex
	nActive int
}

func (p *Provider) indexPath() string {
	if p.IndexPath == "" {
		return IndexPath(p.Path)
	}
	return p.IndexPath
}

// Index returns the shared index, loading it on first use.
func (p *Provider) Index(ctx context.Context) (*Index, error) {
	p.once.Do(func() {
		idx, err := ReadIndexFromPath(ctx, p.indexPath())
		if err != nil {
			p.err.Set(err)
			return
		}
		p.index = idx
	})
	if p.index == nil {
		return nil, p.err.Err()
	}
	return p.index, nil
}

// NewReader opens a Reader which must be closed by the caller.  Readers
// are not safe for concurrent use, but any number of them may be live at
// once.
func (p *Provider) NewReader(ctx context.Context) (*Reader, error) {
	idx, err := p.Index(ctx)
	if err != nil {
		return nil, err
	}
	in, err := file.Open(ctx, p.Path)
	if err != nil {
		return nil, err
	}
	br, err := bgzf.NewReader(in.Reader(ctx), 1)
	if err != nil {
		_ = in.Close(ctx)
		return nil, errors.Wrap(err, p.Path)
	}
	p.mu.Lock()
	p.nActive++
	p.mu.Unlock()
	return &Reader{provider: p, ctx: ctx, index: idx, in: in, bgzf: br}, nil
}

// Close releases the provider.  All readers must have been closed.  It
// returns the first error seen by the provider or any of its readers.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.nActive > 0 {
		vlog.Fatalf("%d readers still active for %s", p.nActive, p.Path)
	}
	return p.err.Err()
}

// Reader runs overlap queries against a bgzipped BED file.
type Reader struct {
	provider *Provider
	ctx      context.Context
	index    *Index
	in       file.File
	bgzf     *bgzf.Reader
	closed   bool
}

// Index returns the index the reader queries through.
func (r *Reader) Index() *Index { return r.index }

// Query calls fn, in file order, for every record on contig refID
// overlapping the half-open range [beg, end).  Zero-length records count as
// covering their start position.
func (r *Reader) Query(refID, beg, end int, fn func(interval.Region) error) error {
	names := r.index.Names()
	if refID < 0 || refID >= len(names) {
		return errors.Errorf("tabix: reference %d out of range [0, %d)", refID, len(names))
	}
	if end > MaxPos {
		end = MaxPos
	}
	if beg < 0 {
		beg = 0
	}
	if beg >= end {
		return nil
	}
	name := names[refID]
	chunks, err := r.index.Chunks(name, beg, end)
	switch {
	case err == index.ErrInvalid, err == index.ErrNoReference:
		// The range lies past the last indexed record of the contig.
		return nil
	case err != nil:
		return errors.Wrapf(err, "tabix: %s:%d-%d", name, beg, end)
	case len(chunks) == 0:
		return nil
	}
	cr, err := index.NewChunkReader(r.bgzf, chunks)
	if err != nil {
		return errors.Wrapf(err, "tabix: seeking %s:%d-%d", name, beg, end)
	}
	defer cr.Close() // nolint: errcheck
	s := bufio.NewScanner(cr)
	s.Buffer(nil, maxLineLen)
	for s.Scan() {
		reg, ok, err := interval.ParseBEDLine(s.Bytes())
		if err != nil {
			return errors.Wrap(err, r.provider.Path)
		}
		if !ok || reg.Chr != name {
			continue
		}
		if int(reg.Start) >= end {
			break
		}
		stop := int(reg.Stop)
		if stop <= int(reg.Start) {
			stop = int(reg.Start) + 1
		}
		if stop <= beg {
			continue
		}
		if err := fn(reg); err != nil {
			return err
		}
	}
	if err := s.Err(); err != nil && err != io.EOF {
		return errors.Wrap(err, r.provider.Path)
	}
	return nil
}

// Close releases the reader's file handle.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	err := r.bgzf.Close()
	if cerr := r.in.Close(r.ctx); cerr != nil && err == nil {
		err = cerr
	}
	r.provider.err.Set(err)
	p := r.provider
	p.mu.Lock()
	p.nActive--
	if p.nActive < 0 {
		vlog.Fatalf("negative active count for %s", p.Path)
	}
	p.mu.Unlock()
	return err
}
