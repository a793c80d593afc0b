package reference

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/scjaccard/encoding/tabix"
	"github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedRegions(seed int64) []interval.Region {
	rnd := rand.New(rand.NewSource(seed))
	var regions []interval.Region
	for _, chr := range []string{"chr1", "chr2", "chr3"} {
		pos := uint32(0)
		for i := 0; i < 400; i++ {
			pos += uint32(rnd.Intn(5000))
			regions = append(regions, interval.Region{Chr: chr, Start: pos, Stop: pos + uint32(rnd.Intn(3000))})
		}
	}
	return regions
}

func writeBED(t *testing.T, dir string, regions []interval.Region, indexed bool) string {
	var text bytes.Buffer
	for _, r := range regions {
		fmt.Fprintf(&text, "%s\t%d\t%d\n", r.Chr, r.Start, r.Stop)
	}
	if !indexed {
		path := filepath.Join(dir, "ref.bed")
		require.NoError(t, ioutil.WriteFile(path, text.Bytes(), 0644))
		return path
	}
	var data, index bytes.Buffer
	w, err := tabix.NewWriterSize(&data, 1024)
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSpace(text.String()), "\n") {
		require.NoError(t, w.WriteLine([]byte(line)))
	}
	require.NoError(t, w.Close())
	require.NoError(t, tabix.WriteIndex(&index, w.Index()))
	path := filepath.Join(dir, "ref.bed.gz")
	require.NoError(t, ioutil.WriteFile(path, data.Bytes(), 0644))
	require.NoError(t, ioutil.WriteFile(tabix.IndexPath(path), index.Bytes(), 0644))
	return path
}

func fetch(t *testing.T, h Handle, chr string, start, stop uint32) []interval.Region {
	id, err := h.RefID(chr)
	require.NoError(t, err)
	var got []interval.Region
	require.NoError(t, h.Fetch(id, start, stop, func(r interval.Region) {
		got = append(got, r)
	}))
	return got
}

func TestMemoryMatchesTabix(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "reference")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	regions := sortedRegions(1)
	tbx, err := Open(ctx, writeBED(t, tmpdir, regions, true), "", false)
	require.NoError(t, err)
	_, ok := tbx.(*Tabix)
	require.True(t, ok)
	mem, err := Open(ctx, writeBED(t, tmpdir, regions, false), "", true)
	require.NoError(t, err)
	_, ok = mem.(*Memory)
	require.True(t, ok)

	th, err := tbx.Open(ctx)
	require.NoError(t, err)
	mh, err := mem.Open(ctx)
	require.NoError(t, err)
	expect.EQ(t, th.NumRefs(), 3)
	expect.EQ(t, mh.NumRefs(), 3)

	rnd := rand.New(rand.NewSource(2))
	for i := 0; i < 300; i++ {
		chr := fmt.Sprintf("chr%d", 1+rnd.Intn(3))
		start := uint32(rnd.Intn(2000000))
		stop := start + uint32(rnd.Intn(20000))
		assert.Equal(t, fetch(t, th, chr, start, stop), fetch(t, mh, chr, start, stop), "%s:%d-%d", chr, start, stop)
	}
	for i := 0; i < 3; i++ {
		var all []interval.Region
		require.NoError(t, mh.Fetch(i, 0, MaxPos, func(r interval.Region) { all = append(all, r) }))
		expect.EQ(t, all, regions[i*400:(i+1)*400])
	}

	require.NoError(t, th.Close())
	require.NoError(t, mh.Close())
	require.NoError(t, tbx.Close())
	require.NoError(t, mem.Close())
}

func TestUnknownChromosome(t *testing.T) {
	ctx := context.Background()
	m, err := NewMemoryFromReader(strings.NewReader("chr1\t10\t20\nchr2\t5\t6\n"))
	require.NoError(t, err)
	h, err := m.Open(ctx)
	require.NoError(t, err)

	_, err = h.RefID("chr9")
	expect.True(t, errors.Is(errors.NotExist, err))
	err = h.Fetch(2, 0, MaxPos, func(interval.Region) {})
	expect.True(t, errors.Is(errors.NotExist, err))
	id, err := h.RefID("chr2")
	require.NoError(t, err)
	expect.EQ(t, id, 1)
}

func TestMemoryEdgeCases(t *testing.T) {
	m, err := NewMemoryFromReader(strings.NewReader("chr1\t10\t20\nchr1\t20\t30\nchr1\t40\t40\n"))
	require.NoError(t, err)
	h, err := m.Open(context.Background())
	require.NoError(t, err)
	// Half-open: [20, 25) does not include [10, 20).
	expect.EQ(t, fetch(t, h, "chr1", 20, 25), []interval.Region{{Chr: "chr1", Start: 20, Stop: 30}})
	// A zero-length interval covers its start.
	expect.EQ(t, fetch(t, h, "chr1", 40, 41), []interval.Region{{Chr: "chr1", Start: 40, Stop: 40}})
	expect.EQ(t, len(fetch(t, h, "chr1", 41, 50)), 0)
	expect.EQ(t, len(fetch(t, h, "chr1", 15, 15)), 0)

	_, err = NewMemoryFromReader(strings.NewReader("chr1\t30\t20\n"))
	expect.True(t, errors.Is(errors.Invalid, err))
}

func TestOpenMissingIndex(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "reference")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	plain := writeBED(t, tmpdir, sortedRegions(3), false)
	_, err := Open(ctx, plain, filepath.Join(tmpdir, "absent.tbi"), false)
	expect.True(t, errors.Is(errors.Unavailable, err))
	_, err = Open(ctx, plain, "", false)
	expect.True(t, errors.Is(errors.Unavailable, err))

	indexed := writeBED(t, tmpdir, sortedRegions(3), true)
	require.NoError(t, os.Remove(tabix.IndexPath(indexed)))
	_, err = Open(ctx, indexed, "", false)
	expect.True(t, errors.Is(errors.Unavailable, err))
	assert.Contains(t, err.Error(), tabix.IndexPath(indexed))
}
