package jaccard

import (
	"bytes"
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/scjaccard/encoding/tabix"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

// Two cells scored against a 200bp reference on chr1:
//   barcode1: [50,150) and [350,450), each half inside the reference.
//   barcode2: [150,250) overlapping by 50, and [5000,5100) far away.
const (
	testRegions = "chr1\t50\t150\nchr1\t350\t450\nchr1\t150\t250\nchr1\t5000\t5100\n"
	testMatrix  = `%%MatrixMarket matrix coordinate integer general
% two cells
4 2 4
1 1 1
2 1 1
3 2 1
4 2 1
`
	testBarcodes  = "barcode1\nbarcode2\n"
	testReference = "chr1\t100\t200\nchr1\t300\t400\nchr2\t1000\t2000\n"
)

func writeFixture(t *testing.T, dir string, indexed bool) Opts {
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, ioutil.WriteFile(path, []byte(content), 0644))
		return path
	}
	opts := DefaultOpts
	opts.RegionPath = write("test.bed", testRegions)
	opts.MatrixPath = write("test.mtx", testMatrix)
	opts.BarcodePath = write("test.tsv", testBarcodes)
	opts.ReferencePath = write("target.bed", testReference)
	if indexed {
		out := filepath.Join(dir, "target.bed.gz")
		require.NoError(t, tabix.BuildFromPath(context.Background(), opts.ReferencePath, out))
		opts.ReferencePath = out
	} else {
		opts.ReferenceInMemory = true
	}
	opts.NumChromosomes = 1
	return opts
}

func TestRunEndToEnd(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "jaccard")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	for _, indexed := range []bool{true, false} {
		opts := writeFixture(t, tmpdir, indexed)
		var out bytes.Buffer
		rows, err := Run(ctx, opts, &out)
		require.NoError(t, err)
		expect.EQ(t, out.String(), "barcode1 0.33333\nbarcode2 0.14286\n")

		opts.Full = true
		opts.Parallelism = 2
		out.Reset()
		fullRows, err := Run(ctx, opts, &out)
		require.NoError(t, err)
		expect.EQ(t, out.String(), "barcode1, 200, 100, 2, 200, 2, 0.33333\nbarcode2, 200, 50, 1, 200, 2, 0.14286\n")
		// Same inputs, same scores.
		expect.EQ(t, Digest(fullRows), Digest(rows))

		// chr2 joins the reference total.
		opts.NumChromosomes = 2
		out.Reset()
		_, err = Run(ctx, opts, &out)
		require.NoError(t, err)
		expect.EQ(t, out.String(), "barcode1, 200, 100, 2, 1200, 2, 0.07692\nbarcode2, 200, 50, 1, 1200, 2, 0.03704\n")

		opts.NumChromosomes = 22
		_, err = Run(ctx, opts, &out)
		expect.True(t, errors.Is(errors.NotExist, err), "%v", err)
	}
}

func TestRunMissingBarcode(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "jaccard")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	opts := writeFixture(t, tmpdir, false)
	opts.BarcodePath = filepath.Join(tmpdir, "one.tsv")
	require.NoError(t, ioutil.WriteFile(opts.BarcodePath, []byte("barcode1\n"), 0644))
	var out bytes.Buffer
	_, err := Run(context.Background(), opts, &out)
	expect.True(t, errors.Is(errors.Invalid, err), "%v", err)
	expect.EQ(t, out.Len(), 0)
}

func TestRunMissingReference(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "jaccard")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	opts := writeFixture(t, tmpdir, false)
	opts.ReferencePath = filepath.Join(tmpdir, "absent.bed.gz")
	opts.ReferenceInMemory = false
	_, err := Run(context.Background(), opts, ioutil.Discard)
	expect.True(t, errors.Is(errors.Unavailable, err), "%v", err)
}

func TestRunMissingIndex(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "jaccard")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	opts := writeFixture(t, tmpdir, true)
	require.NoError(t, os.Remove(tabix.IndexPath(opts.ReferencePath)))
	var out bytes.Buffer
	_, err := Run(context.Background(), opts, &out)
	expect.True(t, errors.Is(errors.Unavailable, err), "%v", err)
	expect.EQ(t, out.Len(), 0)
}
