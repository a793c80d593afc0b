package interval

import (
	"context"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/expect"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBED = `browser position chr1:1-1000
track name=peaks
# comment
chr1	10	20	peak1	0	+
chr1 30 40

chr2	0	0
chr1	5	6
`

var testRegions = []Region{
	{Chr: "chr1", Start: 10, Stop: 20},
	{Chr: "chr1", Start: 30, Stop: 40},
	{Chr: "chr2", Start: 0, Stop: 0},
	{Chr: "chr1", Start: 5, Stop: 6},
}

func TestReadBED(t *testing.T) {
	regions, err := ReadBED(strings.NewReader(testBED))
	require.NoError(t, err)
	expect.EQ(t, regions, testRegions)
}

func TestReadBEDErrors(t *testing.T) {
	for _, bed := range []string{
		"chr1\t10\n",
		"chr1\t-1\t10\n",
		"chr1\t10\t5000000000\n",
		"chr1\t10\tx\n",
		"chr1\t20\t10\n",
	} {
		_, err := ReadBED(strings.NewReader("chr1\t1\t2\n" + bed))
		require.Error(t, err, bed)
		assert.True(t, errors.Is(errors.Invalid, err), "%q: %v", bed, err)
		assert.Contains(t, err.Error(), "line 2")
	}
}

func TestReadBEDFromPath(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "interval")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	plain := filepath.Join(tmpdir, "test.bed")
	require.NoError(t, ioutil.WriteFile(plain, []byte(testBED), 0644))
	regions, err := ReadBEDFromPath(ctx, plain)
	require.NoError(t, err)
	expect.EQ(t, regions, testRegions)

	var buf strings.Builder
	gz := gzip.NewWriter(&buf)
	_, err = gz.Write([]byte(testBED))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	compressed := filepath.Join(tmpdir, "test.bed.gz")
	require.NoError(t, ioutil.WriteFile(compressed, []byte(buf.String()), 0644))
	regions, err = ReadBEDFromPath(ctx, compressed)
	require.NoError(t, err)
	expect.EQ(t, regions, testRegions)

	_, err = ReadBEDFromPath(ctx, filepath.Join(tmpdir, "absent.bed"))
	expect.True(t, errors.Is(errors.Unavailable, err))
}

func TestParseBEDLineColumns(t *testing.T) {
	for _, line := range []string{"chr1", "chr1\t10", "chr1 10  "} {
		_, ok, err := ParseBEDLine([]byte(line))
		expect.False(t, ok)
		require.Error(t, err, line)
		assert.Contains(t, err.Error(), "fewer than 3 columns")
	}
	r, ok, err := ParseBEDLine([]byte("chr1\t10\t20\tpeak1\t0\t+"))
	require.NoError(t, err)
	expect.True(t, ok)
	expect.EQ(t, r, Region{Chr: "chr1", Start: 10, Stop: 20})
}
