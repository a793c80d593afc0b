package mtx

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func readAll(t *testing.T, data string) (Header, []Entry, error) {
	r, err := NewReader(strings.NewReader(data))
	require.NoError(t, err)
	var entries []Entry
	for r.Scan() {
		entries = append(entries, r.Entry())
	}
	return r.Header(), entries, r.Err()
}

func TestReadCoordinate(t *testing.T) {
	data := `%%MatrixMarket matrix coordinate integer general
% generated for a test
4 2 5
1 1 3
2 1 1

3 2 2
4 2 1
1 2 7
`
	header, entries, err := readAll(t, data)
	require.NoError(t, err)
	assert.Equal(t, Header{Rows: 4, Cols: 2, Entries: 5}, header)
	assert.Equal(t, []Entry{
		{1, 1, 3},
		{2, 1, 1},
		{3, 2, 2},
		{4, 2, 1},
		{1, 2, 7},
	}, entries)
}

func TestReadPattern(t *testing.T) {
	_, entries, err := readAll(t, "2 2 2\n1 2\n2 1\n")
	require.NoError(t, err)
	assert.Equal(t, []Entry{{1, 2, 1}, {2, 1, 1}}, entries)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"zero_ordinal", "2 2 1\n0 1 1\n"},
		{"out_of_range", "2 2 1\n3 1 1\n"},
		{"short_line", "2 2 1\n1\n"},
		{"bad_value", "2 2 1\n1 1 x\n"},
		{"count_mismatch", "2 2 3\n1 1 1\n"},
	}
	for _, test := range tests {
		_, _, err := readAll(t, test.data)
		assert.Error(t, err, test.name)
	}
}

func TestNoSizeLine(t *testing.T) {
	_, err := NewReader(strings.NewReader("%%MatrixMarket matrix coordinate integer general\n"))
	assert.Error(t, err)
	_, err = NewReader(strings.NewReader("1 2\n"))
	assert.Error(t, err)
}
