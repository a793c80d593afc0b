package jaccard

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/scjaccard/util"
)

// Barcodes maps 1-based cell ordinals to display names.
type Barcodes struct {
	names []string
}

type barcodeRow struct {
	Barcode string `tsv:"barcode"`
}

// NewBarcodes returns a lookup where names[i] has ordinal i+1.
func NewBarcodes(names []string) *Barcodes {
	return &Barcodes{names: names}
}

// ReadBarcodes reads a one-column barcode file; line i holds the name of
// cell ordinal i.  Lines starting with '#' are skipped.
func ReadBarcodes(r io.Reader) (*Barcodes, error) {
	reader := tsv.NewReader(r)
	reader.Comment = '#'
	b := &Barcodes{}
	for {
		var row barcodeRow
		if err := reader.Read(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, errors.E(errors.Invalid, fmt.Sprintf("barcode %d", len(b.names)+1), err)
		}
		b.names = append(b.names, row.Barcode)
	}
	return b, nil
}

// ReadBarcodesFromPath is ReadBarcodes on a (possibly gzipped) file.
func ReadBarcodesFromPath(ctx context.Context, path string) (b *Barcodes, err error) {
	reader, closer, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if b, err = ReadBarcodes(reader); err != nil {
		return nil, errors.E(path, err)
	}
	return b, nil
}

// Len returns the number of barcodes.
func (b *Barcodes) Len() int { return len(b.names) }

// Lookup returns the barcode of a cell ordinal.
func (b *Barcodes) Lookup(ordinal uint32) (string, error) {
	if ordinal == 0 || int(ordinal) > len(b.names) {
		return "", errors.E(errors.Invalid, fmt.Sprintf("no barcode for cell %d (%d barcodes)", ordinal, len(b.names)))
	}
	return b.names[ordinal-1], nil
}
