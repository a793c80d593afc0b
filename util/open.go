package util

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/klauspost/compress/gzip"
)

// OpenReader opens path for reading, transparently decompressing gzip (and
// hence bgzip) files.  The returned closer must be called exactly once; it
// releases both the decompressor and the underlying file.
func OpenReader(ctx context.Context, path string) (io.Reader, func() error, error) {
	infile, err := file.Open(ctx, path)
	if err != nil {
		return nil, nil, errors.E(errors.Unavailable, path, err)
	}
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz, err := gzip.NewReader(reader)
		if err != nil {
			_ = infile.Close(ctx)
			return nil, nil, errors.E(errors.Invalid, path, err)
		}
		return gz, func() error {
			err := gz.Close()
			if cerr := infile.Close(ctx); cerr != nil && err == nil {
				err = cerr
			}
			return err
		}, nil
	}
	return reader, func() error { return infile.Close(ctx) }, nil
}

// CreateWriter creates path and returns a writer onto it, along with a closer
// which must be called to commit the file.
func CreateWriter(ctx context.Context, path string) (io.Writer, func() error, error) {
	out, err := file.Create(ctx, path)
	if err != nil {
		return nil, nil, errors.E(errors.Unavailable, path, err)
	}
	return out.Writer(ctx), func() error { return out.Close(ctx) }, nil
}
