package interval

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/scjaccard/util"
)

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// IsBEDHeader returns true for lines which carry no interval: comments, and
// UCSC "track" and "browser" lines.
func IsBEDHeader(line []byte) bool {
	return len(line) > 0 && line[0] == '#' ||
		bytes.HasPrefix(line, []byte("track")) ||
		bytes.HasPrefix(line, []byte("browser"))
}

func parseCoord(token []byte) (uint32, error) {
	// gunsafe.BytesToString is fine here since ParseUint doesn't retain its
	// argument.
	v, err := strconv.ParseUint(gunsafe.BytesToString(token), 10, 32)
	return uint32(v), err
}

// ParseBEDLine parses the first three columns of a BED line.  ok is false
// (with a nil error) for blank and header lines.  The returned Region owns
// its chromosome string; line may be reused afterwards.
func ParseBEDLine(line []byte) (r Region, ok bool, err error) {
	var tokens [3][]byte
	nToken := getTokens(tokens[:], line)
	if nToken == 0 || IsBEDHeader(tokens[0]) {
		return r, false, nil
	}
	if nToken < 3 {
		return r, false, errors.E(errors.Invalid, fmt.Sprintf("BED line %q has fewer than 3 columns", line))
	}
	if r.Start, err = parseCoord(tokens[1]); err != nil {
		return r, false, errors.E(errors.Invalid, "bad BED start coordinate", err)
	}
	if r.Stop, err = parseCoord(tokens[2]); err != nil {
		return r, false, errors.E(errors.Invalid, "bad BED stop coordinate", err)
	}
	r.Chr = string(tokens[0])
	return r, true, r.Validate()
}

// ScanBED calls fn for every interval in the BED stream, in file order.
func ScanBED(reader io.Reader, fn func(r Region) error) error {
	scanner := bufio.NewScanner(reader)
	lineIdx := 0
	for scanner.Scan() {
		lineIdx++
		r, ok, err := ParseBEDLine(scanner.Bytes())
		if err != nil {
			return errors.E(fmt.Sprintf("interval.ScanBED: line %d", lineIdx), err)
		}
		if !ok {
			continue
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// ReadBED loads every interval from a BED stream, in file order.
func ReadBED(reader io.Reader) ([]Region, error) {
	var regions []Region
	err := ScanBED(reader, func(r Region) error {
		regions = append(regions, r)
		return nil
	})
	return regions, err
}

// ReadBEDFromPath is a wrapper for ReadBED that takes a path instead of an
// io.Reader.  Gzipped files are decompressed.
func ReadBEDFromPath(ctx context.Context, path string) (regions []Region, err error) {
	reader, closer, err := util.OpenReader(ctx, path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := closer(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if regions, err = ReadBED(reader); err != nil {
		err = errors.E(path, err)
	}
	return
}
