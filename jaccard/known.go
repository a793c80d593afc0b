package jaccard

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/scjaccard/interval"
	"github.com/grailbio/scjaccard/reference"
)

// KnownUnion returns the summed length of every reference interval on
// contigs [0, n).  The store must hold at least n contigs.
func KnownUnion(ctx context.Context, store reference.Store, n int) (known uint32, err error) {
	h, err := store.Open(ctx)
	if err != nil {
		return 0, err
	}
	defer func() {
		if cerr := h.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	if n > h.NumRefs() {
		return 0, errors.E(errors.NotExist,
			fmt.Sprintf("chromosome index %d not in reference, which holds %d chromosomes", h.NumRefs(), h.NumRefs()))
	}
	for i := 0; i < n; i++ {
		var (
			total uint32
			ferr  error
		)
		err := h.Fetch(i, 0, reference.MaxPos, func(r interval.Region) {
			if ferr != nil {
				return
			}
			length, err := r.Length()
			if err == nil {
				err = add32(&total, length, "known union")
			}
			ferr = err
		})
		if err == nil {
			err = ferr
		}
		if err != nil {
			return 0, errors.E(fmt.Sprintf("scanning chromosome index %d", i), err)
		}
		if err := add32(&known, total, "known union"); err != nil {
			return 0, err
		}
		log.Debug.Printf("known union: chromosome index %d contributes %d", i, total)
	}
	return known, nil
}
