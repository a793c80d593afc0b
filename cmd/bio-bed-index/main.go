package main

/*
  bio-bed-index prepares test fixtures for bio-scjaccard: it compresses a
  small coordinate-sorted BED file with bgzip and writes its tabix index
  through github.com/biogo/hts/tabix.  Production references are expected
  to arrive already indexed, e.g. by htslib's bgzip and tabix.

  Example:
    bio-bed-index -in reference.bed -out reference.bed.gz
  writes reference.bed.gz and reference.bed.gz.tbi.
*/

import (
	"flag"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scjaccard/encoding/tabix"
)

var (
	inPath  = flag.String("in", "", "Sorted input BED file, optionally gzipped")
	outPath = flag.String("out", "", "Output .bed.gz file. The index is written to <out>.tbi")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if *inPath == "" || *outPath == "" {
		log.Fatalf("-in and -out are required")
	}
	if *inPath == *outPath {
		log.Fatalf("-in and -out must differ")
	}
	ctx := vcontext.Background()
	if err := tabix.BuildFromPath(ctx, *inPath, *outPath); err != nil {
		log.Fatalf("%v", err)
	}
	log.Printf("wrote %s and %s", *outPath, tabix.IndexPath(*outPath))
}
