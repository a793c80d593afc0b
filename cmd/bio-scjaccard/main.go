package main

/*
  bio-scjaccard scores single cells against a reference population of
  genomic intervals.  For every cell (a column of the -input matrix) it
  prints the Jaccard index between the cell's intervals (rows of the matrix,
  resolved through -bed) and the reference intervals in -atac.  See
  github.com/grailbio/scjaccard/jaccard for the details.

  Example:
    bio-scjaccard -input matrix.mtx -bed peaks.bed -barcodes barcodes.tsv \
      -atac reference.bed.gz -cores 8 -full
*/

import (
	"flag"
	"io"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/scjaccard/jaccard"
	"github.com/grailbio/scjaccard/util"
)

var (
	inputPath     = flag.String("input", "", "MatrixMarket file; rows are -bed ordinals, columns are cell ordinals")
	bedPath       = flag.String("bed", "", "BED file of the intervals named by the matrix rows")
	barcodePath   = flag.String("barcodes", "", "Cell barcodes, one per line, in matrix column order")
	atacPath      = flag.String("atac", "", "Reference BED file, bgzipped and tabix-indexed")
	atacIndexPath = flag.String("atac-index", "", "Tabix index of -atac. By default, -atac + .tbi")
	atacInMemory  = flag.Bool("atac-in-memory", false, "Load -atac into memory instead of querying it through its index; -atac may then be plain or gzipped")
	cores         = flag.Int("cores", jaccard.DefaultOpts.Parallelism, "Number of cells to process in parallel")
	nchr          = flag.Int("nchr", jaccard.DefaultOpts.NumChromosomes, "Number of reference chromosomes summed into the reference total")
	padding       = flag.Uint("padding", uint(jaccard.DefaultOpts.Padding), "Widening, in bp, of every reference query")
	full          = flag.Bool("full", false, "Print union, intersection, hit count, reference total and region count with each score")
	outPath       = flag.String("out", "", "Output file. By default, stdout")
	logLevel      = flag.String("loglevel", "info", "One of off, error, warn, info, debug, trace")
)

func main() {
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() > 0 {
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}
	if err := util.SetLogLevel(*logLevel); err != nil {
		log.Fatalf("-loglevel: %v", err)
	}
	for name, v := range map[string]string{"input": *inputPath, "bed": *bedPath, "barcodes": *barcodePath, "atac": *atacPath} {
		if v == "" {
			log.Fatalf("-%s is required", name)
		}
	}
	if *padding > 1<<31 {
		log.Fatalf("-padding %d is too large", *padding)
	}

	opts := jaccard.DefaultOpts
	opts.MatrixPath = *inputPath
	opts.RegionPath = *bedPath
	opts.BarcodePath = *barcodePath
	opts.ReferencePath = *atacPath
	opts.ReferenceIndexPath = *atacIndexPath
	opts.ReferenceInMemory = *atacInMemory
	opts.Parallelism = *cores
	opts.NumChromosomes = *nchr
	opts.Padding = uint32(*padding)
	opts.Full = *full

	ctx := vcontext.Background()
	var (
		out      io.Writer = os.Stdout
		closeOut           = func() error { return nil }
	)
	if *outPath != "" {
		var err error
		if out, closeOut, err = util.CreateWriter(ctx, *outPath); err != nil {
			log.Fatalf("%v", err)
		}
	}
	if _, err := jaccard.Run(ctx, opts, out); err != nil {
		log.Fatalf("%v", err)
	}
	if err := closeOut(); err != nil {
		log.Fatalf("close %s: %v", *outPath, err)
	}
	log.Debug.Printf("exiting")
}
