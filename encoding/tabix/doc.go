/*Package tabix bgzips coordinate-sorted BED files, builds their tabix
  (.tbi) indexes, and answers "all records overlapping [beg, end) on contig
  i" queries against them.  The index itself is github.com/biogo/hts/tabix;
  this package adds the BED column layout, the bgzf framing of .tbi files
  and per-worker readers.

  An Index is immutable once loaded and can be shared freely.  A Reader owns
  an open file and a bgzf cursor, and must not be shared between
  goroutines; use Provider.NewReader to obtain one reader per worker.
*/
package tabix
