/*Package interval defines the genomic interval type shared by the scoring
  engine and the reference stores, together with the overlap-length
  primitive and a small BED reader.
  Intervals are zero-based and half-open ([Start, Stop)), and coordinates are
  uint32 since no supported genome build has a contig longer than that.
  Overlapping intervals are never merged here; every interval is kept and
  counted separately.
*/
package interval
