package dataset

// BuildIndex maps every observation by (iso3c, year). When two rows share a
// key the later row wins; dupes reports how many rows were overwritten so the
// caller can surface it.
func BuildIndex(obs []Observation) (ix Index, dupes int) {
	ix = make(Index, len(obs))
	for _, o := range obs {
		k := Key{RegionID: o.ISO3C, Year: o.Year}
		if _, ok := ix[k]; ok {
			dupes++
		}
		ix[k] = Entry{Value: o.Value, Type: o.Type}
	}
	return ix, dupes
}
