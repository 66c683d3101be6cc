package engine

// PawnEntry caches the pawn-structure terms for one pawn key.
type PawnEntry struct {
	Key     uint64
	MgScore int16
	EgScore int16
}

// PawnTable is a small direct-mapped cache of pawn evaluations. It is not
// safe for concurrent use; each search worker owns one.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable allocates roughly sizeMB megabytes, rounded down to a power
// of two entries.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 16
	n := max(sizeMB, 1) * 1024 * 1024 / entrySize
	size := 1
	for size*2 <= n {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe returns the cached scores for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	e := &pt.entries[key&pt.mask]
	if e.Key == key && key != 0 {
		return int(e.MgScore), int(e.EgScore), true
	}
	return 0, 0, false
}

// Store saves the scores for key, replacing whatever shared its slot.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	e := &pt.entries[key&pt.mask]
	e.Key = key
	e.MgScore = int16(mg)
	e.EgScore = int16(eg)
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	clear(pt.entries)
}
