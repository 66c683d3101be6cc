package engine

import (
	"encoding/binary"
	"fmt"
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

func (f TTFlag) String() string {
	switch f {
	case TTExact:
		return "exact"
	case TTLowerBound:
		return "lower"
	case TTUpperBound:
		return "upper"
	}
	return "?"
}

// TTEntry is a decoded transposition table slot.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Flag     TTFlag
	Age      uint16
}

// Packed slot data:
//
//	bits  0-21  move
//	bits 22-37  generation
//	bits 38-53  score (int16)
//	bits 54-60  depth (0..127)
//	bits 61-62  flag
//	bit  63     occupied
//
// The generation wraps after 65536 searches; an entry that old is then
// treated as current again, which only affects which entry gets replaced.
const (
	moveMask   = 1<<22 - 1
	ageShift   = 22
	ageMask    = 0xffff
	scoreShift = 38
	depthShift = 54
	depthMask  = 0x7f
	flagShift  = 61
	occupied   = uint64(1) << 63
)

func pack(m board.Move, score, depth int, flag TTFlag, age uint16) uint64 {
	return uint64(m)&moveMask |
		uint64(age)<<ageShift |
		uint64(uint16(int16(score)))<<scoreShift |
		uint64(depth&depthMask)<<depthShift |
		uint64(flag&3)<<flagShift |
		occupied
}

func unpack(hash, data uint64) TTEntry {
	return TTEntry{
		Key:      hash,
		BestMove: board.Move(data & moveMask),
		Score:    int16(uint16(data >> scoreShift)),
		Depth:    int8(data >> depthShift & depthMask),
		Flag:     TTFlag(data>>flagShift) & 3,
		Age:      uint16(data >> ageShift & ageMask),
	}
}

// ttSlot holds the key XORed with the data so that a slot torn by two
// concurrent writers fails verification instead of returning a mix.
type ttSlot struct {
	check atomic.Uint64
	data  atomic.Uint64
}

// TranspositionTable is a fixed-size, lock-free hash table of search
// results shared by all workers. Position hash h lives in slot h % size.
type TranspositionTable struct {
	slots []ttSlot
	size  uint64
	age   atomic.Uint32

	probes     atomic.Uint64
	hits       atomic.Uint64
	collisions atomic.Uint64
}

// EntriesForMB returns the largest power-of-two entry count that fits in
// mb megabytes.
func EntriesForMB(mb int) int {
	n := uint64(max(mb, 1)) * 1024 * 1024 / 16
	return int(roundDownToPowerOf2(n))
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

// NewTranspositionTable allocates a table with exactly entries slots.
func NewTranspositionTable(entries int) *TranspositionTable {
	if entries < 1 {
		entries = 1
	}
	return &TranspositionTable{
		slots: make([]ttSlot, entries),
		size:  uint64(entries),
	}
}

func (tt *TranspositionTable) slot(hash uint64) *ttSlot {
	return &tt.slots[hash%tt.size]
}

// Probe looks up hash. An occupied slot holding a different position is a
// collision: it is counted and reported as a miss.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)
	s := tt.slot(hash)
	data := s.data.Load()
	check := s.check.Load()
	if data&occupied == 0 {
		return TTEntry{}, false
	}
	if check^data != hash {
		tt.collisions.Add(1)
		return TTEntry{}, false
	}
	tt.hits.Add(1)
	return unpack(hash, data), true
}

// Cutoff reports whether e settles a node searched to depth inside
// (alpha, beta), returning the score re-based to ply.
func (tt *TranspositionTable) Cutoff(e TTEntry, depth, alpha, beta, ply int) (int, bool) {
	if int(e.Depth) < depth {
		return 0, false
	}
	score := AdjustScoreFromTT(int(e.Score), ply)
	switch e.Flag {
	case TTExact:
		return score, true
	case TTLowerBound:
		if score >= beta {
			return score, true
		}
	case TTUpperBound:
		if score <= alpha {
			return score, true
		}
	}
	return 0, false
}

// Store records a search result. An existing entry survives only when it
// belongs to the current generation, describes another position and was
// searched deeper. A store without a move keeps the move already known
// for the same position.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, bestMove board.Move) {
	tt.store(hash, depth, score, flag, bestMove, tt.currentAge())
}

func (tt *TranspositionTable) currentAge() uint16 {
	return uint16(tt.age.Load() & ageMask)
}

func (tt *TranspositionTable) store(hash uint64, depth, score int, flag TTFlag, bestMove board.Move, age uint16) {
	depth = min(max(depth, 0), depthMask)
	s := tt.slot(hash)
	old := s.data.Load()
	if old&occupied != 0 {
		same := s.check.Load()^old == hash
		prev := unpack(hash, old)
		if !same && prev.Age == tt.currentAge() && depth < int(prev.Depth) {
			return
		}
		if same && bestMove == board.NoMove {
			bestMove = prev.BestMove
		}
	}
	data := pack(bestMove, score, depth, flag, age)
	s.check.Store(hash ^ data)
	s.data.Store(data)
}

// NewSearch starts a new generation; older entries become preferred
// victims for replacement.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear empties the table and resets its statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.slots {
		tt.slots[i].check.Store(0)
		tt.slots[i].data.Store(0)
	}
	tt.age.Store(0)
	tt.probes.Store(0)
	tt.hits.Store(0)
	tt.collisions.Store(0)
}

// HashFull returns the permille of sampled slots written in the current
// generation.
func (tt *TranspositionTable) HashFull() int {
	n := min(uint64(1000), tt.size)
	age := tt.currentAge()
	used := 0
	for i := uint64(0); i < n; i++ {
		data := tt.slots[i].data.Load()
		if data&occupied != 0 && uint16(data>>ageShift&ageMask) == age {
			used++
		}
	}
	return used * 1000 / int(n)
}

// TTStats are cumulative probe counters.
type TTStats struct {
	Probes     uint64
	Hits       uint64
	Collisions uint64
}

// Stats returns the probe counters since the last Clear.
func (tt *TranspositionTable) Stats() TTStats {
	return TTStats{
		Probes:     tt.probes.Load(),
		Hits:       tt.hits.Load(),
		Collisions: tt.collisions.Load(),
	}
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of slots.
func (tt *TranspositionTable) Size() int {
	return int(tt.size)
}

var snapshotMagic = [4]byte{'C', 'T', 'T', '1'}

const snapshotHeader = 4 + 4 + 8

// Snapshot serializes every occupied slot. The layout is the magic, the
// current generation and a record count, followed by (hash, data) pairs,
// all little endian. It must not race with a running search.
func (tt *TranspositionTable) Snapshot() []byte {
	var count uint64
	for i := range tt.slots {
		if tt.slots[i].data.Load()&occupied != 0 {
			count++
		}
	}
	buf := make([]byte, snapshotHeader, snapshotHeader+16*count)
	copy(buf, snapshotMagic[:])
	binary.LittleEndian.PutUint32(buf[4:], tt.age.Load())
	binary.LittleEndian.PutUint64(buf[8:], count)
	for i := range tt.slots {
		data := tt.slots[i].data.Load()
		if data&occupied == 0 {
			continue
		}
		hash := tt.slots[i].check.Load() ^ data
		buf = binary.LittleEndian.AppendUint64(buf, hash)
		buf = binary.LittleEndian.AppendUint64(buf, data)
	}
	return buf
}

// Restore loads a Snapshot, possibly taken from a table of another size.
// Records keep their generation and are re-inserted through the normal
// replacement rule.
func (tt *TranspositionTable) Restore(b []byte) error {
	if len(b) < snapshotHeader || [4]byte(b[:4]) != snapshotMagic {
		return fmt.Errorf("restore table: %w", ErrBadSnapshot)
	}
	age := binary.LittleEndian.Uint32(b[4:])
	count := binary.LittleEndian.Uint64(b[8:])
	body := b[snapshotHeader:]
	if uint64(len(body)) != count*16 {
		return fmt.Errorf("restore table: %d records declared, %d bytes present: %w", count, len(body), ErrBadSnapshot)
	}
	tt.age.Store(age)
	for ; len(body) > 0; body = body[16:] {
		hash := binary.LittleEndian.Uint64(body)
		data := binary.LittleEndian.Uint64(body[8:])
		if data&occupied == 0 {
			return fmt.Errorf("restore table: empty record: %w", ErrBadSnapshot)
		}
		e := unpack(hash, data)
		tt.store(hash, int(e.Depth), int(e.Score), e.Flag, e.BestMove, e.Age)
	}
	return nil
}
