package board

import "math/bits"

// magic maps a slider's relevant occupancy to a precomputed attack set:
// attacks[((occ & mask) * number) >> shift].
type magic struct {
	mask    Bitboard
	number  uint64
	shift   uint8
	attacks []Bitboard
}

func (m *magic) index(occupied Bitboard) uint64 {
	return (uint64(occupied&m.mask) * m.number) >> m.shift
}

var (
	bishopMagics [64]magic
	rookMagics   [64]magic

	bishopTable [0x1480]Bitboard
	rookTable   [0x19000]Bitboard
)

// Per-rank seeds that find a working magic for every square quickly.
var magicSeeds = [8]uint64{728, 10316, 55013, 32803, 12281, 15100, 16645, 255}

// initMagics searches magic numbers at startup with a fixed-seed generator
// and verifies each one against ray-cast attacks for every occupancy subset,
// so a bad constant can never produce a wrong attack set.
func initMagics() {
	findMagics(bishopMagics[:], bishopTable[:], bishopDirections)
	findMagics(rookMagics[:], rookTable[:], rookDirections)
}

func findMagics(magics []magic, table []Bitboard, dirs [4]direction) {
	var (
		occupancy [4096]Bitboard
		reference [4096]Bitboard
		epoch     [4096]int
		attempt   int
		used      int
	)

	for sq := A1; sq <= H8; sq++ {
		edges := ((Rank1 | Rank8) &^ RankMask[sq.Rank()]) | ((FileA | FileH) &^ FileMask[sq.File()])
		m := &magics[sq]
		m.mask = slide(sq, Empty, dirs) &^ edges
		relevant := m.mask.PopCount()
		m.shift = uint8(64 - relevant)
		size := 1 << relevant
		m.attacks = table[used : used+size]
		used += size

		// Carry-Rippler enumeration of every subset of the mask.
		var b Bitboard
		for n := 0; ; n++ {
			occupancy[n] = b
			reference[n] = slide(sq, b, dirs)
			b = (b - m.mask) & m.mask
			if b == 0 {
				break
			}
		}

		rng := prng{state: magicSeeds[sq.Rank()]}
		for i := 0; i < size; {
			for m.number = 0; bits.OnesCount64((m.number*uint64(m.mask))>>56) < 6; {
				m.number = rng.sparse()
			}
			attempt++
			for i = 0; i < size; i++ {
				idx := m.index(occupancy[i])
				if epoch[idx] < attempt {
					epoch[idx] = attempt
					m.attacks[idx] = reference[i]
				} else if m.attacks[idx] != reference[i] {
					break
				}
			}
		}
	}
}
