package board

// Perft counts the leaf nodes of the legal move tree to the given depth.
// The position is restored before returning.
func (p *Position) Perft(depth int) uint64 {
	if depth <= 0 {
		return 1
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	if depth == 1 {
		return uint64(ml.Len())
	}
	var nodes uint64
	for _, m := range ml.Slice() {
		u := p.MakeMove(m)
		nodes += p.Perft(depth - 1)
		p.UnmakeMove(m, u)
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by its UCI
// string.
func (p *Position) Divide(depth int) map[string]uint64 {
	out := make(map[string]uint64)
	if depth <= 0 {
		return out
	}
	var ml MoveList
	p.GenerateLegalMoves(&ml)
	for _, m := range ml.Slice() {
		u := p.MakeMove(m)
		out[m.String()] = p.Perft(depth - 1)
		p.UnmakeMove(m, u)
	}
	return out
}
