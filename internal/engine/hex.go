package engine

// facingOffsets are the axial neighbour deltas for facings 0-5, clockwise from north
// on a flat-topped grid.
var facingOffsets = [NumFacings]HexCoord{
	{Q: 0, R: -1},
	{Q: 1, R: -1},
	{Q: 1, R: 0},
	{Q: 0, R: 1},
	{Q: -1, R: 1},
	{Q: -1, R: 0},
}

func (h HexCoord) Add(o HexCoord) HexCoord { return HexCoord{Q: h.Q + o.Q, R: h.R + o.R} }

// Neighbor returns the adjacent hex in direction f.
func (h HexCoord) Neighbor(f Facing) HexCoord {
	return h.Add(facingOffsets[((int(f)%NumFacings)+NumFacings)%NumFacings])
}

// Distance is the number of hex steps between h and o.
func (h HexCoord) Distance(o HexCoord) int {
	dq := h.Q - o.Q
	dr := h.R - o.R
	return (abs(dq) + abs(dr) + abs(dq+dr)) / 2
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
