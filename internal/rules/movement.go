package rules

import "github.com/DoyleJ11/gunslinger-backend/internal/engine"

type plannedMove struct {
	effects []engine.Effect
	dest    engine.HexCoord
}

// ResolveMovement applies move and turn actions. Moves are checked against action
// points and against speed, which caps the hexes a player covers in the whole turn, then contested destinations are cancelled for everyone
// involved: two movers ending on the same hex, or a mover ending on a hex held by a
// player who stays put.
func (b Basic) ResolveMovement(start engine.State) []engine.Effect {
	var out []engine.Effect
	plans := map[string]*plannedMove{}
	ids := engine.AlivePlayers(start)

	for _, id := range ids {
		p := start.Players[id]
		ap := p.ActionPoints
		pos := p.Position
		travelled := 0
		var moves []engine.Effect

		for _, a := range start.DeclaredActions[id] {
			switch a.Type {
			case engine.ActMove:
				dist := pos.Distance(*a.Target)
				cost := dist * b.Costs.MovePerHex
				if speed := p.Character.BaseStats.Speed; travelled+dist > speed {
					out = append(out, failed(id, 0, "move of %d hexes after %d exceeds speed %d", dist, travelled, speed))
					continue
				}
				if cost > ap {
					out = append(out, failed(id, 0, "move needs %d action points, %d left", cost, ap))
					continue
				}
				ap -= cost
				travelled += dist
				pos = *a.Target
				dest := pos
				moves = append(moves, engine.Effect{Kind: engine.EffMoved, PlayerID: id, Position: &dest, Cost: cost})

			case engine.ActTurn:
				if b.Costs.Turn > ap {
					out = append(out, failed(id, 0, "turn needs %d action points, %d left", b.Costs.Turn, ap))
					continue
				}
				ap -= b.Costs.Turn
				f := *a.Facing
				out = append(out, engine.Effect{Kind: engine.EffTurned, PlayerID: id, Facing: &f, Cost: b.Costs.Turn})
			}
		}

		if len(moves) > 0 && pos != p.Position {
			plans[id] = &plannedMove{effects: moves, dest: pos}
		} else {
			// Moving back to the starting hex is a no-op for conflict purposes.
			out = append(out, moves...)
		}
	}

	blocked := contested(start, plans)
	for _, id := range ids {
		plan, ok := plans[id]
		if !ok {
			continue
		}
		if blocked[id] {
			out = append(out, failed(id, 0, "destination %d,%d is contested", plan.dest.Q, plan.dest.R))
			continue
		}
		out = append(out, plan.effects...)
	}
	return out
}

// contested returns the movers whose destination is unavailable. Cancelling a move
// leaves that player in place, which can block others, so it runs to a fixed point.
func contested(start engine.State, plans map[string]*plannedMove) map[string]bool {
	blocked := map[string]bool{}
	for {
		held := map[engine.HexCoord]int{}
		for id, p := range start.Players {
			if plan, ok := plans[id]; ok && !blocked[id] {
				held[plan.dest]++
				continue
			}
			held[p.Position]++
		}

		changed := false
		for id, plan := range plans {
			if blocked[id] {
				continue
			}
			if held[plan.dest] > 1 {
				blocked[id] = true
				changed = true
			}
		}
		if !changed {
			return blocked
		}
	}
}
