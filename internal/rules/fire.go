package rules

import "github.com/DoyleJ11/gunslinger-backend/internal/engine"

const (
	baseHitChance = 50
	aimBonus      = 20
	rangePenalty  = 5
	minHitChance  = 5
	maxHitChance  = 95
)

// HitChance is the percentage chance for shooter to hit target.
func HitChance(shooter, target *engine.Player, aimed bool) int {
	chance := baseHitChance + 5*shooter.Character.BaseStats.Accuracy
	if aimed {
		chance += aimBonus
	}
	chance -= rangePenalty * shooter.Position.Distance(target.Position)
	return min(max(chance, minHitChance), maxHitChance)
}

// ResolveFire applies draw, aim, reload and fire actions. Every shooter acts on the
// positions and statuses at the start of the phase, so a gunfighter dropped this
// phase still gets their shots off. Wounds and status changes land after all shots.
func (b Basic) ResolveFire(start engine.State) []engine.Effect {
	var out []engine.Effect
	newWounds := map[string][]engine.Wound{}

	for _, id := range engine.AlivePlayers(start) {
		p := start.Players[id]
		ap := p.ActionPoints
		drawn := p.Drawn
		aiming := p.AimingAt
		loaded, capacity := 0, 0
		if w := p.ActiveWeapon(); w != nil {
			loaded, capacity = w.Loaded, w.Capacity
		}
		shots := 0

		for _, a := range start.DeclaredActions[id] {
			switch a.Type {
			case engine.ActDraw:
				cost := drawCost(p)
				switch {
				case drawn:
					out = append(out, failed(id, 0, "weapon already drawn"))
				case p.ActiveWeapon() == nil:
					out = append(out, failed(id, 0, "no weapon to draw"))
				case cost > ap:
					out = append(out, failed(id, 0, "draw needs %d action points, %d left", cost, ap))
				default:
					ap -= cost
					drawn = true
					out = append(out, engine.Effect{Kind: engine.EffDrew, PlayerID: id, Cost: cost})
				}

			case engine.ActAim:
				if reason := targetProblem(start, id, a.TargetPlayerID); reason != "" {
					out = append(out, failed(id, 0, "%s", reason))
					continue
				}
				if b.Costs.Aim > ap {
					out = append(out, failed(id, 0, "aim needs %d action points, %d left", b.Costs.Aim, ap))
					continue
				}
				ap -= b.Costs.Aim
				aiming = a.TargetPlayerID
				out = append(out, engine.Effect{Kind: engine.EffAimed, PlayerID: id, TargetPlayerID: aiming, Cost: b.Costs.Aim})

			case engine.ActReload:
				switch {
				case capacity == 0:
					out = append(out, failed(id, 0, "weapon cannot be reloaded"))
				case loaded == capacity:
					out = append(out, failed(id, 0, "weapon already loaded"))
				case b.Costs.Reload > ap:
					out = append(out, failed(id, 0, "reload needs %d action points, %d left", b.Costs.Reload, ap))
				default:
					ap -= b.Costs.Reload
					loaded = capacity
					out = append(out, engine.Effect{Kind: engine.EffReloaded, PlayerID: id, Rounds: loaded, Cost: b.Costs.Reload})
				}

			case engine.ActFire:
				target := a.TargetPlayerID
				if reason := targetProblem(start, id, target); reason != "" {
					out = append(out, failed(id, 0, "%s", reason))
					continue
				}
				switch {
				case !drawn:
					out = append(out, failed(id, 0, "weapon not drawn"))
					continue
				case loaded == 0:
					out = append(out, failed(id, 0, "weapon is empty"))
					continue
				case b.Costs.Fire > ap:
					out = append(out, failed(id, 0, "fire needs %d action points, %d left", b.Costs.Fire, ap))
					continue
				}

				ap -= b.Costs.Fire
				loaded--
				shots++
				out = append(out, engine.Effect{Kind: engine.EffFired, PlayerID: id, TargetPlayerID: target, Rounds: loaded, Cost: b.Costs.Fire})

				chance := HitChance(p, start.Players[target], aiming == target)
				if roll(start.Turn, id, target, shots, "hit") >= chance {
					continue
				}
				loc := engine.BodyLocations[roll(start.Turn, id, target, shots, "loc")%len(engine.BodyLocations)]
				sev := 1 + roll(start.Turn, id, target, shots, "sev")%3
				newWounds[target] = append(newWounds[target], engine.Wound{Location: loc, Severity: sev})
			}
		}
	}

	for _, id := range engine.SessionIDs(start) {
		wounds := newWounds[id]
		if len(wounds) == 0 {
			continue
		}
		p := start.Players[id]
		for i := range wounds {
			w := wounds[i]
			out = append(out, engine.Effect{Kind: engine.EffWounded, PlayerID: id, Wound: &w})
		}
		all := append(append([]engine.Wound{}, p.Wounds...), wounds...)
		if status := StatusFor(p.Status, all); status != p.Status {
			out = append(out, engine.Effect{Kind: engine.EffStatusChanged, PlayerID: id, Status: status})
		}
	}
	return out
}

// targetProblem explains why target cannot be aimed at or shot, or returns "".
func targetProblem(start engine.State, shooter, target string) string {
	if target == shooter {
		return "cannot target yourself"
	}
	t, ok := start.Players[target]
	if !ok {
		return "target " + target + " is not in the match"
	}
	if !t.Alive() {
		return "target " + target + " is " + string(t.Status)
	}
	return ""
}
