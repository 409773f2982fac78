// Package rules holds the reference rule engine plugged into the match engine's
// resolution phases.
package rules

import (
	"fmt"
	"hash/fnv"

	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
)

// Costs are action point prices. Move is charged per hex.
type Costs struct {
	MovePerHex int
	Turn       int
	Aim        int
	Reload     int
	Fire       int
}

var DefaultCosts = Costs{MovePerHex: 1, Turn: 1, Aim: 1, Reload: 2, Fire: 3}

// Basic resolves movement, facing, drawing, aiming, reloading and gunfire. It keeps
// no state between calls; everything is derived from the start-of-phase state.
type Basic struct {
	Costs Costs
}

func NewBasic() Basic { return Basic{Costs: DefaultCosts} }

var _ engine.Resolver = Basic{}

// drawCost scales with the character's gun speed; a gun speed of 5 costs 2.
func drawCost(p *engine.Player) int {
	return max(1, 4-p.Character.BaseStats.GunSpeed/2)
}

func failed(id string, cost int, format string, args ...any) engine.Effect {
	return engine.Effect{Kind: engine.EffActionFailed, PlayerID: id, Cost: cost, Reason: fmt.Sprintf(format, args...)}
}

// roll derives a deterministic value in [0, 100) for one shot.
func roll(turn int, shooter, target string, shot int, salt string) int {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%s|%s|%d|%s", turn, shooter, target, shot, salt)
	return int(h.Sum64() % 100)
}

// StatusFor maps a wound list to the status it leaves a gunfighter in.
func StatusFor(current engine.PlayerStatus, wounds []engine.Wound) engine.PlayerStatus {
	total := 0
	for _, w := range wounds {
		total += w.Severity
		if w.Location == engine.LocHead && w.Severity >= 3 {
			return engine.StatusDead
		}
	}
	switch {
	case total >= 6:
		return engine.StatusDead
	case total >= 4:
		if current == engine.StatusDead {
			return current
		}
		return engine.StatusDown
	default:
		return current
	}
}
