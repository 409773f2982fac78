package engine

// Resolver turns the declared actions of a turn into effects. Both methods receive
// the state as it stood when the phase began and must be deterministic in it.
// Effects are applied by the engine as one batch after the call returns.
type Resolver interface {
	ResolveMovement(start State) []Effect
	ResolveFire(start State) []Effect
}

type EffectKind string

const (
	EffMoved         EffectKind = "moved"
	EffTurned        EffectKind = "turned"
	EffDrew          EffectKind = "drew"
	EffAimed         EffectKind = "aimed"
	EffFired         EffectKind = "fired"
	EffReloaded      EffectKind = "reloaded"
	EffWounded       EffectKind = "wounded"
	EffStatusChanged EffectKind = "status_changed"
	EffActionFailed  EffectKind = "action_failed"
)

// Effect is a single state change proposed by a Resolver. Cost is deducted from the
// player's action points for every kind.
type Effect struct {
	Kind           EffectKind
	PlayerID       string
	Cost           int
	Position       *HexCoord
	Facing         *Facing
	TargetPlayerID string
	// Rounds is the active weapon's loaded count after a fire or reload.
	Rounds int
	Wound  *Wound
	Status PlayerStatus
	Reason string
}

func applyEffects(s *State, effects []Effect) []Event {
	events := make([]Event, 0, len(effects))
	for _, eff := range effects {
		p, ok := s.Players[eff.PlayerID]
		if !ok {
			continue
		}

		evt := Event{Type: EventType(eff.Kind), PlayerID: eff.PlayerID, TargetPlayerID: eff.TargetPlayerID, Reason: eff.Reason}
		switch eff.Kind {
		case EffMoved:
			if eff.Position == nil {
				continue
			}
			pos := *eff.Position
			p.Position = pos
			evt.Position = &pos
		case EffTurned:
			if eff.Facing == nil || !eff.Facing.Valid() {
				continue
			}
			f := *eff.Facing
			p.Facing = f
			evt.Facing = &f
		case EffDrew:
			p.Drawn = true
		case EffAimed:
			p.AimingAt = eff.TargetPlayerID
		case EffFired, EffReloaded:
			w := p.ActiveWeapon()
			if w == nil {
				continue
			}
			w.Loaded = min(max(eff.Rounds, 0), w.Capacity)
			rounds := w.Loaded
			evt.Rounds = &rounds
		case EffWounded:
			if eff.Wound == nil {
				continue
			}
			wound := *eff.Wound
			p.Wounds = append(p.Wounds, wound)
			evt.Wound = &wound
		case EffStatusChanged:
			p.Status = eff.Status
			evt.Status = eff.Status
		case EffActionFailed:
		default:
			continue
		}

		p.ActionPoints = max(p.ActionPoints-eff.Cost, 0)
		events = append(events, evt)
	}
	return events
}
