package engine

// PhaseOrder is the turn cycle. resolve_fire leaves for end instead of declare once
// fewer than two players are still standing.
var PhaseOrder = map[Phase]Phase{
	PhaseLobby:           PhaseDeclare,
	PhaseDeclare:         PhaseResolveMovement,
	PhaseResolveMovement: PhaseResolveFire,
	PhaseResolveFire:     PhaseDeclare,
	PhaseEnd:             PhaseEnd,
}

// advance moves s to the next phase and performs the boundary bookkeeping.
func advance(s *State) []Event {
	next, ok := PhaseOrder[s.Phase]
	if !ok || next == s.Phase {
		return nil
	}

	var events []Event
	if s.Phase == PhaseResolveFire {
		s.DeclaredActions = map[string][]Action{}
		for _, p := range s.Players {
			p.AimingAt = ""
		}

		if alive := AlivePlayers(*s); len(alive) < 2 {
			if len(alive) == 1 {
				s.Winner = alive[0]
			}
			s.Phase = PhaseEnd
			return []Event{
				{Type: EvtPhaseChanged, Phase: PhaseEnd, Turn: s.Turn},
				{Type: EvtMatchEnded, PlayerID: s.Winner, Turn: s.Turn},
			}
		}

		s.Turn++
		resetActionPoints(s)
		events = append(events, Event{Type: EvtTurnStarted, Turn: s.Turn})
	}
	if s.Phase == PhaseLobby {
		s.Ready = map[string]bool{}
	}

	s.Phase = next
	return append([]Event{{Type: EvtPhaseChanged, Phase: next, Turn: s.Turn}}, events...)
}

// allDeclared reports whether every alive player has declared at least once this
// turn. A room with nobody alive is never complete.
func allDeclared(s State) bool {
	alive := 0
	for id, p := range s.Players {
		if !p.Alive() {
			continue
		}
		alive++
		if len(s.DeclaredActions[id]) == 0 {
			return false
		}
	}
	return alive > 0
}

func allReady(s State) bool {
	need := s.Rules.MinPlayers
	if need <= 0 {
		need = DefaultMinPlayers
	}
	if len(s.Players) < need {
		return false
	}
	for id := range s.Players {
		if !s.Ready[id] {
			return false
		}
	}
	return true
}

func resetActionPoints(s *State) {
	for _, p := range s.Players {
		p.ActionPoints = p.MaxActionPoints
	}
}
