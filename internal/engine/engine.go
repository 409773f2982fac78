package engine

import (
	"errors"
	"fmt"
)

var ErrPhaseViolation = errors.New("actions can only be declared during the declare phase")
var ErrUnknownSession = errors.New("unknown session")
var ErrDuplicateSession = errors.New("session already joined")
var ErrPlayerNotAlive = errors.New("player is not alive")
var ErrInvalidAction = errors.New("invalid action")
var ErrActionPlayerMismatch = errors.New("action playerId does not match session")
var ErrNotResolving = errors.New("room is not in a resolution phase")
var ErrMatchOver = errors.New("match is over")
var ErrUnsupportedCommand = errors.New("unsupported command")

// Command is the closed set of inputs Apply accepts.
type Command interface{ isCommand() }

type Join struct{ SessionID string }

type Leave struct{ SessionID string }

type MarkReady struct{ SessionID string }

type Declare struct {
	SessionID string
	Action    Action
}

// Resolve runs the resolution hook of the current phase and advances past it.
type Resolve struct{}

func (Join) isCommand()      {}
func (Leave) isCommand()     {}
func (MarkReady) isCommand() {}
func (Declare) isCommand()   {}
func (Resolve) isCommand()   {}

type EventType string

const (
	EvtPlayerJoined   EventType = "player_joined"
	EvtPlayerLeft     EventType = "player_left"
	EvtPlayerReady    EventType = "player_ready"
	EvtActionDeclared EventType = "action_declared"
	EvtPhaseChanged   EventType = "phase_changed"
	EvtTurnStarted    EventType = "turn_started"
	EvtMatchEnded     EventType = "match_ended"
)

type Event struct {
	Type           EventType    `json:"type"`
	PlayerID       string       `json:"playerId,omitempty"`
	TargetPlayerID string       `json:"targetPlayerId,omitempty"`
	Phase          Phase        `json:"phase,omitempty"`
	Turn           int          `json:"turn,omitempty"`
	Action         *Action      `json:"action,omitempty"`
	Position       *HexCoord    `json:"position,omitempty"`
	Facing         *Facing      `json:"facing,omitempty"`
	Rounds         *int         `json:"rounds,omitempty"`
	Wound          *Wound       `json:"wound,omitempty"`
	Status         PlayerStatus `json:"status,omitempty"`
	Reason         string       `json:"reason,omitempty"`
}

// Apply returns the events and next state produced by cmd. On error the input state
// is returned untouched; the input is never mutated.
func Apply(s State, cmd Command) ([]Event, State, error) {
	switch c := cmd.(type) {
	case Join:
		return applyJoin(s, c)
	case Leave:
		return applyLeave(s, c)
	case MarkReady:
		return applyReady(s, c)
	case Declare:
		return applyDeclare(s, c)
	case Resolve:
		return applyResolve(s)
	default:
		return nil, s, ErrUnsupportedCommand
	}
}

func applyJoin(s State, c Join) ([]Event, State, error) {
	if c.SessionID == "" {
		return nil, s, fmt.Errorf("%w: empty session id", ErrUnknownSession)
	}
	if s.Phase == PhaseEnd {
		return nil, s, ErrMatchOver
	}
	if _, ok := s.Players[c.SessionID]; ok {
		return nil, s, ErrDuplicateSession
	}

	newState := s.Clone()
	newState.Players[c.SessionID] = NewPlayer(c.SessionID, len(s.Players)+1)
	return []Event{{Type: EvtPlayerJoined, PlayerID: c.SessionID}}, newState, nil
}

func applyLeave(s State, c Leave) ([]Event, State, error) {
	if _, ok := s.Players[c.SessionID]; !ok {
		return nil, s, ErrUnknownSession
	}

	newState := s.Clone()
	delete(newState.Players, c.SessionID)
	// A departed player must not hold the turn or the lobby hostage.
	delete(newState.DeclaredActions, c.SessionID)
	delete(newState.Ready, c.SessionID)

	events := []Event{{Type: EvtPlayerLeft, PlayerID: c.SessionID}}
	switch newState.Phase {
	case PhaseLobby:
		if allReady(newState) {
			events = append(events, advance(&newState)...)
		}
	case PhaseDeclare:
		if allDeclared(newState) {
			events = append(events, advance(&newState)...)
		}
	}
	return events, newState, nil
}

func applyReady(s State, c MarkReady) ([]Event, State, error) {
	if s.Phase != PhaseLobby {
		return nil, s, nil
	}
	if _, ok := s.Players[c.SessionID]; !ok {
		return nil, s, ErrUnknownSession
	}

	newState := s.Clone()
	newState.Ready[c.SessionID] = true
	events := []Event{{Type: EvtPlayerReady, PlayerID: c.SessionID}}
	if allReady(newState) {
		events = append(events, advance(&newState)...)
	}
	return events, newState, nil
}

func applyDeclare(s State, c Declare) ([]Event, State, error) {
	if s.Phase != PhaseDeclare {
		return nil, s, ErrPhaseViolation
	}
	p, ok := s.Players[c.SessionID]
	if !ok {
		return nil, s, ErrUnknownSession
	}
	if !p.Alive() {
		return nil, s, ErrPlayerNotAlive
	}

	action := c.Action
	if action.PlayerID == "" {
		action.PlayerID = c.SessionID
	}
	if action.PlayerID != c.SessionID {
		return nil, s, ErrActionPlayerMismatch
	}
	if err := validateAction(action); err != nil {
		return nil, s, err
	}

	newState := s.Clone()
	newState.DeclaredActions[c.SessionID] = append(newState.DeclaredActions[c.SessionID], action)
	events := []Event{{Type: EvtActionDeclared, PlayerID: c.SessionID, Action: &action}}

	if allDeclared(newState) {
		events = append(events, advance(&newState)...)
	}
	return events, newState, nil
}

func applyResolve(s State) ([]Event, State, error) {
	var effects []Effect
	switch s.Phase {
	case PhaseResolveMovement:
		if s.Rules.Resolver != nil {
			effects = s.Rules.Resolver.ResolveMovement(s.Clone())
		}
	case PhaseResolveFire:
		if s.Rules.Resolver != nil {
			effects = s.Rules.Resolver.ResolveFire(s.Clone())
		}
	default:
		return nil, s, ErrNotResolving
	}

	// Every effect was computed against the same start-of-phase state and they land
	// together, so no player observes a half-resolved phase.
	newState := s.Clone()
	events := applyEffects(&newState, effects)
	events = append(events, advance(&newState)...)
	return events, newState, nil
}

func validateAction(a Action) error {
	switch a.Type {
	case ActMove:
		if a.Target == nil {
			return fmt.Errorf("%w: move requires a target", ErrInvalidAction)
		}
	case ActTurn:
		if a.Facing == nil || !a.Facing.Valid() {
			return fmt.Errorf("%w: turn requires a facing in 0-5", ErrInvalidAction)
		}
	case ActAim, ActFire:
		if a.TargetPlayerID == "" {
			return fmt.Errorf("%w: %s requires a targetPlayerId", ErrInvalidAction, a.Type)
		}
	case ActDraw, ActReload, ActPass:
	default:
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAction, a.Type)
	}
	return nil
}
