package engine

import (
	"fmt"
	"slices"
	"sort"
)

const (
	DefaultMinPlayers      = 2
	DefaultMaxActionPoints = 10
)

func NewState(rules Rules) State {
	return State{
		Phase:           PhaseLobby,
		Turn:            1,
		Players:         map[string]*Player{},
		DeclaredActions: map[string][]Action{},
		Ready:           map[string]bool{},
		Rules:           rules,
	}
}

// NewPlayer builds the default gunfighter handed to the n-th joining session.
func NewPlayer(sessionID string, n int) *Player {
	return &Player{
		SessionID: sessionID,
		Character: Character{
			ID:        sessionID,
			Name:      fmt.Sprintf("Gunfighter #%d", n),
			BaseStats: CharacterStats{Speed: 3, GunSpeed: 5, Accuracy: 0, Strength: 5},
		},
		Position:        HexCoord{Q: 0, R: 0},
		Facing:          0,
		ActionPoints:    DefaultMaxActionPoints,
		MaxActionPoints: DefaultMaxActionPoints,
		Wounds:          []Wound{},
		Weapons:         []Weapon{{Type: WeaponRevolver, Loaded: 6, Capacity: 6}},
		Status:          StatusAlive,
	}
}

// Clone deep-copies everything Apply may mutate.
func (s State) Clone() State {
	c := s
	c.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		cp := *p
		cp.Wounds = slices.Clone(p.Wounds)
		cp.Weapons = slices.Clone(p.Weapons)
		c.Players[id] = &cp
	}
	c.DeclaredActions = make(map[string][]Action, len(s.DeclaredActions))
	for id, actions := range s.DeclaredActions {
		c.DeclaredActions[id] = slices.Clone(actions)
	}
	c.Ready = make(map[string]bool, len(s.Ready))
	for id, r := range s.Ready {
		c.Ready[id] = r
	}
	return c
}

// SessionIDs returns the player ids in a stable order.
func SessionIDs(s State) []string {
	ids := make([]string, 0, len(s.Players))
	for id := range s.Players {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func AlivePlayers(s State) []string {
	var ids []string
	for _, id := range SessionIDs(s) {
		if s.Players[id].Alive() {
			ids = append(ids, id)
		}
	}
	return ids
}

func ContainsEvent(events []Event, eventType EventType) bool {
	for _, event := range events {
		if event.Type == eventType {
			return true
		}
	}
	return false
}
