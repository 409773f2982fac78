package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustApply(t *testing.T, s State, cmd Command) ([]Event, State) {
	t.Helper()
	events, next, err := Apply(s, cmd)
	require.NoError(t, err, "apply %#v", cmd)
	return events, next
}

// declareState joins ids and readies them all, leaving the room in declare.
func declareState(t *testing.T, ids ...string) State {
	t.Helper()
	s := NewState(Rules{})
	for _, id := range ids {
		_, s = mustApply(t, s, Join{SessionID: id})
	}
	for _, id := range ids {
		_, s = mustApply(t, s, MarkReady{SessionID: id})
	}
	require.Equal(t, PhaseDeclare, s.Phase)
	return s
}

func pass(id string) Declare {
	return Declare{SessionID: id, Action: Action{Type: ActPass, PlayerID: id}}
}

func TestJoin_DefaultPlayer(t *testing.T) {
	events, s := mustApply(t, NewState(Rules{}), Join{SessionID: "A"})

	require.True(t, ContainsEvent(events, EvtPlayerJoined))
	p := s.Players["A"]
	require.NotNil(t, p)
	assert.Equal(t, HexCoord{}, p.Position)
	assert.Equal(t, Facing(0), p.Facing)
	assert.Equal(t, p.MaxActionPoints, p.ActionPoints)
	assert.Equal(t, StatusAlive, p.Status)
	assert.Equal(t, []Weapon{{Type: WeaponRevolver, Loaded: 6, Capacity: 6}}, p.Weapons)
	assert.Equal(t, "Gunfighter #1", p.Character.Name)
}

func TestJoin_RejectsDuplicateSession(t *testing.T) {
	_, s := mustApply(t, NewState(Rules{}), Join{SessionID: "A"})
	_, after, err := Apply(s, Join{SessionID: "A"})
	require.ErrorIs(t, err, ErrDuplicateSession)
	assert.Len(t, after.Players, 1)
}

func TestJoin_OrderIndependent(t *testing.T) {
	orders := [][]string{{"A", "B", "C"}, {"C", "A", "B"}, {"B", "C", "A"}}

	var sets []map[string]Player
	for _, order := range orders {
		s := NewState(Rules{})
		for _, id := range order {
			_, s = mustApply(t, s, Join{SessionID: id})
		}
		set := map[string]Player{}
		for id, p := range s.Players {
			require.Equal(t, id, p.SessionID)
			cp := *p
			cp.Character.Name = "" // numbered by arrival
			set[id] = cp
		}
		sets = append(sets, set)
	}
	for i := 1; i < len(sets); i++ {
		assert.Equal(t, sets[0], sets[i])
	}
}

func TestDeclare_PhaseGating(t *testing.T) {
	lobby := NewState(Rules{})
	_, lobby = mustApply(t, lobby, Join{SessionID: "A"})

	resolving := declareState(t, "A", "B")
	_, resolving = mustApply(t, resolving, pass("A"))
	_, resolving = mustApply(t, resolving, pass("B"))
	require.Equal(t, PhaseResolveMovement, resolving.Phase)

	ended := declareState(t, "A", "B")
	ended.Phase = PhaseEnd

	cases := []struct {
		name  string
		setup State
	}{
		{name: "lobby", setup: lobby},
		{name: "resolve_movement", setup: resolving},
		{name: "end", setup: ended},
	}

	actions := []Action{
		{Type: ActPass},
		{Type: ActMove, Target: &HexCoord{Q: 1}},
		{Type: ActFire, TargetPlayerID: "B"},
	}

	for _, tc := range cases {
		for _, a := range actions {
			t.Run(fmt.Sprintf("%s/%s", tc.name, a.Type), func(t *testing.T) {
				events, after, err := Apply(tc.setup, Declare{SessionID: "A", Action: a})
				require.ErrorIs(t, err, ErrPhaseViolation)
				assert.Nil(t, events)
				assert.Equal(t, tc.setup.DeclaredActions, after.DeclaredActions)
				assert.Equal(t, tc.setup.Phase, after.Phase)
			})
		}
	}
}

func TestDeclare_ValidationRejectsBeforeMutation(t *testing.T) {
	s := declareState(t, "A", "B")
	bad := Facing(7)

	cases := []struct {
		name    string
		cmd     Declare
		wantErr error
	}{
		{"unknown session", Declare{SessionID: "Z", Action: Action{Type: ActPass}}, ErrUnknownSession},
		{"move without target", Declare{SessionID: "A", Action: Action{Type: ActMove}}, ErrInvalidAction},
		{"turn out of range", Declare{SessionID: "A", Action: Action{Type: ActTurn, Facing: &bad}}, ErrInvalidAction},
		{"fire without target", Declare{SessionID: "A", Action: Action{Type: ActFire}}, ErrInvalidAction},
		{"unknown type", Declare{SessionID: "A", Action: Action{Type: "lasso"}}, ErrInvalidAction},
		{"spoofed player", Declare{SessionID: "A", Action: Action{Type: ActPass, PlayerID: "B"}}, ErrActionPlayerMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, after, err := Apply(s, tc.cmd)
			require.True(t, errors.Is(err, tc.wantErr), "got %v", err)
			assert.Empty(t, after.DeclaredActions)
		})
	}
}

func TestDeclare_RejectsDownedPlayer(t *testing.T) {
	s := declareState(t, "A", "B", "C")
	s.Players["C"].Status = StatusDown

	_, _, err := Apply(s, pass("C"))
	require.ErrorIs(t, err, ErrPlayerNotAlive)
}

func TestDeclare_FillsPlayerID(t *testing.T) {
	s := declareState(t, "A", "B")
	_, s = mustApply(t, s, Declare{SessionID: "A", Action: Action{Type: ActDraw}})
	assert.Equal(t, "A", s.DeclaredActions["A"][0].PlayerID)
}

func TestDeclare_CompletenessAdvanceIsOrderIndependent(t *testing.T) {
	ids := []string{"A", "B", "C"}
	orders := [][]string{
		{"A", "B", "C"},
		{"C", "B", "A"},
		{"B", "B", "A", "C"}, // second action from B must not count as a new player
	}

	for _, order := range orders {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			s := declareState(t, ids...)
			seen := map[string]bool{}
			for i, id := range order {
				var events []Event
				events, s = mustApply(t, s, pass(id))
				seen[id] = true

				last := i == len(order)-1
				if last {
					assert.Equal(t, PhaseResolveMovement, s.Phase)
					assert.True(t, ContainsEvent(events, EvtPhaseChanged))
				} else {
					assert.Equal(t, PhaseDeclare, s.Phase, "advanced early after %v", order[:i+1])
				}
			}
			assert.Len(t, seen, len(ids))
		})
	}
}

func TestDeclare_MultipleActionsAppend(t *testing.T) {
	s := declareState(t, "A", "B")
	_, s = mustApply(t, s, Declare{SessionID: "A", Action: Action{Type: ActDraw}})
	_, s = mustApply(t, s, Declare{SessionID: "A", Action: Action{Type: ActDraw}})
	assert.Len(t, s.DeclaredActions["A"], 2)
	assert.Equal(t, PhaseDeclare, s.Phase)
}

func TestDeclare_IgnoresNonAlivePlayersForCompleteness(t *testing.T) {
	s := declareState(t, "A", "B", "C")
	s.Players["C"].Status = StatusDead

	_, s = mustApply(t, s, pass("A"))
	_, s = mustApply(t, s, pass("B"))
	assert.Equal(t, PhaseResolveMovement, s.Phase)
}

func TestFullCycle_TurnIncrementAndActionPointReset(t *testing.T) {
	s := declareState(t, "A", "B")
	require.Equal(t, 1, s.Turn)

	for turn := 1; turn <= 3; turn++ {
		s.Players["A"].ActionPoints = 2
		_, s = mustApply(t, s, pass("A"))
		_, s = mustApply(t, s, pass("B"))
		require.Equal(t, PhaseResolveMovement, s.Phase)

		_, s = mustApply(t, s, Resolve{})
		require.Equal(t, PhaseResolveFire, s.Phase)
		assert.Equal(t, turn, s.Turn, "turn changed before resolve_fire finished")
		assert.NotEmpty(t, s.DeclaredActions)

		var events []Event
		events, s = mustApply(t, s, Resolve{})
		require.Equal(t, PhaseDeclare, s.Phase)
		assert.Equal(t, turn+1, s.Turn)
		assert.Empty(t, s.DeclaredActions)
		assert.True(t, ContainsEvent(events, EvtTurnStarted))
		for id, p := range s.Players {
			assert.Equal(t, p.MaxActionPoints, p.ActionPoints, "player %s", id)
		}
	}
}

func TestResolve_RejectedOutsideResolution(t *testing.T) {
	s := declareState(t, "A", "B")
	_, _, err := Apply(s, Resolve{})
	require.ErrorIs(t, err, ErrNotResolving)
}

func TestReady_PerPlayerTracking(t *testing.T) {
	s := NewState(Rules{})
	for _, id := range []string{"A", "B", "C"} {
		_, s = mustApply(t, s, Join{SessionID: id})
	}

	_, s = mustApply(t, s, MarkReady{SessionID: "A"})
	_, s = mustApply(t, s, MarkReady{SessionID: "A"})
	_, s = mustApply(t, s, MarkReady{SessionID: "B"})
	assert.Equal(t, PhaseLobby, s.Phase, "C has not signalled ready")

	_, s = mustApply(t, s, MarkReady{SessionID: "C"})
	assert.Equal(t, PhaseDeclare, s.Phase)
	assert.Empty(t, s.Ready)
}

func TestReady_NeedsMinimumPlayers(t *testing.T) {
	s := NewState(Rules{})
	_, s = mustApply(t, s, Join{SessionID: "A"})
	_, s = mustApply(t, s, MarkReady{SessionID: "A"})
	assert.Equal(t, PhaseLobby, s.Phase)
}

func TestReady_NoopOutsideLobby(t *testing.T) {
	s := declareState(t, "A", "B")
	events, after, err := Apply(s, MarkReady{SessionID: "A"})
	require.NoError(t, err)
	assert.Nil(t, events)
	assert.Equal(t, PhaseDeclare, after.Phase)
}

func TestScenario_TwoPlayerHappyPath(t *testing.T) {
	s := NewState(Rules{})
	_, s = mustApply(t, s, Join{SessionID: "A"})
	_, s = mustApply(t, s, Join{SessionID: "B"})

	_, s = mustApply(t, s, MarkReady{SessionID: "A"})
	require.Equal(t, PhaseLobby, s.Phase)
	_, s = mustApply(t, s, MarkReady{SessionID: "B"})
	require.Equal(t, PhaseDeclare, s.Phase)

	_, s = mustApply(t, s, Declare{SessionID: "A", Action: Action{Type: ActMove, PlayerID: "A", Target: &HexCoord{Q: 1, R: 0}}})
	require.Equal(t, PhaseDeclare, s.Phase)

	_, s = mustApply(t, s, Declare{SessionID: "B", Action: Action{Type: ActPass, PlayerID: "B"}})
	require.Equal(t, PhaseResolveMovement, s.Phase)
}

func TestScenario_LeaveDuringDeclare(t *testing.T) {
	s := declareState(t, "A", "B", "C")
	_, s = mustApply(t, s, pass("A"))
	_, s = mustApply(t, s, pass("B"))
	require.Equal(t, PhaseDeclare, s.Phase)

	events, s := mustApply(t, s, Leave{SessionID: "C"})
	assert.Equal(t, PhaseResolveMovement, s.Phase, "room waited for a departed player")
	assert.True(t, ContainsEvent(events, EvtPlayerLeft))
	assert.NotContains(t, s.Players, "C")
}

func TestLeave_DropsDeclaredActions(t *testing.T) {
	s := declareState(t, "A", "B", "C")
	_, s = mustApply(t, s, pass("A"))
	_, s = mustApply(t, s, Leave{SessionID: "A"})

	assert.NotContains(t, s.DeclaredActions, "A")
	assert.Equal(t, PhaseDeclare, s.Phase)
}

func TestLeave_LastPlayerDoesNotAdvance(t *testing.T) {
	s := declareState(t, "A", "B")
	_, s = mustApply(t, s, Leave{SessionID: "A"})
	_, s = mustApply(t, s, Leave{SessionID: "B"})
	assert.Equal(t, PhaseDeclare, s.Phase)
}

func TestLeave_InLobbyStartsMatchWhenRestAreReady(t *testing.T) {
	s := NewState(Rules{})
	for _, id := range []string{"A", "B", "C"} {
		_, s = mustApply(t, s, Join{SessionID: id})
	}
	_, s = mustApply(t, s, MarkReady{SessionID: "A"})
	_, s = mustApply(t, s, MarkReady{SessionID: "B"})
	require.Equal(t, PhaseLobby, s.Phase)

	events, s := mustApply(t, s, Leave{SessionID: "C"})
	assert.Equal(t, PhaseDeclare, s.Phase, "lobby waited for a departed player")
	assert.True(t, ContainsEvent(events, EvtPhaseChanged))
	assert.Empty(t, s.Ready)
	assert.Len(t, s.Players, 2)
}

func TestLeave_InLobbyBelowMinimumStaysInLobby(t *testing.T) {
	s := NewState(Rules{})
	_, s = mustApply(t, s, Join{SessionID: "A"})
	_, s = mustApply(t, s, Join{SessionID: "B"})
	_, s = mustApply(t, s, MarkReady{SessionID: "A"})

	events, s := mustApply(t, s, Leave{SessionID: "B"})
	assert.Equal(t, PhaseLobby, s.Phase)
	assert.False(t, ContainsEvent(events, EvtPhaseChanged))
	assert.Equal(t, map[string]bool{"A": true}, s.Ready)
}

func TestLeave_UnknownSession(t *testing.T) {
	_, _, err := Apply(NewState(Rules{}), Leave{SessionID: "ghost"})
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestResolveFire_EndsMatchWithOneSurvivor(t *testing.T) {
	s := declareState(t, "A", "B")
	_, s = mustApply(t, s, pass("A"))
	_, s = mustApply(t, s, pass("B"))
	_, s = mustApply(t, s, Resolve{})
	s.Players["B"].Status = StatusDead

	events, s := mustApply(t, s, Resolve{})
	assert.Equal(t, PhaseEnd, s.Phase)
	assert.Equal(t, "A", s.Winner)
	assert.Equal(t, 1, s.Turn)
	assert.Empty(t, s.DeclaredActions)
	assert.True(t, ContainsEvent(events, EvtMatchEnded))

	_, after, err := Apply(s, Join{SessionID: "late"})
	require.ErrorIs(t, err, ErrMatchOver)
	assert.Equal(t, PhaseEnd, after.Phase)
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	s := declareState(t, "A", "B")
	_, _ = mustApply(t, s, pass("A"))
	assert.Empty(t, s.DeclaredActions)

	_, s = mustApply(t, s, pass("A"))
	_, s = mustApply(t, s, pass("B"))
	before := s.Clone()
	_, _ = mustApply(t, s, Resolve{})
	assert.Equal(t, before, s)
}
