// Package types is the wire protocol spoken between the browser client and a match
// room over the WebSocket.
package types

import "github.com/DoyleJ11/gunslinger-backend/internal/engine"

// Client -> Server
//
// action:
//   action: Action  // {type, playerId?, target?, facing?, targetPlayerId?}
//
// ready: {}
const (
	ClientAction = "action"
	ClientReady  = "ready"
)

type ClientMessage struct {
	Type   string         `json:"type" jsonschema:"enum=action,enum=ready"`
	Action *engine.Action `json:"action,omitempty"`
}

// Server -> Client
//
// welcome: sent once to a session right after it joins.
// state:   full GameState replicated to every session after each applied step.
// error:   one-line diagnostic sent only to the session whose message was rejected.
const (
	ServerWelcome = "welcome"
	ServerState   = "state"
	ServerError   = "error"
)

type ServerMessage struct {
	Type      string         `json:"type" jsonschema:"enum=welcome,enum=state,enum=error"`
	SessionID string         `json:"sessionId,omitempty"`
	Version   int            `json:"version,omitempty"`
	State     *engine.State  `json:"state,omitempty"`
	Events    []engine.Event `json:"events,omitempty"`
	Error     string         `json:"error,omitempty"`
}

func Welcome(sessionID string) ServerMessage {
	return ServerMessage{Type: ServerWelcome, SessionID: sessionID}
}

func StateSnapshot(version int, state engine.State, events []engine.Event) ServerMessage {
	return ServerMessage{Type: ServerState, Version: version, State: &state, Events: events}
}

func Error(err error) ServerMessage {
	return ServerMessage{Type: ServerError, Error: err.Error()}
}
