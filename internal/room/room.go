package room

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gunslinger-backend/internal/archive"
	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
	"github.com/DoyleJ11/gunslinger-backend/pkg/types"
)

var ErrRoomFull = errors.New("room is full")
var ErrRoomClosed = errors.New("room is closed")

const DefaultMaxClients = 6

type Msg interface{ isRoomMsg() }

// Join admits a session. Reply receives nil or the reason it was refused.
type Join struct {
	SessionID string
	Outbox    chan types.ServerMessage // where this session receives messages
	Reply     chan error
}

func (Join) isRoomMsg() {}

type Leave struct{ SessionID string }

func (Leave) isRoomMsg() {}

type FromClient struct {
	SessionID string
	In        Inbound
}

func (FromClient) isRoomMsg() {}

// Resolve drives a resolution phase when auto-resolution is off.
type Resolve struct {
	Reply chan error
}

func (Resolve) isRoomMsg() {}

type Shutdown struct{}

func (Shutdown) isRoomMsg() {}

type GetState struct {
	Reply chan View
}

func (GetState) isRoomMsg() {}

// Inbound is the closed set of messages a client can send.
type Inbound interface{ isInbound() }

type DeclareAction struct{ Action engine.Action }

type ReadySignal struct{}

func (DeclareAction) isInbound() {}
func (ReadySignal) isInbound()   {}

type View struct {
	Code       string       `json:"code"`
	Version    int          `json:"version"`
	NumClients int          `json:"numClients"`
	State      engine.State `json:"state"`
}

// TurnSink receives every completed turn. It must not block.
type TurnSink interface {
	Submit(rec archive.TurnRecord) bool
}

type Config struct {
	Code        string
	MaxClients  int
	AutoResolve bool
	Rules       engine.Rules
	Logger      *zap.Logger
	Archive     TurnSink
	// OnClose runs once the room has stopped because its last session left.
	OnClose func(code string)
}

// Room is one match. A single goroutine owns the state; everything else talks to it
// through Send.
type Room struct {
	cfg     Config
	inbox   chan Msg
	state   engine.State
	version int
	clients map[string]chan types.ServerMessage
	history []engine.Command
	metrics *Metrics
	logger  *zap.Logger
	ctx     context.Context
	cancel  context.CancelFunc
	stopped chan struct{}
}

func New(parent context.Context, cfg Config) *Room {
	ctx, cancel := context.WithCancel(parent)
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = DefaultMaxClients
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	r := &Room{
		cfg:     cfg,
		inbox:   make(chan Msg, 64),
		state:   engine.NewState(cfg.Rules),
		clients: make(map[string]chan types.ServerMessage),
		metrics: &Metrics{},
		logger:  cfg.Logger.With(zap.String("room", cfg.Code)),
		ctx:     ctx,
		cancel:  cancel,
		stopped: make(chan struct{}),
	}

	go r.loop()
	return r
}

func (r *Room) Code() string      { return r.cfg.Code }
func (r *Room) Metrics() *Metrics { return r.metrics }

// Done is closed once the room goroutine has exited.
func (r *Room) Done() <-chan struct{} { return r.stopped }

// Send queues m for the room goroutine. It reports false once the room has stopped.
func (r *Room) Send(m Msg) bool {
	if r.ctx.Err() != nil {
		return false
	}
	select {
	case r.inbox <- m:
		return true
	case <-r.ctx.Done():
		return false
	}
}

func (r *Room) loop() {
	defer close(r.stopped)
	defer r.drain()
	for {
		select {
		case <-r.ctx.Done():
			r.shutdown()
			return

		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- r.join(msg)

			case Leave:
				r.leave(msg.SessionID)
				if len(r.clients) == 0 && len(r.state.Players) == 0 {
					r.logger.Info("room empty, closing")
					r.shutdown()
					if r.cfg.OnClose != nil {
						r.cfg.OnClose(r.cfg.Code)
					}
					return
				}

			case FromClient:
				r.fromClient(msg)

			case Resolve:
				err := r.apply(engine.Resolve{})
				if err == nil {
					r.autoResolve()
				}
				msg.Reply <- err

			case GetState:
				msg.Reply <- View{
					Code:       r.cfg.Code,
					Version:    r.version,
					NumClients: len(r.clients),
					State:      r.state,
				}

			case Shutdown:
				r.shutdown()
				return
			}
		}
	}
}

// drain answers whatever was queued behind the message that stopped the room, so
// no caller waits on a reply that will never come.
func (r *Room) drain() {
	for {
		select {
		case m := <-r.inbox:
			switch msg := m.(type) {
			case Join:
				msg.Reply <- ErrRoomClosed
			case Resolve:
				msg.Reply <- ErrRoomClosed
			case GetState:
				msg.Reply <- View{Code: r.cfg.Code, Version: r.version, State: r.state}
			}
		default:
			return
		}
	}
}

// Wait returns the reply to a Join or Resolve sent to r, or ErrRoomClosed if the
// room stopped without answering.
func (r *Room) Wait(reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-r.stopped:
		// The room may have answered just before stopping.
		select {
		case err := <-reply:
			return err
		default:
			return ErrRoomClosed
		}
	}
}

func (r *Room) join(msg Join) error {
	if len(r.clients) >= r.cfg.MaxClients {
		return ErrRoomFull
	}
	if err := r.apply(engine.Join{SessionID: msg.SessionID}); err != nil {
		return err
	}

	r.clients[msg.SessionID] = msg.Outbox
	r.unicast(msg.SessionID, types.Welcome(msg.SessionID))
	r.unicast(msg.SessionID, types.StateSnapshot(r.version, r.state, nil))
	r.logger.Info("session joined", zap.String("session", msg.SessionID), zap.Int("players", len(r.state.Players)))
	return nil
}

func (r *Room) leave(sessionID string) {
	if ch, ok := r.clients[sessionID]; ok {
		close(ch)
		delete(r.clients, sessionID)
	}
	if err := r.apply(engine.Leave{SessionID: sessionID}); err != nil {
		return
	}
	r.logger.Info("session left", zap.String("session", sessionID), zap.Int("players", len(r.state.Players)))
	r.autoResolve()
}

func (r *Room) fromClient(msg FromClient) {
	var cmd engine.Command
	switch in := msg.In.(type) {
	case DeclareAction:
		cmd = engine.Declare{SessionID: msg.SessionID, Action: in.Action}
	case ReadySignal:
		cmd = engine.MarkReady{SessionID: msg.SessionID}
	default:
		return
	}

	if err := r.apply(cmd); err != nil {
		if errors.Is(err, engine.ErrPhaseViolation) {
			r.metrics.PhaseViolations.Add(1)
		}
		r.logger.Debug("rejected client message", zap.String("session", msg.SessionID), zap.Error(err))
		r.unicast(msg.SessionID, types.Error(err))
		return
	}
	r.autoResolve()
}

// apply runs cmd through the engine and, if it changed anything, commits and
// broadcasts the result.
func (r *Room) apply(cmd engine.Command) error {
	prev := r.state
	events, next, err := engine.Apply(prev, cmd)
	if err != nil {
		r.metrics.CommandsRejected.Add(1)
		return err
	}
	if len(events) == 0 {
		return nil
	}

	r.state = next
	r.version++
	r.history = append(r.history, cmd)
	r.metrics.CommandsApplied.Add(1)

	if prev.Phase != next.Phase {
		r.logger.Info("phase changed",
			zap.String("from", string(prev.Phase)),
			zap.String("to", string(next.Phase)),
			zap.Int("turn", next.Turn))
	}
	if prev.Phase == engine.PhaseResolveFire && next.Phase != engine.PhaseResolveFire {
		r.turnCompleted(prev, next, events)
	}

	r.broadcast(types.StateSnapshot(r.version, r.state, events))
	return nil
}

// autoResolve runs resolution phases back to back when configured to.
func (r *Room) autoResolve() {
	for r.cfg.AutoResolve && resolving(r.state.Phase) {
		if err := r.apply(engine.Resolve{}); err != nil {
			r.logger.Error("auto resolve", zap.Error(err))
			return
		}
	}
}

func resolving(p engine.Phase) bool {
	return p == engine.PhaseResolveMovement || p == engine.PhaseResolveFire
}

func (r *Room) turnCompleted(prev, next engine.State, events []engine.Event) {
	r.metrics.TurnsCompleted.Add(1)
	if r.cfg.Archive == nil {
		return
	}
	rec, err := archive.NewTurnRecord(r.cfg.Code, prev.Turn, prev.DeclaredActions, events, next)
	if err != nil {
		r.logger.Error("build turn record", zap.Error(err))
		return
	}
	if !r.cfg.Archive.Submit(rec) {
		r.metrics.ArchiveDrops.Add(1)
	}
}

func (r *Room) shutdown() {
	for id, ch := range r.clients {
		close(ch) // Tell client no more messages
		delete(r.clients, id)
	}
	r.cancel()
}

// broadcast replicates to every session. States are never mutated once Apply has
// returned them, so sessions can share one snapshot.
func (r *Room) broadcast(msg types.ServerMessage) {
	r.metrics.Broadcasts.Add(1)
	for id, ch := range r.clients {
		select {
		case ch <- msg:
			//ok
		default:
			// Client is slow/full - drop them.
			r.metrics.SlowClientDrops.Add(1)
			r.logger.Warn("dropping slow session", zap.String("session", id))
			close(ch)
			delete(r.clients, id)
		}
	}
}

func (r *Room) unicast(sessionID string, msg types.ServerMessage) {
	ch, ok := r.clients[sessionID]
	if !ok {
		return
	}
	select {
	case ch <- msg:
	default:
	}
}

// History blocks until the room has stopped and returns the commands it applied,
// in order, for engine.Replay.
func (r *Room) History() []engine.Command {
	<-r.stopped
	return r.history
}
