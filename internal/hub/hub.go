package hub

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
	"github.com/DoyleJ11/gunslinger-backend/internal/room"
)

type HubMsg interface{ isHubMsg() }

type CreateRoom struct {
	Code  string
	Reply chan *room.Room
}

type GetRoom struct {
	Code  string
	Reply chan *room.Room
}

type EnsureRoom struct {
	Code  string
	Reply chan *room.Room
}

// RemoveRoom drops Room from the registry if it is still the one under Code.
type RemoveRoom struct {
	Code string
	Room *room.Room
}

type ListRooms struct {
	Reply chan []string
}

type ShutdownHub struct{}

func (CreateRoom) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (EnsureRoom) isHubMsg()  {}
func (RemoveRoom) isHubMsg()  {}
func (ListRooms) isHubMsg()   {}
func (ShutdownHub) isHubMsg() {}

// Config is applied to every room the hub creates.
type Config struct {
	MaxClients  int
	AutoResolve bool
	Rules       engine.Rules
	Logger      *zap.Logger
	Archive     room.TurnSink
}

type Hub struct {
	cfg    Config
	inbox  chan HubMsg
	rooms  map[string]*room.Room
	logger *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, cfg Config) *Hub {
	ctx, cancel := context.WithCancel(parent)
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	h := &Hub{
		cfg:    cfg,
		inbox:  make(chan HubMsg, 64),
		rooms:  make(map[string]*room.Room),
		logger: cfg.Logger,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

// Send queues m for the hub goroutine. It reports false once the hub has shut down.
func (h *Hub) Send(m HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- m:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Get is a convenience wrapper around GetRoom; it returns nil for unknown codes.
func (h *Hub) Get(code string) *room.Room {
	reply := make(chan *room.Room, 1)
	if !h.Send(GetRoom{Code: code, Reply: reply}) {
		return nil
	}
	select {
	case rm := <-reply:
		return rm
	case <-h.ctx.Done():
		return nil
	}
}

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case CreateRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case GetRoom:
				msg.Reply <- h.rooms[msg.Code] // May be nil

			case EnsureRoom:
				if rm := h.rooms[msg.Code]; rm != nil {
					msg.Reply <- rm
					break
				}
				msg.Reply <- h.newRoom(msg.Code)

			case RemoveRoom:
				if rm, ok := h.rooms[msg.Code]; ok && rm == msg.Room {
					delete(h.rooms, msg.Code)
					h.logger.Info("room removed", zap.String("room", msg.Code))
				}

			case ListRooms:
				codes := make([]string, 0, len(h.rooms))
				for code := range h.rooms {
					codes = append(codes, code)
				}
				sort.Strings(codes)
				msg.Reply <- codes

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) newRoom(code string) *room.Room {
	var rm *room.Room
	rm = room.New(h.ctx, room.Config{
		Code:        code,
		MaxClients:  h.cfg.MaxClients,
		AutoResolve: h.cfg.AutoResolve,
		Rules:       h.cfg.Rules,
		Logger:      h.logger,
		Archive:     h.cfg.Archive,
		OnClose: func(code string) {
			// Runs on the room goroutine; Send never blocks once the hub is gone.
			go h.Send(RemoveRoom{Code: code, Room: rm})
		},
	})
	h.rooms[code] = rm
	h.logger.Info("room created", zap.String("room", code))
	return rm
}

func (h *Hub) shutdown() {
	for _, rm := range h.rooms {
		rm.Send(room.Shutdown{})
	}
	clear(h.rooms)
	h.cancel()
}
