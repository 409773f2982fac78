package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gunslinger-backend/internal/hub"
	"github.com/DoyleJ11/gunslinger-backend/internal/room"
	"github.com/DoyleJ11/gunslinger-backend/pkg/types"
)

var (
	ErrBadJSON     = errors.New("bad json")
	ErrUnknownType = errors.New("unknown message type")
	ErrMissingBody = errors.New("action message without action")
)

const (
	writeTimeout        = 3 * time.Second
	pingTimeout         = 10 * time.Second
	defaultPingInterval = 30 * time.Second
)

type Options struct {
	OutboxSize int
	Logger     *zap.Logger
	// PingInterval is how often an idle peer is pinged. Reads have no deadline, so
	// a player waiting on others is never timed out of the match.
	PingInterval time.Duration
	// OriginPatterns is passed to websocket.Accept; empty means same-origin only.
	OriginPatterns []string
}

func Handler(h *hub.Hub, opts Options) http.HandlerFunc {
	if opts.OutboxSize <= 0 {
		opts.OutboxSize = 16
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaultPingInterval
	}

	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}

		rm := h.Get(code)
		if rm == nil {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}

		sessionID := uuid.NewString()
		out := make(chan types.ServerMessage, opts.OutboxSize)
		joined := make(chan error, 1)
		if !rm.Send(room.Join{SessionID: sessionID, Outbox: out, Reply: joined}) {
			http.Error(w, room.ErrRoomClosed.Error(), http.StatusGone)
			return
		}
		if err := rm.Wait(joined); err != nil {
			status := http.StatusConflict
			switch {
			case errors.Is(err, room.ErrRoomFull):
				status = http.StatusServiceUnavailable
			case errors.Is(err, room.ErrRoomClosed):
				status = http.StatusGone
			}
			http.Error(w, err.Error(), status)
			return
		}
		defer rm.Send(room.Leave{SessionID: sessionID})

		logger := opts.Logger.With(zap.String("room", code), zap.String("session", sessionID))

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: opts.OriginPatterns,
		})
		if err != nil {
			logger.Warn("websocket accept", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			defer writeCancel()
			ticker := time.NewTicker(opts.PingInterval)
			defer ticker.Stop()
			for {
				select {
				case msg, ok := <-out:
					if !ok {
						// Outbox closed: the room dropped us or stopped.
						_ = conn.Close(websocket.StatusGoingAway, "room closed")
						return
					}
					if err := write(writeCtx, conn, msg); err != nil {
						logger.Debug("write failed", zap.Error(err))
						return
					}
				case <-ticker.C:
					if err := ping(writeCtx, conn); err != nil {
						logger.Info("peer unresponsive", zap.Error(err))
						_ = conn.Close(websocket.StatusPolicyViolation, "ping timeout")
						return
					}
				case <-writeCtx.Done():
					return
				}
			}
		}()

		// Reader loop
		for {
			_, data, err := conn.Read(writeCtx)
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				default:
					logger.Debug("read failed", zap.Error(err))
				}
				return // room.Leave in defer
			}

			in, err := decode(data)
			if err != nil {
				if werr := write(writeCtx, conn, types.Error(err)); werr != nil {
					return
				}
				continue
			}

			if !rm.Send(room.FromClient{SessionID: sessionID, In: in}) {
				return
			}
		}
	}
}

// decode turns one client frame into the room's inbound variant.
func decode(data []byte) (room.Inbound, error) {
	var cm types.ClientMessage
	if err := json.Unmarshal(data, &cm); err != nil {
		return nil, ErrBadJSON
	}
	return toInbound(cm)
}

func toInbound(m types.ClientMessage) (room.Inbound, error) {
	switch m.Type {
	case types.ClientAction:
		if m.Action == nil {
			return nil, ErrMissingBody
		}
		return room.DeclareAction{Action: *m.Action}, nil
	case types.ClientReady:
		return room.ReadySignal{}, nil
	default:
		return nil, ErrUnknownType
	}
}

// ping waits for the pong, which arrives through the reader loop's Read.
func ping(ctx context.Context, conn *websocket.Conn) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return conn.Ping(ctx)
}

// write is safe to call from the reader and writer goroutines at once.
func write(ctx context.Context, conn *websocket.Conn, msg types.ServerMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
