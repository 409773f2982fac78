package httpapi

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/gunslinger-backend/internal/archive"
	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
	"github.com/DoyleJ11/gunslinger-backend/internal/hub"
	"github.com/DoyleJ11/gunslinger-backend/internal/room"
	"github.com/DoyleJ11/gunslinger-backend/pkg/types"
)

const replyTimeout = 2 * time.Second

func GenerateCode() (string, error) {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	code := make([]byte, 6)
	for i := 0; i < 6; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		code[i] = charset[num.Int64()]
	}
	return string(code), nil
}

func CreateRoom(h *hub.Hub, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var code string
		for {
			c, err := GenerateCode()
			if err != nil {
				http.Error(w, "failed to generate code", http.StatusInternalServerError)
				return
			}
			if h.Get(c) == nil {
				code = c
				break
			}
			logger.Debug("collision on code, regenerating", zap.String("code", c))
		}

		reply := make(chan *room.Room, 1)
		if !h.Send(hub.EnsureRoom{Code: code, Reply: reply}) || <-reply == nil {
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusCreated, struct {
			Code string `json:"code"`
		}{Code: code})
	}
}

func ListRooms(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan []string, 1)
		if !h.Send(hub.ListRooms{Reply: reply}) {
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Rooms []string `json:"rooms"`
		}{Rooms: <-reply})
	}
}

func GetRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := lookup(h, w, r)
		if rm == nil {
			return
		}
		v, ok := view(rm)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func RoomMetrics(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := lookup(h, w, r)
		if rm == nil {
			return
		}
		writeJSON(w, http.StatusOK, rm.Metrics().Snapshot())
	}
}

// ResolveRoom drives one resolution phase of a room running without auto-resolution.
func ResolveRoom(h *hub.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm := lookup(h, w, r)
		if rm == nil {
			return
		}
		reply := make(chan error, 1)
		if !rm.Send(room.Resolve{Reply: reply}) {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		if err := rm.Wait(reply); err != nil {
			status := http.StatusInternalServerError
			switch {
			case errors.Is(err, engine.ErrNotResolving):
				status = http.StatusConflict
			case errors.Is(err, room.ErrRoomClosed):
				status = http.StatusNotFound
			}
			writeJSON(w, status, types.Error(err))
			return
		}
		v, ok := view(rm)
		if !ok {
			http.Error(w, "room not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// Turns lists archived turns for a room code. The room itself may be gone.
func Turns(store archive.Store, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		turns, err := store.Turns(r.Context(), code)
		if err != nil {
			logger.Error("list turns", zap.String("room", code), zap.Error(err))
			http.Error(w, "failed to load turns", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Code  string               `json:"code"`
			Turns []archive.TurnRecord `json:"turns"`
		}{Code: code, Turns: turns})
	}
}

func Schema(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, types.Schema())
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func lookup(h *hub.Hub, w http.ResponseWriter, r *http.Request) *room.Room {
	rm := h.Get(chi.URLParam(r, "code"))
	if rm == nil {
		http.Error(w, "room not found", http.StatusNotFound)
	}
	return rm
}

func view(rm *room.Room) (room.View, bool) {
	reply := make(chan room.View, 1)
	if !rm.Send(room.GetState{Reply: reply}) {
		return room.View{}, false
	}
	select {
	case v := <-reply:
		return v, true
	case <-rm.Done():
		// The room may have answered just before stopping.
		select {
		case v := <-reply:
			return v, true
		default:
			return room.View{}, false
		}
	case <-time.After(replyTimeout):
		return room.View{}, false
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
