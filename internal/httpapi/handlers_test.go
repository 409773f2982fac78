package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoyleJ11/gunslinger-backend/internal/archive"
	"github.com/DoyleJ11/gunslinger-backend/internal/engine"
	"github.com/DoyleJ11/gunslinger-backend/internal/hub"
	"github.com/DoyleJ11/gunslinger-backend/internal/room"
	"github.com/DoyleJ11/gunslinger-backend/pkg/types"
)

type fakeStore struct {
	mu    sync.Mutex
	turns []archive.TurnRecord
}

func (f *fakeStore) SaveTurn(_ context.Context, rec archive.TurnRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, rec)
	return nil
}

func (f *fakeStore) Turns(_ context.Context, code string) ([]archive.TurnRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []archive.TurnRecord
	for _, t := range f.turns {
		if t.RoomCode == code {
			out = append(out, t)
		}
	}
	return out, nil
}

func newServer(t *testing.T, opts Options) (*hub.Hub, http.Handler) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	h := hub.NewHub(ctx, hub.Config{})
	return h, SetupRoutes(h, opts)
}

func do(t *testing.T, handler http.Handler, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[A-Z0-9]{6}$`), code)
}

func TestHealthzAndSchema(t *testing.T) {
	_, srv := newServer(t, Options{})

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz").Code)

	rec := do(t, srv, http.MethodGet, "/schema")
	require.Equal(t, http.StatusOK, rec.Code)
	var schema map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &schema))
	assert.Equal(t, "Gunslinger Wire Protocol", schema["title"])
}

func TestCreateListGetRoom(t *testing.T) {
	_, srv := newServer(t, Options{})

	rec := do(t, srv, http.MethodPost, "/rooms")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Len(t, created.Code, 6)

	rec = do(t, srv, http.MethodGet, "/rooms")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"rooms":["`+created.Code+`"]}`, rec.Body.String())

	rec = do(t, srv, http.MethodGet, "/rooms/"+created.Code)
	require.Equal(t, http.StatusOK, rec.Code)
	var v room.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, created.Code, v.Code)
	assert.Equal(t, engine.PhaseLobby, v.State.Phase)
	assert.Equal(t, 1, v.State.Turn)

	rec = do(t, srv, http.MethodGet, "/rooms/"+created.Code+"/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "phase_violations")

	assert.Equal(t, http.StatusNotFound, do(t, srv, http.MethodGet, "/rooms/NOPE00").Code)
}

func TestResolveRoom(t *testing.T) {
	h, srv := newServer(t, Options{})
	reply := make(chan *room.Room, 1)
	h.Send(hub.CreateRoom{Code: "RES001", Reply: reply})
	rm := <-reply

	// Still in lobby: nothing to resolve.
	rec := do(t, srv, http.MethodPost, "/rooms/RES001/resolve")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), engine.ErrNotResolving.Error())

	for _, id := range []string{"A", "B"} {
		errc := make(chan error, 1)
		rm.Send(room.Join{SessionID: id, Outbox: make(chan types.ServerMessage, 32), Reply: errc})
		require.NoError(t, <-errc)
	}
	for _, id := range []string{"A", "B"} {
		rm.Send(room.FromClient{SessionID: id, In: room.ReadySignal{}})
	}
	for _, id := range []string{"A", "B"} {
		rm.Send(room.FromClient{SessionID: id, In: room.DeclareAction{Action: engine.Action{Type: engine.ActPass}}})
	}

	rec = do(t, srv, http.MethodPost, "/rooms/RES001/resolve")
	require.Equal(t, http.StatusOK, rec.Code)
	var v room.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, engine.PhaseResolveFire, v.State.Phase)
}

func TestTurnsRoute(t *testing.T) {
	_, without := newServer(t, Options{})
	assert.Equal(t, http.StatusNotFound, do(t, without, http.MethodGet, "/rooms/OLD001/turns").Code)

	store := &fakeStore{}
	require.NoError(t, store.SaveTurn(context.Background(), archive.TurnRecord{RoomCode: "OLD001", Turn: 1, NextPhase: "declare"}))
	_, srv := newServer(t, Options{Store: store})

	rec := do(t, srv, http.MethodGet, "/rooms/OLD001/turns")
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Code  string               `json:"code"`
		Turns []archive.TurnRecord `json:"turns"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Turns, 1)
	assert.Equal(t, "declare", body.Turns[0].NextPhase)
}
