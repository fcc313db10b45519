package ledger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cribbage-lite/apps/server/internal/codec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMux(t *testing.T) (*http.ServeMux, Service) {
	t.Helper()
	svc := newMemoryLedger(t)
	mux := http.NewServeMux()
	NewHTTPHandler(svc, nil).RegisterRoutes(mux)
	return mux, svc
}

func TestHTTP_Recent(t *testing.T) {
	mux, svc := newTestMux(t)
	svc.RecordGameResult(GameResult{
		GameID: "g1", TableID: "t1", Players: [2]string{"alice", "bob"},
		Scores: [2]int{121, 80}, Winner: "p1", EndedAt: time.Now(),
	})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/recent?player=bob&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Items []GameResult `json:"items"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Items, 1)
	assert.Equal(t, "g1", body.Items[0].GameID)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/games/recent", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHTTP_GameEvents(t *testing.T) {
	mux, svc := newTestMux(t)
	svc.AppendEvent("g1", "p1", codec.WrapServerEnvelope("t1", 1, codec.TypeSnapshot, nil))

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/g1/events", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"game_id":"g1"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/nope/events", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/games/g1/other", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTP_Replay(t *testing.T) {
	mux, _ := newTestMux(t)

	script := `{
		"deck": ["Ts","9h","Js","9d","Qs","9c","Ks","8h","Ac","2c","7d","4d","3h"],
		"starting_dealer": "p1",
		"actions": [
			{"seat": "p2", "type": "discard", "cards": ["Ac", "7d"]},
			{"seat": "p1", "type": "discard", "cards": ["2c", "4d"]},
			{"seat": "p2", "type": "play", "cards": ["Ts"]}
		]
	}`
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay", strings.NewReader(script)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var tape struct {
		Steps []struct {
			Stage string `json:"stage"`
			Count int    `json:"count"`
		} `json:"steps"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tape))
	require.Len(t, tape.Steps, 3)
	assert.Equal(t, "pegging", tape.Steps[2].Stage)
	assert.Equal(t, 10, tape.Steps[2].Count)

	bad := `{"deck": ["Ts","9h","Js","9d","Qs","9c","Ks","8h","Ac","2c","7d","4d","3h"],
		"actions": [{"seat": "p1", "type": "play", "cards": ["9h"]}]}`
	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay", strings.NewReader(bad)))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), `"error":"invalid_stage"`)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/replay", strings.NewReader(`{"nope":1}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParseLimit(t *testing.T) {
	assert.Equal(t, 20, parseLimit(""))
	assert.Equal(t, 20, parseLimit("abc"))
	assert.Equal(t, 7, parseLimit("7"))
	assert.Equal(t, 100, parseLimit("1000"))
}
