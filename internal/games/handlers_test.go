package games

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGate struct {
	unlocked map[string]bool
}

func (g stubGate) Unlocked(_ context.Context, userID string) (bool, error) {
	return g.unlocked[userID], nil
}

func playRequest(t *testing.T, h *Handler, userID, gameID string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetPath("/games/:id/play")
	c.SetParamNames("id")
	c.SetParamValues(gameID)
	if userID != "" {
		c.Set("user_id", userID)
	}
	require.NoError(t, h.Play(c))
	return rec
}

func TestPlayRequiresUnlockedGate(t *testing.T) {
	m, _, _, _ := testManager()
	h := NewHandler(m, stubGate{unlocked: map[string]bool{"u-open": true}})

	rec := playRequest(t, h, "u-locked", "3")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	_, active := m.Active("u-locked")
	assert.False(t, active, "a locked account must never get a session")

	rec = playRequest(t, h, "u-open", "3")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp sessionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "3", resp.GameID)
	assert.Equal(t, "running", resp.State)
	assert.Equal(t, int64(1000), resp.Reward)
}

func TestPlayUnknownGame(t *testing.T) {
	m, _, _, _ := testManager()
	h := NewHandler(m, stubGate{unlocked: map[string]bool{"u1": true}})

	rec := playRequest(t, h, "u1", "999")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPlayConflictsWithActiveSession(t *testing.T) {
	m, _, _, _ := testManager()
	m.durationFor = func(Game) time.Duration { return time.Hour }
	h := NewHandler(m, stubGate{unlocked: map[string]bool{"u1": true}})

	assert.Equal(t, http.StatusOK, playRequest(t, h, "u1", "3").Code)
	assert.Equal(t, http.StatusConflict, playRequest(t, h, "u1", "5").Code)
}

func TestPlayUnauthorized(t *testing.T) {
	m, _, _, _ := testManager()
	h := NewHandler(m, stubGate{})

	rec := playRequest(t, h, "", "3")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
