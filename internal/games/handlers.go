package games

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GateChecker reports whether gameplay is unlocked for a user. Implemented
// by the gate service; the check happens server-side only.
type GateChecker interface {
	Unlocked(ctx context.Context, userID string) (bool, error)
}

type Handler struct {
	manager *Manager
	gate    GateChecker
}

func NewHandler(manager *Manager, gate GateChecker) *Handler {
	return &Handler{manager: manager, gate: gate}
}

// List returns the catalog, optionally filtered by category.
func (h *Handler) List(c echo.Context) error {
	gs := ByCategory(c.QueryParam("category"))
	if gs == nil {
		gs = []Game{}
	}
	return c.JSON(http.StatusOK, gs)
}

type sessionResponse struct {
	SessionID string  `json:"session_id"`
	GameID    string  `json:"game_id"`
	GameTitle string  `json:"game_title"`
	Reward    int64   `json:"reward"`
	State     string  `json:"state"`
	Progress  float64 `json:"progress"`
}

func toResponse(s *Session) sessionResponse {
	return sessionResponse{
		SessionID: s.ID,
		GameID:    s.Game.ID,
		GameTitle: s.Game.Title,
		Reward:    s.Game.Reward,
		State:     s.State().String(),
		Progress:  s.Progress(),
	}
}

// Play starts a session for the requested game.
func (h *Handler) Play(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	unlocked, err := h.gate.Unlocked(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not verify access"})
	}
	if !unlocked {
		return c.JSON(http.StatusForbidden, echo.Map{"error": ErrGameplayLocked.Error()})
	}

	game, found := Find(c.Param("id"))
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": ErrUnknownGame.Error()})
	}

	s, err := h.manager.Start(uid, game)
	if err != nil {
		if errors.Is(err, ErrSessionActive) {
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start session"})
	}
	return c.JSON(http.StatusOK, toResponse(s))
}

// Current reports the active session's state and progress.
func (h *Handler) Current(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	s, found := h.manager.Active(uid)
	if !found {
		return c.JSON(http.StatusNotFound, echo.Map{"error": ErrNoSession.Error()})
	}
	return c.JSON(http.StatusOK, toResponse(s))
}

// Collect claims a completed session's reward and clears the session.
func (h *Handler) Collect(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	game, reward, err := h.manager.Collect(uid)
	if err != nil {
		switch {
		case errors.Is(err, ErrNoSession):
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		case errors.Is(err, ErrSessionNotDone):
			return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not collect reward"})
		}
	}
	return c.JSON(http.StatusOK, echo.Map{
		"game_id": game.ID,
		"reward":  reward,
		"message": "Reward credited",
	})
}

// Close discards the current session. Mid-game this cancels it with no
// reward; after completion it just frees the slot, the reward having been
// credited when the timer fired.
func (h *Handler) Close(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	if err := h.manager.Abort(uid); err != nil {
		if errors.Is(err, ErrNoSession) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not close session"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Session closed"})
}
