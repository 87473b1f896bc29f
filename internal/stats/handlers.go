package stats

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Handler exposes the stats engine over HTTP.
type Handler struct {
	engine *Engine
}

func NewHandler(engine *Engine) *Handler {
	return &Handler{engine: engine}
}

// Get returns the in-memory snapshot, refreshing from the database first
// when the store has never been filled.
func (h *Handler) Get(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	store := h.engine.ForUser(uid)
	snap := store.Snapshot()
	if snap == (Snapshot{}) && store.PendingCount() == 0 {
		refreshed, err := h.engine.Refresh(c.Request().Context(), uid)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch stats"})
		}
		snap = refreshed
	}

	return c.JSON(http.StatusOK, snap)
}

// Refresh forces an immediate authoritative pull. The client calls this on
// window-focus regain; the 15s loop covers the rest.
func (h *Handler) Refresh(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	snap, err := h.engine.Refresh(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not refresh stats"})
	}
	return c.JSON(http.StatusOK, snap)
}

// Recalculate rebuilds today's earnings and the games-played counter from
// the game_earnings log, then reconciles the store with the result.
func (h *Handler) Recalculate(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	ctx := c.Request().Context()
	if _, err := h.engine.Repo().RecalculateStats(ctx, uid); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not recalculate stats"})
	}

	snap, err := h.engine.Refresh(ctx, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not refresh stats"})
	}
	return c.JSON(http.StatusOK, snap)
}
