package push

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Broadcaster queues an all-subscribers notification.
type Broadcaster interface {
	EnqueueBroadcast(title, body string) error
}

type Handler struct {
	subs        SubscriptionStore
	broadcaster Broadcaster
}

func NewHandler(subs SubscriptionStore, broadcaster Broadcaster) *Handler {
	return &Handler{subs: subs, broadcaster: broadcaster}
}

type subscribeRequest struct {
	PlayerID string `json:"player_id"`
}

// Subscribe records a device's push subscription after the client opted in.
func (h *Handler) Subscribe(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req subscribeRequest
	if err := c.Bind(&req); err != nil || req.PlayerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "player_id is required"})
	}

	if err := h.subs.Save(c.Request().Context(), uid, req.PlayerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not save subscription"})
	}
	return c.JSON(http.StatusOK, echo.Map{"subscribed": true})
}

// Unsubscribe removes a device's push subscription after opt-out.
func (h *Handler) Unsubscribe(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req subscribeRequest
	if err := c.Bind(&req); err != nil || req.PlayerID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "player_id is required"})
	}

	if err := h.subs.Remove(c.Request().Context(), uid, req.PlayerID); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not remove subscription"})
	}
	return c.JSON(http.StatusOK, echo.Map{"subscribed": false})
}

type broadcastRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Broadcast queues a notification to every subscriber. Admin only; the
// role check happens in middleware against the verified token.
func (h *Handler) Broadcast(c echo.Context) error {
	var req broadcastRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Title == "" || req.Body == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and body are required"})
	}

	if err := h.broadcaster.EnqueueBroadcast(req.Title, req.Body); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not queue broadcast"})
	}
	return c.JSON(http.StatusAccepted, echo.Map{"queued": true})
}
