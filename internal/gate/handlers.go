package gate

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Status reports whether gameplay is unlocked for the caller.
func (h *Handler) Status(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	unlocked, err := h.service.Unlocked(c.Request().Context(), uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not check gate"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unlocked": unlocked})
}

type unlockRequest struct {
	AccessCode string `json:"access_code"`
}

// Unlock verifies the operator access code and enables gameplay.
func (h *Handler) Unlock(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req unlockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if err := h.service.Unlock(c.Request().Context(), uid, req.AccessCode); err != nil {
		if errors.Is(err, ErrBadAccessCode) {
			return c.JSON(http.StatusForbidden, echo.Map{"error": "invalid access code"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not unlock gameplay"})
	}
	return c.JSON(http.StatusOK, echo.Map{"unlocked": true})
}
