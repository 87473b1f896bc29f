package wallet

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalim4k/luminagame/internal/stats"
)

type Handler struct {
	flow *Flow
}

func NewHandler(flow *Flow) *Handler {
	return &Handler{flow: flow}
}

type withdrawRequest struct {
	Amount   int64  `json:"amount"`
	Provider string `json:"provider"`
	Phone    string `json:"phone"`
}

// Withdraw handles immediate user withdrawals.
func (h *Handler) Withdraw(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized or invalid user"})
	}

	var req withdrawRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be greater than zero"})
	}

	result, err := h.flow.Submit(c.Request().Context(), uid, req.Amount, req.Provider, req.Phone)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": verr.Reason})
		case errors.Is(err, stats.ErrInsufficientBalance):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "insufficient balance"})
		default:
			// Remote failure: the request ended failed, nothing was debited
			return c.JSON(http.StatusBadGateway, echo.Map{
				"status": StatusFailed,
				"error":  "withdrawal could not be processed, try again",
			})
		}
	}

	return c.JSON(http.StatusOK, echo.Map{
		"withdrawal_id": result.ID,
		"amount":        result.Amount,
		"provider":      result.Provider,
		"status":        result.Status,
		"message":       "Withdrawal successful and balance updated",
	})
}
