package wallet

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kalim4k/luminagame/internal/db"
)

type adminCreditRequest struct {
	UserID string `json:"user_id"`
	Amount int64  `json:"amount"`
}

// AdminCredit adds funds to a user's available balance (promo credit,
// manual settlement). The user's client sees it on its next stats pull.
func AdminCredit(c echo.Context) error {
	var req adminCreditRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if req.UserID == "" || req.Amount <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and a positive amount are required"})
	}

	ctx := context.Background()
	tx, err := db.Conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not start transaction"})
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE user_stats
		SET available_balance = available_balance + $1, updated_at = NOW()
		WHERE user_id = $2`,
		req.Amount, req.UserID,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not credit balance"})
	}
	if tag.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user stats not found"})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO transactions (id, user_id, type, amount, status)
		VALUES ($1, $2, 'admin_credit', $3, 'completed')`,
		uuid.New().String(), req.UserID, req.Amount,
	)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not record transaction"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not finalize credit"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user_id": req.UserID,
		"amount":  req.Amount,
		"message": "Balance credited",
	})
}
