package stats

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
)

// RolloverDay closes the earnings day for every user: today's earnings
// settle into the available balance, move to the yesterday column, and the
// today counter resets. Run once per day boundary by an operator or cron.
func (r *PostgresRepo) RolloverDay(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
        UPDATE user_stats
        SET available_balance = available_balance + earnings_today,
            earnings_yesterday = earnings_today,
            earnings_today = 0,
            updated_at = NOW()
        WHERE earnings_today > 0 OR earnings_yesterday > 0`)
	if err != nil {
		return 0, fmt.Errorf("rollover day: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Rollover is the admin endpoint wrapping RolloverDay.
func (h *Handler) Rollover(c echo.Context) error {
	repo, ok := h.engine.Repo().(*PostgresRepo)
	if !ok {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rollover unavailable"})
	}

	rows, err := repo.RolloverDay(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "rollover failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"rolled_over": rows})
}
