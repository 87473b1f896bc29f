package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalim4k/luminagame/internal/db"
)

// Me returns the authenticated user's identity and role.
func Me(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		name  string
		email string
		role  string
	)
	err := db.Conn.QueryRow(context.Background(), `
        SELECT name, email, role FROM users WHERE id = $1
    `, uid).Scan(&name, &email, &role)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":    uid,
		"name":  name,
		"email": email,
		"role":  role,
	})
}
