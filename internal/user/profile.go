package user

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/kalim4k/luminagame/internal/db"
)

type Profile struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	AvatarURL string `json:"avatar_url"`
}

// GetProfile returns the authenticated user's profile. The phone number
// pre-fills the withdrawal form.
func GetProfile(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var p Profile
	p.ID = uid
	err := db.Conn.QueryRow(context.Background(), `
        SELECT name, email, phone, avatar_url FROM users WHERE id = $1
    `, uid).Scan(&p.Name, &p.Email, &p.Phone, &p.AvatarURL)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	return c.JSON(http.StatusOK, p)
}
