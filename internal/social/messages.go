package social

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/kalim4k/luminagame/internal/db"
)

const maxMessageLen = 500

// ChatAlerter pushes a notification about a new message to other players.
type ChatAlerter interface {
	EnqueueChatAlert(senderUserID, senderPseudo, message string) error
}

var alerter ChatAlerter

// SetChatAlerter wires the background push sender. Optional; without it
// messages still land in the feed, just without phone notifications.
func SetChatAlerter(a ChatAlerter) {
	alerter = a
}

// SendMessage - post a message to the shared community feed
func SendMessage(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var body struct {
		Message string `json:"message"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid payload"})
	}
	body.Message = strings.TrimSpace(body.Message)
	if body.Message == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message is empty"})
	}
	if len([]rune(body.Message)) > maxMessageLen {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "message too long"})
	}

	var pseudo string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT name FROM users WHERE id = $1`, userID,
	).Scan(&pseudo)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load profile"})
	}

	msgID := uuid.New().String()
	var createdAt time.Time
	err = db.Conn.QueryRow(context.Background(),
		`INSERT INTO social_messages (id, user_id, pseudo, message)
         VALUES ($1, $2, $3, $4) RETURNING created_at`,
		msgID, userID, pseudo, body.Message,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	msg := echo.Map{
		"id":         msgID,
		"user_id":    userID,
		"pseudo":     pseudo,
		"message":    body.Message,
		"created_at": createdAt.UTC().Format(time.RFC3339),
	}

	// Realtime fan-out to connected clients
	BroadcastNewMessage(msg)

	// Push notification for everyone else (best-effort)
	if alerter != nil {
		_ = alerter.EnqueueChatAlert(userID, pseudo, body.Message)
	}

	return c.JSON(http.StatusCreated, msg)
}

// ListMessages - get the feed, oldest first
func ListMessages(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	// Optional since filter for incremental fetches
	query := `SELECT id::text, user_id::text, pseudo, message, created_at
              FROM social_messages ORDER BY created_at ASC LIMIT 200`
	args := []interface{}{}
	if sinceStr := c.QueryParam("since"); sinceStr != "" {
		sinceTime, err := time.Parse(time.RFC3339, sinceStr)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid since timestamp, use RFC3339"})
		}
		query = `SELECT id::text, user_id::text, pseudo, message, created_at
                 FROM social_messages WHERE created_at > $1 ORDER BY created_at ASC LIMIT 200`
		args = append(args, sinceTime)
	}

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to list messages"})
	}
	defer rows.Close()

	items := []echo.Map{}
	for rows.Next() {
		var id, uid, pseudo, message string
		var createdAt time.Time
		if err := rows.Scan(&id, &uid, &pseudo, &message, &createdAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse message"})
		}
		items = append(items, echo.Map{
			"id":         id,
			"user_id":    uid,
			"pseudo":     pseudo,
			"message":    message,
			"created_at": createdAt.UTC().Format(time.RFC3339),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": items})
}
