package notify

import (
	"time"

	"github.com/kalim4k/luminagame/internal/stats"
)

// Task type constants
const (
	TaskRewardFlush = "reward:flush"
	TaskChatAlert   = "push:chat_alert"
	TaskBroadcast   = "push:broadcast"
)

// RewardFlushPayload carries a completed session's reward to the database.
// DeltaSeq identifies the optimistic in-memory delta to acknowledge once
// the write lands; zero means the delta is unknown (recovery after restart).
type RewardFlushPayload struct {
	Push     stats.EarningsPush `json:"push"`
	DeltaSeq uint64             `json:"delta_seq"`
	QueuedAt time.Time          `json:"queued_at"`
}

// ChatAlertPayload notifies other subscribers about a new chat message.
type ChatAlertPayload struct {
	SenderUserID string    `json:"sender_user_id"`
	SenderPseudo string    `json:"sender_pseudo"`
	Message      string    `json:"message"`
	SentAt       time.Time `json:"sent_at"`
}

// BroadcastPayload is an admin announcement for every subscriber.
type BroadcastPayload struct {
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	QueuedAt time.Time `json:"queued_at"`
}
