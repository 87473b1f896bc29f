package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/hibiken/asynq"

	"github.com/kalim4k/luminagame/internal/push"
	"github.com/kalim4k/luminagame/internal/stats"
)

// RewardJournal removes a stashed reward once its database write landed.
type RewardJournal interface {
	Drop(ctx context.Context, sessionID string) error
}

// Deps are the collaborators the task handlers need.
type Deps struct {
	Repo    stats.Repo
	Engine  *stats.Engine
	Journal RewardJournal
	Push    *push.Client
	Subs    push.SubscriptionStore
}

// Notifier owns the Asynq client and server for background tasks.
type Notifier struct {
	client *asynq.Client
	server *asynq.Server
	deps   Deps
}

// Init starts the Asynq server and initializes a shared client.
func Init(deps Deps) *Notifier {
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		// Prefer docker hostname, fallback to localhost
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			redisAddr = host + ":" + port
		} else {
			redisAddr = "redis:6379"
			if os.Getenv("RUN_LOCAL") == "true" {
				redisAddr = "127.0.0.1:6379"
			}
		}
	}

	opts := asynq.RedisClientOpt{Addr: redisAddr}
	n := &Notifier{
		client: asynq.NewClient(opts),
		deps:   deps,
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskRewardFlush, n.handleRewardFlush)
	mux.HandleFunc(TaskChatAlert, n.handleChatAlert)
	mux.HandleFunc(TaskBroadcast, n.handleBroadcast)

	n.server = asynq.NewServer(opts, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"rewards": 10,
			"push":    5,
		},
	})
	go func() {
		if err := n.server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", redisAddr)
	return n
}

// Close releases the client and stops the server.
func (n *Notifier) Close() {
	if n.client != nil {
		_ = n.client.Close()
	}
	if n.server != nil {
		n.server.Shutdown()
	}
}

// EnqueueRewardFlush schedules the durable write of a collected reward.
func (n *Notifier) EnqueueRewardFlush(p stats.EarningsPush, deltaSeq uint64) error {
	payload := RewardFlushPayload{Push: p, DeltaSeq: deltaSeq, QueuedAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskRewardFlush, b)
	_, err := n.client.Enqueue(task, asynq.Queue("rewards"), asynq.MaxRetry(10))
	return err
}

// EnqueueChatAlert notifies other push subscribers about a new chat message.
func (n *Notifier) EnqueueChatAlert(senderUserID, senderPseudo, message string) error {
	payload := ChatAlertPayload{SenderUserID: senderUserID, SenderPseudo: senderPseudo, Message: message, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskChatAlert, b)
	_, err := n.client.Enqueue(task, asynq.Queue("push"))
	return err
}

// EnqueueBroadcast schedules an admin announcement to every subscriber.
func (n *Notifier) EnqueueBroadcast(title, body string) error {
	payload := BroadcastPayload{Title: title, Body: body, QueuedAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskBroadcast, b)
	_, err := n.client.Enqueue(task, asynq.Queue("push"))
	return err
}

// Handlers below parse payloads and do the actual work.

func (n *Notifier) handleRewardFlush(ctx context.Context, t *asynq.Task) error {
	var p RewardFlushPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("reward flush payload: %v: %w", err, asynq.SkipRetry)
	}
	recorded, err := n.deps.Repo.PushEarnings(ctx, p.Push)
	if err != nil {
		log.Printf("[notify][ERROR] RewardFlush write failed: session=%s: %v", p.Push.SessionID, err)
		return err
	}
	if err := n.deps.Journal.Drop(ctx, p.Push.SessionID); err != nil {
		// The earnings row exists, so a stale journal entry only costs a
		// no-op replay on the next recovery pass.
		log.Printf("[notify] RewardFlush journal drop failed: session=%s: %v", p.Push.SessionID, err)
	}
	if p.DeltaSeq != 0 {
		n.deps.Engine.ForUser(p.Push.UserID).Acknowledge(p.DeltaSeq)
	}
	if recorded {
		log.Printf("[notify] RewardFlush recorded -> session=%s user=%s amount=%d", p.Push.SessionID, p.Push.UserID, p.Push.Amount)
	} else {
		log.Printf("[notify] RewardFlush already recorded -> session=%s", p.Push.SessionID)
	}
	return nil
}

func (n *Notifier) handleChatAlert(ctx context.Context, t *asynq.Task) error {
	var p ChatAlertPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("chat alert payload: %v: %w", err, asynq.SkipRetry)
	}
	if !n.deps.Push.Ready() {
		return nil
	}
	playerIDs, err := n.deps.Subs.PlayerIDsExcept(ctx, p.SenderUserID)
	if err != nil {
		log.Printf("[notify][ERROR] ChatAlert subscriber lookup failed: %v", err)
		return err
	}
	heading := "💬 " + p.SenderPseudo
	sent, err := n.deps.Push.NotifyPlayers(ctx, playerIDs, heading, p.Message)
	if err != nil {
		log.Printf("[notify][ERROR] ChatAlert send failed: %v", err)
		return err
	}
	log.Printf("[notify] ChatAlert sent -> from=%s recipients=%d", p.SenderPseudo, sent)
	return nil
}

func (n *Notifier) handleBroadcast(ctx context.Context, t *asynq.Task) error {
	var p BroadcastPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("broadcast payload: %v: %w", err, asynq.SkipRetry)
	}
	if !n.deps.Push.Ready() {
		log.Printf("[notify] Broadcast skipped, push not configured")
		return nil
	}
	sent, err := n.deps.Push.BroadcastAll(ctx, p.Title, p.Body)
	if err != nil {
		log.Printf("[notify][ERROR] Broadcast send failed: %v", err)
		return err
	}
	log.Printf("[notify] Broadcast sent -> title=%q recipients=%d", p.Title, sent)
	return nil
}
