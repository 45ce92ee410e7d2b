package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the global Redis client. Connect it once at application startup.
var Rdb *redis.Client

// DefaultQueueName is the Redis list (queue) name for friend activity events.
var DefaultQueueName = "tarunet_friend_events"

// Friend event types pushed onto the queue after a successful mutation.
const (
	EventRequestSent     = "request_sent"
	EventRequestAccepted = "request_accepted"
	EventRequestRejected = "request_rejected"
	EventFriendRemoved   = "friend_removed"
)

// FriendEventRecord is the queue payload consumed by the notifier worker.
// Actor is who performed the action; Subject is the other party.
type FriendEventRecord struct {
	EventType string    `json:"event_type"`
	ActorID   uuid.UUID `json:"actor_id"`
	SubjectID uuid.UUID `json:"subject_id"`
	RequestID uuid.UUID `json:"request_id,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// ConnectRedis initializes the global Redis client with environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
func ConnectRedis() error {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	Rdb = redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := Rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return nil
}

// PublishFriendEvent serializes the record and pushes it to the Redis queue.
// Callers treat failures as non-fatal; the HTTP response does not wait on the
// notifier pipeline.
func PublishFriendEvent(ctx context.Context, record FriendEventRecord) error {
	if Rdb == nil {
		return fmt.Errorf("redis client not connected")
	}

	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal FriendEventRecord: %w", err)
	}

	queueName := getEnv("FRIEND_EVENT_QUEUE_NAME", DefaultQueueName)
	if err := Rdb.RPush(ctx, queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", queueName, err)
	}
	return nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
