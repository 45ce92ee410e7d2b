// Package notifier drains the friend-event queue and persists events to the
// friend_events table for the notifications inbox and audit history.
package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/anirudhnegi03/tarunet/internal/cache"
	"github.com/anirudhnegi03/tarunet/internal/database"
)

// Service reads FriendEventRecords from the Redis queue, accumulates them in
// a batch, and flushes the batch to Postgres on size or time thresholds.
type Service struct {
	redisClient *redis.Client
	queueName   string
	batchSize   int
	flushDelay  time.Duration

	batchMu sync.Mutex
	batch   []cache.FriendEventRecord

	// flushFn is swapped out in tests; defaults to flushBatchToDB.
	flushFn func([]cache.FriendEventRecord)

	ctx      context.Context
	cancelFn context.CancelFunc
}

// Options control Service construction; zero values fall back to defaults.
type Options struct {
	RedisAddr  string
	QueueName  string
	BatchSize  int
	FlushDelay time.Duration
}

func New(opts Options) *Service {
	if opts.RedisAddr == "" {
		opts.RedisAddr = "localhost:6379"
	}
	if opts.QueueName == "" {
		opts.QueueName = cache.DefaultQueueName
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}
	if opts.FlushDelay <= 0 {
		opts.FlushDelay = 500 * time.Millisecond
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		redisClient: redis.NewClient(&redis.Options{Addr: opts.RedisAddr}),
		queueName:   opts.QueueName,
		batchSize:   opts.BatchSize,
		flushDelay:  opts.FlushDelay,
		batch:       make([]cache.FriendEventRecord, 0, opts.BatchSize),
		ctx:         ctx,
		cancelFn:    cancel,
	}
	s.flushFn = s.flushBatchToDB
	return s
}

// Run blocks until Stop is called, consuming the queue in the background.
func (s *Service) Run() {
	go s.readQueueLoop()

	log.Info("tarunet-notifier started")
	<-s.ctx.Done()
	s.drain()
	log.Info("tarunet-notifier shutting down")
}

// Stop cancels the consume loop and flushes whatever is buffered.
func (s *Service) Stop() {
	s.cancelFn()
}

func (s *Service) readQueueLoop() {
	ticker := time.NewTicker(s.flushDelay)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return

		case <-ticker.C:
			s.drain()

		default:
			// BLPop with a short timeout so cancellation is noticed.
			res, err := s.redisClient.BLPop(s.ctx, 3*time.Second, s.queueName).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if s.ctx.Err() != nil {
					return
				}
				log.Errorf("BLPop: %v", err)
				continue
			}
			if len(res) < 2 {
				continue
			}

			var record cache.FriendEventRecord
			if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
				log.Warnf("invalid friend event record: %v", err)
				continue
			}
			s.appendToBatch(record)
		}
	}
}

// appendToBatch adds a record and flushes once the threshold is reached.
func (s *Service) appendToBatch(record cache.FriendEventRecord) {
	s.batchMu.Lock()
	s.batch = append(s.batch, record)
	var full []cache.FriendEventRecord
	if len(s.batch) >= s.batchSize {
		full = s.takeBatchLocked()
	}
	s.batchMu.Unlock()

	if full != nil {
		s.flushFn(full)
	}
}

// drain flushes whatever is currently buffered regardless of size.
func (s *Service) drain() {
	s.batchMu.Lock()
	batch := s.takeBatchLocked()
	s.batchMu.Unlock()

	if batch != nil {
		s.flushFn(batch)
	}
}

func (s *Service) takeBatchLocked() []cache.FriendEventRecord {
	if len(s.batch) == 0 {
		return nil
	}
	out := make([]cache.FriendEventRecord, len(s.batch))
	copy(out, s.batch)
	s.batch = s.batch[:0]
	return out
}

// flushBatchToDB bulk-inserts the batch via COPY.
func (s *Service) flushBatchToDB(batch []cache.FriendEventRecord) {
	rows := make([][]interface{}, 0, len(batch))
	for _, rec := range batch {
		rows = append(rows, []interface{}{
			rec.EventType,
			rec.ActorID,
			nullableUUID(rec.SubjectID),
			nullableUUID(rec.RequestID),
			time.UnixMilli(rec.Timestamp),
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := database.DB.CopyFrom(ctx,
		pgx.Identifier{"friend_events"},
		[]string{"event_type", "actor_id", "subject_id", "request_id", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		log.Errorf("flushBatchToDB: %v", err)
		return
	}
	log.Infof("Flushed %d friend events to DB", len(batch))
}

func nullableUUID(id uuid.UUID) interface{} {
	if id == uuid.Nil {
		return nil
	}
	return id
}
