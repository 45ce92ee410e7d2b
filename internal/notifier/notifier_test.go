package notifier

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/anirudhnegi03/tarunet/internal/cache"
)

func newTestService(batchSize int) (*Service, *[][]cache.FriendEventRecord) {
	s := New(Options{BatchSize: batchSize, FlushDelay: time.Hour})
	flushes := &[][]cache.FriendEventRecord{}
	s.flushFn = func(batch []cache.FriendEventRecord) {
		*flushes = append(*flushes, batch)
	}
	return s, flushes
}

func record(eventType string) cache.FriendEventRecord {
	return cache.FriendEventRecord{
		EventType: eventType,
		ActorID:   uuid.New(),
		SubjectID: uuid.New(),
		Timestamp: time.Now().UnixMilli(),
	}
}

func TestBatchFlushesAtThreshold(t *testing.T) {
	s, flushes := newTestService(3)

	s.appendToBatch(record(cache.EventRequestSent))
	s.appendToBatch(record(cache.EventRequestSent))
	require.Empty(t, *flushes)

	s.appendToBatch(record(cache.EventRequestAccepted))
	require.Len(t, *flushes, 1)
	require.Len(t, (*flushes)[0], 3)
}

func TestDrainFlushesPartialBatch(t *testing.T) {
	s, flushes := newTestService(10)

	s.appendToBatch(record(cache.EventFriendRemoved))
	s.drain()

	require.Len(t, *flushes, 1)
	require.Len(t, (*flushes)[0], 1)
	require.Equal(t, cache.EventFriendRemoved, (*flushes)[0][0].EventType)
}

func TestDrainOnEmptyBatchIsNoop(t *testing.T) {
	s, flushes := newTestService(10)
	s.drain()
	require.Empty(t, *flushes)
}

func TestBatchResetsAfterFlush(t *testing.T) {
	s, flushes := newTestService(2)

	s.appendToBatch(record(cache.EventRequestSent))
	s.appendToBatch(record(cache.EventRequestSent))
	s.appendToBatch(record(cache.EventRequestRejected))
	require.Len(t, *flushes, 1)

	s.drain()
	require.Len(t, *flushes, 2)
	require.Len(t, (*flushes)[1], 1)
}
