package handlers

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/anirudhnegi03/tarunet/internal/cache"
	"github.com/anirudhnegi03/tarunet/internal/notify"
)

// publishFriendEvent delivers a friend event to the subject's live sockets and
// enqueues it for the notifier worker. Both paths are best-effort; a failure
// never fails the originating request.
func publishFriendEvent(hub *notify.Hub, record cache.FriendEventRecord) {
	record.Timestamp = time.Now().UnixMilli()

	if hub != nil {
		hub.Publish(record.SubjectID, record)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := cache.PublishFriendEvent(ctx, record); err != nil {
		log.Warnf("failed to enqueue friend event: %v", err)
	}
}
