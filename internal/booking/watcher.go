package booking

import (
	"context"
	"sync"

	"estate_marketplace_backend/internal/gateway"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UnreadWatcher recounts the unread requests of one profile after every change
// to the bookings collection and reports the count through onChange.
type UnreadWatcher struct {
	sub       gateway.Subscription
	closeOnce sync.Once
}

// WatchUnread reports the current count, then a fresh count after every booking
// event until the watcher is closed. The recount is a full count, not a delta.
func (s *service) WatchUnread(ctx context.Context, profileID uuid.UUID, onChange func(int64)) (*UnreadWatcher, error) {
	recount := func() (int64, error) { return s.UnreadCount(ctx, profileID) }

	w := &UnreadWatcher{}
	w.sub = s.repo.Subscribe(func(ev gateway.Event) {
		if ctx.Err() != nil {
			return
		}
		n, err := recount()
		if err != nil {
			s.logger.Warn("Unread recount failed",
				zap.String("profileID", profileID.String()),
				zap.String("eventType", string(ev.Type)),
				zap.Error(err),
			)
			return
		}
		onChange(n)
	})

	n, err := recount()
	if err != nil {
		w.Close()
		return nil, err
	}
	onChange(n)
	return w, nil
}

// Close stops the watcher. It is safe to call more than once.
func (w *UnreadWatcher) Close() {
	w.closeOnce.Do(w.sub.Unsubscribe)
}
