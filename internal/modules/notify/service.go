// README: Notification fan-out: durable row first, then one best-effort push.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zabiza830/Ethio-Safeguard/internal/types"
)

var (
	ErrNotFound         = errors.New("notification not found")
	ErrStoreUnavailable = errors.New("notification store unavailable")
)

type Store interface {
	Insert(ctx context.Context, n *Notification) error
	ListByUser(ctx context.Context, userID types.ID) ([]Notification, error)
	MarkRead(ctx context.Context, id, userID types.ID) (bool, error)
	Delete(ctx context.Context, id, userID types.ID) error
}

// Pusher delivers a payload to any live subscription for a user. Delivery is
// at-most-once with no retry; the durable row is the guaranteed fallback.
type Pusher interface {
	Push(userID types.ID, payload any)
}

type Service struct {
	store  Store
	pusher Pusher
}

func NewService(store Store, pusher Pusher) *Service {
	return &Service{store: store, pusher: pusher}
}

// Notify persists the notification and then attempts a single push. A failed
// or absent push never surfaces to the caller; the row already exists.
func (s *Service) Notify(ctx context.Context, userID types.ID, kind Kind, title, message string, requestID types.ID) error {
	n := &Notification{
		ID:        types.ID(uuid.NewString()),
		UserID:    userID,
		Title:     title,
		Message:   message,
		Kind:      kind,
		RequestID: requestID,
		CreatedAt: time.Now(),
	}
	if err := s.store.Insert(ctx, n); err != nil {
		return err
	}
	if s.pusher != nil {
		s.pusher.Push(userID, map[string]any{"event": "notification", "notification": n})
	}
	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"kind":    kind,
		"title":   title,
	}).Debug("notification recorded")
	return nil
}

func (s *Service) ListFor(ctx context.Context, userID types.ID) ([]Notification, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID types.ID) error {
	ok, err := s.store.MarkRead(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

// Dismiss deletes the notification. Dismissing an already-gone id succeeds.
func (s *Service) Dismiss(ctx context.Context, id, userID types.ID) error {
	return s.store.Delete(ctx, id, userID)
}
