package favorite

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Store is the subset of Service a Toggler writes through.
type Store interface {
	IsFavorite(ctx context.Context, propertyID, userID uuid.UUID) (bool, uuid.UUID, error)
	Add(ctx context.Context, propertyID, userID uuid.UUID) (*Favorite, error)
	Remove(ctx context.Context, favoriteID, userID uuid.UUID) error
}

// Toggler holds the favorite state of one property for one account. Toggle
// flips the local state before the write and restores it if the write fails.
type Toggler struct {
	store      Store
	propertyID uuid.UUID
	userID     uuid.UUID
	logger     *zap.Logger

	writeMu    sync.Mutex
	mu         sync.Mutex
	favorited  bool
	favoriteID uuid.UUID
}

// NewToggler loads the current state from store.
func NewToggler(ctx context.Context, store Store, propertyID, userID uuid.UUID, logger *zap.Logger) (*Toggler, error) {
	favorited, favoriteID, err := store.IsFavorite(ctx, propertyID, userID)
	if err != nil {
		return nil, err
	}
	return &Toggler{
		store:      store,
		propertyID: propertyID,
		userID:     userID,
		logger:     logger,
		favorited:  favorited,
		favoriteID: favoriteID,
	}, nil
}

func (t *Toggler) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	st := Status{PropertyID: t.propertyID, Favorited: t.favorited}
	if t.favoriteID != uuid.Nil {
		id := t.favoriteID
		st.FavoriteID = &id
	}
	return st
}

// Toggle removes the known favorite record, or creates one when there is none.
// Status reports the flipped value while the write is in flight. On failure the
// previous state is restored and the error is logged and returned.
func (t *Toggler) Toggle(ctx context.Context) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()

	t.mu.Lock()
	prevFavorited, prevID := t.favorited, t.favoriteID
	t.favorited = !t.favorited
	t.mu.Unlock()

	var (
		newID uuid.UUID
		err   error
	)
	if prevFavorited && prevID != uuid.Nil {
		err = t.store.Remove(ctx, prevID, t.userID)
	} else {
		var f *Favorite
		if f, err = t.store.Add(ctx, t.propertyID, t.userID); err == nil {
			newID = f.ID
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if err != nil {
		t.favorited, t.favoriteID = prevFavorited, prevID
		t.logger.Error("Favorite toggle failed, state restored",
			zap.String("propertyID", t.propertyID.String()),
			zap.Bool("favorited", prevFavorited),
			zap.Error(err),
		)
		return err
	}
	t.favorited = newID != uuid.Nil
	t.favoriteID = newID
	return nil
}
