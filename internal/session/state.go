package session

import (
	"context"
	"sync"

	"estate_marketplace_backend/internal/identity"
	"estate_marketplace_backend/internal/profile"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// StateKey is the gin context key holding the request's *State.
const StateKey = "sessionState"

// AccountLoader resolves signed-in accounts.
type AccountLoader interface {
	CurrentAccount(ctx context.Context, accountID uuid.UUID) (*identity.Account, error)
}

// ProfileLoader resolves the profile of an account.
type ProfileLoader interface {
	GetCurrent(ctx context.Context, accountID uuid.UUID) (*profile.UserProfile, error)
}

// State holds the current account and its profile. Setting an account loads its
// profile; clearing the account clears the profile.
type State struct {
	accounts AccountLoader
	profiles ProfileLoader
	logger   *zap.Logger

	mu        sync.RWMutex
	accountID uuid.UUID
	account   *identity.Account
	profile   *profile.UserProfile
	loading   bool
}

func NewState(accounts AccountLoader, profiles ProfileLoader, logger *zap.Logger) *State {
	return &State{accounts: accounts, profiles: profiles, logger: logger.Named("SessionState")}
}

func (s *State) Account() *identity.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.account
}

func (s *State) Profile() *profile.UserProfile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

func (s *State) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// ProfileID returns the loaded profile's id or uuid.Nil.
func (s *State) ProfileID() uuid.UUID {
	if p := s.Profile(); p != nil {
		return p.ID
	}
	return uuid.Nil
}

// SignIn switches the state to accountID and loads account and profile.
func (s *State) SignIn(ctx context.Context, accountID uuid.UUID) error {
	s.mu.Lock()
	if s.accountID != accountID {
		s.account = nil
		s.profile = nil
	}
	s.accountID = accountID
	s.mu.Unlock()
	return s.Refetch(ctx)
}

// SignOut forgets the account and its profile.
func (s *State) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accountID = uuid.Nil
	s.account = nil
	s.profile = nil
	s.loading = false
}

// Refetch reloads the current account and its profile. A missing profile leaves
// Profile nil without failing.
func (s *State) Refetch(ctx context.Context) error {
	s.mu.Lock()
	accountID := s.accountID
	s.loading = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if accountID == uuid.Nil {
		return nil
	}

	account, err := s.accounts.CurrentAccount(ctx, accountID)
	if err != nil {
		s.logger.Warn("Failed to load account", zap.String("accountID", accountID.String()), zap.Error(err))
		return err
	}
	p, err := s.profiles.GetCurrent(ctx, accountID)
	if err != nil {
		s.logger.Warn("Failed to load profile", zap.String("accountID", accountID.String()), zap.Error(err))
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// A concurrent SignIn or SignOut wins over this load.
	if s.accountID != accountID {
		return nil
	}
	s.account = account
	s.profile = p
	return nil
}

// Set stores st on the request context.
func Set(c *gin.Context, st *State) {
	c.Set(StateKey, st)
}

// FromContext returns the request's State, or nil when the request is anonymous.
func FromContext(c *gin.Context) *State {
	val, exists := c.Get(StateKey)
	if !exists {
		return nil
	}
	st, _ := val.(*State)
	return st
}
