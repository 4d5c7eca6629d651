package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/platform/database"
	"estate_marketplace_backend/internal/profile"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockProfileLookup is a mock type for chat.ProfileLookup
type MockProfileLookup struct {
	mock.Mock
}

func (m *MockProfileLookup) GetByUserID(ctx context.Context, userID uuid.UUID) (*profile.UserProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.UserProfile), args.Error(1)
}

type ChatServiceTestSuite struct {
	service  Service
	repo     Repository
	profiles *MockProfileLookup
	broker   *gateway.MemoryBroker
	alice    uuid.UUID
	bob      uuid.UUID
}

func setupChatServiceTestSuite(t *testing.T) *ChatServiceTestSuite {
	db, err := database.NewTestDB(&Chat{}, &Message{})
	require.NoError(t, err)
	broker := gateway.NewMemoryBroker(32, zap.NewNop())
	repo := NewGORMRepository(db, broker, zap.NewNop())
	profiles := new(MockProfileLookup)
	return &ChatServiceTestSuite{
		service:  NewService(repo, profiles, time.Minute, zap.NewNop()),
		repo:     repo,
		profiles: profiles,
		broker:   broker,
		alice:    uuid.New(),
		bob:      uuid.New(),
	}
}

func TestChatService_GetOrCreate_OrderIndependent(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()

	first, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	assert.Empty(t, first.LastMessage)
	assert.False(t, first.LastUpdated.IsZero())

	second, err := ts.service.GetOrCreate(ctx, ts.bob, ts.alice)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = ts.service.GetOrCreate(ctx, ts.alice, ts.alice)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestChatService_Send_UpdatesChat(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	c, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)

	m, err := ts.service.Send(ctx, c.ID, ts.bob, "Is it still available?")
	require.NoError(t, err)
	assert.Equal(t, ts.alice, m.ReceiverID)

	got, err := ts.service.Get(ctx, c.ID, ts.alice)
	require.NoError(t, err)
	assert.Equal(t, "Is it still available?", got.LastMessage)
	assert.False(t, got.LastUpdated.Before(c.LastUpdated))

	_, err = ts.service.Send(ctx, c.ID, uuid.New(), "hi")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	msgs := ts.service.Messages(ctx, c.ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, m.ID, msgs[0].ID)
}

func TestChatService_Messages_Ascending(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	c, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, content := range []string{"third", "first", "second"} {
		offset := map[int]time.Duration{0: 2 * time.Minute, 1: 0, 2: time.Minute}[i]
		require.NoError(t, ts.repo.CreateMessage(ctx, &Message{
			ChatID: c.ID, SenderID: ts.alice, ReceiverID: ts.bob, Content: content, Timestamp: base.Add(offset),
		}))
	}

	msgs := ts.service.Messages(ctx, c.ID)
	require.Len(t, msgs, 3)
	assert.Equal(t, "first", msgs[0].Content)
	assert.Equal(t, "second", msgs[1].Content)
	assert.Equal(t, "third", msgs[2].Content)
}

func TestChatService_ListForUser_EnrichesAndCaches(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	carol := uuid.New()

	older := &Chat{User1: ts.alice, User2: ts.bob, LastUpdated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	newer := &Chat{User1: carol, User2: ts.alice, LastUpdated: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, ts.repo.CreateChat(ctx, older))
	require.NoError(t, ts.repo.CreateChat(ctx, newer))
	require.NoError(t, ts.repo.CreateChat(ctx, &Chat{User1: ts.bob, User2: carol, LastUpdated: time.Now()}))

	bobProfile := &profile.UserProfile{UserID: ts.bob, Name: "Bob"}
	bobProfile.ID = uuid.New()
	ts.profiles.On("GetByUserID", mock.Anything, ts.bob).Return(bobProfile, nil).Once()
	ts.profiles.On("GetByUserID", mock.Anything, carol).Return(nil, nil)

	list := ts.service.ListForUser(ctx, ts.alice)
	require.Len(t, list, 2)
	assert.Equal(t, newer.ID, list[0].ID)
	assert.Nil(t, list[0].Partner)
	assert.Equal(t, older.ID, list[1].ID)
	require.NotNil(t, list[1].Partner)
	assert.Equal(t, "Bob", list[1].Partner.Name)

	again := ts.service.ListForUser(ctx, ts.alice)
	require.Len(t, again, 2)
	require.NotNil(t, again[1].Partner)
	ts.profiles.AssertNumberOfCalls(t, "GetByUserID", 3)
}

func TestChatService_Subscribe_FiltersByChat(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	mine, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	other, err := ts.service.GetOrCreate(ctx, ts.alice, uuid.New())
	require.NoError(t, err)

	var mu sync.Mutex
	var got []gateway.Event
	sub := ts.service.Subscribe(mine.ID, func(ev gateway.Event) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	defer sub.Unsubscribe()

	_, err = ts.service.Send(ctx, other.ID, ts.alice, "elsewhere")
	require.NoError(t, err)
	m, err := ts.service.Send(ctx, mine.ID, ts.alice, "here")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	assert.Equal(t, m.ID, got[0].DocumentID)
	mu.Unlock()
}

func TestChatService_DeleteMessages_RemovesEmptyChat(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	c, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	m1, err := ts.service.Send(ctx, c.ID, ts.alice, "one")
	require.NoError(t, err)
	m2, err := ts.service.Send(ctx, c.ID, ts.bob, "two")
	require.NoError(t, err)

	deleted, err := ts.service.DeleteMessages(ctx, c.ID, ts.alice, []uuid.UUID{m1.ID})
	require.NoError(t, err)
	assert.False(t, deleted)

	_, err = ts.service.DeleteMessages(ctx, c.ID, uuid.New(), []uuid.UUID{m2.ID})
	assert.True(t, errors.Is(err, common.ErrForbidden))

	deleted, err = ts.service.DeleteMessages(ctx, c.ID, ts.alice, []uuid.UUID{m2.ID, uuid.New()})
	require.NoError(t, err)
	assert.True(t, deleted)

	_, err = ts.service.Get(ctx, c.ID, ts.alice)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestChatService_DeleteMessages_RejectsForeignMessage(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	mine, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	other, err := ts.service.GetOrCreate(ctx, ts.alice, uuid.New())
	require.NoError(t, err)
	foreign, err := ts.service.Send(ctx, other.ID, ts.alice, "not yours")
	require.NoError(t, err)

	_, err = ts.service.DeleteMessages(ctx, mine.ID, ts.alice, []uuid.UUID{foreign.ID})
	assert.True(t, errors.Is(err, common.ErrBadRequest))
	assert.Len(t, ts.service.Messages(ctx, other.ID), 1)
}

func TestChatService_DeleteChatAndMessages(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	c, err := ts.service.GetOrCreate(ctx, ts.alice, ts.bob)
	require.NoError(t, err)
	for i := 0; i < 3; i++ {
		_, err := ts.service.Send(ctx, c.ID, ts.alice, "msg")
		require.NoError(t, err)
	}

	require.NoError(t, ts.service.DeleteChatAndMessages(ctx, c.ID, ts.bob))
	assert.Empty(t, ts.service.Messages(ctx, c.ID))
	_, err = ts.service.Get(ctx, c.ID, ts.bob)
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestChatService_SweepEmptyChats(t *testing.T) {
	ts := setupChatServiceTestSuite(t)
	ctx := context.Background()
	old := time.Now().UTC().Add(-48 * time.Hour)

	empty := &Chat{User1: ts.alice, User2: ts.bob, LastUpdated: old}
	busy := &Chat{User1: ts.alice, User2: uuid.New(), LastUpdated: old}
	fresh := &Chat{User1: ts.bob, User2: uuid.New(), LastUpdated: time.Now().UTC()}
	for _, c := range []*Chat{empty, busy, fresh} {
		require.NoError(t, ts.repo.CreateChat(ctx, c))
	}
	require.NoError(t, ts.repo.CreateMessage(ctx, &Message{
		ChatID: busy.ID, SenderID: busy.User1, ReceiverID: busy.User2, Content: "hi", Timestamp: old,
	}))

	removed, err := ts.service.SweepEmptyChats(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = ts.repo.FindChatByID(ctx, empty.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))
	_, err = ts.repo.FindChatByID(ctx, busy.ID)
	assert.NoError(t, err)
	_, err = ts.repo.FindChatByID(ctx, fresh.ID)
	assert.NoError(t, err)
}
