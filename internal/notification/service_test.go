package notification

import (
	"context"
	"errors"
	"testing"

	"estate_marketplace_backend/internal/booking"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/platform/database"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPropertyLoader is a mock type for notification.PropertyLoader
type MockPropertyLoader struct {
	mock.Mock
}

func (m *MockPropertyLoader) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]property.Property, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]property.Property), args.Error(1)
}

func (m *MockPropertyLoader) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

type NotificationServiceTestSuite struct {
	service    Service
	bookings   booking.Service
	properties *MockPropertyLoader
	broker     *gateway.MemoryBroker
	owner      uuid.UUID
	guest      uuid.UUID
}

func setupNotificationServiceTestSuite(t *testing.T) *NotificationServiceTestSuite {
	db, err := database.NewTestDB(&booking.BookingRequest{})
	require.NoError(t, err)
	broker := gateway.NewMemoryBroker(16, zap.NewNop())
	repo := booking.NewGORMRepository(db, broker, zap.NewNop())
	props := new(MockPropertyLoader)
	owner := uuid.New()
	props.On("FindByID", mock.Anything, mock.Anything).Return(&property.Property{UserProfileID: owner}, nil)
	bookings := booking.NewService(repo, props, zap.NewNop())
	return &NotificationServiceTestSuite{
		service:    NewService(bookings, props, zap.NewNop()),
		bookings:   bookings,
		properties: props,
		broker:     broker,
		owner:      owner,
		guest:      uuid.New(),
	}
}

func TestNotificationService_List_RendersPerViewer(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	villa := property.Property{Name: "Sea Villa", Images: pq.StringArray{"https://img/1.jpg", "https://img/2.jpg"}}
	villa.ID = uuid.New()
	b, err := ts.bookings.Create(ctx, villa.ID, ts.guest, ts.owner)
	require.NoError(t, err)
	ts.properties.On("FindByIDs", mock.Anything, []uuid.UUID{villa.ID}).Return([]property.Property{villa}, nil)

	ownerFeed, err := ts.service.List(ctx, ts.owner)
	require.NoError(t, err)
	require.Len(t, ownerFeed, 1)
	assert.Equal(t, b.ID, ownerFeed[0].ID)
	assert.Equal(t, TypeBookingRequested, ownerFeed[0].Type)
	assert.Equal(t, "New booking request for Sea Villa", ownerFeed[0].Message)
	assert.Equal(t, "https://img/1.jpg", ownerFeed[0].PropertyImage)
	assert.True(t, ownerFeed[0].Unread)

	guestFeed, err := ts.service.List(ctx, ts.guest)
	require.NoError(t, err)
	assert.Empty(t, guestFeed)

	_, err = ts.bookings.Accept(ctx, b.ID, ts.owner)
	require.NoError(t, err)
	guestFeed, err = ts.service.List(ctx, ts.guest)
	require.NoError(t, err)
	require.Len(t, guestFeed, 1)
	assert.Equal(t, "Your booking request for Sea Villa was accepted", guestFeed[0].Message)
	assert.True(t, guestFeed[0].Unread)
}

func TestNotificationService_List_UnknownProperty(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	b, err := ts.bookings.Create(ctx, uuid.New(), ts.guest, ts.owner)
	require.NoError(t, err)
	_, err = ts.bookings.Reject(ctx, b.ID, ts.owner)
	require.NoError(t, err)
	ts.properties.On("FindByIDs", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	feed, err := ts.service.List(ctx, ts.guest)
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, TypeBookingRejected, feed[0].Type)
	assert.Equal(t, "Your booking request for Unknown Property was rejected", feed[0].Message)
	assert.Empty(t, feed[0].PropertyImage)
}

func TestNotificationService_MarkAllAsRead(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := ts.bookings.Create(ctx, uuid.New(), ts.guest, ts.owner)
		require.NoError(t, err)
	}
	n, err := ts.service.UnreadCount(ctx, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	updated, err := ts.service.MarkAllAsRead(ctx, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, 3, updated)

	n, err = ts.service.UnreadCount(ctx, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	updated, err = ts.service.MarkAllAsRead(ctx, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, 0, updated)
}

func TestNotificationService_MarkAsRead(t *testing.T) {
	ts := setupNotificationServiceTestSuite(t)
	ctx := context.Background()

	b, err := ts.bookings.Create(ctx, uuid.New(), ts.guest, ts.owner)
	require.NoError(t, err)

	require.NoError(t, ts.service.MarkAsRead(ctx, b.ID, ts.owner))
	n, err := ts.service.UnreadCount(ctx, ts.owner)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	assert.Error(t, ts.service.MarkAsRead(ctx, uuid.New(), ts.owner))
}
