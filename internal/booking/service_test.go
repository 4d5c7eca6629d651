package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/gateway"
	"estate_marketplace_backend/internal/platform/database"
	"estate_marketplace_backend/internal/property"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPropertyLoader is a mock type for booking.PropertyLoader
type MockPropertyLoader struct {
	mock.Mock
}

func (m *MockPropertyLoader) FindByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

type BookingServiceTestSuite struct {
	service    Service
	repo       Repository
	properties *MockPropertyLoader
	sender     uuid.UUID
	receiver   uuid.UUID
	property   uuid.UUID
}

func setupBookingServiceTestSuite(t *testing.T) *BookingServiceTestSuite {
	db, err := database.NewTestDB(&BookingRequest{})
	require.NoError(t, err)
	repo := NewGORMRepository(db, gateway.NewMemoryBroker(32, zap.NewNop()), zap.NewNop())
	props := new(MockPropertyLoader)
	ts := &BookingServiceTestSuite{
		service:    NewService(repo, props, zap.NewNop()),
		repo:       repo,
		properties: props,
		sender:     uuid.New(),
		receiver:   uuid.New(),
	}
	ts.property = ts.listing(ts.receiver)
	return ts
}

// listing registers a new property owned by owner and returns its id.
func (ts *BookingServiceTestSuite) listing(owner uuid.UUID) uuid.UUID {
	p := &property.Property{UserProfileID: owner}
	p.ID = uuid.New()
	ts.properties.On("FindByID", mock.Anything, p.ID).Return(p, nil)
	return p.ID
}

func (ts *BookingServiceTestSuite) create(t *testing.T) *BookingRequest {
	t.Helper()
	b, err := ts.service.Create(context.Background(), ts.property, ts.sender, ts.receiver)
	require.NoError(t, err)
	return b
}

func TestBookingService_Create(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	b := ts.create(t)

	assert.Equal(t, StatusPending, b.Status)
	assert.True(t, b.SeenBySender)
	assert.False(t, b.SeenByReceiver)

	stored, err := ts.repo.FindByID(context.Background(), b.ID)
	require.NoError(t, err)
	assert.True(t, stored.SeenBySender)
	assert.False(t, stored.SeenByReceiver)
}

func TestBookingService_Create_SelfBooking(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	own := ts.listing(ts.sender)
	_, err := ts.service.Create(context.Background(), own, ts.sender, ts.sender)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
	_, err = ts.service.Create(context.Background(), own, ts.sender, uuid.Nil)
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestBookingService_Create_ReceiverMustOwnProperty(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	stranger := uuid.New()

	_, err := ts.service.Create(ctx, ts.property, ts.sender, stranger)
	assert.True(t, errors.Is(err, common.ErrBadRequest))

	n, err := ts.service.UnreadCount(ctx, stranger)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	b, err := ts.service.Create(ctx, ts.property, ts.sender, uuid.Nil)
	require.NoError(t, err)
	assert.Equal(t, ts.receiver, b.ReceiverProfileID)
}

func TestBookingService_Create_UnknownProperty(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	missing := uuid.New()
	ts.properties.On("FindByID", mock.Anything, missing).Return(nil, gateway.ErrDocumentNotFound)

	_, err := ts.service.Create(context.Background(), missing, ts.sender, ts.receiver)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	broken := uuid.New()
	ts.properties.On("FindByID", mock.Anything, broken).Return(nil, errors.New("db down"))
	_, err = ts.service.Create(context.Background(), broken, ts.sender, ts.receiver)
	assert.True(t, errors.Is(err, common.ErrInternalServer))
}

func TestBookingService_Accept_FlipsSeenFlags(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	b := ts.create(t)

	updated, err := ts.service.Accept(context.Background(), b.ID, ts.receiver)
	require.NoError(t, err)
	assert.Equal(t, StatusAccepted, updated.Status)
	assert.True(t, updated.SeenByReceiver)
	assert.False(t, updated.SeenBySender)
}

func TestBookingService_Respond_OnlyReceiver(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	b := ts.create(t)

	_, err := ts.service.Respond(context.Background(), b.ID, ts.sender, "accepted")
	assert.True(t, errors.Is(err, common.ErrForbidden))

	_, err = ts.service.Respond(context.Background(), uuid.New(), ts.receiver, "accepted")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestBookingService_Respond_DeclinedIsRejected(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	b := ts.create(t)

	updated, err := ts.service.Respond(context.Background(), b.ID, ts.receiver, "declined")
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, updated.Status)

	_, err = ts.service.Respond(context.Background(), b.ID, ts.receiver, "maybe")
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}

func TestBookingService_TerminalStates(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	b := ts.create(t)

	_, err := ts.service.Reject(ctx, b.ID, ts.receiver)
	require.NoError(t, err)
	_, err = ts.service.MarkSeen(ctx, b.ID, ts.sender)
	require.NoError(t, err)

	again, err := ts.service.Reject(ctx, b.ID, ts.receiver)
	require.NoError(t, err, "repeating the same answer is an overwrite")
	assert.False(t, again.SeenBySender)

	_, err = ts.service.Accept(ctx, b.ID, ts.receiver)
	assert.True(t, errors.Is(err, common.ErrConflict))
}

func TestBookingService_Delete_SenderOnly(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	b := ts.create(t)
	_, err := ts.service.Accept(ctx, b.ID, ts.receiver)
	require.NoError(t, err)

	assert.True(t, errors.Is(ts.service.Delete(ctx, b.ID, ts.receiver), common.ErrForbidden))
	require.NoError(t, ts.service.Delete(ctx, b.ID, ts.sender))
	assert.True(t, errors.Is(ts.service.Delete(ctx, b.ID, ts.sender), common.ErrNotFound))
}

func TestBookingService_ListForViewer(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	me := ts.receiver
	otherProperty := ts.listing(me)

	pending := ts.create(t)
	accepted := ts.create(t)
	_, err := ts.service.Accept(ctx, accepted.ID, me)
	require.NoError(t, err)
	elsewhere, err := ts.service.Create(ctx, otherProperty, ts.sender, me)
	require.NoError(t, err)
	mine, err := ts.service.Create(ctx, ts.listing(ts.sender), me, ts.sender)
	require.NoError(t, err)
	bystander := uuid.New()
	_, err = ts.service.Create(ctx, ts.listing(bystander), uuid.New(), bystander)
	require.NoError(t, err)

	lists, err := ts.service.ListForViewer(ctx, me, nil)
	require.NoError(t, err)
	require.Len(t, lists.Sent, 1)
	assert.Equal(t, mine.ID, lists.Sent[0].ID)
	require.Len(t, lists.Received, 2)
	assert.ElementsMatch(t, []uuid.UUID{pending.ID, elsewhere.ID}, []uuid.UUID{lists.Received[0].ID, lists.Received[1].ID})
	require.Len(t, lists.Granted, 1)
	assert.Equal(t, accepted.ID, lists.Granted[0].ID)

	scoped, err := ts.service.ListForViewer(ctx, me, &otherProperty)
	require.NoError(t, err)
	require.Len(t, scoped.Received, 1)
	assert.Equal(t, elsewhere.ID, scoped.Received[0].ID)
	assert.Len(t, scoped.Granted, 1)
}

func TestBookingService_UnreadCountAndMarkSeen(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()

	a := ts.create(t)
	ts.create(t)

	n, err := ts.service.UnreadCount(ctx, ts.receiver)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	n, err = ts.service.UnreadCount(ctx, ts.sender)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	_, err = ts.service.Accept(ctx, a.ID, ts.receiver)
	require.NoError(t, err)
	n, _ = ts.service.UnreadCount(ctx, ts.receiver)
	assert.Equal(t, int64(1), n)
	n, _ = ts.service.UnreadCount(ctx, ts.sender)
	assert.Equal(t, int64(1), n)

	seen, err := ts.service.MarkSeen(ctx, a.ID, ts.sender)
	require.NoError(t, err)
	assert.True(t, seen.SeenBySender)
	n, _ = ts.service.UnreadCount(ctx, ts.sender)
	assert.Equal(t, int64(0), n)

	_, err = ts.service.MarkSeen(ctx, a.ID, uuid.New())
	assert.True(t, errors.Is(err, common.ErrForbidden))
}

func TestBookingService_Feed(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	pending := ts.create(t)
	answered := ts.create(t)
	_, err := ts.service.Reject(ctx, answered.ID, ts.receiver)
	require.NoError(t, err)

	receiverFeed, err := ts.service.Feed(ctx, ts.receiver)
	require.NoError(t, err)
	require.Len(t, receiverFeed, 1)
	assert.Equal(t, pending.ID, receiverFeed[0].ID)

	senderFeed, err := ts.service.Feed(ctx, ts.sender)
	require.NoError(t, err)
	require.Len(t, senderFeed, 1)
	assert.Equal(t, answered.ID, senderFeed[0].ID)
}

func TestBookingService_WatchUnread(t *testing.T) {
	ts := setupBookingServiceTestSuite(t)
	ctx := context.Background()
	counts := make(chan int64, 16)

	w, err := ts.service.WatchUnread(ctx, ts.receiver, func(n int64) { counts <- n })
	require.NoError(t, err)
	assert.Equal(t, int64(0), <-counts)

	b := ts.create(t)
	assert.Equal(t, int64(1), waitCount(t, counts))

	_, err = ts.service.MarkSeen(ctx, b.ID, ts.receiver)
	require.NoError(t, err)
	assert.Equal(t, int64(0), waitCount(t, counts))

	w.Close()
	w.Close()
	ts.create(t)
	select {
	case n := <-counts:
		t.Fatalf("unexpected count %d after close", n)
	case <-time.After(50 * time.Millisecond):
	}
}

func waitCount(t *testing.T, counts <-chan int64) int64 {
	t.Helper()
	select {
	case n := <-counts:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for unread count")
		return -1
	}
}

func TestBookingRequest_UnreadFor(t *testing.T) {
	sender, receiver := uuid.New(), uuid.New()
	b := &BookingRequest{SenderProfileID: sender, ReceiverProfileID: receiver, Status: StatusPending, SeenBySender: true}
	assert.True(t, b.UnreadFor(receiver))
	assert.False(t, b.UnreadFor(sender))

	b.Status, b.SeenByReceiver, b.SeenBySender = StatusAccepted, true, false
	assert.False(t, b.UnreadFor(receiver))
	assert.True(t, b.UnreadFor(sender))
	assert.False(t, b.UnreadFor(uuid.New()))
}
