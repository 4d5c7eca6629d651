package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"estate_marketplace_backend/internal/common"
	"estate_marketplace_backend/internal/platform/database"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testNote struct {
	common.BaseModel
	Author string `gorm:"not null" json:"author"`
	Body   string `json:"body"`
	Stars  int    `json:"stars"`
}

func (testNote) TableName() string { return "test_notes" }

func setupCollection(t *testing.T) (*Collection[testNote, *testNote], *recorder) {
	t.Helper()
	db, err := database.NewTestDB(&testNote{})
	require.NoError(t, err)

	broker := NewMemoryBroker(32, zap.NewNop())
	rec := &recorder{}
	sub := broker.Subscribe("notes", rec.handle)
	t.Cleanup(sub.Unsubscribe)

	return NewCollection[testNote](db, broker, zap.NewNop(), "notes", "author", "body", "stars"), rec
}

func TestCollection_CRUDPublishesEvents(t *testing.T) {
	col, rec := setupCollection(t)
	ctx := context.Background()

	note := &testNote{Author: "ana", Body: "Sunny two bedroom"}
	require.NoError(t, col.Create(ctx, note))
	require.NotEmpty(t, note.ID)

	updated, err := col.Update(ctx, note.ID, map[string]interface{}{"stars": 4})
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Stars)

	require.NoError(t, col.Delete(ctx, note.ID))

	_, err = col.Get(ctx, note.ID)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.Eventually(t, func() bool { return rec.len() == 3 }, time.Second, 5*time.Millisecond)
	events := rec.snapshot()
	assert.Equal(t, EventCreate, events[0].Type)
	assert.Equal(t, EventUpdate, events[1].Type)
	assert.Equal(t, EventDelete, events[2].Type)

	var deleted testNote
	require.NoError(t, events[2].Decode(&deleted))
	assert.Equal(t, "ana", deleted.Author)
}

func TestCollection_ListWithQueries(t *testing.T) {
	col, _ := setupCollection(t)
	ctx := context.Background()

	for i, body := range []string{"Loft downtown", "Garden LOFT", "Studio"} {
		require.NoError(t, col.Create(ctx, &testNote{Author: "bo", Body: body, Stars: i + 1}))
	}
	require.NoError(t, col.Create(ctx, &testNote{Author: "cy", Body: "loft by the lake", Stars: 5}))

	docs, err := col.List(ctx, Equal("author", "bo"), Search("body", "loft"), OrderDesc("stars"))
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "Garden LOFT", docs[0].Body)

	n, err := col.Count(ctx, Or(Equal("author", "cy"), GreaterThanEqual("stars", 3)), Limit(1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	page, err := col.List(ctx, OrderAsc("stars"), Limit(2), Offset(1))
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, 2, page[0].Stars)

	first, err := col.First(ctx, LessThanEqual("stars", 1))
	require.NoError(t, err)
	assert.Equal(t, "Loft downtown", first.Body)
}

func TestCollection_DeleteWhere(t *testing.T) {
	col, rec := setupCollection(t)
	ctx := context.Background()

	require.NoError(t, col.Create(ctx, &testNote{Author: "dee", Body: "a"}))
	require.NoError(t, col.Create(ctx, &testNote{Author: "dee", Body: "b"}))
	require.NoError(t, col.Create(ctx, &testNote{Author: "eli", Body: "c"}))

	n, err := col.DeleteWhere(ctx, Equal("author", "dee"))
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)

	remaining, err := col.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, remaining)

	require.Eventually(t, func() bool { return rec.len() == 5 }, time.Second, 5*time.Millisecond)
}

func TestCollection_UpdateUnknownFieldOrDocument(t *testing.T) {
	col, _ := setupCollection(t)
	ctx := context.Background()

	_, err := col.Update(ctx, uuid.New(), map[string]interface{}{"stars": 1})
	assert.True(t, errors.Is(err, common.ErrNotFound))

	_, err = col.Update(ctx, uuid.New(), map[string]interface{}{"owner": "x"})
	assert.True(t, errors.Is(err, common.ErrBadRequest))
}
