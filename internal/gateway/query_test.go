package gateway

import (
	"testing"

	"estate_marketplace_backend/internal/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFields_Compile_NestedLogic(t *testing.T) {
	f := NewFields("user1", "user2")

	sql, args, err := f.compile(Or(
		And(Equal("user1", "a"), Equal("user2", "b")),
		And(Equal("user1", "b"), Equal("user2", "a")),
	))
	require.NoError(t, err)

	assert.Equal(t, "((user1 = ?) AND (user2 = ?)) OR ((user1 = ?) AND (user2 = ?))", sql)
	assert.Equal(t, []interface{}{"a", "b", "b", "a"}, args)
}

func TestFields_Compile_SearchIsCaseInsensitive(t *testing.T) {
	f := NewFields("name")

	sql, args, err := f.compile(Search("name", "Loft"))
	require.NoError(t, err)

	assert.Equal(t, "LOWER(name) LIKE ?", sql)
	assert.Equal(t, []interface{}{"%loft%"}, args)
}

func TestFields_Compile_EmptyInMatchesNothing(t *testing.T) {
	sql, args, err := NewFields("property_id").compile(In("property_id"))
	require.NoError(t, err)
	assert.Equal(t, "1 = 0", sql)
	assert.Empty(t, args)
}

func TestFields_Compile_RejectsUnknownField(t *testing.T) {
	_, _, err := NewFields("name").compile(Equal("password; DROP TABLE", 1))

	apiErr, ok := common.IsAPIError(err)
	require.True(t, ok)
	assert.Equal(t, common.ErrBadRequest.Code, apiErr.Code)
}

func TestFields_Compile_RejectsNestedOrdering(t *testing.T) {
	_, _, err := NewFields("name").compile(And(OrderAsc("name")))
	assert.Error(t, err)
}
