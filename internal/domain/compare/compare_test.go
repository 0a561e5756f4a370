package compare

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/furniture-market/internal/domain/catalog"
)

func product(id string) catalog.Product {
	return catalog.Product{ID: id, Name: "Product " + id}
}

func TestList_AddAndContains(t *testing.T) {
	l := NewList()

	require.NoError(t, l.Add(product("1")))
	require.NoError(t, l.Add(product("2")))

	assert.True(t, l.Contains("1"))
	assert.False(t, l.Contains("3"))
	assert.Len(t, l.Items(), 2)
}

func TestList_Add_NoDuplicates(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(product("1")))

	err := l.Add(product("1"))

	assert.ErrorIs(t, err, ErrAlreadyAdded)
	assert.Len(t, l.Items(), 1)
}

func TestList_Add_AtMostFour(t *testing.T) {
	l := NewList()
	for _, id := range []string{"1", "2", "3", "4"} {
		require.NoError(t, l.Add(product(id)))
	}

	err := l.Add(product("5"))

	assert.ErrorIs(t, err, ErrListFull)
	assert.Len(t, l.Items(), MaxItems)
	assert.False(t, l.Contains("5"))
}

func TestList_RemoveAndClear(t *testing.T) {
	l := NewList()
	for _, id := range []string{"1", "2", "3"} {
		require.NoError(t, l.Add(product(id)))
	}

	l.Remove("2")
	l.Remove("missing")

	items := l.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "3", items[1].ID)

	l.Clear()
	assert.Empty(t, l.Items())
	require.NoError(t, l.Add(product("9")))
}

func TestList_Items_ReturnsCopy(t *testing.T) {
	l := NewList()
	require.NoError(t, l.Add(product("1")))

	items := l.Items()
	items[0].Name = "changed"

	assert.Equal(t, "Product 1", l.Items()[0].Name)
}
