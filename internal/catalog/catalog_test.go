package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"diner/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogOrder(t *testing.T) {
	c := Default()

	entries := c.Entries()
	require.Len(t, entries, 4)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Pizza", "Hamburger", "Beer", "Fries"}, names)
	assert.Equal(t, models.Dollars(14), entries[0].Price)
}

func TestLookup(t *testing.T) {
	c := Default()

	e, err := c.Lookup(3)
	require.NoError(t, err)
	assert.Equal(t, "Fries", e.Name)

	_, err = c.Lookup(99)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))

	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, models.ItemID(99), nf.ID)
}

func TestEntriesAreCopies(t *testing.T) {
	c := Default()

	entries := c.Entries()
	entries[0].Name = "Calzone"
	entries[0].Ingredients[0] = "ham"

	again, err := c.Lookup(0)
	require.NoError(t, err)
	assert.Equal(t, "Pizza", again.Name)
	assert.Equal(t, "pepperoni", again.Ingredients[0])
}

func TestNewRejectsDuplicatesAndInvalidEntries(t *testing.T) {
	_, err := New([]models.MenuEntry{
		{ID: 1, Name: "Soup", Price: 100, Emoji: "🥣"},
		{ID: 1, Name: "Salad", Price: 100, Emoji: "🥗"},
	})
	assert.ErrorContains(t, err, "already used")

	_, err = New([]models.MenuEntry{{ID: 1, Name: "", Price: 100, Emoji: "🥣"}})
	assert.Error(t, err)

	c, err := New(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}

func TestParseMenu(t *testing.T) {
	doc := []byte(`
items:
  - id: 7
    name: Ice Cream
    ingredients: [milk, sugar, vanilla]
    price: 6.5
    emoji: "🍦"
  - id: 3
    name: Fries
    ingredients: [potatoes]
    price: 8
    emoji: "🍟"
`)
	c, err := Parse(doc)
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	e, err := c.Lookup(7)
	require.NoError(t, err)
	assert.Equal(t, models.Money(650), e.Price)
	assert.Equal(t, "milk, sugar, vanilla", e.IngredientList())
	assert.Equal(t, "Ice Cream", c.Entries()[0].Name)
}

func TestParseMenuErrors(t *testing.T) {
	_, err := Parse([]byte("items: []\n"))
	assert.Error(t, err)

	_, err = Parse([]byte("items:\n  - id: 1\n    name: X\n    price: 1\n    emoji: x\n    colour: red\n"))
	assert.Error(t, err, "unknown fields are rejected")

	_, err = Parse([]byte("items:\n  - id: 1\n    name: X\n    price: -2\n    emoji: x\n"))
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	c, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 4, c.Len())

	path := filepath.Join(t.TempDir(), "menu.yaml")
	require.NoError(t, os.WriteFile(path, []byte("items:\n  - id: 0\n    name: Pizza\n    ingredients: [cheese]\n    price: 14\n    emoji: \"🍕\"\n"), 0o644))

	c, err = LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRepositoryMenuFileMatchesDefaults(t *testing.T) {
	c, err := LoadFile(filepath.Join("..", "..", "configs", "menu.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Entries(), c.Entries())
}
