package catalog

import "diner/internal/models"

// DefaultEntries is the built-in menu
func DefaultEntries() []models.MenuEntry {
	return []models.MenuEntry{
		{
			ID:          0,
			Name:        "Pizza",
			Ingredients: []string{"pepperoni", "mushroom", "mozzarella"},
			Price:       models.Dollars(14),
			Emoji:       "🍕",
		},
		{
			ID:          1,
			Name:        "Hamburger",
			Ingredients: []string{"beef", "cheese", "lettuce"},
			Price:       models.Dollars(12),
			Emoji:       "🍔",
		},
		{
			ID:          2,
			Name:        "Beer",
			Ingredients: []string{"grain", "hops", "yeast", "water"},
			Price:       models.Dollars(12),
			Emoji:       "🍺",
		},
		{
			ID:          3,
			Name:        "Fries",
			Ingredients: []string{"potatoes", "salt", "vegetable oil"},
			Price:       models.Dollars(8),
			Emoji:       "🍟",
		},
	}
}

// Default returns the catalog built from DefaultEntries
func Default() *Catalog {
	c, err := New(DefaultEntries())
	if err != nil {
		panic(err)
	}
	return c
}
