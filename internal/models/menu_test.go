package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItemID(t *testing.T) {
	tests := []struct {
		raw     string
		want    ItemID
		wantErr bool
	}{
		{raw: "0", want: 0},
		{raw: " 3 ", want: 3},
		{raw: "99", want: 99},
		{raw: "", wantErr: true},
		{raw: "abc", wantErr: true},
		{raw: "1.5", wantErr: true},
		{raw: "-1", wantErr: true},
		{raw: "NaN", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ParseItemID(tt.raw)
		if tt.wantErr {
			assert.Error(t, err, "ParseItemID(%q)", tt.raw)
			assert.True(t, errors.Is(err, ErrInvalidItemID), "ParseItemID(%q) should wrap ErrInvalidItemID", tt.raw)
			continue
		}
		require.NoError(t, err, "ParseItemID(%q)", tt.raw)
		assert.Equal(t, tt.want, got)
	}
}

func TestValidateMenuEntry(t *testing.T) {
	valid := MenuEntry{ID: 0, Name: "Pizza", Ingredients: []string{"pepperoni"}, Price: Dollars(14), Emoji: "🍕"}
	assert.NoError(t, ValidateMenuEntry(&valid))

	noName := valid
	noName.Name = "  "
	assert.Error(t, ValidateMenuEntry(&noName))

	negative := valid
	negative.Price = -1
	assert.Error(t, ValidateMenuEntry(&negative))

	noEmoji := valid
	noEmoji.Emoji = ""
	assert.Error(t, ValidateMenuEntry(&noEmoji))

	free := valid
	free.Price = 0
	assert.NoError(t, ValidateMenuEntry(&free), "zero price is allowed")
}

func TestMenuEntryIngredients(t *testing.T) {
	e := MenuEntry{Name: "Hamburger", Ingredients: []string{"beef", "cheese", "lettuce"}}

	assert.Equal(t, "beef, cheese, lettuce", e.IngredientList())

	clone := e.Clone()
	clone.Ingredients[0] = "tofu"
	assert.Equal(t, "beef", e.Ingredients[0])
}

func TestSumLines(t *testing.T) {
	pizza := NewOrderLine(MenuEntry{ID: 0, Name: "Pizza", Price: Dollars(14)})
	beer := NewOrderLine(MenuEntry{ID: 2, Name: "Beer", Price: Dollars(12)})

	assert.Equal(t, Money(0), SumLines(nil))
	assert.Equal(t, Dollars(28), SumLines([]OrderLine{pizza, pizza}))
	assert.Equal(t, Dollars(40), SumLines([]OrderLine{pizza, beer, pizza}))
}
