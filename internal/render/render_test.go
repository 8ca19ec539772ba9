package render

import (
	"context"
	"testing"

	"diner/internal/catalog"
	"diner/internal/models"
	"diner/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRows(t *testing.T) {
	c := catalog.Default()

	rows := Catalog(c.Entries())
	require.Len(t, rows, c.Len())

	assert.Equal(t, CatalogRow{
		ID:          "1",
		Emoji:       "🍔",
		Name:        "Hamburger",
		Ingredients: "beef, cheese, lettuce",
		Price:       models.Dollars(12),
		PriceText:   "$12",
	}, rows[1])

	for i, e := range c.Entries() {
		assert.Equal(t, e.ID.String(), rows[i].ID, "row %d keeps catalog order", i)
	}
}

func TestCatalogRowsIgnoreOrderState(t *testing.T) {
	c := catalog.Default()
	before := Catalog(c.Entries())

	s := order.NewSession("s", c)
	_, err := s.Add(2)
	require.NoError(t, err)

	assert.Equal(t, before, Catalog(c.Entries()))
}

func TestOrderView(t *testing.T) {
	lines := []models.OrderLine{
		{Position: 0, ItemID: 0, Name: "Pizza", Price: models.Dollars(14)},
		{Position: 1, ItemID: 3, Name: "Fries", Price: models.Money(850)},
		{Position: 4, ItemID: 0, Name: "Pizza", Price: models.Dollars(14)},
	}

	view := Order(lines)
	require.Len(t, view.Rows, 3)
	assert.Equal(t, "line-4", view.Rows[2].Key)
	assert.Equal(t, "0", view.Rows[2].RemoveID)
	assert.Equal(t, "$8.50", view.Rows[1].PriceText)
	assert.Equal(t, models.Money(3650), view.Total)
	assert.Equal(t, "$36.50", view.TotalText)
}

func TestEmptyOrderView(t *testing.T) {
	view := Order(nil)
	assert.Empty(t, view.Rows)
	assert.NotNil(t, view.Rows)
	assert.Equal(t, "$0", view.TotalText)
}

func TestPageAfterSubmission(t *testing.T) {
	c := catalog.Default()
	s := order.NewSession("s", c)
	_, err := s.Add(0)
	require.NoError(t, err)
	require.NoError(t, s.Complete())
	_, err = s.Submit(context.Background(), order.ProcessorFunc(func(ctx context.Context, p order.Payment) (order.Confirmation, error) {
		return order.Confirmation{Reference: "r-42"}, nil
	}), order.PaymentDetails{Name: "Grace", CardNumber: "4000", CVV: "1"})
	require.NoError(t, err)

	page := Page(Catalog(c.Entries()), s.Snapshot())
	assert.Equal(t, order.StateSubmitted, page.State)
	assert.Equal(t, "Thanks, Grace! Your order is on its way!", page.SuccessMessage)
	assert.Equal(t, "r-42", page.Reference)
	assert.True(t, page.Visibility.SuccessPanel)
	assert.Equal(t, "$14", page.Order.TotalText)
}

func TestPageBeforeFirstAdd(t *testing.T) {
	c := catalog.Default()
	page := Page(Catalog(c.Entries()), order.NewSession("s", c).Snapshot())

	assert.Equal(t, order.StateBrowsing, page.State)
	assert.False(t, page.Visibility.CheckoutSection)
	assert.False(t, page.Visibility.CompleteButton)
	assert.Empty(t, page.SuccessMessage)
	assert.Len(t, page.Menu, 4)
}

func TestSuccessMessageWithoutName(t *testing.T) {
	assert.Equal(t, "Thanks! Your order is on its way!", SuccessMessage(""))
}
