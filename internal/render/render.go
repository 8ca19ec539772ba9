// Package render turns catalog and order state into view-models that a
// presentation layer paints. Every function here is pure.
package render

import (
	"fmt"

	"diner/internal/models"
	"diner/internal/order"
)

// CatalogRow describes one menu list item
type CatalogRow struct {
	ID          string       `json:"id"`
	Emoji       string       `json:"emoji"`
	Name        string       `json:"name"`
	Ingredients string       `json:"ingredients"`
	Price       models.Money `json:"price"`
	PriceText   string       `json:"price_text"`
}

// OrderRow describes one order list item; RemoveID tags its remove control
type OrderRow struct {
	Key       string       `json:"key"`
	RemoveID  string       `json:"remove_id"`
	Name      string       `json:"name"`
	Price     models.Money `json:"price"`
	PriceText string       `json:"price_text"`
}

// OrderView is the order list with its total
type OrderView struct {
	Rows      []OrderRow   `json:"rows"`
	Total     models.Money `json:"total"`
	TotalText string       `json:"total_text"`
}

// PageView is everything the page needs to paint
type PageView struct {
	Menu           []CatalogRow     `json:"menu"`
	Order          OrderView        `json:"order"`
	State          order.State      `json:"state"`
	Visibility     order.Visibility `json:"visibility"`
	SuccessMessage string           `json:"success_message,omitempty"`
	Reference      string           `json:"reference,omitempty"`
}

// Catalog renders one row per entry, in catalog order
func Catalog(entries []models.MenuEntry) []CatalogRow {
	rows := make([]CatalogRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, CatalogRow{
			ID:          e.ID.String(),
			Emoji:       e.Emoji,
			Name:        e.Name,
			Ingredients: e.IngredientList(),
			Price:       e.Price,
			PriceText:   e.Price.String(),
		})
	}
	return rows
}

// Order renders the lines in selection order and recomputes their total
func Order(lines []models.OrderLine) OrderView {
	view := OrderView{Rows: make([]OrderRow, 0, len(lines))}
	for _, l := range lines {
		view.Rows = append(view.Rows, OrderRow{
			Key:       fmt.Sprintf("line-%d", l.Position),
			RemoveID:  l.ItemID.String(),
			Name:      l.Name,
			Price:     l.Price,
			PriceText: l.Price.String(),
		})
		view.Total += l.Price
	}
	view.TotalText = view.Total.String()
	return view
}

// Page combines the menu rows with the rendered session
func Page(menu []CatalogRow, snap order.Snapshot) PageView {
	view := PageView{
		Menu:       menu,
		Order:      Order(snap.Lines),
		State:      snap.State,
		Visibility: snap.Visibility,
	}
	if snap.Confirmation != nil {
		view.SuccessMessage = SuccessMessage(snap.Confirmation.Customer)
		view.Reference = snap.Confirmation.Reference
	}
	return view
}

// SuccessMessage is shown once the payment went through
func SuccessMessage(customer string) string {
	if customer == "" {
		return "Thanks! Your order is on its way!"
	}
	return fmt.Sprintf("Thanks, %s! Your order is on its way!", customer)
}
