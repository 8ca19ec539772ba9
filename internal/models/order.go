package models

import (
	"time"

	"github.com/jinzhu/gorm"
)

// OrderLine is one selected menu entry, copied by value at selection time
type OrderLine struct {
	Position int    `json:"position"`
	ItemID   ItemID `json:"id"`
	Name     string `json:"name"`
	Price    Money  `json:"price"`
}

// NewOrderLine copies the fields of entry that an order needs
func NewOrderLine(entry MenuEntry) OrderLine {
	return OrderLine{
		ItemID: entry.ID,
		Name:   entry.Name,
		Price:  entry.Price,
	}
}

// SumLines recomputes the total of lines from scratch
func SumLines(lines []OrderLine) Money {
	var total Money
	for _, l := range lines {
		total += l.Price
	}
	return total
}

// Receipt records an acknowledged mock payment
type Receipt struct {
	gorm.Model
	Reference   string `gorm:"unique_index"`
	SessionID   string `gorm:"index"`
	Customer    string
	CardLast4   string
	TotalCents  int64
	Lines       []ReceiptLine `gorm:"foreignkey:ReceiptID"`
	SubmittedAt time.Time
}

// ReceiptLine represents an item on a receipt
type ReceiptLine struct {
	gorm.Model
	ReceiptID  uint
	Position   int
	ItemID     int
	Name       string
	PriceCents int64
}

// Total returns the receipt total as Money
func (r *Receipt) Total() Money {
	return Money(r.TotalCents)
}
