package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidItemID is returned when an item identifier cannot be parsed
var ErrInvalidItemID = errors.New("invalid item id")

// ItemID identifies a menu entry
type ItemID int

// ParseItemID converts an identifier received from the presentation layer
// into an ItemID. Empty, non-numeric and negative values are rejected.
func ParseItemID(raw string) (ItemID, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidItemID)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidItemID, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: %d is negative", ErrInvalidItemID, n)
	}
	return ItemID(n), nil
}

// String returns the decimal form used in markup and URLs
func (id ItemID) String() string {
	return strconv.Itoa(int(id))
}

// MenuEntry represents a dish on the menu
type MenuEntry struct {
	ID          ItemID   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Ingredients []string `json:"ingredients" yaml:"ingredients"`
	Price       Money    `json:"price" yaml:"price"`
	Emoji       string   `json:"emoji" yaml:"emoji"`
}

// ValidateMenuEntry validates a menu entry
func ValidateMenuEntry(entry *MenuEntry) error {
	if entry.ID < 0 {
		return fmt.Errorf("menu entry %q has negative id %d", entry.Name, entry.ID)
	}
	if strings.TrimSpace(entry.Name) == "" {
		return fmt.Errorf("menu entry %d: name is required", entry.ID)
	}
	if entry.Price < 0 {
		return fmt.Errorf("menu entry %q: price must not be negative", entry.Name)
	}
	if strings.TrimSpace(entry.Emoji) == "" {
		return fmt.Errorf("menu entry %q: emoji is required", entry.Name)
	}
	return nil
}

// IngredientList returns the ingredients joined for display
func (e MenuEntry) IngredientList() string {
	return strings.Join(e.Ingredients, ", ")
}

// Clone returns a copy that shares no slices with e
func (e MenuEntry) Clone() MenuEntry {
	out := e
	if e.Ingredients != nil {
		out.Ingredients = append([]string(nil), e.Ingredients...)
	}
	return out
}
