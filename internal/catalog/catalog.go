// Package catalog holds the immutable, ordered menu offered to every session.
package catalog

import (
	"errors"
	"fmt"

	"diner/internal/models"
)

// ErrNotFound is matched by every NotFoundError
var ErrNotFound = errors.New("menu entry not found")

// NotFoundError reports an identifier that is absent from the catalog
type NotFoundError struct {
	ID models.ItemID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("menu entry %d not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// Catalog is an ordered, read-only set of menu entries
type Catalog struct {
	entries []models.MenuEntry
	index   map[models.ItemID]int
}

// New validates entries and builds a catalog that keeps their order
func New(entries []models.MenuEntry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]models.MenuEntry, 0, len(entries)),
		index:   make(map[models.ItemID]int, len(entries)),
	}
	for i := range entries {
		e := entries[i].Clone()
		if err := models.ValidateMenuEntry(&e); err != nil {
			return nil, fmt.Errorf("catalog entry %d: %w", i, err)
		}
		if prev, dup := c.index[e.ID]; dup {
			return nil, fmt.Errorf("catalog entry %d: id %d already used by %q", i, e.ID, c.entries[prev].Name)
		}
		c.index[e.ID] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// Len returns the number of entries
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Entries returns a copy of the entries in catalog order
func (c *Catalog) Entries() []models.MenuEntry {
	out := make([]models.MenuEntry, len(c.entries))
	for i, e := range c.entries {
		out[i] = e.Clone()
	}
	return out
}

// Lookup returns the entry with the given id
func (c *Catalog) Lookup(id models.ItemID) (models.MenuEntry, error) {
	i, ok := c.index[id]
	if !ok {
		return models.MenuEntry{}, &NotFoundError{ID: id}
	}
	return c.entries[i].Clone(), nil
}
