// Package order accumulates the dishes a customer selects and drives the
// checkout phases of a single session.
//
// A Session is not safe for concurrent use; callers serialize access to it
// (see session.Store.Do).
package order

import (
	"context"
	"fmt"
	"time"

	"diner/internal/models"
)

// Menu resolves identifiers to menu entries
type Menu interface {
	Lookup(id models.ItemID) (models.MenuEntry, error)
}

// Visibility holds the flags of the presentation mount points
type Visibility struct {
	CheckoutSection bool `json:"checkout_section"`
	CompleteButton  bool `json:"complete_button"`
	PaymentOverlay  bool `json:"payment_overlay"`
	SuccessPanel    bool `json:"success_panel"`
}

// Snapshot is an immutable copy of a session's state
type Snapshot struct {
	ID           string
	State        State
	Lines        []models.OrderLine
	Total        models.Money
	Visibility   Visibility
	Confirmation *Confirmation
}

// Session is one customer's order and checkout progress
type Session struct {
	id      string
	menu    Menu
	lines   []models.OrderLine
	state   State
	nextPos int

	// revealed stays true once the first item was added
	revealed     bool
	confirmation *Confirmation
	touched      time.Time
}

// NewSession creates an empty session in the browsing state
func NewSession(id string, menu Menu) *Session {
	return &Session{
		id:      id,
		menu:    menu,
		state:   StateBrowsing,
		touched: time.Now(),
	}
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// State returns the current checkout phase
func (s *Session) State() State { return s.state }

// LastActivity returns the time of the last successful mutation or creation
func (s *Session) LastActivity() time.Time { return s.touched }

// Add appends one line for the entry with the given id. The order is left
// untouched when the id is not on the menu.
func (s *Session) Add(id models.ItemID) (models.OrderLine, error) {
	if !acceptsItems(s.state) {
		return models.OrderLine{}, &TransitionError{From: s.state, To: s.state, Op: "add"}
	}
	entry, err := s.menu.Lookup(id)
	if err != nil {
		return models.OrderLine{}, fmt.Errorf("add item: %w", err)
	}

	if s.state == StateBrowsing {
		if err := s.transition(StateOrdering); err != nil {
			return models.OrderLine{}, err
		}
	}

	line := models.NewOrderLine(entry)
	line.Position = s.nextPos
	s.nextPos++
	s.lines = append(s.lines, line)
	s.revealed = true
	s.touched = time.Now()
	return line, nil
}

// Remove drops a single line for id: the most recently added one.
// Other lines sharing the id stay in the order.
func (s *Session) Remove(id models.ItemID) (models.OrderLine, error) {
	if !acceptsItems(s.state) {
		return models.OrderLine{}, &TransitionError{From: s.state, To: s.state, Op: "remove"}
	}
	if _, err := s.menu.Lookup(id); err != nil {
		return models.OrderLine{}, fmt.Errorf("remove item: %w", err)
	}

	for i := len(s.lines) - 1; i >= 0; i-- {
		if s.lines[i].ItemID != id {
			continue
		}
		removed := s.lines[i]
		s.lines = append(s.lines[:i], s.lines[i+1:]...)
		s.touched = time.Now()
		return removed, nil
	}
	return models.OrderLine{}, &MissingLineError{ID: id}
}

// Complete opens the payment prompt
func (s *Session) Complete() error {
	if s.state == StateOrdering && len(s.lines) == 0 {
		return ErrEmptyOrder
	}
	if err := s.transition(StatePaymentPrompt); err != nil {
		return err
	}
	s.touched = time.Now()
	return nil
}

// Cancel closes the payment prompt and returns to ordering
func (s *Session) Cancel() error {
	if s.state != StatePaymentPrompt {
		return &TransitionError{From: s.state, To: StateOrdering, Op: "cancel"}
	}
	if err := s.transition(StateOrdering); err != nil {
		return err
	}
	s.touched = time.Now()
	return nil
}

// Submit hands the order to processor and, when it acknowledges, finishes
// the session. On failure the payment prompt stays open.
func (s *Session) Submit(ctx context.Context, processor PaymentProcessor, details PaymentDetails) (Confirmation, error) {
	if s.state != StatePaymentPrompt {
		return Confirmation{}, &TransitionError{From: s.state, To: StateSubmitted, Op: "submit"}
	}
	if err := details.Validate(); err != nil {
		return Confirmation{}, err
	}

	payment := Payment{
		SessionID:   s.id,
		Customer:    details.CustomerName(),
		CardLast4:   details.CardLast4(),
		Lines:       s.Lines(),
		Total:       s.Total(),
		SubmittedAt: time.Now().UTC(),
	}
	conf, err := processor.Process(ctx, payment)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%w: %w", ErrPaymentFailed, err)
	}
	if conf.Customer == "" {
		conf.Customer = payment.Customer
	}
	if conf.Total == 0 {
		conf.Total = payment.Total
	}

	if err := s.transition(StateSubmitted); err != nil {
		return Confirmation{}, err
	}
	s.confirmation = &conf
	s.touched = time.Now()
	return conf, nil
}

// Lines returns a copy of the order lines in selection order
func (s *Session) Lines() []models.OrderLine {
	out := make([]models.OrderLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Len returns the number of lines
func (s *Session) Len() int { return len(s.lines) }

// Total sums the prices of all current lines
func (s *Session) Total() models.Money {
	return models.SumLines(s.lines)
}

// Visibility derives the mount point flags from the session state
func (s *Session) Visibility() Visibility {
	return Visibility{
		CheckoutSection: s.revealed,
		CompleteButton:  s.revealed,
		PaymentOverlay:  s.state == StatePaymentPrompt,
		SuccessPanel:    IsTerminal(s.state),
	}
}

// Snapshot copies the session state for rendering
func (s *Session) Snapshot() Snapshot {
	snap := Snapshot{
		ID:         s.id,
		State:      s.state,
		Lines:      s.Lines(),
		Total:      s.Total(),
		Visibility: s.Visibility(),
	}
	if s.confirmation != nil {
		c := *s.confirmation
		snap.Confirmation = &c
	}
	return snap
}
