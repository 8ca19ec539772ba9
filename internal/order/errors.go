package order

import (
	"errors"
	"fmt"

	"diner/internal/models"
)

var (
	// ErrNotInOrder is returned when removing an item the order does not hold
	ErrNotInOrder = errors.New("item not in order")
	// ErrInvalidTransition is matched by every TransitionError
	ErrInvalidTransition = errors.New("invalid order transition")
	// ErrEmptyOrder is returned when completing an order without lines
	ErrEmptyOrder = errors.New("order is empty")
	// ErrPaymentDetails is returned when required payment form fields are missing
	ErrPaymentDetails = errors.New("incomplete payment details")
	// ErrPaymentFailed wraps errors returned by a PaymentProcessor
	ErrPaymentFailed = errors.New("payment failed")
)

// TransitionError reports an action attempted in the wrong checkout phase
type TransitionError struct {
	From State
	To   State
	Op   string
}

func (e *TransitionError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s not allowed while %s", e.Op, e.From)
	}
	return fmt.Sprintf("cannot move from %s to %s", e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// MissingLineError reports a remove for an id that the order does not contain
type MissingLineError struct {
	ID models.ItemID
}

func (e *MissingLineError) Error() string {
	return fmt.Sprintf("item %d is not in the order", e.ID)
}

func (e *MissingLineError) Unwrap() error { return ErrNotInOrder }
