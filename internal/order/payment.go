package order

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"diner/internal/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// PaymentDetails is the content of the payment form
type PaymentDetails struct {
	Name       string `json:"name" form:"name" binding:"required"`
	CardNumber string `json:"card_number" form:"card_number" binding:"required"`
	CVV        string `json:"cvv" form:"cvv" binding:"required"`
}

// Validate applies the same checks the form enforces: every field is
// present and card fields are numeric.
func (d PaymentDetails) Validate() error {
	var missing []string
	if strings.TrimSpace(d.Name) == "" {
		missing = append(missing, "name")
	}
	if digits(d.CardNumber) == "" {
		missing = append(missing, "card_number")
	}
	if digits(d.CVV) == "" {
		missing = append(missing, "cvv")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrPaymentDetails, strings.Join(missing, ", "))
	}
	if !numeric(d.CardNumber) || !numeric(d.CVV) {
		return fmt.Errorf("%w: card number and cvv must be digits", ErrPaymentDetails)
	}
	return nil
}

// CustomerName returns the trimmed name
func (d PaymentDetails) CustomerName() string {
	return strings.TrimSpace(d.Name)
}

// CardLast4 returns the last four digits of the card number
func (d PaymentDetails) CardLast4() string {
	n := digits(d.CardNumber)
	if len(n) <= 4 {
		return n
	}
	return n[len(n)-4:]
}

func digits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// numeric allows digits separated by spaces or dashes
func numeric(s string) bool {
	for _, r := range strings.TrimSpace(s) {
		if !unicode.IsDigit(r) && r != ' ' && r != '-' {
			return false
		}
	}
	return true
}

// Payment is what a session hands to a PaymentProcessor
type Payment struct {
	SessionID   string
	Customer    string
	CardLast4   string
	Lines       []models.OrderLine
	Total       models.Money
	SubmittedAt time.Time
}

// Confirmation acknowledges a processed payment
type Confirmation struct {
	Reference      string       `json:"reference"`
	Customer       string       `json:"customer"`
	Total          models.Money `json:"total"`
	AcknowledgedAt time.Time    `json:"acknowledged_at"`
}

// PaymentProcessor takes payment for a submitted order
type PaymentProcessor interface {
	Process(ctx context.Context, p Payment) (Confirmation, error)
}

// ProcessorFunc adapts a function to PaymentProcessor
type ProcessorFunc func(ctx context.Context, p Payment) (Confirmation, error)

// Process calls f
func (f ProcessorFunc) Process(ctx context.Context, p Payment) (Confirmation, error) {
	return f(ctx, p)
}

// LogProcessor acknowledges payments by logging them. Nothing is charged.
type LogProcessor struct {
	Logger *log.Logger
}

// NewLogProcessor returns a LogProcessor writing to logger
func NewLogProcessor(logger *log.Logger) *LogProcessor {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogProcessor{Logger: logger}
}

// Process logs the payment and returns a fresh reference
func (p *LogProcessor) Process(ctx context.Context, pay Payment) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	conf := Confirmation{
		Reference:      uuid.NewString(),
		Customer:       pay.Customer,
		Total:          pay.Total,
		AcknowledgedAt: time.Now().UTC(),
	}
	p.Logger.WithFields(log.Fields{
		"session":   pay.SessionID,
		"reference": conf.Reference,
		"lines":     len(pay.Lines),
		"total":     pay.Total.String(),
	}).Info("payment acknowledged")
	return conf, nil
}
