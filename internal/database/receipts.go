package database

import (
	"context"
	"fmt"
	"time"

	"diner/internal/models"
	"diner/internal/order"

	"github.com/google/uuid"
	"github.com/jinzhu/gorm"
	log "github.com/sirupsen/logrus"
)

// ReceiptStore records acknowledged payments. It satisfies
// order.PaymentProcessor: writing the receipt is the acknowledgment.
type ReceiptStore struct {
	db     *gorm.DB
	logger *log.Logger
}

// NewReceiptStore wraps an open database
func NewReceiptStore(db *gorm.DB, logger *log.Logger) *ReceiptStore {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &ReceiptStore{db: db, logger: logger}
}

// Process writes the receipt and its lines in one transaction
func (s *ReceiptStore) Process(ctx context.Context, p order.Payment) (order.Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return order.Confirmation{}, err
	}

	submitted := p.SubmittedAt
	if submitted.IsZero() {
		submitted = time.Now().UTC()
	}
	receipt := models.Receipt{
		Reference:   uuid.NewString(),
		SessionID:   p.SessionID,
		Customer:    p.Customer,
		CardLast4:   p.CardLast4,
		TotalCents:  int64(p.Total),
		SubmittedAt: submitted,
	}
	for _, l := range p.Lines {
		receipt.Lines = append(receipt.Lines, models.ReceiptLine{
			Position:   l.Position,
			ItemID:     int(l.ItemID),
			Name:       l.Name,
			PriceCents: int64(l.Price),
		})
	}

	tx := s.db.Begin()
	if tx.Error != nil {
		return order.Confirmation{}, fmt.Errorf("begin receipt transaction: %w", tx.Error)
	}
	if err := tx.Create(&receipt).Error; err != nil {
		tx.Rollback()
		return order.Confirmation{}, fmt.Errorf("save receipt: %w", err)
	}
	if err := tx.Commit().Error; err != nil {
		return order.Confirmation{}, fmt.Errorf("commit receipt: %w", err)
	}

	s.logger.WithFields(log.Fields{
		"session":   p.SessionID,
		"reference": receipt.Reference,
		"total":     p.Total.String(),
	}).Info("receipt recorded")

	return order.Confirmation{
		Reference:      receipt.Reference,
		Customer:       receipt.Customer,
		Total:          p.Total,
		AcknowledgedAt: receipt.CreatedAt,
	}, nil
}

// Find returns the receipt with the given reference, lines included
func (s *ReceiptStore) Find(reference string) (*models.Receipt, error) {
	var receipt models.Receipt
	err := s.db.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).Where("reference = ?", reference).First(&receipt).Error
	if err != nil {
		return nil, fmt.Errorf("find receipt %s: %w", reference, err)
	}
	return &receipt, nil
}

// Recent lists the latest receipts, newest first
func (s *ReceiptStore) Recent(limit int) ([]models.Receipt, error) {
	if limit <= 0 {
		limit = 10
	}
	var receipts []models.Receipt
	err := s.db.Preload("Lines").Order("id desc").Limit(limit).Find(&receipts).Error
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	return receipts, nil
}
