package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type OrderPaymentRepository interface {
	Create(ctx context.Context, payment *model.OrderPayment) error
	FindByID(ctx context.Context, paymentID string) (*model.OrderPayment, error)
	UpdateStatus(ctx context.Context, paymentID string, status model.OrderPaymentStatus, transactionID string) (*model.OrderPayment, error)
	UpdateCalculation(ctx context.Context, paymentID string, rows []model.CalculationRow) error
	SetProvider(ctx context.Context, paymentID, providerID string) error
}

type orderPaymentRepoImpl struct {
	db *gorm.DB
}

func NewOrderPaymentRepository(db *gorm.DB) OrderPaymentRepository {
	return &orderPaymentRepoImpl{
		db: db,
	}
}

func (r *orderPaymentRepoImpl) Create(ctx context.Context, payment *model.OrderPayment) error {
	if payment.ID == "" {
		payment.ID = uuid.NewString()
	}
	if payment.Status == "" {
		payment.Status = model.OrderPaymentStatusOpen
	}
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *orderPaymentRepoImpl) FindByID(ctx context.Context, paymentID string) (*model.OrderPayment, error) {
	var payment model.OrderPayment
	err := r.db.WithContext(ctx).
		Where("id = ?", paymentID).
		First(&payment).Error

	if err != nil {
		return nil, err
	}

	return &payment, nil
}

func (r *orderPaymentRepoImpl) UpdateStatus(ctx context.Context, paymentID string, status model.OrderPaymentStatus, transactionID string) (*model.OrderPayment, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if transactionID != "" {
		updates["transaction_id"] = transactionID
	}
	if status == model.OrderPaymentStatusPaid {
		updates["paid"] = time.Now()
	}

	var payment model.OrderPayment
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.OrderPayment{}).
			Where("id = ?", paymentID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", paymentID).First(&payment).Error
	})

	return &payment, err
}

func (r *orderPaymentRepoImpl) UpdateCalculation(ctx context.Context, paymentID string, rows []model.CalculationRow) error {
	return r.db.WithContext(ctx).Model(&model.OrderPayment{ID: paymentID}).
		Select("Calculation").
		Updates(&model.OrderPayment{Calculation: rows}).Error
}

func (r *orderPaymentRepoImpl) SetProvider(ctx context.Context, paymentID, providerID string) error {
	return r.db.WithContext(ctx).Model(&model.OrderPayment{}).
		Where("id = ?", paymentID).
		Updates(map[string]interface{}{
			"payment_provider_id": providerID,
			"updated_at":          time.Now(),
		}).Error
}
