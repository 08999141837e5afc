package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	FindCartByUser(ctx context.Context, userID string) (*model.Order, error)
	UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, info string) (*model.Order, error)
	UpdateCalculation(ctx context.Context, orderID string, rows []model.CalculationRow) error
	SetDeliveryAndPayment(ctx context.Context, orderID, deliveryID, paymentID string) error
	Update(ctx context.Context, order *model.Order) error
	Count(ctx context.Context, status model.OrderStatus) (int64, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) FindCartByUser(ctx context.Context, userID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, model.OrderStatusOpen).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

// UpdateStatus persists a status transition together with its timestamp and
// returns the updated order. Each status write is its own unit of
// persistence.
func (r *orderRepoImpl) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus, info string) (*model.Order, error) {
	now := time.Now()
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": now,
	}
	switch status {
	case model.OrderStatusPending:
		updates["ordered"] = now
	case model.OrderStatusConfirmed:
		updates["confirmed"] = now
	case model.OrderStatusFulfilled:
		updates["fulfilled"] = now
	case model.OrderStatusRejected:
		updates["rejected"] = now
	}

	var order model.Order
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.Order{}).
			Where("id = ?", orderID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", orderID).First(&order).Error
	})

	return &order, err
}

func (r *orderRepoImpl) UpdateCalculation(ctx context.Context, orderID string, rows []model.CalculationRow) error {
	// struct-based update so the json serializer applies to the column
	return r.db.WithContext(ctx).Model(&model.Order{ID: orderID}).
		Select("Calculation").
		Updates(&model.Order{Calculation: rows}).Error
}

func (r *orderRepoImpl) SetDeliveryAndPayment(ctx context.Context, orderID, deliveryID, paymentID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"delivery_id": deliveryID,
			"payment_id":  paymentID,
			"updated_at":  time.Now(),
		}).Error
}

func (r *orderRepoImpl) Update(ctx context.Context, order *model.Order) error {
	return r.db.WithContext(ctx).Save(order).Error
}

func (r *orderRepoImpl) Count(ctx context.Context, status model.OrderStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("status = ?", status).
		Count(&count).Error

	return count, err
}
