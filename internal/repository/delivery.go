package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type OrderDeliveryRepository interface {
	Create(ctx context.Context, delivery *model.OrderDelivery) error
	FindByID(ctx context.Context, deliveryID string) (*model.OrderDelivery, error)
	UpdateStatus(ctx context.Context, deliveryID string, status model.OrderDeliveryStatus) (*model.OrderDelivery, error)
	UpdateCalculation(ctx context.Context, deliveryID string, rows []model.CalculationRow) error
	SetProvider(ctx context.Context, deliveryID, providerID string) error
}

type orderDeliveryRepoImpl struct {
	db *gorm.DB
}

func NewOrderDeliveryRepository(db *gorm.DB) OrderDeliveryRepository {
	return &orderDeliveryRepoImpl{
		db: db,
	}
}

func (r *orderDeliveryRepoImpl) Create(ctx context.Context, delivery *model.OrderDelivery) error {
	if delivery.ID == "" {
		delivery.ID = uuid.NewString()
	}
	if delivery.Status == "" {
		delivery.Status = model.OrderDeliveryStatusOpen
	}
	return r.db.WithContext(ctx).Create(delivery).Error
}

func (r *orderDeliveryRepoImpl) FindByID(ctx context.Context, deliveryID string) (*model.OrderDelivery, error) {
	var delivery model.OrderDelivery
	err := r.db.WithContext(ctx).
		Where("id = ?", deliveryID).
		First(&delivery).Error

	if err != nil {
		return nil, err
	}

	return &delivery, nil
}

func (r *orderDeliveryRepoImpl) UpdateStatus(ctx context.Context, deliveryID string, status model.OrderDeliveryStatus) (*model.OrderDelivery, error) {
	updates := map[string]interface{}{
		"status":     status,
		"updated_at": time.Now(),
	}
	if status == model.OrderDeliveryStatusDelivered {
		updates["delivered"] = time.Now()
	}

	var delivery model.OrderDelivery
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&model.OrderDelivery{}).
			Where("id = ?", deliveryID).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Where("id = ?", deliveryID).First(&delivery).Error
	})

	return &delivery, err
}

func (r *orderDeliveryRepoImpl) UpdateCalculation(ctx context.Context, deliveryID string, rows []model.CalculationRow) error {
	return r.db.WithContext(ctx).Model(&model.OrderDelivery{ID: deliveryID}).
		Select("Calculation").
		Updates(&model.OrderDelivery{Calculation: rows}).Error
}

func (r *orderDeliveryRepoImpl) SetProvider(ctx context.Context, deliveryID, providerID string) error {
	return r.db.WithContext(ctx).Model(&model.OrderDelivery{}).
		Where("id = ?", deliveryID).
		Updates(map[string]interface{}{
			"delivery_provider_id": providerID,
			"updated_at":           time.Now(),
		}).Error
}
