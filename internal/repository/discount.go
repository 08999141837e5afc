package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type OrderDiscountRepository interface {
	Create(ctx context.Context, discount *model.OrderDiscount) error
	FindByOrder(ctx context.Context, orderID string) ([]*model.OrderDiscount, error)
	ExistsByKey(ctx context.Context, orderID, discountKey string) (bool, error)
	Delete(ctx context.Context, discountID string) error
}

type orderDiscountRepoImpl struct {
	db *gorm.DB
}

func NewOrderDiscountRepository(db *gorm.DB) OrderDiscountRepository {
	return &orderDiscountRepoImpl{
		db: db,
	}
}

func (r *orderDiscountRepoImpl) Create(ctx context.Context, discount *model.OrderDiscount) error {
	if discount.ID == "" {
		discount.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(discount).Error
}

func (r *orderDiscountRepoImpl) FindByOrder(ctx context.Context, orderID string) ([]*model.OrderDiscount, error) {
	var discounts []*model.OrderDiscount
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at, id").
		Find(&discounts).Error

	if err != nil {
		return nil, err
	}

	return discounts, nil
}

func (r *orderDiscountRepoImpl) ExistsByKey(ctx context.Context, orderID, discountKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderDiscount{}).
		Where("order_id = ? AND discount_key = ?", orderID, discountKey).
		Count(&count).Error

	return count > 0, err
}

func (r *orderDiscountRepoImpl) Delete(ctx context.Context, discountID string) error {
	return r.db.WithContext(ctx).
		Where("id = ?", discountID).
		Delete(&model.OrderDiscount{}).Error
}
