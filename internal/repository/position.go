package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type OrderPositionRepository interface {
	Create(ctx context.Context, position *model.OrderPosition) error
	FindByID(ctx context.Context, positionID string) (*model.OrderPosition, error)
	FindByOrder(ctx context.Context, orderID string) ([]*model.OrderPosition, error)
	UpdateCalculation(ctx context.Context, positionID string, rows []model.CalculationRow) error
	UpdateScheduling(ctx context.Context, positionID string, scheduling []model.Dispatch) error
	DeleteByOrder(ctx context.Context, orderID string) error
	Count(ctx context.Context, orderID string) (int64, error)
}

type orderPositionRepoImpl struct {
	db *gorm.DB
}

func NewOrderPositionRepository(db *gorm.DB) OrderPositionRepository {
	return &orderPositionRepoImpl{
		db: db,
	}
}

func (r *orderPositionRepoImpl) Create(ctx context.Context, position *model.OrderPosition) error {
	if position.ID == "" {
		position.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(position).Error
}

func (r *orderPositionRepoImpl) FindByID(ctx context.Context, positionID string) (*model.OrderPosition, error) {
	var position model.OrderPosition
	err := r.db.WithContext(ctx).
		Where("id = ?", positionID).
		First(&position).Error

	if err != nil {
		return nil, err
	}

	return &position, nil
}

func (r *orderPositionRepoImpl) FindByOrder(ctx context.Context, orderID string) ([]*model.OrderPosition, error) {
	var positions []*model.OrderPosition
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at, id").
		Find(&positions).Error

	if err != nil {
		return nil, err
	}

	return positions, nil
}

func (r *orderPositionRepoImpl) UpdateCalculation(ctx context.Context, positionID string, rows []model.CalculationRow) error {
	return r.db.WithContext(ctx).Model(&model.OrderPosition{ID: positionID}).
		Select("Calculation").
		Updates(&model.OrderPosition{Calculation: rows}).Error
}

func (r *orderPositionRepoImpl) UpdateScheduling(ctx context.Context, positionID string, scheduling []model.Dispatch) error {
	return r.db.WithContext(ctx).Model(&model.OrderPosition{ID: positionID}).
		Select("Scheduling").
		Updates(&model.OrderPosition{Scheduling: scheduling}).Error
}

func (r *orderPositionRepoImpl) DeleteByOrder(ctx context.Context, orderID string) error {
	return r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&model.OrderPosition{}).Error
}

func (r *orderPositionRepoImpl) Count(ctx context.Context, orderID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderPosition{}).
		Where("order_id = ?", orderID).
		Count(&count).Error

	return count, err
}
