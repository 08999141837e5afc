package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type PaymentProviderRepository interface {
	Create(ctx context.Context, provider *model.PaymentProvider) error
	FindByID(ctx context.Context, providerID string) (*model.PaymentProvider, error)
	FindAll(ctx context.Context) ([]*model.PaymentProvider, error)
}

type paymentProviderRepoImpl struct {
	db *gorm.DB
}

func NewPaymentProviderRepository(db *gorm.DB) PaymentProviderRepository {
	return &paymentProviderRepoImpl{
		db: db,
	}
}

func (r *paymentProviderRepoImpl) Create(ctx context.Context, provider *model.PaymentProvider) error {
	if provider.ID == "" {
		provider.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *paymentProviderRepoImpl) FindByID(ctx context.Context, providerID string) (*model.PaymentProvider, error) {
	var provider model.PaymentProvider
	err := r.db.WithContext(ctx).
		Where("id = ?", providerID).
		First(&provider).Error

	if err != nil {
		return nil, err
	}

	return &provider, nil
}

func (r *paymentProviderRepoImpl) FindAll(ctx context.Context) ([]*model.PaymentProvider, error) {
	var providers []*model.PaymentProvider
	err := r.db.WithContext(ctx).
		Order("created_at, id").
		Find(&providers).Error

	if err != nil {
		return nil, err
	}

	return providers, nil
}

type DeliveryProviderRepository interface {
	Create(ctx context.Context, provider *model.DeliveryProvider) error
	FindByID(ctx context.Context, providerID string) (*model.DeliveryProvider, error)
	FindAll(ctx context.Context) ([]*model.DeliveryProvider, error)
}

type deliveryProviderRepoImpl struct {
	db *gorm.DB
}

func NewDeliveryProviderRepository(db *gorm.DB) DeliveryProviderRepository {
	return &deliveryProviderRepoImpl{
		db: db,
	}
}

func (r *deliveryProviderRepoImpl) Create(ctx context.Context, provider *model.DeliveryProvider) error {
	if provider.ID == "" {
		provider.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *deliveryProviderRepoImpl) FindByID(ctx context.Context, providerID string) (*model.DeliveryProvider, error) {
	var provider model.DeliveryProvider
	err := r.db.WithContext(ctx).
		Where("id = ?", providerID).
		First(&provider).Error

	if err != nil {
		return nil, err
	}

	return &provider, nil
}

func (r *deliveryProviderRepoImpl) FindAll(ctx context.Context) ([]*model.DeliveryProvider, error) {
	var providers []*model.DeliveryProvider
	err := r.db.WithContext(ctx).
		Order("created_at, id").
		Find(&providers).Error

	if err != nil {
		return nil, err
	}

	return providers, nil
}

type WarehousingProviderRepository interface {
	Create(ctx context.Context, provider *model.WarehousingProvider) error
	FindAll(ctx context.Context) ([]*model.WarehousingProvider, error)
	FindByType(ctx context.Context, providerType model.WarehousingProviderType) ([]*model.WarehousingProvider, error)
}

type warehousingProviderRepoImpl struct {
	db *gorm.DB
}

func NewWarehousingProviderRepository(db *gorm.DB) WarehousingProviderRepository {
	return &warehousingProviderRepoImpl{
		db: db,
	}
}

func (r *warehousingProviderRepoImpl) Create(ctx context.Context, provider *model.WarehousingProvider) error {
	if provider.ID == "" {
		provider.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(provider).Error
}

func (r *warehousingProviderRepoImpl) FindAll(ctx context.Context) ([]*model.WarehousingProvider, error) {
	var providers []*model.WarehousingProvider
	err := r.db.WithContext(ctx).
		Order("created_at, id").
		Find(&providers).Error

	if err != nil {
		return nil, err
	}

	return providers, nil
}

func (r *warehousingProviderRepoImpl) FindByType(ctx context.Context, providerType model.WarehousingProviderType) ([]*model.WarehousingProvider, error) {
	var providers []*model.WarehousingProvider
	err := r.db.WithContext(ctx).
		Where("type = ?", providerType).
		Order("created_at, id").
		Find(&providers).Error

	if err != nil {
		return nil, err
	}

	return providers, nil
}
