package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"commerce-engine/internal/model"
)

type EnrollmentRepository interface {
	Create(ctx context.Context, enrollment *model.Enrollment) error
	FindByID(ctx context.Context, enrollmentID string) (*model.Enrollment, error)
	FindByOrder(ctx context.Context, orderID string) ([]*model.Enrollment, error)
}

type enrollmentRepoImpl struct {
	db *gorm.DB
}

func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepoImpl{
		db: db,
	}
}

func (r *enrollmentRepoImpl) Create(ctx context.Context, enrollment *model.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.Status == "" {
		enrollment.Status = model.EnrollmentStatusInitial
	}
	return r.db.WithContext(ctx).Create(enrollment).Error
}

func (r *enrollmentRepoImpl) FindByID(ctx context.Context, enrollmentID string) (*model.Enrollment, error) {
	var enrollment model.Enrollment
	err := r.db.WithContext(ctx).
		Where("id = ?", enrollmentID).
		First(&enrollment).Error

	if err != nil {
		return nil, err
	}

	return &enrollment, nil
}

func (r *enrollmentRepoImpl) FindByOrder(ctx context.Context, orderID string) ([]*model.Enrollment, error) {
	var enrollments []*model.Enrollment
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Find(&enrollments).Error

	if err != nil {
		return nil, err
	}

	return enrollments, nil
}

type QuotationRepository interface {
	Create(ctx context.Context, quotation *model.Quotation) error
	FindByID(ctx context.Context, quotationID string) (*model.Quotation, error)
	UpdateStatus(ctx context.Context, quotationID string, status model.QuotationStatus, info map[string]any) (*model.Quotation, error)
}

type quotationRepoImpl struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepoImpl{
		db: db,
	}
}

func (r *quotationRepoImpl) Create(ctx context.Context, quotation *model.Quotation) error {
	if quotation.ID == "" {
		quotation.ID = uuid.NewString()
	}
	if quotation.Status == "" {
		quotation.Status = model.QuotationStatusRequested
	}
	return r.db.WithContext(ctx).Create(quotation).Error
}

func (r *quotationRepoImpl) FindByID(ctx context.Context, quotationID string) (*model.Quotation, error) {
	var quotation model.Quotation
	err := r.db.WithContext(ctx).
		Where("id = ?", quotationID).
		First(&quotation).Error

	if err != nil {
		return nil, err
	}

	return &quotation, nil
}

func (r *quotationRepoImpl) UpdateStatus(ctx context.Context, quotationID string, status model.QuotationStatus, info map[string]any) (*model.Quotation, error) {
	var quotation model.Quotation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", quotationID).First(&quotation).Error; err != nil {
			return err
		}
		quotation.Status = status
		if status == model.QuotationStatusFulfilled {
			now := time.Now()
			quotation.Fulfilled = &now
		}
		if info != nil {
			quotation.Context = info
		}
		return tx.Save(&quotation).Error
	})

	return &quotation, err
}

// ErrSerialNumberTaken reports a serial collision with a concurrent writer;
// callers re-allocate and retry.
var ErrSerialNumberTaken = errors.New("a serial number is already taken")

type TokenRepository interface {
	Create(ctx context.Context, token *model.Token) error
	// CreateBatch inserts all tokens or none. A serial collision rolls the
	// batch back and surfaces as ErrSerialNumberTaken.
	CreateBatch(ctx context.Context, tokens []*model.Token) error
	FindByPosition(ctx context.Context, positionID string) ([]*model.Token, error)
	FindByPositionAndProvider(ctx context.Context, positionID, providerID string) ([]*model.Token, error)
	// NextSerialNumbers picks count consecutive serial numbers after the
	// current maximum. The numbers are not reserved; the unique index on
	// serial_number turns a lost race into ErrSerialNumberTaken on insert.
	NextSerialNumbers(ctx context.Context, count int) ([]int64, error)
}

type tokenRepoImpl struct {
	db *gorm.DB
}

func NewTokenRepository(db *gorm.DB) TokenRepository {
	return &tokenRepoImpl{
		db: db,
	}
}

func (r *tokenRepoImpl) Create(ctx context.Context, token *model.Token) error {
	if token.ID == "" {
		token.ID = uuid.NewString()
	}
	return r.db.WithContext(ctx).Create(token).Error
}

func (r *tokenRepoImpl) CreateBatch(ctx context.Context, tokens []*model.Token) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, token := range tokens {
			if token.ID == "" {
				token.ID = uuid.NewString()
			}
			if err := tx.Create(token).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSerialNumberTaken
	}
	return err
}

func (r *tokenRepoImpl) FindByPosition(ctx context.Context, positionID string) ([]*model.Token, error) {
	var tokens []*model.Token
	err := r.db.WithContext(ctx).
		Where("order_position_id = ?", positionID).
		Order("serial_number").
		Find(&tokens).Error

	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *tokenRepoImpl) FindByPositionAndProvider(ctx context.Context, positionID, providerID string) ([]*model.Token, error) {
	var tokens []*model.Token
	err := r.db.WithContext(ctx).
		Where("order_position_id = ? AND warehousing_provider_id = ?", positionID, providerID).
		Order("serial_number").
		Find(&tokens).Error

	if err != nil {
		return nil, err
	}

	return tokens, nil
}

func (r *tokenRepoImpl) NextSerialNumbers(ctx context.Context, count int) ([]int64, error) {
	var max int64
	err := r.db.WithContext(ctx).Model(&model.Token{}).
		Select("COALESCE(MAX(serial_number), 0)").
		Scan(&max).Error
	if err != nil {
		return nil, err
	}

	serials := make([]int64, count)
	for i := range serials {
		serials[i] = max + int64(i) + 1
	}
	return serials, nil
}
