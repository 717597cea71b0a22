package repository

import (
	"context"
	"errors"
	"time"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MovementRepository interface {
	Create(ctx context.Context, movement *model.StockMovement) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error)
	// HasReversal reports whether a compensating movement already exists
	// for the given movement.
	HasReversal(ctx context.Context, movementID uuid.UUID) (bool, error)
	ListByArticle(ctx context.Context, articleID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error)
	ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.StockMovement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	var movement model.StockMovement
	if err := GetDB(ctx, r.db).First(&movement, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *movementRepository) HasReversal(ctx context.Context, movementID uuid.UUID) (bool, error) {
	var movement model.StockMovement
	err := GetDB(ctx, r.db).Where("reversal_of_id = ?", movementID).First(&movement).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *movementRepository) ListByArticle(ctx context.Context, articleID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var movements []model.StockMovement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.StockMovement{}).Where("article_id = ?", articleID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.
		Preload("Partner").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&movements).Error; err != nil {
		return nil, 0, err
	}

	return movements, total, nil
}

func (r *movementRepository) ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error) {
	var movements []model.StockMovement
	if err := GetDB(ctx, r.db).
		Preload("Article").
		Preload("Partner").
		Where("created_at >= ?", since).
		Order("created_at DESC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
