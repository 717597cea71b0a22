package repository

import (
	"context"

	"backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderListFilter narrows the order list query.
type OrderListFilter struct {
	CustomerID *uuid.UUID
	Status     string
	Archived   *bool
	Page       int
	Limit      int
}

type OrderRepository interface {
	Create(ctx context.Context, order *model.Order) error
	Save(ctx context.Context, order *model.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error)
	// FindByIDForUpdate locks the order row; lines are loaded separately.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error)
	FindLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error)
	// ReplaceLines swaps an order's lines wholesale; callers run it inside
	// a transaction so a failed update leaves the prior lines untouched.
	ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error
	List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error)
	// ListOutstandingByCustomerForUpdate returns the customer's unpaid,
	// non-archived orders oldest first, locked for a payment sweep.
	ListOutstandingByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) ([]model.Order, error)
	ArchivePaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error)
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Create(order).Error
}

func (r *orderRepository) Save(ctx context.Context, order *model.Order) error {
	return GetDB(ctx, r.db).Omit("Lines").Save(order).Error
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).
		Preload("Lines").
		Preload("Customer").
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	var order model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) FindLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error) {
	var lines []model.OrderLine
	if err := GetDB(ctx, r.db).Where("order_id = ?", orderID).Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}

func (r *orderRepository) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("order_id = ?", orderID).Delete(&model.OrderLine{}).Error; err != nil {
		return err
	}
	for i := range lines {
		lines[i].OrderID = orderID
	}
	return db.Create(&lines).Error
}

func (r *orderRepository) List(ctx context.Context, filter OrderListFilter) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	query := GetDB(ctx, r.db).Model(&model.Order{})
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Archived != nil {
		query = query.Where("archived = ?", *filter.Archived)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := query.
		Preload("Lines").
		Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) ListOutstandingByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	var orders []model.Order
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("customer_id = ? AND archived = false AND status IN ?",
			customerID, []string{model.OrderStatusSaved, model.OrderStatusPartiallyPaid}).
		Order("created_at ASC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *orderRepository) ArchivePaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	res := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("customer_id = ? AND status = ? AND archived = false", customerID, model.OrderStatusPaid).
		Update("archived", true)
	return res.RowsAffected, res.Error
}

func (r *orderRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	if err := GetDB(ctx, r.db).Model(&model.Order{}).
		Where("order_number LIKE ?", prefix+"%").Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
