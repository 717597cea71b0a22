package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DTOs
type OrderLineRequest struct {
	ArticleID string `json:"article_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

type SaveOrderRequest struct {
	CustomerID          string             `json:"customer_id" binding:"required"`
	DocumentType        string             `json:"document_type" binding:"required,oneof=INVOICE DELIVERY_NOTE"`
	ReductionPercentage string             `json:"reduction_percentage"`
	DueDate             string             `json:"due_date"`
	Lines               []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type UpdateOrderRequest struct {
	DocumentType        string             `json:"document_type" binding:"required,oneof=INVOICE DELIVERY_NOTE"`
	ReductionPercentage string             `json:"reduction_percentage"`
	DueDate             string             `json:"due_date"`
	Lines               []OrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

type PaymentRequest struct {
	Amount string `json:"amount" binding:"required"`
	Method string `json:"method"`
}

type OrderLineResponse struct {
	ArticleID string `json:"article_id"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Category  string `json:"category"`
}

type OrderResponse struct {
	ID                  string              `json:"id"`
	OrderNumber         string              `json:"order_number"`
	CustomerID          string              `json:"customer_id"`
	CustomerName        string              `json:"customer_name,omitempty"`
	DocumentType        string              `json:"document_type"`
	ReductionPercentage string              `json:"reduction_percentage"`
	Lines               []OrderLineResponse `json:"lines"`
	Subtotal            string              `json:"subtotal"`
	VATAmount           string              `json:"vat_amount"`
	TotalAmount         string              `json:"total_amount"`
	AmountPaid          string              `json:"amount_paid"`
	RemainingAmount     string              `json:"remaining_amount"`
	Status              string              `json:"status"`
	Archived            bool                `json:"archived"`
	StockConsumed       bool                `json:"stock_consumed"`
	DueDate             *string             `json:"due_date,omitempty"`
	CreatedAt           time.Time           `json:"created_at"`
}

type PaymentResponse struct {
	ID          string    `json:"id"`
	OrderID     string    `json:"order_id"`
	OrderNumber string    `json:"order_number,omitempty"`
	CustomerID  string    `json:"customer_id"`
	Amount      string    `json:"amount"`
	Method      string    `json:"method,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// CustomerPaymentResponse reports how a customer-level payment was swept
// across outstanding orders, oldest first.
type CustomerPaymentResponse struct {
	CustomerID string            `json:"customer_id"`
	Amount     string            `json:"amount"`
	Payments   []PaymentResponse `json:"payments"`
}

// OrderListQuery narrows the order listing.
type OrderListQuery struct {
	CustomerID string
	Status     string
	Archived   *bool
	Page       int
	Limit      int
}

type OrderService interface {
	Save(ctx context.Context, userID string, req SaveOrderRequest) (OrderResponse, error)
	Update(ctx context.Context, userID string, orderID string, req UpdateOrderRequest) (OrderResponse, error)
	Get(ctx context.Context, orderID string) (OrderResponse, error)
	List(ctx context.Context, query OrderListQuery) ([]OrderResponse, int64, error)
	RecordOrderPayment(ctx context.Context, userID string, orderID string, req PaymentRequest) (OrderResponse, error)
	// RecordCustomerPayment sweeps one amount across the customer's unpaid
	// orders, oldest first. An amount exceeding the total outstanding is
	// rejected whole; nothing is applied.
	RecordCustomerPayment(ctx context.Context, userID string, customerID string, req PaymentRequest) (CustomerPaymentResponse, error)
	Cancel(ctx context.Context, userID string, orderID string) (OrderResponse, error)
	// ConfirmStock issues the order's exits. Saving never moves stock; this
	// explicit step does, exactly once per order.
	ConfirmStock(ctx context.Context, userID string, orderID string) (OrderResponse, error)
	ArchivePaid(ctx context.Context, userID string, customerID string) (int64, error)
	PaymentHistory(ctx context.Context, customerID string, page, limit int) ([]PaymentResponse, int64, error)
}

type orderService struct {
	orderRepo   repository.OrderRepository
	paymentRepo repository.PaymentRepository
	articleRepo repository.ArticleRepository
	partnerRepo repository.PartnerRepository
	auditRepo   repository.AuditRepository
	stockSvc    StockService
	pricing     *PricingEngine
	txManager   repository.TransactionManager
	notifier    Notifier
	logger      *zap.Logger
}

func NewOrderService(
	orderRepo repository.OrderRepository,
	paymentRepo repository.PaymentRepository,
	articleRepo repository.ArticleRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	stockSvc StockService,
	pricing *PricingEngine,
	txManager repository.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		orderRepo:   orderRepo,
		paymentRepo: paymentRepo,
		articleRepo: articleRepo,
		partnerRepo: partnerRepo,
		auditRepo:   auditRepo,
		stockSvc:    stockSvc,
		pricing:     pricing,
		txManager:   txManager,
		notifier:    notifier,
		logger:      logger,
	}
}

func (s *orderService) notify(event string, data map[string]interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(event, data)
	}
}

func (s *orderService) logAudit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	return writeAudit(ctx, s.auditRepo, userID, action, entityID, entityName, payload)
}

func parseReduction(raw string) (decimal.Decimal, error) {
	if raw == "" {
		return decimal.Zero, nil
	}
	reduction, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperr.Newf(apperr.KindValidation, "invalid reduction percentage %q", raw)
	}
	return reduction, nil
}

func parseDueDate(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	due, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil, apperr.Newf(apperr.KindValidation, "invalid due date %q, expected YYYY-MM-DD", raw)
	}
	return &due, nil
}

func parseAmount(raw string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Decimal{}, apperr.Newf(apperr.KindValidation, "invalid amount %q", raw)
	}
	if !amount.IsPositive() {
		return decimal.Decimal{}, apperr.New(apperr.KindValidation, "payment amount must be positive")
	}
	return amount, nil
}

func toOrderResponse(order *model.Order) OrderResponse {
	res := OrderResponse{
		ID:                  order.ID.String(),
		OrderNumber:         order.OrderNumber,
		CustomerID:          order.CustomerID.String(),
		DocumentType:        order.DocumentType,
		ReductionPercentage: order.ReductionPercentage.String(),
		Lines:               make([]OrderLineResponse, 0, len(order.Lines)),
		Subtotal:            order.Subtotal.Round(2).String(),
		VATAmount:           order.VATAmount.Round(2).String(),
		TotalAmount:         order.TotalAmount.Round(2).String(),
		AmountPaid:          order.AmountPaid.Round(2).String(),
		RemainingAmount:     order.RemainingAmount().Round(2).String(),
		Status:              order.Status,
		Archived:            order.Archived,
		StockConsumed:       order.StockConsumed,
		CreatedAt:           order.CreatedAt,
	}
	if order.Customer != nil {
		res.CustomerName = order.Customer.Name
	}
	if order.DueDate != nil {
		d := order.DueDate.Format("2006-01-02")
		res.DueDate = &d
	}
	for _, line := range order.Lines {
		res.Lines = append(res.Lines, OrderLineResponse{
			ArticleID: line.ArticleID.String(),
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice.Round(2).String(),
			Category:  line.Category,
		})
	}
	return res
}

// snapshotLines resolves each requested line against the catalog, freezing
// unit price and category as they stand right now.
func (s *orderService) snapshotLines(ctx context.Context, reqs []OrderLineRequest) ([]model.OrderLine, []PriceLine, error) {
	lines := make([]model.OrderLine, 0, len(reqs))
	priceLines := make([]PriceLine, 0, len(reqs))
	for _, lr := range reqs {
		articleID, err := parseID("article id", lr.ArticleID)
		if err != nil {
			return nil, nil, err
		}
		article, err := s.articleRepo.FindByID(ctx, articleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, nil, apperr.Newf(apperr.KindNotFound, "article %s not found", lr.ArticleID)
			}
			return nil, nil, fmt.Errorf("failed to find article: %w", err)
		}
		if !article.Active {
			return nil, nil, apperr.Newf(apperr.KindValidation, "article %s is inactive", article.Code)
		}
		lines = append(lines, model.OrderLine{
			ArticleID: article.ID,
			Quantity:  lr.Quantity,
			UnitPrice: article.UnitPrice,
			Category:  article.Category,
		})
		priceLines = append(priceLines, PriceLine{
			ArticleID: article.ID.String(),
			Quantity:  lr.Quantity,
			UnitPrice: article.UnitPrice,
			Category:  article.Category,
		})
	}
	return lines, priceLines, nil
}

func (s *orderService) nextOrderNumber(ctx context.Context) (string, error) {
	prefix := "ORD-" + time.Now().Format("20060102") + "-"
	count, err := s.orderRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", fmt.Errorf("failed to count orders: %w", err)
	}
	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

func (s *orderService) Save(ctx context.Context, userID string, req SaveOrderRequest) (OrderResponse, error) {
	customerID, err := parseID("customer id", req.CustomerID)
	if err != nil {
		return OrderResponse{}, err
	}
	reduction, err := parseReduction(req.ReductionPercentage)
	if err != nil {
		return OrderResponse{}, err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return OrderResponse{}, err
	}

	var order model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		customer, err := s.partnerRepo.FindByID(txCtx, customerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "customer %s not found", req.CustomerID)
			}
			return fmt.Errorf("failed to find customer: %w", err)
		}
		if !customer.IsCustomer() {
			return apperr.Newf(apperr.KindValidation, "partner %s is not a customer", customer.Name)
		}

		lines, priceLines, err := s.snapshotLines(txCtx, req.Lines)
		if err != nil {
			return err
		}
		totals, err := s.pricing.Quote(priceLines, reduction, req.DocumentType)
		if err != nil {
			return err
		}

		orderNumber, err := s.nextOrderNumber(txCtx)
		if err != nil {
			return err
		}

		order = model.Order{
			OrderNumber:         orderNumber,
			CustomerID:          customerID,
			DocumentType:        req.DocumentType,
			ReductionPercentage: reduction,
			Lines:               lines,
			Subtotal:            totals.Subtotal,
			VATAmount:           totals.VATAmount,
			TotalAmount:         totals.GrandTotal,
			AmountPaid:          decimal.Zero,
			Status:              model.OrderStatusSaved,
			DueDate:             dueDate,
		}
		if err := s.orderRepo.Create(txCtx, &order); err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		return s.logAudit(txCtx, userID, model.ActionSaveOrder, order.ID.String(), orderNumber, map[string]interface{}{
			"customer_id":   req.CustomerID,
			"document_type": req.DocumentType,
			"total_amount":  totals.GrandTotal.String(),
			"line_count":    len(lines),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.Info("order saved",
		zap.String("order_number", order.OrderNumber),
		zap.String("customer_id", req.CustomerID),
		zap.String("total", order.TotalAmount.String()))
	s.notify("order.saved", map[string]interface{}{
		"order_id": order.ID.String(), "order_number": order.OrderNumber,
	})
	return toOrderResponse(&order), nil
}

// statusForPayment derives the status from amounts; it never regresses a
// cancellation.
func statusForPayment(paid, total decimal.Decimal) string {
	switch {
	case paid.GreaterThanOrEqual(total):
		return model.OrderStatusPaid
	case paid.IsPositive():
		return model.OrderStatusPartiallyPaid
	default:
		return model.OrderStatusSaved
	}
}

func (s *orderService) Update(ctx context.Context, userID string, orderID string, req UpdateOrderRequest) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	reduction, err := parseReduction(req.ReductionPercentage)
	if err != nil {
		return OrderResponse{}, err
	}
	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("failed to find order: %w", err)
		}
		if order.Archived {
			return apperr.New(apperr.KindConflict, "an archived order cannot be modified")
		}
		switch order.Status {
		case model.OrderStatusPaid:
			return apperr.New(apperr.KindConflict, "a paid order cannot be modified")
		case model.OrderStatusCancelled:
			return apperr.New(apperr.KindConflict, "a cancelled order cannot be modified")
		}

		lines, priceLines, err := s.snapshotLines(txCtx, req.Lines)
		if err != nil {
			return err
		}
		totals, err := s.pricing.Quote(priceLines, reduction, req.DocumentType)
		if err != nil {
			return err
		}
		// Already-received money caps how low the order can be repriced.
		if order.AmountPaid.GreaterThan(totals.GrandTotal) {
			return apperr.Newf(apperr.KindOverpayment,
				"new total %s is below the %s already paid", totals.GrandTotal.String(), order.AmountPaid.String())
		}

		order.DocumentType = req.DocumentType
		order.ReductionPercentage = reduction
		order.DueDate = dueDate
		order.Subtotal = totals.Subtotal
		order.VATAmount = totals.VATAmount
		order.TotalAmount = totals.GrandTotal
		order.Status = statusForPayment(order.AmountPaid, order.TotalAmount)

		if err := s.orderRepo.ReplaceLines(txCtx, id, lines); err != nil {
			return fmt.Errorf("failed to replace order lines: %w", err)
		}
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}
		order.Lines = lines

		return s.logAudit(txCtx, userID, model.ActionUpdateOrder, order.ID.String(), order.OrderNumber, map[string]interface{}{
			"total_amount": totals.GrandTotal.String(),
			"line_count":   len(lines),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.notify("order.updated", map[string]interface{}{
		"order_id": order.ID.String(), "order_number": order.OrderNumber,
	})
	return toOrderResponse(order), nil
}

func (s *orderService) Get(ctx context.Context, orderID string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	order, err := s.orderRepo.FindByIDWithLines(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return OrderResponse{}, apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
		}
		return OrderResponse{}, fmt.Errorf("failed to find order: %w", err)
	}
	return toOrderResponse(order), nil
}

func (s *orderService) List(ctx context.Context, query OrderListQuery) ([]OrderResponse, int64, error) {
	filter := repository.OrderListFilter{
		Status:   query.Status,
		Archived: query.Archived,
		Page:     query.Page,
		Limit:    query.Limit,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	if query.CustomerID != "" {
		customerID, err := parseID("customer id", query.CustomerID)
		if err != nil {
			return nil, 0, err
		}
		filter.CustomerID = &customerID
	}

	orders, total, err := s.orderRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	res := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		res = append(res, toOrderResponse(&orders[i]))
	}
	return res, total, nil
}

// applyPayment mutates a locked order. Overpayment is rejected outright,
// never clamped.
func (s *orderService) applyPayment(ctx context.Context, order *model.Order, amount decimal.Decimal, method string) (*model.Payment, error) {
	if order.Archived {
		return nil, apperr.New(apperr.KindConflict, "an archived order cannot receive payments")
	}
	switch order.Status {
	case model.OrderStatusCancelled:
		return nil, apperr.New(apperr.KindConflict, "a cancelled order cannot receive payments")
	case model.OrderStatusPaid:
		return nil, apperr.New(apperr.KindConflict, "order is already fully paid")
	}
	if order.AmountPaid.Add(amount).GreaterThan(order.TotalAmount) {
		return nil, apperr.Newf(apperr.KindOverpayment,
			"payment of %s exceeds the %s remaining on order %s",
			amount.String(), order.RemainingAmount().String(), order.OrderNumber)
	}

	order.AmountPaid = order.AmountPaid.Add(amount)
	order.Status = statusForPayment(order.AmountPaid, order.TotalAmount)
	if err := s.orderRepo.Save(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	payment := &model.Payment{
		OrderID:    order.ID,
		CustomerID: order.CustomerID,
		Amount:     amount,
		Method:     method,
	}
	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}
	return payment, nil
}

func (s *orderService) RecordOrderPayment(ctx context.Context, userID string, orderID string, req PaymentRequest) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("failed to find order: %w", err)
		}

		payment, err := s.applyPayment(txCtx, order, amount, req.Method)
		if err != nil {
			return err
		}

		return s.logAudit(txCtx, userID, model.ActionRecordPayment, payment.ID.String(), order.OrderNumber, map[string]interface{}{
			"order_id": orderID,
			"amount":   amount.String(),
			"status":   order.Status,
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.Info("payment recorded",
		zap.String("order_number", order.OrderNumber),
		zap.String("amount", amount.String()),
		zap.String("status", order.Status))
	s.notify("order.payment", map[string]interface{}{
		"order_id": order.ID.String(), "amount": amount.String(), "status": order.Status,
	})
	return toOrderResponse(order), nil
}

func (s *orderService) RecordCustomerPayment(ctx context.Context, userID string, customerID string, req PaymentRequest) (CustomerPaymentResponse, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return CustomerPaymentResponse{}, err
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		return CustomerPaymentResponse{}, err
	}

	res := CustomerPaymentResponse{CustomerID: customerID, Amount: amount.Round(2).String()}
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, err := s.partnerRepo.FindByID(txCtx, cid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "customer %s not found", customerID)
			}
			return fmt.Errorf("failed to find customer: %w", err)
		}

		orders, err := s.orderRepo.ListOutstandingByCustomerForUpdate(txCtx, cid)
		if err != nil {
			return fmt.Errorf("failed to list outstanding orders: %w", err)
		}

		remaining := amount
		for i := range orders {
			if !remaining.IsPositive() {
				break
			}
			order := &orders[i]
			portion := decimal.Min(remaining, order.RemainingAmount())
			if !portion.IsPositive() {
				continue
			}
			payment, err := s.applyPayment(txCtx, order, portion, req.Method)
			if err != nil {
				return err
			}
			remaining = remaining.Sub(portion)
			res.Payments = append(res.Payments, PaymentResponse{
				ID:          payment.ID.String(),
				OrderID:     order.ID.String(),
				OrderNumber: order.OrderNumber,
				CustomerID:  customerID,
				Amount:      portion.Round(2).String(),
				Method:      req.Method,
				CreatedAt:   payment.CreatedAt,
			})
		}
		if remaining.IsPositive() {
			return apperr.Newf(apperr.KindOverpayment,
				"payment exceeds the customer's outstanding balance by %s", remaining.String())
		}

		return s.logAudit(txCtx, userID, model.ActionRecordPayment, customerID, "", map[string]interface{}{
			"customer_id": customerID,
			"amount":      amount.String(),
			"orders_paid": len(res.Payments),
		})
	})
	if err != nil {
		return CustomerPaymentResponse{}, err
	}

	s.notify("order.customer_payment", map[string]interface{}{
		"customer_id": customerID, "amount": amount.String(), "orders": len(res.Payments),
	})
	return res, nil
}

// Cancel voids an order. Stock is untouched: any exits already confirmed are
// undone through movement reversals, not through cancellation.
func (s *orderService) Cancel(ctx context.Context, userID string, orderID string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("failed to find order: %w", err)
		}
		switch order.Status {
		case model.OrderStatusPaid:
			return apperr.New(apperr.KindConflict, "a paid order cannot be cancelled")
		case model.OrderStatusCancelled:
			return apperr.New(apperr.KindConflict, "order is already cancelled")
		}

		order.Status = model.OrderStatusCancelled
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		return s.logAudit(txCtx, userID, model.ActionCancelOrder, order.ID.String(), order.OrderNumber, map[string]interface{}{
			"stock_consumed": order.StockConsumed,
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.notify("order.cancelled", map[string]interface{}{
		"order_id": order.ID.String(), "order_number": order.OrderNumber,
	})
	return toOrderResponse(order), nil
}

func (s *orderService) ConfirmStock(ctx context.Context, userID string, orderID string) (OrderResponse, error) {
	id, err := parseID("order id", orderID)
	if err != nil {
		return OrderResponse{}, err
	}

	var order *model.Order
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		order, err = s.orderRepo.FindByIDForUpdate(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "order %s not found", orderID)
			}
			return fmt.Errorf("failed to find order: %w", err)
		}
		if order.Status == model.OrderStatusCancelled {
			return apperr.New(apperr.KindConflict, "a cancelled order cannot consume stock")
		}
		if order.Archived {
			return apperr.New(apperr.KindConflict, "an archived order cannot consume stock")
		}
		if order.StockConsumed {
			return apperr.New(apperr.KindConflict, "order stock has already been consumed")
		}

		lines, err := s.orderRepo.FindLines(txCtx, id)
		if err != nil {
			return fmt.Errorf("failed to load order lines: %w", err)
		}

		// The exits join this transaction; one short article rolls back all.
		for _, line := range lines {
			_, err := s.stockSvc.RecordExit(txCtx, userID, StockExitRequest{
				ArticleID: line.ArticleID.String(),
				Quantity:  line.Quantity,
				PartnerID: order.CustomerID.String(),
				InvoiceNo: order.OrderNumber,
			})
			if err != nil {
				return err
			}
		}
		order.Lines = lines

		order.StockConsumed = true
		if err := s.orderRepo.Save(txCtx, order); err != nil {
			return fmt.Errorf("failed to save order: %w", err)
		}

		return s.logAudit(txCtx, userID, model.ActionConfirmOrderStock, order.ID.String(), order.OrderNumber, map[string]interface{}{
			"line_count": len(lines),
		})
	})
	if err != nil {
		return OrderResponse{}, err
	}

	s.logger.Info("order stock consumed",
		zap.String("order_number", order.OrderNumber),
		zap.Int("lines", len(order.Lines)))
	s.notify("order.stock_consumed", map[string]interface{}{
		"order_id": order.ID.String(), "order_number": order.OrderNumber,
	})
	return toOrderResponse(order), nil
}

func (s *orderService) ArchivePaid(ctx context.Context, userID string, customerID string) (int64, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return 0, err
	}

	var archived int64
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		archived, err = s.orderRepo.ArchivePaidByCustomer(txCtx, cid)
		if err != nil {
			return fmt.Errorf("failed to archive orders: %w", err)
		}
		return s.logAudit(txCtx, userID, model.ActionArchiveOrders, customerID, "", map[string]interface{}{
			"archived": archived,
		})
	})
	if err != nil {
		return 0, err
	}

	s.notify("order.archived", map[string]interface{}{
		"customer_id": customerID, "count": archived,
	})
	return archived, nil
}

func (s *orderService) PaymentHistory(ctx context.Context, customerID string, page, limit int) ([]PaymentResponse, int64, error) {
	cid, err := parseID("customer id", customerID)
	if err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	payments, total, err := s.paymentRepo.ListByCustomer(ctx, cid, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list payments: %w", err)
	}
	res := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		pr := PaymentResponse{
			ID:         p.ID.String(),
			OrderID:    p.OrderID.String(),
			CustomerID: p.CustomerID.String(),
			Amount:     p.Amount.Round(2).String(),
			Method:     p.Method,
			CreatedAt:  p.CreatedAt,
		}
		if p.Order != nil {
			pr.OrderNumber = p.Order.OrderNumber
		}
		res = append(res, pr)
	}
	return res, total, nil
}
