package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"backend/internal/model"
	"backend/internal/repository"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Notifier pushes domain events to connected clients. Services tolerate a
// nil notifier so tests can run without a hub.
type Notifier interface {
	Publish(event string, data map[string]interface{})
}

// DTOs
type StockEntryRequest struct {
	ArticleID      string `json:"article_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	UnitPrice      string `json:"unit_price" binding:"required"`
	PartnerID      string `json:"partner_id"`
	DeliveryNoteNo string `json:"delivery_note_no"`
	InvoiceNo      string `json:"invoice_no"`
}

type StockExitRequest struct {
	ArticleID      string `json:"article_id" binding:"required"`
	Quantity       int    `json:"quantity" binding:"required,gt=0"`
	PartnerID      string `json:"partner_id"`
	DeliveryNoteNo string `json:"delivery_note_no"`
	InvoiceNo      string `json:"invoice_no"`
}

// MovementResponse renders a movement row. WeightedAveragePrice is the
// article's average right after the movement; only mutation responses carry
// it, listing views omit it because the average keeps moving after the row
// was written.
type MovementResponse struct {
	ID                   string    `json:"id"`
	ArticleID            string    `json:"article_id"`
	Type                 string    `json:"type"`
	Quantity             int       `json:"quantity"`
	UnitPrice            *string   `json:"unit_price,omitempty"`
	PartnerID            *string   `json:"partner_id,omitempty"`
	DeliveryNoteNo       string    `json:"delivery_note_no,omitempty"`
	InvoiceNo            string    `json:"invoice_no,omitempty"`
	QuantityBefore       int       `json:"quantity_before"`
	QuantityAfter        int       `json:"quantity_after"`
	WeightedAveragePrice *string   `json:"weighted_average_price,omitempty"`
	IsReversal           bool      `json:"is_reversal"`
	ReversalOfID         *string   `json:"reversal_of_id,omitempty"`
	CreatedAt            time.Time `json:"created_at"`
}

type StockStateResponse struct {
	ArticleID            string `json:"article_id"`
	ArticleCode          string `json:"article_code"`
	ArticleName          string `json:"article_name"`
	Category             string `json:"category"`
	QuantityOnHand       int    `json:"quantity_on_hand"`
	WeightedAveragePrice string `json:"weighted_average_price"`
	TotalValue           string `json:"total_value"`
	StockMin             int    `json:"stock_min"`
	StockMax             int    `json:"stock_max"`
	Status               string `json:"status"`
	NeedsReconciliation  bool   `json:"needs_reconciliation"`
}

// StockAlertsResponse buckets every article whose stock needs attention.
// NORMAL articles are omitted.
type StockAlertsResponse struct {
	Empty     []StockStateResponse `json:"empty"`
	Critical  []StockStateResponse `json:"critical"`
	Low       []StockStateResponse `json:"low"`
	Excessive []StockStateResponse `json:"excessive"`
}

type StockService interface {
	RecordEntry(ctx context.Context, userID string, req StockEntryRequest) (MovementResponse, error)
	RecordExit(ctx context.Context, userID string, req StockExitRequest) (MovementResponse, error)
	// Batch variants are all-or-nothing: one bad line rolls back the lot.
	RecordEntryBatch(ctx context.Context, userID string, reqs []StockEntryRequest) ([]MovementResponse, error)
	RecordExitBatch(ctx context.Context, userID string, reqs []StockExitRequest) ([]MovementResponse, error)
	ReverseMovement(ctx context.Context, userID string, movementID string) (MovementResponse, error)
	CurrentState(ctx context.Context, articleID string) (StockStateResponse, error)
	ListStates(ctx context.Context) ([]StockStateResponse, error)
	History(ctx context.Context, articleID string, page, limit int) ([]MovementResponse, int64, error)
	TodayMovements(ctx context.Context) ([]MovementResponse, error)
	StockAlerts(ctx context.Context) (StockAlertsResponse, error)
}

type stockService struct {
	articleRepo  repository.ArticleRepository
	stockRepo    repository.StockRepository
	movementRepo repository.MovementRepository
	partnerRepo  repository.PartnerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	notifier     Notifier
	logger       *zap.Logger
}

func NewStockService(
	articleRepo repository.ArticleRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	notifier Notifier,
	logger *zap.Logger,
) StockService {
	return &stockService{
		articleRepo:  articleRepo,
		stockRepo:    stockRepo,
		movementRepo: movementRepo,
		partnerRepo:  partnerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		notifier:     notifier,
		logger:       logger,
	}
}

func (s *stockService) notify(event string, data map[string]interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(event, data)
	}
}

func auditUserID(userID string) *uuid.UUID {
	if parsed, err := uuid.Parse(userID); err == nil {
		return &parsed
	}
	return nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperr.Newf(apperr.KindValidation, "invalid %s %q", field, value)
	}
	return id, nil
}

// lockStock loads the article's stock row under FOR UPDATE, creating the
// zero row on first movement. Must run inside a transaction.
func (s *stockService) lockStock(ctx context.Context, articleID uuid.UUID) (*model.Stock, error) {
	stock, err := s.stockRepo.FindByArticleIDForUpdate(ctx, articleID)
	if err == nil {
		return stock, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to lock stock row: %w", err)
	}
	stock = &model.Stock{
		ArticleID:            articleID,
		QuantityOnHand:       0,
		WeightedAveragePrice: decimal.Zero,
	}
	if err := s.stockRepo.Create(ctx, stock); err != nil {
		return nil, fmt.Errorf("failed to create stock row: %w", err)
	}
	return stock, nil
}

// resolvePartner validates an optional partner reference against the role it
// plays in the movement.
func (s *stockService) resolvePartner(ctx context.Context, partnerID string, movementType string) (*uuid.UUID, error) {
	if partnerID == "" {
		return nil, nil
	}
	pid, err := parseID("partner id", partnerID)
	if err != nil {
		return nil, err
	}
	partner, err := s.partnerRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Newf(apperr.KindNotFound, "partner %s not found", partnerID)
		}
		return nil, fmt.Errorf("failed to find partner: %w", err)
	}
	if movementType == model.MovementEntry && !partner.IsSupplier() {
		return nil, apperr.Newf(apperr.KindValidation, "partner %s is not a supplier", partner.Name)
	}
	if movementType == model.MovementExit && !partner.IsCustomer() {
		return nil, apperr.Newf(apperr.KindValidation, "partner %s is not a customer", partner.Name)
	}
	return &pid, nil
}

func toMovementResponse(m *model.StockMovement) MovementResponse {
	res := MovementResponse{
		ID:             m.ID.String(),
		ArticleID:      m.ArticleID.String(),
		Type:           m.Type,
		Quantity:       m.Quantity,
		DeliveryNoteNo: m.DeliveryNoteNo,
		InvoiceNo:      m.InvoiceNo,
		QuantityBefore: m.QuantityBefore,
		QuantityAfter:  m.QuantityAfter,
		IsReversal:     m.IsReversal,
		CreatedAt:      m.CreatedAt,
	}
	if m.UnitPrice != nil {
		p := m.UnitPrice.Round(2).String()
		res.UnitPrice = &p
	}
	if m.PartnerID != nil {
		p := m.PartnerID.String()
		res.PartnerID = &p
	}
	if m.ReversalOfID != nil {
		r := m.ReversalOfID.String()
		res.ReversalOfID = &r
	}
	return res
}

func toMovementResponseWithAverage(m *model.StockMovement, avg decimal.Decimal) MovementResponse {
	res := toMovementResponse(m)
	rounded := avg.Round(2).String()
	res.WeightedAveragePrice = &rounded
	return res
}

func (s *stockService) RecordEntry(ctx context.Context, userID string, req StockEntryRequest) (MovementResponse, error) {
	var res MovementResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		res, err = s.recordEntry(txCtx, userID, req)
		return err
	})
	if err != nil {
		return MovementResponse{}, err
	}
	s.notify("stock.entry", map[string]interface{}{
		"article_id": res.ArticleID, "quantity": res.Quantity, "quantity_after": res.QuantityAfter,
	})
	return res, nil
}

// recordEntry applies the weighted average formula:
//
//	newAvg = (oldQty*oldAvg + qty*price) / (oldQty + qty)
//
// Must run inside a transaction; the stock row stays locked until commit.
func (s *stockService) recordEntry(ctx context.Context, userID string, req StockEntryRequest) (MovementResponse, error) {
	if req.Quantity <= 0 {
		return MovementResponse{}, apperr.Newf(apperr.KindValidation, "entry quantity must be positive, got %d", req.Quantity)
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil {
		return MovementResponse{}, apperr.Newf(apperr.KindValidation, "invalid unit price %q", req.UnitPrice)
	}
	if !price.IsPositive() {
		return MovementResponse{}, apperr.Newf(apperr.KindValidation, "unit price must be positive, got %s", price)
	}

	articleID, err := parseID("article id", req.ArticleID)
	if err != nil {
		return MovementResponse{}, err
	}
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MovementResponse{}, apperr.Newf(apperr.KindNotFound, "article %s not found", req.ArticleID)
		}
		return MovementResponse{}, fmt.Errorf("failed to find article: %w", err)
	}

	partnerID, err := s.resolvePartner(ctx, req.PartnerID, model.MovementEntry)
	if err != nil {
		return MovementResponse{}, err
	}

	stock, err := s.lockStock(ctx, articleID)
	if err != nil {
		return MovementResponse{}, err
	}

	oldQty := decimal.NewFromInt(int64(stock.QuantityOnHand))
	qty := decimal.NewFromInt(int64(req.Quantity))
	quantityBefore := stock.QuantityOnHand

	stock.WeightedAveragePrice = oldQty.Mul(stock.WeightedAveragePrice).
		Add(qty.Mul(price)).
		Div(oldQty.Add(qty))
	stock.QuantityOnHand += req.Quantity

	if err := s.stockRepo.Save(ctx, stock); err != nil {
		return MovementResponse{}, fmt.Errorf("failed to save stock: %w", err)
	}

	movement := &model.StockMovement{
		ArticleID:      articleID,
		Type:           model.MovementEntry,
		Quantity:       req.Quantity,
		UnitPrice:      &price,
		PartnerID:      partnerID,
		DeliveryNoteNo: req.DeliveryNoteNo,
		InvoiceNo:      req.InvoiceNo,
		QuantityBefore: quantityBefore,
		QuantityAfter:  stock.QuantityOnHand,
	}
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return MovementResponse{}, fmt.Errorf("failed to record movement: %w", err)
	}

	if err := s.logAudit(ctx, userID, model.ActionRecordEntry, movement.ID.String(), article.Name, req); err != nil {
		return MovementResponse{}, err
	}

	s.logger.Info("stock entry recorded",
		zap.String("article_id", req.ArticleID),
		zap.Int("quantity", req.Quantity),
		zap.String("unit_price", price.String()),
		zap.Int("quantity_after", stock.QuantityOnHand))

	return toMovementResponseWithAverage(movement, stock.WeightedAveragePrice), nil
}

func (s *stockService) RecordExit(ctx context.Context, userID string, req StockExitRequest) (MovementResponse, error) {
	var res MovementResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		res, err = s.recordExit(txCtx, userID, req)
		return err
	})
	if err != nil {
		return MovementResponse{}, err
	}
	s.notify("stock.exit", map[string]interface{}{
		"article_id": res.ArticleID, "quantity": res.Quantity, "quantity_after": res.QuantityAfter,
	})
	return res, nil
}

// recordExit consumes stock at the current average; the average itself never
// changes on the way out.
func (s *stockService) recordExit(ctx context.Context, userID string, req StockExitRequest) (MovementResponse, error) {
	if req.Quantity <= 0 {
		return MovementResponse{}, apperr.Newf(apperr.KindValidation, "exit quantity must be positive, got %d", req.Quantity)
	}

	articleID, err := parseID("article id", req.ArticleID)
	if err != nil {
		return MovementResponse{}, err
	}
	article, err := s.articleRepo.FindByID(ctx, articleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return MovementResponse{}, apperr.Newf(apperr.KindNotFound, "article %s not found", req.ArticleID)
		}
		return MovementResponse{}, fmt.Errorf("failed to find article: %w", err)
	}

	partnerID, err := s.resolvePartner(ctx, req.PartnerID, model.MovementExit)
	if err != nil {
		return MovementResponse{}, err
	}

	stock, err := s.lockStock(ctx, articleID)
	if err != nil {
		return MovementResponse{}, err
	}
	if req.Quantity > stock.QuantityOnHand {
		return MovementResponse{}, apperr.Newf(apperr.KindInsufficientStock,
			"cannot exit %d of %s: only %d on hand", req.Quantity, article.Name, stock.QuantityOnHand)
	}

	quantityBefore := stock.QuantityOnHand
	stock.QuantityOnHand -= req.Quantity

	if err := s.stockRepo.Save(ctx, stock); err != nil {
		return MovementResponse{}, fmt.Errorf("failed to save stock: %w", err)
	}

	movement := &model.StockMovement{
		ArticleID:      articleID,
		Type:           model.MovementExit,
		Quantity:       req.Quantity,
		PartnerID:      partnerID,
		DeliveryNoteNo: req.DeliveryNoteNo,
		InvoiceNo:      req.InvoiceNo,
		QuantityBefore: quantityBefore,
		QuantityAfter:  stock.QuantityOnHand,
	}
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return MovementResponse{}, fmt.Errorf("failed to record movement: %w", err)
	}

	if err := s.logAudit(ctx, userID, model.ActionRecordExit, movement.ID.String(), article.Name, req); err != nil {
		return MovementResponse{}, err
	}

	s.logger.Info("stock exit recorded",
		zap.String("article_id", req.ArticleID),
		zap.Int("quantity", req.Quantity),
		zap.Int("quantity_after", stock.QuantityOnHand))

	return toMovementResponseWithAverage(movement, stock.WeightedAveragePrice), nil
}

func (s *stockService) RecordEntryBatch(ctx context.Context, userID string, reqs []StockEntryRequest) ([]MovementResponse, error) {
	if len(reqs) == 0 {
		return nil, apperr.New(apperr.KindValidation, "batch requires at least one entry")
	}
	results := make([]MovementResponse, 0, len(reqs))
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, req := range reqs {
			res, err := s.recordEntry(txCtx, userID, req)
			if err != nil {
				return fmt.Errorf("batch entry %d: %w", i, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify("stock.entry_batch", map[string]interface{}{"count": len(results)})
	return results, nil
}

func (s *stockService) RecordExitBatch(ctx context.Context, userID string, reqs []StockExitRequest) ([]MovementResponse, error) {
	if len(reqs) == 0 {
		return nil, apperr.New(apperr.KindValidation, "batch requires at least one exit")
	}
	results := make([]MovementResponse, 0, len(reqs))
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		for i, req := range reqs {
			res, err := s.recordExit(txCtx, userID, req)
			if err != nil {
				return fmt.Errorf("batch exit %d: %w", i, err)
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notify("stock.exit_batch", map[string]interface{}{"count": len(results)})
	return results, nil
}

// ReverseMovement appends a compensating movement. Reversing an exit puts the
// quantity back at the unchanged average. Reversing an entry removes the
// entry's contribution from the average:
//
//	restoredAvg = (qty*avg - entryQty*entryPrice) / (qty - entryQty)
//
// If the remaining quantity is zero the average resets to zero and the
// article is flagged for reconciliation; if the restored average would be
// negative the reversal is refused and the article is flagged instead.
func (s *stockService) ReverseMovement(ctx context.Context, userID string, movementID string) (MovementResponse, error) {
	id, err := parseID("movement id", movementID)
	if err != nil {
		return MovementResponse{}, err
	}

	var res MovementResponse
	var flagArticle *uuid.UUID

	txErr := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		original, err := s.movementRepo.FindByID(txCtx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.Newf(apperr.KindNotFound, "movement %s not found", movementID)
			}
			return fmt.Errorf("failed to find movement: %w", err)
		}
		if original.IsReversal {
			return apperr.New(apperr.KindConflict, "a reversal cannot itself be reversed")
		}
		reversed, err := s.movementRepo.HasReversal(txCtx, original.ID)
		if err != nil {
			return fmt.Errorf("failed to check reversal: %w", err)
		}
		if reversed {
			return apperr.New(apperr.KindConflict, "movement has already been reversed")
		}

		stock, err := s.lockStock(txCtx, original.ArticleID)
		if err != nil {
			return err
		}

		quantityBefore := stock.QuantityOnHand
		reversal := &model.StockMovement{
			ArticleID:      original.ArticleID,
			Quantity:       original.Quantity,
			PartnerID:      original.PartnerID,
			DeliveryNoteNo: original.DeliveryNoteNo,
			InvoiceNo:      original.InvoiceNo,
			QuantityBefore: quantityBefore,
			IsReversal:     true,
			ReversalOfID:   &original.ID,
		}

		switch original.Type {
		case model.MovementExit:
			// Putting stock back at the current average.
			reversal.Type = model.MovementEntry
			avg := stock.WeightedAveragePrice
			reversal.UnitPrice = &avg
			stock.QuantityOnHand += original.Quantity

		case model.MovementEntry:
			if original.UnitPrice == nil {
				return apperr.New(apperr.KindConflict, "entry movement is missing its unit price")
			}
			if original.Quantity > stock.QuantityOnHand {
				return apperr.Newf(apperr.KindInsufficientStock,
					"cannot reverse entry of %d: only %d on hand", original.Quantity, stock.QuantityOnHand)
			}
			reversal.Type = model.MovementExit
			reversal.UnitPrice = original.UnitPrice

			newQty := stock.QuantityOnHand - original.Quantity
			if newQty == 0 {
				stock.WeightedAveragePrice = decimal.Zero
				stock.NeedsReconciliation = true
			} else {
				qty := decimal.NewFromInt(int64(stock.QuantityOnHand))
				entryQty := decimal.NewFromInt(int64(original.Quantity))
				restored := qty.Mul(stock.WeightedAveragePrice).
					Sub(entryQty.Mul(*original.UnitPrice)).
					Div(decimal.NewFromInt(int64(newQty)))
				if restored.IsNegative() {
					flagArticle = &original.ArticleID
					return apperr.New(apperr.KindReconciliationRequired,
						"reversal would produce a negative average; article flagged for reconciliation")
				}
				stock.WeightedAveragePrice = restored
			}
			stock.QuantityOnHand = newQty

		default:
			return apperr.Newf(apperr.KindConflict, "movement type %q cannot be reversed", original.Type)
		}

		reversal.QuantityAfter = stock.QuantityOnHand

		if err := s.stockRepo.Save(txCtx, stock); err != nil {
			return fmt.Errorf("failed to save stock: %w", err)
		}
		if err := s.movementRepo.Create(txCtx, reversal); err != nil {
			return fmt.Errorf("failed to record reversal: %w", err)
		}
		if err := s.logAudit(txCtx, userID, model.ActionReverseMovement, reversal.ID.String(), "",
			map[string]interface{}{"reversal_of": original.ID.String(), "type": original.Type}); err != nil {
			return err
		}

		res = toMovementResponseWithAverage(reversal, stock.WeightedAveragePrice)
		return nil
	})

	if flagArticle != nil {
		// The reversal itself rolled back; the flag must survive it.
		if ferr := s.flagForReconciliation(ctx, *flagArticle); ferr != nil {
			s.logger.Error("failed to flag article for reconciliation",
				zap.String("article_id", flagArticle.String()), zap.Error(ferr))
		}
	}
	if txErr != nil {
		return MovementResponse{}, txErr
	}

	s.notify("stock.reversal", map[string]interface{}{
		"movement_id": movementID, "article_id": res.ArticleID,
	})
	return res, nil
}

func (s *stockService) flagForReconciliation(ctx context.Context, articleID uuid.UUID) error {
	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stock, err := s.stockRepo.FindByArticleIDForUpdate(txCtx, articleID)
		if err != nil {
			return err
		}
		stock.NeedsReconciliation = true
		return s.stockRepo.Save(txCtx, stock)
	})
}

func (s *stockService) logAudit(ctx context.Context, userID, action, entityID, entityName string, payload interface{}) error {
	return writeAudit(ctx, s.auditRepo, userID, action, entityID, entityName, payload)
}

func toStateResponse(stock *model.Stock) StockStateResponse {
	res := StockStateResponse{
		ArticleID:            stock.ArticleID.String(),
		QuantityOnHand:       stock.QuantityOnHand,
		WeightedAveragePrice: stock.WeightedAveragePrice.Round(2).String(),
		TotalValue:           stock.TotalValue().Round(2).String(),
		NeedsReconciliation:  stock.NeedsReconciliation,
	}
	if stock.Article != nil {
		res.ArticleCode = stock.Article.Code
		res.ArticleName = stock.Article.Name
		res.Category = stock.Article.Category
		res.StockMin = stock.Article.StockMin
		res.StockMax = stock.Article.StockMax
		res.Status = ClassifyStock(stock.QuantityOnHand, stock.Article.StockMin, stock.Article.StockMax)
	}
	return res
}

func (s *stockService) CurrentState(ctx context.Context, articleID string) (StockStateResponse, error) {
	id, err := parseID("article id", articleID)
	if err != nil {
		return StockStateResponse{}, err
	}
	article, err := s.articleRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return StockStateResponse{}, apperr.Newf(apperr.KindNotFound, "article %s not found", articleID)
		}
		return StockStateResponse{}, fmt.Errorf("failed to find article: %w", err)
	}

	stock, err := s.stockRepo.FindByArticleID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// No movements yet: report the empty state without creating a row.
			stock = &model.Stock{ArticleID: id, WeightedAveragePrice: decimal.Zero}
		} else {
			return StockStateResponse{}, fmt.Errorf("failed to find stock: %w", err)
		}
	}
	stock.Article = article
	return toStateResponse(stock), nil
}

func (s *stockService) ListStates(ctx context.Context) ([]StockStateResponse, error) {
	stocks, err := s.stockRepo.ListWithArticles(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	res := make([]StockStateResponse, 0, len(stocks))
	for i := range stocks {
		res = append(res, toStateResponse(&stocks[i]))
	}
	return res, nil
}

func (s *stockService) History(ctx context.Context, articleID string, page, limit int) ([]MovementResponse, int64, error) {
	id, err := parseID("article id", articleID)
	if err != nil {
		return nil, 0, err
	}
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	movements, total, err := s.movementRepo.ListByArticle(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list movements: %w", err)
	}
	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, total, nil
}

func (s *stockService) TodayMovements(ctx context.Context) ([]MovementResponse, error) {
	now := time.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	movements, err := s.movementRepo.ListSince(ctx, midnight)
	if err != nil {
		return nil, fmt.Errorf("failed to list today's movements: %w", err)
	}
	res := make([]MovementResponse, 0, len(movements))
	for i := range movements {
		res = append(res, toMovementResponse(&movements[i]))
	}
	return res, nil
}

func (s *stockService) StockAlerts(ctx context.Context) (StockAlertsResponse, error) {
	states, err := s.ListStates(ctx)
	if err != nil {
		return StockAlertsResponse{}, err
	}
	alerts := StockAlertsResponse{
		Empty:     []StockStateResponse{},
		Critical:  []StockStateResponse{},
		Low:       []StockStateResponse{},
		Excessive: []StockStateResponse{},
	}
	for _, state := range states {
		switch state.Status {
		case model.StockStatusEmpty:
			alerts.Empty = append(alerts.Empty, state)
		case model.StockStatusCritical:
			alerts.Critical = append(alerts.Critical, state)
		case model.StockStatusLow:
			alerts.Low = append(alerts.Low, state)
		case model.StockStatusExcessive:
			alerts.Excessive = append(alerts.Excessive, state)
		}
	}
	return alerts, nil
}
