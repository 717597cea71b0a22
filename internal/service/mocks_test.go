package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"backend/internal/model"
	"backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// In-memory repository fakes. They honor the same not-found semantics as the
// gorm-backed implementations so the services' errors.Is checks hold.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Publish(event string, data map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeNotifier) seen(event string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.events {
		if e == event {
			return true
		}
	}
	return false
}

type fakeArticleRepo struct {
	mu       sync.Mutex
	articles map[uuid.UUID]model.Article
}

func newFakeArticleRepo() *fakeArticleRepo {
	return &fakeArticleRepo{articles: make(map[uuid.UUID]model.Article)}
}

func (f *fakeArticleRepo) Create(ctx context.Context, article *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if article.ID == uuid.Nil {
		article.ID = uuid.New()
	}
	article.CreatedAt = time.Now()
	f.articles[article.ID] = *article
	return nil
}

func (f *fakeArticleRepo) Update(ctx context.Context, article *model.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.articles[article.ID] = *article
	return nil
}

func (f *fakeArticleRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := a
	return &copied, nil
}

func (f *fakeArticleRepo) FindByCode(ctx context.Context, code string) (*model.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.articles {
		if a.Code == code {
			copied := a
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeArticleRepo) List(ctx context.Context, page, limit int, search string) ([]model.Article, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Article
	for _, a := range f.articles {
		if search == "" || strings.Contains(a.Name, search) || strings.Contains(a.Code, search) {
			all = append(all, a)
		}
	}
	return all, int64(len(all)), nil
}

type fakeStockRepo struct {
	mu     sync.Mutex
	stocks map[uuid.UUID]model.Stock // keyed by article id
	repo   *fakeArticleRepo          // optional, for ListWithArticles
}

func newFakeStockRepo(articles *fakeArticleRepo) *fakeStockRepo {
	return &fakeStockRepo{stocks: make(map[uuid.UUID]model.Stock), repo: articles}
}

func (f *fakeStockRepo) Create(ctx context.Context, stock *model.Stock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if stock.ID == uuid.Nil {
		stock.ID = uuid.New()
	}
	f.stocks[stock.ArticleID] = *stock
	return nil
}

func (f *fakeStockRepo) Save(ctx context.Context, stock *model.Stock) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stocks[stock.ArticleID] = *stock
	return nil
}

func (f *fakeStockRepo) FindByArticleID(ctx context.Context, articleID uuid.UUID) (*model.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.stocks[articleID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := s
	return &copied, nil
}

func (f *fakeStockRepo) FindByArticleIDForUpdate(ctx context.Context, articleID uuid.UUID) (*model.Stock, error) {
	return f.FindByArticleID(ctx, articleID)
}

func (f *fakeStockRepo) ListWithArticles(ctx context.Context) ([]model.Stock, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Stock
	for _, s := range f.stocks {
		copied := s
		if f.repo != nil {
			if a, err := f.repo.FindByID(ctx, s.ArticleID); err == nil {
				copied.Article = a
			}
		}
		all = append(all, copied)
	}
	return all, nil
}

type fakeMovementRepo struct {
	mu        sync.Mutex
	movements []model.StockMovement
}

func newFakeMovementRepo() *fakeMovementRepo { return &fakeMovementRepo{} }

func (f *fakeMovementRepo) Create(ctx context.Context, movement *model.StockMovement) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	if movement.CreatedAt.IsZero() {
		movement.CreatedAt = time.Now()
	}
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movements {
		if m.ID == id {
			copied := m
			return &copied, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeMovementRepo) HasReversal(ctx context.Context, movementID uuid.UUID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.movements {
		if m.ReversalOfID != nil && *m.ReversalOfID == movementID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeMovementRepo) ListByArticle(ctx context.Context, articleID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.StockMovement
	for _, m := range f.movements {
		if m.ArticleID == articleID {
			all = append(all, m)
		}
	}
	return all, int64(len(all)), nil
}

func (f *fakeMovementRepo) ListSince(ctx context.Context, since time.Time) ([]model.StockMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.StockMovement
	for _, m := range f.movements {
		if !m.CreatedAt.Before(since) {
			all = append(all, m)
		}
	}
	return all, nil
}

type fakePartnerRepo struct {
	mu       sync.Mutex
	partners map[uuid.UUID]model.Partner
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: make(map[uuid.UUID]model.Partner)}
}

func (f *fakePartnerRepo) Create(ctx context.Context, partner *model.Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if partner.ID == uuid.Nil {
		partner.ID = uuid.New()
	}
	f.partners[partner.ID] = *partner
	return nil
}

func (f *fakePartnerRepo) Update(ctx context.Context, partner *model.Partner) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.partners[partner.ID] = *partner
	return nil
}

func (f *fakePartnerRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Partner, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.partners[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := p
	return &copied, nil
}

func (f *fakePartnerRepo) List(ctx context.Context, partnerType string, page, limit int) ([]model.Partner, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Partner
	for _, p := range f.partners {
		if partnerType == "" || p.Type == partnerType || p.Type == model.PartnerTypeBoth {
			all = append(all, p)
		}
	}
	return all, int64(len(all)), nil
}

type fakeAuditRepo struct {
	mu      sync.Mutex
	entries []model.AuditLog
}

func newFakeAuditRepo() *fakeAuditRepo { return &fakeAuditRepo{} }

func (f *fakeAuditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(ctx context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.AuditLog
	for _, e := range f.entries {
		if action == "" || e.Action == action {
			all = append(all, e)
		}
	}
	return all, int64(len(all)), nil
}

func (f *fakeAuditRepo) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e.Action)
	}
	return out
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]model.Order
	lines  map[uuid.UUID][]model.OrderLine
	seq    int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[uuid.UUID]model.Order),
		lines:  make(map[uuid.UUID][]model.OrderLine),
	}
}

func (f *fakeOrderRepo) Create(ctx context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	f.seq++
	order.CreatedAt = time.Now().Add(time.Duration(f.seq) * time.Millisecond)
	for i := range order.Lines {
		if order.Lines[i].ID == uuid.Nil {
			order.Lines[i].ID = uuid.New()
		}
		order.Lines[i].OrderID = order.ID
	}
	f.lines[order.ID] = append([]model.OrderLine(nil), order.Lines...)
	stored := *order
	stored.Lines = nil
	f.orders[order.ID] = stored
	return nil
}

func (f *fakeOrderRepo) Save(ctx context.Context, order *model.Order) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *order
	stored.Lines = nil
	f.orders[order.ID] = stored
	return nil
}

func (f *fakeOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := o
	return &copied, nil
}

func (f *fakeOrderRepo) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	order, err := f.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	order.Lines = append([]model.OrderLine(nil), f.lines[id]...)
	return order, nil
}

func (f *fakeOrderRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeOrderRepo) FindLines(ctx context.Context, orderID uuid.UUID) ([]model.OrderLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.OrderLine(nil), f.lines[orderID]...), nil
}

func (f *fakeOrderRepo) ReplaceLines(ctx context.Context, orderID uuid.UUID, lines []model.OrderLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range lines {
		if lines[i].ID == uuid.Nil {
			lines[i].ID = uuid.New()
		}
		lines[i].OrderID = orderID
	}
	f.lines[orderID] = append([]model.OrderLine(nil), lines...)
	return nil
}

func (f *fakeOrderRepo) List(ctx context.Context, filter repository.OrderListFilter) ([]model.Order, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Order
	for id, o := range f.orders {
		if filter.CustomerID != nil && o.CustomerID != *filter.CustomerID {
			continue
		}
		if filter.Status != "" && o.Status != filter.Status {
			continue
		}
		if filter.Archived != nil && o.Archived != *filter.Archived {
			continue
		}
		copied := o
		copied.Lines = append([]model.OrderLine(nil), f.lines[id]...)
		all = append(all, copied)
	}
	return all, int64(len(all)), nil
}

func (f *fakeOrderRepo) ListOutstandingByCustomerForUpdate(ctx context.Context, customerID uuid.UUID) ([]model.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Order
	for _, o := range f.orders {
		if o.CustomerID != customerID || o.Archived {
			continue
		}
		if o.Status != model.OrderStatusSaved && o.Status != model.OrderStatusPartiallyPaid {
			continue
		}
		all = append(all, o)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	return all, nil
}

func (f *fakeOrderRepo) ArchivePaidByCustomer(ctx context.Context, customerID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for id, o := range f.orders {
		if o.CustomerID == customerID && o.Status == model.OrderStatusPaid && !o.Archived {
			o.Archived = true
			f.orders[id] = o
			count++
		}
	}
	return count, nil
}

func (f *fakeOrderRepo) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, o := range f.orders {
		if strings.HasPrefix(o.OrderNumber, prefix) {
			count++
		}
	}
	return count, nil
}

type fakePaymentRepo struct {
	mu       sync.Mutex
	payments []model.Payment
	orders   *fakeOrderRepo
}

func newFakePaymentRepo(orders *fakeOrderRepo) *fakePaymentRepo {
	return &fakePaymentRepo{orders: orders}
}

func (f *fakePaymentRepo) Create(ctx context.Context, payment *model.Payment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if payment.ID == uuid.Nil {
		payment.ID = uuid.New()
	}
	payment.CreatedAt = time.Now()
	f.payments = append(f.payments, *payment)
	return nil
}

func (f *fakePaymentRepo) ListByCustomer(ctx context.Context, customerID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Payment
	for _, p := range f.payments {
		if p.CustomerID == customerID {
			copied := p
			if f.orders != nil {
				if o, err := f.orders.FindByID(ctx, p.OrderID); err == nil {
					copied.Order = o
				}
			}
			all = append(all, copied)
		}
	}
	return all, int64(len(all)), nil
}

func (f *fakePaymentRepo) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]model.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []model.Payment
	for _, p := range f.payments {
		if p.OrderID == orderID {
			all = append(all, p)
		}
	}
	return all, nil
}
