package service

import (
	"context"
	"testing"

	"backend/internal/model"
	"backend/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stockFixture struct {
	svc       StockService
	articles  *fakeArticleRepo
	stocks    *fakeStockRepo
	movements *fakeMovementRepo
	partners  *fakePartnerRepo
	audits    *fakeAuditRepo
	notifier  *fakeNotifier
}

func newStockFixture(t *testing.T) *stockFixture {
	t.Helper()
	articles := newFakeArticleRepo()
	stocks := newFakeStockRepo(articles)
	movements := newFakeMovementRepo()
	partners := newFakePartnerRepo()
	audits := newFakeAuditRepo()
	notifier := &fakeNotifier{}

	svc := NewStockService(articles, stocks, movements, partners, audits, &fakeTxManager{}, notifier, zap.NewNop())
	return &stockFixture{
		svc:       svc,
		articles:  articles,
		stocks:    stocks,
		movements: movements,
		partners:  partners,
		audits:    audits,
		notifier:  notifier,
	}
}

func (f *stockFixture) addArticle(t *testing.T, code string, min, max int) *model.Article {
	t.Helper()
	article := &model.Article{
		Code:      code,
		Name:      "article " + code,
		Category:  "Alimentaire",
		UnitPrice: dec("100"),
		StockMin:  min,
		StockMax:  max,
		Active:    true,
	}
	require.NoError(t, f.articles.Create(context.Background(), article))
	return article
}

func (f *stockFixture) entry(t *testing.T, articleID uuid.UUID, qty int, price string) MovementResponse {
	t.Helper()
	res, err := f.svc.RecordEntry(context.Background(), "", StockEntryRequest{
		ArticleID: articleID.String(),
		Quantity:  qty,
		UnitPrice: price,
	})
	require.NoError(t, err)
	return res
}

func (f *stockFixture) exit(t *testing.T, articleID uuid.UUID, qty int) MovementResponse {
	t.Helper()
	res, err := f.svc.RecordExit(context.Background(), "", StockExitRequest{
		ArticleID: articleID.String(),
		Quantity:  qty,
	})
	require.NoError(t, err)
	return res
}

func TestRecordEntryFirstReceipt(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)

	res := f.entry(t, article.ID, 10, "100.00")

	assert.Equal(t, model.MovementEntry, res.Type)
	assert.Equal(t, 0, res.QuantityBefore)
	assert.Equal(t, 10, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "100", *res.WeightedAveragePrice)

	stock, err := f.stocks.FindByArticleID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.QuantityOnHand)
	assert.Equal(t, "100", stock.WeightedAveragePrice.String())
	assert.True(t, f.notifier.seen("stock.entry"))
	assert.Contains(t, f.audits.actions(), model.ActionRecordEntry)
}

func TestRecordEntryBlendsAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)

	f.entry(t, article.ID, 10, "100.00")
	res := f.entry(t, article.ID, 5, "160.00")

	// (10*100 + 5*160) / 15 = 120
	assert.Equal(t, 15, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "120", *res.WeightedAveragePrice)
}

func TestRecordEntryZeroPriceCannotDiluteAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")

	_, err := f.svc.RecordEntry(context.Background(), "", StockEntryRequest{
		ArticleID: article.ID.String(), Quantity: 10, UnitPrice: "0",
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	stock, err := f.stocks.FindByArticleID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, stock.QuantityOnHand)
	assert.Equal(t, "100", stock.WeightedAveragePrice.String())
}

func TestRecordExitKeepsAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100.00")
	f.entry(t, article.ID, 5, "160.00")

	res := f.exit(t, article.ID, 5)

	assert.Equal(t, model.MovementExit, res.Type)
	assert.Equal(t, 10, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "120", *res.WeightedAveragePrice)
	assert.Nil(t, res.UnitPrice)
}

func TestRecordExitInsufficientStock(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 3, "100.00")

	_, err := f.svc.RecordExit(context.Background(), "", StockExitRequest{
		ArticleID: article.ID.String(),
		Quantity:  4,
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))

	// The refused exit left no trace.
	stock, err := f.stocks.FindByArticleID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stock.QuantityOnHand)
}

func TestRecordEntryValidation(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)

	tests := []struct {
		name string
		req  StockEntryRequest
		kind apperr.Kind
	}{
		{"bad price", StockEntryRequest{ArticleID: article.ID.String(), Quantity: 1, UnitPrice: "abc"}, apperr.KindValidation},
		{"negative price", StockEntryRequest{ArticleID: article.ID.String(), Quantity: 1, UnitPrice: "-5"}, apperr.KindValidation},
		{"zero price", StockEntryRequest{ArticleID: article.ID.String(), Quantity: 1, UnitPrice: "0"}, apperr.KindValidation},
		{"zero quantity", StockEntryRequest{ArticleID: article.ID.String(), Quantity: 0, UnitPrice: "10"}, apperr.KindValidation},
		{"bad article id", StockEntryRequest{ArticleID: "nope", Quantity: 1, UnitPrice: "10"}, apperr.KindValidation},
		{"unknown article", StockEntryRequest{ArticleID: uuid.NewString(), Quantity: 1, UnitPrice: "10"}, apperr.KindNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.RecordEntry(context.Background(), "", tt.req)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, tt.kind))
		})
	}
}

func TestRecordEntryRejectsCustomerOnlyPartner(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	customer := &model.Partner{Name: "Acme", Type: model.PartnerTypeCustomer, IsActive: true}
	require.NoError(t, f.partners.Create(context.Background(), customer))

	_, err := f.svc.RecordEntry(context.Background(), "", StockEntryRequest{
		ArticleID: article.ID.String(),
		Quantity:  1,
		UnitPrice: "10",
		PartnerID: customer.ID.String(),
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRecordEntryBatch(t *testing.T) {
	f := newStockFixture(t)
	a := f.addArticle(t, "A-001", 0, 0)
	b := f.addArticle(t, "B-001", 0, 0)

	results, err := f.svc.RecordEntryBatch(context.Background(), "", []StockEntryRequest{
		{ArticleID: a.ID.String(), Quantity: 10, UnitPrice: "100"},
		{ArticleID: b.ID.String(), Quantity: 2, UnitPrice: "50"},
	})
	require.NoError(t, err)
	assert.Len(t, results, 2)

	_, err = f.svc.RecordEntryBatch(context.Background(), "", nil)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestRecordExitBatchFailsOnShortArticle(t *testing.T) {
	f := newStockFixture(t)
	a := f.addArticle(t, "A-001", 0, 0)
	b := f.addArticle(t, "B-001", 0, 0)
	f.entry(t, a.ID, 10, "100")
	f.entry(t, b.ID, 1, "50")

	_, err := f.svc.RecordExitBatch(context.Background(), "", []StockExitRequest{
		{ArticleID: a.ID.String(), Quantity: 5},
		{ArticleID: b.ID.String(), Quantity: 2},
	})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
}

func TestReverseExitRestoresQuantity(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	exit := f.exit(t, article.ID, 4)

	res, err := f.svc.ReverseMovement(context.Background(), "", exit.ID)
	require.NoError(t, err)

	assert.True(t, res.IsReversal)
	assert.Equal(t, model.MovementEntry, res.Type)
	require.NotNil(t, res.ReversalOfID)
	assert.Equal(t, exit.ID, *res.ReversalOfID)
	assert.Equal(t, 10, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "100", *res.WeightedAveragePrice)
}

func TestReverseMovementTwiceConflicts(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	exit := f.exit(t, article.ID, 4)

	_, err := f.svc.ReverseMovement(context.Background(), "", exit.ID)
	require.NoError(t, err)

	_, err = f.svc.ReverseMovement(context.Background(), "", exit.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestReverseAReversalConflicts(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	exit := f.exit(t, article.ID, 4)

	reversal, err := f.svc.ReverseMovement(context.Background(), "", exit.ID)
	require.NoError(t, err)

	_, err = f.svc.ReverseMovement(context.Background(), "", reversal.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindConflict))
}

func TestReverseEntryRestoresAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	second := f.entry(t, article.ID, 5, "160")

	res, err := f.svc.ReverseMovement(context.Background(), "", second.ID)
	require.NoError(t, err)

	// (15*120 - 5*160) / 10 = 100
	assert.Equal(t, model.MovementExit, res.Type)
	assert.Equal(t, 10, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "100", *res.WeightedAveragePrice)
}

func TestReverseEntryToZeroFlagsReconciliation(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	entry := f.entry(t, article.ID, 10, "100")

	res, err := f.svc.ReverseMovement(context.Background(), "", entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.QuantityAfter)
	require.NotNil(t, res.WeightedAveragePrice)
	assert.Equal(t, "0", *res.WeightedAveragePrice)

	stock, err := f.stocks.FindByArticleID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.True(t, stock.NeedsReconciliation)
	assert.Equal(t, 0, stock.QuantityOnHand)
}

func TestReverseEntryInsufficientStock(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	entry := f.entry(t, article.ID, 10, "100")
	f.exit(t, article.ID, 6)

	_, err := f.svc.ReverseMovement(context.Background(), "", entry.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindInsufficientStock))
}

func TestReverseEntryNegativeAverageRefused(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	expensive := f.entry(t, article.ID, 2, "500")
	f.entry(t, article.ID, 8, "10")
	f.exit(t, article.ID, 7)

	// (3*108 - 2*500) / 1 = -676: refused, flagged instead.
	_, err := f.svc.ReverseMovement(context.Background(), "", expensive.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindReconciliationRequired))

	stock, err := f.stocks.FindByArticleID(context.Background(), article.ID)
	require.NoError(t, err)
	assert.True(t, stock.NeedsReconciliation)
	assert.Equal(t, 3, stock.QuantityOnHand)
}

func TestReverseUnknownMovement(t *testing.T) {
	f := newStockFixture(t)
	_, err := f.svc.ReverseMovement(context.Background(), "", uuid.NewString())
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCurrentStateWithoutMovements(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 5, 50)

	state, err := f.svc.CurrentState(context.Background(), article.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, state.QuantityOnHand)
	assert.Equal(t, model.StockStatusEmpty, state.Status)
	assert.Equal(t, "0", state.TotalValue)

	// Reading state never creates a stock row.
	_, err = f.stocks.FindByArticleID(context.Background(), article.ID)
	assert.Error(t, err)
}

func TestCurrentStateClassifies(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 10, 100)
	f.entry(t, article.ID, 4, "100")

	state, err := f.svc.CurrentState(context.Background(), article.ID.String())
	require.NoError(t, err)
	assert.Equal(t, model.StockStatusCritical, state.Status)
	assert.Equal(t, "400", state.TotalValue)
}

func TestStockAlertsBuckets(t *testing.T) {
	f := newStockFixture(t)
	critical := f.addArticle(t, "CRIT", 10, 100)
	low := f.addArticle(t, "LOW", 10, 100)
	normal := f.addArticle(t, "NORM", 10, 100)
	excessive := f.addArticle(t, "EXC", 10, 100)
	empty := f.addArticle(t, "EMPTY", 10, 100)

	f.entry(t, critical.ID, 4, "10")
	f.entry(t, low.ID, 8, "10")
	f.entry(t, normal.ID, 50, "10")
	f.entry(t, excessive.ID, 120, "10")
	f.entry(t, empty.ID, 2, "10")
	f.exit(t, empty.ID, 2)

	alerts, err := f.svc.StockAlerts(context.Background())
	require.NoError(t, err)

	assert.Len(t, alerts.Critical, 1)
	assert.Len(t, alerts.Low, 1)
	assert.Len(t, alerts.Excessive, 1)
	assert.Len(t, alerts.Empty, 1)
	assert.Equal(t, "CRIT", alerts.Critical[0].ArticleCode)
	assert.Equal(t, "LOW", alerts.Low[0].ArticleCode)
	assert.Equal(t, "EXC", alerts.Excessive[0].ArticleCode)
	assert.Equal(t, "EMPTY", alerts.Empty[0].ArticleCode)
}

func TestHistoryPaging(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	f.exit(t, article.ID, 2)
	f.exit(t, article.ID, 3)

	history, total, err := f.svc.History(context.Background(), article.ID.String(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, history, 3)
}

func TestHistoryOmitsRunningAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	f.entry(t, article.ID, 5, "160")

	history, _, err := f.svc.History(context.Background(), article.ID.String(), 1, 20)
	require.NoError(t, err)
	require.Len(t, history, 2)
	// The average was 100 after the first entry and 120 after the second;
	// stamping today's value on old rows would misreport them.
	for _, m := range history {
		assert.Nil(t, m.WeightedAveragePrice)
	}
}

func TestTodayMovementsOmitsRunningAverage(t *testing.T) {
	f := newStockFixture(t)
	article := f.addArticle(t, "A-001", 0, 0)
	f.entry(t, article.ID, 10, "100")
	f.exit(t, article.ID, 3)

	movements, err := f.svc.TodayMovements(context.Background())
	require.NoError(t, err)
	require.Len(t, movements, 2)
	for _, m := range movements {
		assert.Nil(t, m.WeightedAveragePrice)
	}
}
