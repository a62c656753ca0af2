package billing

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-billing-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// fakeLedger keeps state in maps. WithinTx holds the mutex for the whole
// unit of work, which serializes it like row locks would, and restores a
// snapshot when fn fails.
type fakeLedger struct {
	mu       sync.Mutex
	products map[string]*domain.Product
	orders   map[string]*domain.Order
	txs      map[string]*domain.Transaction
	txOrder  []string
	wallets  map[string]*domain.Wallet

	failCreateTransaction error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		products: map[string]*domain.Product{},
		orders:   map[string]*domain.Order{},
		txs:      map[string]*domain.Transaction{},
		wallets:  map[string]*domain.Wallet{},
	}
}

func (l *fakeLedger) addProduct(id, price string, qty int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.products[id] = &domain.Product{ID: id, Name: "Product " + id, Price: dec(price), Quantity: qty, IsOutOfStock: qty == 0}
}

func (l *fakeLedger) addWallet(userID, balance string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.wallets[userID] = &domain.Wallet{ID: "w-" + userID, UserID: userID, Balance: dec(balance)}
}

func (l *fakeLedger) product(id string) domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()
	return *l.products[id]
}

func (l *fakeLedger) balance(userID string) decimal.Decimal {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.wallets[userID].Balance
}

func (l *fakeLedger) allOrders() []*domain.Order {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*domain.Order, 0, len(l.orders))
	for _, o := range l.orders {
		out = append(out, cloneOrder(o))
	}
	return out
}

func (l *fakeLedger) allTransactions() []*domain.Transaction {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]*domain.Transaction, 0, len(l.txOrder))
	for _, id := range l.txOrder {
		out = append(out, cloneTx(l.txs[id]))
	}
	return out
}

func cloneProduct(p *domain.Product) *domain.Product {
	c := *p
	return &c
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Products = append([]domain.OrderProduct(nil), o.Products...)
	return &c
}

func cloneTx(t *domain.Transaction) *domain.Transaction {
	c := *t
	if t.OrderID != nil {
		id := *t.OrderID
		c.OrderID = &id
	}
	return &c
}

func cloneWallet(w *domain.Wallet) *domain.Wallet {
	c := *w
	return &c
}

type ledgerSnapshot struct {
	products map[string]*domain.Product
	orders   map[string]*domain.Order
	txs      map[string]*domain.Transaction
	txOrder  []string
	wallets  map[string]*domain.Wallet
}

func (l *fakeLedger) snapshot() ledgerSnapshot {
	s := ledgerSnapshot{
		products: make(map[string]*domain.Product, len(l.products)),
		orders:   make(map[string]*domain.Order, len(l.orders)),
		txs:      make(map[string]*domain.Transaction, len(l.txs)),
		txOrder:  append([]string(nil), l.txOrder...),
		wallets:  make(map[string]*domain.Wallet, len(l.wallets)),
	}
	for k, v := range l.products {
		s.products[k] = cloneProduct(v)
	}
	for k, v := range l.orders {
		s.orders[k] = cloneOrder(v)
	}
	for k, v := range l.txs {
		s.txs[k] = cloneTx(v)
	}
	for k, v := range l.wallets {
		s.wallets[k] = cloneWallet(v)
	}
	return s
}

func (l *fakeLedger) restore(s ledgerSnapshot) {
	l.products, l.orders, l.txs, l.txOrder, l.wallets = s.products, s.orders, s.txs, s.txOrder, s.wallets
}

func (l *fakeLedger) WithinTx(ctx context.Context, fn func(tx domain.LedgerTx) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap := l.snapshot()
	if err := fn(&fakeLedgerTx{l: l}); err != nil {
		l.restore(snap)
		return err
	}
	return nil
}

func (l *fakeLedger) GetProductsByIDs(ctx context.Context, ids []string) ([]*domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := l.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (l *fakeLedger) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (l *fakeLedger) FindOrderByPaymentIntentID(ctx context.Context, intentID string) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, o := range l.orders {
		if o.PaymentIntentID != "" && o.PaymentIntentID == intentID {
			return cloneOrder(o), nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (l *fakeLedger) GetTransactionByID(ctx context.Context, txID string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	t, ok := l.txs[txID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTx(t), nil
}

func (l *fakeLedger) FindTransactionByReference(ctx context.Context, reference string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range l.txOrder {
		if t := l.txs[id]; t.Reference == reference {
			return cloneTx(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (l *fakeLedger) FindTransactionByOrderID(ctx context.Context, orderID string) (*domain.Transaction, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, id := range l.txOrder {
		t := l.txs[id]
		if t.OrderID != nil && *t.OrderID == orderID && t.AlertType != domain.AlertReverse {
			return cloneTx(t), nil
		}
	}
	return nil, domain.ErrTransactionNotFound
}

func (l *fakeLedger) GetWalletByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	w, ok := l.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (l *fakeLedger) ListOrders(ctx context.Context, f domain.OrderFilter, page domain.Pagination) ([]*domain.Order, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var all []*domain.Order
	for _, o := range l.orders {
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		if f.UserID != "" && o.Buyer.UserID != f.UserID {
			continue
		}
		if f.Email != "" && o.Buyer.Email != f.Email {
			continue
		}
		if f.IsDelivered != nil && o.IsDelivered != *f.IsDelivered {
			continue
		}
		all = append(all, cloneOrder(o))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Reference < all[j].Reference })
	return paginate(all, page), int64(len(all)), nil
}

func (l *fakeLedger) ListTransactions(ctx context.Context, f domain.TransactionFilter, page domain.Pagination) ([]*domain.Transaction, int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	var all []*domain.Transaction
	for _, id := range l.txOrder {
		t := l.txs[id]
		if f.OrderID != "" && (t.OrderID == nil || *t.OrderID != f.OrderID) {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		if f.AlertType != "" && t.AlertType != f.AlertType {
			continue
		}
		if f.PaymentMethod != "" && t.PaymentMethod != f.PaymentMethod {
			continue
		}
		if f.UserID != "" && t.UserID != f.UserID {
			continue
		}
		if f.Reference != "" && t.Reference != f.Reference {
			continue
		}
		if !f.CreatedBefore.IsZero() && !t.CreatedAt.Before(f.CreatedBefore) {
			continue
		}
		all = append(all, cloneTx(t))
	}
	return paginate(all, page), int64(len(all)), nil
}

func paginate[T any](items []T, page domain.Pagination) []T {
	page = page.Normalize()
	start := page.Offset()
	if start >= len(items) {
		return nil
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func (l *fakeLedger) UpdateOrderTracker(ctx context.Context, orderID string, u domain.TrackerUpdate) (*domain.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	o, ok := l.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	if u.IsDelivered != nil {
		o.IsDelivered = *u.IsDelivered
	}
	if u.DeliveryNote != nil {
		o.DeliveryNote = *u.DeliveryNote
	}
	return cloneOrder(o), nil
}

// fakeLedgerTx runs with fakeLedger.mu already held.
type fakeLedgerTx struct {
	l *fakeLedger
}

func (t *fakeLedgerTx) LockProducts(ids []string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, id := range ids {
		if p, ok := t.l.products[id]; ok {
			out = append(out, cloneProduct(p))
		}
	}
	return out, nil
}

func (t *fakeLedgerTx) LockWalletByUserID(userID string) (*domain.Wallet, error) {
	w, ok := t.l.wallets[userID]
	if !ok {
		return nil, domain.ErrWalletNotFound
	}
	return cloneWallet(w), nil
}

func (t *fakeLedgerTx) LockTransaction(txID string) (*domain.Transaction, error) {
	tx, ok := t.l.txs[txID]
	if !ok {
		return nil, domain.ErrTransactionNotFound
	}
	return cloneTx(tx), nil
}

func (t *fakeLedgerTx) GetOrderByID(orderID string) (*domain.Order, error) {
	o, ok := t.l.orders[orderID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (t *fakeLedgerTx) RefundedAmount(orderID string) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, tx := range t.l.txs {
		if tx.OrderID != nil && *tx.OrderID == orderID && tx.AlertType == domain.AlertReverse {
			total = total.Add(tx.Amount)
		}
	}
	return total, nil
}

func (t *fakeLedgerTx) CreateOrder(order *domain.Order) error {
	if _, exists := t.l.orders[order.ID]; exists {
		return fmt.Errorf("duplicate order %s", order.ID)
	}
	t.l.orders[order.ID] = cloneOrder(order)
	return nil
}

func (t *fakeLedgerTx) UpdateOrderPayment(orderID string, status domain.OrderStatus, reference string) error {
	o, ok := t.l.orders[orderID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	o.Reference = reference
	return nil
}

func (t *fakeLedgerTx) CreateTransaction(tx *domain.Transaction) error {
	if t.l.failCreateTransaction != nil {
		return t.l.failCreateTransaction
	}
	t.l.txs[tx.ID] = cloneTx(tx)
	t.l.txOrder = append(t.l.txOrder, tx.ID)
	return nil
}

func (t *fakeLedgerTx) UpdateTransactionStatus(txID string, status domain.TransactionStatus) error {
	tx, ok := t.l.txs[txID]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	tx.Status = status
	return nil
}

func (t *fakeLedgerTx) UpdateWalletBalance(walletID string, balance decimal.Decimal) error {
	if balance.IsNegative() {
		return errors.New("wallet balance would go negative")
	}
	for _, w := range t.l.wallets {
		if w.ID == walletID {
			w.Balance = balance
			return nil
		}
	}
	return domain.ErrWalletNotFound
}

func (t *fakeLedgerTx) UpdateProductStock(productID string, quantity int, outOfStock bool) error {
	if quantity < 0 {
		return errors.New("stock would go negative")
	}
	p, ok := t.l.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	p.Quantity = quantity
	p.IsOutOfStock = outOfStock
	return nil
}

type fakeIntentGateway struct {
	mu            sync.Mutex
	createErr     error
	createStatus  domain.GatewayStatus
	intents       map[string]*domain.IntentDetails
	retrieveCalls int
	refunds       []*decimal.Decimal
	seq           int
}

func newFakeIntentGateway() *fakeIntentGateway {
	return &fakeIntentGateway{intents: map[string]*domain.IntentDetails{}, createStatus: domain.GatewayPending}
}

func (g *fakeIntentGateway) CreateIntent(ctx context.Context, amount decimal.Decimal, email string, metadata map[string]string) (*domain.Intent, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.seq++
	id := fmt.Sprintf("pi_%d", g.seq)
	g.intents[id] = &domain.IntentDetails{ID: id, Status: domain.GatewayPending, RawStatus: "requires_payment_method", Amount: amount, Metadata: metadata}
	return &domain.Intent{ID: id, ClientSecret: id + "_secret", Status: g.createStatus, RawStatus: string(g.createStatus)}, nil
}

func (g *fakeIntentGateway) setStatus(id string, st domain.GatewayStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.intents[id].Status = st
	g.intents[id].RawStatus = string(st)
}

func (g *fakeIntentGateway) RetrieveIntent(ctx context.Context, intentID string) (*domain.IntentDetails, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.retrieveCalls++
	d, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	c := *d
	return &c, nil
}

func (g *fakeIntentGateway) Refund(ctx context.Context, intentID string, amount *decimal.Decimal) (*domain.Refund, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	d, ok := g.intents[intentID]
	if !ok {
		return nil, errors.New("no such payment_intent")
	}
	g.refunds = append(g.refunds, amount)
	refunded := d.Amount
	if amount != nil {
		refunded = *amount
	}
	return &domain.Refund{ID: fmt.Sprintf("re_%d", len(g.refunds)), Amount: refunded, Status: "succeeded"}, nil
}

type fakeRedirectGateway struct {
	mu          sync.Mutex
	authErr     error
	statuses    map[string]domain.GatewayStatus
	verifyCalls int
	seq         int
}

func newFakeRedirectGateway() *fakeRedirectGateway {
	return &fakeRedirectGateway{statuses: map[string]domain.GatewayStatus{}}
}

func (g *fakeRedirectGateway) CreateAuthorization(ctx context.Context, amountMinor int64, email string) (*domain.Authorization, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.authErr != nil {
		return nil, g.authErr
	}
	g.seq++
	ref := fmt.Sprintf("ps_%d", g.seq)
	g.statuses[ref] = domain.GatewayPending
	return &domain.Authorization{
		AuthorizationURL: "https://checkout.example.com/" + ref,
		Reference:        ref,
		Status:           domain.GatewayPending,
	}, nil
}

func (g *fakeRedirectGateway) setStatus(ref string, st domain.GatewayStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[ref] = st
}

func (g *fakeRedirectGateway) Verify(ctx context.Context, reference string) (*domain.Verification, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.verifyCalls++
	st, ok := g.statuses[reference]
	if !ok {
		return nil, errors.New("transaction reference not found")
	}
	return &domain.Verification{Reference: reference, Status: st, RawStatus: string(st)}, nil
}

type enqueuedJob struct {
	Kind     domain.NotificationKind
	Snapshot domain.OrderSnapshot
}

type recordingEnqueuer struct {
	mu   sync.Mutex
	jobs []enqueuedJob
}

func (e *recordingEnqueuer) Enqueue(kind domain.NotificationKind, payload domain.OrderSnapshot) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.jobs = append(e.jobs, enqueuedJob{Kind: kind, Snapshot: payload})
	return fmt.Sprintf("job-%d", len(e.jobs))
}

func (e *recordingEnqueuer) kinds() []domain.NotificationKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.NotificationKind, 0, len(e.jobs))
	for _, j := range e.jobs {
		out = append(out, j.Kind)
	}
	return out
}

type fakePublisher struct {
	mu     sync.Mutex
	events []domain.OrderEvent
}

func (p *fakePublisher) PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

type fakeLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

func (l *fakeLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
	}, true, nil
}

type fakeFailureLog struct {
	mu      sync.Mutex
	entries []*domain.UncreatedOrder
}

func (f *fakeFailureLog) CreateLog(ctx context.Context, log *domain.UncreatedOrder) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, log)
	return nil
}

func (f *fakeFailureLog) GetLogsWithFilters(ctx context.Context, filter *domain.UncreatedOrdersFilter, page domain.Pagination) ([]*domain.UncreatedOrder, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, int64(len(f.entries)), nil
}

type testEnv struct {
	uc       *DefaultBillingUsecase
	ledger   *fakeLedger
	intents  *fakeIntentGateway
	redirect *fakeRedirectGateway
	queue    *recordingEnqueuer
	events   *fakePublisher
	locker   *fakeLocker
	failures *fakeFailureLog
	now      time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ledger:   newFakeLedger(),
		intents:  newFakeIntentGateway(),
		redirect: newFakeRedirectGateway(),
		queue:    &recordingEnqueuer{},
		events:   &fakePublisher{},
		locker:   &fakeLocker{held: map[string]bool{}},
		failures: &fakeFailureLog{},
		now:      time.Date(2024, 5, 10, 9, 30, 0, 0, time.UTC),
	}
	refSeq := 0
	uc, err := NewDefaultBillingUsecase(env.ledger, env.intents, env.redirect, env.queue, zap.NewNop(),
		WithEventPublisher(env.events),
		WithVerificationLocker(env.locker, time.Minute),
		WithFailureLog(env.failures),
		WithClock(func() time.Time { return env.now }),
		WithReferenceGenerator(func() string {
			refSeq++
			return fmt.Sprintf("REF%03d", refSeq)
		}),
	)
	require.NoError(t, err)
	env.uc = uc
	return env
}
