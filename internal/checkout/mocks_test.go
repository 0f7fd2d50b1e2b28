package checkout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/payment"
	"eadshop_back_end/internal/store"
)

type fakeGateway struct {
	mu       sync.Mutex
	calls    int
	requests []models.IntentRequest
	err      error
	delay    time.Duration
	notReady bool
}

func (g *fakeGateway) Ready() error {
	if g.notReady {
		return &config.ConfigurationError{Key: "STRIPE_SECRET_KEY"}
	}
	return nil
}

func (g *fakeGateway) MinimumAmount(currency string) int64 {
	return payment.MinimumAmount(currency)
}

func (g *fakeGateway) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	g.mu.Lock()
	g.calls++
	g.requests = append(g.requests, req)
	g.mu.Unlock()

	if g.delay > 0 {
		time.Sleep(g.delay)
	}
	if g.err != nil {
		return nil, g.err
	}
	return &models.PaymentIntent{
		GatewayID:        "pi_" + req.IdempotencyKey,
		ClientSecret:     "pi_" + req.IdempotencyKey + "_secret",
		AmountMinorUnits: req.AmountMinorUnits,
		Currency:         req.Currency,
	}, nil
}

func (g *fakeGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakeNotifier struct {
	calls atomic.Int32
	err   error
}

func (n *fakeNotifier) Send(ctx context.Context, customerEmail string, order *models.Order) error {
	n.calls.Add(1)
	return n.err
}

// flakyStore échoue à l'enregistrement des commandes dans le statut donné
type flakyStore struct {
	*store.MemoryStore
	failStatus models.OrderStatus
	lookupErr  error
}

func (s *flakyStore) Save(ctx context.Context, order *models.Order) error {
	if order.Status == s.failStatus {
		return errors.New("mongo: connection reset")
	}
	return s.MemoryStore.Save(ctx, order)
}

func (s *flakyStore) FindByIdempotencyKey(ctx context.Context, key string) (*models.Order, error) {
	if s.lookupErr != nil {
		return nil, s.lookupErr
	}
	return s.MemoryStore.FindByIdempotencyKey(ctx, key)
}

type countingObserver struct {
	mu       sync.Mutex
	outcomes map[string]int
	failures int
}

func newCountingObserver() *countingObserver {
	return &countingObserver{outcomes: make(map[string]int)}
}

func (o *countingObserver) CheckoutOutcome(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes[outcome]++
}

func (o *countingObserver) NotificationFailed() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures++
}

func (o *countingObserver) count(outcome string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.outcomes[outcome]
}

func testConfig() *config.Config {
	return &config.Config{
		PaymentTimeout: time.Second,
		StoreTimeout:   time.Second,
		NotifyTimeout:  time.Second,
		LockWait:       2 * time.Second,
	}
}

func newTestService(gw *fakeGateway, orders store.Store, notifier Notifier) (*Service, *countingObserver) {
	svc := NewService(testConfig(), gw, orders, notifier, NewLocalLocker())
	var seq atomic.Int64
	svc.newID = func() string { return fmt.Sprintf("ord-%d", seq.Add(1)) }
	obs := newCountingObserver()
	svc.SetObserver(obs)
	return svc, obs
}

func canottaCart(quantity int) *models.ReconciledCart {
	item := models.CatalogItem{ID: "prod_canotta", Name: "Canotta", UnitPriceMinorUnits: 2500, Currency: "eur"}
	return &models.ReconciledCart{
		Lines:           []models.ReconciledLine{{Item: item, Quantity: quantity, LineTotalMinorUnits: 2500 * int64(quantity)}},
		TotalMinorUnits: 2500 * int64(quantity),
		Currency:        "eur",
	}
}

// slowPendingStore ignore le contexte et met du temps à écrire les commandes en attente
type slowPendingStore struct {
	*store.MemoryStore
	delay time.Duration

	mu       sync.Mutex
	statuses []models.OrderStatus
	// fermé une fois la commande en attente écrite
	pendingSaved chan struct{}
}

func (s *slowPendingStore) Save(ctx context.Context, order *models.Order) error {
	pending := order.Status == models.StatusPendingPayment
	if pending {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	s.statuses = append(s.statuses, order.Status)
	s.mu.Unlock()
	if pending {
		close(s.pendingSaved)
	}
	return nil
}

func (s *slowPendingStore) seen() []models.OrderStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.OrderStatus(nil), s.statuses...)
}
