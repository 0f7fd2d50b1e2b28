package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/payment"
	"eadshop_back_end/internal/pricing"
	"eadshop_back_end/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout_PaysPersistsAndNotifies(t *testing.T) {
	gw := &fakeGateway{}
	orders := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc, obs := newTestService(gw, orders, notifier)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it"})
	svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, "ord-1", result.OrderID)
	assert.Equal(t, "pi_ord-1_secret", result.ClientSecret)
	assert.Equal(t, int64(5000), result.TotalMinorUnits)
	assert.Equal(t, models.StatusPaid, result.Status)

	stored, err := orders.FindByID(context.Background(), "ord-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
	assert.Equal(t, "ord-1", stored.IdempotencyKey)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "ord-1", gw.requests[0].IdempotencyKey)
	assert.Equal(t, int64(5000), gw.requests[0].AmountMinorUnits)
	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.Equal(t, 1, obs.count(OutcomePaid))
}

func TestCheckout_SameKeyReplaysWithoutSecondCharge(t *testing.T) {
	gw := &fakeGateway{}
	notifier := &fakeNotifier{}
	svc, obs := newTestService(gw, store.NewMemoryStore(), notifier)
	req := Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "checkout-abc"}

	first, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	second, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	svc.Wait()

	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, first.ClientSecret, second.ClientSecret)
	assert.False(t, first.Replayed)
	assert.True(t, second.Replayed)
	assert.Equal(t, 1, gw.Calls())
	assert.Equal(t, int32(1), notifier.calls.Load())
	assert.Equal(t, 1, obs.count(OutcomeReplayed))
}

func TestCheckout_KeyReusedForDifferentCart(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})
	require.NoError(t, err)

	_, err = svc.Checkout(context.Background(), Request{Cart: canottaCart(3), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})

	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
	assert.Equal(t, 1, gw.Calls())
}

func TestCheckout_KeyReusedByAnotherCustomer(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})
	require.NoError(t, err)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "altro@example.it", IdempotencyKey: "k"})

	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
	assert.Nil(t, result)
	assert.Equal(t, 1, gw.Calls())
}

func TestCheckout_KeyReusedForSameTotalDifferentItems(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})
	require.NoError(t, err)

	other := canottaCart(2)
	other.Lines[0].Item.ID = "prod_tshirt_logo"
	_, err = svc.Checkout(context.Background(), Request{Cart: other, CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})

	assert.ErrorIs(t, err, ErrIdempotencyKeyReused)
	assert.Equal(t, 1, gw.Calls())
}

func TestCheckout_ReplayIgnoresEmailCase(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	first, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})
	require.NoError(t, err)
	second, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "Cliente@Example.it", IdempotencyKey: "k"})

	require.NoError(t, err)
	assert.Equal(t, first.OrderID, second.OrderID)
	assert.Equal(t, 1, gw.Calls())
}

func TestCheckout_SlowStoreGetsItsOwnSnapshot(t *testing.T) {
	gw := &fakeGateway{}
	orders := &slowPendingStore{MemoryStore: store.NewMemoryStore(), delay: 200 * time.Millisecond, pendingSaved: make(chan struct{})}
	svc, _ := newTestService(gw, orders, nil)
	svc.storeTimeout = 30 * time.Millisecond

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it"})
	require.NoError(t, err)
	select {
	case <-orders.pendingSaved:
	case <-time.After(2 * time.Second):
		t.Fatal("écriture en attente jamais terminée")
	}

	assert.Equal(t, models.StatusPaid, result.Status)
	// l'écriture en retard garde le statut qu'elle avait au départ
	assert.ElementsMatch(t, []models.OrderStatus{models.StatusPaid, models.StatusPendingPayment}, orders.seen())
}

func TestCheckout_ConcurrentSameKeySingleGatewayCall(t *testing.T) {
	gw := &fakeGateway{delay: 50 * time.Millisecond}
	svc, _ := newTestService(gw, store.NewMemoryStore(), &fakeNotifier{})
	req := Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it", IdempotencyKey: "double-clic"}

	const n = 5
	var wg sync.WaitGroup
	results := make([]*Result, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.Checkout(context.Background(), req)
		}(i)
	}
	wg.Wait()
	svc.Wait()

	assert.Equal(t, 1, gw.Calls())
	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, results[0].OrderID, results[i].OrderID)
	}
}

func TestCheckout_LockTimeoutMeansInProgress(t *testing.T) {
	gw := &fakeGateway{}
	locker := NewLocalLocker()
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)
	svc.locker = locker
	svc.lockWait = 20 * time.Millisecond

	unlock, err := locker.Lock(context.Background(), "checkout:busy")
	require.NoError(t, err)
	defer unlock()

	_, err = svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it", IdempotencyKey: "busy"})

	assert.ErrorIs(t, err, ErrCheckoutInProgress)
	assert.Equal(t, 0, gw.Calls())
}

func TestCheckout_AmountTooSmall(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)
	cart := &models.ReconciledCart{
		Lines:           []models.ReconciledLine{{Item: models.CatalogItem{ID: "prod_spilla", UnitPriceMinorUnits: 30, Currency: "eur"}, Quantity: 1, LineTotalMinorUnits: 30}},
		TotalMinorUnits: 30,
		Currency:        "eur",
	}

	_, err := svc.Checkout(context.Background(), Request{Cart: cart, CustomerEmail: "cliente@example.it"})

	var tooSmall *AmountTooSmallError
	require.True(t, errors.As(err, &tooSmall))
	assert.Equal(t, int64(50), tooSmall.Minimum)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Equal(t, 0, gw.Calls())
}

func TestCheckout_ValidationBeforeAnyCall(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "  "})
	assert.ErrorIs(t, err, ErrMissingEmail)

	_, err = svc.Checkout(context.Background(), Request{Cart: &models.ReconciledCart{}, CustomerEmail: "cliente@example.it"})
	assert.ErrorIs(t, err, pricing.ErrEmptyCart)

	assert.Equal(t, 0, gw.Calls())
}

func TestCheckout_GatewayNotConfigured(t *testing.T) {
	gw := &fakeGateway{notReady: true}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it"})

	var cfgErr *config.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, 0, gw.Calls())
}

func TestCheckout_GatewayFailureMarksOrderFailed(t *testing.T) {
	gw := &fakeGateway{err: &payment.GatewayError{Reason: "Your card was declined.", Code: "card_declined"}}
	orders := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc, obs := newTestService(gw, orders, notifier)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k-fail"})
	svc.Wait()

	assert.Nil(t, result)
	var failed *PaymentFailedError
	require.True(t, errors.As(err, &failed))
	assert.Equal(t, "Your card was declined.", failed.Reason)

	stored, err := orders.FindByID(context.Background(), failed.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusFailed, stored.Status)

	paid, err := orders.List(context.Background(), store.ListFilter{Status: models.StatusPaid})
	require.NoError(t, err)
	assert.Empty(t, paid)
	assert.Equal(t, int32(0), notifier.calls.Load())
	assert.Equal(t, 1, obs.count(OutcomePaymentFailed))

	// le rejeu renvoie l'échec sans rappeler la passerelle
	_, err = svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k-fail"})
	require.True(t, errors.As(err, &failed))
	assert.True(t, failed.Replayed)
	assert.Equal(t, 1, gw.Calls())
}

func TestCheckout_GatewayTimeoutIsPaymentFailure(t *testing.T) {
	gw := &fakeGateway{delay: 300 * time.Millisecond}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)
	svc.paymentTimeout = 20 * time.Millisecond

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it"})

	var failed *PaymentFailedError
	require.True(t, errors.As(err, &failed))
	var timeout *StageTimeoutError
	assert.True(t, errors.As(err, &timeout))
}

func TestCheckout_PersistenceDegradedKeepsClientSecret(t *testing.T) {
	gw := &fakeGateway{}
	orders := &flakyStore{MemoryStore: store.NewMemoryStore(), failStatus: models.StatusPaid}
	notifier := &fakeNotifier{}
	svc, obs := newTestService(gw, orders, notifier)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it"})
	svc.Wait()

	var degraded *PersistenceDegradedError
	require.True(t, errors.As(err, &degraded))
	require.NotNil(t, result)
	assert.Equal(t, "pi_ord-1_secret", result.ClientSecret)
	assert.Equal(t, result, degraded.Result)
	assert.Equal(t, int32(0), notifier.calls.Load())
	assert.Equal(t, 1, obs.count(OutcomePersistenceDegraded))
}

func TestCheckout_NotifierFailureDoesNotAffectResult(t *testing.T) {
	gw := &fakeGateway{}
	notifier := &fakeNotifier{err: errors.New("smtp: 421 service not available")}
	svc, obs := newTestService(gw, store.NewMemoryStore(), notifier)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it"})
	svc.Wait()

	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, result.Status)
	assert.Equal(t, int32(1), notifier.calls.Load())
	obs.mu.Lock()
	assert.Equal(t, 1, obs.failures)
	obs.mu.Unlock()
}

func TestCheckout_LookupErrorFailsClosed(t *testing.T) {
	gw := &fakeGateway{}
	orders := &flakyStore{MemoryStore: store.NewMemoryStore(), lookupErr: errors.New("mongo: server selection timeout")}
	svc, _ := newTestService(gw, orders, nil)

	_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it", IdempotencyKey: "k"})

	require.Error(t, err)
	assert.Equal(t, 0, gw.Calls())
}

func TestCheckout_ResumesPendingOrderWithSameGatewayKey(t *testing.T) {
	gw := &fakeGateway{}
	orders := store.NewMemoryStore()
	pending := models.NewPendingOrder("ord-ancien", "k-reprise", *canottaCart(2), "cliente@example.it", nil, time.Now())
	require.NoError(t, orders.Save(context.Background(), pending))
	svc, _ := newTestService(gw, orders, nil)

	result, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(2), CustomerEmail: "cliente@example.it", IdempotencyKey: "k-reprise"})

	require.NoError(t, err)
	assert.Equal(t, "ord-ancien", result.OrderID)
	require.Len(t, gw.requests, 1)
	assert.Equal(t, "ord-ancien", gw.requests[0].IdempotencyKey)
}

func TestCheckout_ClientDisconnectDoesNotCancelStages(t *testing.T) {
	gw := &fakeGateway{delay: 30 * time.Millisecond}
	orders := store.NewMemoryStore()
	svc, _ := newTestService(gw, orders, nil)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()
	result, err := svc.Checkout(ctx, Request{Cart: canottaCart(1), CustomerEmail: "cliente@example.it"})

	require.NoError(t, err)
	stored, err := orders.FindByID(context.Background(), result.OrderID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, stored.Status)
}

func TestResendConfirmation(t *testing.T) {
	orders := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	svc, _ := newTestService(&fakeGateway{}, orders, notifier)

	paid := models.NewPendingOrder("ord-paid", "ord-paid", *canottaCart(1), "cliente@example.it", nil, time.Now())
	require.NoError(t, paid.MarkPaid(&models.PaymentIntent{GatewayID: "pi_1"}, time.Now()))
	require.NoError(t, orders.Save(context.Background(), paid))

	failed := models.NewPendingOrder("ord-failed", "ord-failed", *canottaCart(1), "cliente@example.it", nil, time.Now())
	require.NoError(t, failed.MarkFailed("declined", time.Now()))
	require.NoError(t, orders.Save(context.Background(), failed))

	assert.NoError(t, svc.ResendConfirmation(context.Background(), "ord-paid"))
	assert.Equal(t, int32(1), notifier.calls.Load())

	assert.ErrorIs(t, svc.ResendConfirmation(context.Background(), "ord-failed"), ErrOrderNotPaid)
	assert.ErrorIs(t, svc.ResendConfirmation(context.Background(), "inconnue"), store.ErrNotFound)
	assert.Equal(t, int32(1), notifier.calls.Load())
}

func TestCheckout_RejectsMalformedEmail(t *testing.T) {
	gw := &fakeGateway{}
	svc, _ := newTestService(gw, store.NewMemoryStore(), nil)

	for _, email := range []string{"pas-un-email", "Mario <mario@example.it>"} {
		_, err := svc.Checkout(context.Background(), Request{Cart: canottaCart(1), CustomerEmail: email})
		assert.ErrorIs(t, err, ErrInvalidEmail, email)
	}
	assert.Equal(t, 0, gw.Calls())
}
