package checkout

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"
	"time"

	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/models"
	"eadshop_back_end/internal/payment"
	"eadshop_back_end/internal/pricing"
	"eadshop_back_end/internal/store"

	"github.com/google/uuid"
)

type Request struct {
	Cart            *models.ReconciledCart
	CustomerEmail   string
	ShippingAddress *models.ShippingAddress
	IdempotencyKey  string
}

type Result struct {
	OrderID         string             `json:"orderId"`
	ClientSecret    string             `json:"clientSecret"`
	PaymentIntentID string             `json:"paymentIntentId"`
	TotalMinorUnits int64              `json:"totalMinorUnits"`
	Currency        string             `json:"currency"`
	Status          models.OrderStatus `json:"status"`
	Replayed        bool               `json:"replayed"`
}

// Service orchestre paiement → enregistrement → notification
type Service struct {
	gateway  PaymentGateway
	orders   store.Store
	notifier Notifier
	resend   Notifier
	locker   Locker
	observer Observer

	paymentTimeout time.Duration
	storeTimeout   time.Duration
	notifyTimeout  time.Duration
	lockWait       time.Duration

	now   func() time.Time
	newID func() string

	wg sync.WaitGroup
}

func NewService(cfg *config.Config, gateway PaymentGateway, orders store.Store, notifier Notifier, locker Locker) *Service {
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Service{
		gateway:        gateway,
		orders:         orders,
		notifier:       notifier,
		resend:         notifier,
		locker:         locker,
		observer:       nopObserver{},
		paymentTimeout: cfg.PaymentTimeout,
		storeTimeout:   cfg.StoreTimeout,
		notifyTimeout:  cfg.NotifyTimeout,
		lockWait:       cfg.LockWait,
		now:            func() time.Time { return time.Now().UTC() },
		newID:          func() string { return uuid.New().String() },
	}
}

func (s *Service) SetObserver(o Observer) {
	if o != nil {
		s.observer = o
	}
}

// SetResendNotifier limite le renvoi manuel à un canal (l'e-mail en général)
func (s *Service) SetResendNotifier(n Notifier) {
	if n != nil {
		s.resend = n
	}
}

// Wait attend la fin des notifications en cours (arrêt du serveur, tests)
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) Checkout(ctx context.Context, req Request) (*Result, error) {
	email := strings.TrimSpace(req.CustomerEmail)
	if email == "" {
		s.observer.CheckoutOutcome(OutcomeRejected)
		return nil, ErrMissingEmail
	}
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		s.observer.CheckoutOutcome(OutcomeRejected)
		return nil, ErrInvalidEmail
	}
	if req.Cart == nil || len(req.Cart.Lines) == 0 {
		s.observer.CheckoutOutcome(OutcomeRejected)
		return nil, pricing.ErrEmptyCart
	}
	if minimum := s.gateway.MinimumAmount(req.Cart.Currency); req.Cart.TotalMinorUnits < minimum {
		s.observer.CheckoutOutcome(OutcomeRejected)
		return nil, &AmountTooSmallError{Amount: req.Cart.TotalMinorUnits, Minimum: minimum, Currency: req.Cart.Currency}
	}
	if err := s.gateway.Ready(); err != nil {
		return nil, err
	}

	orderID := s.newID()
	key := strings.TrimSpace(req.IdempotencyKey)
	clientKey := key != ""
	if !clientKey {
		key = orderID
	}

	unlock, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if clientKey {
		existing, err := runStage(ctx, "idempotence", s.storeTimeout, func(c context.Context) (*models.Order, error) {
			return s.orders.FindByIdempotencyKey(c, key)
		})
		switch {
		case err == nil:
			return s.replay(ctx, existing, req.Cart, email)
		case errors.Is(err, store.ErrNotFound):
		default:
			log.Printf("❌ Vérification idempotence impossible pour la clé %s: %v", key, err)
			return nil, fmt.Errorf("vérification idempotence: %w", err)
		}
	}

	order := models.NewPendingOrder(orderID, key, *req.Cart, email, req.ShippingAddress, s.now())
	if err := s.save(ctx, order); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			s.observer.CheckoutOutcome(OutcomeInProgress)
			return nil, ErrCheckoutInProgress
		}
		log.Printf("⚠️ Commande %s non enregistrée avant paiement: %v", order.OrderID, err)
	}

	return s.pay(ctx, order)
}

// replay renvoie le résultat terminal déjà connu, sans rappeler la passerelle
func (s *Service) replay(ctx context.Context, existing *models.Order, cart *models.ReconciledCart, email string) (*Result, error) {
	if !sameCheckout(existing, cart, email) {
		s.observer.CheckoutOutcome(OutcomeRejected)
		return nil, ErrIdempotencyKeyReused
	}

	switch existing.Status {
	case models.StatusPaid:
		log.Printf("🔁 Rejeu de la commande %s (clé %s)", existing.OrderID, existing.IdempotencyKey)
		s.observer.CheckoutOutcome(OutcomeReplayed)
		result := resultFrom(existing)
		result.Replayed = true
		return result, nil
	case models.StatusFailed:
		s.observer.CheckoutOutcome(OutcomeReplayed)
		return nil, &PaymentFailedError{OrderID: existing.OrderID, Reason: existing.FailureReason, Replayed: true}
	default:
		// Tentative précédente interrompue : même clé Stripe, donc même intention
		log.Printf("⚠️ Reprise de la commande %s restée en attente de paiement", existing.OrderID)
		return s.pay(ctx, existing)
	}
}

func (s *Service) pay(ctx context.Context, order *models.Order) (*Result, error) {
	intent, err := runStage(ctx, "paiement", s.paymentTimeout, func(c context.Context) (*models.PaymentIntent, error) {
		return s.gateway.CreateIntent(c, models.IntentRequest{
			OrderID:          order.OrderID,
			IdempotencyKey:   order.OrderID,
			AmountMinorUnits: order.TotalMinorUnits,
			Currency:         order.Currency,
			CustomerEmail:    order.CustomerEmail,
			Description:      "Ordine " + order.OrderID,
			Shipping:         order.ShippingAddress,
		})
	})
	if err != nil {
		reason := failureReason(err)
		if markErr := order.MarkFailed(reason, s.now()); markErr != nil {
			return nil, markErr
		}
		if saveErr := s.save(ctx, order); saveErr != nil {
			log.Printf("⚠️ Échec de paiement de la commande %s non enregistré: %v", order.OrderID, saveErr)
		}
		log.Printf("❌ Paiement refusé pour la commande %s: %s", order.OrderID, reason)
		s.observer.CheckoutOutcome(OutcomePaymentFailed)
		return nil, &PaymentFailedError{OrderID: order.OrderID, Reason: reason, Err: err}
	}

	if err := order.MarkPaid(intent, s.now()); err != nil {
		return nil, err
	}
	result := resultFrom(order)

	if err := s.save(ctx, order); err != nil {
		log.Printf("❌ Paiement %s accepté mais commande %s non enregistrée: %v", intent.GatewayID, order.OrderID, err)
		s.observer.CheckoutOutcome(OutcomePersistenceDegraded)
		return result, &PersistenceDegradedError{Result: result, Err: err}
	}

	log.Printf("✅ Commande %s payée (%d %s)", order.OrderID, order.TotalMinorUnits, order.Currency)
	s.observer.CheckoutOutcome(OutcomePaid)
	s.notifyAsync(ctx, order)
	return result, nil
}

// ResendConfirmation renvoie l'e-mail d'une commande payée à partir des
// valeurs enregistrées, jamais de celles fournies par le client.
func (s *Service) ResendConfirmation(ctx context.Context, orderID string) error {
	order, err := runStage(ctx, "lecture", s.storeTimeout, func(c context.Context) (*models.Order, error) {
		return s.orders.FindByID(c, orderID)
	})
	if err != nil {
		return err
	}
	if order.Status != models.StatusPaid {
		return fmt.Errorf("%w: commande %s en %s", ErrOrderNotPaid, order.OrderID, order.Status)
	}
	_ = s.notify(ctx, s.resend, order)
	return nil
}

func (s *Service) notifyAsync(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	snapshot := order.Clone()
	detached := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.notify(detached, s.notifier, snapshot)
	}()
}

func (s *Service) notify(ctx context.Context, notifier Notifier, order *models.Order) error {
	if notifier == nil {
		return nil
	}
	_, err := runStage(ctx, "notification", s.notifyTimeout, func(c context.Context) (struct{}, error) {
		return struct{}{}, notifier.Send(c, order.CustomerEmail, order)
	})
	if err != nil {
		nerr := &NotificationError{OrderID: order.OrderID, Err: err}
		log.Printf("⚠️ %v", nerr)
		s.observer.NotificationFailed()
		return nerr
	}
	log.Printf("📧 Confirmation envoyée pour la commande %s", order.OrderID)
	return nil
}

// save enregistre une copie : un store en retard ne doit jamais lire la
// commande pendant qu'elle passe en PAID ou FAILED
func (s *Service) save(ctx context.Context, order *models.Order) error {
	snapshot := order.Clone()
	_, err := runStage(ctx, "enregistrement", s.storeTimeout, func(c context.Context) (struct{}, error) {
		return struct{}{}, s.orders.Save(c, snapshot)
	})
	return err
}

// sameCheckout : une clé ne rejoue que la commande du même client, au même panier
func sameCheckout(existing *models.Order, cart *models.ReconciledCart, email string) bool {
	if existing.TotalMinorUnits != cart.TotalMinorUnits || existing.Currency != cart.Currency {
		return false
	}
	if !strings.EqualFold(existing.CustomerEmail, email) {
		return false
	}
	if len(existing.Lines) != len(cart.Lines) {
		return false
	}
	for i, l := range cart.Lines {
		stored := existing.Lines[i]
		if stored.ItemID != l.Item.ID || stored.Quantity != l.Quantity || !sameOptions(stored.SelectedOptions, l.SelectedOptions) {
			return false
		}
	}
	return true
}

func sameOptions(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		if w, ok := b[k]; !ok || w != v {
			return false
		}
	}
	return true
}

func (s *Service) lock(ctx context.Context, key string) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, s.lockWait)
	defer cancel()

	unlock, err := s.locker.Lock(lockCtx, "checkout:"+key)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			s.observer.CheckoutOutcome(OutcomeInProgress)
			return nil, ErrCheckoutInProgress
		}
		return nil, fmt.Errorf("verrou de paiement indisponible: %w", err)
	}
	return unlock, nil
}

func failureReason(err error) string {
	var gwErr *payment.GatewayError
	if errors.As(err, &gwErr) {
		return gwErr.Reason
	}
	var timeoutErr *StageTimeoutError
	if errors.As(err, &timeoutErr) {
		return "le prestataire de paiement n'a pas répondu à temps"
	}
	return err.Error()
}

func resultFrom(o *models.Order) *Result {
	return &Result{
		OrderID:         o.OrderID,
		ClientSecret:    o.ClientSecret,
		PaymentIntentID: o.PaymentIntentID,
		TotalMinorUnits: o.TotalMinorUnits,
		Currency:        o.Currency,
		Status:          o.Status,
	}
}
