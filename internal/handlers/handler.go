package handlers

import (
	"context"
	"time"

	"eadshop_back_end/internal/catalog"
	"eadshop_back_end/internal/checkout"
	"eadshop_back_end/internal/config"
	"eadshop_back_end/internal/pricing"
	"eadshop_back_end/internal/search"
	"eadshop_back_end/internal/store"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*checkout.Result, error)
	ResendConfirmation(ctx context.Context, orderID string) error
}

type OrderSearcher interface {
	Search(ctx context.Context, query string, limit int) ([]search.Hit, error)
}

type ReceiptLinker interface {
	ReceiptURL(ctx context.Context, orderID string, ttl time.Duration) (string, error)
}

// Deps : tout ce dont les handlers ont besoin, construit une fois dans main
type Deps struct {
	Config   *config.Config
	Catalog  *catalog.Catalog
	Checkout CheckoutService
	Orders   store.Store
	Search   OrderSearcher
	Receipts ReceiptLinker
}

type Handler struct {
	cfg      *config.Config
	catalog  *catalog.Catalog
	policy   pricing.OptionPolicy
	checkout CheckoutService
	orders   store.Store
	search   OrderSearcher
	receipts ReceiptLinker
	now      func() time.Time
}

func New(d Deps) *Handler {
	policy := pricing.EnforceOptions
	if !d.Config.EnforceOptions {
		policy = pricing.IgnoreOptions
	}
	return &Handler{
		cfg:      d.Config,
		catalog:  d.Catalog,
		policy:   policy,
		checkout: d.Checkout,
		orders:   d.Orders,
		search:   d.Search,
		receipts: d.Receipts,
		now:      time.Now,
	}
}
