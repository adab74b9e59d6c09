// Package repository defines persistence interfaces for baskets, locale keys
// and archived orders.
package repository

import (
	"context"
	"time"

	"github.com/ecomkit/basket/internal/domain"
)

// BasketRepository persists session baskets and the locale key they were
// created under.
type BasketRepository interface {
	// GetBasket returns the basket for the given customer and basket type.
	// Returns an error wrapping ErrNotFound when no basket exists.
	GetBasket(ctx context.Context, customerID, basketType string) (*domain.Basket, error)

	// SaveBasket stores the basket, refreshing its expiry.
	SaveBasket(ctx context.Context, customerID, basketType string, basket *domain.Basket) error

	// DeleteBasket removes the basket. Deleting a missing basket is not an error.
	DeleteBasket(ctx context.Context, customerID, basketType string) error

	// GetLocale returns the locale key the customer's baskets were last used
	// under. Returns an error wrapping ErrNotFound when none is stored.
	GetLocale(ctx context.Context, customerID string) (domain.LocaleKey, error)

	// SaveLocale stores the customer's current locale key.
	SaveLocale(ctx context.Context, customerID string, locale domain.LocaleKey) error
}

// OrderRepository archives finalized baskets and supports the order rate
// limit check.
type OrderRepository interface {
	// StoreOrder archives the order and records its creation time for the
	// customer's rate-limit window.
	StoreOrder(ctx context.Context, order *domain.Order) error

	// GetOrder returns an archived order by ID.
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)

	// CountOrdersSince returns the number of orders the customer placed at or
	// after the given time.
	CountOrdersSince(ctx context.Context, customerID string, since time.Time) (int, error)
}
