package basket

import (
	"context"

	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/pricing"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// stockDecorator clamps requested quantities to the available stock level.
// The clamped quantity is still committed; the capacity error is surfaced
// alongside the updated basket so callers can show both.
type stockDecorator struct {
	passThrough
	base *controller
}

func newStockDecorator(next Controller, base *controller) Controller {
	return &stockDecorator{passThrough: passThrough{next: next}, base: base}
}

func (d *stockDecorator) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	if input.DisableStockCheck {
		return d.next.AddProduct(ctx, input)
	}

	product, err := d.base.deps.Products.Get(ctx, input.ProductID, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}

	// Compare against the scale-normalized quantity the base pipeline will
	// commit, not the raw request.
	quantity, err := pricing.CheckQuantity(input.Quantity, product.Scale)
	if err != nil {
		return nil, err
	}

	available, err := d.available(ctx, product.Code, input.StockType)
	if err != nil {
		return nil, err
	}
	if available < 0 || available >= quantity {
		return d.next.AddProduct(ctx, input)
	}

	// Clamp down to a sale-unit multiple so normalization cannot round the
	// committed quantity back above the available level.
	clamped := pricing.FloorQuantity(available, product.Scale)
	if clamped <= 0 {
		return nil, apperrors.InsufficientStock(product.Code, quantity, available)
	}

	input.Quantity = clamped
	basket, err := d.next.AddProduct(ctx, input)
	if err != nil {
		return nil, err
	}
	return basket, apperrors.InsufficientStock(product.Code, quantity, available)
}

func (d *stockDecorator) UpdateProduct(ctx context.Context, position int, quantity float64) (*domain.Basket, error) {
	basket, err := d.base.Get(ctx)
	if err != nil {
		return nil, err
	}
	if position < 0 || position >= len(basket.Products) {
		return d.next.UpdateProduct(ctx, position, quantity)
	}
	item := basket.Products[position]

	product, err := d.base.deps.Products.Get(ctx, item.ProductID, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}

	normalized, err := pricing.CheckQuantity(quantity, product.Scale)
	if err != nil {
		return nil, err
	}

	available, err := d.available(ctx, item.Code, item.StockType)
	if err != nil {
		return nil, err
	}
	if available < 0 || available >= normalized {
		return d.next.UpdateProduct(ctx, position, quantity)
	}

	clamped := pricing.FloorQuantity(available, product.Scale)
	if clamped <= 0 {
		return nil, apperrors.InsufficientStock(item.Code, normalized, available)
	}

	basket, err = d.next.UpdateProduct(ctx, position, clamped)
	if err != nil {
		return nil, err
	}
	return basket, apperrors.InsufficientStock(item.Code, normalized, available)
}

// available returns the stock level for the product, treating a missing
// stock manager as unlimited.
func (d *stockDecorator) available(ctx context.Context, code, stockType string) (float64, error) {
	if d.base.deps.Stock == nil {
		return -1, nil
	}
	return d.base.deps.Stock.Level(ctx, code, stockType, d.base.sess.Locale)
}
