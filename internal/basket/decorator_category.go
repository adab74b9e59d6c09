package basket

import (
	"context"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// categoryDecorator rejects products without a visible category link. This
// blocks orphaned or hidden catalog entries from being ordered directly.
type categoryDecorator struct {
	passThrough
	base *controller
}

func newCategoryDecorator(next Controller, base *controller) Controller {
	return &categoryDecorator{passThrough: passThrough{next: next}, base: base}
}

func (d *categoryDecorator) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	product, err := d.base.deps.Products.Get(ctx, input.ProductID, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}

	categoryIDs := product.CategoryIDs
	for i := range product.Children {
		categoryIDs = append(categoryIDs, product.Children[i].CategoryIDs...)
	}
	if len(categoryIDs) == 0 {
		return nil, apperrors.ProductNotAllowed(product.Code)
	}

	visible, err := d.base.deps.Categories.HasVisibleCategory(ctx, categoryIDs, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}
	if !visible {
		return nil, apperrors.ProductNotAllowed(product.Code)
	}

	return d.next.AddProduct(ctx, input)
}
