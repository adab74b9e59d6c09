package basket

import (
	"context"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// selectDecorator resolves the concrete article of a selection product from
// the caller's chosen variant attributes before the base pipeline runs.
type selectDecorator struct {
	passThrough
	base *controller
}

func newSelectDecorator(next Controller, base *controller) Controller {
	return &selectDecorator{passThrough: passThrough{next: next}, base: base}
}

func (d *selectDecorator) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	product, err := d.base.deps.Products.Get(ctx, input.ProductID, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}
	if product.Type != domain.ProductTypeSelect {
		return d.next.AddProduct(ctx, input)
	}

	article, err := d.resolveArticle(product, input.VariantAttrIDs)
	if err != nil {
		return nil, err
	}

	if article != nil {
		if err := attribute.CheckAttributes([]domain.Product{*product, *article},
			domain.AttrTypeVariant, input.VariantAttrIDs); err != nil {
			return nil, err
		}
		input.ParentProductID = product.ID
		input.ProductID = article.ID
	}

	return d.next.AddProduct(ctx, input)
}

// resolveArticle finds the single child article whose variant attribute set
// covers every chosen attribute ID. A nil result means the selection itself
// is ordered, which is only allowed when no variant is strictly required.
func (d *selectDecorator) resolveArticle(product *domain.Product, variantIDs []string) (*domain.Product, error) {
	var matches []*domain.Product
	for i := range product.Children {
		child := &product.Children[i]
		if matchesVariants(child, variantIDs) {
			matches = append(matches, child)
		}
	}

	switch {
	case len(matches) == 1:
		return matches[0], nil
	case len(matches) > 1:
		return nil, apperrors.NoUniqueArticle(product.Code)
	case d.base.opts.SelectRequireVariant:
		return nil, apperrors.NoArticleFound(product.Code)
	default:
		return nil, nil
	}
}

func matchesVariants(child *domain.Product, variantIDs []string) bool {
	for _, id := range variantIDs {
		if !child.HasRef(domain.AttrTypeVariant, id) {
			return false
		}
	}
	return true
}
