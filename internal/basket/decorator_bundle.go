package basket

import (
	"context"

	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/pricing"
)

// bundleDecorator expands bundle products into one immutable parent line
// item nesting a priced line per bundled sub-product.
type bundleDecorator struct {
	passThrough
	base *controller
}

func newBundleDecorator(next Controller, base *controller) Controller {
	return &bundleDecorator{passThrough: passThrough{next: next}, base: base}
}

func (d *bundleDecorator) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	product, err := d.base.deps.Products.Get(ctx, input.ProductID, d.base.sess.Locale)
	if err != nil {
		return nil, err
	}
	if product.Type != domain.ProductTypeBundle {
		return d.next.AddProduct(ctx, input)
	}

	parent, quantity, err := d.base.buildLineItem(ctx, product, input)
	if err != nil {
		return nil, err
	}
	parent.Immutable = true

	tiers, err := d.base.priceTiers(ctx, product)
	if err != nil {
		return nil, err
	}
	price, err := pricing.CalcPrice(parent, tiers, quantity)
	if err != nil {
		return nil, err
	}
	parent.Price = price

	for i := range product.Children {
		child := &product.Children[i]
		childInput := AddProductInput{
			ProductID:       child.ID,
			ParentProductID: product.ID,
			Quantity:        input.Quantity,
			StockType:       input.StockType,
			SiteID:          input.SiteID,
		}
		childItem, childQty, err := d.base.buildLineItem(ctx, child, childInput)
		if err != nil {
			return nil, err
		}

		childTiers, err := d.base.priceTiers(ctx, child)
		if err != nil {
			return nil, err
		}
		childPrice, err := pricing.CalcPrice(childItem, childTiers, childQty)
		if err != nil {
			return nil, err
		}
		childItem.Price = childPrice

		parent.Children = append(parent.Children, childItem)
	}

	return d.base.commit(ctx, parent)
}
