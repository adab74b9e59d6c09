package basket

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ecomkit/basket/internal/attribute"
	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/pricing"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// AddProduct runs the product addition pipeline: quantity normalization,
// attribute authorization, attribute resolution, line item construction,
// price calculation and commit. Every step may fail; nothing is committed
// until all of them passed.
func (c *controller) AddProduct(ctx context.Context, input AddProductInput) (*domain.Basket, error) {
	product, err := c.deps.Products.Get(ctx, input.ProductID, c.sess.Locale)
	if err != nil {
		return nil, err
	}

	item, quantity, err := c.buildLineItem(ctx, product, input)
	if err != nil {
		return nil, err
	}

	tiers, err := c.priceTiers(ctx, product)
	if err != nil {
		return nil, err
	}
	price, err := pricing.CalcPrice(item, tiers, quantity)
	if err != nil {
		return nil, err
	}
	item.Price = price

	return c.commit(ctx, item)
}

// buildLineItem normalizes the quantity, authorizes the requested attributes
// and assembles an unpriced line item from the catalog product.
func (c *controller) buildLineItem(ctx context.Context, product *domain.Product, input AddProductInput) (domain.LineItem, float64, error) {
	quantity, err := pricing.CheckQuantity(input.Quantity, product.Scale)
	if err != nil {
		return domain.LineItem{}, 0, err
	}

	if err := attribute.CheckAttributes([]domain.Product{*product}, domain.AttrTypeVariant, input.VariantAttrIDs); err != nil {
		return domain.LineItem{}, 0, err
	}
	customIDs := sortedKeys(input.CustomAttrValues)
	if err := attribute.CheckAttributes([]domain.Product{*product}, domain.AttrTypeCustom, customIDs); err != nil {
		return domain.LineItem{}, 0, err
	}
	if err := attribute.CheckAttributes([]domain.Product{*product}, domain.AttrTypeConfig, input.ConfigAttrIDs); err != nil {
		return domain.LineItem{}, 0, err
	}

	snapshots, err := c.resolveAttributes(ctx, product, input)
	if err != nil {
		return domain.LineItem{}, 0, err
	}

	item := domain.LineItem{
		ProductID:       product.ID,
		ParentProductID: input.ParentProductID,
		Code:            product.Code,
		Name:            product.Name,
		Quantity:        quantity,
		StockType:       input.StockType,
		SiteID:          input.SiteID,
		Attributes:      snapshots,
	}
	if item.SiteID == "" {
		item.SiteID = product.SiteID
	}
	return item, quantity, nil
}

// resolveAttributes builds the attribute snapshots of a line item: variant
// snapshots for the chain-selected article, customer-chosen config and
// custom snapshots, and the product's hidden attributes.
func (c *controller) resolveAttributes(ctx context.Context, product *domain.Product, input AddProductInput) ([]domain.AttributeSnapshot, error) {
	var snapshots []domain.AttributeSnapshot

	variant, err := c.deps.Attributes.OrderAttributes(ctx, domain.AttrTypeVariant,
		input.VariantAttrIDs, nil, nil, c.sess.Locale)
	if err != nil {
		return nil, err
	}
	snapshots = append(snapshots, variant...)

	config, err := c.deps.Attributes.OrderAttributes(ctx, domain.AttrTypeConfig,
		input.ConfigAttrIDs, nil, input.ConfigQuantities, c.sess.Locale)
	if err != nil {
		return nil, err
	}
	snapshots = append(snapshots, config...)

	customValues := make(map[string]string, len(input.CustomAttrValues))
	for id, value := range input.CustomAttrValues {
		customValues[id] = sanitize(value)
	}
	custom, err := c.deps.Attributes.OrderAttributes(ctx, domain.AttrTypeCustom,
		sortedKeys(input.CustomAttrValues), customValues, nil, c.sess.Locale)
	if err != nil {
		return nil, err
	}
	snapshots = append(snapshots, custom...)

	hidden, err := c.deps.Attributes.OrderAttributes(ctx, domain.AttrTypeHidden,
		product.RefIDs(domain.AttrTypeHidden), nil, nil, c.sess.Locale)
	if err != nil {
		return nil, err
	}
	snapshots = append(snapshots, hidden...)

	return snapshots, nil
}

// priceTiers applies the site's pricing rules to the product's tiers.
func (c *controller) priceTiers(ctx context.Context, product *domain.Product) ([]domain.PriceTier, error) {
	if c.deps.PricingRules == nil {
		return product.PriceTiers, nil
	}
	tiers, err := c.deps.PricingRules.Apply(ctx, product, c.sess.Locale)
	if err != nil {
		return nil, fmt.Errorf("apply pricing rules: %w", err)
	}
	return tiers, nil
}

// commit appends the line item to the active basket and persists it.
func (c *controller) commit(ctx context.Context, item domain.LineItem) (*domain.Basket, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, err
	}

	basket.Products = append(basket.Products, item)
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("product added",
		slog.String("product_code", item.Code),
		slog.Float64("quantity", item.Quantity),
	)
	return basket, nil
}

// UpdateProduct changes the quantity of a line item. The catalog product is
// re-fetched so the new price reflects the current catalog state, not the
// add-time snapshot.
func (c *controller) UpdateProduct(ctx context.Context, position int, quantity float64) (*domain.Basket, error) {
	basket, item, err := c.lineItemAt(ctx, position)
	if err != nil {
		return nil, err
	}
	if item.Immutable {
		return nil, apperrors.ImmutableLineItem(position)
	}

	product, err := c.deps.Products.Get(ctx, item.ProductID, c.sess.Locale)
	if err != nil {
		return nil, err
	}

	quantity, err = pricing.CheckQuantity(quantity, product.Scale)
	if err != nil {
		return nil, err
	}

	tiers, err := c.priceTiers(ctx, product)
	if err != nil {
		return nil, err
	}
	price, err := pricing.CalcPrice(*item, tiers, quantity)
	if err != nil {
		return nil, err
	}

	item.Quantity = quantity
	item.Price = price
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("product updated",
		slog.String("product_code", item.Code),
		slog.Float64("quantity", quantity),
	)
	return basket, nil
}

// DeleteProduct removes the line item at the given position.
func (c *controller) DeleteProduct(ctx context.Context, position int) (*domain.Basket, error) {
	basket, item, err := c.lineItemAt(ctx, position)
	if err != nil {
		return nil, err
	}
	if item.Immutable {
		return nil, apperrors.ImmutableLineItem(position)
	}

	basket.Products = append(basket.Products[:position], basket.Products[position+1:]...)
	basket.Modified = true

	if err := c.Save(ctx); err != nil {
		return nil, err
	}

	c.logger.Info("product deleted", slog.String("product_code", item.Code))
	return basket, nil
}

func (c *controller) lineItemAt(ctx context.Context, position int) (*domain.Basket, *domain.LineItem, error) {
	basket, err := c.Get(ctx)
	if err != nil {
		return nil, nil, err
	}
	if position < 0 || position >= len(basket.Products) {
		return nil, nil, apperrors.NotFound("line item", fmt.Sprintf("position %d", position))
	}
	return basket, &basket.Products[position], nil
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
