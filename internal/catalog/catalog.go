// Package catalog defines the collaborator interfaces the basket core
// consumes (products, attributes, categories, stock, pricing rules, service
// providers) and HTTP-backed implementations talking to the catalog and
// inventory services.
package catalog

import (
	"context"

	"github.com/ecomkit/basket/internal/domain"
)

// ProductManager resolves catalog products for a locale.
type ProductManager interface {
	// Get returns the product with the given ID including price tiers,
	// attribute references and children, localized to the given locale.
	Get(ctx context.Context, productID string, locale domain.LocaleKey) (*domain.Product, error)

	// FindByCode returns the product with the given code.
	FindByCode(ctx context.Context, code string, locale domain.LocaleKey) (*domain.Product, error)
}

// AttributeManager resolves catalog attributes in batch.
type AttributeManager interface {
	// GetBatch returns the attributes for the given IDs, localized. Missing or
	// disabled attributes are omitted from the result.
	GetBatch(ctx context.Context, ids []string, locale domain.LocaleKey) ([]domain.Attribute, error)
}

// PricingRuleManager applies site-level pricing rules to a product's tiers
// before the basket computes the line item price.
type PricingRuleManager interface {
	Apply(ctx context.Context, product *domain.Product, locale domain.LocaleKey) ([]domain.PriceTier, error)
}

// CategorySearcher checks product visibility through category links.
type CategorySearcher interface {
	// HasVisibleCategory reports whether any of the given category IDs is
	// linked to a currently visible category tree node.
	HasVisibleCategory(ctx context.Context, categoryIDs []string, locale domain.LocaleKey) (bool, error)
}

// StockManager exposes available stock levels per product code and stock type.
type StockManager interface {
	// Level returns the available quantity. A negative value means unlimited.
	Level(ctx context.Context, productCode, stockType string, locale domain.LocaleKey) (float64, error)
}

// Provider is a resolved delivery or payment service provider.
type Provider interface {
	// Service returns the underlying service entry.
	Service() domain.Service

	// CheckConfig validates customer-supplied configuration values. The
	// returned map holds an error message per offending key; an empty map
	// means the configuration is acceptable.
	CheckConfig(ctx context.Context, config map[string]string) (map[string]string, error)

	// CalcPrice computes the service price for the given basket.
	CalcPrice(ctx context.Context, basket *domain.Basket) (domain.Price, error)
}

// ProviderManager resolves service providers by ID.
type ProviderManager interface {
	GetProvider(ctx context.Context, serviceID string, locale domain.LocaleKey) (Provider, error)
}
