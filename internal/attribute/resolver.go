// Package attribute authorizes and resolves product attribute selections
// into basket attribute snapshots.
package attribute

import (
	"context"

	"github.com/ecomkit/basket/internal/catalog"
	"github.com/ecomkit/basket/internal/domain"
	"github.com/ecomkit/basket/internal/pricing"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// Resolver turns requested attribute IDs into ordered attribute snapshots
// with their price contributions captured at add-time.
type Resolver struct {
	attributes catalog.AttributeManager
}

// NewResolver creates a Resolver backed by the given attribute manager.
func NewResolver(attributes catalog.AttributeManager) *Resolver {
	return &Resolver{attributes: attributes}
}

// CheckAttributes verifies that every requested attribute ID is referenced by
// at least one of the given products under the given list type. This guards
// against injecting arbitrary price-bearing attributes into a line item.
func CheckAttributes(products []domain.Product, listType string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	allowed := make(map[string]struct{})
	for i := range products {
		for _, id := range products[i].RefIDs(listType) {
			allowed[id] = struct{}{}
		}
	}

	var missing []string
	for _, id := range ids {
		if _, ok := allowed[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return apperrors.AttributeNotAssigned(listType, missing)
	}
	return nil
}

// FilterIDs returns the subset of the requested IDs that the products
// actually reference under the given list type, preserving request order.
func FilterIDs(products []domain.Product, listType string, ids []string) []string {
	allowed := make(map[string]struct{})
	for i := range products {
		for _, id := range products[i].RefIDs(listType) {
			allowed[id] = struct{}{}
		}
	}

	var filtered []string
	for _, id := range ids {
		if _, ok := allowed[id]; ok {
			filtered = append(filtered, id)
		}
	}
	return filtered
}

// OrderAttributes fetches the given attribute IDs and builds one snapshot per
// attribute of the given type. Quantities default to 1 and values default to
// the attribute code. The per-unit price is captured from the attribute's own
// price tiers for the chosen quantity.
func (r *Resolver) OrderAttributes(ctx context.Context, attrType string, ids []string, values map[string]string, quantities map[string]float64, locale domain.LocaleKey) ([]domain.AttributeSnapshot, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	attrs, err := r.attributes.GetBatch(ctx, ids, locale)
	if err != nil {
		return nil, apperrors.Wrap(err, "fetch attributes")
	}
	if len(attrs) != len(ids) {
		return nil, apperrors.AttributeCountMismatch(len(ids), len(attrs))
	}

	snapshots := make([]domain.AttributeSnapshot, 0, len(attrs))
	for _, attr := range attrs {
		quantity := quantities[attr.ID]
		if quantity <= 0 {
			quantity = 1
		}

		value := values[attr.ID]
		if value == "" {
			value = attr.Code
		}

		snapshot := domain.AttributeSnapshot{
			Type:        attrType,
			AttributeID: attr.ID,
			Code:        attr.Code,
			Name:        attr.Name,
			Value:       value,
			Quantity:    quantity,
		}
		if len(attr.PriceTiers) > 0 {
			price, err := pricing.LowestPrice(attr.PriceTiers, quantity)
			if err != nil {
				return nil, apperrors.Wrap(err, "resolve attribute price")
			}
			snapshot.Price = price
		}
		snapshots = append(snapshots, snapshot)
	}

	return snapshots, nil
}
