// Package pricing computes effective line item prices from price tier
// tables, quantities, attribute surcharges and manual overrides. All
// functions are pure and use exact decimal arithmetic.
package pricing

import (
	"math"
	"regexp"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/ecomkit/basket/internal/domain"
	apperrors "github.com/ecomkit/basket/pkg/errors"
)

// quantityTolerance absorbs floating point noise when checking whether a
// quantity is an exact multiple of the sale-unit scale.
const quantityTolerance = 0.0005

// customPricePattern is the strict monetary pattern a manual price value must
// match: digits with at most two decimal places.
var customPricePattern = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

// minCustomPrice is the smallest manual price accepted.
var minCustomPrice = decimal.RequireFromString("0.01")

// LowestPrice returns the price of the tier with the highest quantity
// breakpoint that is still less than or equal to the requested quantity.
// Quantities below the smallest breakpoint fall back to the smallest tier.
func LowestPrice(tiers []domain.PriceTier, quantity float64) (domain.Price, error) {
	if len(tiers) == 0 {
		return domain.Price{}, apperrors.NotFound("price tier", "any")
	}

	sorted := make([]domain.PriceTier, len(tiers))
	copy(sorted, tiers)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].MinQuantity < sorted[j].MinQuantity
	})

	best := sorted[0]
	for _, tier := range sorted[1:] {
		if tier.MinQuantity > quantity {
			break
		}
		best = tier
	}

	return best.Price, nil
}

// CheckQuantity rounds the requested quantity up to the nearest multiple of
// the product's sale-unit scale. It is idempotent: rounding an already
// rounded quantity yields the same value.
func CheckQuantity(quantity, scale float64) (float64, error) {
	if quantity <= 0 {
		return 0, apperrors.InvalidInput("quantity must be greater than 0")
	}
	if scale <= 0 {
		scale = 1
	}

	steps := math.Ceil(quantity/scale - quantityTolerance)
	if steps < 1 {
		steps = 1
	}

	return steps * scale, nil
}

// FloorQuantity rounds the quantity down to the nearest multiple of the
// sale-unit scale. Quantities below one scale step floor to zero.
func FloorQuantity(quantity, scale float64) float64 {
	if scale <= 0 {
		scale = 1
	}
	if quantity <= 0 {
		return 0
	}
	return math.Floor(quantity/scale+quantityTolerance) * scale
}

// CalcPrice computes the effective price of a line item: tier price for the
// final quantity, overridden by a valid manual price attribute if present,
// plus every attribute surcharge captured on the item. The rebate component
// is always reset to zero.
func CalcPrice(item domain.LineItem, tiers []domain.PriceTier, quantity float64) (domain.Price, error) {
	price, err := LowestPrice(tiers, quantity)
	if err != nil {
		return domain.Price{}, err
	}

	if attr := item.FindAttribute(domain.AttrTypeCustom, "price"); attr != nil {
		value, err := parseCustomPrice(attr.Value)
		if err != nil {
			return domain.Price{}, err
		}
		price.Value = value
	}

	for _, attr := range item.Attributes {
		if attr.Type == domain.AttrTypeCustom && attr.Code == "price" {
			continue
		}
		if attr.Price.IsZero() {
			continue
		}
		price = price.AddItem(attr.Price, attr.Quantity)
	}

	return price.ClearRebate(), nil
}

// parseCustomPrice validates a manual price value against the strict
// monetary pattern and the minimum chargeable amount.
func parseCustomPrice(value string) (decimal.Decimal, error) {
	if !customPricePattern.MatchString(value) {
		return decimal.Zero, apperrors.InvalidPrice(value)
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil || parsed.LessThan(minCustomPrice) {
		return decimal.Zero, apperrors.InvalidPrice(value)
	}
	return parsed, nil
}
