package domain

import (
	"github.com/shopspring/decimal"
)

// Price is a monetary value with an optional catalog rebate component.
// Decimal arithmetic keeps downstream >=/<= comparisons exact.
type Price struct {
	Value    decimal.Decimal `json:"value"`
	Rebate   decimal.Decimal `json:"rebate"`
	Currency string          `json:"currency"`
}

// NewPrice creates a price from a decimal string such as "19.99".
// Invalid strings yield a zero value.
func NewPrice(value, currency string) Price {
	v, err := decimal.NewFromString(value)
	if err != nil {
		v = decimal.Zero
	}
	return Price{Value: v, Rebate: decimal.Zero, Currency: currency}
}

// AddItem accumulates another price into this one, multiplied by the given
// quantity. Used to fold attribute surcharges into a line item price.
func (p Price) AddItem(other Price, quantity float64) Price {
	qty := decimal.NewFromFloat(quantity)
	p.Value = p.Value.Add(other.Value.Mul(qty))
	p.Rebate = p.Rebate.Add(other.Rebate.Mul(qty))
	if p.Currency == "" {
		p.Currency = other.Currency
	}
	return p
}

// ClearRebate zeroes the rebate component. Catalog rebates must not leak into
// order pricing; order-level rebates are computed from coupons separately.
func (p Price) ClearRebate() Price {
	p.Rebate = decimal.Zero
	return p
}

// IsZero reports whether the price value is zero.
func (p Price) IsZero() bool {
	return p.Value.IsZero()
}

// PriceTier maps a minimum quantity to the price charged per unit from that
// quantity on.
type PriceTier struct {
	MinQuantity float64 `json:"min_quantity"`
	Price       Price   `json:"price"`
}
