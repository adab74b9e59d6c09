package domain

import "time"

// Basket types. A customer holds one basket per type so a saved wishlist-style
// basket does not interfere with the default one.
const (
	BasketTypeDefault = "default"
)

// Address types.
const (
	AddressTypePayment  = "payment"
	AddressTypeDelivery = "delivery"
)

// Service types.
const (
	ServiceTypePayment  = "payment"
	ServiceTypeDelivery = "delivery"
)

// Attribute snapshot types.
const (
	AttrTypeVariant = "variant"
	AttrTypeConfig  = "config"
	AttrTypeCustom  = "custom"
	AttrTypeHidden  = "hidden"
)

// Basket is an in-progress order scoped to one (session, type) pair. It is
// only non-empty after at least one successful mutation and is replaced
// wholesale during locale migration.
type Basket struct {
	ID          string     `json:"id"`
	CustomerID  string     `json:"customer_id"`
	CustomerRef string     `json:"customer_ref,omitempty"`
	Comment     string     `json:"comment,omitempty"`
	Locale      LocaleKey  `json:"locale"`
	Products    []LineItem `json:"products"`
	Addresses   []Address  `json:"addresses,omitempty"`
	Services    []Service  `json:"services,omitempty"`
	Coupons     []string   `json:"coupons,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Modified marks unsaved in-memory changes; Save is a no-op otherwise.
	Modified bool `json:"-"`
}

// LineItem is an ordered product: a snapshot of the catalog product at
// add-time with its own quantity, price and attribute captures.
type LineItem struct {
	ProductID       string              `json:"product_id"`
	ParentProductID string              `json:"parent_product_id,omitempty"`
	Code            string              `json:"code"`
	Name            string              `json:"name"`
	Quantity        float64             `json:"quantity"`
	StockType       string              `json:"stock_type,omitempty"`
	SiteID          string              `json:"site_id,omitempty"`
	Price           Price               `json:"price"`
	Attributes      []AttributeSnapshot `json:"attributes,omitempty"`

	// Immutable line items (bundle sub-items, system-added items) must not be
	// directly edited or deleted by the customer.
	Immutable bool       `json:"immutable,omitempty"`
	Children  []LineItem `json:"children,omitempty"`
}

// AttributeSnapshot captures a chosen product attribute at add-time,
// including its per-unit price contribution.
type AttributeSnapshot struct {
	Type        string  `json:"type"`
	AttributeID string  `json:"attribute_id"`
	Code        string  `json:"code"`
	Name        string  `json:"name,omitempty"`
	Value       string  `json:"value"`
	Quantity    float64 `json:"quantity"`
	Price       Price   `json:"price"`
}

// Address holds free-form address fields tied to a type and position.
type Address struct {
	Type       string `json:"type"`
	Position   int    `json:"position"`
	Salutation string `json:"salutation,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Address1   string `json:"address1"`
	Address2   string `json:"address2,omitempty"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	State      string `json:"state,omitempty"`
	CountryID  string `json:"country_id"`
	Email      string `json:"email,omitempty"`
	Telephone  string `json:"telephone,omitempty"`
}

// Service is a chosen delivery or payment option with its resolved provider
// configuration and computed price.
type Service struct {
	Type       string              `json:"type"`
	Position   int                 `json:"position"`
	ServiceID  string              `json:"service_id"`
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	Price      Price               `json:"price"`
	Attributes []AttributeSnapshot `json:"attributes,omitempty"`
}

// FindAttribute returns the first attribute snapshot of the line item
// matching the given type and code, or nil.
func (li *LineItem) FindAttribute(attrType, code string) *AttributeSnapshot {
	for i := range li.Attributes {
		if li.Attributes[i].Type == attrType && li.Attributes[i].Code == code {
			return &li.Attributes[i]
		}
	}
	return nil
}

// FindService returns the index of the service with the given type and
// position, or -1.
func (b *Basket) FindService(serviceType string, position int) int {
	for i := range b.Services {
		if b.Services[i].Type == serviceType && b.Services[i].Position == position {
			return i
		}
	}
	return -1
}

// FindAddress returns the index of the address with the given type and
// position, or -1.
func (b *Basket) FindAddress(addressType string, position int) int {
	for i := range b.Addresses {
		if b.Addresses[i].Type == addressType && b.Addresses[i].Position == position {
			return i
		}
	}
	return -1
}

// HasCoupon reports whether the given coupon code is already applied.
func (b *Basket) HasCoupon(code string) bool {
	for _, c := range b.Coupons {
		if c == code {
			return true
		}
	}
	return false
}
