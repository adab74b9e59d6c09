package domain

// Product types as delivered by the catalog.
const (
	ProductTypeDefault = "default"
	ProductTypeBundle  = "bundle"
	ProductTypeSelect  = "select"
)

// Product is a catalog entry as consumed by the basket core. Children holds
// the bundled sub-products of a bundle or the concrete articles of a
// selection, depending on Type.
type Product struct {
	ID     string `json:"id"`
	Code   string `json:"code"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`

	// Scale is the sale-unit step; requested quantities are rounded up to the
	// nearest multiple.
	Scale float64 `json:"scale,omitempty"`

	PriceTiers []PriceTier `json:"price_tiers,omitempty"`

	// AttributeRefs lists the attribute IDs associated with the product per
	// relation list type (variant/config/custom/hidden).
	AttributeRefs map[string][]string `json:"attribute_refs,omitempty"`

	Children    []Product `json:"children,omitempty"`
	CategoryIDs []string  `json:"category_ids,omitempty"`
	SiteID      string    `json:"site_id,omitempty"`
}

// Attribute is a catalog attribute item, optionally carrying its own price
// tiers for surcharges.
type Attribute struct {
	ID         string      `json:"id"`
	Code       string      `json:"code"`
	Type       string      `json:"type"`
	Name       string      `json:"name"`
	PriceTiers []PriceTier `json:"price_tiers,omitempty"`
}

// RefIDs returns the attribute IDs referenced by the product under the given
// list type.
func (p *Product) RefIDs(listType string) []string {
	if p.AttributeRefs == nil {
		return nil
	}
	return p.AttributeRefs[listType]
}

// HasRef reports whether the product references the attribute ID under the
// given list type.
func (p *Product) HasRef(listType, attrID string) bool {
	for _, id := range p.RefIDs(listType) {
		if id == attrID {
			return true
		}
	}
	return false
}
