package domain

import "fmt"

// LocaleKey identifies the (site, language, currency) context a basket was
// created under. Baskets stored under a different key than the active one are
// migrated on the next retrieval.
type LocaleKey struct {
	SiteID     string `json:"site_id"`
	LanguageID string `json:"language_id"`
	CurrencyID string `json:"currency_id"`
}

// Equal reports whether both keys reference the same locale context.
func (k LocaleKey) Equal(other LocaleKey) bool {
	return k.SiteID == other.SiteID &&
		k.LanguageID == other.LanguageID &&
		k.CurrencyID == other.CurrencyID
}

// IsZero reports whether no locale has been recorded yet.
func (k LocaleKey) IsZero() bool {
	return k == LocaleKey{}
}

func (k LocaleKey) String() string {
	return fmt.Sprintf("%s|%s|%s", k.SiteID, k.LanguageID, k.CurrencyID)
}
