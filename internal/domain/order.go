package domain

import "time"

// Order is a finalized basket, archived immutably when the customer checks
// out. The persistent order schema proper lives in the order service; this is
// the snapshot handed over to it.
type Order struct {
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
}
