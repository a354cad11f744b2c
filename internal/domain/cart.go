package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CartStatus is the availability state of a cart item at last view
type CartStatus string

const (
	CartStatusOK       CartStatus = "ok"
	CartStatusOOS      CartStatus = "oos"
	CartStatusReplaced CartStatus = "replaced"
)

// MaxCartQuantity caps the quantity of a single cart line
const MaxCartQuantity = 99

// CartItem is one line of a user's cart. The catalog fields (category
// through affiliate URL) are a snapshot refreshed on add and view; they
// outlive the product so alternatives can still be found after removal.
type CartItem struct {
	ProductID    string          `json:"product_id"`
	Category     Category        `json:"category"`
	ShadeID      string          `json:"shade_id,omitempty"`
	Undertone    Undertone       `json:"undertone,omitempty"`
	Title        string          `json:"title,omitempty"`
	Qty          int             `json:"qty"`
	AddedAt      time.Time       `json:"added_at"`
	Price        decimal.Decimal `json:"price"`
	Currency     string          `json:"currency"`
	SourceKind   SourceKind      `json:"source_kind"`
	AffiliateURL string          `json:"affiliate_url"`
	Status       CartStatus      `json:"status"`
	ReplacedFrom string          `json:"replaced_from,omitempty"`
	Alternatives []string        `json:"alternatives,omitempty"`
}

// CartView is a re-evaluated cart with per-currency totals. Totals exclude
// out-of-stock items.
type CartView struct {
	UserID string                     `json:"user_id"`
	Items  []CartItem                 `json:"items"`
	Totals map[string]decimal.Decimal `json:"totals"`
}

// CheckoutLink is one outbound purchase link produced at checkout
type CheckoutLink struct {
	ProductID    string     `json:"product_id"`
	Qty          int        `json:"qty"`
	SourceKind   SourceKind `json:"source_kind"`
	AffiliateURL string     `json:"affiliate_url"`
}
