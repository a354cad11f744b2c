package domain

import "time"

// Analytics event names
const (
	EventProfileBuilt     = "profile_built"
	EventSelectionDone    = "selection_done"
	EventSlotUncovered    = "slot_uncovered"
	EventCartAdd          = "cart_add"
	EventCartRemove       = "cart_remove"
	EventCartOOS          = "cart_oos"
	EventCartRestore      = "cart_restore"
	EventCartCheckout     = "cart_checkout"
	EventAffiliateMissing = "affiliate_missing"
)

// Event is a fire-and-forget analytics record
type Event struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	UserID     string         `json:"user_id"`
	Properties map[string]any `json:"properties,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
}

// EventSummary aggregates the events of a time window
type EventSummary struct {
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	Total       int            `json:"total_events"`
	ByEvent     map[string]int `json:"by_event"`
	UniqueUsers int            `json:"unique_users"`
	Funnel      Funnel         `json:"funnel"`
	OOS         OOSImpact      `json:"oos"`
}

// Funnel counts distinct users at each step from test to checkout. Rates
// are fractions of the previous step, zero when that step is empty.
type Funnel struct {
	Profiled      int     `json:"profiled_users"`
	Selected      int     `json:"selected_users"`
	AddedToCart   int     `json:"cart_users"`
	CheckedOut    int     `json:"checkout_users"`
	AddToCartRate float64 `json:"add_to_cart_rate"`
	CheckoutRate  float64 `json:"checkout_rate"`
}

// OOSImpact summarizes how stock-outs and catalog gaps hit users
type OOSImpact struct {
	CartEvents     int            `json:"cart_events"`
	AffectedUsers  int            `json:"affected_users"`
	UncoveredSlots int            `json:"uncovered_slots"`
	TopProducts    []ProductCount `json:"top_products,omitempty"`
}

// ProductCount is a product with how often it appeared
type ProductCount struct {
	ProductID string `json:"product_id"`
	Count     int    `json:"count"`
}

// EventSummarizer reports an aggregate over the trailing window
type EventSummarizer interface {
	Summary(window time.Duration) EventSummary
}
