package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MaxCallbackLength is the chat platform's limit on a callback payload
const MaxCallbackLength = 64

// CallbackAction identifies what a rendered button does
type CallbackAction string

const (
	ActionCartAdd      CallbackAction = "cart:add"
	ActionCartRemove   CallbackAction = "cart:remove"
	ActionCartInc      CallbackAction = "cart:inc"
	ActionCartDec      CallbackAction = "cart:dec"
	ActionCartClear    CallbackAction = "cart:clear"
	ActionCartOpen     CallbackAction = "cart:open"
	ActionCartCheckout CallbackAction = "cart:checkout"
	ActionRecOpen      CallbackAction = "rec:open"
	ActionRecMore      CallbackAction = "rec:more"
)

// productActions take a product id argument
var productActions = []CallbackAction{
	ActionCartAdd, ActionCartRemove, ActionCartInc, ActionCartDec, ActionRecOpen,
}

// Callback is a parsed callback token
type Callback struct {
	Action    CallbackAction
	ProductID string
	Category  Category
	Page      int
}

// Token renders the callback back into its wire form
func (c Callback) Token() string {
	switch c.Action {
	case ActionCartClear, ActionCartOpen, ActionCartCheckout:
		return string(c.Action)
	case ActionRecMore:
		return fmt.Sprintf("%s:%s:%d", c.Action, c.Category, c.Page)
	default:
		return string(c.Action) + ":" + c.ProductID
	}
}

// CartAddToken returns the token bound to an "add to cart" button
func CartAddToken(productID string) (string, error) {
	return buildToken(Callback{Action: ActionCartAdd, ProductID: productID})
}

// CartRemoveToken returns the token bound to a "remove" button
func CartRemoveToken(productID string) (string, error) {
	return buildToken(Callback{Action: ActionCartRemove, ProductID: productID})
}

// CartIncToken returns the token bound to a quantity "+" button
func CartIncToken(productID string) (string, error) {
	return buildToken(Callback{Action: ActionCartInc, ProductID: productID})
}

// CartDecToken returns the token bound to a quantity "-" button
func CartDecToken(productID string) (string, error) {
	return buildToken(Callback{Action: ActionCartDec, ProductID: productID})
}

// RecOpenToken returns the token that opens a product card
func RecOpenToken(productID string) (string, error) {
	return buildToken(Callback{Action: ActionRecOpen, ProductID: productID})
}

// RecMoreToken returns the token for the next page of a category listing
func RecMoreToken(category Category, page int) (string, error) {
	return buildToken(Callback{Action: ActionRecMore, Category: category, Page: page})
}

func buildToken(c Callback) (string, error) {
	if c.Action != ActionRecMore && c.ProductID == "" {
		return "", fmt.Errorf("%w: empty product id", ErrInvalidCallback)
	}
	if c.Action == ActionRecMore && c.Page < 1 {
		return "", fmt.Errorf("%w: page must be >= 1", ErrInvalidCallback)
	}
	token := c.Token()
	if len(token) > MaxCallbackLength {
		return "", fmt.Errorf("%w: token exceeds %d bytes", ErrInvalidCallback, MaxCallbackLength)
	}
	return token, nil
}

// ParseCallback decodes a callback token. Product ids may themselves contain
// ':' since everything after the action prefix is taken verbatim.
func ParseCallback(token string) (Callback, error) {
	if token == "" || len(token) > MaxCallbackLength {
		return Callback{}, fmt.Errorf("%w: %q", ErrInvalidCallback, token)
	}

	switch CallbackAction(token) {
	case ActionCartClear, ActionCartOpen, ActionCartCheckout:
		return Callback{Action: CallbackAction(token)}, nil
	}

	for _, action := range productActions {
		prefix := string(action) + ":"
		if strings.HasPrefix(token, prefix) {
			id := strings.TrimPrefix(token, prefix)
			if id == "" {
				return Callback{}, fmt.Errorf("%w: missing product id in %q", ErrInvalidCallback, token)
			}
			return Callback{Action: action, ProductID: id}, nil
		}
	}

	if rest, ok := strings.CutPrefix(token, string(ActionRecMore)+":"); ok {
		idx := strings.LastIndex(rest, ":")
		if idx <= 0 {
			return Callback{}, fmt.Errorf("%w: %q", ErrInvalidCallback, token)
		}
		category, ok := ParseCategory(rest[:idx])
		if !ok {
			return Callback{}, fmt.Errorf("%w: unknown category in %q", ErrInvalidCallback, token)
		}
		page, err := strconv.Atoi(rest[idx+1:])
		if err != nil || page < 1 {
			return Callback{}, fmt.Errorf("%w: bad page in %q", ErrInvalidCallback, token)
		}
		return Callback{Action: ActionRecMore, Category: category, Page: page}, nil
	}

	return Callback{}, fmt.Errorf("%w: unknown action in %q", ErrInvalidCallback, token)
}
