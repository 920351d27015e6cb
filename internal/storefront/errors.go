package storefront

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"storefront/internal/apiclient"
	"storefront/internal/contract"
)

var (
	ErrEmptyCart      = errors.New("cart is empty")
	ErrNoChanges      = errors.New("no changes")
	ErrOutOfStock     = errors.New("product out of stock")
	ErrStockLimit     = errors.New("all available units already in cart")
	ErrNotInCart      = errors.New("product not in cart")
	ErrNotSignedIn    = errors.New("not signed in")
	ErrNoSessionEmail = errors.New("session email not found")
)

// ValidationError rejects input before any request is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func required(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}

// UserMessage turns an error from this package into text fit for the
// customer.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return fmt.Sprintf("The field %q %s.", verr.Field, verr.Reason)
	}
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "Your cart is empty."
	case errors.Is(err, ErrNoChanges):
		return "No changes were made to your profile."
	case errors.Is(err, ErrOutOfStock):
		return "This product is out of stock."
	case errors.Is(err, ErrStockLimit):
		return "You already have every available unit of this product in your cart."
	case errors.Is(err, ErrNotInCart):
		return "That product is not in your cart."
	case errors.Is(err, ErrNotSignedIn):
		return "Please sign in first."
	case errors.Is(err, ErrNoSessionEmail):
		return "Your session email was not found. Please sign in again."
	case errors.Is(err, contract.ErrInvalid):
		return "Some of the information is not valid. Please review it and try again."
	}

	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status >= http.StatusInternalServerError:
			return "The server had a problem. Please try again later."
		case apiErr.Message != "":
			return apiErr.Message
		case errors.Is(apiErr, apiclient.ErrUnauthorized):
			return "Your session has expired. Please sign in again."
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.As(err, &netErr) {
		return "Could not reach the server. Check your connection and try again."
	}
	return "Something went wrong. Please try again."
}
