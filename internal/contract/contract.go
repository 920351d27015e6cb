// Package contract holds the typed request and response bodies exchanged with
// the storefront backend. Both the API client and the development backend
// validate payloads against these schemas at the boundary.
package contract

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"storefront/internal/domain"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate checks v against its `validate` struct tags. Slices of structs are
// validated element by element.
func Validate(v any) error {
	var err error
	switch t := v.(type) {
	case []domain.Product:
		err = validatorInstance().Var(t, "dive")
	case []domain.CartLineItem:
		err = validatorInstance().Var(t, "dive")
	default:
		err = validatorInstance().Struct(v)
	}
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			fields = append(fields, fmt.Sprintf("%s(%s)", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(fields, ", "))
	}
	return fmt.Errorf("%w: %v", ErrInvalid, err)
}

// ErrInvalid wraps every schema violation reported by Validate.
var ErrInvalid = errors.New("invalid payload")

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name     string         `json:"name" validate:"required"`
	Email    string         `json:"email" validate:"required,email"`
	Password string         `json:"password" validate:"required,min=6"`
	Address  domain.Address `json:"address"`
}

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the issued bearer token.
type LoginResponse struct {
	Token string `json:"token" validate:"required"`
}

// ResetRequest is the body of POST /request.
type ResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetConfirm is the body of POST /reset.
type ResetConfirm struct {
	Email       string `json:"email" validate:"required,email"`
	ResetCode   string `json:"resetCode" validate:"required,len=6,numeric"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// CheckoutRequest is the body of POST /checkout.
type CheckoutRequest struct {
	Email string                `json:"email" validate:"required,email"`
	Cart  []domain.CartLineItem `json:"cart" validate:"required,min=1,dive"`
}

// CheckoutResponse is the order confirmation.
type CheckoutResponse struct {
	Message string  `json:"message"`
	OrderID string  `json:"orderId,omitempty"`
	Total   float64 `json:"total"`
}

// AddressUpdate lists the address fields a profile update may change.
type AddressUpdate struct {
	Street      *string `json:"street,omitempty" validate:"omitnil,min=1"`
	City        *string `json:"city,omitempty" validate:"omitnil,min=1"`
	Department  *string `json:"department,omitempty" validate:"omitnil,min=1"`
	Description *string `json:"description,omitempty" validate:"omitnil,min=1"`
}

// ProfileUpdate is the partial body of PUT /user: only set fields change.
type ProfileUpdate struct {
	Name    *string        `json:"name,omitempty" validate:"omitnil,min=1"`
	Email   *string        `json:"email,omitempty" validate:"omitnil,email"`
	Address *AddressUpdate `json:"address,omitempty"`
}

// Empty reports whether the update carries no change at all.
func (u ProfileUpdate) Empty() bool {
	if u.Name != nil || u.Email != nil {
		return false
	}
	if u.Address == nil {
		return true
	}
	a := u.Address
	return a.Street == nil && a.City == nil && a.Department == nil && a.Description == nil
}

// Apply merges the update into user and returns the result.
func (u ProfileUpdate) Apply(user domain.User) domain.User {
	if u.Name != nil {
		user.Name = *u.Name
	}
	if u.Email != nil {
		user.Email = *u.Email
	}
	if a := u.Address; a != nil {
		if a.Street != nil {
			user.Address.Street = *a.Street
		}
		if a.City != nil {
			user.Address.City = *a.City
		}
		if a.Department != nil {
			user.Address.Department = *a.Department
		}
		if a.Description != nil {
			user.Address.Description = *a.Description
		}
	}
	return user
}

// Diff builds the update that turns current into edited, carrying only the
// fields that differ.
func Diff(current, edited domain.User) ProfileUpdate {
	var u ProfileUpdate
	if edited.Name != current.Name {
		u.Name = strPtr(edited.Name)
	}
	if edited.Email != current.Email {
		u.Email = strPtr(edited.Email)
	}
	var a AddressUpdate
	changed := false
	if edited.Address.Street != current.Address.Street {
		a.Street, changed = strPtr(edited.Address.Street), true
	}
	if edited.Address.City != current.Address.City {
		a.City, changed = strPtr(edited.Address.City), true
	}
	if edited.Address.Department != current.Address.Department {
		a.Department, changed = strPtr(edited.Address.Department), true
	}
	if edited.Address.Description != current.Address.Description {
		a.Description, changed = strPtr(edited.Address.Description), true
	}
	if changed {
		u.Address = &a
	}
	return u
}

// Ack is the generic acknowledgement body.
type Ack struct {
	Message string `json:"message"`
}

// ErrorBody is what the backend sends with non-2xx responses.
type ErrorBody struct {
	Message string `json:"message"`
}

func strPtr(v string) *string {
	return &v
}
