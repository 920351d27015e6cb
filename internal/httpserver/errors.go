package httpserver

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/contract"
	"storefront/internal/domain"
	usersvc "storefront/internal/service/user"
)

func writeError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, contract.ErrorBody{Message: msg})
}

// writeServiceError maps a service error onto a status and a message safe to
// show to the customer.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, contract.ErrInvalid):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, usersvc.ErrInvalidCredentials):
		writeError(c, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, usersvc.ErrInvalidToken):
		writeError(c, http.StatusUnauthorized, "Invalid or expired token")
	case errors.Is(err, usersvc.ErrInvalidResetCode):
		writeError(c, http.StatusBadRequest, "Invalid or expired reset code")
	case errors.Is(err, domain.ErrInsufficientStock):
		writeError(c, http.StatusConflict, "Not enough stock for one of the products")
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, "Email already registered")
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, "Not found")
	default:
		_ = c.Error(err)
		writeError(c, http.StatusInternalServerError, "Internal server error")
	}
}
