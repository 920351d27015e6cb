package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/contract"
)

func checkoutHandler(svc checkoutService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		o, err := svc.Checkout(c.Request.Context(), currentUser(c), req)
		if err != nil {
			logger.Info("checkout rejected", zap.Error(err))
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract.CheckoutResponse{
			Message: "Purchase completed. A confirmation email has been sent.",
			OrderID: o.ID,
			Total:   o.Total,
		})
	}
}
