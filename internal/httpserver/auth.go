package httpserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

const userCtxKey = "storefront.user"

// authMiddleware resolves the bearer token to a user or rejects with 401.
func authMiddleware(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		token = strings.TrimSpace(token)
		if !ok || token == "" {
			writeError(c, http.StatusUnauthorized, "Missing bearer token")
			return
		}
		u, err := svc.LookupByToken(c.Request.Context(), token)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.Set(userCtxKey, *u)
		c.Next()
	}
}

func currentUser(c *gin.Context) domain.User {
	u, _ := c.Get(userCtxKey)
	user, _ := u.(domain.User)
	return user
}

func registerHandler(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.RegisterRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		if _, err := svc.Register(c.Request.Context(), req); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusCreated, contract.Ack{Message: "User registered"})
	}
}

func loginHandler(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		token, _, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract.LoginResponse{Token: token})
	}
}

func requestResetHandler(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.ResetRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		if err := svc.RequestPasswordReset(c.Request.Context(), strings.TrimSpace(req.Email)); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract.Ack{Message: "If the email is registered, a reset code has been sent"})
	}
}

func resetPasswordHandler(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.ResetConfirm
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		if err := svc.ResetPassword(c.Request.Context(), req); err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, contract.Ack{Message: "Password updated"})
	}
}

func getProfileHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, currentUser(c))
	}
}

func updateProfileHandler(svc userService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req contract.ProfileUpdate
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, http.StatusBadRequest, "Malformed request body")
			return
		}
		u, err := svc.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}
