package httpserver

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"storefront/internal/contract"
	"storefront/internal/domain"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type userService interface {
	Register(ctx context.Context, in contract.RegisterRequest) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	LookupByToken(ctx context.Context, token string) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID string, upd contract.ProfileUpdate) (*domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, in contract.ResetConfirm) error
}

type checkoutService interface {
	Checkout(ctx context.Context, u domain.User, req contract.CheckoutRequest) (*domain.Order, error)
}

// Deps carries the services behind the routes.
type Deps struct {
	ProductSvc  productService
	UserSvc     userService
	CheckoutSvc checkoutService
}

// buildRouter wires routes for the API.
func buildRouter(logger *zap.Logger, db Pinger, deps Deps, corsOrigins []string) *gin.Engine {
	if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.LoggerWithWriter(zap.NewStdLog(logger.Named("access")).Writer()), gin.Recovery())
	router.Use(cors.New(corsConfig(corsOrigins)))

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))

	router.GET("/products", listProductsHandler(deps.ProductSvc))
	router.GET("/products/:id", getProductHandler(deps.ProductSvc))

	router.POST("/register", registerHandler(deps.UserSvc))
	router.POST("/login", loginHandler(deps.UserSvc))
	router.POST("/request", requestResetHandler(deps.UserSvc))
	router.POST("/reset", resetPasswordHandler(deps.UserSvc))

	authed := router.Group("/", authMiddleware(deps.UserSvc))
	authed.GET("/user", getProfileHandler())
	authed.PUT("/user", updateProfileHandler(deps.UserSvc))
	authed.POST("/checkout", checkoutHandler(deps.CheckoutSvc, logger))

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}
