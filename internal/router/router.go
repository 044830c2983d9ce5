package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"negarai/internal/alert"
	"negarai/internal/billing"
	"negarai/internal/config"
	"negarai/internal/handler"
	"negarai/internal/handler/api"
	"negarai/internal/middleware"
	"negarai/internal/payment"
	"negarai/internal/provider"
	"negarai/internal/repository"
)

// Setup configures all routes for the Echo server.
func Setup(
	e *echo.Echo,
	cfg *config.Config,
	db *gorm.DB,
	consumer *billing.Consumer,
	providers *provider.Registry,
	poller *provider.Poller,
	gateway payment.Gateway,
	callbackDeduper middleware.CallbackDeduper,
	notifier *alert.Notifier,
	logger *zap.Logger,
) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(middleware.CORS())

	// Repositories
	repos := &api.Repos{
		Account: repository.NewAccountRepository(db),
		Usage:   repository.NewUsageRepository(db),
		Payment: repository.NewPaymentRepository(db),
		Task:    repository.NewTaskRepository(db),
		Price:   repository.NewPriceRepository(db),
	}

	// Handlers
	callbackURL := cfg.Server.BaseURL + "/payment/zarinpal/callback"
	generateHandler := api.NewGenerateHandler(repos, consumer, providers, poller, logger)
	walletHandler := api.NewWalletHandler(repos, consumer, gateway, callbackURL, cfg.Payment.TokensPerKiloToman, logger)
	taskHandler := api.NewTaskHandler(repos, logger)
	profileHandler := api.NewProfileHandler(repos, logger)
	paymentCallbackHandler := handler.NewPaymentCallbackHandler(
		repos.Account, repos.Payment, gateway, callbackDeduper, consumer, notifier, logger)

	// API group with JWT auth
	apiGroup := e.Group("/api")
	apiGroup.Use(middleware.JWTAuth(cfg.JWT.Secret))

	apiGroup.POST("/generate", generateHandler.Handle)
	apiGroup.GET("/tasks", taskHandler.List)
	apiGroup.GET("/tasks/:id", taskHandler.Get)
	apiGroup.GET("/models", taskHandler.Models)
	apiGroup.GET("/wallet", walletHandler.Balance)
	apiGroup.POST("/wallet/recharge", walletHandler.Recharge)
	apiGroup.GET("/wallet/payments", walletHandler.Payments)
	apiGroup.GET("/profile", profileHandler.Get)
	apiGroup.POST("/profile", profileHandler.Update)

	// Payment callback routes (no auth; the gateway calls these)
	paymentGroup := e.Group("/payment")
	paymentGroup.GET("/zarinpal/callback", paymentCallbackHandler.ZarinPalCallback)

	// Health check
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
