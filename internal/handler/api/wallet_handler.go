package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/billing"
	"negarai/internal/middleware"
	"negarai/internal/models"
	"negarai/internal/payment"
	"negarai/internal/pkg/utils"
)

// WalletHandler serves balance, usage history, and recharge endpoints.
type WalletHandler struct {
	repos       *Repos
	consumer    *billing.Consumer
	gateway     payment.Gateway
	callbackURL string
	tokensPerKT int
	logger      *zap.Logger
}

func NewWalletHandler(repos *Repos, consumer *billing.Consumer, gateway payment.Gateway, callbackURL string, tokensPerKiloToman int, logger *zap.Logger) *WalletHandler {
	if tokensPerKiloToman <= 0 {
		tokensPerKiloToman = 10
	}
	return &WalletHandler{
		repos:       repos,
		consumer:    consumer,
		gateway:     gateway,
		callbackURL: callbackURL,
		tokensPerKT: tokensPerKiloToman,
		logger:      logger,
	}
}

// Balance handles GET /api/wallet: authoritative balance plus recent usage.
// The read also reseeds the local balance ledger the orchestrator pre-flights
// against.
func (h *WalletHandler) Balance(c echo.Context) error {
	userID := middleware.UserID(c)

	acc, err := h.repos.Account.FindOrCreate(userID, middleware.UserEmail(c))
	if err != nil {
		return errorResponse(c, "حساب کاربری یافت نشد")
	}
	h.consumer.Ledger().Set(userID, acc.Tokens)

	usage, err := h.repos.Usage.FindByUserID(userID, 20)
	if err != nil {
		h.logger.Warn("failed to load usage history",
			zap.String("user_id", userID), zap.Error(err))
		usage = nil
	}

	return successResponse(c, "", map[string]interface{}{
		"tokens": acc.Tokens,
		"plan":   acc.Plan,
		"usage":  usage,
	})
}

type rechargeRequest struct {
	Amount int `json:"amount"` // toman
}

// Recharge handles POST /api/wallet/recharge: creates a pending payment and
// returns the gateway StartPay URL.
func (h *WalletHandler) Recharge(c echo.Context) error {
	userID := middleware.UserID(c)

	var req rechargeRequest
	if err := c.Bind(&req); err != nil {
		return errorResponse(c, "درخواست نامعتبر است")
	}
	if req.Amount < 10000 {
		return errorResponse(c, "حداقل مبلغ شارژ ۱۰,۰۰۰ تومان است")
	}

	orderID := utils.GenerateOrderID()
	tokens := req.Amount / 1000 * h.tokensPerKT

	result, err := h.gateway.CreatePayment(
		c.Request().Context(),
		req.Amount,
		orderID,
		"شارژ حساب NegarAI",
		h.callbackURL,
	)
	if err != nil {
		h.logger.Error("payment creation failed",
			zap.String("user_id", userID), zap.Error(err))
		return errorResponse(c, "اتصال به درگاه پرداخت ممکن نشد")
	}

	report := &models.PaymentReport{
		OrderID:   orderID,
		UserID:    userID,
		Amount:    req.Amount,
		Tokens:    tokens,
		Authority: result.Authority,
		Gateway:   h.gateway.Name(),
		Status:    models.PaymentPending,
	}
	if err := h.repos.Payment.Create(report); err != nil {
		h.logger.Error("failed to record pending payment",
			zap.String("order_id", orderID), zap.Error(err))
		return errorResponse(c, "خطای داخلی در ثبت پرداخت")
	}

	return successResponse(c, "", map[string]interface{}{
		"order_id":    orderID,
		"payment_url": result.PaymentURL,
		"tokens":      tokens,
	})
}

// Payments handles GET /api/wallet/payments: recharge history.
func (h *WalletHandler) Payments(c echo.Context) error {
	userID := middleware.UserID(c)

	limit := utils.ParseInt(c.QueryParam("limit"), 20)
	payments, err := h.repos.Payment.FindByUserID(userID, limit)
	if err != nil {
		return errorResponse(c, "خطا در دریافت تاریخچه پرداخت")
	}
	return successResponse(c, "", payments)
}
