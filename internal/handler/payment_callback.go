package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"negarai/internal/alert"
	"negarai/internal/billing"
	"negarai/internal/middleware"
	"negarai/internal/models"
	"negarai/internal/payment"
	"negarai/internal/pkg/utils"
)

// CallbackAccounts is the slice of the account repository the callback
// needs: the balance credit and the post-credit read.
type CallbackAccounts interface {
	FindByID(userID string) (*models.Account, error)
	AddTokens(ctx context.Context, userID string, delta int) error
}

// CallbackPayments is the slice of the payment repository the callback
// needs.
type CallbackPayments interface {
	FindByAuthority(authority string) (*models.PaymentReport, error)
	MarkPaid(orderID, refID string) (bool, error)
	MarkFailed(orderID string) error
}

// PaymentCallbackHandler handles ZarinPal gateway callbacks: verify the
// payment, credit the purchased tokens exactly once, and report to the
// admin chat.
type PaymentCallbackHandler struct {
	accounts CallbackAccounts
	payments CallbackPayments
	gateway  payment.Gateway
	deduper  middleware.CallbackDeduper
	consumer *billing.Consumer
	notifier *alert.Notifier
	logger   *zap.Logger
}

func NewPaymentCallbackHandler(
	accounts CallbackAccounts,
	payments CallbackPayments,
	gateway payment.Gateway,
	deduper middleware.CallbackDeduper,
	consumer *billing.Consumer,
	notifier *alert.Notifier,
	logger *zap.Logger,
) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{
		accounts: accounts,
		payments: payments,
		gateway:  gateway,
		deduper:  deduper,
		consumer: consumer,
		notifier: notifier,
		logger:   logger,
	}
}

// ZarinPalCallback handles GET /payment/zarinpal/callback.
func (h *PaymentCallbackHandler) ZarinPalCallback(c echo.Context) error {
	authority := c.QueryParam("Authority")
	statusParam := c.QueryParam("Status")

	if authority == "" {
		return h.renderResult(c, "خطا", "پارامترهای نامعتبر")
	}

	report, err := h.payments.FindByAuthority(authority)
	if err != nil {
		return h.renderResult(c, "خطا", "تراکنش یافت نشد")
	}

	if statusParam != "OK" {
		_ = h.payments.MarkFailed(report.OrderID)
		return h.renderResult(c, "پرداخت انجام نشد", "کاربر از پرداخت منصرف شد")
	}

	if report.Status == models.PaymentPaid {
		return h.renderResult(c, "پرداخت موفق", "این تراکنش قبلاً پرداخت شده است")
	}

	result, err := h.gateway.VerifyPayment(c.Request().Context(), authority, report.Amount)
	if err != nil {
		h.logger.Error("payment verify error",
			zap.String("order_id", report.OrderID), zap.Error(err))
		return h.renderResult(c, "خطا", "خطا در تأیید پرداخت")
	}
	if !result.Verified {
		msg := result.Message
		if msg == "" {
			msg = "تأیید پرداخت ناموفق"
		}
		_ = h.payments.MarkFailed(report.OrderID)
		return h.renderResult(c, "پرداخت ناموفق", msg)
	}

	// The key is only marked after a successful verify: a transiently
	// failed verification must stay retryable for the gateway's next
	// callback. A hit here means another callback already processed this
	// authority.
	if seen, err := h.deduper.Seen(c.Request().Context(), authority); err != nil {
		h.logger.Warn("callback dedup check failed", zap.Error(err))
	} else if seen {
		return h.renderResult(c, "پرداخت موفق", "این تراکنش قبلاً پردازش شده است")
	}

	// The conditional status transition is the second idempotency line:
	// even past the deduper, only one caller can move pending -> paid and
	// credit the tokens.
	credited, err := h.payments.MarkPaid(report.OrderID, result.RefID)
	if err != nil {
		h.logger.Error("failed to mark payment paid",
			zap.String("order_id", report.OrderID), zap.Error(err))
		return h.renderResult(c, "خطا", "خطای داخلی در ثبت پرداخت")
	}
	if !credited {
		return h.renderResult(c, "پرداخت موفق", "این تراکنش قبلاً پرداخت شده است")
	}

	if err := h.accounts.AddTokens(c.Request().Context(), report.UserID, report.Tokens); err != nil {
		h.logger.Error("token credit failed after verified payment",
			zap.String("order_id", report.OrderID),
			zap.String("user_id", report.UserID),
			zap.Int("tokens", report.Tokens),
			zap.Error(err))
		h.notifier.Alert(c.Request().Context(), fmt.Sprintf(
			"payment %s verified but crediting %d tokens to %s failed: %v",
			report.OrderID, report.Tokens, report.UserID, err))
		return h.renderResult(c, "خطا", "پرداخت تأیید شد اما شارژ حساب با خطا مواجه شد. با پشتیبانی تماس بگیرید")
	}

	// Refresh the local balance view so the next pre-flight sees the credit.
	if acc, err := h.accounts.FindByID(report.UserID); err == nil {
		h.consumer.Ledger().Set(report.UserID, acc.Tokens)
	}

	h.notifier.PaymentReport(fmt.Sprintf(
		"پرداخت جدید\nکاربر: %s\nمبلغ: %s تومان\nتوکن: %d\nشماره تراکنش: %s",
		report.UserID, utils.FormatNumber(int64(report.Amount)), report.Tokens, result.RefID))

	return h.renderResult(c, "پرداخت موفق",
		fmt.Sprintf("%d توکن به حساب شما اضافه شد", report.Tokens))
}

func (h *PaymentCallbackHandler) renderResult(c echo.Context, title, message string) error {
	return c.HTML(http.StatusOK, fmt.Sprintf(`<!DOCTYPE html>
<html lang="fa" dir="rtl">
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: Tahoma, sans-serif; text-align: center; padding-top: 4rem;">
<h2>%s</h2>
<p>%s</p>
</body>
</html>`, title, title, message))
}
