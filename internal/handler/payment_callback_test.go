package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"negarai/internal/alert"
	"negarai/internal/billing"
	"negarai/internal/middleware"
	"negarai/internal/models"
	"negarai/internal/payment"
)

type fakeAccounts struct {
	tokens  map[string]int
	credits int
}

func (a *fakeAccounts) FindByID(userID string) (*models.Account, error) {
	tokens, ok := a.tokens[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Account{ID: userID, Tokens: tokens}, nil
}

func (a *fakeAccounts) AddTokens(_ context.Context, userID string, delta int) error {
	if _, ok := a.tokens[userID]; !ok {
		return billing.ErrAccountNotFound
	}
	a.tokens[userID] += delta
	a.credits++
	return nil
}

type fakePayments struct {
	report *models.PaymentReport
}

func (p *fakePayments) FindByAuthority(authority string) (*models.PaymentReport, error) {
	if p.report == nil || p.report.Authority != authority {
		return nil, gorm.ErrRecordNotFound
	}
	return p.report, nil
}

func (p *fakePayments) MarkPaid(orderID, refID string) (bool, error) {
	if p.report.OrderID != orderID || p.report.Status != models.PaymentPending {
		return false, nil
	}
	p.report.Status = models.PaymentPaid
	p.report.RefID = refID
	return true, nil
}

func (p *fakePayments) MarkFailed(orderID string) error {
	if p.report.OrderID == orderID && p.report.Status == models.PaymentPending {
		p.report.Status = models.PaymentFailed
	}
	return nil
}

// scriptedGateway fails verification while verifyErr is set.
type scriptedGateway struct {
	verifyErr   error
	verifyCalls int
}

func (g *scriptedGateway) Name() string { return "zarinpal" }

func (g *scriptedGateway) CreatePayment(context.Context, int, string, string, string) (*payment.CreateResult, error) {
	return nil, errors.New("not used")
}

func (g *scriptedGateway) VerifyPayment(context.Context, string, int) (*payment.VerifyResult, error) {
	g.verifyCalls++
	if g.verifyErr != nil {
		return nil, g.verifyErr
	}
	return &payment.VerifyResult{Verified: true, RefID: "ref-1"}, nil
}

type noopStore struct{}

func (noopStore) GetTokens(context.Context, string) (int, error) { return 0, billing.ErrAccountNotFound }
func (noopStore) CompareAndSetTokens(context.Context, string, int, int) (bool, error) {
	return false, nil
}
func (noopStore) AddTokens(context.Context, string, int) error      { return nil }
func (noopStore) Append(context.Context, string, string, int) error { return nil }

type noopRPC struct{}

func (noopRPC) ConsumeTokens(context.Context, string, string, int) (int, error) {
	return 0, billing.ErrProcedureUnavailable
}

func newCallbackFixture(t *testing.T, gateway payment.Gateway) (*PaymentCallbackHandler, *fakeAccounts, *fakePayments) {
	t.Helper()
	logger := zap.NewNop()

	accounts := &fakeAccounts{tokens: map[string]int{"u1": 5}}
	payments := &fakePayments{report: &models.PaymentReport{
		OrderID:   "ORD-1",
		UserID:    "u1",
		Amount:    50000,
		Tokens:    500,
		Authority: "A0000123",
		Status:    models.PaymentPending,
	}}

	deduper, err := middleware.NewCallbackDeduper("", "", 0, time.Hour)
	require.NoError(t, err)

	consumer := billing.NewConsumer(
		billing.NewAtomicDebitor(noopRPC{}, time.Second, logger),
		billing.NewFallbackSequencer(noopStore{}, noopStore{}, nil, 1, logger),
		logger)
	notifier := alert.NewNotifier(nil, "", logger)

	h := NewPaymentCallbackHandler(accounts, payments, gateway, deduper, consumer, notifier, logger)
	return h, accounts, payments
}

func callback(t *testing.T, h *PaymentCallbackHandler, authority, status string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet,
		"/payment/zarinpal/callback?Authority="+authority+"&Status="+status, nil)
	rec := httptest.NewRecorder()
	require.NoError(t, h.ZarinPalCallback(e.NewContext(req, rec)))
	return rec
}

func TestCallback_CreditsOnce(t *testing.T) {
	gw := &scriptedGateway{}
	h, accounts, payments := newCallbackFixture(t, gw)

	callback(t, h, "A0000123", "OK")

	assert.Equal(t, models.PaymentPaid, payments.report.Status)
	assert.Equal(t, "ref-1", payments.report.RefID)
	assert.Equal(t, 505, accounts.tokens["u1"])
	assert.Equal(t, 1, accounts.credits)
}

func TestCallback_TransientVerifyFailureStaysRetryable(t *testing.T) {
	gw := &scriptedGateway{verifyErr: errors.New("gateway timeout")}
	h, accounts, payments := newCallbackFixture(t, gw)

	// First callback: the verify round-trip fails transiently. Nothing may
	// be recorded as processed.
	callback(t, h, "A0000123", "OK")
	assert.Equal(t, models.PaymentPending, payments.report.Status)
	assert.Equal(t, 0, accounts.credits)

	// The gateway retries and verification now succeeds: the user must be
	// credited, not told the transaction was already handled.
	gw.verifyErr = nil
	callback(t, h, "A0000123", "OK")

	assert.Equal(t, models.PaymentPaid, payments.report.Status)
	assert.Equal(t, 1, accounts.credits)
	assert.Equal(t, 505, accounts.tokens["u1"])
	assert.Equal(t, 2, gw.verifyCalls)
}

func TestCallback_ReplayAfterSuccessDoesNotDoubleCredit(t *testing.T) {
	gw := &scriptedGateway{}
	h, accounts, _ := newCallbackFixture(t, gw)

	callback(t, h, "A0000123", "OK")
	callback(t, h, "A0000123", "OK")

	assert.Equal(t, 1, accounts.credits)
	assert.Equal(t, 505, accounts.tokens["u1"])
}

func TestCallback_UserCancelMarksFailed(t *testing.T) {
	gw := &scriptedGateway{}
	h, accounts, payments := newCallbackFixture(t, gw)

	callback(t, h, "A0000123", "NOK")

	assert.Equal(t, models.PaymentFailed, payments.report.Status)
	assert.Equal(t, 0, gw.verifyCalls)
	assert.Equal(t, 0, accounts.credits)
}
