package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"negarai/internal/pkg/httpclient"
)

// ZarinPalGateway implements the Gateway interface for ZarinPal.
type ZarinPalGateway struct {
	merchantID string
	sandbox    bool
	apiBase    string // overrides the gateway URL when set
	client     *httpclient.Client
}

func NewZarinPalGateway(merchantID string, sandbox bool) *ZarinPalGateway {
	return &ZarinPalGateway{
		merchantID: merchantID,
		sandbox:    sandbox,
		client:     httpclient.New().WithTimeout(30 * time.Second),
	}
}

func (z *ZarinPalGateway) Name() string {
	return "zarinpal"
}

func (z *ZarinPalGateway) baseURL() string {
	if z.apiBase != "" {
		return z.apiBase
	}
	if z.sandbox {
		return "https://sandbox.zarinpal.com"
	}
	return "https://api.zarinpal.com"
}

func (z *ZarinPalGateway) paymentURL() string {
	if z.sandbox {
		return "https://sandbox.zarinpal.com/pg/StartPay/"
	}
	return "https://www.zarinpal.com/pg/StartPay/"
}

func (z *ZarinPalGateway) CreatePayment(ctx context.Context, amount int, orderID, description, callbackURL string) (*CreateResult, error) {
	body := map[string]interface{}{
		"merchant_id":  z.merchantID,
		"amount":       amount,
		"description":  description,
		"callback_url": callbackURL,
	}

	resp, err := z.client.Post(z.baseURL()+"/pg/v4/payment/request.json", body)
	if err != nil {
		return nil, fmt.Errorf("zarinpal create payment failed: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("zarinpal parse error: %w", err)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("zarinpal unexpected response format")
	}

	authority, _ := data["authority"].(string)
	if authority == "" {
		return nil, fmt.Errorf("zarinpal no authority returned")
	}

	return &CreateResult{
		OrderID:    orderID,
		PaymentURL: z.paymentURL() + authority,
		Authority:  authority,
	}, nil
}

func (z *ZarinPalGateway) VerifyPayment(ctx context.Context, authority string, amount int) (*VerifyResult, error) {
	body := map[string]interface{}{
		"merchant_id": z.merchantID,
		"amount":      amount,
		"authority":   authority,
	}

	resp, err := z.client.Post(z.baseURL()+"/pg/v4/payment/verify.json", body)
	if err != nil {
		return nil, fmt.Errorf("zarinpal verify failed: %w", err)
	}

	var result map[string]interface{}
	if err := json.Unmarshal(resp, &result); err != nil {
		return nil, fmt.Errorf("zarinpal verify parse error: %w", err)
	}

	data, ok := result["data"].(map[string]interface{})
	if !ok {
		return &VerifyResult{Verified: false, Message: "invalid response"}, nil
	}

	code, _ := data["code"].(float64)
	refID := fmt.Sprintf("%.0f", data["ref_id"])

	// 100: verified now, 101: previously verified
	if code == 100 || code == 101 {
		return &VerifyResult{
			Verified: true,
			RefID:    refID,
		}, nil
	}

	return &VerifyResult{
		Verified: false,
		Message:  fmt.Sprintf("verification failed with code: %.0f", code),
	}, nil
}
