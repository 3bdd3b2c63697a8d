package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// HTTPProvider talks to a REST payment service provider with API-key auth.
type HTTPProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewHTTPProvider(baseURL, apiKey string) *HTTPProvider {
	return &HTTPProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type chargeReq struct {
	OrderRef      string `json:"order_ref"`
	Amount        string `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	CustomerEmail string `json:"customer_email"`
	CallbackURL   string `json:"callback_url"`
	ExpirySeconds int64  `json:"expiry_seconds"`
}

type chargeResp struct {
	Reference   string `json:"reference"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
	ExpiresAt   string `json:"expires_at"`
}

func (p *HTTPProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	payload := chargeReq{
		OrderRef:      req.OrderRef,
		Amount:        req.Amount.StringFixed(2),
		Currency:      req.Currency,
		Description:   req.Description,
		CustomerEmail: req.CustomerEmail,
		CallbackURL:   req.CallbackURL,
		ExpirySeconds: int64(req.ExpiresIn / time.Second),
	}
	var out chargeResp
	if err := p.post(ctx, "/v1/charges", payload, &out); err != nil {
		return nil, err
	}
	resp := &ChargeResponse{
		Reference:   out.Reference,
		Status:      out.Status,
		CheckoutURL: out.CheckoutURL,
	}
	if out.ExpiresAt != "" {
		if t, err := time.Parse(time.RFC3339, out.ExpiresAt); err == nil {
			resp.ExpiresAt = t
		}
	}
	return resp, nil
}

type payoutReq struct {
	Ref         string `json:"ref"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Account     string `json:"account"`
	Description string `json:"description"`
	CallbackURL string `json:"callback_url"`
}

type payoutResp struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}

func (p *HTTPProvider) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	payload := payoutReq{
		Ref:         req.Ref,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Account:     req.Account,
		Description: req.Description,
		CallbackURL: req.CallbackURL,
	}
	var out payoutResp
	if err := p.post(ctx, "/v1/payouts", payload, &out); err != nil {
		return nil, err
	}
	return &PayoutResponse{Reference: out.Reference, Status: out.Status}, nil
}

func (p *HTTPProvider) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("gateway %s returned %d", path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
