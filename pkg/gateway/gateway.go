package gateway

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ChargeRequest struct {
	OrderRef      string // unique order ref; echoed back in the webhook
	Amount        decimal.Decimal
	Currency      string
	Description   string
	CustomerEmail string
	CallbackURL   string
	ExpiresIn     time.Duration
}

type ChargeResponse struct {
	Reference   string
	Status      string
	CheckoutURL string
	ExpiresAt   time.Time
}

type PayoutRequest struct {
	Ref         string // unique withdrawal ref
	Amount      decimal.Decimal
	Currency    string
	Account     string // payout destination (UPI id / bank ref)
	Description string
	CallbackURL string
}

type PayoutResponse struct {
	Reference string
	Status    string
}

// Provider is the payment service provider boundary: collection at checkout
// and payouts for wallet withdrawals.
type Provider interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error)
}
