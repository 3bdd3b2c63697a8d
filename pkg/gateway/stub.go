package gateway

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development and tests.
type StubProvider struct{}

func (s *StubProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	return &ChargeResponse{
		Reference:   fmt.Sprintf("stub_%s_%d", req.OrderRef, time.Now().UnixNano()),
		Status:      "PENDING",
		CheckoutURL: "",
		ExpiresAt:   time.Now().Add(req.ExpiresIn),
	}, nil
}

func (s *StubProvider) CreatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	return &PayoutResponse{
		Reference: fmt.Sprintf("stubpo_%s_%d", req.Ref, time.Now().UnixNano()),
		Status:    "PENDING",
	}, nil
}
