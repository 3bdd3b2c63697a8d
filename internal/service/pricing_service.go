package service

import (
	"bazaar/config"
	"bazaar/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// TierQuote is the discount standing resolved for a buyer at a point in time.
type TierQuote struct {
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	TotalPurchase   decimal.Decimal `json:"total_purchase"`
	NextThreshold   decimal.Decimal `json:"next_threshold"`
	Unlocked        bool            `json:"unlocked"`
}

// PricingService resolves a buyer's discount tier from their cumulative
// purchase total. The tier is derived on every read, never stored: the
// purchase total only grows, so the resolved tier is monotonic even when
// the schedule changes between reads.
type PricingService struct {
	cfg      *config.CommissionConfigHolder
	userRepo *repository.UserRepository
	log      *zap.Logger
}

func NewPricingService(cfg *config.CommissionConfigHolder, userRepo *repository.UserRepository, log *zap.Logger) *PricingService {
	return &PricingService{cfg: cfg, userRepo: userRepo, log: log}
}

// Quote resolves the buyer's current tier standing.
func (s *PricingService) Quote(userID uint) (*TierQuote, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	return s.quoteFor(user.TotalPurchase), nil
}

// quoteFor picks the band with the highest threshold not exceeding the
// total. Below the lowest band the discount is zero.
func (s *PricingService) quoteFor(total decimal.Decimal) *TierQuote {
	cfg := s.cfg.Load()
	q := &TierQuote{
		DiscountPercent: decimal.Zero,
		TotalPurchase:   total,
		Unlocked:        total.GreaterThanOrEqual(cfg.UnlockThreshold),
	}
	for _, band := range cfg.DiscountTiers {
		if total.GreaterThanOrEqual(band.Threshold) {
			q.DiscountPercent = band.Percent
		} else {
			q.NextThreshold = band.Threshold
			break
		}
	}
	return q
}

// DiscountPercentFor returns only the percentage, for checkout pricing.
func (s *PricingService) DiscountPercentFor(userID uint) (decimal.Decimal, error) {
	q, err := s.Quote(userID)
	if err != nil {
		return decimal.Zero, err
	}
	return q.DiscountPercent, nil
}
