package service

import (
	"errors"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidProfit      = errors.New("profit must be a non-negative amount")
	ErrAlreadyDistributed = errors.New("commissions already distributed for this order")
)

var oneHundred = decimal.NewFromInt(100)

// CommissionShare is one referrer's computed cut of an order's profit.
type CommissionShare struct {
	BeneficiaryID uint
	Level         int
	Rate          decimal.Decimal
	Amount        decimal.Decimal
}

// CommissionService computes and distributes referral commissions.
// Distribution happens exactly once per order: the order's
// commissions_distributed flag is flipped with a conditional update inside
// the settlement transaction, so a concurrent attempt loses the
// compare-and-set and gets ErrAlreadyDistributed (a no-op, not a failure).
type CommissionService struct {
	cfg            *config.CommissionConfigHolder
	referralSvc    *ReferralService
	orderRepo      *repository.OrderRepository
	commissionRepo *repository.CommissionRepository
	walletRepo     *repository.WalletRepository
	log            *zap.Logger
}

func NewCommissionService(
	cfg *config.CommissionConfigHolder,
	referralSvc *ReferralService,
	orderRepo *repository.OrderRepository,
	commissionRepo *repository.CommissionRepository,
	walletRepo *repository.WalletRepository,
	log *zap.Logger,
) *CommissionService {
	return &CommissionService{
		cfg:            cfg,
		referralSvc:    referralSvc,
		orderRepo:      orderRepo,
		commissionRepo: commissionRepo,
		walletRepo:     walletRepo,
		log:            log,
	}
}

// Calculate is pure: profit and the resolved ancestor chain in, per-level
// shares out. The gateway fee percentage comes off the top; each remaining
// level rate applies to the distributable amount, rounded to 2 decimal
// places half-up. The rounding residue stays with the platform; shares are
// never grossed back up. Levels without a configured rate get nothing.
func (s *CommissionService) Calculate(profit decimal.Decimal, chain []uint) ([]CommissionShare, error) {
	if profit.IsNegative() {
		return nil, ErrInvalidProfit
	}
	cfg := s.cfg.Load()
	distributable := profit.Mul(oneHundred.Sub(cfg.GatewayFeePercent)).Div(oneHundred)

	shares := make([]CommissionShare, 0, len(chain))
	for i, beneficiary := range chain {
		if i >= len(cfg.LevelRates) {
			break
		}
		rate := cfg.LevelRates[i]
		amount := distributable.Mul(rate).Div(oneHundred).Round(2)
		if !amount.IsPositive() {
			continue
		}
		shares = append(shares, CommissionShare{
			BeneficiaryID: beneficiary,
			Level:         i + 1,
			Rate:          rate,
			Amount:        amount,
		})
	}
	return shares, nil
}

// DistributeTx writes the commissions and wallet ledger entries for an order
// inside the caller's settlement transaction. Returns ErrAlreadyDistributed
// if another settlement attempt won the flag; callers treat that as success.
func (s *CommissionService) DistributeTx(tx *gorm.DB, order *models.Order) ([]CommissionShare, error) {
	ok, err := s.orderRepo.MarkCommissionsDistributed(tx, order.ID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAlreadyDistributed
	}

	if order.Profit.IsNegative() {
		// An over-discounted order can settle at a loss; nothing to distribute
		// but the flag stays set so settlement is still exactly-once.
		s.log.Warn("order settled with negative profit, skipping commissions",
			zap.Uint("order_id", order.ID),
			zap.String("profit", order.Profit.String()),
		)
		return nil, nil
	}

	chain, err := s.referralSvc.ResolveChain(order.UserID)
	if err != nil {
		return nil, err
	}
	shares, err := s.Calculate(order.Profit, chain)
	if err != nil {
		return nil, err
	}
	if len(shares) == 0 {
		return nil, nil
	}

	commissions := make([]models.Commission, 0, len(shares))
	for _, share := range shares {
		commissions = append(commissions, models.Commission{
			OrderID:       order.ID,
			BeneficiaryID: share.BeneficiaryID,
			Level:         share.Level,
			Rate:          share.Rate,
			Amount:        share.Amount,
		})
	}
	if err := s.commissionRepo.CreateBatch(tx, commissions); err != nil {
		return nil, err
	}
	for _, share := range shares {
		if _, err := s.walletRepo.AppendTx(tx, share.BeneficiaryID, share.Amount, domain.LedgerReasonCommission, order.Ref); err != nil {
			return nil, err
		}
	}

	s.log.Info("distributed commissions",
		zap.Uint("order_id", order.ID),
		zap.Int("levels", len(shares)),
		zap.Int("config_version", s.cfg.Load().Version),
	)
	return shares, nil
}

// Void reverses a commission by appending a compensating negative ledger
// entry referencing it. The commission row itself stays untouched.
func (s *CommissionService) Void(commissionID uint) (*models.WalletLedgerEntry, error) {
	c, err := s.commissionRepo.GetByID(commissionID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(c.OrderID)
	if err != nil {
		return nil, err
	}
	entry, err := s.walletRepo.Append(c.BeneficiaryID, c.Amount.Neg(), domain.LedgerReasonReversal, order.Ref)
	if err != nil {
		return nil, err
	}
	s.log.Info("voided commission",
		zap.Uint("commission_id", commissionID),
		zap.Uint("beneficiary_id", c.BeneficiaryID),
		zap.String("amount", c.Amount.String()),
	)
	return entry, nil
}
