package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/pkg/gateway"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrWithdrawalNotPending = errors.New("withdrawal is not pending")
	ErrBelowMinimum         = errors.New("amount is below the minimum withdrawal")
)

// minWithdrawal keeps payout fees from dwarfing the transfer.
var minWithdrawal = decimal.NewFromInt(100)

// WalletService exposes the ledger to users and runs withdrawals. A
// withdrawal debits the wallet the moment it is requested; a failed payout
// is made whole with a compensating refund entry, never by deleting the
// debit.
type WalletService struct {
	db              *gorm.DB
	walletRepo      *repository.WalletRepository
	withdrawalRepo  *repository.WithdrawalRepository
	commissionRepo  *repository.CommissionRepository
	notificationSvc *NotificationService
	provider        gateway.Provider
	callbackURL     string
	log             *zap.Logger
}

func NewWalletService(
	db *gorm.DB,
	walletRepo *repository.WalletRepository,
	withdrawalRepo *repository.WithdrawalRepository,
	commissionRepo *repository.CommissionRepository,
	notificationSvc *NotificationService,
	provider gateway.Provider,
	callbackURL string,
	log *zap.Logger,
) *WalletService {
	return &WalletService{
		db:              db,
		walletRepo:      walletRepo,
		withdrawalRepo:  withdrawalRepo,
		commissionRepo:  commissionRepo,
		notificationSvc: notificationSvc,
		provider:        provider,
		callbackURL:     callbackURL,
		log:             log,
	}
}

// WalletSummary is the user-facing wallet view.
type WalletSummary struct {
	Balance         decimal.Decimal `json:"balance"`
	Currency        string          `json:"currency"`
	LifetimeEarned  decimal.Decimal `json:"lifetime_earned"`
}

func (s *WalletService) Summary(userID uint) (*WalletSummary, error) {
	wallet, err := s.walletRepo.GetOrCreate(userID)
	if err != nil {
		return nil, err
	}
	// balance from the ledger, not the cached column
	balance, err := s.walletRepo.Balance(userID)
	if err != nil {
		return nil, err
	}
	earned, err := s.commissionRepo.TotalForBeneficiary(userID)
	if err != nil {
		return nil, err
	}
	return &WalletSummary{Balance: balance, Currency: wallet.Currency, LifetimeEarned: earned}, nil
}

func (s *WalletService) Ledger(userID uint, limit, offset int) ([]models.WalletLedgerEntry, error) {
	return s.walletRepo.ListEntries(userID, limit, offset)
}

// RequestWithdrawal debits the wallet and opens a gateway payout. The debit
// and the withdrawal row commit together; if the payout call itself fails
// the debit is refunded with a compensating entry.
func (s *WalletService) RequestWithdrawal(ctx context.Context, userID uint, amount decimal.Decimal, account string) (*models.Withdrawal, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if amount.LessThan(minWithdrawal) {
		return nil, ErrBelowMinimum
	}

	w := &models.Withdrawal{
		UserID:  userID,
		Ref:     "WDR-" + strings.ToUpper(uuid.NewString()[:18]),
		Amount:  amount,
		Account: account,
		Status:  domain.WithdrawalStatusPending,
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if _, err := s.walletRepo.AppendTx(tx, userID, amount.Neg(), domain.LedgerReasonWithdrawal, w.Ref); err != nil {
			return err
		}
		return s.withdrawalRepo.CreateTx(tx, w)
	})
	if err != nil {
		return nil, err
	}

	payout, err := s.provider.CreatePayout(ctx, gateway.PayoutRequest{
		Ref:         w.Ref,
		Amount:      amount,
		Currency:    "INR",
		Account:     account,
		Description: fmt.Sprintf("bazaar withdrawal %s", w.Ref),
		CallbackURL: s.callbackURL,
	})
	if err != nil {
		s.log.Error("payout request failed, refunding withdrawal",
			zap.String("withdrawal_ref", w.Ref), zap.Error(err))
		if failErr := s.failWithdrawal(w); failErr != nil {
			s.log.Error("failed to refund withdrawal",
				zap.String("withdrawal_ref", w.Ref), zap.Error(failErr))
		}
		return nil, err
	}
	w.ProviderRef = payout.Reference
	if err := s.withdrawalRepo.Update(w); err != nil {
		return nil, err
	}

	s.log.Info("withdrawal requested",
		zap.String("withdrawal_ref", w.Ref),
		zap.Uint("user_id", userID),
		zap.String("amount", amount.StringFixed(2)),
	)
	return w, nil
}

// HandlePayoutCompleted marks the withdrawal settled. The money already left
// the wallet at request time, so this only flips status.
func (s *WalletService) HandlePayoutCompleted(ref string) error {
	w, err := s.withdrawalRepo.GetByRef(ref)
	if err != nil {
		return err
	}
	now := time.Now()
	res := s.db.Model(&models.Withdrawal{}).
		Where("id = ? AND status = ?", w.ID, domain.WithdrawalStatusPending).
		Updates(map[string]interface{}{
			"status":       domain.WithdrawalStatusCompleted,
			"completed_at": &now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Replayed delivery or a concurrent failure webhook won.
		return nil
	}
	s.notificationSvc.Notify(w.UserID, NotifyWithdrawal,
		"Withdrawal completed",
		fmt.Sprintf("%s INR has been sent to %s.", w.Amount.StringFixed(2), w.Account),
		map[string]interface{}{"withdrawal_ref": w.Ref})
	return nil
}

// HandlePayoutFailed refunds the held amount with a compensating entry.
func (s *WalletService) HandlePayoutFailed(ref string) error {
	w, err := s.withdrawalRepo.GetByRef(ref)
	if err != nil {
		return err
	}
	if w.Status != domain.WithdrawalStatusPending {
		return nil
	}
	if err := s.failWithdrawal(w); err != nil {
		return err
	}
	s.notificationSvc.Notify(w.UserID, NotifyWithdrawal,
		"Withdrawal failed",
		fmt.Sprintf("%s INR has been returned to your wallet.", w.Amount.StringFixed(2)),
		map[string]interface{}{"withdrawal_ref": w.Ref})
	return nil
}

func (s *WalletService) failWithdrawal(w *models.Withdrawal) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Withdrawal{}).
			Where("id = ? AND status = ?", w.ID, domain.WithdrawalStatusPending).
			Update("status", domain.WithdrawalStatusFailed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		w.Status = domain.WithdrawalStatusFailed
		_, err := s.walletRepo.AppendTx(tx, w.UserID, w.Amount, domain.LedgerReasonRefund, w.Ref)
		return err
	})
}

func (s *WalletService) ListWithdrawals(userID uint, limit, offset int) ([]models.Withdrawal, error) {
	return s.withdrawalRepo.ListByUserID(userID, limit, offset)
}
