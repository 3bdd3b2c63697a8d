package repository

import (
	"errors"

	"bazaar/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrInsufficientBalance = errors.New("insufficient wallet balance")

type WalletRepository struct {
	db *gorm.DB
}

func NewWalletRepository(db *gorm.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) GetByUserID(userID uint) (*models.Wallet, error) {
	var w models.Wallet
	err := r.db.Where("user_id = ?", userID).First(&w).Error
	if err != nil {
		return nil, err
	}
	return &w, nil
}

func (r *WalletRepository) GetOrCreate(userID uint) (*models.Wallet, error) {
	w, err := r.GetByUserID(userID)
	if err == nil {
		return w, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	w = &models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: "INR"}
	if err := r.db.Create(w).Error; err != nil {
		return nil, err
	}
	return w, nil
}

// AppendTx appends a ledger entry within the caller's transaction, holding a
// row lock on the wallet so concurrent appends for the same user serialize.
// Debits (negative amounts) fail with ErrInsufficientBalance when the running
// balance would go below zero.
func (r *WalletRepository) AppendTx(tx *gorm.DB, userID uint, amount decimal.Decimal, reason, reference string) (*models.WalletLedgerEntry, error) {
	q := tx.Where("user_id = ?", userID)
	// sqlite has no row locks and serializes writes itself; FOR UPDATE there
	// is a syntax error.
	if tx.Dialector.Name() == "mysql" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var w models.Wallet
	err := q.First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		w = models.Wallet{UserID: userID, Balance: decimal.Zero, Currency: "INR"}
		if err := tx.Create(&w).Error; err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, err
	}

	next := w.Balance.Add(amount)
	if next.IsNegative() {
		return nil, ErrInsufficientBalance
	}

	entry := &models.WalletLedgerEntry{
		UserID:    userID,
		Amount:    amount,
		Reason:    reason,
		Reference: reference,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	if err := tx.Model(&models.Wallet{}).Where("id = ?", w.ID).Update("balance", next).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// Append runs AppendTx in its own transaction.
func (r *WalletRepository) Append(userID uint, amount decimal.Decimal, reason, reference string) (*models.WalletLedgerEntry, error) {
	var entry *models.WalletLedgerEntry
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = r.AppendTx(tx, userID, amount, reason, reference)
		return err
	})
	return entry, err
}

// Balance sums the ledger; the wallet row only caches this value.
func (r *WalletRepository) Balance(userID uint) (decimal.Decimal, error) {
	var row struct{ Total decimal.Decimal }
	err := r.db.Model(&models.WalletLedgerEntry{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *WalletRepository) ListEntries(userID uint, limit, offset int) ([]models.WalletLedgerEntry, error) {
	var list []models.WalletLedgerEntry
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

func (r *WalletRepository) GetEntry(id uint) (*models.WalletLedgerEntry, error) {
	var e models.WalletLedgerEntry
	if err := r.db.First(&e, id).Error; err != nil {
		return nil, err
	}
	return &e, nil
}
