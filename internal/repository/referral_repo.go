package repository

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"bazaar/internal/models"

	"gorm.io/gorm"
)

type ReferralRepository struct {
	db *gorm.DB
}

func NewReferralRepository(db *gorm.DB) *ReferralRepository {
	return &ReferralRepository{db: db}
}

// generateReferralCode returns an 8-character lowercase hex code.
func generateReferralCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil // 8 hex chars, e.g. "a3f2c1b0"
}

// GetOrCreateCode returns the user's referral code, issuing a unique one on
// first use. Once issued the code never changes.
func (r *ReferralRepository) GetOrCreateCode(userID uint) (string, error) {
	var u models.User
	if err := r.db.First(&u, userID).Error; err != nil {
		return "", err
	}
	if u.ReferralCode != nil && *u.ReferralCode != "" {
		return *u.ReferralCode, nil
	}
	for i := 0; i < 10; i++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}
		res := r.db.Model(&models.User{}).
			Where("id = ? AND referral_code IS NULL", userID).
			Update("referral_code", code)
		if res.Error == nil && res.RowsAffected == 1 {
			return code, nil
		}
		if res.Error == nil && res.RowsAffected == 0 {
			// Concurrent issue won; re-read.
			if err := r.db.First(&u, userID).Error; err != nil {
				return "", err
			}
			if u.ReferralCode != nil {
				return *u.ReferralCode, nil
			}
		}
		// Collision on the unique index: retry with a new code.
	}
	return "", fmt.Errorf("failed to generate a unique referral code after retries")
}

// GetByCode returns the user owning the given referral code.
func (r *ReferralRepository) GetByCode(code string) (*models.User, error) {
	var u models.User
	err := r.db.Where("referral_code = ?", code).First(&u).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetReferrerID returns the referrer of the given user, or nil when the user
// was not referred.
func (r *ReferralRepository) GetReferrerID(userID uint) (*uint, error) {
	var u models.User
	if err := r.db.Select("id", "referred_by_user_id").First(&u, userID).Error; err != nil {
		return nil, err
	}
	return u.ReferredByUserID, nil
}

// SetReferrer links userID to referrerID. The conditional update keeps the
// relation write-once: it fails silently against a concurrent link, which the
// caller detects via RowsAffected.
func (r *ReferralRepository) SetReferrer(tx *gorm.DB, userID, referrerID uint) (bool, error) {
	res := tx.Model(&models.User{}).
		Where("id = ? AND referred_by_user_id IS NULL", userID).
		Update("referred_by_user_id", referrerID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ReplaceChain swaps the materialized chain rows for a descendant in one shot.
// Must run inside the caller's transaction so readers never see a partial chain.
func (r *ReferralRepository) ReplaceChain(tx *gorm.DB, userID uint, entries []models.ReferralChainEntry) error {
	if err := tx.Unscoped().Where("user_id = ?", userID).Delete(&models.ReferralChainEntry{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	return tx.Create(&entries).Error
}

// ListChain returns the cached ancestor rows for a descendant, ordered by level.
func (r *ReferralRepository) ListChain(userID uint) ([]models.ReferralChainEntry, error) {
	var list []models.ReferralChainEntry
	err := r.db.Where("user_id = ?", userID).Order("level ASC").Find(&list).Error
	return list, err
}

// ListReferrals returns the users directly referred by the given referrer.
func (r *ReferralRepository) ListReferrals(referrerID uint, limit, offset int) ([]models.User, error) {
	var list []models.User
	err := r.db.Where("referred_by_user_id = ?", referrerID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&list).Error
	return list, err
}

// CountReferrals returns how many users the referrer has brought in.
func (r *ReferralRepository) CountReferrals(referrerID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.User{}).Where("referred_by_user_id = ?", referrerID).Count(&count).Error
	return count, err
}
