package service

import (
	"testing"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newPricingService(t *testing.T) (*PricingService, *gorm.DB) {
	db := newTestDB(t)
	holder := config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	return NewPricingService(holder, repository.NewUserRepository(db), testLogger()), db
}

func TestQuotePicksHighestBandNotExceedingTotal(t *testing.T) {
	svc, db := newPricingService(t)

	cases := []struct {
		total   string
		percent string
	}{
		{"0", "0"},
		{"999.99", "0"},
		{"1000", "15"},
		{"2499.99", "15"},
		{"2500", "20"},
		{"4999.99", "20"},
		{"5000", "25"},
		{"9999.99", "25"},
		{"10000", "30"},
		{"50000", "30"},
	}
	for i, tc := range cases {
		u := createUser(t, db, "buyer"+string(rune('a'+i)), domain.RoleCustomer)
		require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).
			Update("total_purchase", tc.total).Error)

		q, err := svc.Quote(u.ID)
		require.NoError(t, err)
		assert.True(t, q.DiscountPercent.Equal(dec(tc.percent)),
			"total %s: want %s%%, got %s%%", tc.total, tc.percent, q.DiscountPercent)
	}
}

func TestQuoteUnlockThresholdIsInclusive(t *testing.T) {
	svc, db := newPricingService(t)

	locked := createUser(t, db, "locked", domain.RoleCustomer)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", locked.ID).
		Update("total_purchase", "4999.99").Error)
	q, err := svc.Quote(locked.ID)
	require.NoError(t, err)
	assert.False(t, q.Unlocked)

	unlocked := createUser(t, db, "unlocked", domain.RoleCustomer)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", unlocked.ID).
		Update("total_purchase", "5000").Error)
	q, err = svc.Quote(unlocked.ID)
	require.NoError(t, err)
	assert.True(t, q.Unlocked)
}

func TestQuoteReportsNextThreshold(t *testing.T) {
	svc, db := newPricingService(t)
	u := createUser(t, db, "climber", domain.RoleCustomer)
	require.NoError(t, db.Model(&models.User{}).Where("id = ?", u.ID).
		Update("total_purchase", "1500").Error)

	q, err := svc.Quote(u.ID)
	require.NoError(t, err)
	assert.True(t, q.NextThreshold.Equal(dec("2500")), "next threshold %s", q.NextThreshold)
}
