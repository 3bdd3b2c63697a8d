package repository

import (
	"testing"

	"bazaar/internal/domain"
	"bazaar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedOrder(t *testing.T, db *gorm.DB, ref string) *models.Order {
	t.Helper()
	buyer := seedUser(t, db, "buyer-"+ref)
	seller := seedUser(t, db, "seller-"+ref)
	o := &models.Order{
		Ref:      ref,
		UserID:   buyer.ID,
		SellerID: seller.ID,
		Subtotal: dec("100"),
		Total:    dec("100"),
		Profit:   dec("50"),
		Status:   domain.OrderStatusPending,
	}
	require.NoError(t, db.Create(o).Error)
	return o
}

func TestTransitionStatusIsConditional(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	o := seedOrder(t, db, "ORD-1")

	ok, err := repo.TransitionStatus(db, o.ID, domain.OrderStatusPending, domain.OrderStatusPaid, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// Repeating the same transition finds the order no longer PENDING.
	ok, err = repo.TransitionStatus(db, o.ID, domain.OrderStatusPending, domain.OrderStatusPaid, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	var reloaded models.Order
	require.NoError(t, db.First(&reloaded, o.ID).Error)
	assert.Equal(t, domain.OrderStatusPaid, reloaded.Status)
}

func TestMarkCommissionsDistributedWinsOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewOrderRepository(db)
	o := seedOrder(t, db, "ORD-1")

	ok, err := repo.MarkCommissionsDistributed(db, o.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.MarkCommissionsDistributed(db, o.ID)
	require.NoError(t, err)
	assert.False(t, ok, "second settlement attempt must lose the flag")
}
