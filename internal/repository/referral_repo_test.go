package repository

import (
	"testing"

	"bazaar/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateCodeIsStable(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)
	u := seedUser(t, db, "alice")

	code, err := repo.GetOrCreateCode(u.ID)
	require.NoError(t, err)
	assert.Len(t, code, 8)

	again, err := repo.GetOrCreateCode(u.ID)
	require.NoError(t, err)
	assert.Equal(t, code, again)

	owner, err := repo.GetByCode(code)
	require.NoError(t, err)
	assert.Equal(t, u.ID, owner.ID)
}

func TestSetReferrerIsWriteOnce(t *testing.T) {
	db := newTestDB(t)
	repo := NewReferralRepository(db)
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	ok, err := repo.SetReferrer(db, c.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.SetReferrer(db, c.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "referrer must not be overwritten")

	got, err := repo.GetReferrerID(c.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a.ID, *got)
}

func TestReplaceChainSwapsRowsWholesale(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.AutoMigrate(&models.ReferralChainEntry{}))
	repo := NewReferralRepository(db)
	a := seedUser(t, db, "alice")
	b := seedUser(t, db, "bob")
	c := seedUser(t, db, "carol")

	require.NoError(t, repo.ReplaceChain(db, c.ID, []models.ReferralChainEntry{
		{UserID: c.ID, AncestorID: a.ID, Level: 1},
	}))
	require.NoError(t, repo.ReplaceChain(db, c.ID, []models.ReferralChainEntry{
		{UserID: c.ID, AncestorID: b.ID, Level: 1},
		{UserID: c.ID, AncestorID: a.ID, Level: 2},
	}))

	entries, err := repo.ListChain(c.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, b.ID, entries[0].AncestorID)
	assert.Equal(t, a.ID, entries[1].AncestorID)
}
