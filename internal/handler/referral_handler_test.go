package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"bazaar/config"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"
	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newReferralRouter(t *testing.T, db *gorm.DB, userID uint) *gin.Engine {
	t.Helper()
	holder := config.NewStaticCommissionConfigHolder(config.DefaultCommissionConfig())
	referralSvc := service.NewReferralService(db, repository.NewReferralRepository(db), testLogger())
	pricingSvc := service.NewPricingService(holder, repository.NewUserRepository(db), testLogger())
	h := NewReferralHandler(referralSvc, pricingSvc)

	r := gin.New()
	r.GET("/me/referrals", asUser(userID, domain.RoleCustomer), h.GetMyReferrals)
	return r
}

func setReferrer(t *testing.T, db *gorm.DB, userID, referrerID uint) {
	t.Helper()
	require.NoError(t, db.Model(&models.User{}).
		Where("id = ?", userID).Update("referred_by_user_id", referrerID).Error)
}

func TestGetMyReferralsSurfacesCorruptedChain(t *testing.T) {
	db := newTestDB(t)
	a := createUser(t, db, "alice", domain.RoleCustomer)
	b := createUser(t, db, "bob", domain.RoleCustomer)
	// direct manipulation, bypassing the write-time acyclicity check
	setReferrer(t, db, a.ID, b.ID)
	setReferrer(t, db, b.ID, a.ID)
	r := newReferralRouter(t, db, a.ID)

	req, _ := http.NewRequest(http.MethodGet, "/me/referrals", nil)
	w := perform(r, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code,
		"a cyclic registry is an integrity violation, not an empty chain")
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "error")
}

func TestGetMyReferralsReturnsChainAndDirects(t *testing.T) {
	db := newTestDB(t)
	a := createUser(t, db, "alice", domain.RoleCustomer)
	b := createUser(t, db, "bob", domain.RoleCustomer)
	c := createUser(t, db, "carol", domain.RoleCustomer)
	setReferrer(t, db, b.ID, a.ID)
	setReferrer(t, db, c.ID, b.ID)
	r := newReferralRouter(t, db, c.ID)

	req, _ := http.NewRequest(http.MethodGet, "/me/referrals", nil)
	w := perform(r, req)

	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Chain []uint `json:"chain"`
		Total int64  `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, []uint{b.ID, a.ID}, body.Chain)
	assert.Equal(t, int64(0), body.Total)
}
