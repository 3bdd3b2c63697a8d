package handler

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"

	"bazaar/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type GoogleOAuthHandler struct {
	svc *service.AuthService
	log *zap.Logger
}

func NewGoogleOAuthHandler(svc *service.AuthService, log *zap.Logger) *GoogleOAuthHandler {
	return &GoogleOAuthHandler{svc: svc, log: log}
}

// Start redirects to Google's consent page. An optional referral code rides
// along as a cookie so the callback can link it on first login.
func (h *GoogleOAuthHandler) Start(c *gin.Context) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start oauth flow"})
		return
	}
	state := hex.EncodeToString(b)
	c.SetCookie("oauth_state", state, 600, "/", "", false, true)
	if ref := c.Query("referral_code"); ref != "" {
		c.SetCookie("oauth_referral", ref, 600, "/", "", false, true)
	}
	c.Redirect(http.StatusTemporaryRedirect, h.svc.GoogleAuthURL(state))
}

// Callback finishes the OAuth flow and issues tokens.
func (h *GoogleOAuthHandler) Callback(c *gin.Context) {
	state, err := c.Cookie("oauth_state")
	if err != nil || state == "" || state != c.Query("state") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "oauth state mismatch"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing code"})
		return
	}
	referralCode, _ := c.Cookie("oauth_referral")

	user, tokens, err := h.svc.LoginWithGoogle(c.Request.Context(), code, referralCode)
	if err != nil {
		h.log.Error("google oauth callback failed", zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "google sign-in failed"})
		return
	}
	c.SetCookie("oauth_state", "", -1, "/", "", false, true)
	c.SetCookie("oauth_referral", "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, gin.H{
		"user":          user,
		"access_token":  tokens.AccessToken,
		"refresh_token": tokens.RefreshToken,
	})
}
