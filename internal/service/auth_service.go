package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"bazaar/config"
	"bazaar/internal/auth"
	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/gorm"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidRole        = errors.New("role must be CUSTOMER or SELLER")
)

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService struct {
	jwtCfg      *config.JWTConfig
	oauthCfg    *oauth2.Config
	userRepo    *repository.UserRepository
	referralSvc *ReferralService
	log         *zap.Logger
}

func NewAuthService(cfg *config.Config, userRepo *repository.UserRepository, referralSvc *ReferralService, log *zap.Logger) *AuthService {
	return &AuthService{
		jwtCfg: &cfg.JWT,
		oauthCfg: &oauth2.Config{
			ClientID:     cfg.OAuth.GoogleClientID,
			ClientSecret: cfg.OAuth.GoogleClientSecret,
			RedirectURL:  cfg.OAuth.GoogleRedirectURL,
			Scopes:       []string{"https://www.googleapis.com/auth/userinfo.email", "https://www.googleapis.com/auth/userinfo.profile"},
			Endpoint:     google.Endpoint,
		},
		userRepo:    userRepo,
		referralSvc: referralSvc,
		log:         log,
	}
}

type RegisterInput struct {
	Username     string
	Email        string
	Password     string
	Role         string
	ReferralCode string
}

// Register creates the account and, when a referral code was supplied, links
// the new user into the referrer's chain. The code is validated before the
// account is created so a bad code fails the whole signup.
func (s *AuthService) Register(in RegisterInput) (*models.User, *TokenPair, error) {
	if in.Role != domain.RoleCustomer && in.Role != domain.RoleSeller {
		return nil, nil, ErrInvalidRole
	}
	if _, err := s.userRepo.GetByEmail(in.Email); err == nil {
		return nil, nil, ErrEmailTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if _, err := s.userRepo.GetByUsername(in.Username); err == nil {
		return nil, nil, ErrUsernameTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, err
	}
	if in.ReferralCode != "" {
		if err := s.referralSvc.ValidateCode(in.ReferralCode); err != nil {
			return nil, nil, err
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, err
	}
	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, err
	}
	if in.ReferralCode != "" {
		if _, err := s.referralSvc.Link(user.ID, in.ReferralCode); err != nil {
			// The account exists; a referral race at this point should not kill
			// the signup.
			s.log.Warn("referral link failed after signup",
				zap.Uint("user_id", user.ID), zap.Error(err))
		}
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	s.log.Info("user registered",
		zap.Uint("user_id", user.ID),
		zap.String("role", user.Role),
		zap.Bool("referred", in.ReferralCode != ""),
	)
	return user, tokens, nil
}

func (s *AuthService) Login(email, password string) (*models.User, *TokenPair, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}
	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// GoogleAuthURL returns the consent page URL for the OAuth flow.
func (s *AuthService) GoogleAuthURL(state string) string {
	return s.oauthCfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

type googleUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// LoginWithGoogle exchanges the OAuth code, then finds or creates the user.
// Google accounts come in as customers; a referral code may ride along on the
// first login.
func (s *AuthService) LoginWithGoogle(ctx context.Context, code, referralCode string) (*models.User, *TokenPair, error) {
	token, err := s.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return nil, nil, fmt.Errorf("oauth exchange: %w", err)
	}
	client := s.oauthCfg.Client(ctx, token)
	resp, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		return nil, nil, fmt.Errorf("fetch userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("fetch userinfo: status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, nil, err
	}

	user, err := s.userRepo.GetByGoogleID(info.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Link to an existing email signup if there is one.
		user, err = s.userRepo.GetByEmail(info.Email)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			user = &models.User{
				Username: info.Email,
				Email:    info.Email,
				Role:     domain.RoleCustomer,
				GoogleID: &info.ID,
			}
			if err := s.userRepo.Create(user); err != nil {
				return nil, nil, err
			}
			if referralCode != "" {
				if _, err := s.referralSvc.Link(user.ID, referralCode); err != nil {
					s.log.Warn("referral link failed after google signup",
						zap.Uint("user_id", user.ID), zap.Error(err))
				}
			}
		} else if err != nil {
			return nil, nil, err
		} else {
			user.GoogleID = &info.ID
			if err := s.userRepo.Update(user); err != nil {
				return nil, nil, err
			}
		}
	} else if err != nil {
		return nil, nil, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *AuthService) Refresh(refreshToken string) (*TokenPair, error) {
	userID, err := auth.ParseRefreshToken(s.jwtCfg, refreshToken)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return s.issueTokens(user)
}

func (s *AuthService) ChangePassword(userID uint, current, next string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)) != nil {
		return ErrInvalidCredentials
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.PasswordHash = string(hash)
	return s.userRepo.Update(user)
}

func (s *AuthService) issueTokens(user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateAccessToken(s.jwtCfg, user.ID, user.Email, user.Role)
	if err != nil {
		return nil, err
	}
	refresh, err := auth.GenerateRefreshToken(s.jwtCfg, user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
