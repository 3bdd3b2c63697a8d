package service

import (
	"errors"

	"bazaar/internal/domain"
	"bazaar/internal/models"
	"bazaar/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidReferralCode = errors.New("unknown referral code")
	ErrSelfReferral        = errors.New("cannot use your own referral code")
	ErrAlreadyReferred     = errors.New("user already has a referrer")
	ErrReferralCycle       = errors.New("referral chain contains a cycle")
)

// ReferralService owns the referral registry: the referred-by relation on
// users, the bounded ancestor walk, and the materialized chain cache.
type ReferralService struct {
	db           *gorm.DB
	referralRepo *repository.ReferralRepository
	log          *zap.Logger
}

func NewReferralService(db *gorm.DB, referralRepo *repository.ReferralRepository, log *zap.Logger) *ReferralService {
	return &ReferralService{db: db, referralRepo: referralRepo, log: log}
}

// ResolveChain walks the referred-by pointers for a user, returning ancestor
// IDs ordered level 1 (direct referrer) outward, at most 8 deep. Terminates
// early at a user with no referrer. The registry forbids cycles at write
// time; hitting one here means corrupted data, so the walk aborts with
// ErrReferralCycle rather than truncating quietly.
func (s *ReferralService) ResolveChain(userID uint) ([]uint, error) {
	visited := map[uint]struct{}{userID: {}}
	chain := make([]uint, 0, domain.MaxReferralDepth)
	current := userID
	for len(chain) < domain.MaxReferralDepth {
		parent, err := s.referralRepo.GetReferrerID(current)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// Ancestor row vanished (hard delete); treat as end of chain.
				break
			}
			return nil, err
		}
		if parent == nil {
			break
		}
		if _, seen := visited[*parent]; seen {
			s.log.Error("referral cycle detected",
				zap.Uint("user_id", userID),
				zap.Uint("repeated_ancestor", *parent),
			)
			return nil, ErrReferralCycle
		}
		visited[*parent] = struct{}{}
		chain = append(chain, *parent)
		current = *parent
	}
	return chain, nil
}

// ValidateCode checks that a referral code exists without linking anything.
func (s *ReferralService) ValidateCode(code string) error {
	if _, err := s.referralRepo.GetByCode(code); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidReferralCode
		}
		return err
	}
	return nil
}

// Code returns the user's referral code, issuing one on first request.
func (s *ReferralService) Code(userID uint) (string, error) {
	return s.referralRepo.GetOrCreateCode(userID)
}

// Referrals lists the users a referrer brought in directly.
func (s *ReferralService) Referrals(referrerID uint, limit, offset int) ([]models.User, int64, error) {
	list, err := s.referralRepo.ListReferrals(referrerID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.referralRepo.CountReferrals(referrerID)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

// Link validates a referral code and sets the caller's referrer. The relation
// is write-once and must stay acyclic, so linking to one of your own
// descendants is rejected up front.
func (s *ReferralService) Link(userID uint, code string) (*models.User, error) {
	referrer, err := s.referralRepo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidReferralCode
		}
		return nil, err
	}
	if referrer.ID == userID {
		return nil, ErrSelfReferral
	}
	existing, err := s.referralRepo.GetReferrerID(userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyReferred
	}

	// Write-time acyclicity check: if the prospective referrer descends from
	// the user, the link would close a cycle.
	ancestors, err := s.ResolveChain(referrer.ID)
	if err != nil {
		return nil, err
	}
	for _, a := range ancestors {
		if a == userID {
			return nil, ErrReferralCycle
		}
	}

	chain := make([]models.ReferralChainEntry, 0, len(ancestors)+1)
	chain = append(chain, models.ReferralChainEntry{UserID: userID, AncestorID: referrer.ID, Level: 1})
	for i, a := range ancestors {
		level := i + 2
		if level > domain.MaxReferralDepth {
			break
		}
		chain = append(chain, models.ReferralChainEntry{UserID: userID, AncestorID: a, Level: level})
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.referralRepo.SetReferrer(tx, userID, referrer.ID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrAlreadyReferred
		}
		return s.referralRepo.ReplaceChain(tx, userID, chain)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("referral linked",
		zap.Uint("user_id", userID),
		zap.Uint("referrer_id", referrer.ID),
		zap.Int("chain_depth", len(chain)),
	)
	return referrer, nil
}

// RefreshChain recomputes and atomically replaces the cached chain rows for a
// user from the current registry state. Last writer wins; the resolver is a
// pure function of the registry, so that is safe.
func (s *ReferralService) RefreshChain(userID uint) error {
	ancestors, err := s.ResolveChain(userID)
	if err != nil {
		return err
	}
	entries := make([]models.ReferralChainEntry, 0, len(ancestors))
	for i, a := range ancestors {
		entries = append(entries, models.ReferralChainEntry{UserID: userID, AncestorID: a, Level: i + 1})
	}
	return s.db.Transaction(func(tx *gorm.DB) error {
		return s.referralRepo.ReplaceChain(tx, userID, entries)
	})
}
