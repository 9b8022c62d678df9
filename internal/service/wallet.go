package service

import (
	"github.com/pkg/errors"

	"github.com/pechorka/storyvault/internal/storage"
)

func (s *Service) Balance(userID int64) (int64, error) {
	return s.store.Coins(userID)
}

// EarnCoins credits the wallet, e.g. for reading streaks or ad
// rewards.
func (s *Service) EarnCoins(userID int64, amount int64) (int64, error) {
	if amount <= 0 {
		return 0, errors.Errorf("earn amount must be positive, got %d", amount)
	}
	return s.store.AddCoins(userID, amount)
}

// ClaimWelcomeBonus grants the one-time signup bonus. A second claim
// returns ErrBonusClaimed with the balance untouched.
func (s *Service) ClaimWelcomeBonus(userID int64) (int64, error) {
	profile, err := s.store.Profile(userID)
	if err != nil {
		return 0, err
	}
	if profile.SeenWelcomeBonus {
		balance, err := s.store.Coins(userID)
		if err != nil {
			return 0, err
		}
		return balance, ErrBonusClaimed
	}
	balance, err := s.store.AddCoins(userID, s.welcomeBonus)
	if err != nil {
		return 0, err
	}
	if _, err = s.store.UpdateProfile(userID, func(p *storage.Profile) {
		p.SeenWelcomeBonus = true
		p.IsNew = false
	}); err != nil {
		return 0, err
	}
	s.notifyWelcomeBonus(userID, s.welcomeBonus)
	return balance, nil
}

// UnlockStory spends coins on a paid story. A failed attempt reports
// the shortfall so the caller can tell the reader how many coins are
// missing.
func (s *Service) UnlockStory(userID int64, storyID string) (UnlockOutcome, error) {
	var external *storage.Story
	if s.catalog != nil {
		if story, ok := s.catalog.Story(storyID); ok {
			external = &story
		}
	}
	res, err := s.store.UnlockStory(userID, storyID, external)
	if err != nil {
		return UnlockOutcome{}, err
	}
	outcome := UnlockOutcome{
		Unlocked: res.Unlocked,
		Balance:  res.Balance,
		Price:    res.Price,
	}
	if !res.Unlocked && res.Price > res.Balance {
		outcome.Shortfall = res.Price - res.Balance
	}
	return outcome, nil
}

// IsUnlocked extends the ledger's answer to catalog stories: a free
// featured story needs no unlock.
func (s *Service) IsUnlocked(userID int64, storyID string) (bool, error) {
	unlocked, err := s.store.IsUnlocked(userID, storyID)
	if err != nil || unlocked {
		return unlocked, err
	}
	if s.catalog != nil {
		if story, ok := s.catalog.Story(storyID); ok && !story.IsPaid {
			return true, nil
		}
	}
	return false, nil
}
