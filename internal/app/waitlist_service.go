package app

import (
	"strings"

	"documet/internal/model"
)

type WaitlistService struct {
	repo WaitlistStore
}

func NewWaitlistService(repo WaitlistStore) *WaitlistService {
	return &WaitlistService{repo: repo}
}

// Join records an email on the waitlist. Joining twice with the same email
// returns ErrEmailExists.
func (s *WaitlistService) Join(email string) (*model.WaitlistEntry, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || !strings.Contains(email, "@") || strings.HasPrefix(email, "@") || strings.HasSuffix(email, "@") {
		return nil, ErrInvalidInput
	}

	existing, err := s.repo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailExists
	}

	entry := &model.WaitlistEntry{Email: email}
	if err := s.repo.Create(entry); err != nil {
		return nil, err
	}
	return entry, nil
}
