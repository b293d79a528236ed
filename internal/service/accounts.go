package service

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/rumaak/bank-app/internal/domain"
	"github.com/rumaak/bank-app/internal/store"
)

// Register creates a user with no accounts. The email must be unused.
func (s *Service) Register(email, password string) ([]string, error) {
	_, err := s.store.GetUser(email)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	user := &domain.User{Email: email, Password: password}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return append([]string{email}, accountFields(nil)...), nil
}

// Login checks the password by plain equality and returns the account list.
func (s *Service) Login(email, password string) ([]string, error) {
	user, err := s.store.GetUser(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserMissing
	}
	if err != nil {
		return nil, err
	}
	if user.Password != password {
		return nil, ErrWrongPassword
	}
	return append([]string{user.Email}, accountFields(user.Accounts)...), nil
}

// ListAccounts returns every account owned by the user.
func (s *Service) ListAccounts(email string) ([]string, error) {
	user, err := s.store.GetUser(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserMissing
	}
	if err != nil {
		return nil, err
	}
	return append([]string{user.Email}, accountFields(user.Accounts)...), nil
}

// AddAccount creates an empty account for an existing user and returns the
// updated account list.
func (s *Service) AddAccount(email, name string) ([]string, error) {
	user, err := s.store.GetUser(email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserMissingAlt
	}
	if err != nil {
		return nil, err
	}
	for _, acc := range user.Accounts {
		if acc.Name == name {
			return nil, ErrAccountExists
		}
	}

	acc := domain.Account{
		Email:   email,
		Name:    name,
		Balance: decimal.Zero,
		State:   domain.StateOK,
	}
	if err := s.store.CreateAccount(&acc); err != nil {
		return nil, err
	}
	user.Accounts = append(user.Accounts, acc)
	return append([]string{email}, accountFields(user.Accounts)...), nil
}
