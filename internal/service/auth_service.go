package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Murlii-Manohar/StyleTextSwapp/internal/domain"
	"github.com/Murlii-Manohar/StyleTextSwapp/internal/repo"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/auth"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/events"
	"github.com/Murlii-Manohar/StyleTextSwapp/pkg/logger"
)

type AuthService interface {
	Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Account, error)
	Login(ctx context.Context, req *domain.LoginRequest) (*domain.Account, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
}

type authService struct {
	accounts repo.AccountStore
	eventBus events.Publisher

	hashPassword    func(string) (string, error)
	comparePassword func(password, hash string) (bool, error)
}

func NewAuthService(accounts repo.AccountStore, eventBus events.Publisher) AuthService {
	return &authService{
		accounts:        accounts,
		eventBus:        eventBus,
		hashPassword:    auth.HashPassword,
		comparePassword: auth.ComparePassword,
	}
}

func (s *authService) Register(ctx context.Context, req *domain.RegisterRequest) (*domain.Account, error) {
	// Normalize and validate
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The store's unique constraint decides races between identical usernames.
	account, err := s.accounts.CreateAccount(ctx, domain.AccountDraft{
		Username:     req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateUsername) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	logger.InfoContext(ctx, "Account registered", "account_id", account.ID, "username", account.Username)

	err = s.eventBus.Publish(ctx, events.AccountRegistered, events.AccountRegisteredEvent{
		AccountID: account.ID,
		Username:  account.Username,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		logger.WarnContext(ctx, "Failed to publish account registered event", "error", err, "account_id", account.ID)
	}

	return account, nil
}

func (s *authService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.Account, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetAccountByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	// Guest accounts carry a random password nobody knows.
	if account.IsGuest {
		return nil, domain.ErrInvalidCredentials
	}

	valid, err := s.comparePassword(req.Password, account.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, domain.ErrInvalidCredentials
	}

	return account, nil
}

func (s *authService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.accounts.GetAccount(ctx, id)
}
