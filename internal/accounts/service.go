package accounts

import (
	"context"
	"errors"
	"strings"

	"assistant-backend/internal/plans"
)

type Service struct {
	Repo Repo
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo}
}

// UpsertFromAuth persists identity from the OAuth callback. Plan and billing
// fields are never touched here.
func (s *Service) UpsertFromAuth(ctx context.Context, acct Account) (Account, error) {
	if s == nil || s.Repo == nil {
		return Account{}, errors.New("accounts service not configured")
	}
	if strings.TrimSpace(acct.UserID) == "" || strings.TrimSpace(acct.Email) == "" {
		return Account{}, errors.New("user id and email are required")
	}
	return s.Repo.UpsertIdentity(ctx, acct)
}

// GetOrCreate returns the account for userID, creating a free one on first use.
func (s *Service) GetOrCreate(ctx context.Context, userID, email string) (Account, error) {
	acct, err := s.Get(ctx, userID)
	if err == nil {
		return acct, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Account{}, err
	}
	return s.Repo.UpsertIdentity(ctx, Account{UserID: userID, Email: email})
}

func (s *Service) Get(ctx context.Context, userID string) (Account, error) {
	if s == nil || s.Repo == nil {
		return Account{}, errors.New("accounts service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return Account{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

// PlanFor returns the stored plan of userID, or free when the account does
// not exist yet.
func (s *Service) PlanFor(ctx context.Context, userID string) (plans.Plan, error) {
	acct, err := s.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return plans.Free, nil
	}
	if err != nil {
		return "", err
	}
	return acct.Plan, nil
}

// LinkCustomer records the billing customer id on the account.
func (s *Service) LinkCustomer(ctx context.Context, userID, customerID string) (Account, error) {
	acct, err := s.Get(ctx, userID)
	if err != nil {
		return Account{}, err
	}
	if customerID == "" || acct.StripeCustomerID == customerID {
		return acct, nil
	}
	acct.StripeCustomerID = customerID
	if err := s.Repo.UpdateBilling(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}

// ApplySubscription moves the account to change.Plan and records the
// subscription. Returns ErrNotFound when no account matches.
func (s *Service) ApplySubscription(ctx context.Context, change SubscriptionChange) (Account, error) {
	if s == nil || s.Repo == nil {
		return Account{}, errors.New("accounts service not configured")
	}
	var (
		acct Account
		err  error
	)
	switch {
	case strings.TrimSpace(change.UserID) != "":
		acct, err = s.Repo.GetByID(ctx, change.UserID)
	case strings.TrimSpace(change.CustomerID) != "":
		acct, err = s.Repo.GetByCustomerID(ctx, change.CustomerID)
	default:
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}

	if plans.IsKnown(change.Plan) {
		acct.Plan = change.Plan
	}
	if change.CustomerID != "" {
		acct.StripeCustomerID = change.CustomerID
	}
	if change.SubscriptionID != "" {
		acct.SubscriptionID = change.SubscriptionID
	}
	if change.Status != "" {
		acct.SubscriptionStatus = change.Status
	}
	if err := s.Repo.UpdateBilling(ctx, acct); err != nil {
		return Account{}, err
	}
	return acct, nil
}
