package accounts

import (
	"context"
	"sync"
	"time"

	"assistant-backend/internal/plans"
)

type MemoryRepo struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{accounts: make(map[string]Account)}
}

func (r *MemoryRepo) UpsertIdentity(ctx context.Context, acct Account) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	existing, ok := r.accounts[acct.UserID]
	if !ok {
		acct.Plan = plans.Free
		acct.StripeCustomerID = ""
		acct.SubscriptionID = ""
		acct.SubscriptionStatus = ""
		acct.CreatedAt = now
		acct.UpdatedAt = now
		r.accounts[acct.UserID] = acct
		return acct, nil
	}
	existing.Email = acct.Email
	existing.Name = acct.Name
	existing.PictureURL = acct.PictureURL
	existing.UpdatedAt = now
	r.accounts[acct.UserID] = existing
	return existing, nil
}

func (r *MemoryRepo) GetByID(ctx context.Context, userID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	acct, ok := r.accounts[userID]
	if !ok {
		return Account{}, ErrNotFound
	}
	return acct, nil
}

func (r *MemoryRepo) GetByCustomerID(ctx context.Context, customerID string) (Account, error) {
	if err := ctx.Err(); err != nil {
		return Account{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, acct := range r.accounts {
		if customerID != "" && acct.StripeCustomerID == customerID {
			return acct, nil
		}
	}
	return Account{}, ErrNotFound
}

func (r *MemoryRepo) UpdateBilling(ctx context.Context, acct Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.accounts[acct.UserID]
	if !ok {
		return ErrNotFound
	}
	existing.Plan = acct.Plan
	existing.StripeCustomerID = acct.StripeCustomerID
	existing.SubscriptionID = acct.SubscriptionID
	existing.SubscriptionStatus = acct.SubscriptionStatus
	existing.UpdatedAt = time.Now().UTC()
	r.accounts[acct.UserID] = existing
	return nil
}
