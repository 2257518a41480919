package accounts

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("account not found")

type Repo interface {
	// UpsertIdentity creates a free account or refreshes identity fields of an
	// existing one, leaving billing fields untouched.
	UpsertIdentity(ctx context.Context, acct Account) (Account, error)
	GetByID(ctx context.Context, userID string) (Account, error)
	GetByCustomerID(ctx context.Context, customerID string) (Account, error)
	// UpdateBilling persists plan, customer and subscription fields.
	UpdateBilling(ctx context.Context, acct Account) error
}
