package accounts

import (
	"context"
	"database/sql"
	"errors"

	"assistant-backend/internal/plans"
)

type PGRepo struct {
	DB *sql.DB
}

const accountColumns = `user_id, email, name, picture_url, plan, stripe_customer_id, subscription_id, subscription_status, created_at, updated_at`

func (r *PGRepo) UpsertIdentity(ctx context.Context, acct Account) (Account, error) {
	query := `
INSERT INTO accounts (user_id, email, name, picture_url, plan, created_at, updated_at)
VALUES ($1, $2, $3, $4, 'free', now(), now())
ON CONFLICT (user_id) DO UPDATE SET
  email = EXCLUDED.email,
  name = EXCLUDED.name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()
RETURNING ` + accountColumns
	row := r.DB.QueryRowContext(ctx, query,
		acct.UserID,
		acct.Email,
		nullableString(acct.Name),
		nullableString(acct.PictureURL),
	)
	return scanAccount(row)
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (Account, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 LIMIT 1`, userID)
	return scanAccount(row)
}

func (r *PGRepo) GetByCustomerID(ctx context.Context, customerID string) (Account, error) {
	row := r.DB.QueryRowContext(ctx, `SELECT `+accountColumns+` FROM accounts WHERE stripe_customer_id = $1 LIMIT 1`, customerID)
	return scanAccount(row)
}

func (r *PGRepo) UpdateBilling(ctx context.Context, acct Account) error {
	const query = `
UPDATE accounts SET
  plan = $2,
  stripe_customer_id = $3,
  subscription_id = $4,
  subscription_status = $5,
  updated_at = now()
WHERE user_id = $1`
	res, err := r.DB.ExecContext(ctx, query,
		acct.UserID,
		string(acct.Plan),
		nullableString(acct.StripeCustomerID),
		nullableString(acct.SubscriptionID),
		nullableString(acct.SubscriptionStatus),
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func scanAccount(row *sql.Row) (Account, error) {
	var acct Account
	var plan string
	var name, picture, customer, subscription, status sql.NullString
	err := row.Scan(
		&acct.UserID,
		&acct.Email,
		&name,
		&picture,
		&plan,
		&customer,
		&subscription,
		&status,
		&acct.CreatedAt,
		&acct.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Account{}, ErrNotFound
		}
		return Account{}, err
	}
	acct.Plan = plans.Plan(plan)
	acct.Name = name.String
	acct.PictureURL = picture.String
	acct.StripeCustomerID = customer.String
	acct.SubscriptionID = subscription.String
	acct.SubscriptionStatus = status.String
	return acct, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
