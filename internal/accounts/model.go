package accounts

import (
	"time"

	"assistant-backend/internal/plans"
)

// Account is the per-user billing state. New accounts start on the free plan.
type Account struct {
	UserID             string     `json:"userId"`
	Email              string     `json:"email"`
	Name               string     `json:"name,omitempty"`
	PictureURL         string     `json:"pictureUrl,omitempty"`
	Plan               plans.Plan `json:"plan"`
	StripeCustomerID   string     `json:"-"`
	SubscriptionID     string     `json:"-"`
	SubscriptionStatus string     `json:"subscriptionStatus,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// SubscriptionChange is a billing provider update. The account is resolved
// by UserID when set, otherwise by CustomerID.
type SubscriptionChange struct {
	UserID         string
	CustomerID     string
	SubscriptionID string
	Status         string
	Plan           plans.Plan
}
