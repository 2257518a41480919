package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/stripe/stripe-go/v76"

	"assistant-backend/internal/accounts"
	"assistant-backend/internal/plans"
	"assistant-backend/internal/shared/telemetry"
)

// ErrMalformedEvent means the event object could not be decoded.
var ErrMalformedEvent = errors.New("malformed event")

const (
	EventCheckoutCompleted   = "checkout.session.completed"
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentFailed       = "invoice.payment_failed"
)

// AccountUpdater applies billing state to accounts.
type AccountUpdater interface {
	ApplySubscription(ctx context.Context, change accounts.SubscriptionChange) (accounts.Account, error)
}

// PriceMap maps provider price ids to plans.
type PriceMap map[string]plans.Plan

// NewPriceMap builds a PriceMap from the configured price ids. Empty ids are
// skipped.
func NewPriceMap(proPrice, proMaxPrice string) PriceMap {
	m := PriceMap{}
	if p := strings.TrimSpace(proPrice); p != "" {
		m[p] = plans.Pro
	}
	if p := strings.TrimSpace(proMaxPrice); p != "" {
		m[p] = plans.ProMax
	}
	return m
}

// maxPending bounds the subscription changes parked for unlinked customers.
const maxPending = 1024

// Service turns verified provider events into account changes.
//
// Subscription events can arrive before the checkout event that links the
// customer to an account. Those changes are parked per customer and replayed
// once checkout links the customer.
type Service struct {
	Accounts AccountUpdater
	Prices   PriceMap

	mu      sync.Mutex
	pending map[string]accounts.SubscriptionChange
}

func NewService(accts AccountUpdater, prices PriceMap) *Service {
	if prices == nil {
		prices = PriceMap{}
	}
	return &Service{Accounts: accts, Prices: prices, pending: map[string]accounts.SubscriptionChange{}}
}

func (s *Service) park(change accounts.SubscriptionChange) bool {
	if change.CustomerID == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending == nil {
		s.pending = map[string]accounts.SubscriptionChange{}
	}
	if _, ok := s.pending[change.CustomerID]; !ok && len(s.pending) >= maxPending {
		return false
	}
	s.pending[change.CustomerID] = change
	return true
}

func (s *Service) takePending(customerID string) (accounts.SubscriptionChange, bool) {
	if customerID == "" {
		return accounts.SubscriptionChange{}, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	change, ok := s.pending[customerID]
	if ok {
		delete(s.pending, customerID)
	}
	return change, ok
}

// Outcome describes what HandleEvent did with an event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeLogged  Outcome = "logged"
	OutcomeIgnored Outcome = "ignored"
)

// HandleEvent dispatches a verified event. Account lookups that find nothing
// return OutcomeIgnored with a nil error; store failures are returned.
func (s *Service) HandleEvent(ctx context.Context, event stripe.Event) (Outcome, error) {
	var (
		change accounts.SubscriptionChange
		err    error
	)
	switch string(event.Type) {
	case EventCheckoutCompleted:
		change, err = s.fromCheckout(event.Data.Raw)
	case EventSubscriptionCreated, EventSubscriptionUpdated:
		change, err = s.fromSubscription(event.Data.Raw, false)
	case EventSubscriptionDeleted:
		change, err = s.fromSubscription(event.Data.Raw, true)
	case EventPaymentFailed:
		telemetry.Warn("billing.payment_failed", map[string]any{"event_id": event.ID})
		return OutcomeLogged, nil
	default:
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", err
	}
	if change.UserID == "" && change.CustomerID == "" {
		return OutcomeIgnored, nil
	}

	acct, err := s.Accounts.ApplySubscription(ctx, change)
	if errors.Is(err, accounts.ErrNotFound) {
		parked := false
		if string(event.Type) != EventCheckoutCompleted {
			parked = s.park(change)
		}
		telemetry.Warn("billing.account_not_found", map[string]any{
			"event_id":    event.ID,
			"type":        string(event.Type),
			"customer_id": change.CustomerID,
			"parked":      parked,
		})
		return OutcomeIgnored, nil
	}
	if err != nil {
		return "", fmt.Errorf("apply subscription: %w", err)
	}
	if string(event.Type) == EventCheckoutCompleted {
		if acct, err = s.replayPending(ctx, acct, change.CustomerID); err != nil {
			return "", err
		}
	}
	telemetry.Info("billing.subscription_applied", map[string]any{
		"event_id": event.ID,
		"type":     string(event.Type),
		"user_id":  acct.UserID,
		"plan":     string(acct.Plan),
		"status":   acct.SubscriptionStatus,
	})
	return OutcomeApplied, nil
}

// replayPending applies a subscription change parked for customerID to acct.
// On a store failure the change is parked again so a provider retry of the
// checkout event can replay it.
func (s *Service) replayPending(ctx context.Context, acct accounts.Account, customerID string) (accounts.Account, error) {
	change, ok := s.takePending(customerID)
	if !ok {
		return acct, nil
	}
	change.UserID = acct.UserID
	updated, err := s.Accounts.ApplySubscription(ctx, change)
	if err != nil {
		s.park(change)
		return accounts.Account{}, fmt.Errorf("replay subscription: %w", err)
	}
	telemetry.Info("billing.subscription_replayed", map[string]any{
		"user_id":         updated.UserID,
		"customer_id":     customerID,
		"subscription_id": change.SubscriptionID,
		"plan":            string(updated.Plan),
	})
	return updated, nil
}

func (s *Service) fromCheckout(raw json.RawMessage) (accounts.SubscriptionChange, error) {
	var session stripe.CheckoutSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return accounts.SubscriptionChange{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	change := accounts.SubscriptionChange{UserID: strings.TrimSpace(session.ClientReferenceID)}
	if session.Customer != nil {
		change.CustomerID = session.Customer.ID
	}
	if session.Subscription != nil {
		change.SubscriptionID = session.Subscription.ID
	}
	if p := plans.ParsePlan(session.Metadata["plan"]); plans.IsKnown(p) {
		change.Plan = p
		change.Status = string(stripe.SubscriptionStatusActive)
	}
	return change, nil
}

func (s *Service) fromSubscription(raw json.RawMessage, deleted bool) (accounts.SubscriptionChange, error) {
	var sub stripe.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return accounts.SubscriptionChange{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	change := accounts.SubscriptionChange{
		UserID:         strings.TrimSpace(sub.Metadata["user_id"]),
		SubscriptionID: sub.ID,
		Status:         string(sub.Status),
	}
	if sub.Customer != nil {
		change.CustomerID = sub.Customer.ID
	}
	if deleted {
		change.Plan = plans.Free
		if change.Status == "" {
			change.Status = string(stripe.SubscriptionStatusCanceled)
		}
		return change, nil
	}

	switch sub.Status {
	case stripe.SubscriptionStatusActive, stripe.SubscriptionStatusTrialing:
		change.Plan = s.planFor(&sub)
	default:
		change.Plan = plans.Free
	}
	return change, nil
}

// planFor resolves the plan from the first item's price, then metadata.
func (s *Service) planFor(sub *stripe.Subscription) plans.Plan {
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		if item := sub.Items.Data[0]; item != nil && item.Price != nil {
			if p, ok := s.Prices[item.Price.ID]; ok {
				return p
			}
		}
	}
	if p := plans.ParsePlan(sub.Metadata["plan"]); plans.IsKnown(p) {
		return p
	}
	return ""
}
