// Package billing wraps the payment provider: subscription checkout session
// creation and webhook event handling. User records are reached only through
// the UserDirectory contract so the storage shape stays pluggable.
package billing

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/nitesh/blogsmith/pkg/models"
)

// UserDirectory is the single contract for user and subscription records.
type UserDirectory interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	SetStripeCustomerID(ctx context.Context, userID, customerID string) error
	SetSubscriptionStatus(ctx context.Context, customerID, status string) error
}

// SignatureError marks a webhook payload that failed signature verification.
// The handler maps it to a plain-text 400.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("webhook signature verification failed: %v", e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

// EventCache is the one cache operation replay suppression needs.
// *redis.Client satisfies it.
type EventCache interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
}

type Config struct {
	SecretKey     string
	WebhookSecret string
}

type Billing struct {
	sc            *client.API
	users         UserDirectory
	cache         EventCache
	webhookSecret string
}

// eventSeenTTL bounds how long processed webhook event ids are remembered.
const eventSeenTTL = 24 * time.Hour

// New builds a Billing service with its own API client so nothing depends on
// the stripe package-level key.
func New(cfg Config, users UserDirectory, cache EventCache) *Billing {
	sc := &client.API{}
	sc.Init(cfg.SecretKey, nil)
	return &Billing{
		sc:            sc,
		users:         users,
		cache:         cache,
		webhookSecret: cfg.WebhookSecret,
	}
}

// CreateCheckoutSession starts a subscription checkout and returns the hosted
// page URL. A user already linked to a payment-provider customer checks out
// as that customer instead of getting a fresh one. No idempotency key is
// attached: a double submit creates two sessions, matching the behavior this
// replaces.
func (b *Billing) CreateCheckoutSession(ctx context.Context, priceID, userID, returnURL string) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(returnURL + "?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(returnURL),
		ClientReferenceID: stripe.String(userID),
	}
	if customerID := b.existingCustomer(ctx, userID); customerID != "" {
		params.Customer = stripe.String(customerID)
	}
	params.Context = ctx

	sess, err := b.sc.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// existingCustomer returns the user's payment-provider customer id, or ""
// when the user is unknown or not yet linked. Lookup failures fall back to a
// customer-less checkout rather than blocking it.
func (b *Billing) existingCustomer(ctx context.Context, userID string) string {
	user, err := b.users.GetUserByID(ctx, userID)
	if err != nil {
		return ""
	}
	if user.StripeCustomerID.Valid {
		return user.StripeCustomerID.String
	}
	return ""
}

// HandleWebhook verifies the event signature and applies subscription state
// changes. Redelivered events (the provider retries until acknowledged) are
// recognized by id and acknowledged without reprocessing.
func (b *Billing) HandleWebhook(ctx context.Context, payload []byte, sigHeader string) error {
	event, err := webhook.ConstructEventWithOptions(payload, sigHeader, b.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return &SignatureError{Err: err}
	}

	if b.alreadyProcessed(ctx, event.ID) {
		return nil
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout session: %w", err)
		}
		if sess.Customer == nil || sess.ClientReferenceID == "" {
			return fmt.Errorf("checkout session %s missing customer or client reference", sess.ID)
		}
		if err := b.users.SetStripeCustomerID(ctx, sess.ClientReferenceID, sess.Customer.ID); err != nil {
			return err
		}
		return b.users.SetSubscriptionStatus(ctx, sess.Customer.ID, "active")

	case "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer == nil {
			return fmt.Errorf("subscription %s missing customer", sub.ID)
		}
		return b.users.SetSubscriptionStatus(ctx, sub.Customer.ID, string(sub.Status))

	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return fmt.Errorf("decode subscription: %w", err)
		}
		if sub.Customer == nil {
			return fmt.Errorf("subscription %s missing customer", sub.ID)
		}
		return b.users.SetSubscriptionStatus(ctx, sub.Customer.ID, "canceled")

	case "invoice.payment_failed":
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return fmt.Errorf("decode invoice: %w", err)
		}
		if inv.Customer == nil {
			return fmt.Errorf("invoice %s missing customer", inv.ID)
		}
		return b.users.SetSubscriptionStatus(ctx, inv.Customer.ID, "past_due")
	}

	// unhandled event types are acknowledged so the provider stops resending
	return nil
}

// alreadyProcessed marks the event id as seen and reports whether it had been
// seen before. Without a cache every delivery is treated as fresh.
func (b *Billing) alreadyProcessed(ctx context.Context, eventID string) bool {
	if b.cache == nil || eventID == "" {
		return false
	}
	fresh, err := b.cache.SetNX(ctx, "stripe:event:"+eventID, 1, eventSeenTTL).Result()
	if err != nil {
		log.Printf("warning: webhook dedup unavailable: %v", err)
		return false
	}
	return !fresh
}
