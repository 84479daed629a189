package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/env"
)

const defaultStripeAPIBaseURL = "https://api.stripe.com/v1"

// ErrUnparseableEvent marks payloads that cannot be converted into the
// internal event taxonomy at all (as opposed to recognized-but-unknown
// types, which parse into EventUnknown).
var ErrUnparseableEvent = errors.New("unparseable provider event")

type stripeEnvelope struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Created int64  `json:"created"`
	Data    struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeCheckoutSession struct {
	ID           string            `json:"id"`
	Subscription string            `json:"subscription"`
	Customer     string            `json:"customer"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeSubscription struct {
	ID                string            `json:"id"`
	Status            string            `json:"status"`
	CancelAtPeriodEnd bool              `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64             `json:"current_period_end"`
	Metadata          map[string]string `json:"metadata"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

type stripeInvoice struct {
	ID           string `json:"id"`
	Subscription string `json:"subscription"`
}

// ParseStripeEvent converts a raw Stripe webhook payload into the internal
// tagged event form. Recognized event types carry a typed payload; types we
// do not handle come back as EventUnknown. Payloads missing an event id or
// type fail with ErrUnparseableEvent.
func ParseStripeEvent(payload []byte) (*Event, error) {
	var envelope stripeEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseableEvent, err)
	}
	if strings.TrimSpace(envelope.ID) == "" || strings.TrimSpace(envelope.Type) == "" {
		return nil, fmt.Errorf("%w: missing event id or type", ErrUnparseableEvent)
	}

	event := &Event{
		ID:           envelope.ID,
		ProviderType: envelope.Type,
		CreatedAt:    time.Unix(envelope.Created, 0).UTC(),
	}

	switch envelope.Type {
	case "checkout.session.completed":
		var session stripeCheckoutSession
		if err := json.Unmarshal(envelope.Data.Object, &session); err != nil {
			return nil, fmt.Errorf("%w: checkout session: %v", ErrUnparseableEvent, err)
		}
		event.Type = EventCheckoutCompleted
		event.Checkout = &CheckoutData{
			SessionID:      session.ID,
			SubscriptionID: session.Subscription,
			CustomerID:     session.Customer,
			UserID:         session.Metadata["user_id"],
			Plan:           session.Metadata["plan"],
		}
	case "customer.subscription.created", "customer.subscription.updated":
		event.Type = EventSubscriptionUpdated
		return parseSubscriptionEvent(event, envelope.Data.Object)
	case "customer.subscription.deleted":
		event.Type = EventSubscriptionDeleted
		return parseSubscriptionEvent(event, envelope.Data.Object)
	case "customer.subscription.paused":
		event.Type = EventSubscriptionPaused
		return parseSubscriptionEvent(event, envelope.Data.Object)
	case "customer.subscription.resumed":
		event.Type = EventSubscriptionResumed
		return parseSubscriptionEvent(event, envelope.Data.Object)
	case "invoice.payment_succeeded":
		event.Type = EventPaymentSucceeded
		return parseInvoiceEvent(event, envelope.Data.Object)
	case "invoice.payment_failed":
		event.Type = EventPaymentFailed
		return parseInvoiceEvent(event, envelope.Data.Object)
	case "invoice.payment_action_required":
		event.Type = EventPaymentActionRequired
		return parseInvoiceEvent(event, envelope.Data.Object)
	case "invoice.upcoming":
		event.Type = EventInvoiceUpcoming
		return parseInvoiceEvent(event, envelope.Data.Object)
	default:
		event.Type = EventUnknown
	}
	return event, nil
}

func parseSubscriptionEvent(event *Event, raw json.RawMessage) (*Event, error) {
	var sub stripeSubscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("%w: subscription: %v", ErrUnparseableEvent, err)
	}
	if strings.TrimSpace(sub.ID) == "" {
		return nil, fmt.Errorf("%w: subscription missing id", ErrUnparseableEvent)
	}
	data := &SubscriptionData{
		ID:                sub.ID,
		Status:            NormalizeStatus(sub.Status),
		UserID:            sub.Metadata["user_id"],
		Plan:              sub.Metadata["plan"],
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if len(sub.Items.Data) > 0 {
		data.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		data.CurrentPeriodEnd = &end
	}
	event.Subscription = data
	return event, nil
}

func parseInvoiceEvent(event *Event, raw json.RawMessage) (*Event, error) {
	var invoice stripeInvoice
	if err := json.Unmarshal(raw, &invoice); err != nil {
		return nil, fmt.Errorf("%w: invoice: %v", ErrUnparseableEvent, err)
	}
	event.Invoice = &InvoiceData{
		ID:             invoice.ID,
		SubscriptionID: invoice.Subscription,
	}
	return event, nil
}

// NormalizeStatus maps provider status strings onto the local enum,
// defaulting to incomplete for anything unrecognized.
func NormalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case models.SubscriptionStatusActive:
		return models.SubscriptionStatusActive
	case models.SubscriptionStatusTrialing:
		return models.SubscriptionStatusTrialing
	case models.SubscriptionStatusPastDue:
		return models.SubscriptionStatusPastDue
	case models.SubscriptionStatusCanceled:
		return models.SubscriptionStatusCanceled
	case models.SubscriptionStatusPaused:
		return models.SubscriptionStatusPaused
	case models.SubscriptionStatusUnpaid:
		return models.SubscriptionStatusUnpaid
	case models.SubscriptionStatusIncompleteExpired:
		return models.SubscriptionStatusIncompleteExpired
	default:
		return models.SubscriptionStatusIncomplete
	}
}

// ProviderSubscription is the live provider view used for freshness checks.
type ProviderSubscription struct {
	ID                string
	Status            string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// ProviderClient fetches live subscription state from the payment provider.
type ProviderClient interface {
	GetSubscription(ctx context.Context, providerSubscriptionID string) (*ProviderSubscription, error)
}

// StripeClient queries the Stripe API directly.
type StripeClient struct {
	SecretKey  string
	APIBaseURL string

	HTTPClient *http.Client
}

func NewStripeClientFromEnv() *StripeClient {
	return &StripeClient{
		SecretKey:  strings.TrimSpace(env.GetEnv("STRIPE_SECRET_KEY", "")),
		APIBaseURL: strings.TrimSpace(env.GetEnv("STRIPE_API_BASE_URL", defaultStripeAPIBaseURL)),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// GetSubscription fetches a subscription by provider id.
func (c *StripeClient) GetSubscription(ctx context.Context, providerSubscriptionID string) (*ProviderSubscription, error) {
	id := strings.TrimSpace(providerSubscriptionID)
	if id == "" {
		return nil, errors.New("subscription id is required")
	}
	if strings.TrimSpace(c.SecretKey) == "" {
		return nil, errors.New("STRIPE_SECRET_KEY is not configured")
	}

	endpoint := strings.TrimRight(c.APIBaseURL, "/") + "/subscriptions/" + url.PathEscape(id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("stripe subscription fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var sub stripeSubscription
	if err := json.Unmarshal(body, &sub); err != nil {
		return nil, err
	}
	out := &ProviderSubscription{
		ID:                sub.ID,
		Status:            NormalizeStatus(sub.Status),
		CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
	}
	if sub.CurrentPeriodEnd > 0 {
		end := time.Unix(sub.CurrentPeriodEnd, 0).UTC()
		out.CurrentPeriodEnd = &end
	}
	return out, nil
}
