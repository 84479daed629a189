package billing

import "time"

// EventType is the internal taxonomy for provider webhook events. Raw
// provider payloads are converted into this tagged form at the boundary
// before any business logic runs.
type EventType string

const (
	EventCheckoutCompleted     EventType = "checkout_completed"
	EventSubscriptionUpdated   EventType = "subscription_updated"
	EventSubscriptionDeleted   EventType = "subscription_deleted"
	EventPaymentSucceeded      EventType = "payment_succeeded"
	EventPaymentFailed         EventType = "payment_failed"
	EventPaymentActionRequired EventType = "payment_action_required"
	EventSubscriptionPaused    EventType = "subscription_paused"
	EventSubscriptionResumed   EventType = "subscription_resumed"
	EventInvoiceUpcoming       EventType = "invoice_upcoming"
	EventUnknown               EventType = "unknown"
)

// Event is a parsed provider webhook event. Exactly one of the payload
// pointers matching the type is set; EventUnknown carries none.
type Event struct {
	ID           string
	Type         EventType
	ProviderType string
	CreatedAt    time.Time

	Checkout     *CheckoutData
	Subscription *SubscriptionData
	Invoice      *InvoiceData
}

// CheckoutData is the payload of a completed checkout session.
type CheckoutData struct {
	SessionID      string
	SubscriptionID string
	CustomerID     string
	UserID         string
	Plan           string
}

// SubscriptionData is the payload of a subscription lifecycle event.
type SubscriptionData struct {
	ID                string
	Status            string
	UserID            string
	Plan              string
	PriceID           string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
}

// InvoiceData is the payload of an invoice/payment event.
type InvoiceData struct {
	ID             string
	SubscriptionID string
}

// NormalizedSubscription is the provider-agnostic shape used when syncing
// external subscription state into local tables.
type NormalizedSubscription struct {
	UserID                 string
	Provider               string
	ProviderSubscriptionID string
	PriceID                string
	PlanName               string
	Status                 string
	CurrentPeriodEnd       *time.Time
	CancelAtPeriodEnd      bool
	ProviderUpdatedAt      *time.Time
	RawPayloadJSON         string
}

// WebhookEventInput is the normalized input for webhook event persistence.
type WebhookEventInput struct {
	Provider        string
	ProviderEventID string
	EventType       string
	PayloadJSON     string
	SignatureValid  bool
}

// EffectiveStatus is the reconciled premium view for a single user.
type EffectiveStatus struct {
	UserID    string `json:"user_id"`
	IsPremium bool   `json:"is_premium"`
	Plan      string `json:"plan"`
	Live      bool   `json:"live"`
}
