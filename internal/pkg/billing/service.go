package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/internal/pkg/entitlements"
	"github.com/rabbithole-social/rabbithole/internal/pkg/events"
	"gorm.io/gorm"
)

// Service reconciles provider subscription events into local subscription
// rows and the premium projection cached on profiles. It is the only writer
// of both.
type Service struct {
	repo     Repository
	provider ProviderClient
	bus      *events.Bus
}

// NewService creates a billing service from an injected repository.
func NewService(repo Repository, provider ProviderClient, bus *events.Bus) *Service {
	return &Service{repo: repo, provider: provider, bus: bus}
}

// NewServiceFromDB creates a billing service from a GORM DB handle.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewStripeClientFromEnv(), events.Default())
}

// RecordWebhookEvent persists the webhook payload idempotently. The second
// return value reports whether the event was already fully processed; a
// stored-but-unprocessed row (earlier handler failure) is handed back for
// reprocessing.
func (s *Service) RecordWebhookEvent(ctx context.Context, in WebhookEventInput) (*models.WebhookEvent, bool, error) {
	_ = ctx
	provider := strings.ToLower(strings.TrimSpace(in.Provider))
	if provider == "" {
		return nil, false, errors.New("provider is required")
	}
	eventID := strings.TrimSpace(in.ProviderEventID)
	if eventID == "" {
		sum := sha256.Sum256([]byte(in.PayloadJSON))
		eventID = "hash:" + hex.EncodeToString(sum[:])
	}

	event := &models.WebhookEvent{
		Provider:        provider,
		ProviderEventID: eventID,
		EventType:       strings.TrimSpace(in.EventType),
		PayloadJSON:     in.PayloadJSON,
		SignatureValid:  in.SignatureValid,
	}
	_, stored, err := s.repo.CreateWebhookEventIfNotExists(event)
	if err != nil {
		return nil, false, err
	}
	return stored, stored.ProcessedAt != nil, nil
}

// MarkWebhookProcessed marks an event as processed and stores an optional error.
func (s *Service) MarkWebhookProcessed(ctx context.Context, webhookEventID uint, processingErr error) error {
	_ = ctx
	if webhookEventID == 0 {
		return errors.New("webhook_event_id is required")
	}
	errMsg := ""
	if processingErr != nil {
		errMsg = processingErr.Error()
	}
	return s.repo.MarkWebhookProcessed(webhookEventID, errMsg)
}

// ApplyEvent applies one parsed provider event. A nil return means the event
// is fully handled and may be marked processed; that includes events we
// deliberately skip (unknown types, unresolvable users, stale updates), which
// are logged rather than failed so the provider does not retry forever.
func (s *Service) ApplyEvent(ctx context.Context, ev *Event, rawPayload string) error {
	switch ev.Type {
	case EventCheckoutCompleted:
		return s.applyCheckoutCompleted(ctx, ev, rawPayload)
	case EventSubscriptionUpdated:
		return s.applySubscriptionState(ctx, ev, rawPayload, "")
	case EventSubscriptionDeleted:
		return s.applySubscriptionState(ctx, ev, rawPayload, models.SubscriptionStatusCanceled)
	case EventSubscriptionPaused:
		return s.applySubscriptionState(ctx, ev, rawPayload, models.SubscriptionStatusPaused)
	case EventSubscriptionResumed:
		return s.applySubscriptionState(ctx, ev, rawPayload, models.SubscriptionStatusActive)
	case EventPaymentSucceeded:
		return s.applyPaymentOutcome(ctx, ev, models.SubscriptionStatusActive)
	case EventPaymentFailed:
		return s.applyPaymentOutcome(ctx, ev, models.SubscriptionStatusPastDue)
	case EventPaymentActionRequired:
		// Grace period: premium retained until the provider settles the state.
		return nil
	case EventInvoiceUpcoming:
		// Notification only.
		return nil
	case EventUnknown:
		log.Printf("billing: ignoring unknown provider event type %s (id=%s)", ev.ProviderType, ev.ID)
		return nil
	default:
		log.Printf("billing: no handler for event type %s (id=%s)", ev.Type, ev.ID)
		return nil
	}
}

// checkoutPlaceholderPrefix marks subscription rows minted for checkout
// events that carried no subscription id. No provider event ever references
// such a row, so any real subscription sync for the user supersedes it.
const checkoutPlaceholderPrefix = "checkout:"

func (s *Service) applyCheckoutCompleted(ctx context.Context, ev *Event, rawPayload string) error {
	checkout := ev.Checkout
	if checkout == nil {
		return errors.New("checkout event without checkout payload")
	}
	if checkout.UserID == "" || checkout.Plan == "" {
		// Recoverable: a session created outside our flow. Logged, skipped.
		log.Printf("billing: checkout session %s missing user_id/plan metadata, skipping", checkout.SessionID)
		return nil
	}

	subscriptionID := checkout.SubscriptionID
	if subscriptionID == "" {
		subscriptionID = checkoutPlaceholderPrefix + checkout.SessionID
	}
	updatedAt := ev.CreatedAt

	return s.syncSubscription(ctx, NormalizedSubscription{
		UserID:                 checkout.UserID,
		Provider:               models.BillingProviderStripe,
		ProviderSubscriptionID: subscriptionID,
		PlanName:               string(entitlements.Normalize(checkout.Plan)),
		Status:                 models.SubscriptionStatusActive,
		ProviderUpdatedAt:      &updatedAt,
		RawPayloadJSON:         rawPayload,
	})
}

// applySubscriptionState handles subscription lifecycle events. An empty
// statusOverride keeps the status carried by the event itself.
func (s *Service) applySubscriptionState(ctx context.Context, ev *Event, rawPayload, statusOverride string) error {
	sub := ev.Subscription
	if sub == nil {
		return errors.New("subscription event without subscription payload")
	}

	userID := sub.UserID
	if userID == "" {
		existing, err := s.repo.GetSubscriptionByProviderID(models.BillingProviderStripe, sub.ID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				log.Printf("billing: subscription %s has no metadata user_id and no local record, skipping", sub.ID)
				return nil
			}
			return fmt.Errorf("resolve subscription user: %w", err)
		}
		userID = existing.UserID
	}

	// Last-writer-wins by provider event time: a stale update delivered
	// after a newer one must not overwrite fresher state.
	if existing, err := s.repo.GetSubscriptionByProviderID(models.BillingProviderStripe, sub.ID); err == nil {
		if existing.ProviderUpdatedAt != nil && existing.ProviderUpdatedAt.After(ev.CreatedAt) {
			log.Printf("billing: stale event %s for subscription %s (event %s < stored %s), skipping",
				ev.ID, sub.ID, ev.CreatedAt.Format(time.RFC3339), existing.ProviderUpdatedAt.Format(time.RFC3339))
			return nil
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("load subscription: %w", err)
	}

	status := sub.Status
	if statusOverride != "" {
		status = statusOverride
	}
	planName := string(entitlements.Normalize(sub.Plan))
	if sub.Plan == "" {
		planName = string(entitlements.PlanGoldenCarrot)
	}
	updatedAt := ev.CreatedAt

	return s.syncSubscription(ctx, NormalizedSubscription{
		UserID:                 userID,
		Provider:               models.BillingProviderStripe,
		ProviderSubscriptionID: sub.ID,
		PriceID:                sub.PriceID,
		PlanName:               planName,
		Status:                 status,
		CurrentPeriodEnd:       sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:      sub.CancelAtPeriodEnd,
		ProviderUpdatedAt:      &updatedAt,
		RawPayloadJSON:         rawPayload,
	})
}

// applyPaymentOutcome reacts to invoice payment results by flipping the
// referenced subscription's status. The user is resolved through the stored
// subscription row, never from the invoice itself.
func (s *Service) applyPaymentOutcome(ctx context.Context, ev *Event, status string) error {
	invoice := ev.Invoice
	if invoice == nil {
		return errors.New("invoice event without invoice payload")
	}
	if invoice.SubscriptionID == "" {
		log.Printf("billing: invoice %s is not tied to a subscription, skipping", invoice.ID)
		return nil
	}

	existing, err := s.repo.GetSubscriptionByProviderID(models.BillingProviderStripe, invoice.SubscriptionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("billing: invoice %s references unknown subscription %s, skipping", invoice.ID, invoice.SubscriptionID)
			return nil
		}
		return fmt.Errorf("resolve invoice subscription: %w", err)
	}

	existing.Status = status
	updatedAt := ev.CreatedAt
	existing.ProviderUpdatedAt = &updatedAt
	if err := s.repo.UpsertSubscription(existing); err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	if err := s.supersedeCheckoutPlaceholders(existing.UserID, &updatedAt); err != nil {
		return err
	}
	_, err = s.ReconcilePremium(ctx, existing.UserID)
	return err
}

// supersedeCheckoutPlaceholders cancels any placeholder rows a user still
// carries once a real provider subscription has synced. Without this a
// placeholder, which no provider event can ever transition, would keep
// premium granted after the real subscription is deleted.
func (s *Service) supersedeCheckoutPlaceholders(userID string, at *time.Time) error {
	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return fmt.Errorf("list subscriptions: %w", err)
	}
	for i := range subs {
		sub := &subs[i]
		if !strings.HasPrefix(sub.ProviderSubscriptionID, checkoutPlaceholderPrefix) {
			continue
		}
		if sub.Status == models.SubscriptionStatusCanceled {
			continue
		}
		sub.Status = models.SubscriptionStatusCanceled
		if at != nil {
			sub.ProviderUpdatedAt = at
		}
		if err := s.repo.UpsertSubscription(sub); err != nil {
			return fmt.Errorf("supersede placeholder %s: %w", sub.ProviderSubscriptionID, err)
		}
	}
	return nil
}

func (s *Service) syncSubscription(ctx context.Context, in NormalizedSubscription) error {
	sub := &models.Subscription{
		UserID:                 in.UserID,
		Provider:               in.Provider,
		ProviderSubscriptionID: in.ProviderSubscriptionID,
		PriceID:                in.PriceID,
		PlanName:               in.PlanName,
		Status:                 in.Status,
		CurrentPeriodEnd:       in.CurrentPeriodEnd,
		CancelAtPeriodEnd:      in.CancelAtPeriodEnd,
		ProviderUpdatedAt:      in.ProviderUpdatedAt,
		RawPayloadJSON:         in.RawPayloadJSON,
	}
	if err := s.repo.UpsertSubscription(sub); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	if !strings.HasPrefix(in.ProviderSubscriptionID, checkoutPlaceholderPrefix) {
		if err := s.supersedeCheckoutPlaceholders(in.UserID, in.ProviderUpdatedAt); err != nil {
			return err
		}
	}
	_, err := s.ReconcilePremium(ctx, in.UserID)
	return err
}

// ReconcilePremium recomputes the premium projection for a user from all
// known subscriptions and writes it through to the profile when it changed.
func (s *Service) ReconcilePremium(ctx context.Context, userID string) (bool, error) {
	_ = ctx
	if userID == "" {
		return false, errors.New("user_id is required")
	}

	subs, err := s.repo.ListSubscriptionsByUser(userID)
	if err != nil {
		return false, fmt.Errorf("list subscriptions: %w", err)
	}

	isPremium := false
	for _, sub := range subs {
		if models.IsPremiumStatus(sub.Status) {
			isPremium = true
			break
		}
	}

	profile, err := s.repo.GetOrCreateProfile(userID)
	if err != nil {
		return false, fmt.Errorf("load profile: %w", err)
	}
	plan := string(entitlements.ForPremium(isPremium))
	if profile.IsPremium == isPremium && profile.Plan == plan {
		return isPremium, nil
	}
	profile.IsPremium = isPremium
	profile.Plan = plan
	if err := s.repo.SaveProfile(profile); err != nil {
		return false, fmt.Errorf("save profile: %w", err)
	}

	if s.bus != nil {
		s.bus.Publish(events.PremiumChanged, events.PremiumPayload{
			UserID:    userID,
			IsPremium: isPremium,
			Plan:      plan,
		})
	}
	return isPremium, nil
}

// GetEffectiveStatus returns the cached premium status. With live set, the
// provider is queried and on discrepancy the provider value wins and is
// written through.
func (s *Service) GetEffectiveStatus(ctx context.Context, userID string, live bool) (*EffectiveStatus, error) {
	profile, err := s.repo.GetOrCreateProfile(userID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	status := &EffectiveStatus{
		UserID:    userID,
		IsPremium: profile.IsPremium,
		Plan:      profile.Plan,
	}
	if !live || s.provider == nil {
		return status, nil
	}

	sub, err := s.repo.LatestSubscriptionByUser(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Nothing to check against; the cached flag stands.
			return status, nil
		}
		return nil, fmt.Errorf("load subscription: %w", err)
	}

	liveSub, err := s.provider.GetSubscription(ctx, sub.ProviderSubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("provider status check: %w", err)
	}
	status.Live = true

	if liveSub.Status != sub.Status {
		sub.Status = liveSub.Status
		sub.CurrentPeriodEnd = liveSub.CurrentPeriodEnd
		sub.CancelAtPeriodEnd = liveSub.CancelAtPeriodEnd
		now := time.Now().UTC()
		sub.ProviderUpdatedAt = &now
		if err := s.repo.UpsertSubscription(sub); err != nil {
			return nil, fmt.Errorf("write through subscription: %w", err)
		}
		isPremium, err := s.ReconcilePremium(ctx, userID)
		if err != nil {
			return nil, err
		}
		status.IsPremium = isPremium
		status.Plan = string(entitlements.ForPremium(isPremium))
	}
	return status, nil
}
