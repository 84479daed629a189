package controllers

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/rabbithole-social/rabbithole/app/repository"
	"github.com/rabbithole-social/rabbithole/internal/pkg/authz"
	"github.com/rabbithole-social/rabbithole/internal/pkg/billing"
	"github.com/rabbithole-social/rabbithole/internal/pkg/database"
	"github.com/rabbithole-social/rabbithole/internal/pkg/env"
	"github.com/rabbithole-social/rabbithole/internal/pkg/session"
	"github.com/rabbithole-social/rabbithole/internal/pkg/usercontext"
)

// HandleStripeWebhook ingests Stripe events. Every delivery is persisted to
// the webhook ledger before any processing; an event whose id was already
// fully processed is acknowledged without side effects, so Stripe's
// redeliveries are harmless.
func HandleStripeWebhook(c *fiber.Ctx) error {
	rawBody := c.Body()
	payload := make([]byte, len(rawBody))
	copy(payload, rawBody)

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	signatureValid := billing.VerifyStripeWebhookSignature(
		payload, c.Get("Stripe-Signature"), secret, billing.DefaultSignatureTolerance)

	event, parseErr := billing.ParseStripeEvent(payload)

	eventID := ""
	eventType := ""
	if event != nil {
		eventID = event.ID
		eventType = event.ProviderType
	}
	stored, alreadyProcessed, err := svc.RecordWebhookEvent(ctx, billing.WebhookEventInput{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: eventID,
		EventType:       eventType,
		PayloadJSON:     string(payload),
		SignatureValid:  signatureValid,
	})
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "webhook_persist_failed", "could not persist webhook event")
	}
	if alreadyProcessed {
		return c.JSON(fiber.Map{"ok": true, "duplicate": true})
	}

	if !signatureValid {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, errors.New("invalid webhook signature"))
		return jsonError(c, fiber.StatusUnauthorized, "invalid_signature", "webhook signature verification failed")
	}
	if parseErr != nil {
		_ = svc.MarkWebhookProcessed(ctx, stored.ID, parseErr)
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "webhook payload could not be parsed")
	}

	applyErr := svc.ApplyEvent(ctx, event, string(payload))
	_ = svc.MarkWebhookProcessed(ctx, stored.ID, applyErr)
	if applyErr != nil {
		return jsonError(c, fiber.StatusInternalServerError, "event_apply_failed", "could not apply webhook event")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// HandleBillingStatus returns the caller's effective premium status. With
// ?live=1 the provider is queried and discrepancies are written through.
func HandleBillingStatus(c *fiber.Ctx) error {
	guard := authz.NewGuard(repository.GetGlobalFactory().GetUserRepository())
	user, err := guard.RequireActiveActor(c, "")
	if err != nil {
		return respondServiceError(c, err)
	}

	svc := billing.NewServiceFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	live := c.Query("live") == "1"
	status, err := svc.GetEffectiveStatus(ctx, user.ID, live)
	if err != nil {
		return jsonError(c, fiber.StatusInternalServerError, "status_check_failed", "could not determine billing status")
	}

	// Keep the session plan cache in step with what we just computed.
	_ = session.SetSessionValue(c, usercontext.KeyUserPlan, status.Plan)
	return c.JSON(status)
}
