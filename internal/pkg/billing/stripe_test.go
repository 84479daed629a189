package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/rabbithole-social/rabbithole/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripeEvent_CheckoutCompleted(t *testing.T) {
	payload := []byte(`{
		"id": "evt_checkout_1",
		"type": "checkout.session.completed",
		"created": 1700000000,
		"data": {"object": {
			"id": "cs_test_1",
			"subscription": "sub_123",
			"customer": "cus_123",
			"metadata": {"user_id": "u-1", "plan": "golden_carrot"}
		}}
	}`)

	ev, err := ParseStripeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, "evt_checkout_1", ev.ID)
	assert.Equal(t, EventCheckoutCompleted, ev.Type)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), ev.CreatedAt)
	require.NotNil(t, ev.Checkout)
	assert.Equal(t, "cs_test_1", ev.Checkout.SessionID)
	assert.Equal(t, "sub_123", ev.Checkout.SubscriptionID)
	assert.Equal(t, "u-1", ev.Checkout.UserID)
	assert.Equal(t, "golden_carrot", ev.Checkout.Plan)
}

func TestParseStripeEvent_SubscriptionUpdated(t *testing.T) {
	payload := []byte(`{
		"id": "evt_sub_1",
		"type": "customer.subscription.updated",
		"created": 1700000100,
		"data": {"object": {
			"id": "sub_123",
			"status": "Trialing",
			"cancel_at_period_end": true,
			"current_period_end": 1702592000,
			"metadata": {"user_id": "u-1", "plan": "golden_carrot"},
			"items": {"data": [{"price": {"id": "price_abc"}}]}
		}}
	}`)

	ev, err := ParseStripeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, EventSubscriptionUpdated, ev.Type)
	require.NotNil(t, ev.Subscription)
	assert.Equal(t, "sub_123", ev.Subscription.ID)
	assert.Equal(t, models.SubscriptionStatusTrialing, ev.Subscription.Status)
	assert.Equal(t, "price_abc", ev.Subscription.PriceID)
	assert.True(t, ev.Subscription.CancelAtPeriodEnd)
	require.NotNil(t, ev.Subscription.CurrentPeriodEnd)
	assert.Equal(t, time.Unix(1702592000, 0).UTC(), *ev.Subscription.CurrentPeriodEnd)
}

func TestParseStripeEvent_InvoicePaymentFailed(t *testing.T) {
	payload := []byte(`{
		"id": "evt_inv_1",
		"type": "invoice.payment_failed",
		"created": 1700000200,
		"data": {"object": {"id": "in_1", "subscription": "sub_123"}}
	}`)

	ev, err := ParseStripeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, EventPaymentFailed, ev.Type)
	require.NotNil(t, ev.Invoice)
	assert.Equal(t, "sub_123", ev.Invoice.SubscriptionID)
}

func TestParseStripeEvent_UnknownTypeIsNotAnError(t *testing.T) {
	payload := []byte(`{
		"id": "evt_x",
		"type": "customer.tax_id.created",
		"created": 1700000300,
		"data": {"object": {}}
	}`)

	ev, err := ParseStripeEvent(payload)
	require.NoError(t, err)
	assert.Equal(t, EventUnknown, ev.Type)
	assert.Equal(t, "customer.tax_id.created", ev.ProviderType)
	assert.Nil(t, ev.Checkout)
	assert.Nil(t, ev.Subscription)
	assert.Nil(t, ev.Invoice)
}

func TestParseStripeEvent_Unparseable(t *testing.T) {
	cases := [][]byte{
		[]byte(`not json at all`),
		[]byte(`{}`),
		[]byte(`{"id":"evt_1"}`),
		[]byte(`{"type":"invoice.upcoming"}`),
		[]byte(`{"id":"evt_1","type":"customer.subscription.updated","data":{"object":{"status":"active"}}}`),
	}
	for i, payload := range cases {
		_, err := ParseStripeEvent(payload)
		assert.ErrorIs(t, err, ErrUnparseableEvent, "case %d", i)
	}
}

func TestNormalizeStatus(t *testing.T) {
	assert.Equal(t, models.SubscriptionStatusActive, NormalizeStatus("active"))
	assert.Equal(t, models.SubscriptionStatusActive, NormalizeStatus(" Active "))
	assert.Equal(t, models.SubscriptionStatusTrialing, NormalizeStatus("trialing"))
	assert.Equal(t, models.SubscriptionStatusPastDue, NormalizeStatus("past_due"))
	assert.Equal(t, models.SubscriptionStatusCanceled, NormalizeStatus("canceled"))
	assert.Equal(t, models.SubscriptionStatusIncomplete, NormalizeStatus("something_new"))
	assert.Equal(t, models.SubscriptionStatusIncomplete, NormalizeStatus(""))
}

func TestParseStripeEvent_SubscriptionLifecycleTypes(t *testing.T) {
	mk := func(stripeType string) []byte {
		return []byte(fmt.Sprintf(`{
			"id": "evt_life",
			"type": %q,
			"created": 1700000400,
			"data": {"object": {"id": "sub_123", "status": "active", "metadata": {}}}
		}`, stripeType))
	}

	cases := map[string]EventType{
		"customer.subscription.created": EventSubscriptionUpdated,
		"customer.subscription.updated": EventSubscriptionUpdated,
		"customer.subscription.deleted": EventSubscriptionDeleted,
		"customer.subscription.paused":  EventSubscriptionPaused,
		"customer.subscription.resumed": EventSubscriptionResumed,
	}
	for stripeType, want := range cases {
		ev, err := ParseStripeEvent(mk(stripeType))
		require.NoError(t, err, stripeType)
		assert.Equal(t, want, ev.Type, stripeType)
	}
}
