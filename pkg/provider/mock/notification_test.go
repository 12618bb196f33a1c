package mock

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func TestSubscriptionConfirmationFlow(t *testing.T) {
	svc := &notificationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, "alerts", nil)
	require.NoError(t, err)

	tests := []struct {
		protocol types.SubscriptionProtocol
		endpoint string
		want     types.SubscriptionStatus
	}{
		{types.SubscriptionEmail, "ops@example.com", types.SubscriptionPending},
		{types.SubscriptionHTTPS, "https://hooks.example.com", types.SubscriptionPending},
		{types.SubscriptionSMS, "+15551234567", types.SubscriptionConfirmed},
		{types.SubscriptionQueue, "alerts-queue", types.SubscriptionConfirmed},
	}
	for _, tt := range tests {
		sub, err := svc.Subscribe(ctx, "alerts", tt.protocol, tt.endpoint)
		require.NoError(t, err)
		assert.Equal(t, tt.want, sub.Status, "protocol %s", tt.protocol)
	}

	topic, err := svc.GetTopic(ctx, "alerts")
	require.NoError(t, err)
	require.Len(t, topic.Subscriptions, 4)

	pending := topic.Subscriptions[0]
	require.NoError(t, svc.ConfirmSubscription(ctx, "alerts", pending.ID))
	topic, err = svc.GetTopic(ctx, "alerts")
	require.NoError(t, err)
	for _, sub := range topic.Subscriptions {
		if sub.ID == pending.ID {
			assert.Equal(t, types.SubscriptionConfirmed, sub.Status)
		}
	}

	require.NoError(t, svc.Unsubscribe(ctx, pending.ID))
	assert.True(t, errdefs.IsNotFound(svc.Unsubscribe(ctx, pending.ID)))
}

func TestPublishAndDirectSends(t *testing.T) {
	svc := &notificationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, "alerts", nil)
	require.NoError(t, err)

	id, err := svc.PublishToTopic(ctx, "alerts", types.PublishParams{Subject: "hi", Message: "body"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	_, err = svc.PublishToTopic(ctx, "missing", types.PublishParams{Message: "body"})
	assert.True(t, errdefs.IsNotFound(err))

	id, err = svc.SendEmail(ctx, "ops@example.com", "subject", "body")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = svc.SendEmail(ctx, "not-an-address", "subject", "body")
	assert.True(t, errdefs.IsValidation(err))

	id, err = svc.SendSMS(ctx, "+15551234567", "ping")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	_, err = svc.SendSMS(ctx, "", "ping")
	assert.True(t, errdefs.IsValidation(err))
}

func TestSubscribeValidation(t *testing.T) {
	svc := &notificationService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateTopic(ctx, "alerts", nil)
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, "alerts", "carrier-pigeon", "roof")
	assert.True(t, errdefs.IsValidation(err))
	_, err = svc.Subscribe(ctx, "alerts", types.SubscriptionEmail, "no-at-sign")
	assert.True(t, errdefs.IsValidation(err))
	_, err = svc.Subscribe(ctx, "missing", types.SubscriptionEmail, "a@b.c")
	assert.True(t, errdefs.IsNotFound(err))
}
