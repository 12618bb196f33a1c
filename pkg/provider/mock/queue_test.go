package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

func sendBodies(t *testing.T, svc *queueService, queue, group string, bodies ...string) {
	t.Helper()
	for _, b := range bodies {
		_, err := svc.SendMessage(context.Background(), queue, types.SendMessageParams{Body: b, GroupID: group})
		require.NoError(t, err)
	}
}

func TestFIFOQueuePreservesGroupOrder(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "orders.fifo", types.QueueOptions{FIFO: true})
	require.NoError(t, err)
	sendBodies(t, svc, "orders.fifo", "g1", "A", "B", "C")

	msgs, err := svc.ReceiveMessages(ctx, "orders.fifo", types.ReceiveMessageParams{MaxMessages: 3})
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, "A", msgs[0].Body)
	assert.Equal(t, "B", msgs[1].Body)
	assert.Equal(t, "C", msgs[2].Body)
}

func TestStandardQueueDeliversAll(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "events", types.QueueOptions{})
	require.NoError(t, err)
	sendBodies(t, svc, "events", "", "A", "B", "C")

	msgs, err := svc.ReceiveMessages(ctx, "events", types.ReceiveMessageParams{MaxMessages: 10})
	require.NoError(t, err)

	got := make([]string, len(msgs))
	for i, m := range msgs {
		got[i] = m.Body
	}
	assert.ElementsMatch(t, []string{"A", "B", "C"}, got)
}

func TestFIFODeduplication(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "orders.fifo", types.QueueOptions{FIFO: true})
	require.NoError(t, err)

	first, err := svc.SendMessage(ctx, "orders.fifo", types.SendMessageParams{Body: "A", GroupID: "g", DeduplicationID: "d-1"})
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, "orders.fifo", types.SendMessageParams{Body: "A", GroupID: "g", DeduplicationID: "d-1"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	q, err := svc.GetQueue(ctx, "orders.fifo")
	require.NoError(t, err)
	assert.Equal(t, 1, q.MessageCount)
}

func TestFIFOQueueRequiresGroupAndSuffix(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "orders", types.QueueOptions{FIFO: true})
	assert.True(t, errdefs.IsValidation(err))

	_, err = svc.CreateQueue(ctx, "orders.fifo", types.QueueOptions{FIFO: true})
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, "orders.fifo", types.SendMessageParams{Body: "A"})
	assert.True(t, errdefs.IsValidation(err))
}

func TestReceiveHidesInFlightMessages(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "work", types.QueueOptions{})
	require.NoError(t, err)
	sendBodies(t, svc, "work", "", "A")

	first, err := svc.ReceiveMessages(ctx, "work", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)

	// The message is leased; a second receive comes back empty.
	second, err := svc.ReceiveMessages(ctx, "work", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)
	assert.Empty(t, second)

	require.NoError(t, svc.DeleteMessage(ctx, "work", first[0].ReceiptHandle))
	q, err := svc.GetQueue(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 0, q.MessageCount)
}

func TestFIFOGroupBlockedWhileHeadInFlight(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "orders.fifo", types.QueueOptions{FIFO: true})
	require.NoError(t, err)
	sendBodies(t, svc, "orders.fifo", "g1", "A", "B")
	sendBodies(t, svc, "orders.fifo", "g2", "X")

	first, err := svc.ReceiveMessages(ctx, "orders.fifo", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, "A", first[0].Body)

	// B waits behind the in-flight A; X from the other group flows.
	rest, err := svc.ReceiveMessages(ctx, "orders.fifo", types.ReceiveMessageParams{MaxMessages: 10})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "X", rest[0].Body)
}

func TestPurgeQueue(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "work", types.QueueOptions{})
	require.NoError(t, err)
	sendBodies(t, svc, "work", "", "A", "B")

	require.NoError(t, svc.PurgeQueue(ctx, "work"))
	q, err := svc.GetQueue(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 0, q.MessageCount)
}

func TestDeadLetterQueueCapturesPoisonMessages(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "work", types.QueueOptions{EnableDeadLetter: true, DeadLetterAfterRetries: 2})
	require.NoError(t, err)
	sendBodies(t, svc, "work", "", "poison")

	// Receive without deleting until the retry budget is spent.
	for i := 0; i < 2; i++ {
		msgs, err := svc.ReceiveMessages(ctx, "work", types.ReceiveMessageParams{MaxMessages: 1, VisibilityTimeout: time.Millisecond})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		time.Sleep(5 * time.Millisecond)
	}

	// The next receive moves the message aside instead of redelivering.
	msgs, err := svc.ReceiveMessages(ctx, "work", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)
	assert.Empty(t, msgs)

	q, err := svc.GetQueue(ctx, "work")
	require.NoError(t, err)
	assert.Equal(t, 0, q.MessageCount)

	dead, err := svc.ReceiveMessages(ctx, "work-dlq", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)
	require.Len(t, dead, 1)
	assert.Equal(t, "poison", dead[0].Body)
}

func TestFIFODeadLetterQueueNaming(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.CreateQueue(ctx, "orders.fifo", types.QueueOptions{FIFO: true, EnableDeadLetter: true, DeadLetterAfterRetries: 1})
	require.NoError(t, err)
	sendBodies(t, svc, "orders.fifo", "g1", "A")

	msgs, err := svc.ReceiveMessages(ctx, "orders.fifo", types.ReceiveMessageParams{MaxMessages: 1, VisibilityTimeout: time.Millisecond})
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	time.Sleep(5 * time.Millisecond)

	_, err = svc.ReceiveMessages(ctx, "orders.fifo", types.ReceiveMessageParams{MaxMessages: 1})
	require.NoError(t, err)

	dlq, err := svc.GetQueue(ctx, "orders-dlq.fifo")
	require.NoError(t, err)
	assert.True(t, dlq.FIFO)
	assert.Equal(t, 1, dlq.MessageCount)
}

func TestQueueNotFound(t *testing.T) {
	svc := &queueService{w: testWorld(t)}
	ctx := context.Background()

	_, err := svc.SendMessage(ctx, "nope", types.SendMessageParams{Body: "A"})
	assert.True(t, errdefs.IsNotFound(err))
	_, err = svc.ReceiveMessages(ctx, "nope", types.ReceiveMessageParams{})
	assert.True(t, errdefs.IsNotFound(err))
}
