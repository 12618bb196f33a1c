package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

const (
	defaultVisibilityTimeout = 30 * time.Second
	defaultMessageRetention  = 4 * 24 * time.Hour
	defaultMaxMessageSize    = 256 * 1024
	dedupWindow              = 5 * time.Minute
	longPollInterval         = 10 * time.Millisecond
	maxReceiveBatch          = 10
	defaultDeadLetterRetries = 3
)

type queuedMessage struct {
	msg       types.Message
	visibleAt time.Time
	receives  int
}

type queueState struct {
	q        types.Queue
	opts     types.QueueOptions
	messages []*queuedMessage // Insertion order
	dedup    map[string]dedupEntry
	receipts map[string]*queuedMessage
}

type dedupEntry struct {
	messageID string
	expires   time.Time
}

type queueService struct {
	w *world
}

func (s *queueService) CreateQueue(ctx context.Context, name string, opts types.QueueOptions) (*types.Queue, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	if opts.FIFO && !strings.HasSuffix(name, ".fifo") {
		return nil, errdefs.NewValidationPath("/name", "FIFO queue names must end in .fifo")
	}
	if opts.VisibilityTimeout == 0 {
		opts.VisibilityTimeout = defaultVisibilityTimeout
	}
	if opts.MessageRetention == 0 {
		opts.MessageRetention = defaultMessageRetention
	}
	if opts.MaxMessageSize == 0 {
		opts.MaxMessageSize = defaultMaxMessageSize
	}
	if opts.EnableDeadLetter && opts.DeadLetterAfterRetries <= 0 {
		opts.DeadLetterAfterRetries = defaultDeadLetterRetries
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.queues[name]; exists {
		return nil, errdefs.NewConflict("queue %q already exists", name)
	}
	st := &queueState{
		q: types.Queue{
			Name:    name,
			URL:     fmt.Sprintf("mock://queues/%s", name),
			FIFO:    opts.FIFO,
			Created: time.Now(),
		},
		opts:     opts,
		dedup:    make(map[string]dedupEntry),
		receipts: make(map[string]*queuedMessage),
	}
	s.w.queues[name] = st
	out := st.q
	return &out, nil
}

func (s *queueService) GetQueue(ctx context.Context, name string) (*types.Queue, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.queues[name]
	if !ok {
		return nil, errdefs.NewNotFound("queue", name)
	}
	out := st.q
	out.MessageCount = len(st.messages)
	return &out, nil
}

func (s *queueService) DeleteQueue(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.queues[name]; !ok {
		return errdefs.NewNotFound("queue", name)
	}
	delete(s.w.queues, name)
	return nil
}

func (s *queueService) ListQueues(ctx context.Context) ([]types.Queue, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]types.Queue, 0, len(s.w.queues))
	for _, st := range s.w.queues {
		q := st.q
		q.MessageCount = len(st.messages)
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *queueService) SendMessage(ctx context.Context, queue string, params types.SendMessageParams) (*types.Message, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if params.Body == "" {
		return nil, errdefs.NewValidationPath("/body", "body is required")
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.queues[queue]
	if !ok {
		return nil, errdefs.NewNotFound("queue", queue)
	}
	if len(params.Body) > st.opts.MaxMessageSize {
		return nil, errdefs.NewValidationPath("/body", "body exceeds maximum message size of %d bytes", st.opts.MaxMessageSize)
	}
	if st.opts.FIFO && params.GroupID == "" {
		return nil, errdefs.NewValidationPath("/groupId", "FIFO queues require groupId")
	}

	now := time.Now()
	// FIFO deduplication: a repeated deduplicationId within the window
	// returns the original message id without enqueuing again.
	if st.opts.FIFO && params.DeduplicationID != "" {
		if entry, seen := st.dedup[params.DeduplicationID]; seen && now.Before(entry.expires) {
			for _, qm := range st.messages {
				if qm.msg.ID == entry.messageID {
					out := cloneMessage(qm.msg)
					return &out, nil
				}
			}
			return &types.Message{ID: entry.messageID, Body: params.Body, Sent: now}, nil
		}
	}

	qm := &queuedMessage{
		msg: types.Message{
			ID:              s.w.nextID("message"),
			Body:            params.Body,
			Attributes:      copyStrMap(params.Attributes),
			DeduplicationID: params.DeduplicationID,
			GroupID:         params.GroupID,
			Sent:            now,
		},
		visibleAt: now.Add(params.Delay),
	}
	st.messages = append(st.messages, qm)
	if st.opts.FIFO && params.DeduplicationID != "" {
		st.dedup[params.DeduplicationID] = dedupEntry{messageID: qm.msg.ID, expires: now.Add(dedupWindow)}
	}
	out := cloneMessage(qm.msg)
	return &out, nil
}

// ReceiveMessages returns up to MaxMessages visible messages. FIFO
// queues deliver per-group order: while a group's head message is in
// flight the rest of that group is withheld. WaitTime long-polls until
// messages arrive or the wait (or context deadline) ends.
func (s *queueService) ReceiveMessages(ctx context.Context, queue string, params types.ReceiveMessageParams) ([]types.Message, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	max := params.MaxMessages
	if max <= 0 {
		max = 1
	}
	if max > maxReceiveBatch {
		max = maxReceiveBatch
	}

	deadline := time.Now().Add(params.WaitTime)
	for {
		msgs, err := s.receiveOnce(queue, max, params.VisibilityTimeout)
		if err != nil {
			return nil, err
		}
		if len(msgs) > 0 || params.WaitTime <= 0 || time.Now().After(deadline) {
			return msgs, nil
		}
		select {
		case <-ctx.Done():
			return nil, errdefs.NewTimeout("receive aborted").WithCause(ctx.Err())
		case <-time.After(longPollInterval):
		}
	}
}

func (s *queueService) receiveOnce(queue string, max int, visibility time.Duration) ([]types.Message, error) {
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.queues[queue]
	if !ok {
		return nil, errdefs.NewNotFound("queue", queue)
	}
	if visibility == 0 {
		visibility = st.opts.VisibilityTimeout
	}

	now := time.Now()
	if st.opts.EnableDeadLetter {
		s.sweepDeadLetters(st, now)
	}
	var out []types.Message
	blockedGroups := map[string]bool{}
	for _, qm := range st.messages {
		if len(out) >= max {
			break
		}
		if st.opts.FIFO && qm.msg.GroupID != "" && blockedGroups[qm.msg.GroupID] {
			continue
		}
		if now.Before(qm.visibleAt) {
			// In flight or delayed; for FIFO this blocks the group.
			if st.opts.FIFO && qm.msg.GroupID != "" {
				blockedGroups[qm.msg.GroupID] = true
			}
			continue
		}
		qm.visibleAt = now.Add(visibility)
		qm.receives++
		receipt := uuid.NewString()
		qm.msg.ReceiptHandle = receipt
		st.receipts[receipt] = qm
		out = append(out, cloneMessage(qm.msg))
	}
	return out, nil
}

// sweepDeadLetters moves messages that have exhausted their receive
// budget to the companion dead-letter queue, creating it on first
// use. Caller holds w.mu.
func (s *queueService) sweepDeadLetters(st *queueState, now time.Time) {
	var moved []*queuedMessage
	kept := st.messages[:0]
	for _, qm := range st.messages {
		if qm.receives >= st.opts.DeadLetterAfterRetries && !now.Before(qm.visibleAt) {
			moved = append(moved, qm)
			continue
		}
		kept = append(kept, qm)
	}
	if len(moved) == 0 {
		return
	}
	st.messages = kept
	dlq := s.ensureDeadLetterQueue(st)
	for _, qm := range moved {
		if qm.msg.ReceiptHandle != "" {
			delete(st.receipts, qm.msg.ReceiptHandle)
			qm.msg.ReceiptHandle = ""
		}
		qm.receives = 0
		qm.visibleAt = now
		dlq.messages = append(dlq.messages, qm)
		s.w.log.Debug().
			Str("queue", st.q.Name).
			Str("dlq", dlq.q.Name).
			Str("message", qm.msg.ID).
			Msg("message dead-lettered")
	}
}

// ensureDeadLetterQueue resolves the companion dead-letter queue for a
// source queue, creating it when absent. FIFO sources get a FIFO
// dead-letter queue. Caller holds w.mu.
func (s *queueService) ensureDeadLetterQueue(src *queueState) *queueState {
	name := strings.TrimSuffix(src.q.Name, ".fifo") + "-dlq"
	if src.opts.FIFO {
		name += ".fifo"
	}
	if st, ok := s.w.queues[name]; ok {
		return st
	}
	opts := src.opts
	opts.EnableDeadLetter = false
	opts.DeadLetterAfterRetries = 0
	st := &queueState{
		q: types.Queue{
			Name:    name,
			URL:     fmt.Sprintf("mock://queues/%s", name),
			FIFO:    opts.FIFO,
			Created: time.Now(),
		},
		opts:     opts,
		dedup:    make(map[string]dedupEntry),
		receipts: make(map[string]*queuedMessage),
	}
	s.w.queues[name] = st
	return st
}

func (s *queueService) DeleteMessage(ctx context.Context, queue, receiptHandle string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.queues[queue]
	if !ok {
		return errdefs.NewNotFound("queue", queue)
	}
	qm, ok := st.receipts[receiptHandle]
	if !ok {
		return errdefs.NewNotFound("message receipt", receiptHandle)
	}
	delete(st.receipts, receiptHandle)
	for i, m := range st.messages {
		if m == qm {
			st.messages = append(st.messages[:i], st.messages[i+1:]...)
			break
		}
	}
	return nil
}

func (s *queueService) PurgeQueue(ctx context.Context, queue string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.queues[queue]
	if !ok {
		return errdefs.NewNotFound("queue", queue)
	}
	st.messages = nil
	st.receipts = make(map[string]*queuedMessage)
	return nil
}

func cloneMessage(m types.Message) types.Message {
	m.Attributes = copyStrMap(m.Attributes)
	return m
}
