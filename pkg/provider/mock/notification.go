package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type topicState struct {
	topic types.Topic
	subs  map[string]*types.Subscription
}

type notificationService struct {
	w *world
}

func (s *notificationService) CreateTopic(ctx context.Context, name string, tags map[string]string) (*types.Topic, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.topics[name]; exists {
		return nil, errdefs.NewConflict("topic %q already exists", name)
	}
	st := &topicState{
		topic: types.Topic{
			Name:    name,
			ARN:     fmt.Sprintf("arn:mock:topic:%s", name),
			Tags:    copyStrMap(tags),
			Created: time.Now(),
		},
		subs: make(map[string]*types.Subscription),
	}
	s.w.topics[name] = st
	out := cloneTopic(st)
	return &out, nil
}

func (s *notificationService) GetTopic(ctx context.Context, name string) (*types.Topic, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.topics[name]
	if !ok {
		return nil, errdefs.NewNotFound("topic", name)
	}
	out := cloneTopic(st)
	return &out, nil
}

func (s *notificationService) DeleteTopic(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.topics[name]; !ok {
		return errdefs.NewNotFound("topic", name)
	}
	delete(s.w.topics, name)
	return nil
}

func (s *notificationService) ListTopics(ctx context.Context) ([]types.Topic, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	out := make([]types.Topic, 0, len(s.w.topics))
	for _, st := range s.w.topics {
		out = append(out, cloneTopic(st))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Subscribe registers an endpoint on a topic. Email and HTTPS
// endpoints must be confirmed before they receive messages.
func (s *notificationService) Subscribe(ctx context.Context, topic string, protocol types.SubscriptionProtocol, endpoint string) (*types.Subscription, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	switch protocol {
	case types.SubscriptionEmail, types.SubscriptionHTTPS, types.SubscriptionSMS, types.SubscriptionQueue:
	default:
		return nil, errdefs.NewValidationPath("/protocol", "unknown protocol %q", protocol)
	}
	if endpoint == "" {
		return nil, errdefs.NewValidationPath("/endpoint", "endpoint is required")
	}
	if protocol == types.SubscriptionEmail && !strings.Contains(endpoint, "@") {
		return nil, errdefs.NewValidationPath("/endpoint", "email endpoint must be an address")
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.topics[topic]
	if !ok {
		return nil, errdefs.NewNotFound("topic", topic)
	}
	status := types.SubscriptionConfirmed
	if protocol == types.SubscriptionEmail || protocol == types.SubscriptionHTTPS {
		status = types.SubscriptionPending
	}
	sub := &types.Subscription{
		ID:       s.w.nextID("subscription"),
		Topic:    topic,
		Protocol: protocol,
		Endpoint: endpoint,
		Status:   status,
		Created:  time.Now(),
	}
	st.subs[sub.ID] = sub
	out := *sub
	return &out, nil
}

func (s *notificationService) ConfirmSubscription(ctx context.Context, topic, subscriptionID string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.topics[topic]
	if !ok {
		return errdefs.NewNotFound("topic", topic)
	}
	sub, ok := st.subs[subscriptionID]
	if !ok {
		return errdefs.NewNotFound("subscription", subscriptionID)
	}
	sub.Status = types.SubscriptionConfirmed
	return nil
}

func (s *notificationService) Unsubscribe(ctx context.Context, subscriptionID string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	for _, st := range s.w.topics {
		if sub, ok := st.subs[subscriptionID]; ok {
			sub.Status = types.SubscriptionUnsubscribed
			delete(st.subs, subscriptionID)
			return nil
		}
	}
	return errdefs.NewNotFound("subscription", subscriptionID)
}

func (s *notificationService) PublishToTopic(ctx context.Context, topic string, params types.PublishParams) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if params.Message == "" {
		return "", errdefs.NewValidationPath("/message", "message is required")
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	if _, ok := s.w.topics[topic]; !ok {
		return "", errdefs.NewNotFound("topic", topic)
	}
	return s.w.nextID("notification"), nil
}

func (s *notificationService) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if !strings.Contains(to, "@") {
		return "", errdefs.NewValidationPath("/to", "recipient must be an email address")
	}
	if subject == "" {
		return "", errdefs.NewValidationPath("/subject", "subject is required")
	}
	return s.w.nextID("email"), nil
}

func (s *notificationService) SendSMS(ctx context.Context, to, message string) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if to == "" {
		return "", errdefs.NewValidationPath("/to", "recipient is required")
	}
	if message == "" {
		return "", errdefs.NewValidationPath("/message", "message is required")
	}
	return s.w.nextID("sms"), nil
}

func cloneTopic(st *topicState) types.Topic {
	t := st.topic
	t.Tags = copyStrMap(t.Tags)
	t.Subscriptions = make([]types.Subscription, 0, len(st.subs))
	for _, sub := range st.subs {
		t.Subscriptions = append(t.Subscriptions, *sub)
	}
	sort.Slice(t.Subscriptions, func(i, j int) bool { return t.Subscriptions[i].ID < t.Subscriptions[j].ID })
	return t
}
