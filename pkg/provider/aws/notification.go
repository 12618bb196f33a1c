package aws

import (
	"context"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

// extraEmailTopic names the topic that carries direct email sends.
// Email delivery on this provider rides an SNS topic with confirmed
// email subscriptions.
const extraEmailTopic = "sns.emailTopicArn"

type notificationService struct {
	client     *sns.Client
	retry      retry.Policy
	emailTopic string
}

func newNotificationService(cfg awssdk.Config, deps provider.Deps) *notificationService {
	client := sns.NewFromConfig(cfg, func(o *sns.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &notificationService{
		client:     client,
		retry:      deps.Retry,
		emailTopic: deps.Config.Options.Extra[extraEmailTopic],
	}
}

func (s *notificationService) CreateTopic(ctx context.Context, name string, tags map[string]string) (*types.Topic, error) {
	if name == "" {
		return nil, errdefs.NewValidationPath("name", "topic name is required")
	}
	in := &sns.CreateTopicInput{Name: awssdk.String(name)}
	for k, v := range tags {
		in.Tags = append(in.Tags, snstypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	var out *sns.CreateTopicOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateTopic(ctx, in)
		return translate(opErr, "topic")
	})
	if err != nil {
		return nil, err
	}
	return &types.Topic{
		Name:    name,
		ARN:     awssdk.ToString(out.TopicArn),
		Tags:    tags,
		Created: time.Now().UTC(),
	}, nil
}

func (s *notificationService) GetTopic(ctx context.Context, name string) (*types.Topic, error) {
	arn, err := s.topicARN(ctx, name)
	if err != nil {
		return nil, err
	}
	topic := &types.Topic{Name: name, ARN: arn}
	p := sns.NewListSubscriptionsByTopicPaginator(s.client, &sns.ListSubscriptionsByTopicInput{
		TopicArn: awssdk.String(arn),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "topic")
		}
		for _, sub := range page.Subscriptions {
			entry := types.Subscription{
				ID:       awssdk.ToString(sub.SubscriptionArn),
				Topic:    name,
				Protocol: portableProtocol(awssdk.ToString(sub.Protocol)),
				Endpoint: awssdk.ToString(sub.Endpoint),
				Status:   types.SubscriptionConfirmed,
			}
			if entry.ID == "PendingConfirmation" {
				entry.Status = types.SubscriptionPending
			}
			topic.Subscriptions = append(topic.Subscriptions, entry)
		}
	}
	return topic, nil
}

func (s *notificationService) DeleteTopic(ctx context.Context, name string) error {
	arn, err := s.topicARN(ctx, name)
	if err != nil {
		return err
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteTopic(ctx, &sns.DeleteTopicInput{TopicArn: awssdk.String(arn)})
		return translate(err, "topic")
	})
}

func (s *notificationService) ListTopics(ctx context.Context) ([]types.Topic, error) {
	var topics []types.Topic
	p := sns.NewListTopicsPaginator(s.client, &sns.ListTopicsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "topic")
		}
		for _, t := range page.Topics {
			arn := awssdk.ToString(t.TopicArn)
			topics = append(topics, types.Topic{Name: topicNameFromARN(arn), ARN: arn})
		}
	}
	return topics, nil
}

func (s *notificationService) Subscribe(ctx context.Context, topic string, protocol types.SubscriptionProtocol, endpointAddr string) (*types.Subscription, error) {
	if endpointAddr == "" {
		return nil, errdefs.NewValidationPath("endpoint", "subscription endpoint is required")
	}
	if protocol == types.SubscriptionEmail && !strings.Contains(endpointAddr, "@") {
		return nil, errdefs.NewValidationPath("endpoint", "email endpoint must be an address")
	}
	arn, err := s.topicARN(ctx, topic)
	if err != nil {
		return nil, err
	}
	var out *sns.SubscribeOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.Subscribe(ctx, &sns.SubscribeInput{
			TopicArn:              awssdk.String(arn),
			Protocol:              awssdk.String(awsProtocol(protocol)),
			Endpoint:              awssdk.String(endpointAddr),
			ReturnSubscriptionArn: true,
		})
		return translate(opErr, "subscription")
	})
	if err != nil {
		return nil, err
	}
	status := types.SubscriptionConfirmed
	if protocol == types.SubscriptionEmail || protocol == types.SubscriptionHTTPS {
		status = types.SubscriptionPending
	}
	return &types.Subscription{
		ID:       awssdk.ToString(out.SubscriptionArn),
		Topic:    topic,
		Protocol: protocol,
		Endpoint: endpointAddr,
		Status:   status,
		Created:  time.Now().UTC(),
	}, nil
}

// ConfirmSubscription completes a pending subscription. The
// subscription id carries the confirmation token delivered to the
// endpoint.
func (s *notificationService) ConfirmSubscription(ctx context.Context, topic, subscriptionID string) error {
	arn, err := s.topicARN(ctx, topic)
	if err != nil {
		return err
	}
	_, err = s.client.ConfirmSubscription(ctx, &sns.ConfirmSubscriptionInput{
		TopicArn: awssdk.String(arn),
		Token:    awssdk.String(subscriptionID),
	})
	return translate(err, "subscription")
}

func (s *notificationService) Unsubscribe(ctx context.Context, subscriptionID string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.Unsubscribe(ctx, &sns.UnsubscribeInput{
			SubscriptionArn: awssdk.String(subscriptionID),
		})
		return translate(err, "subscription")
	})
}

func (s *notificationService) PublishToTopic(ctx context.Context, topic string, params types.PublishParams) (string, error) {
	if params.Message == "" {
		return "", errdefs.NewValidationPath("message", "message is required")
	}
	arn, err := s.topicARN(ctx, topic)
	if err != nil {
		return "", err
	}
	in := &sns.PublishInput{
		TopicArn: awssdk.String(arn),
		Message:  awssdk.String(params.Message),
	}
	if params.Subject != "" {
		in.Subject = awssdk.String(params.Subject)
	}
	if len(params.Attributes) > 0 {
		in.MessageAttributes = make(map[string]snstypes.MessageAttributeValue, len(params.Attributes))
		for k, v := range params.Attributes {
			in.MessageAttributes[k] = snstypes.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(v),
			}
		}
	}
	var out *sns.PublishOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.Publish(ctx, in)
		return translate(opErr, "message")
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func (s *notificationService) SendEmail(ctx context.Context, to, subject, body string) (string, error) {
	if !strings.Contains(to, "@") {
		return "", errdefs.NewValidationPath("to", "recipient must be an email address")
	}
	if s.emailTopic == "" {
		return "", errdefs.NewValidation("email channel is not configured: set options.extra[%q]", extraEmailTopic)
	}
	var out *sns.PublishOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.Publish(ctx, &sns.PublishInput{
			TopicArn: awssdk.String(s.emailTopic),
			Subject:  awssdk.String(subject),
			Message:  awssdk.String(body),
			MessageAttributes: map[string]snstypes.MessageAttributeValue{
				"recipient": {DataType: awssdk.String("String"), StringValue: awssdk.String(to)},
			},
		})
		return translate(opErr, "message")
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func (s *notificationService) SendSMS(ctx context.Context, to, message string) (string, error) {
	if to == "" {
		return "", errdefs.NewValidationPath("to", "recipient phone number is required")
	}
	var out *sns.PublishOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.Publish(ctx, &sns.PublishInput{
			PhoneNumber: awssdk.String(to),
			Message:     awssdk.String(message),
		})
		return translate(opErr, "message")
	})
	if err != nil {
		return "", err
	}
	return awssdk.ToString(out.MessageId), nil
}

func (s *notificationService) topicARN(ctx context.Context, name string) (string, error) {
	if strings.HasPrefix(name, "arn:") {
		return name, nil
	}
	p := sns.NewListTopicsPaginator(s.client, &sns.ListTopicsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return "", translate(err, "topic")
		}
		for _, t := range page.Topics {
			arn := awssdk.ToString(t.TopicArn)
			if topicNameFromARN(arn) == name {
				return arn, nil
			}
		}
	}
	return "", errdefs.NewNotFound("topic", name)
}

func topicNameFromARN(arn string) string {
	if i := strings.LastIndex(arn, ":"); i >= 0 {
		return arn[i+1:]
	}
	return arn
}

func awsProtocol(p types.SubscriptionProtocol) string {
	if p == types.SubscriptionQueue {
		return "sqs"
	}
	return string(p)
}

func portableProtocol(p string) types.SubscriptionProtocol {
	if p == "sqs" {
		return types.SubscriptionQueue
	}
	return types.SubscriptionProtocol(p)
}
