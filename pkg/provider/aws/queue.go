package aws

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	sqstypes "github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type queueService struct {
	client *sqs.Client
	retry  retry.Policy
}

func newQueueService(cfg awssdk.Config, deps provider.Deps) *queueService {
	client := sqs.NewFromConfig(cfg, func(o *sqs.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &queueService{client: client, retry: deps.Retry}
}

func (s *queueService) CreateQueue(ctx context.Context, name string, opts types.QueueOptions) (*types.Queue, error) {
	if name == "" {
		return nil, errdefs.NewValidationPath("name", "queue name is required")
	}
	if opts.FIFO && !strings.HasSuffix(name, ".fifo") {
		return nil, errdefs.NewValidationPath("name", "FIFO queue names must end in .fifo")
	}
	attrs := map[string]string{}
	if opts.VisibilityTimeout > 0 {
		attrs["VisibilityTimeout"] = strconv.Itoa(int(opts.VisibilityTimeout.Seconds()))
	}
	if opts.MessageRetention > 0 {
		attrs["MessageRetentionPeriod"] = strconv.Itoa(int(opts.MessageRetention.Seconds()))
	}
	if opts.MaxMessageSize > 0 {
		attrs["MaximumMessageSize"] = strconv.Itoa(opts.MaxMessageSize)
	}
	if opts.FIFO {
		attrs["FifoQueue"] = "true"
		attrs["ContentBasedDeduplication"] = "false"
	}
	if opts.EnableDeadLetter {
		dlqARN, err := s.ensureDeadLetterQueue(ctx, name, opts.FIFO)
		if err != nil {
			return nil, err
		}
		retries := opts.DeadLetterAfterRetries
		if retries <= 0 {
			retries = 3
		}
		redrive, _ := json.Marshal(map[string]interface{}{
			"deadLetterTargetArn": dlqARN,
			"maxReceiveCount":     retries,
		})
		attrs["RedrivePolicy"] = string(redrive)
	}

	var out *sqs.CreateQueueOutput
	err := retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.CreateQueue(ctx, &sqs.CreateQueueInput{
			QueueName:  awssdk.String(name),
			Attributes: attrs,
			Tags:       opts.Tags,
		})
		return translate(opErr, "queue")
	})
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, name, *out.QueueUrl)
}

func (s *queueService) GetQueue(ctx context.Context, name string) (*types.Queue, error) {
	url, err := s.queueURL(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.describe(ctx, name, url)
}

func (s *queueService) DeleteQueue(ctx context.Context, name string) error {
	url, err := s.queueURL(ctx, name)
	if err != nil {
		return err
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteQueue(ctx, &sqs.DeleteQueueInput{QueueUrl: awssdk.String(url)})
		return translate(err, "queue")
	})
}

func (s *queueService) ListQueues(ctx context.Context) ([]types.Queue, error) {
	var queues []types.Queue
	p := sqs.NewListQueuesPaginator(s.client, &sqs.ListQueuesInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "queue")
		}
		for _, url := range page.QueueUrls {
			q, err := s.describe(ctx, queueNameFromURL(url), url)
			if err != nil {
				return nil, err
			}
			queues = append(queues, *q)
		}
	}
	return queues, nil
}

func (s *queueService) SendMessage(ctx context.Context, queue string, params types.SendMessageParams) (*types.Message, error) {
	if params.Body == "" {
		return nil, errdefs.NewValidationPath("body", "message body is required")
	}
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return nil, err
	}
	in := &sqs.SendMessageInput{
		QueueUrl:    awssdk.String(url),
		MessageBody: awssdk.String(params.Body),
	}
	if params.Delay > 0 {
		in.DelaySeconds = int32(params.Delay.Seconds())
	}
	if params.GroupID != "" {
		in.MessageGroupId = awssdk.String(params.GroupID)
	}
	if params.DeduplicationID != "" {
		in.MessageDeduplicationId = awssdk.String(params.DeduplicationID)
	}
	if len(params.Attributes) > 0 {
		in.MessageAttributes = make(map[string]sqstypes.MessageAttributeValue, len(params.Attributes))
		for k, v := range params.Attributes {
			in.MessageAttributes[k] = sqstypes.MessageAttributeValue{
				DataType:    awssdk.String("String"),
				StringValue: awssdk.String(v),
			}
		}
	}
	var out *sqs.SendMessageOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.SendMessage(ctx, in)
		return translate(opErr, "message")
	})
	if err != nil {
		return nil, err
	}
	return &types.Message{
		ID:              awssdk.ToString(out.MessageId),
		Body:            params.Body,
		Attributes:      params.Attributes,
		DeduplicationID: params.DeduplicationID,
		GroupID:         params.GroupID,
		Sent:            time.Now().UTC(),
	}, nil
}

func (s *queueService) ReceiveMessages(ctx context.Context, queue string, params types.ReceiveMessageParams) ([]types.Message, error) {
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return nil, err
	}
	max := params.MaxMessages
	if max <= 0 {
		max = 1
	}
	if max > 10 {
		max = 10
	}
	in := &sqs.ReceiveMessageInput{
		QueueUrl:              awssdk.String(url),
		MaxNumberOfMessages:   int32(max),
		MessageAttributeNames: []string{"All"},
		MessageSystemAttributeNames: []sqstypes.MessageSystemAttributeName{
			sqstypes.MessageSystemAttributeNameAll,
		},
	}
	if params.WaitTime > 0 {
		in.WaitTimeSeconds = int32(params.WaitTime.Seconds())
	}
	if params.VisibilityTimeout > 0 {
		in.VisibilityTimeout = int32(params.VisibilityTimeout.Seconds())
	}
	out, err := s.client.ReceiveMessage(ctx, in)
	if err != nil {
		return nil, translate(err, "message")
	}
	msgs := make([]types.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msg := types.Message{
			ID:            awssdk.ToString(m.MessageId),
			Body:          awssdk.ToString(m.Body),
			ReceiptHandle: awssdk.ToString(m.ReceiptHandle),
		}
		if len(m.MessageAttributes) > 0 {
			msg.Attributes = make(map[string]string, len(m.MessageAttributes))
			for k, v := range m.MessageAttributes {
				msg.Attributes[k] = awssdk.ToString(v.StringValue)
			}
		}
		msg.GroupID = m.Attributes[string(sqstypes.MessageSystemAttributeNameMessageGroupId)]
		msg.DeduplicationID = m.Attributes[string(sqstypes.MessageSystemAttributeNameMessageDeduplicationId)]
		if ts := m.Attributes[string(sqstypes.MessageSystemAttributeNameSentTimestamp)]; ts != "" {
			if ms, err := strconv.ParseInt(ts, 10, 64); err == nil {
				msg.Sent = time.UnixMilli(ms).UTC()
			}
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (s *queueService) DeleteMessage(ctx context.Context, queue, receiptHandle string) error {
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      awssdk.String(url),
			ReceiptHandle: awssdk.String(receiptHandle),
		})
		return translate(err, "message")
	})
}

func (s *queueService) PurgeQueue(ctx context.Context, queue string) error {
	url, err := s.queueURL(ctx, queue)
	if err != nil {
		return err
	}
	_, err = s.client.PurgeQueue(ctx, &sqs.PurgeQueueInput{QueueUrl: awssdk.String(url)})
	return translate(err, "queue")
}

func (s *queueService) queueURL(ctx context.Context, name string) (string, error) {
	out, err := s.client.GetQueueUrl(ctx, &sqs.GetQueueUrlInput{QueueName: awssdk.String(name)})
	if err != nil {
		return "", translate(err, "queue")
	}
	return awssdk.ToString(out.QueueUrl), nil
}

func (s *queueService) describe(ctx context.Context, name, url string) (*types.Queue, error) {
	out, err := s.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       awssdk.String(url),
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameAll},
	})
	if err != nil {
		return nil, translate(err, "queue")
	}
	q := &types.Queue{
		Name: name,
		URL:  url,
		FIFO: out.Attributes["FifoQueue"] == "true",
	}
	if n, err := strconv.Atoi(out.Attributes["ApproximateNumberOfMessages"]); err == nil {
		q.MessageCount = n
	}
	if ts, err := strconv.ParseInt(out.Attributes["CreatedTimestamp"], 10, 64); err == nil {
		q.Created = time.Unix(ts, 0).UTC()
	}
	return q, nil
}

// ensureDeadLetterQueue creates the companion dead-letter queue and
// returns its ARN. FIFO sources require a FIFO dead-letter queue.
func (s *queueService) ensureDeadLetterQueue(ctx context.Context, source string, fifo bool) (string, error) {
	name := strings.TrimSuffix(source, ".fifo") + "-dlq"
	attrs := map[string]string{}
	if fifo {
		name += ".fifo"
		attrs["FifoQueue"] = "true"
	}
	out, err := s.client.CreateQueue(ctx, &sqs.CreateQueueInput{
		QueueName:  awssdk.String(name),
		Attributes: attrs,
	})
	if err != nil {
		return "", translate(err, "queue")
	}
	attrOut, err := s.client.GetQueueAttributes(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl:       out.QueueUrl,
		AttributeNames: []sqstypes.QueueAttributeName{sqstypes.QueueAttributeNameQueueArn},
	})
	if err != nil {
		return "", translate(err, "queue")
	}
	return attrOut.Attributes[string(sqstypes.QueueAttributeNameQueueArn)], nil
}

func queueNameFromURL(url string) string {
	if i := strings.LastIndex(url, "/"); i >= 0 {
		return url[i+1:]
	}
	return url
}
