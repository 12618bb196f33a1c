package aws

import (
	"context"
	"encoding/json"
	"time"

	awssdk "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
	"github.com/lcplatform/platform/pkg/retry"
	"github.com/lcplatform/platform/pkg/types"
)

type eventBusService struct {
	client *eventbridge.Client
	retry  retry.Policy
}

func newEventBusService(cfg awssdk.Config, deps provider.Deps) *eventBusService {
	client := eventbridge.NewFromConfig(cfg, func(o *eventbridge.Options) {
		o.BaseEndpoint = endpoint(deps.Config)
	})
	return &eventBusService{client: client, retry: deps.Retry}
}

func (s *eventBusService) CreateEventBus(ctx context.Context, name string, tags map[string]string) (*types.EventBus, error) {
	if name == "" {
		return nil, errdefs.NewValidationPath("name", "event bus name is required")
	}
	in := &eventbridge.CreateEventBusInput{Name: awssdk.String(name)}
	for k, v := range tags {
		in.Tags = append(in.Tags, ebtypes.Tag{Key: awssdk.String(k), Value: awssdk.String(v)})
	}
	err := retry.Do(ctx, s.retry, func() error {
		_, err := s.client.CreateEventBus(ctx, in)
		return translate(err, "event bus")
	})
	if err != nil {
		return nil, err
	}
	return &types.EventBus{Name: name, Tags: tags, Created: time.Now().UTC()}, nil
}

func (s *eventBusService) GetEventBus(ctx context.Context, name string) (*types.EventBus, error) {
	out, err := s.client.DescribeEventBus(ctx, &eventbridge.DescribeEventBusInput{
		Name: awssdk.String(name),
	})
	if err != nil {
		return nil, translate(err, "event bus")
	}
	bus := &types.EventBus{Name: awssdk.ToString(out.Name)}
	if out.CreationTime != nil {
		bus.Created = *out.CreationTime
	}
	return bus, nil
}

func (s *eventBusService) DeleteEventBus(ctx context.Context, name string) error {
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteEventBus(ctx, &eventbridge.DeleteEventBusInput{
			Name: awssdk.String(name),
		})
		return translate(err, "event bus")
	})
}

func (s *eventBusService) PutRule(ctx context.Context, bus string, rule types.Rule) (*types.Rule, error) {
	if rule.Name == "" {
		return nil, errdefs.NewValidationPath("name", "rule name is required")
	}
	pattern, err := marshalPattern(rule.Pattern)
	if err != nil {
		return nil, err
	}
	state := ebtypes.RuleStateDisabled
	if rule.Enabled {
		state = ebtypes.RuleStateEnabled
	}
	err = retry.Do(ctx, s.retry, func() error {
		_, err := s.client.PutRule(ctx, &eventbridge.PutRuleInput{
			Name:         awssdk.String(rule.Name),
			EventBusName: awssdk.String(bus),
			EventPattern: awssdk.String(pattern),
			State:        state,
		})
		return translate(err, "rule")
	})
	if err != nil {
		return nil, err
	}
	return s.GetRule(ctx, bus, rule.Name)
}

func (s *eventBusService) GetRule(ctx context.Context, bus, name string) (*types.Rule, error) {
	out, err := s.client.DescribeRule(ctx, &eventbridge.DescribeRuleInput{
		Name:         awssdk.String(name),
		EventBusName: awssdk.String(bus),
	})
	if err != nil {
		return nil, translate(err, "rule")
	}
	rule := types.Rule{
		Name:    awssdk.ToString(out.Name),
		Bus:     bus,
		Enabled: out.State == ebtypes.RuleStateEnabled,
	}
	if out.EventPattern != nil {
		rule.Pattern = unmarshalPattern(*out.EventPattern)
	}
	targets, err := s.client.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
		Rule:         awssdk.String(name),
		EventBusName: awssdk.String(bus),
	})
	if err != nil {
		return nil, translate(err, "rule")
	}
	for _, t := range targets.Targets {
		rule.Targets = append(rule.Targets, types.Target{
			ID:       awssdk.ToString(t.Id),
			Endpoint: awssdk.ToString(t.Arn),
		})
	}
	return &rule, nil
}

func (s *eventBusService) DeleteRule(ctx context.Context, bus, name string) error {
	existing, err := s.client.ListTargetsByRule(ctx, &eventbridge.ListTargetsByRuleInput{
		Rule:         awssdk.String(name),
		EventBusName: awssdk.String(bus),
	})
	if err != nil {
		return translate(err, "rule")
	}
	if len(existing.Targets) > 0 {
		ids := make([]string, 0, len(existing.Targets))
		for _, t := range existing.Targets {
			ids = append(ids, awssdk.ToString(t.Id))
		}
		_, err = s.client.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
			Rule:         awssdk.String(name),
			EventBusName: awssdk.String(bus),
			Ids:          ids,
		})
		if err != nil {
			return translate(err, "rule")
		}
	}
	return retry.Do(ctx, s.retry, func() error {
		_, err := s.client.DeleteRule(ctx, &eventbridge.DeleteRuleInput{
			Name:         awssdk.String(name),
			EventBusName: awssdk.String(bus),
		})
		return translate(err, "rule")
	})
}

func (s *eventBusService) ListRules(ctx context.Context, bus string) ([]types.Rule, error) {
	var rules []types.Rule
	p := eventbridge.NewListRulesPaginator(s.client, &eventbridge.ListRulesInput{
		EventBusName: awssdk.String(bus),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, translate(err, "rule")
		}
		for _, r := range page.Rules {
			rule := types.Rule{
				Name:    awssdk.ToString(r.Name),
				Bus:     bus,
				Enabled: r.State == ebtypes.RuleStateEnabled,
			}
			if r.EventPattern != nil {
				rule.Pattern = unmarshalPattern(*r.EventPattern)
			}
			rules = append(rules, rule)
		}
	}
	return rules, nil
}

func (s *eventBusService) AddTarget(ctx context.Context, bus, rule string, target types.Target) error {
	if target.ID == "" {
		return errdefs.NewValidationPath("id", "target id is required")
	}
	out, err := s.client.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule:         awssdk.String(rule),
		EventBusName: awssdk.String(bus),
		Targets: []ebtypes.Target{{
			Id:  awssdk.String(target.ID),
			Arn: awssdk.String(target.Endpoint),
		}},
	})
	if err != nil {
		return translate(err, "target")
	}
	if out.FailedEntryCount > 0 && len(out.FailedEntries) > 0 {
		entry := out.FailedEntries[0]
		return fromCode(awssdk.ToString(entry.ErrorCode), awssdk.ToString(entry.ErrorMessage), "target")
	}
	return nil
}

func (s *eventBusService) RemoveTarget(ctx context.Context, bus, rule, targetID string) error {
	out, err := s.client.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
		Rule:         awssdk.String(rule),
		EventBusName: awssdk.String(bus),
		Ids:          []string{targetID},
	})
	if err != nil {
		return translate(err, "target")
	}
	if out.FailedEntryCount > 0 && len(out.FailedEntries) > 0 {
		entry := out.FailedEntries[0]
		return fromCode(awssdk.ToString(entry.ErrorCode), awssdk.ToString(entry.ErrorMessage), "target")
	}
	return nil
}

func (s *eventBusService) PublishEvent(ctx context.Context, bus string, event types.Event) (string, error) {
	if event.Source == "" {
		return "", errdefs.NewValidationPath("source", "event source is required")
	}
	if event.Type == "" {
		return "", errdefs.NewValidationPath("type", "event type is required")
	}
	detail, err := json.Marshal(event.Data)
	if err != nil {
		return "", errdefs.NewValidationPath("data", "event data is not serializable").WithCause(err)
	}
	entry := ebtypes.PutEventsRequestEntry{
		EventBusName: awssdk.String(bus),
		Source:       awssdk.String(event.Source),
		DetailType:   awssdk.String(event.Type),
		Detail:       awssdk.String(string(detail)),
	}
	if !event.Time.IsZero() {
		entry.Time = awssdk.Time(event.Time)
	}
	var out *eventbridge.PutEventsOutput
	err = retry.Do(ctx, s.retry, func() error {
		var opErr error
		out, opErr = s.client.PutEvents(ctx, &eventbridge.PutEventsInput{
			Entries: []ebtypes.PutEventsRequestEntry{entry},
		})
		return translate(opErr, "event")
	})
	if err != nil {
		return "", err
	}
	result := out.Entries[0]
	if result.ErrorCode != nil {
		return "", fromCode(*result.ErrorCode, awssdk.ToString(result.ErrorMessage), "event")
	}
	return awssdk.ToString(result.EventId), nil
}

// marshalPattern renders the portable pattern as an EventBridge
// pattern document. Data keys become exact-match detail filters.
func marshalPattern(p types.EventPattern) (string, error) {
	doc := map[string]interface{}{}
	if len(p.Source) > 0 {
		doc["source"] = p.Source
	}
	if len(p.Type) > 0 {
		doc["detail-type"] = p.Type
	}
	if len(p.Data) > 0 {
		detail := map[string]interface{}{}
		for k, v := range p.Data {
			detail[k] = []interface{}{v}
		}
		doc["detail"] = detail
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return "", errdefs.NewValidationPath("pattern", "pattern is not serializable").WithCause(err)
	}
	return string(raw), nil
}

func unmarshalPattern(raw string) types.EventPattern {
	var doc struct {
		Source     []string                 `json:"source"`
		DetailType []string                 `json:"detail-type"`
		Detail     map[string][]interface{} `json:"detail"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return types.EventPattern{}
	}
	p := types.EventPattern{Source: doc.Source, Type: doc.DetailType}
	if len(doc.Detail) > 0 {
		p.Data = make(map[string]interface{}, len(doc.Detail))
		for k, vs := range doc.Detail {
			if len(vs) > 0 {
				p.Data[k] = vs[0]
			}
		}
	}
	return p
}
