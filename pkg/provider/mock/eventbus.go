package mock

import (
	"context"
	"reflect"
	"sort"
	"time"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/types"
)

type busState struct {
	bus   types.EventBus
	rules map[string]*types.Rule
}

type eventBusService struct {
	w *world
}

func (s *eventBusService) CreateEventBus(ctx context.Context, name string, tags map[string]string) (*types.EventBus, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if name == "" {
		return nil, errdefs.NewValidationPath("/name", "name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, exists := s.w.buses[name]; exists {
		return nil, errdefs.NewConflict("event bus %q already exists", name)
	}
	st := &busState{
		bus: types.EventBus{
			Name:    name,
			Tags:    copyStrMap(tags),
			Created: time.Now(),
		},
		rules: make(map[string]*types.Rule),
	}
	s.w.buses[name] = st
	out := st.bus
	return &out, nil
}

func (s *eventBusService) GetEventBus(ctx context.Context, name string) (*types.EventBus, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.buses[name]
	if !ok {
		return nil, errdefs.NewNotFound("event bus", name)
	}
	out := st.bus
	out.Tags = copyStrMap(st.bus.Tags)
	return &out, nil
}

func (s *eventBusService) DeleteEventBus(ctx context.Context, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	if _, ok := s.w.buses[name]; !ok {
		return errdefs.NewNotFound("event bus", name)
	}
	delete(s.w.buses, name)
	return nil
}

func (s *eventBusService) PutRule(ctx context.Context, bus string, rule types.Rule) (*types.Rule, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	if rule.Name == "" {
		return nil, errdefs.NewValidationPath("/name", "rule name is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return nil, errdefs.NewNotFound("event bus", bus)
	}
	rule.Bus = bus
	if existing, ok := st.rules[rule.Name]; ok {
		// PutRule upserts the pattern and enabled flag but keeps targets.
		rule.Targets = existing.Targets
		rule.Created = existing.Created
	} else {
		rule.Created = time.Now()
	}
	stored := cloneRule(rule)
	st.rules[rule.Name] = &stored
	out := cloneRule(stored)
	return &out, nil
}

func (s *eventBusService) GetRule(ctx context.Context, bus, name string) (*types.Rule, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return nil, errdefs.NewNotFound("event bus", bus)
	}
	rule, ok := st.rules[name]
	if !ok {
		return nil, errdefs.NewNotFound("rule", name)
	}
	out := cloneRule(*rule)
	return &out, nil
}

func (s *eventBusService) DeleteRule(ctx context.Context, bus, name string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return errdefs.NewNotFound("event bus", bus)
	}
	if _, ok := st.rules[name]; !ok {
		return errdefs.NewNotFound("rule", name)
	}
	delete(st.rules, name)
	return nil
}

func (s *eventBusService) ListRules(ctx context.Context, bus string) ([]types.Rule, error) {
	if err := s.w.simulate(ctx); err != nil {
		return nil, err
	}
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return nil, errdefs.NewNotFound("event bus", bus)
	}
	out := make([]types.Rule, 0, len(st.rules))
	for _, rule := range st.rules {
		out = append(out, cloneRule(*rule))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *eventBusService) AddTarget(ctx context.Context, bus, rule string, target types.Target) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	if target.ID == "" {
		return errdefs.NewValidationPath("/id", "target id is required")
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return errdefs.NewNotFound("event bus", bus)
	}
	r, ok := st.rules[rule]
	if !ok {
		return errdefs.NewNotFound("rule", rule)
	}
	for _, t := range r.Targets {
		if t.ID == target.ID {
			return errdefs.NewConflict("target %q already attached to rule %q", target.ID, rule)
		}
	}
	r.Targets = append(r.Targets, target)
	return nil
}

func (s *eventBusService) RemoveTarget(ctx context.Context, bus, rule, targetID string) error {
	if err := s.w.simulate(ctx); err != nil {
		return err
	}
	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return errdefs.NewNotFound("event bus", bus)
	}
	r, ok := st.rules[rule]
	if !ok {
		return errdefs.NewNotFound("rule", rule)
	}
	for i, t := range r.Targets {
		if t.ID == targetID {
			r.Targets = append(r.Targets[:i], r.Targets[i+1:]...)
			return nil
		}
	}
	return errdefs.NewNotFound("target", targetID)
}

// PublishEvent evaluates the event against every enabled rule on the
// bus and records one delivery per target of each matching rule.
func (s *eventBusService) PublishEvent(ctx context.Context, bus string, event types.Event) (string, error) {
	if err := s.w.simulate(ctx); err != nil {
		return "", err
	}
	if event.Source == "" {
		return "", errdefs.NewValidationPath("/source", "source is required")
	}
	if event.Type == "" {
		return "", errdefs.NewValidationPath("/type", "type is required")
	}

	s.w.mu.Lock()
	defer s.w.mu.Unlock()
	st, ok := s.w.buses[bus]
	if !ok {
		return "", errdefs.NewNotFound("event bus", bus)
	}

	if event.ID == "" {
		event.ID = s.w.nextID("event")
	}
	if event.Time.IsZero() {
		event.Time = time.Now()
	}
	for _, rule := range st.rules {
		if !rule.Enabled || !patternMatches(rule.Pattern, event) {
			continue
		}
		for _, target := range rule.Targets {
			s.w.deliveries = append(s.w.deliveries, Delivery{
				Bus:      bus,
				Rule:     rule.Name,
				TargetID: target.ID,
				EventID:  event.ID,
				Source:   event.Source,
				Type:     event.Type,
			})
			s.w.log.Debug().
				Str("bus", bus).
				Str("rule", rule.Name).
				Str("target", target.ID).
				Str("event", event.ID).
				Msg("event delivered")
		}
	}
	return event.ID, nil
}

// Deliveries returns a copy of every delivery recorded so far.
func (s *eventBusService) Deliveries() []Delivery {
	s.w.mu.RLock()
	defer s.w.mu.RUnlock()
	return append([]Delivery(nil), s.w.deliveries...)
}

// patternMatches implements the routing predicate: an empty source or
// type list matches anything, a non-empty list must contain the
// event's value, and every data key specified must equal the event's
// top-level value.
func patternMatches(p types.EventPattern, e types.Event) bool {
	if len(p.Source) > 0 && !containsString(p.Source, e.Source) {
		return false
	}
	if len(p.Type) > 0 && !containsString(p.Type, e.Type) {
		return false
	}
	for k, want := range p.Data {
		got, ok := e.Data[k]
		if !ok || !reflect.DeepEqual(got, want) {
			return false
		}
	}
	return true
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

func cloneRule(r types.Rule) types.Rule {
	r.Targets = append([]types.Target(nil), r.Targets...)
	r.Pattern.Source = append([]string(nil), r.Pattern.Source...)
	r.Pattern.Type = append([]string(nil), r.Pattern.Type...)
	if r.Pattern.Data != nil {
		data := make(map[string]interface{}, len(r.Pattern.Data))
		for k, v := range r.Pattern.Data {
			data[k] = v
		}
		r.Pattern.Data = data
	}
	return r
}
