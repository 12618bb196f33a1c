package mock

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/lcplatform/platform/pkg/errdefs"
	"github.com/lcplatform/platform/pkg/provider"
)

// Extra option keys recognized by the mock provider
const (
	// OptionSeed seeds the randomness used by batch simulation so
	// tests are deterministic.
	OptionSeed = "mock.seed"

	// OptionLatencyMs injects a fixed latency per call, for benchmarks
	// and flakiness tests. Default zero.
	OptionLatencyMs = "mock.latencyMs"
)

// world is the in-memory state shared by all mock adapters built from
// one factory. Each facade gets a fresh world; nothing survives
// facade teardown and nothing is visible across facades.
type world struct {
	mu sync.RWMutex

	seqMu   sync.Mutex
	seq     map[string]int
	rng     *rand.Rand
	rngMu   sync.Mutex
	latency time.Duration
	log     zerolog.Logger

	deployments map[string]*deploymentState
	functions   map[string]*functionState
	mappings    map[string]*eventSourceMappingState
	funcURLs    map[string]*functionURLState
	jobs        map[string]*jobState
	schedules   map[string]*scheduleState
	queues      map[string]*queueState
	buses       map[string]*busState
	secrets     map[string]*secretState
	profiles    map[string]*profileState
	topics      map[string]*topicState
	collections map[string]*collectionState
	buckets     map[string]*bucketState
	tables      *relationalState
	clusters    map[string]*clusterState
	kv          map[string]*kvEntry
	repos       map[string]*repoState

	// auth is shared so tokens minted through the control plane verify
	// through the data plane of the same facade.
	auth *authService

	deliveries []Delivery
}

func newWorld(deps provider.Deps) *world {
	seed := time.Now().UnixNano()
	latency := time.Duration(0)
	if deps.Config != nil {
		if v, ok := deps.Config.Options.Extra[OptionSeed]; ok {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil {
				seed = n
			}
		}
		if v, ok := deps.Config.Options.Extra[OptionLatencyMs]; ok {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				latency = time.Duration(n) * time.Millisecond
			}
		}
	}
	w := &world{
		seq:         make(map[string]int),
		rng:         rand.New(rand.NewSource(seed)),
		latency:     latency,
		log:         deps.Logger,
		deployments: make(map[string]*deploymentState),
		functions:   make(map[string]*functionState),
		mappings:    make(map[string]*eventSourceMappingState),
		funcURLs:    make(map[string]*functionURLState),
		jobs:        make(map[string]*jobState),
		schedules:   make(map[string]*scheduleState),
		queues:      make(map[string]*queueState),
		buses:       make(map[string]*busState),
		secrets:     make(map[string]*secretState),
		profiles:    make(map[string]*profileState),
		topics:      make(map[string]*topicState),
		collections: make(map[string]*collectionState),
		buckets:     make(map[string]*bucketState),
		tables:      newRelationalState(),
		clusters:    make(map[string]*clusterState),
		kv:          make(map[string]*kvEntry),
		repos:       make(map[string]*repoState),
	}
	w.auth = newAuthService(w)
	return w
}

// nextID mints an opaque identifier of the form mock-<service>-<n>.
// Guarded by its own mutex so it is safe to call while holding w.mu.
func (w *world) nextID(service string) string {
	w.seqMu.Lock()
	defer w.seqMu.Unlock()
	w.seq[service]++
	return fmt.Sprintf("mock-%s-%d", service, w.seq[service])
}

// chance returns true with probability p using the seeded source
func (w *world) chance(p float64) bool {
	w.rngMu.Lock()
	defer w.rngMu.Unlock()
	return w.rng.Float64() < p
}

// simulate injects the configured latency, honoring the deadline
func (w *world) simulate(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errdefs.NewTimeout("call aborted").WithCause(err)
	}
	if w.latency == 0 {
		return nil
	}
	select {
	case <-time.After(w.latency):
		return nil
	case <-ctx.Done():
		return errdefs.NewTimeout("call aborted").WithCause(ctx.Err())
	}
}

// Delivery records one event delivered to one target. Exposed so
// consumers can observe routing in tests.
type Delivery struct {
	Bus      string
	Rule     string
	TargetID string
	EventID  string
	Source   string
	Type     string
}

// DeliveryRecorder is implemented by the mock event bus service and
// event publisher; type-assert the contract value to observe
// deliveries.
type DeliveryRecorder interface {
	Deliveries() []Delivery
}
