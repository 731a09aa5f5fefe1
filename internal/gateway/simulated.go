package gateway

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"mdla-platform/internal/config"
	"mdla-platform/internal/model"

	"github.com/google/uuid"
)

// Per-method decline probability and latency band of the simulated
// processor. Bands mirror the behavior of the providers they stand in for.
var methodProfiles = map[string]struct {
	declineRate float64
	minDelay    time.Duration
	maxDelay    time.Duration
	declineMsg  string
}{
	model.MethodVisa:         {0.05, 1500 * time.Millisecond, 2000 * time.Millisecond, "card_declined"},
	model.MethodPaypal:       {0.08, 1500 * time.Millisecond, 2500 * time.Millisecond, "paypal_rejected"},
	model.MethodOrangeMoney:  {0.10, 2000 * time.Millisecond, 2500 * time.Millisecond, "insufficient_balance"},
	model.MethodBankTransfer: {0.05, 1500 * time.Millisecond, 2500 * time.Millisecond, "transfer_rejected"},
}

var defaultProfile = methodProfiles[model.MethodVisa]

// Simulated is the stand-in processor. Randomness and sleeping are
// injectable so tests can force either outcome without real timers.
type Simulated struct {
	mu         sync.Mutex
	rng        *rand.Rand
	sleep      func(ctx context.Context, d time.Duration) error
	delayScale float64
}

type SimulatedOption func(*Simulated)

// WithRand replaces the randomness source.
func WithRand(rng *rand.Rand) SimulatedOption {
	return func(s *Simulated) { s.rng = rng }
}

// WithSleep replaces the latency simulation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) SimulatedOption {
	return func(s *Simulated) { s.sleep = sleep }
}

func NewSimulated(cfg config.Gateway, opts ...SimulatedOption) *Simulated {
	s := &Simulated{
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      sleepCtx,
		delayScale: cfg.DelayScale,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Charge(ctx context.Context, method string, amount int64, metadata map[string]any) (*ChargeResult, error) {
	profile, ok := methodProfiles[method]
	if !ok {
		profile = defaultProfile
	}

	s.mu.Lock()
	jitter := s.rng.Float64()
	roll := s.rng.Float64()
	s.mu.Unlock()

	delay := profile.minDelay + time.Duration(jitter*float64(profile.maxDelay-profile.minDelay))
	delay = time.Duration(float64(delay) * s.delayScale)

	if err := s.sleep(ctx, delay); err != nil {
		return nil, err
	}

	if roll < profile.declineRate {
		return nil, &DeclineError{Reason: profile.declineMsg}
	}

	return &ChargeResult{
		TransactionID: "TXN-" + uuid.NewString(),
		Reference:     "REF-" + uuid.NewString()[:8],
	}, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
