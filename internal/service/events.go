package service

import (
	"context"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventMatchCompleted EventType = "match_completed"
	EventStageCompleted EventType = "stage_completed"
)

// Event is published to observers once the transaction that caused it has committed.
type Event struct {
	Type         EventType   `json:"type"`
	TournamentID uuid.UUID   `json:"tournament_id"`
	StageID      uuid.UUID   `json:"stage_id"`
	MatchID      uuid.UUID   `json:"match_id,omitempty"`
	Winners      []uuid.UUID `json:"winners,omitempty"`
}

// Observer receives match and stage events. Notify must not block for long.
type Observer interface {
	Notify(ctx context.Context, event Event)
}

type ObserverFunc func(ctx context.Context, event Event)

func (f ObserverFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

type options struct {
	observers []Observer
	rng       *lockedRand
}

type Option func(*options)

func WithObservers(observers ...Observer) Option {
	return func(o *options) {
		o.observers = append(o.observers, observers...)
	}
}

// WithRand replaces the source used to shuffle swiss pairings and unseeded teams.
func WithRand(rng *rand.Rand) Option {
	locked := &lockedRand{rng: rng}
	return func(o *options) {
		o.rng = locked
	}
}

func buildOptions(opts []Option) options {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = &lockedRand{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
	}
	return o
}

func (o options) publish(ctx context.Context, events []Event) {
	for _, e := range events {
		slog.Debug("publishing event", "type", e.Type, "stage_id", e.StageID, "match_id", e.MatchID)
		for _, obs := range o.observers {
			obs.Notify(ctx, e)
		}
	}
}

type lockedRand struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// with hands the generator to fn while holding the lock.
func (r *lockedRand) with(fn func(rng *rand.Rand) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(r.rng)
}

func (r *lockedRand) shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rng.Shuffle(n, swap)
}
