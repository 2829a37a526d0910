// Package authstate turns coarse "something about auth may have changed"
// signals into precise authenticated/anonymous transitions.
package authstate

import (
	"context"
	"errors"
	"sync"

	"github.com/angelmondragon/storefront/pkg/events"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
)

// SessionProber reports the current session.
type SessionProber interface {
	Session(ctx context.Context) (*types.SessionInfo, error)
}

// Tracker listens on events.TopicAuthStateChanged and publishes
// events.TopicAuthenticationChanged whenever the probed flag flips.
type Tracker struct {
	prober SessionProber
	bus    *events.Bus
	logg   *logger.Logger

	mu            sync.Mutex
	known         bool
	authenticated bool
	unsub         func()
}

func NewTracker(prober SessionProber, bus *events.Bus, logg *logger.Logger) (*Tracker, error) {
	if prober == nil {
		return nil, errors.New("session prober required")
	}
	if bus == nil {
		return nil, errors.New("event bus required")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &Tracker{prober: prober, bus: bus, logg: logg}, nil
}

// Start subscribes for later signals and records the current state as the
// baseline without publishing. When the probe fails the subscription stays
// in place with no baseline, so the next successful Check publishes.
func (t *Tracker) Start(ctx context.Context) error {
	t.mu.Lock()
	if t.unsub == nil {
		t.unsub = t.bus.Subscribe(events.TopicAuthStateChanged, func(ctx context.Context, _ any) {
			t.Check(ctx)
		})
	}
	t.mu.Unlock()

	info, err := t.prober.Session(ctx)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.known = true
	t.authenticated = info != nil && info.Authenticated
	return nil
}

func (t *Tracker) Stop() {
	t.mu.Lock()
	unsub := t.unsub
	t.unsub = nil
	t.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Authenticated returns the last probed state.
func (t *Tracker) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.authenticated
}

// Check probes the session and publishes on a flip. It reports whether a
// transition was published.
func (t *Tracker) Check(ctx context.Context) bool {
	ctx = t.logg.WithAction(ctx, "auth.check")
	info, err := t.prober.Session(ctx)
	if err != nil {
		t.logg.Warn(t.logg.WithField(ctx, "error", err.Error()), "auth.session_probe_failed")
		return false
	}
	now := info != nil && info.Authenticated

	t.mu.Lock()
	changed := !t.known || now != t.authenticated
	t.known = true
	t.authenticated = now
	t.mu.Unlock()

	if !changed {
		return false
	}
	t.logg.Info(t.logg.WithField(ctx, "authenticated", now), "auth.state_flipped")
	t.bus.Publish(ctx, events.TopicAuthenticationChanged, events.AuthenticationChanged{Authenticated: now})
	return true
}
