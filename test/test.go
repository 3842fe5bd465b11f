// Package test provides integration testing infrastructure for PeakInvestigator
package test

import (
	"context"
	"time"

	"github.com/celestiaorg/peakinvestigator/internal/types"
)

// DefaultTestTimeout is the default timeout for test environments.
const DefaultTestTimeout = 30 * time.Second

// DefaultPrepInterval keeps PREP polling fast in integration tests.
const DefaultPrepInterval = 10 * time.Millisecond

// Option represents a configuration option for the test environment.
type Option func(*TestEnvironment)

// WithTimeout returns an option that sets the test environment timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(env *TestEnvironment) {
		if env.cancelFunc != nil {
			env.cancelFunc()
		}
		env.ctx, env.cancelFunc = context.WithTimeout(context.Background(), timeout)
	}
}

// WithCleanupFunc returns an option that adds a cleanup function to be
// called when the environment is cleaned up.
func WithCleanupFunc(cleanup func()) Option {
	return func(env *TestEnvironment) {
		oldCleanup := env.cleanup
		env.cleanup = func() {
			if cleanup != nil {
				cleanup()
			}
			if oldCleanup != nil {
				oldCleanup()
			}
		}
	}
}

// WithPrepPolls makes the service answer Analyzing to the first n PREP
// polls of every file.
func WithPrepPolls(n int) Option {
	return func(env *TestEnvironment) {
		env.Service.SetPrepPolls(n)
	}
}

// WithPrepTimeout bounds how long sessions wait for PREP.
func WithPrepTimeout(timeout time.Duration) Option {
	return func(env *TestEnvironment) {
		env.prepTimeout = timeout
	}
}

// WithTerms sets the tiers and versions offered by INIT.
func WithTerms(tiers []types.TierOption, versions []string) Option {
	return func(env *TestEnvironment) {
		env.Service.SetTerms(tiers, versions)
	}
}
