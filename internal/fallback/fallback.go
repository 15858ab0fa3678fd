// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fallback applies an ordered list of strategies until one
// succeeds. It replaces nested recover-and-retry handling with a flat,
// independently testable chain.
package fallback

import (
	"context"
	"errors"
	"fmt"
)

// Strategy produces a value or fails, letting the next strategy run.
type Strategy[T any] struct {
	// Name identifies the strategy in errors and telemetry.
	Name string

	// Run attempts to produce the value.
	Run func(ctx context.Context) (T, error)
}

// First runs strategies in order and returns the first success along
// with the winning strategy's name. When every strategy fails the
// joined errors are returned.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	var errs []error
	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			return zero, "", err
		}
		v, err := s.Run(ctx)
		if err == nil {
			return v, s.Name, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
	}
	return zero, "", errors.Join(errs...)
}
