// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package fallback

import (
	"context"
	"errors"
	"testing"
)

func TestFirstWinnerStopsChain(t *testing.T) {
	var ran []string
	strategy := func(name string, v int, err error) Strategy[int] {
		return Strategy[int]{
			Name: name,
			Run: func(context.Context) (int, error) {
				ran = append(ran, name)
				return v, err
			},
		}
	}

	v, winner, err := First(context.Background(),
		strategy("primary", 0, errors.New("boom")),
		strategy("secondary", 7, nil),
		strategy("tertiary", 9, nil),
	)
	if err != nil {
		t.Fatalf("First error: %v", err)
	}
	if v != 7 || winner != "secondary" {
		t.Errorf("got (%d, %q), want (7, secondary)", v, winner)
	}
	if len(ran) != 2 {
		t.Errorf("ran %v, tertiary should not have run", ran)
	}
}

func TestFirstAllFailJoinsErrors(t *testing.T) {
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	_, winner, err := First(context.Background(),
		Strategy[string]{Name: "a", Run: func(context.Context) (string, error) { return "", errA }},
		Strategy[string]{Name: "b", Run: func(context.Context) (string, error) { return "", errB }},
	)
	if err == nil {
		t.Fatal("expected error when all strategies fail")
	}
	if winner != "" {
		t.Errorf("winner = %q, want empty", winner)
	}
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Errorf("joined error should wrap both causes: %v", err)
	}
}

func TestFirstContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := First(ctx,
		Strategy[int]{Name: "never", Run: func(context.Context) (int, error) {
			t.Fatal("strategy should not run after cancellation")
			return 0, nil
		}},
	)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestFirstNoStrategies(t *testing.T) {
	// errors.Join of nothing is nil; an empty chain yields the zero value
	// with no winner, which callers guard against themselves.
	v, winner, err := First[int](context.Background())
	if err != nil {
		t.Fatalf("First() error: %v", err)
	}
	if v != 0 || winner != "" {
		t.Errorf("got (%d, %q), want (0, \"\")", v, winner)
	}
}
