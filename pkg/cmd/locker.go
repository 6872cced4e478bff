package cmd

import (
	"context"
	"fmt"

	"github.com/flowlineio/flowline/pkg/locker"
)

// NewLocker creates a workflow locker. A redis:// URL selects the
// distributed locker; an empty URL falls back to in-process mutexes.
func NewLocker(ctx context.Context, redisURL string) (locker.Locker, error) {
	if redisURL == "" {
		return locker.NewMemoryLocker(), nil
	}

	l, err := locker.NewRedisLocker(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis locker: %w", err)
	}

	return l, nil
}
