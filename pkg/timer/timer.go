// Package timer measures the wall-clock duration of a unit of work.
package timer

import (
	"context"
	"time"
)

// Measure runs work once and returns its result together with the elapsed
// wall-clock time in whole milliseconds, rounded down. The error returned by
// work is passed through unchanged.
func Measure[T any](work func() (T, error)) (T, int64, error) {
	start := time.Now()
	result, err := work()
	return result, elapsedMS(start), err
}

// MeasureCtx is Measure for work that takes a context.
func MeasureCtx[T any](
	ctx context.Context,
	work func(ctx context.Context) (T, error),
) (T, int64, error) {
	start := time.Now()
	result, err := work(ctx)
	return result, elapsedMS(start), err
}

// time.Since uses the monotonic clock reading taken by time.Now.
func elapsedMS(start time.Time) int64 {
	ms := time.Since(start).Milliseconds()
	if ms < 0 {
		return 0
	}
	return ms
}
