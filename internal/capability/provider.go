package capability

import (
	"context"
	"iter"
)

// ProgressFunc receives download progress as a percentage in [0, 100].
// It is called synchronously on the goroutine running the download.
type ProgressFunc func(percent float64)

// Provider is the contract every concrete capability must satisfy.
// C are the creation options, A the availability-check options.
type Provider[C, A any] interface {
	// IsSupported reports whether the capability family exists at all. No I/O.
	IsSupported() bool

	// CheckAvailability reports the status for the given options.
	CheckAvailability(ctx context.Context, opts A) (Status, error)

	// Create returns a ready handle. Implementations may download missing
	// resources as a side effect.
	Create(ctx context.Context, opts C) (Handle, error)

	// Download acquires the underlying resources, calling onProgress zero or
	// more times with non-decreasing percentages. onProgress may be nil.
	Download(ctx context.Context, opts C, onProgress ProgressFunc) error
}

// Handle is a ready-to-use capability instance.
type Handle interface {
	// Invoke answers input with a single result.
	Invoke(ctx context.Context, input string) (string, error)

	// InvokeStreaming answers input as a finite sequence of text chunks. The
	// sequence is single-use. A non-nil error ends the sequence.
	InvokeStreaming(ctx context.Context, input string) iter.Seq2[string, error]

	// Close releases the instance.
	Close() error
}

// ReportProgress calls fn when it is set.
func ReportProgress(fn ProgressFunc, percent float64) {
	if fn != nil {
		fn(percent)
	}
}
