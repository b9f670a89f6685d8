package common

import (
	"context"
	"errors"
	"fmt"
)

// CheckContext returns the cause of a finished ctx and nil while it is live
func CheckContext(ctx context.Context) error {
	return context.Cause(ctx)
}

// HandleContextError wraps the cause of a finished ctx with the name of the
// interrupted operation.
func HandleContextError(ctx context.Context, operation string) error {
	if err := CheckContext(ctx); err != nil {
		return fmt.Errorf("%s canceled: %w", operation, err)
	}
	return nil
}

// IsContextCanceled reports whether err stems from a canceled or expired context
func IsContextCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
