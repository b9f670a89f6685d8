package service

import "context"

// EventRecorder publishes an audit record for a finished bulk operation
type EventRecorder interface {
	RecordOperation(ctx context.Context, operation string, nodes []string, err error) error
}

type noopRecorder struct{}

func (noopRecorder) RecordOperation(context.Context, string, []string, error) error { return nil }
