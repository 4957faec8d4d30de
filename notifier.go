package taskmate

import "context"

// Notifier pushes task change events to connected clients. Delivery is
// best-effort: errors are logged by callers and never fail the request that
// produced the change.
type Notifier interface {
	TaskCreated(ctx context.Context, task *Task) error
	TaskUpdated(ctx context.Context, task *Task) error
	TaskStatusChanged(ctx context.Context, task *Task) error
}

type noopNotifier struct{}

func (noopNotifier) TaskCreated(ctx context.Context, task *Task) error       { return nil }
func (noopNotifier) TaskUpdated(ctx context.Context, task *Task) error       { return nil }
func (noopNotifier) TaskStatusChanged(ctx context.Context, task *Task) error { return nil }

func normalizeNotifier(n Notifier) Notifier {
	if n == nil {
		return noopNotifier{}
	}
	return n
}
