package schedule

import "context"

// Task is one unit of work started by the host scheduler.
type Task interface {
	Run(ctx context.Context) error
	Name() string
}
