package tasks

// NoopBackend is a backend that does nothing, used when no task system is configured
type NoopBackend struct{}

// NewNoopBackend creates a new no-op backend
func NewNoopBackend() Backend {
	return &NoopBackend{}
}

// Name returns the backend identifier
func (n *NoopBackend) Name() string {
	return "noop"
}

// IsEnabled always returns false for the noop backend
func (n *NoopBackend) IsEnabled() bool {
	return false
}

// CreateFollowUp drops the task
func (n *NoopBackend) CreateFollowUp(lead Lead) error {
	return nil
}

// ListFollowUps returns empty list
func (n *NoopBackend) ListFollowUps(contactID string) ([]Task, error) {
	return []Task{}, nil
}

// Register the noop backend
func init() {
	Register("noop", func() Backend { return NewNoopBackend() })
}
