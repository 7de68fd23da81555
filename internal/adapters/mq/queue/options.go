package queue

// Option configures an InMemoryQueue.
type Option func(*InMemoryQueue)

// WithCapacity bounds the number of pending LOR jobs. Non-positive values
// keep the default.
func WithCapacity(capacity int) Option {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// WithName sets the component label used when the queue reports errors.
func WithName(name string) Option {
	return func(q *InMemoryQueue) {
		if name != "" {
			q.name = name
		}
	}
}
