package metrics

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncProductCreated is a no-op.
func (n *NoopRecorder) IncProductCreated() {}

// IncProductUpdated is a no-op.
func (n *NoopRecorder) IncProductUpdated() {}

// IncProductDeleted is a no-op.
func (n *NoopRecorder) IncProductDeleted() {}

// IncImageAttached is a no-op.
func (n *NoopRecorder) IncImageAttached(bytes int64) {}

// IncProductCacheHit is a no-op.
func (n *NoopRecorder) IncProductCacheHit() {}

// IncProductCacheMiss is a no-op.
func (n *NoopRecorder) IncProductCacheMiss() {}

// IncUserProductAttached is a no-op.
func (n *NoopRecorder) IncUserProductAttached() {}

// IncUserProductDetached is a no-op.
func (n *NoopRecorder) IncUserProductDetached() {}

// IncLogin is a no-op.
func (n *NoopRecorder) IncLogin(status string) {}

// AddTokensPruned is a no-op.
func (n *NoopRecorder) AddTokensPruned(count int64) {}
