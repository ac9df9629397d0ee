// Package metrics provides lightweight hooks for instrumentation.
package metrics

// Login outcomes reported to IncLogin.
const (
	LoginSuccess = "success"
	LoginFailed  = "failed"
)

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Product catalogue metrics
	IncProductCreated()
	IncProductUpdated()
	IncProductDeleted()
	IncImageAttached(bytes int64)

	// Product cache metrics
	IncProductCacheHit()
	IncProductCacheMiss()

	// Collection metrics
	IncUserProductAttached()
	IncUserProductDetached()

	// Authentication metrics
	IncLogin(status string) // status: "success" or "failed"
	AddTokensPruned(n int64)
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
