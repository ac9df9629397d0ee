package metrics

import (
	"sync/atomic"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	ProductsCreated      uint64
	ProductsUpdated      uint64
	ProductsDeleted      uint64
	ImagesAttached       uint64
	ImageBytesTotal      int64
	ProductCacheHits     uint64
	ProductCacheMisses   uint64
	UserProductsAttached uint64
	UserProductsDetached uint64
	LoginsSucceeded      uint64
	LoginsFailed         uint64
	TokensPruned         int64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	productsCreated      uint64
	productsUpdated      uint64
	productsDeleted      uint64
	imagesAttached       uint64
	imageBytesTotal      int64
	productCacheHits     uint64
	productCacheMisses   uint64
	userProductsAttached uint64
	userProductsDetached uint64
	loginsSucceeded      uint64
	loginsFailed         uint64
	tokensPruned         int64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		ProductsCreated:      atomic.LoadUint64(&m.productsCreated),
		ProductsUpdated:      atomic.LoadUint64(&m.productsUpdated),
		ProductsDeleted:      atomic.LoadUint64(&m.productsDeleted),
		ImagesAttached:       atomic.LoadUint64(&m.imagesAttached),
		ImageBytesTotal:      atomic.LoadInt64(&m.imageBytesTotal),
		ProductCacheHits:     atomic.LoadUint64(&m.productCacheHits),
		ProductCacheMisses:   atomic.LoadUint64(&m.productCacheMisses),
		UserProductsAttached: atomic.LoadUint64(&m.userProductsAttached),
		UserProductsDetached: atomic.LoadUint64(&m.userProductsDetached),
		LoginsSucceeded:      atomic.LoadUint64(&m.loginsSucceeded),
		LoginsFailed:         atomic.LoadUint64(&m.loginsFailed),
		TokensPruned:         atomic.LoadInt64(&m.tokensPruned),
	}
}

// IncProductCreated increments created products.
func (m *InMemoryRecorder) IncProductCreated() {
	atomic.AddUint64(&m.productsCreated, 1)
}

// IncProductUpdated increments updated products.
func (m *InMemoryRecorder) IncProductUpdated() {
	atomic.AddUint64(&m.productsUpdated, 1)
}

// IncProductDeleted increments deleted products.
func (m *InMemoryRecorder) IncProductDeleted() {
	atomic.AddUint64(&m.productsDeleted, 1)
}

// IncImageAttached records an attached image and its size.
func (m *InMemoryRecorder) IncImageAttached(bytes int64) {
	atomic.AddUint64(&m.imagesAttached, 1)
	atomic.AddInt64(&m.imageBytesTotal, bytes)
}

// IncProductCacheHit increments cache hit counter.
func (m *InMemoryRecorder) IncProductCacheHit() {
	atomic.AddUint64(&m.productCacheHits, 1)
}

// IncProductCacheMiss increments cache miss counter.
func (m *InMemoryRecorder) IncProductCacheMiss() {
	atomic.AddUint64(&m.productCacheMisses, 1)
}

// IncUserProductAttached increments attached associations.
func (m *InMemoryRecorder) IncUserProductAttached() {
	atomic.AddUint64(&m.userProductsAttached, 1)
}

// IncUserProductDetached increments detached associations.
func (m *InMemoryRecorder) IncUserProductDetached() {
	atomic.AddUint64(&m.userProductsDetached, 1)
}

// IncLogin records a token request outcome.
func (m *InMemoryRecorder) IncLogin(status string) {
	switch status {
	case LoginSuccess:
		atomic.AddUint64(&m.loginsSucceeded, 1)
	default:
		atomic.AddUint64(&m.loginsFailed, 1)
	}
}

// AddTokensPruned records removed expired tokens.
func (m *InMemoryRecorder) AddTokensPruned(n int64) {
	atomic.AddInt64(&m.tokensPruned, n)
}
