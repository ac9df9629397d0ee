package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "shelf"

// PrometheusRecorder implements Recorder with Prometheus collectors.
type PrometheusRecorder struct {
	products     *prometheus.CounterVec
	imagesTotal  prometheus.Counter
	imageBytes   prometheus.Histogram
	productCache *prometheus.CounterVec
	userProducts *prometheus.CounterVec
	logins       *prometheus.CounterVec
	tokensPruned prometheus.Counter
}

// NewPrometheus creates a PrometheusRecorder and registers its collectors with reg.
func NewPrometheus(reg prometheus.Registerer) (*PrometheusRecorder, error) {
	r := &PrometheusRecorder{
		products: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_total",
			Help:      "Product mutations by operation.",
		}, []string{"operation"}),
		imagesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_images_attached_total",
			Help:      "Images attached to products.",
		}),
		imageBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "product_image_bytes",
			Help:      "Size of attached product images.",
			Buckets:   prometheus.ExponentialBuckets(16*1024, 4, 7),
		}),
		productCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "product_cache_requests_total",
			Help:      "Product cache lookups by result.",
		}, []string{"result"}),
		userProducts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "user_products_total",
			Help:      "Collection changes by operation.",
		}, []string{"operation"}),
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "token_requests_total",
			Help:      "Token requests by outcome.",
		}, []string{"status"}),
		tokensPruned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_tokens_pruned_total",
			Help:      "Expired access tokens removed.",
		}),
	}

	collectors := []prometheus.Collector{
		r.products, r.imagesTotal, r.imageBytes, r.productCache,
		r.userProducts, r.logins, r.tokensPruned,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// IncProductCreated increments created products.
func (r *PrometheusRecorder) IncProductCreated() { r.products.WithLabelValues("create").Inc() }

// IncProductUpdated increments updated products.
func (r *PrometheusRecorder) IncProductUpdated() { r.products.WithLabelValues("update").Inc() }

// IncProductDeleted increments deleted products.
func (r *PrometheusRecorder) IncProductDeleted() { r.products.WithLabelValues("delete").Inc() }

// IncImageAttached records an attached image and its size.
func (r *PrometheusRecorder) IncImageAttached(bytes int64) {
	r.imagesTotal.Inc()
	r.imageBytes.Observe(float64(bytes))
}

// IncProductCacheHit increments cache hit counter.
func (r *PrometheusRecorder) IncProductCacheHit() { r.productCache.WithLabelValues("hit").Inc() }

// IncProductCacheMiss increments cache miss counter.
func (r *PrometheusRecorder) IncProductCacheMiss() { r.productCache.WithLabelValues("miss").Inc() }

// IncUserProductAttached increments attached associations.
func (r *PrometheusRecorder) IncUserProductAttached() {
	r.userProducts.WithLabelValues("attach").Inc()
}

// IncUserProductDetached increments detached associations.
func (r *PrometheusRecorder) IncUserProductDetached() {
	r.userProducts.WithLabelValues("detach").Inc()
}

// IncLogin records a token request outcome.
func (r *PrometheusRecorder) IncLogin(status string) { r.logins.WithLabelValues(status).Inc() }

// AddTokensPruned records removed expired tokens.
func (r *PrometheusRecorder) AddTokensPruned(n int64) { r.tokensPruned.Add(float64(n)) }
