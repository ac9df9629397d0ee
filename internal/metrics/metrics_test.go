package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryRecorder_Counts(t *testing.T) {
	t.Parallel()

	m := NewInMemory()
	m.IncProductCreated()
	m.IncProductCreated()
	m.IncProductUpdated()
	m.IncProductDeleted()
	m.IncImageAttached(100)
	m.IncImageAttached(50)
	m.IncProductCacheHit()
	m.IncProductCacheMiss()
	m.IncUserProductAttached()
	m.IncUserProductDetached()
	m.IncLogin(LoginSuccess)
	m.IncLogin(LoginFailed)
	m.IncLogin(LoginFailed)
	m.AddTokensPruned(4)

	snap := m.Snapshot()
	assert.Equal(t, uint64(2), snap.ProductsCreated)
	assert.Equal(t, uint64(1), snap.ProductsUpdated)
	assert.Equal(t, uint64(1), snap.ProductsDeleted)
	assert.Equal(t, uint64(2), snap.ImagesAttached)
	assert.Equal(t, int64(150), snap.ImageBytesTotal)
	assert.Equal(t, uint64(1), snap.ProductCacheHits)
	assert.Equal(t, uint64(1), snap.ProductCacheMisses)
	assert.Equal(t, uint64(1), snap.UserProductsAttached)
	assert.Equal(t, uint64(1), snap.UserProductsDetached)
	assert.Equal(t, uint64(1), snap.LoginsSucceeded)
	assert.Equal(t, uint64(2), snap.LoginsFailed)
	assert.Equal(t, int64(4), snap.TokensPruned)
}

func TestPrometheusRecorder_Counts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	r, err := NewPrometheus(reg)
	require.NoError(t, err)

	r.IncProductCreated()
	r.IncProductDeleted()
	r.IncProductDeleted()
	r.IncLogin(LoginFailed)
	r.IncUserProductAttached()
	r.AddTokensPruned(3)

	assert.Equal(t, 1.0, counterValue(t, reg, "shelf_products_total", "create"))
	assert.Equal(t, 2.0, counterValue(t, reg, "shelf_products_total", "delete"))
	assert.Equal(t, 1.0, counterValue(t, reg, "shelf_token_requests_total", LoginFailed))
	assert.Equal(t, 1.0, counterValue(t, reg, "shelf_user_products_total", "attach"))
	assert.Equal(t, 3.0, counterValue(t, reg, "shelf_access_tokens_pruned_total", ""))
}

// counterValue returns the counter with the given label value, or the
// unlabelled counter when label is empty.
func counterValue(t *testing.T, g prometheus.Gatherer, name, label string) float64 {
	t.Helper()

	families, err := g.Gather()
	require.NoError(t, err)

	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if label == "" && len(m.GetLabel()) == 0 {
				return m.GetCounter().GetValue()
			}
			for _, l := range m.GetLabel() {
				if l.GetValue() == label {
					return m.GetCounter().GetValue()
				}
			}
		}
	}

	t.Fatalf("metric %s{%s} not found", name, label)
	return 0
}

func TestNewPrometheus_DuplicateRegistration(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	_, err := NewPrometheus(reg)
	require.NoError(t, err)

	_, err = NewPrometheus(reg)
	assert.Error(t, err)
}

func TestNoopRecorder(t *testing.T) {
	t.Parallel()

	r := NewNoop()
	r.IncProductCreated()
	r.IncImageAttached(10)
	r.IncLogin(LoginSuccess)
	r.AddTokensPruned(1)
}
