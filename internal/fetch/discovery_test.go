package fetch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"k8s.io/apimachinery/pkg/runtime/schema"
	testingclock "k8s.io/utils/clock/testing"
)

func podsResource() *Resource {
	return &Resource{
		GVR:        schema.GroupVersionResource{Version: "v1", Resource: "pods"},
		Kind:       "Pod",
		Namespaced: true,
	}
}

func TestDiscoveryCache_HitAndExpiry(t *testing.T) {
	clk := testingclock.NewFakeClock(time.Now())
	cache := NewDiscoveryCacheWithClock(clk)

	_, ok := cache.Get("pods")
	assert.False(t, ok)

	cache.Put("pods", podsResource())
	res, ok := cache.Get("pods")
	require.True(t, ok)
	assert.Equal(t, "pods", res.GVR.Resource)

	// still live just under the TTL
	clk.Step(discoveryTTL - time.Second)
	_, ok = cache.Get("pods")
	assert.True(t, ok)

	// expired at the TTL boundary
	clk.Step(time.Second)
	_, ok = cache.Get("pods")
	assert.False(t, ok)
}

func TestDiscoveryCache_Invalidate(t *testing.T) {
	cache := NewDiscoveryCache()
	cache.Put("pods", podsResource())
	cache.Invalidate("pods")
	_, ok := cache.Get("pods")
	assert.False(t, ok)

	// invalidating an absent entry is a no-op
	cache.Invalidate("widgets")
}
