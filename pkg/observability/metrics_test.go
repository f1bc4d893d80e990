package observability_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/dsl"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHooksRecordEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	h := m.Hooks()
	ctx := context.Background()

	h.OnPassEnd(ctx, &domain.PassEvent{Mutations: 3})
	h.OnPassEnd(ctx, &domain.PassEvent{Mutations: 1, Err: errors.New("boom")})
	h.OnHostCall(ctx, &domain.HostCallEvent{PayloadSize: 120, Duration: time.Millisecond})
	h.OnStaleDrop(ctx, &domain.StaleEvent{BoundaryID: 4, Patches: 2})
	h.OnBoundaryCreated(ctx, &domain.BoundaryEvent{Boundary: domain.Boundary{ID: domain.PageBoundary}})
	h.OnBoundaryCreated(ctx, &domain.BoundaryEvent{Boundary: domain.Boundary{ID: 1}})
	h.OnBoundaryCreated(ctx, &domain.BoundaryEvent{Boundary: domain.Boundary{ID: 2}})
	h.OnBoundaryDestroyed(ctx, &domain.BoundaryEvent{Boundary: domain.Boundary{ID: 2}})

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes.WithLabelValues("error")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.Mutations))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HostCalls.WithLabelValues("ok")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.StaleDrops))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Boundaries))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "arbor_host_call_payload_bytes")
	assert.Contains(t, names, "arbor_host_call_duration_seconds")
}

func TestMetricsWiredIntoEngine(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)
	eng := arbor.New(arbor.WithThreshold(2), arbor.WithLifecycleHooks(m.Hooks()))

	_, err := eng.Render(context.Background(), dsl.Chain("view", 4))
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Passes.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Boundaries))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.HostCalls.WithLabelValues("ok")))
}
