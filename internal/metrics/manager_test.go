package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManager_Registers(t *testing.T) {
	m, reg := NewTestManagerAndRegistry()

	m.CounterReps.Inc()
	m.CounterReps.Inc()
	m.CounterMilestones.WithLabelValues("10").Inc()
	m.GaugeCurrentReps.Set(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CounterReps))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterMilestones.WithLabelValues("10")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.GaugeCurrentReps))

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["goldenreps_test_reps_total"])
	assert.True(t, names["goldenreps_test_current_reps"])
}

func TestNewRegistry_RuntimeCollectors(t *testing.T) {
	reg := NewRegistry()
	NewManager("goldenreps", "pipeline", reg)

	families, err := reg.Gather()
	require.NoError(t, err)

	var sawGo bool
	for _, f := range families {
		if f.GetName() == "go_goroutines" {
			sawGo = true
		}
	}
	assert.True(t, sawGo)
}
