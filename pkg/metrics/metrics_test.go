package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_RegisterAndCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New("clinic").MustRegister(reg)

	m.AppointmentTransitions.WithLabelValues("pending", "confirmed").Inc()
	m.BookingsCreated.Inc()
	m.BookingsCreated.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.AppointmentTransitions.WithLabelValues("pending", "confirmed")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.BookingsCreated))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "clinic_bookings_created_total")
	assert.Contains(t, names, "clinic_appointment_status_transitions_total")
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		New("clinic").MustRegister(prometheus.NewRegistry())
		New("clinic").MustRegister(prometheus.NewRegistry())
	})
}
