package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.Invocation("slash", OutcomeOK)
		m.ObserveExecute("slash", time.Second)
		m.LoadError()
		m.Loaded("command", 3)
	})
}

func TestInvocationCounter(t *testing.T) {
	m := New(nil)

	m.Invocation("prefix", OutcomeThrottled)
	m.Invocation("prefix", OutcomeThrottled)
	m.Invocation("slash", OutcomeOK)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.invocations.WithLabelValues("prefix", OutcomeThrottled)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.invocations.WithLabelValues("slash", OutcomeOK)))
}

func TestHandlerExposesCooldownGauge(t *testing.T) {
	m := New(func() int { return 7 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "vaneta_cooldown_entries 7"), body)
}
