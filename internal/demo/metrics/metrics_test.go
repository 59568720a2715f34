package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/basejump-ai/basejump-demo/internal/demo/errkind"
)

func TestObserve(t *testing.T) {
	m := New()
	start := time.Now()
	m.Observe("create_client", start, nil)
	m.Observe("create_client", start, nil)
	m.Observe("add_client_database", start, errkind.ErrConnection.New("refused"))
	m.Observe("chat", start, errors.New("engine down"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps.WithLabelValues("create_client")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("add_client_database", "connection")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("chat", "engine")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.duration))

	err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(`
# HELP basejump_provisioning_steps_total Completed provisioning steps by operation.
# TYPE basejump_provisioning_steps_total counter
basejump_provisioning_steps_total{operation="create_client"} 2
`), "basejump_provisioning_steps_total")
	require.NoError(t, err)

	var nilMetrics *Metrics
	assert.NotPanics(t, func() { nilMetrics.Observe("x", start, nil) })
}

func TestHandler(t *testing.T) {
	m := New()
	m.Observe("create_team", time.Now(), nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `basejump_provisioning_steps_total{operation="create_team"} 1`)
}
