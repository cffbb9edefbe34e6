package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRunMetrics_Observe(t *testing.T) {
	m := NewRunMetrics()

	m.ObserveStage("offices", "ok", map[string]int{"created": 3, "malformed": 1}, 2*time.Second)
	m.ObserveLink("employees.supervisor", map[string]int{"resolved": 5})
	m.ObserveGrants("Employee", 2)

	require.Equal(t, 3.0, testutil.ToFloat64(m.StageRows.WithLabelValues("offices", "created")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StageRows.WithLabelValues("offices", "malformed")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.StageStatus.WithLabelValues("offices", "ok")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.StageDuration.WithLabelValues("offices")))
	require.Equal(t, 5.0, testutil.ToFloat64(m.Links.WithLabelValues("employees.supervisor", "resolved")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.Grants.WithLabelValues("Employee")))
}

func TestRunMetrics_PushSendsRegistry(t *testing.T) {
	var path, body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		body = string(raw)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewRunMetrics()
	m.ObserveGrants("Super Admin", 1)

	require.NoError(t, m.Push(context.Background(), srv.URL, "registry_sync", "nightly"))
	require.True(t, strings.HasPrefix(path, "/metrics/job/registry_sync/instance/nightly"), path)
	require.NotEmpty(t, body)
}
