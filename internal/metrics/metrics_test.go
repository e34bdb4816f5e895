package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	m := New()
	m.ObserveOperation("vote", "ok", time.Millisecond)
	m.ObserveOperation("vote", "AlreadyVoted", time.Millisecond)
	m.ObserveOperation("vote", "ok", time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.operations.WithLabelValues("vote", "ok")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.operations.WithLabelValues("vote", "AlreadyVoted")))
}

func TestGaugesAndHandler(t *testing.T) {
	m := New()
	m.SetPhase(5)
	m.AddContributed(40)
	m.ObserveEvent("VoteCast")
	m.ObserveHTTP(http.MethodGet, "", http.StatusOK)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "ivs_phase 5"))
	assert.True(t, strings.Contains(body, `ivs_events_total{type="VoteCast"} 1`))
	assert.True(t, strings.Contains(body, `route="unmatched"`))
}

func TestNilSafe(t *testing.T) {
	var m *VotingMetrics
	m.ObserveEvent("x")
	m.SetPhase(1)
}
