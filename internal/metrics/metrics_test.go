package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/snippet-vault/internal/executor"
)

type stubExecutor struct {
	res *executor.Result
	err error
}

func (s stubExecutor) Execute(context.Context, executor.Request) (*executor.Result, error) {
	return s.res, s.err
}

func TestInstrument_Outcomes(t *testing.T) {
	tests := []struct {
		name    string
		stub    stubExecutor
		outcome string
	}{
		{"ok", stubExecutor{res: &executor.Result{}}, "ok"},
		{"nonzero", stubExecutor{res: &executor.Result{Run: executor.Stage{Code: 1}}}, "nonzero_exit"},
		{"timeout", stubExecutor{res: &executor.Result{Run: executor.Stage{Code: executor.TimeoutExitCode}}}, "timeout"},
		{"unsupported", stubExecutor{err: executor.ErrUnsupportedLanguage}, "unsupported"},
		{"error", stubExecutor{err: errors.New("boom")}, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			exec := m.Instrument(tt.stub)

			_, _ = exec.Execute(context.Background(), executor.Request{Language: "python"})

			assert.Equal(t, 1.0, testutil.ToFloat64(m.ExecutionsTotal.WithLabelValues("python", tt.outcome)))
		})
	}
}

func TestObserveRequest_ExposedByHandler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/snippets", http.StatusOK, 20*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(),
		`snippet_vault_http_requests_total{method="GET",route="/api/snippets",status="200"} 1`)
}
