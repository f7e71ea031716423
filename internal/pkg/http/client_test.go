package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/piresc/nebengjek-dispatch/internal/pkg/circuitbreaker"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/logger"
	"github.com/piresc/nebengjek-dispatch/internal/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testUpstream() models.UpstreamConfig {
	return models.UpstreamConfig{Timeout: time.Second, MaxRetries: 2, FailureThreshold: 2, OpenTimeout: time.Minute}
}

func TestClient_GetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/quote", r.URL.Path)
		assert.Equal(t, "k", r.Header.Get("X-API-Key"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"fare": 42.5}`))
	}))
	defer srv.Close()

	c := NewClient("pricing", srv.URL, testUpstream(), logger.NewNopLogger(), nil)
	c.Headers["X-API-Key"] = "k"

	var out struct {
		Fare float64 `json:"fare"`
	}
	require.NoError(t, c.GetJSON(context.Background(), "/quote", &out))
	assert.Equal(t, 42.5, out.Fare)
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("pricing", srv.URL, testUpstream(), logger.NewNopLogger(), nil)
	var out map[string]interface{}
	require.NoError(t, c.GetJSON(context.Background(), "/", &out))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient("pricing", srv.URL, testUpstream(), logger.NewNopLogger(), nil)
	var out map[string]interface{}
	err := c.GetJSON(context.Background(), "/", &out)

	assert.ErrorIs(t, err, models.ErrInvalidRequest)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, circuitbreaker.StateClosed, c.Breaker().State())
}

func TestClient_OpensCircuit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := testUpstream()
	cfg.MaxRetries = 0
	var transitions []string
	c := NewClient("pricing", srv.URL, cfg, logger.NewNopLogger(), func(_ string, _, to circuitbreaker.State) {
		transitions = append(transitions, to.String())
	})

	var out map[string]interface{}
	for i := 0; i < 3; i++ {
		err := c.GetJSON(context.Background(), "/", &out)
		assert.ErrorIs(t, err, models.ErrUpstreamUnavailable)
	}
	assert.Equal(t, circuitbreaker.StateOpen, c.Breaker().State())
	assert.Equal(t, []string{"OPEN"}, transitions)
}
