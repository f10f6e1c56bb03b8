package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/small-frappuccino/memebot/pkg/storage"
)

type fakeUsage struct {
	days, limit int
	err         error
}

func (f *fakeUsage) TopTemplates(_ context.Context, days, limit int) ([]storage.TemplateUsage, error) {
	f.days, f.limit = days, limit
	if f.err != nil {
		return nil, f.err
	}
	return []storage.TemplateUsage{{TemplateID: "181913649", TemplateName: "Drake Hotline Bling", Uses: 3}}, nil
}

func TestNewServerEmptyAddr(t *testing.T) {
	assert.Nil(t, NewServer("  ", Deps{}))
	var s *Server
	assert.NoError(t, s.Start())
	assert.NoError(t, s.Stop(context.Background()))
}

func TestHealthz(t *testing.T) {
	s := NewServer("127.0.0.1:0", Deps{Checks: map[string]HealthCheck{
		"storage": func(context.Context) error { return nil },
	}})
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestHealthzDegraded(t *testing.T) {
	s := NewServer("127.0.0.1:0", Deps{Checks: map[string]HealthCheck{
		"storage": func(context.Context) error { return errors.New("disk full") },
	}})
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "disk full")
}

func TestUsageEndpoint(t *testing.T) {
	usage := &fakeUsage{}
	s := NewServer("127.0.0.1:0", Deps{Usage: usage})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage?days=30&limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 30, usage.days)
	assert.Equal(t, 5, usage.limit)

	var body struct {
		Days      int                     `json:"days"`
		Templates []storage.TemplateUsage `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Templates, 1)
	assert.Equal(t, int64(3), body.Templates[0].Uses)

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, defaultUsageDays, usage.days)
	assert.Equal(t, defaultUsageLimit, usage.limit)
}

func TestUsageEndpointRejectsBadInput(t *testing.T) {
	s := NewServer("127.0.0.1:0", Deps{Usage: &fakeUsage{}})
	for _, target := range []string{"/v1/usage?days=abc", "/v1/usage?limit=0", "/v1/usage?limit=1000"} {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/usage", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	s = NewServer("127.0.0.1:0", Deps{Usage: &fakeUsage{err: errors.New("boom")}})
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/usage", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestStartStopServesMetrics(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "memebot_up 1\n")
	})
	s := NewServer("127.0.0.1:0", Deps{Metrics: metrics})
	require.NoError(t, s.Start())
	defer func() { require.NoError(t, s.Stop(context.Background())) }()

	resp, err := http.Get("http://" + s.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "memebot_up 1\n", string(data))

	resp2, err := http.Get("http://" + s.Addr() + "/v1/usage")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode, "usage route disabled without a source")
}
