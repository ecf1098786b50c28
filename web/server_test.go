package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"local-guide/config"
	"local-guide/guide"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, load bool) (*Server, *guide.Service) {
	t.Helper()
	cfg := config.Default()
	cfg.DocumentPath = "../data/product.md"
	cfg.RateLimitRequestsPerMin = 600
	cfg.RateLimitBurstSize = 100

	svc, err := guide.New(cfg, zap.NewNop())
	require.NoError(t, err)
	if load {
		require.NoError(t, svc.ReloadFile(context.Background(), cfg.DocumentPath))
	}
	srv, err := NewServer(svc, zap.NewNop(), cfg)
	require.NoError(t, err)
	return srv, svc
}

func do(t *testing.T, srv *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if strings.HasPrefix(body, "{") {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func TestReadinessFollowsKnowledgeBase(t *testing.T) {
	srv, _ := newTestServer(t, false)

	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, srv, http.MethodGet, "/readyz", "").Code)

	w := do(t, srv, http.MethodPost, "/api/answer", `{"query":"vada pav price"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp guide.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, guide.NoContextMessage, resp.Message)
	assert.Nil(t, resp.Answer)

	reload := do(t, srv, http.MethodPost, "/api/reload", "")
	require.Equal(t, http.StatusOK, reload.Code, reload.Body.String())
	assert.Equal(t, http.StatusOK, do(t, srv, http.MethodGet, "/readyz", "").Code)
}

func TestAnswerEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, true)

	w := do(t, srv, http.MethodPost, "/api/answer", `{"query":"breakfast spot","timestamp":"07:00"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-RateLimit-Limit"))

	var resp guide.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Answer)
	assert.True(t, strings.HasPrefix(*resp.Answer, "Morning (6-10 AM)"))
	assert.Equal(t, w.Header().Get("X-Request-ID"), resp.RequestID)
	assert.True(t, resp.MeetsThreshold)
}

func TestAnswerEndpointRejectsBadInput(t *testing.T) {
	srv, _ := newTestServer(t, true)

	tests := []struct {
		name string
		body string
	}{
		{"not json", "vada pav"},
		{"missing query", `{"timestamp":"07:00"}`},
		{"blank query", `{"query":"   "}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodPost, "/api/answer", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "error")
		})
	}
}

func TestReloadEndpoint(t *testing.T) {
	srv, svc := newTestServer(t, true)
	before := svc.Status().Fingerprint

	bad := do(t, srv, http.MethodPost, "/api/reload", "plain text with no structure")
	assert.Equal(t, http.StatusUnprocessableEntity, bad.Code)
	assert.Contains(t, bad.Body.String(), "City Information")
	assert.Equal(t, before, svc.Status().Fingerprint)

	doc := "# Pune\n\n## City Information\n- **City Name:** Pune\n\n## Local Food\n- Misal pav at Bedekar from 8-11 AM\n"
	good := do(t, srv, http.MethodPost, "/api/reload", doc)
	require.Equal(t, http.StatusOK, good.Code, good.Body.String())

	var st guide.Status
	require.NoError(t, json.Unmarshal(good.Body.Bytes(), &st))
	assert.Equal(t, "Pune", st.City)
	assert.True(t, st.Ready)
}

func TestStatusAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, true)
	do(t, srv, http.MethodPost, "/api/answer", `{"query":"vada pav price"}`)

	st := do(t, srv, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, st.Code)
	assert.Contains(t, st.Body.String(), `"city":"Mumbai"`)

	m := do(t, srv, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, m.Code)
	assert.Contains(t, m.Body.String(), `local_guide_queries_total{outcome="answered"} 1`)
	assert.Contains(t, m.Body.String(), `local_guide_reloads_total{result="success"} 1`)
}

func TestItemEndpoints(t *testing.T) {
	empty, _ := newTestServer(t, false)
	assert.Equal(t, http.StatusServiceUnavailable, do(t, empty, http.MethodGet, "/api/items/0", "").Code)

	srv, _ := newTestServer(t, true)

	tests := []struct {
		name string
		path string
		code int
	}{
		{"known item", "/api/items/0", http.StatusOK},
		{"unknown item", "/api/items/100000", http.StatusNotFound},
		{"non-numeric id", "/api/items/abc", http.StatusBadRequest},
		{"every item", "/api/items", http.StatusOK},
		{"one category", "/api/items?category=pricing", http.StatusOK},
		{"unknown category", "/api/items?category=nightlife", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, srv, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := do(t, srv, http.MethodGet, "/api/items?category=pricing", "")
	var listed struct {
		Items []struct {
			Category string `json:"category"`
		} `json:"items"`
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
	require.NotZero(t, listed.Count)
	assert.Len(t, listed.Items, listed.Count)
	for _, it := range listed.Items {
		assert.Equal(t, "pricing", it.Category)
	}
}
