package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/assetflow/api/handlers"
	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/worker"
)

// =============================================================================
// 🧪 测试辅助
// =============================================================================

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Server.RateLimitRPS = 1000
	cfg.Server.RateLimitBurst = 1000
	cfg.Worker.Concurrency = 2
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	s, err := NewServer(ctx, cfg, nil)
	require.NoError(t, err)

	ts := httptest.NewServer(s.Handler(ctx))
	t.Cleanup(func() {
		ts.Close()
		cancel()
		closeCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		_ = s.worker.Close(closeCtx)
		_ = s.closeRedis()
	})
	return s, ts
}

func doJSON(t *testing.T, method, url, token, body string) (*http.Response, handlers.Response) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out handlers.Response
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp, out
}

func dataField(t *testing.T, resp handlers.Response, key string) string {
	t.Helper()
	data, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	v, _ := data[key].(string)
	return v
}

// =============================================================================
// 🧪 端到端测试
// =============================================================================

func TestServer_GenerateFlow(t *testing.T) {
	s, ts := newTestServer(t, testConfig())

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/models/generate", "", `{"modality":"text-to-3d","prompt":"a castle"}`)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	jobID := dataField(t, body, "id")
	require.NotEmpty(t, jobID)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := s.worker.Wait(ctx, jobID)
	require.NoError(t, err)
	require.Equal(t, worker.StatusSucceeded, job.Status)

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/jobs/"+jobID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, string(worker.StatusSucceeded), dataField(t, body, "status"))
	assetID := dataField(t, body, "asset_id")

	resp, body = doJSON(t, http.MethodGet, ts.URL+"/v1/assets/"+assetID, "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	asset := body.Data.(map[string]any)["asset"].(map[string]any)
	assert.Equal(t, "mesh", asset["type"])
	assert.Equal(t, "text-to-3d", asset["modality"])

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/v1/jobs/missing", "", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	metricsResp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer metricsResp.Body.Close()
	raw, err := io.ReadAll(metricsResp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `assetflow_pipeline_runs_total{modality="text-to-3d",outcome="completed"} 1`)
	assert.Contains(t, string(raw), "assetflow_jobs_submitted_total")
	assert.Contains(t, string(raw), "assetflow_http_requests_total")
}

func TestServer_Routes(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK},
		{name: "healthz", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "ready", method: http.MethodGet, path: "/ready", wantStatus: http.StatusOK},
		{name: "version", method: http.MethodGet, path: "/version", wantStatus: http.StatusOK},
		{name: "texture", method: http.MethodPost, path: "/v1/textures/generate", body: `{"prompt":"mossy stone"}`, wantStatus: http.StatusAccepted},
		{name: "animation", method: http.MethodPost, path: "/v1/animations/play", body: `{"action":"attack"}`, wantStatus: http.StatusOK},
		{name: "unsupported modality", method: http.MethodPost, path: "/v1/models/generate", body: `{"modality":"text-to-sound","prompt":"x"}`, wantStatus: http.StatusUnprocessableEntity},
		{name: "wrong method", method: http.MethodGet, path: "/v1/models/generate", wantStatus: http.StatusMethodNotAllowed},
		{name: "login disabled", method: http.MethodPost, path: "/v1/auth/login", body: `{}`, wantStatus: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := doJSON(t, tt.method, ts.URL+tt.path, "", tt.body)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestServer_Auth(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.Enabled = true
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.APIKeys = []string{"key-1"}
	_, ts := newTestServer(t, cfg)

	generate := `{"modality":"image-to-3d","prompt":"a chair"}`

	resp, body := doJSON(t, http.MethodPost, ts.URL+"/v1/models/generate", "", generate)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "UNAUTHORIZED", body.Error.Code)

	resp, _ = doJSON(t, http.MethodGet, ts.URL+"/health", "", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode, "health stays public")

	resp, _ = doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "", `{"user_id":"alice","api_key":"wrong"}`)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/auth/login", "", `{"user_id":"alice","api_key":"key-1"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	token := dataField(t, body, "token")
	require.NotEmpty(t, token)

	resp, body = doJSON(t, http.MethodPost, ts.URL+"/v1/models/generate", token, generate)
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, "alice", dataField(t, body, "user_id"))
}

func TestServer_RateLimited(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateLimitRPS = 0.001
	cfg.Server.RateLimitBurst = 1
	_, ts := newTestServer(t, cfg)

	resp, _ := doJSON(t, http.MethodGet, ts.URL+"/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body := doJSON(t, http.MethodGet, ts.URL+"/health", "", "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMITED", body.Error.Code)
}

// =============================================================================
// 🧪 缓存后端选择
// =============================================================================

func TestNewCacheStore(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		store, client, err := newCacheStore(ctx, testConfig(), nil)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &cache.MemoryStore{}, store)
	})

	t.Run("redis", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = "redis"
		cfg.Redis.Addr = mr.Addr()
		store, client, err := newCacheStore(ctx, cfg, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		assert.IsType(t, &cache.RedisStore{}, store)
	})

	t.Run("multi", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = "multi"
		cfg.Redis.Addr = mr.Addr()
		store, client, err := newCacheStore(ctx, cfg, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = client.Close() })
		assert.IsType(t, &cache.MultiLevelStore{}, store)
	})

	t.Run("redis unreachable", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = "redis"
		cfg.Redis.Addr = "127.0.0.1:1"
		_, _, err := newCacheStore(ctx, cfg, nil)
		assert.Error(t, err)
	})

	t.Run("multi degrades to memory", func(t *testing.T) {
		cfg := testConfig()
		cfg.Cache.Backend = "multi"
		cfg.Redis.Addr = "127.0.0.1:1"
		store, client, err := newCacheStore(ctx, cfg, nil)
		require.NoError(t, err)
		assert.Nil(t, client)
		assert.IsType(t, &cache.MemoryStore{}, store)
	})
}

func TestServer_RedisReadiness(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig()
	cfg.Cache.Backend = "multi"
	cfg.Redis.Addr = mr.Addr()
	_, ts := newTestServer(t, cfg)

	resp, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var status handlers.HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&status))
	assert.Equal(t, "pass", status.Checks["redis"].Status)
	assert.Equal(t, "pass", status.Checks["worker_queue"].Status)

	mr.Close()
	resp2, err := http.Get(ts.URL + "/ready")
	require.NoError(t, err)
	defer resp2.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp2.StatusCode)
}

func TestServer_StartAndShutdown(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.HTTPPort = freePort(t)
	s, err := NewServer(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NoError(t, s.Start())

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/healthz", cfg.Server.HTTPPort))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, s.WaitForShutdown(ctx))

	_, err = s.worker.Submit(context.Background(), worker.Request{Modality: "text-to-3d", Prompt: "late"})
	assert.Error(t, err, "worker is closed by the shutdown hook")
}

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}
