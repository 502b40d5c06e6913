package handlers

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// 🏥 健康检查 Handler
// =============================================================================

// 整体状态
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// readyTimeout 单次就绪检查的总预算
const readyTimeout = 5 * time.Second

// HealthCheck 依赖探测
type HealthCheck interface {
	Name() string
	Check(ctx context.Context) error
}

// advisory 由非关键检查实现：失败只把整体状态降为 degraded，不影响就绪
type advisory interface {
	Advisory() bool
}

// HealthStatus 健康状态响应
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version,omitempty"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// CheckResult 单个检查结果，Status 为 "pass" 或 "fail"
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthHandler 提供存活、就绪与版本端点
type HealthHandler struct {
	logger *zap.Logger

	mu      sync.RWMutex
	version string
	checks  []HealthCheck
}

// NewHealthHandler 创建健康检查处理器
func NewHealthHandler(logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{logger: logger.With(zap.String("component", "health"))}
}

// SetVersion 设置健康响应中携带的版本号
func (h *HealthHandler) SetVersion(version string) {
	h.mu.Lock()
	h.version = version
	h.mu.Unlock()
}

// RegisterCheck 注册就绪检查
func (h *HealthHandler) RegisterCheck(check HealthCheck) {
	h.mu.Lock()
	h.checks = append(h.checks, check)
	h.mu.Unlock()
}

func (h *HealthHandler) snapshot() (string, []HealthCheck) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	checks := make([]HealthCheck, len(h.checks))
	copy(checks, h.checks)
	return h.version, checks
}

// HandleHealth 处理 /health 请求
// @Summary 健康检查
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务正常"
// @Router /health [get]
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	version, _ := h.snapshot()
	WriteJSON(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now().UTC(), Version: version})
}

// HandleHealthz 处理 /healthz 存活探针，只说明进程在响应
// @Summary 存活探针
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务处于活动状态"
// @Router /healthz [get]
func (h *HealthHandler) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, HealthStatus{Status: StatusHealthy, Timestamp: time.Now().UTC()})
}

// HandleReady 处理 /ready：并发执行全部检查。
// 关键检查失败返回 503；仅非关键检查失败时返回 200 + degraded。
// @Summary 就绪检查
// @Tags 健康
// @Produce json
// @Success 200 {object} HealthStatus "服务已就绪"
// @Failure 503 {object} HealthStatus "依赖不可用"
// @Router /ready [get]
func (h *HealthHandler) HandleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	version, checks := h.snapshot()
	results := make([]CheckResult, len(checks))

	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := check.Check(ctx)
			results[i] = CheckResult{Status: "pass", Latency: time.Since(start).String()}
			if err != nil {
				results[i].Status = "fail"
				results[i].Message = err.Error()
				h.logger.Warn("readiness check failed", zap.String("check", check.Name()), zap.Error(err))
			}
		}()
	}
	wg.Wait()

	status := HealthStatus{
		Status:    StatusHealthy,
		Timestamp: time.Now().UTC(),
		Version:   version,
		Checks:    make(map[string]CheckResult, len(checks)),
	}
	for i, check := range checks {
		status.Checks[check.Name()] = results[i]
		if results[i].Status == "pass" {
			continue
		}
		if a, ok := check.(advisory); ok && a.Advisory() {
			if status.Status == StatusHealthy {
				status.Status = StatusDegraded
			}
			continue
		}
		status.Status = StatusUnhealthy
	}

	code := http.StatusOK
	if status.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	WriteJSON(w, code, status)
}

// HandleVersion 处理 /version 请求
// @Summary 版本信息
// @Tags 健康
// @Produce json
// @Success 200 {object} Response "版本信息"
// @Router /version [get]
func (h *HealthHandler) HandleVersion(version, buildTime, gitCommit string) http.HandlerFunc {
	info := map[string]string{
		"version":    version,
		"build_time": buildTime,
		"git_commit": gitCommit,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		WriteSuccess(w, info)
	}
}

// =============================================================================
// 🔧 内置检查
// =============================================================================

// PingHealthCheck 通过 ping 函数探测关键依赖（如 Redis）
type PingHealthCheck struct {
	name string
	ping func(ctx context.Context) error
}

func NewPingHealthCheck(name string, ping func(ctx context.Context) error) *PingHealthCheck {
	return &PingHealthCheck{name: name, ping: ping}
}

func (c *PingHealthCheck) Name() string                    { return c.name }
func (c *PingHealthCheck) Check(ctx context.Context) error { return c.ping(ctx) }

// QueueHealthCheck 生成任务队列饱和时报告失败。属于非关键检查：
// 队列满时新任务会被 429 拒绝，但服务仍可查询任务与资产。
type QueueHealthCheck struct {
	name  string
	depth func() (queued, capacity int)
}

func NewQueueHealthCheck(name string, depth func() (queued, capacity int)) *QueueHealthCheck {
	return &QueueHealthCheck{name: name, depth: depth}
}

func (c *QueueHealthCheck) Name() string   { return c.name }
func (c *QueueHealthCheck) Advisory() bool { return true }

func (c *QueueHealthCheck) Check(context.Context) error {
	queued, capacity := c.depth()
	if capacity > 0 && queued >= capacity {
		return fmt.Errorf("queue saturated: %d/%d", queued, capacity)
	}
	return nil
}
