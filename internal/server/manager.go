package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/config"
)

// Hook 在 HTTP 服务停止接收请求后按注册顺序执行，例如排空生成任务、关闭 Redis、刷新遥测。
type Hook struct {
	Name string
	Fn   func(ctx context.Context) error
}

// Config 服务器配置
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	MaxHeaderBytes  int
	ShutdownTimeout time.Duration
}

// DefaultConfig 返回默认服务器配置
func DefaultConfig() Config {
	return Config{
		Addr:            ":5000",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    30 * time.Second,
		IdleTimeout:     120 * time.Second,
		MaxHeaderBytes:  1 << 20,
		ShutdownTimeout: 30 * time.Second,
	}
}

// ConfigFrom 由应用配置生成服务器配置，未设置的字段沿用默认值
func ConfigFrom(cfg config.ServerConfig) Config {
	out := DefaultConfig()
	if cfg.HTTPPort > 0 {
		out.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.HTTPPort))
	}
	if cfg.ReadTimeout > 0 {
		out.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		out.WriteTimeout = cfg.WriteTimeout
	}
	if cfg.ShutdownTimeout > 0 {
		out.ShutdownTimeout = cfg.ShutdownTimeout
	}
	return out
}

type state int

const (
	stateIdle state = iota
	stateServing
	stateClosed
)

// Manager 管理 API 服务的监听、优雅关闭以及关闭后的资源释放顺序
type Manager struct {
	cfg    Config
	srv    *http.Server
	logger *zap.Logger

	mu    sync.RWMutex
	state state
	ln    net.Listener
	hooks []Hook

	errCh chan error
}

// NewManager 创建服务器管理器，nil logger 使用 zap.NewNop()
func NewManager(handler http.Handler, cfg Config, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		cfg: cfg,
		srv: &http.Server{
			Addr:           cfg.Addr,
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			IdleTimeout:    cfg.IdleTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		logger: logger.With(zap.String("component", "http_server")),
		errCh:  make(chan error, 1),
	}
}

// OnShutdown 注册关闭钩子
func (m *Manager) OnShutdown(name string, fn func(ctx context.Context) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, Hook{Name: name, Fn: fn})
}

// Start 绑定端口并在后台开始服务（非阻塞）
func (m *Manager) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state {
	case stateClosed:
		return errors.New("server is closed")
	case stateServing:
		return errors.New("server already started")
	}

	ln, err := net.Listen("tcp", m.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", m.cfg.Addr, err)
	}
	m.ln = ln
	m.state = stateServing
	m.logger.Info("listening", zap.String("addr", ln.Addr().String()))

	go func() {
		err := m.srv.Serve(ln)
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return
		}
		m.logger.Error("serve failed", zap.Error(err))
		select {
		case m.errCh <- err:
		default:
		}
	}()
	return nil
}

// Shutdown 停止接收新请求并等待在途请求结束，然后依次执行钩子。
// 所有步骤共享 ShutdownTimeout 预算，错误合并返回；重复调用为空操作。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == stateClosed {
		return nil
	}
	m.state = stateClosed
	m.ln = nil

	ctx, cancel := context.WithTimeout(ctx, m.cfg.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := m.srv.Shutdown(ctx); err != nil {
		m.logger.Error("draining HTTP requests failed", zap.Error(err))
		errs = append(errs, err)
	}

	for _, h := range m.hooks {
		start := time.Now()
		err := h.Fn(ctx)
		if err != nil {
			m.logger.Error("shutdown hook failed", zap.String("hook", h.Name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", h.Name, err))
			continue
		}
		m.logger.Debug("shutdown hook done", zap.String("hook", h.Name), zap.Duration("took", time.Since(start)))
	}

	m.logger.Info("stopped")
	return errors.Join(errs...)
}

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM、ctx 结束或服务异常退出，然后优雅关闭
func (m *Manager) WaitForShutdown(ctx context.Context) error {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		m.logger.Info("received shutdown signal", zap.Stringer("signal", sig))
	case <-ctx.Done():
		m.logger.Info("shutdown requested", zap.Error(ctx.Err()))
	case err := <-m.errCh:
		m.logger.Error("server exited unexpectedly", zap.Error(err))
	}
	return m.Shutdown(context.Background())
}

// Errors 返回后台 Serve 的异常退出错误
func (m *Manager) Errors() <-chan error {
	return m.errCh
}

// Addr 返回配置的监听地址
func (m *Manager) Addr() string {
	return m.cfg.Addr
}

// ListenAddr 返回实际监听地址，未启动或已关闭时为空
func (m *Manager) ListenAddr() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.ln == nil {
		return ""
	}
	return m.ln.Addr().String()
}

// IsRunning 报告管理器是否尚未关闭
func (m *Manager) IsRunning() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state != stateClosed
}
