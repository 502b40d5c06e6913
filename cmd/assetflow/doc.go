// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package main 提供 AssetFlow 服务端程序入口。

# 概述

cmd/assetflow 是 AssetFlow 的可执行入口，提供 HTTP API 服务、
一次性同步生成、健康检查和版本查询等子命令。配置按
默认值 → YAML → ASSETFLOW_* 环境变量 的顺序加载，日志使用 zap。

# 核心类型

  - Server          — 组装缓存、流水线注册表、任务执行器与 handlers，管理优雅关闭
  - Middleware      — HTTP 中间件函数签名 func(http.Handler) http.Handler
  - statusRecorder  — 包装 http.ResponseWriter 以捕获状态码与响应字节数

# 主要能力

  - 子命令：serve（启动服务）、generate（同步执行一次流水线并输出 JSON）、version、health
  - 中间件链：Recovery、RequestID、SecurityHeaders、OTelTracing、RequestLogger、
    Metrics、RateLimiter（基于 IP），启用认证时追加 JWTAuth
  - 缓存后端：memory、redis、multi（Redis 不可用时退化为内存）
  - /metrics 与 API 共用端口，使用独立的 Prometheus registry
  - 优雅关闭：信号监听 → 关闭 HTTP → 停止限流清理 → 排空任务 → 关闭 Redis → 关闭 telemetry
  - 构建注入：Version、BuildTime、GitCommit 通过 ldflags 设置
*/
package main
