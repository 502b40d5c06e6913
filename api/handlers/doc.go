// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package handlers 提供 AssetFlow HTTP API 的请求处理器实现。

# 概述

handlers 包实现了 AssetFlow 所有 HTTP 端点的请求处理逻辑，
包括生成任务提交、任务与资产查询、动画片段、登录签发令牌、
健康检查以及统一的响应/错误处理。
所有 Handler 均遵循标准 net/http 接口，路由使用 Go 1.22 的
ServeMux 模式（如 "GET /v1/jobs/{id}"）。

# 核心类型

  - GenerationHandler — 提交 3D/纹理生成任务，查询任务与资产
  - AnimationHandler  — 同步返回动画片段
  - AuthHandler       — API Key 换取 HS256 JWT
  - TokenIssuer       — 令牌签发与校验，供认证中间件复用
  - HealthHandler     — 服务健康检查（/health, /healthz, /ready, /version）
  - Response          — 统一 JSON 响应结构（success + data + error + timestamp）
  - ErrorInfo         — 结构化错误信息，含 code、message、retryable 标记

# 主要能力

  - 统一响应格式：WriteSuccess / WriteAccepted / WriteError / WriteAnyError
  - 请求解码：DecodeRequest（Content-Type 校验 + 1 MB 限制 + 严格模式）
  - StatusFor：ErrorCode → HTTP 状态码映射（4xx/5xx）
  - 可扩展健康检查：PingHealthCheck（Redis）、QueueHealthCheck（任务队列）
*/
package handlers
