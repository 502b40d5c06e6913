// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package api 定义 AssetFlow HTTP API 的请求与响应结构。

# 接口概览

  - POST /v1/auth/login         — API Key 换取访问令牌
  - POST /v1/models/generate    — 提交 3D 生成任务（text-to-3d、image-to-3d、text-to-voxel）
  - POST /v1/textures/generate  — 提交纹理生成任务
  - POST /v1/animations/play    — 同步生成动画片段
  - GET  /v1/jobs/{id}          — 查询任务状态
  - GET  /v1/assets/{id}        — 获取任务产出的资产
  - GET  /health、/healthz、/ready、/version、/metrics

# 认证

启用认证后，/v1 下除登录外的接口都需要 Bearer 令牌：

	Authorization: Bearer <token>

# 默认地址

	http://localhost:5000
*/
package api
