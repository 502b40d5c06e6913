// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package types 提供 AssetFlow 的全局共享类型定义。

# 概述

types 是最底层的公共包，不依赖任何内部包，为 generation、worker、
api 等上层模块提供统一的类型契约，避免循环依赖。

# 核心类型

  - Resolution / OutputFormat — 推理分辨率与网格输出格式
  - InferParams / TextureParams — 不可变的流水线参数（值类型）
  - Artifact — 模型推理产生的原始产物，至少包含 content 字段
  - Asset    — 流水线最终产出，带 type 或 channel 判别字段
  - Error / ErrorCode — 结构化错误体系（CONFIGURATION、INVALID_STATE、
    UNSUPPORTED_MODALITY 等）

# 主要能力

  - 参数校验：Validate 在任何状态变更前拒绝非法输入
  - 缓存键：CacheKey 提供参数的规范化编码
  - Context 传播：WithTraceID / WithUserID / WithRequestID / WithJobID
  - 错误工具链：AsError / IsErrorCode / IsRetryable / GetErrorCode
*/
package types
