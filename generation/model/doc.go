// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package model 提供资产生成流水线使用的生成式模型后端。

# 概述

所有模型共享同一个生命周期：Train 将模型标记为已训练（单向标志，
首次成功写入生效），Infer 仅在训练之后可用，否则返回 INVALID_STATE。
变体（Diffusion、NeRF、Transformer）只在名称、内容文本与附加字段上不同。

# 核心接口

  - Model：Name / Kind / Train / Infer / IsTrained
  - New：按 Kind 分派构造，未知类型返回 UNSUPPORTED_MODALITY
  - Options：UseGPU、Debug、Logger、DatasetCheck 等显式配置
*/
package model
