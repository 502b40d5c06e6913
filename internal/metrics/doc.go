// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
包 metrics 提供基于 Prometheus 的指标采集能力，覆盖 HTTP、流水线、
缓存与异步任务四个维度。

# 概述

Collector 通过 promauto.With(reg) 注册指标，调用方可传入独立的
Registry（测试中每个用例一个），为 nil 时使用默认 Registry。
Collector 实现了 pipeline.Recorder，可直接注入流水线。

# 主要能力

  - HTTP 指标：请求总数、耗时、响应体大小，状态码归类为 2xx/3xx/4xx/5xx。
  - 流水线指标：按 modality/outcome 统计运行次数与耗时。
  - 缓存指标：按 modality 统计命中与未命中。
  - 任务指标：提交数、完成数（按状态）、耗时、重试次数、运行中任务数。
*/
package metrics
