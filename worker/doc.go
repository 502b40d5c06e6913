// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package worker 在有界协程池上异步执行流水线请求。

任务状态：queued → running → succeeded | failed。每次尝试受 JobTimeout
约束，超时返回 TIMEOUT 错误；可重试错误最多重试 MaxRetries 次。任务记录
与生成的资产仅保存在内存中，超过 Retention 的已结束任务在下次提交时清理。
*/
package worker
