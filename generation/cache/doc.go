// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
包 cache 提供流水线结果的时间型记忆缓存，避免对相同请求重复推理。

# 概述

TTLCache 是核心结构：条目在 now - storedAt <= ttl 时可见，过期条目在
读取时惰性删除，没有后台清理，也没有容量淘汰。时间源通过 Clock 注入，
测试中使用 FakeClock 即可确定性地验证过期行为。

# 核心接口

  - Clock：时间源抽象（SystemClock / FakeClock）。
  - TTLCache：泛型 TTL 记忆表，单把互斥锁串行化 Get/Set。
  - Store：流水线使用的上下文感知缓存接口，错误一律视为未命中。
  - MemoryStore / RedisStore / MultiLevelStore：本地、Redis、两级实现。
  - KeyFor：基于 (模态, prompt, 参数) 的 SHA-256 缓存键。

# 使用方式

	store := cache.NewMemoryStore(time.Hour, nil)
	key := cache.KeyFor("text-to-3d", prompt, params)
	asset, ok, err := store.Get(ctx, key)
*/
package cache
