// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
Package pipeline 将模型与构建器组合为同步的资产生成流水线。

# 运行流程

	缓存查询 → 训练（仅未训练时）→ 推理 → 构建 → 缓存写入（尽力而为）

缓存命中直接返回副本；缓存写入失败只记录告警，不影响结果。模型与构建器
返回的错误原样向上传递，流水线内部不重试。同一流水线上相同 key 的并发
请求通过 singleflight 合并，只执行一次推理。

# 模态

  - text-to-3d：Diffusion 模型 + Mesh 构建器
  - image-to-3d：NeRF 模型 + NeRF 构建器
  - text-to-voxel：Transformer 模型 + Voxel 构建器
  - text-to-texture：基础纹理 + PBR 通道贴图

Registry 为每个模态维护一个长期存在的流水线实例。
*/
package pipeline
