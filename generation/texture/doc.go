// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

// Package texture 提供基础纹理生成器及其 PBR 通道变体（Albedo、Normal、Roughness、Metallic）。
//
// 通道变体先委托基础生成器，再写入 channel 字段，保证变体的通道标注始终覆盖基础结果。
package texture
