// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

// Package animation 提供角色动画播放器及其命名动作变体（Walk、Idle、Attack）。
package animation
