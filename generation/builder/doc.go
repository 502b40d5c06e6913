// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

// Package builder 将模型产物（Artifact）转换为具体格式的资产：网格、神经辐射场与体素。
package builder
