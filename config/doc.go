// Package config 提供 AssetFlow 的配置管理功能。
//
// 配置按 默认值 → YAML 文件 → 环境变量 的顺序加载，
// 覆盖服务、流水线、缓存、任务执行、认证、日志与遥测各部分。
package config
