// Copyright (c) AssetFlow Authors.
// Licensed under the MIT License.

/*
包 server 提供 HTTP 服务器生命周期管理，支持非阻塞启动、
优雅关闭、关闭钩子与系统信号监听。

# 核心类型

  - Manager：封装 net/http.Server，提供 Start/Shutdown/WaitForShutdown。
  - Config：监听地址、读写超时、空闲超时、最大请求头与优雅关闭超时，
    可通过 ConfigFrom 由应用配置生成。
  - Hook：HTTP 服务关闭后按注册顺序执行的收尾动作（停止 worker、
    刷新遥测数据等）。
*/
package server
