// =============================================================================
// AssetFlow 主入口
// =============================================================================
// 服务入口点，包含 HTTP API、异步生成任务、健康检查、Prometheus 指标
//
// 使用方法:
//
//	assetflow serve                                   # 启动服务
//	assetflow serve --config config.yaml              # 指定配置文件
//	assetflow generate --prompt "a castle"            # 同步生成并输出 JSON
//	assetflow version                                 # 显示版本信息
//	assetflow health                                  # 健康检查
// =============================================================================

// @title AssetFlow API
// @version 1.0.0
// @description AssetFlow turns text and image prompts into 3D assets, textures and animation clips.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:5000
// @BasePath /
// @schemes http

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Bearer token issued by /v1/auth/login

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/assetflow/api"
	"github.com/BaSui01/assetflow/config"
	"github.com/BaSui01/assetflow/generation/cache"
	"github.com/BaSui01/assetflow/generation/pipeline"
	"github.com/BaSui01/assetflow/internal/server"
	"github.com/BaSui01/assetflow/internal/telemetry"
	"github.com/BaSui01/assetflow/internal/tlsutil"
	"github.com/BaSui01/assetflow/logger"
	"github.com/BaSui01/assetflow/types"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(os.Args[2:])
	case "generate":
		err = runGenerate(context.Background(), os.Args[2:], os.Stdout)
	case "version":
		printVersion(os.Stdout)
	case "health":
		err = runHealthCheck(os.Args[2:])
	case "help", "-h", "--help":
		printUsage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig 加载并验证配置：默认值 → YAML → ASSETFLOW_* 环境变量
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.NewLoader().
		WithConfigPath(path).
		WithValidator((*config.Config).Validate).
		Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// 🖥️ serve 命令
// =============================================================================

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	_ = fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting AssetFlow",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("git_commit", GitCommit),
	)

	ctx := context.Background()

	otelProviders, err := telemetry.Init(ctx, cfg.Telemetry, telemetry.Options{Version: Version}, log)
	if err != nil {
		log.Warn("failed to initialize telemetry", zap.Error(err))
	}

	srv, err := NewServer(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	if err := srv.Start(server.Hook{Name: "telemetry", Fn: otelProviders.Shutdown}); err != nil {
		return err
	}

	if err := srv.WaitForShutdown(ctx); err != nil {
		log.Error("shutdown finished with errors", zap.Error(err))
	}
	log.Info("AssetFlow stopped")
	return nil
}

// =============================================================================
// 🧱 generate 命令
// =============================================================================

// runGenerate 不经过任务队列，直接同步执行一次流水线并把资产以 JSON 写到 out
func runGenerate(ctx context.Context, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", "", "Path to config file")
	modality := fs.String("modality", string(pipeline.TextTo3D), "Pipeline modality")
	prompt := fs.String("prompt", "", "Generation prompt")
	width := fs.Int("width", 0, "Output width (0 = default)")
	height := fs.Int("height", 0, "Output height (0 = default)")
	format := fs.String("format", "", "Mesh format for 3D modalities")
	channels := fs.String("channels", "", "Comma separated texture channels")
	timeout := fs.Duration("timeout", 2*time.Minute, "Run timeout")
	if err := fs.Parse(args); err != nil {
		return types.NewError(types.ErrInvalidRequest, err.Error())
	}
	if strings.TrimSpace(*prompt) == "" {
		return types.NewError(types.ErrInvalidRequest, "--prompt is required")
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	m, err := pipeline.ParseModality(*modality)
	if err != nil {
		return err
	}

	var params types.Params
	if m == pipeline.TextToTexture {
		req := api.TextureRequest{Prompt: *prompt, Width: *width, Height: *height}
		if *channels != "" {
			req.Channels = strings.Split(*channels, ",")
		}
		params, err = req.Params()
	} else {
		req := api.GenerateRequest{Modality: *modality, Prompt: *prompt, Width: *width, Height: *height, Format: *format}
		params, err = req.Params()
	}
	if err != nil {
		return err
	}

	p, err := pipeline.New(m, pipeline.Deps{
		Config: cfg.Pipeline,
		Cache:  cache.NewMemoryStore(cfg.Cache.TTL, nil),
		Logger: log,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	asset, err := p.Run(ctx, *prompt, params)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(asset)
}

// =============================================================================
// 🏥 健康检查命令
// =============================================================================

func runHealthCheck(args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	addr := fs.String("addr", "http://localhost:5000", "Server address")
	_ = fs.Parse(args)

	client := tlsutil.SecureHTTPClient(5 * time.Second)
	resp, err := client.Get(strings.TrimRight(*addr, "/") + "/health")
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}

	fmt.Println("OK")
	return nil
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion(w io.Writer) {
	fmt.Fprintf(w, "AssetFlow %s\n", Version)
	fmt.Fprintf(w, "  Build Time: %s\n", BuildTime)
	fmt.Fprintf(w, "  Git Commit: %s\n", GitCommit)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `AssetFlow - 3D asset generation service

Usage:
  assetflow <command> [options]

Commands:
  serve     Start the AssetFlow server
  generate  Run one pipeline synchronously and print the asset as JSON
  version   Show version information
  health    Check server health
  help      Show this help message

Options for 'serve':
  --config <path>   Path to configuration file (YAML)

Options for 'generate':
  --config <path>       Path to configuration file (YAML)
  --modality <name>     text-to-3d | image-to-3d | text-to-voxel | text-to-texture
  --prompt <text>       Generation prompt (required)
  --width, --height     Output resolution
  --format <fmt>        glb | gltf | obj | fbx | usdz | ply
  --channels <list>     albedo,normal,roughness,metallic
  --timeout <duration>  Run timeout (default 2m)

Examples:
  assetflow serve --config /etc/assetflow/config.yaml
  assetflow generate --prompt "a castle"
  assetflow generate --modality text-to-texture --prompt "mossy stone" --channels albedo,normal
  assetflow health --addr http://localhost:5000
  assetflow version`)
}
