// =============================================================================
// 📦 AssetFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("ASSETFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/BaSui01/assetflow/types"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 AssetFlow 的完整配置结构
type Config struct {
	// Server HTTP 服务配置
	Server ServerConfig `yaml:"server" env:"SERVER"`

	// Pipeline 生成流水线配置
	Pipeline PipelineConfig `yaml:"pipeline" env:"PIPELINE"`

	// Cache 结果缓存配置
	Cache CacheConfig `yaml:"cache" env:"CACHE"`

	// Redis 二级缓存配置
	Redis RedisConfig `yaml:"redis" env:"REDIS"`

	// Worker 异步任务配置
	Worker WorkerConfig `yaml:"worker" env:"WORKER"`

	// Auth 登录与令牌配置
	Auth AuthConfig `yaml:"auth" env:"AUTH"`

	// Log 日志配置
	Log LogConfig `yaml:"log" env:"LOG"`

	// Telemetry 遥测配置
	Telemetry TelemetryConfig `yaml:"telemetry" env:"TELEMETRY"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	// 监听主机，空表示所有网卡
	Host string `yaml:"host" env:"HOST"`
	// HTTP 端口
	HTTPPort int `yaml:"http_port" env:"HTTP_PORT"`
	// 读取超时
	ReadTimeout time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	// 写入超时
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	// 优雅关闭超时
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	// 每个 IP 的限流速率
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// 限流突发量
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// PipelineConfig 流水线配置，替代在构造函数间传递的全局调试开关
type PipelineConfig struct {
	// 是否使用 GPU
	UseGPU bool `yaml:"use_gpu" env:"USE_GPU"`
	// 是否输出调试日志
	Debug bool `yaml:"debug" env:"DEBUG"`
	// 训练使用的数据集引用
	DatasetPath string `yaml:"dataset_path" env:"DATASET_PATH"`
	// Diffusion 模型步数
	DiffusionSteps int `yaml:"diffusion_steps" env:"DIFFUSION_STEPS"`
	// 体素构建器分辨率
	VoxelResolution int `yaml:"voxel_resolution" env:"VOXEL_RESOLUTION"`
	// 构建器是否启用优化
	Optimize bool `yaml:"optimize" env:"OPTIMIZE"`
	// 纹理默认分辨率
	TextureResolution int `yaml:"texture_resolution" env:"TEXTURE_RESOLUTION"`
	// 是否生成 PBR 贴图
	PBREnabled bool `yaml:"pbr_enabled" env:"PBR_ENABLED"`
}

// CacheConfig 缓存配置
type CacheConfig struct {
	// 后端: memory, redis, multi
	Backend string `yaml:"backend" env:"BACKEND"`
	// 条目存活时间
	TTL time.Duration `yaml:"ttl" env:"TTL"`
	// Redis 键前缀
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 地址
	Addr string `yaml:"addr" env:"ADDR"`
	// 密码
	Password string `yaml:"password" env:"PASSWORD"`
	// 数据库编号
	DB int `yaml:"db" env:"DB"`
	// 连接池大小
	PoolSize int `yaml:"pool_size" env:"POOL_SIZE"`
	// 最小空闲连接
	MinIdleConns int `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	// 启用 TLS（TLS 1.2+，仅 AEAD 套件）
	TLS bool `yaml:"tls" env:"TLS"`
}

// WorkerConfig 异步任务执行配置
type WorkerConfig struct {
	// 最大并发任务数
	Concurrency int `yaml:"concurrency" env:"CONCURRENCY"`
	// 单个任务超时
	JobTimeout time.Duration `yaml:"job_timeout" env:"JOB_TIMEOUT"`
	// 可重试错误的最大重试次数
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// 任务结果保留时间
	Retention time.Duration `yaml:"retention" env:"RETENTION"`
	// 等待队列长度，队列满时拒绝提交
	QueueSize int `yaml:"queue_size" env:"QUEUE_SIZE"`
}

// AuthConfig 认证配置
type AuthConfig struct {
	// 是否启用 JWT 认证
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// HMAC 签名密钥
	Secret string `yaml:"secret" env:"SECRET"`
	// 签发者
	Issuer string `yaml:"issuer" env:"ISSUER"`
	// 令牌有效期
	TokenTTL time.Duration `yaml:"token_ttl" env:"TOKEN_TTL"`
	// 可换取令牌的 API Key 列表
	APIKeys []string `yaml:"api_keys" env:"API_KEYS"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 日志级别: debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// 输出格式: json, console
	Format string `yaml:"format" env:"FORMAT"`
	// 输出路径
	OutputPaths []string `yaml:"output_paths" env:"OUTPUT_PATHS"`
	// 服务名称，写入每条日志
	Service string `yaml:"service" env:"SERVICE"`
	// 是否启用调用者信息
	EnableCaller bool `yaml:"enable_caller" env:"ENABLE_CALLER"`
}

// TelemetryConfig 遥测配置
type TelemetryConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled" env:"ENABLED"`
	// OTLP 端点
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTLP_ENDPOINT"`
	// 服务名称
	ServiceName string `yaml:"service_name" env:"SERVICE_NAME"`
	// 采样率
	SampleRate float64 `yaml:"sample_rate" env:"SAMPLE_RATE"`
}

// =============================================================================
// 🔧 配置加载器
// =============================================================================

// Loader 按 默认值 → YAML → 环境变量 的顺序组装 Config
type Loader struct {
	path     string
	prefix   string
	lookup   func(string) (string, bool)
	validate []func(*Config) error
}

// NewLoader 使用 ASSETFLOW 前缀和进程环境变量
func NewLoader() *Loader {
	return &Loader{prefix: "ASSETFLOW", lookup: os.LookupEnv}
}

func (l *Loader) WithConfigPath(path string) *Loader {
	l.path = path
	return l
}

func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.prefix = strings.TrimSuffix(prefix, "_")
	return l
}

// WithValidator 追加一个在覆盖完成后执行的校验函数
func (l *Loader) WithValidator(v func(*Config) error) *Loader {
	l.validate = append(l.validate, v)
	return l
}

func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if err := l.overlayFile(cfg); err != nil {
		return nil, err
	}
	if err := l.overlayEnv(reflect.ValueOf(cfg).Elem(), l.prefix); err != nil {
		return nil, err
	}
	for _, v := range l.validate {
		if err := v(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// overlayFile 缺失的文件不算错误
func (l *Loader) overlayFile(cfg *Config) error {
	if l.path == "" {
		return nil
	}
	data, err := os.ReadFile(l.path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return fmt.Errorf("read %s: %w", l.path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", l.path, err)
	}
	return nil
}

// overlayEnv 沿 env 标签递归，键名形如 PREFIX_SECTION_FIELD
func (l *Loader) overlayEnv(v reflect.Value, prefix string) error {
	t := v.Type()
	for i := range v.NumField() {
		tag := t.Field(i).Tag.Get("env")
		if tag == "" || tag == "-" {
			continue
		}
		key := prefix + "_" + tag
		field := v.Field(i)

		if field.Kind() == reflect.Struct {
			if err := l.overlayEnv(field, key); err != nil {
				return err
			}
			continue
		}
		raw, ok := l.lookup(key)
		if !ok || raw == "" {
			continue
		}
		if err := setFieldValue(field, raw); err != nil {
			return types.NewConfigurationError("env %s=%q: %v", key, raw, err).WithCause(err)
		}
	}
	return nil
}

var durationType = reflect.TypeOf(time.Duration(0))

// setFieldValue 按字段类型解析环境变量值；不支持的类型返回错误
func setFieldValue(field reflect.Value, value string) error {
	if !field.CanSet() {
		return nil
	}

	switch {
	case field.Type() == durationType:
		d, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		field.SetInt(int64(d))
	case field.Kind() == reflect.String:
		field.SetString(value)
	case field.CanInt():
		i, err := strconv.ParseInt(value, 10, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetInt(i)
	case field.CanFloat():
		f, err := strconv.ParseFloat(value, field.Type().Bits())
		if err != nil {
			return err
		}
		field.SetFloat(f)
	case field.Kind() == reflect.Bool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return err
		}
		field.SetBool(b)
	case field.Kind() == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		// 逗号分隔，忽略空项
		var parts []string
		for _, p := range strings.Split(value, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		field.Set(reflect.ValueOf(parts))
	default:
		return fmt.Errorf("unsupported field type %s", field.Type())
	}
	return nil
}

// =============================================================================
// 🔍 配置校验
// =============================================================================

// Validate 汇总所有配置问题，返回一个 CONFIGURATION 错误
func (c *Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.Server.HTTPPort > 0 && c.Server.HTTPPort <= 65535, "invalid HTTP port %d", c.Server.HTTPPort)
	check(c.Server.RateLimitRPS > 0, "server.rate_limit_rps must be positive")
	check(c.Server.RateLimitBurst > 0, "server.rate_limit_burst must be positive")

	check(strings.TrimSpace(c.Pipeline.DatasetPath) != "", "pipeline.dataset_path must not be empty")
	check(c.Pipeline.DiffusionSteps > 0, "pipeline.diffusion_steps must be positive")
	check(c.Pipeline.VoxelResolution > 0, "pipeline.voxel_resolution must be positive")
	check(c.Pipeline.TextureResolution > 0, "pipeline.texture_resolution must be positive")

	switch c.Cache.Backend {
	case "memory":
	case "redis", "multi":
		check(c.Redis.Addr != "", "redis.addr is required for cache backend %q", c.Cache.Backend)
	default:
		problems = append(problems, fmt.Sprintf("unknown cache backend %q", c.Cache.Backend))
	}
	check(c.Cache.TTL > 0, "cache.ttl must be positive")

	check(c.Worker.Concurrency > 0, "worker.concurrency must be positive")
	check(c.Worker.MaxRetries >= 0, "worker.max_retries must not be negative")
	check(c.Worker.QueueSize > 0, "worker.queue_size must be positive")

	if c.Auth.Enabled {
		check(c.Auth.Secret != "", "auth.secret is required when auth is enabled")
		check(len(c.Auth.APIKeys) > 0, "auth.api_keys must not be empty when auth is enabled")
		check(c.Auth.TokenTTL > 0, "auth.token_ttl must be positive")
	}

	check(c.Telemetry.SampleRate >= 0 && c.Telemetry.SampleRate <= 1, "telemetry.sample_rate must be within [0, 1]")

	if len(problems) == 0 {
		return nil
	}
	return types.NewConfigurationError("config validation errors: %s", strings.Join(problems, "; ")).
		WithComponent("config")
}
