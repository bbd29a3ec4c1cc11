package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/any-hub/wheelcache/internal/cache"
)

// EnvConfigPath 指定配置文件路径，优先级低于 --config。
const EnvConfigPath = "WHEELCACHE_CONFIG"

// 环境变量绑定，同一个键按顺序取第一个非空值。
var envBindings = map[string][]string{
	"CacheDir":      {"WHEELCACHE_CACHE_DIR", "PIP_CACHE_DIR"},
	"NoInput":       {"WHEELCACHE_NO_INPUT", "PIP_NO_INPUT"},
	"LogLevel":      {"WHEELCACHE_LOG_LEVEL"},
	"LogFormat":     {"WHEELCACHE_LOG_FORMAT"},
	"ListenPort":    {"WHEELCACHE_LISTEN_PORT"},
	"RemovalPolicy": {"WHEELCACHE_REMOVAL_POLICY"},
}

// Load 读取可选的 TOML 配置文件，合并环境变量与默认值并完成校验。
// path 为空时不读取任何文件。
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	if err := bindEnv(v); err != nil {
		return nil, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if filepath.Ext(path) == "" {
			v.SetConfigType("toml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	}

	var cfg Config
	hooks := mapstructure.ComposeDecodeHookFunc(durationDecodeHook(), removalPolicyDecodeHook())
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hooks)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.Source = path

	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.resolveCacheDir(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ResolvePath 按 flag > WHEELCACHE_CONFIG 的顺序决定配置文件路径。
func ResolvePath(flagValue string) string {
	if trimmed := strings.TrimSpace(flagValue); trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(os.Getenv(EnvConfigPath))
}

// DefaultCacheDir 返回平台用户缓存目录下的 pip 目录。
func DefaultCacheDir() string {
	base, err := os.UserCacheDir()
	if err != nil || base == "" {
		return filepath.Join(".cache", "pip")
	}
	return filepath.Join(base, "pip")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("CacheDir", DefaultCacheDir())
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", LogFormatText)
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("ShutdownTimeout", "5s")
	v.SetDefault("RemovalPolicy", string(cache.RemovalContinue))
	v.SetDefault("NoInput", false)
}

func bindEnv(v *viper.Viper) error {
	for key, names := range envBindings {
		args := append([]string{key}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("绑定环境变量失败: %w", err)
		}
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.ListenPort == 0 {
		c.ListenPort = 5000
	}
	if c.ShutdownTimeout.DurationValue() <= 0 {
		c.ShutdownTimeout = Duration(5 * time.Second)
	}
	if c.RemovalPolicy == "" {
		c.RemovalPolicy = cache.RemovalContinue
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	c.LogFormat = strings.ToLower(strings.TrimSpace(c.LogFormat))
	if c.LogFormat == "" {
		c.LogFormat = LogFormatText
	}
}

func (c *Config) resolveCacheDir() error {
	dir := c.CacheDir
	if dir == "~" || strings.HasPrefix(dir, "~"+string(filepath.Separator)) {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("无法解析用户目录: %w", err)
		}
		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("无法解析缓存目录: %w", err)
	}
	c.CacheDir = abs
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}

func removalPolicyDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(cache.RemovalPolicy(""))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}
		raw, ok := data.(string)
		if !ok {
			return nil, fmt.Errorf("不支持的 RemovalPolicy 类型: %T", data)
		}
		policy, err := cache.ParseRemovalPolicy(raw)
		if err != nil {
			return nil, newFieldError("RemovalPolicy", "仅支持 continue/abort")
		}
		return policy, nil
	}
}
