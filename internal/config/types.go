package config

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/any-hub/wheelcache/internal/cache"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if seconds, err := strconv.ParseInt(raw, 10, 64); err == nil {
		*d = Duration(time.Duration(seconds) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// 日志格式。
const (
	LogFormatText = "text"
	LogFormatJSON = "json"
)

// WheelsDirName 是缓存目录下 wheel 构建缓存的子目录名。
const WheelsDirName = "wheels"

// Config 是 TOML 文件、环境变量与命令行覆盖合并后的运行参数。
type Config struct {
	CacheDir        string              `mapstructure:"CacheDir"`
	LogLevel        string              `mapstructure:"LogLevel"`
	LogFormat       string              `mapstructure:"LogFormat"`
	LogFilePath     string              `mapstructure:"LogFilePath"`
	LogMaxSize      int                 `mapstructure:"LogMaxSize"`
	LogMaxBackups   int                 `mapstructure:"LogMaxBackups"`
	LogCompress     bool                `mapstructure:"LogCompress"`
	ListenPort      int                 `mapstructure:"ListenPort"`
	ShutdownTimeout Duration            `mapstructure:"ShutdownTimeout"`
	RemovalPolicy   cache.RemovalPolicy `mapstructure:"RemovalPolicy"`
	NoInput         bool                `mapstructure:"NoInput"`

	// Source 记录实际读取的配置文件路径；未使用文件时为空。
	Source string `mapstructure:"-"`
}

// WheelDir 返回 <CacheDir>/wheels。
func (c *Config) WheelDir() string {
	return filepath.Join(c.CacheDir, WheelsDirName)
}
