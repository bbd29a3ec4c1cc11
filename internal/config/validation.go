package config

import (
	"errors"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/wheelcache/internal/cache"
)

// Validate 针对语义级别做进一步校验，防止非法配置进入命令执行。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	if strings.TrimSpace(c.CacheDir) == "" {
		return newFieldError("CacheDir", "不能为空")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return newFieldError("LogLevel", "无法识别的日志级别: "+c.LogLevel)
	}
	switch c.LogFormat {
	case LogFormatText, LogFormatJSON:
	default:
		return newFieldError("LogFormat", "仅支持 text/json")
	}
	if c.LogMaxSize < 0 {
		return newFieldError("LogMaxSize", "不能为负数")
	}
	if c.LogMaxBackups < 0 {
		return newFieldError("LogMaxBackups", "不能为负数")
	}
	if c.ListenPort <= 0 || c.ListenPort > 65535 {
		return newFieldError("ListenPort", "必须在 1-65535")
	}
	if c.ShutdownTimeout.DurationValue() < 0 {
		return newFieldError("ShutdownTimeout", "不能为负数")
	}
	switch c.RemovalPolicy {
	case cache.RemovalContinue, cache.RemovalAbort:
	default:
		return newFieldError("RemovalPolicy", "仅支持 continue/abort")
	}
	return nil
}
