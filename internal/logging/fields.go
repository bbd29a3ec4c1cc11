package logging

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/wheelcache/internal/cache"
)

// BaseFields 构建 action + 配置路径 + 本次调用 ID 等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":        action,
		"configPath":    configPath,
		"invocation_id": uuid.NewString(),
	}
}

// RecordFields 提供单个缓存 wheel 的定位字段，供扫描/删除日志复用。
func RecordFields(record *cache.Record) logrus.Fields {
	fields := logrus.Fields{
		"path":    record.FilePath,
		"project": record.NormalizedName,
		"version": record.Version.String(),
		"bytes":   record.SizeBytes,
	}
	if link, ok := record.OriginLink(); ok {
		fields["origin"] = link
	}
	return fields
}
