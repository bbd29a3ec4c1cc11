package config

import (
	"os"
	"path/filepath"
	"testing"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

// clearEnv 屏蔽宿主机上可能存在的相关环境变量，t.Setenv 会在测试结束后恢复。
func clearEnv(t *testing.T) {
	t.Helper()
	for _, names := range envBindings {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	t.Setenv(EnvConfigPath, "")
}

func validConfig() *Config {
	return &Config{
		CacheDir:      "/var/cache/pip",
		LogLevel:      "info",
		LogFormat:     LogFormatText,
		ListenPort:    5000,
		RemovalPolicy: "continue",
	}
}
