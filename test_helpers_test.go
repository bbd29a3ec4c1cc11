package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/config"
)

var repoRoot string

func init() {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return
	}
	dir := filepath.Dir(file)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			repoRoot = dir
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	if repoRoot == "" {
		t.Fatal("无法定位项目根目录")
	}
	return repoRoot
}

func configFixture(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(projectRoot(t), "internal", "config", "testdata", name)
}

// isolateEnv 清空会影响配置解析的环境变量，并把缓存根目录指向临时目录。
func isolateEnv(t *testing.T) string {
	t.Helper()
	for _, name := range []string{
		config.EnvConfigPath,
		"WHEELCACHE_CACHE_DIR", "PIP_CACHE_DIR",
		"WHEELCACHE_NO_INPUT", "PIP_NO_INPUT",
		"WHEELCACHE_LOG_LEVEL", "WHEELCACHE_LOG_FORMAT",
		"WHEELCACHE_LISTEN_PORT", "WHEELCACHE_REMOVAL_POLICY",
	} {
		t.Setenv(name, "")
	}
	cacheDir := filepath.Join(t.TempDir(), "pip")
	t.Setenv("WHEELCACHE_CACHE_DIR", cacheDir)
	return cacheDir
}

// seedWheel 按缓存布局写入一个 wheel，并把访问时间回拨 age。
func seedWheel(t *testing.T, cacheDir, filename string, size int, age time.Duration) string {
	t.Helper()
	store, err := cache.NewStore(afero.NewOsFs(), filepath.Join(cacheDir, config.WheelsDirName), nil)
	if err != nil {
		t.Fatalf("创建缓存存储失败: %v", err)
	}
	record, err := store.Add(context.Background(), "https://files.example.org/"+filename, filename, bytes.NewReader(make([]byte, size)))
	if err != nil {
		t.Fatalf("写入 wheel 失败: %v", err)
	}
	if age > 0 {
		stamp := time.Now().Add(-age)
		if err := os.Chtimes(record.FilePath, stamp, stamp); err != nil {
			t.Fatalf("设置访问时间失败: %v", err)
		}
	}
	return record.FilePath
}

func fileExists(t *testing.T, path string) bool {
	t.Helper()
	_, err := os.Stat(path)
	if err == nil {
		return true
	}
	if !os.IsNotExist(err) {
		t.Fatalf("stat %s 失败: %v", path, err)
	}
	return false
}
