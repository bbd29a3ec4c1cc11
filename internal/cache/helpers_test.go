package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/wheelcache/internal/wheel"
)

const memRoot = "/cache/wheels"

// newMemStore 返回基于内存文件系统的 Store 以及可断言日志的 hook。
func newMemStore(t *testing.T) (afero.Fs, Store, *test.Hook) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	store, err := NewStore(fsys, memRoot, logger)
	require.NoError(t, err)
	return fsys, store, hook
}

// writeFile 在 afero 文件系统中写入文件并创建父目录。
func writeFile(t *testing.T, fsys afero.Fs, path string, data string) {
	t.Helper()
	require.NoError(t, fsys.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(fsys, path, []byte(data), 0o644))
}

// writeOSWheel 在真实磁盘写入 wheel，并把 atime/mtime 设置为给定时间。
func writeOSWheel(t *testing.T, dir, name string, size int, accessed time.Time) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, make([]byte, size), 0o644))
	require.NoError(t, os.Chtimes(path, accessed, accessed))
	return path
}

// makeRecord 直接构造 Record，供纯过滤逻辑测试使用。
func makeRecord(t *testing.T, filename, dir string, accessed time.Time) *Record {
	t.Helper()
	parsed, err := wheel.ParseFilename(filename)
	require.NoError(t, err)
	return &Record{
		FilePath:           filepath.Join(dir, filename),
		Dir:                dir,
		Filename:           filename,
		Wheel:              parsed,
		NormalizedName:     parsed.CanonicalName(),
		Version:            parsed.Version,
		SizeBytes:          1,
		LastAccessedAt:     accessed,
		PossibleCreationAt: accessed,
	}
}
