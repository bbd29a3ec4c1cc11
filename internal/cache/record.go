package cache

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/any-hub/wheelcache/internal/wheel"
)

// newRecord 解析文件名并冻结 stat 信息；文件名非法时返回 *wheel.InvalidFilenameError。
func newRecord(path string, info os.FileInfo, origin *originLink) (*Record, error) {
	name := filepath.Base(path)
	parsed, err := wheel.ParseFilename(name)
	if err != nil {
		return nil, err
	}

	return &Record{
		FilePath:           path,
		Dir:                filepath.Dir(path),
		Filename:           name,
		Wheel:              parsed,
		NormalizedName:     parsed.CanonicalName(),
		Version:            parsed.Version,
		SizeBytes:          info.Size(),
		LastAccessedAt:     accessTime(info),
		PossibleCreationAt: info.ModTime(),
		origin:             origin,
	}, nil
}

// originLink 是单个目录 link 文件的记忆化单元：只读取一次，缺失即永久视为未知来源。
type originLink struct {
	fsys afero.Fs
	path string

	once  sync.Once
	value string
	found bool
}

func newOriginLink(fsys afero.Fs, dir string) *originLink {
	return &originLink{fsys: fsys, path: filepath.Join(dir, LinkFileName)}
}

func (l *originLink) resolve() (string, bool) {
	l.once.Do(func() {
		data, err := afero.ReadFile(l.fsys, l.path)
		if err != nil {
			return
		}
		l.value = strings.TrimSpace(string(data))
		l.found = l.value != ""
	})
	return l.value, l.found
}
