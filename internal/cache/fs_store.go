package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/any-hub/wheelcache/internal/wheel"
)

// StoreOption 调整 fileStore 的可选行为。
type StoreOption func(*fileStore)

// WithInvalidNameLevel 设置文件名无法解析时的日志级别，默认 Warn。
// 周期性扫描（例如指标抓取）可以降为 Debug，避免每次重复告警。
func WithInvalidNameLevel(level logrus.Level) StoreOption {
	return func(s *fileStore) {
		s.invalidLevel = level
	}
}

// NewStore 以 root（通常为 <cache_dir>/wheels）构建缓存视图。root 不存在并不算错误，
// 缓存可能只是尚未被写入过。
func NewStore(fsys afero.Fs, root string, logger logrus.FieldLogger, opts ...StoreOption) (Store, error) {
	if fsys == nil {
		return nil, errors.New("filesystem required")
	}
	if strings.TrimSpace(root) == "" {
		return nil, errors.New("cache root required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}

	store := &fileStore{
		fsys:         fsys,
		root:         abs,
		logger:       logger,
		invalidLevel: logrus.WarnLevel,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store, nil
}

// fileStore 基于 afero.Fs 访问磁盘，测试可替换为内存文件系统。
type fileStore struct {
	fsys         afero.Fs
	root         string
	logger       logrus.FieldLogger
	invalidLevel logrus.Level
}

func (s *fileStore) Root() string {
	return s.root
}

func (s *fileStore) Scan(ctx context.Context) (*Inventory, error) {
	inv := &Inventory{Root: s.root}
	origins := make(map[string]*originLink)

	walkRoot, err := s.resolveRoot()
	if err != nil {
		return nil, fmt.Errorf("resolve cache root: %w", err)
	}

	err = afero.Walk(s.fsys, walkRoot, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		// 记录路径始终挂在 s.root 下，即便 root 本身是符号链接。
		if walkRoot != s.root {
			if rel, relErr := filepath.Rel(walkRoot, path); relErr == nil {
				path = filepath.Join(s.root, rel)
			}
		}
		if walkErr != nil {
			if errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			s.logger.WithFields(logrus.Fields{
				"action": "scan",
				"path":   path,
			}).WithError(walkErr).Warn("skip unreadable cache path")
			return nil
		}
		if info.IsDir() || !strings.HasSuffix(info.Name(), wheel.Extension) {
			return nil
		}
		if info.Mode()&os.ModeSymlink != 0 {
			target, statErr := s.fsys.Stat(path)
			if statErr != nil {
				s.logger.WithFields(logrus.Fields{
					"action": "scan",
					"path":   path,
				}).WithError(statErr).Debug("skip dangling wheel symlink")
				return nil
			}
			info = target
		}
		if !info.Mode().IsRegular() {
			s.logger.WithFields(logrus.Fields{
				"action": "scan",
				"path":   path,
				"mode":   info.Mode().String(),
			}).Debug("skip non-regular cache entry")
			return nil
		}

		dir := filepath.Dir(path)
		origin, ok := origins[dir]
		if !ok {
			origin = newOriginLink(s.fsys, dir)
			origins[dir] = origin
		}

		record, err := newRecord(path, info, origin)
		if err != nil {
			s.logger.WithFields(logrus.Fields{
				"action": "scan",
				"path":   path,
			}).Logf(s.invalidLevel, "Invalid wheel name for: %s", path)
			inv.Invalid = append(inv.Invalid, InvalidEntry{Path: path, Err: err})
			return nil
		}
		inv.Records = append(inv.Records, record)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"action":  "scan",
		"root":    s.root,
		"wheels":  len(inv.Records),
		"invalid": len(inv.Invalid),
	}).Debug("cache scan finished")
	return inv, nil
}

// maxRootLinks 限制解析 root 符号链接的层数，防止环形链接。
const maxRootLinks = 40

// resolveRoot 跟随 root 自身的符号链接（Walk 只会 lstat 起点）。root 不存在时原样返回，
// 由 Walk 按空缓存处理；文件系统不支持 lstat 时同样原样返回。
func (s *fileStore) resolveRoot() (string, error) {
	lstater, ok := s.fsys.(afero.Lstater)
	if !ok {
		return s.root, nil
	}
	reader, canRead := s.fsys.(afero.LinkReader)

	current := s.root
	for i := 0; i < maxRootLinks; i++ {
		info, lstatted, err := lstater.LstatIfPossible(current)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return current, nil
			}
			return "", err
		}
		if !lstatted || info.Mode()&os.ModeSymlink == 0 || !canRead {
			return current, nil
		}
		target, err := reader.ReadlinkIfPossible(current)
		if err != nil {
			return "", err
		}
		if !filepath.IsAbs(target) {
			target = filepath.Join(filepath.Dir(current), target)
		}
		current = filepath.Clean(target)
	}
	return "", fmt.Errorf("too many levels of symbolic links: %s", s.root)
}

func (s *fileStore) Add(ctx context.Context, link, filename string, body io.Reader) (*Record, error) {
	if strings.TrimSpace(link) == "" {
		return nil, platformerrors.New(platformerrors.CodeInvalidInput, "origin link required")
	}
	if filepath.Base(filename) != filename {
		return nil, platformerrors.Newf(platformerrors.CodeInvalidInput, "wheel filename must not contain a path: %s", filename)
	}
	if _, err := wheel.ParseFilename(filename); err != nil {
		return nil, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "refuse to cache wheel")
	}

	dir := s.originDir(link)
	if err := s.fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	if err := s.writeLink(dir, link); err != nil {
		return nil, err
	}

	target := filepath.Join(dir, filename)
	if err := s.writeAtomic(ctx, target, body); err != nil {
		return nil, err
	}

	info, err := s.fsys.Stat(target)
	if err != nil {
		return nil, err
	}
	return newRecord(target, info, newOriginLink(s.fsys, dir))
}

func (s *fileStore) Remove(ctx context.Context, record *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record == nil {
		return errors.New("record required")
	}
	if record.evicted {
		return ErrStaleRecord
	}
	if !withinRoot(s.root, record.FilePath) {
		return fmt.Errorf("%w: %s", ErrOutsideRoot, record.FilePath)
	}
	if err := s.fsys.Remove(record.FilePath); err != nil {
		return err
	}
	record.evicted = true
	return nil
}

// originDir 复刻安装器缓存的目录切分：sha224 摘要按 2/2/2/余下 拆成四级目录，避免单目录过大。
func (s *fileStore) originDir(link string) string {
	sum := sha256.Sum224([]byte(link))
	hashed := hex.EncodeToString(sum[:])
	return filepath.Join(s.root, hashed[:2], hashed[2:4], hashed[4:6], hashed[6:])
}

// writeLink 仅在旁路文件不存在时写入，已有内容以首次写入为准。
func (s *fileStore) writeLink(dir, link string) error {
	path := filepath.Join(dir, LinkFileName)
	exists, err := afero.Exists(s.fsys, path)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.writeAtomic(context.Background(), path, strings.NewReader(link))
}

func (s *fileStore) writeAtomic(ctx context.Context, target string, body io.Reader) error {
	tempFile, err := afero.TempFile(s.fsys, filepath.Dir(target), ".cache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, body)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		s.fsys.Remove(tempName)
		return err
	}

	if err := s.fsys.Rename(tempName, target); err != nil {
		s.fsys.Remove(tempName)
		return err
	}
	return nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
