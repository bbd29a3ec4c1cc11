package cache

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"time"

	"github.com/any-hub/wheelcache/internal/pep440"
	"github.com/any-hub/wheelcache/internal/wheel"
)

// Store 负责 wheel 缓存的扫描、写入与删除。磁盘布局遵循安装器的构建缓存：
//
//	<cache_dir>/wheels/<h[0:2]>/<h[2:4]>/<h[4:6]>/<h[6:]>/link     # 可选，原始来源
//	<cache_dir>/wheels/<h[0:2]>/<h[2:4]>/<h[4:6]>/<h[6:]>/*.whl    # 零或多个 wheel
//
// 其中 h 为来源链接的 sha224 十六进制摘要；同一目录即同一个 origin subtree。
type Store interface {
	// Root 返回 wheels 根目录的绝对路径。
	Root() string

	// Scan 递归遍历根目录并构建 Inventory。根目录不存在时返回空结果而非错误；
	// 无法解析的文件名记入 Inventory.Invalid，不会出现在 Records 中。
	Scan(ctx context.Context) (*Inventory, error)

	// Add 按安装器的布局写入一个 wheel 以及 link 旁路文件，写入通过临时文件 + rename 完成。
	// 命令行不会调用它；它用于构造测试缓存，并固定 sha224 目录布局，保证与安装器写出的缓存一致。
	Add(ctx context.Context, link, filename string, body io.Reader) (*Record, error)

	// Remove 删除 Record 对应的文件。文件已不存在同样视为失败。
	Remove(ctx context.Context, record *Record) error
}

// LinkFileName 是 origin subtree 中记录原始来源的旁路文件名。
const LinkFileName = "link"

// Record 是扫描时为单个 wheel 文件构建的只读视图，stat 信息在构造时冻结。
type Record struct {
	FilePath       string         `json:"file_path"`
	Dir            string         `json:"dir"`
	Filename       string         `json:"filename"`
	Wheel          wheel.Filename `json:"-"`
	NormalizedName string         `json:"normalized_name"`
	Version        pep440.Version `json:"-"`
	SizeBytes      int64          `json:"size_bytes"`
	LastAccessedAt time.Time      `json:"last_accessed_at"`
	// PossibleCreationAt 取自 mtime：多数文件系统不提供真实创建时间，这里只是近似值。
	PossibleCreationAt time.Time `json:"possible_creation_at"`

	origin  *originLink
	evicted bool
}

// Name 返回用于展示的项目名（保留原始大小写）。
func (r *Record) Name() string {
	return r.Wheel.Name
}

// OriginLink 返回所在目录 link 文件记录的来源；首次访问时读取并缓存，同目录的 Record 共享结果。
func (r *Record) OriginLink() (string, bool) {
	if r.origin == nil {
		return "", false
	}
	return r.origin.resolve()
}

// Stale 表示文件已被 Evictor 删除，该 Record 不应再被使用。
func (r *Record) Stale() bool {
	return r.evicted
}

// InvalidEntry 记录扫描中被跳过的文件及原因。
type InvalidEntry struct {
	Path string
	Err  error
}

// Inventory 是一次扫描的完整结果。
type Inventory struct {
	Root    string
	Records []*Record
	Invalid []InvalidEntry
}

// Origins 返回包含至少一个有效 wheel 的 origin subtree 数量。
func (inv *Inventory) Origins() int {
	seen := make(map[string]struct{}, len(inv.Records))
	for _, record := range inv.Records {
		seen[record.Dir] = struct{}{}
	}
	return len(seen)
}

// TotalSize 汇总 Records 的字节数。
func TotalSize(records []*Record) int64 {
	var total int64
	for _, record := range records {
		total += record.SizeBytes
	}
	return total
}

// ErrStaleRecord 表示 Record 已被删除过一次。
var ErrStaleRecord = errors.New("cache record already evicted")

// ErrOutsideRoot 表示 Record 指向缓存根目录之外的路径。
var ErrOutsideRoot = errors.New("path is outside the wheel cache root")

func withinRoot(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !filepath.IsAbs(rel) && !startsWithParent(rel)
}

func startsWithParent(rel string) bool {
	return len(rel) >= 3 && rel[:3] == ".."+string(filepath.Separator)
}
