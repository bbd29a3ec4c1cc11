//go:build !linux && !darwin

package cache

import (
	"os"
	"time"
)

// 其它平台拿不到 atime，退回 mtime。
func accessTime(info os.FileInfo) time.Time {
	return info.ModTime()
}
