// Package report renders wheel cache inventories for humans: one-line
// summaries, grouped listings and the eviction plan/outcome messages.
package report

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// TimestampLayout 是 Listing 中 Last used 的时间格式（本地时区）。
const TimestampLayout = "2006-01-02 15:04:05"

var sizeUnits = [...]string{"b", "kb", "Mb", "Gb", "Tb"}

// HumanSize 以 1024 为进制渲染字节数，最多除 4 次，超出部分仍以 Tb 表示。
func HumanSize(bytes int64) string {
	value := float64(bytes)
	unit := 0
	for value >= 1024 && unit < len(sizeUnits)-1 {
		value /= 1024
		unit++
	}
	if unit == 0 {
		return fmt.Sprintf("%d%s", bytes, sizeUnits[0])
	}
	return fmt.Sprintf("%.1f%s", value, sizeUnits[unit])
}

// ColorEnabled 仅在 w 是终端时返回 true。
func ColorEnabled(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}
