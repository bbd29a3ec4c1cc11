package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/any-hub/wheelcache/internal/cache"
)

// Reporter 将查询结果写到 out；颜色只用于分组标题。
type Reporter struct {
	out    io.Writer
	header *color.Color
}

// New 创建 Reporter。colorize 通常由 ColorEnabled(out) 决定。
func New(out io.Writer, colorize bool) *Reporter {
	header := color.New(color.Bold)
	if colorize {
		header.EnableColor()
	} else {
		header.DisableColor()
	}
	return &Reporter{out: out, header: header}
}

// Summary 输出一行数量与总大小。
func (r *Reporter) Summary(records []*cache.Record) error {
	_, err := fmt.Fprintf(r.out, "Found %d cached wheels for %s\n", len(records), HumanSize(cache.TotalSize(records)))
	return err
}

// Listing 按项目名分组输出，组内按版本与目录排序。
func (r *Reporter) Listing(records []*cache.Record) error {
	sorted := Sorted(records)

	var b strings.Builder
	current := ""
	for i, record := range sorted {
		if i == 0 || record.Name() != current {
			current = record.Name()
			b.WriteString(r.header.Sprint(current))
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "    - %s\n", record.Filename)
		fmt.Fprintf(&b, "      Path: %s\n", record.Dir)
		if link, ok := record.OriginLink(); ok {
			fmt.Fprintf(&b, "      Original link: %s\n", link)
		}
		fmt.Fprintf(&b, "      Size: %s - Last used: %s\n",
			HumanSize(record.SizeBytes), record.LastAccessedAt.Local().Format(TimestampLayout))
	}
	_, err := io.WriteString(r.out, b.String())
	return err
}

// DeletionPlan 在删除前列出全部目标文件。
func (r *Reporter) DeletionPlan(records []*cache.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(r.out, "No cached wheels matched.")
		return err
	}
	paths := make([]string, len(records))
	for i, record := range records {
		paths[i] = record.FilePath
	}
	_, err := fmt.Fprintf(r.out, "Deleting:\n- %s\n", strings.Join(paths, "\n- "))
	return err
}

// Outcome 报告删除批次的结果。失败明细由调用方通过错误返回。
func (r *Reporter) Outcome(result cache.EvictResult) error {
	var err error
	switch {
	case result.Declined:
		_, err = fmt.Fprintln(r.out, "No action taken.")
	case len(result.Removed) == 0 && len(result.Failed) == 0 && len(result.Skipped) == 0:
		return nil
	default:
		_, err = fmt.Fprintf(r.out, "Removed %d cached wheels (%s)\n",
			len(result.Removed), HumanSize(cache.TotalSize(result.Removed)))
	}
	return err
}

// Sorted 返回按 (项目名, 版本, 目录) 升序排列的副本，不修改输入。
func Sorted(records []*cache.Record) []*cache.Record {
	sorted := make([]*cache.Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		return lessRecord(sorted[i], sorted[j])
	})
	return sorted
}

func lessRecord(a, b *cache.Record) bool {
	if a.Name() != b.Name() {
		return a.Name() < b.Name()
	}
	if c := a.Version.Compare(b.Version); c != 0 {
		return c < 0
	}
	return a.Dir < b.Dir
}
