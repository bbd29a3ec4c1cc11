package cache

import (
	"time"

	platformerrors "github.com/jmgilman/go/errors"

	"github.com/any-hub/wheelcache/internal/pep440"
)

// Day 是 --not-accessed-since 的计量单位。
const Day = 24 * time.Hour

// Query 描述一次缓存查询：多个 Requirement 之间为 OR，与访问时间截止条件之间为 AND。
type Query struct {
	Requirements []pep440.Requirement
	// NotAccessedSince 为 0 表示不按访问时间过滤。
	NotAccessedSince time.Duration
	Now              time.Time
}

// NewQuery 解析用户给出的包选择器，并以 now 为基准计算访问时间截止点。
func NewQuery(selectors []string, notAccessedSinceDays int, now time.Time) (Query, error) {
	if notAccessedSinceDays < 0 {
		return Query{}, platformerrors.Newf(platformerrors.CodeInvalidInput,
			"--not-accessed-since expects a non-negative number of days, got %d", notAccessedSinceDays)
	}

	q := Query{
		NotAccessedSince: time.Duration(notAccessedSinceDays) * Day,
		Now:              now,
	}
	for _, selector := range selectors {
		req, err := pep440.ParseRequirement(selector)
		if err != nil {
			return Query{}, platformerrors.Wrapf(err, platformerrors.CodeInvalidInput, "invalid package selector %q", selector)
		}
		q.Requirements = append(q.Requirements, req)
	}
	return q, nil
}

// Cutoff 返回访问时间截止点；未启用时 ok 为 false。
func (q Query) Cutoff() (time.Time, bool) {
	if q.NotAccessedSince <= 0 {
		return time.Time{}, false
	}
	now := q.Now
	if now.IsZero() {
		now = time.Now()
	}
	return now.Add(-q.NotAccessedSince), true
}

// Matches 判断单个 Record 是否命中查询，只使用扫描时冻结的字段。
func (q Query) Matches(record *Record) bool {
	if record == nil || record.Stale() {
		return false
	}
	if cutoff, ok := q.Cutoff(); ok && !record.LastAccessedAt.Before(cutoff) {
		return false
	}
	if len(q.Requirements) == 0 {
		return true
	}
	for _, req := range q.Requirements {
		if req.Matches(record.NormalizedName, record.Version) {
			return true
		}
	}
	return false
}

// Filter 返回命中的 Record，保持输入顺序，不修改输入切片。
func (q Query) Filter(records []*Record) []*Record {
	matched := make([]*Record, 0, len(records))
	for _, record := range records {
		if q.Matches(record) {
			matched = append(matched, record)
		}
	}
	return matched
}
