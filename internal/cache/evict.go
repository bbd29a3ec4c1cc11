package cache

import (
	"context"
	"fmt"
	"io"
	"strings"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
)

// ConfirmPrompt 是删除前的交互提示。
const ConfirmPrompt = "Proceed (yes/no)? "

// RemovalPolicy 决定单个文件删除失败后是否继续处理剩余文件。
type RemovalPolicy string

const (
	// RemovalContinue 尝试删除全部文件，最后汇总报告失败。
	RemovalContinue RemovalPolicy = "continue"
	// RemovalAbort 在第一次失败后停止，剩余文件保持原样。
	RemovalAbort RemovalPolicy = "abort"
)

// ParseRemovalPolicy 将配置值规范化为 RemovalPolicy，空值回退 continue。
func ParseRemovalPolicy(raw string) (RemovalPolicy, error) {
	switch policy := RemovalPolicy(strings.ToLower(strings.TrimSpace(raw))); policy {
	case "":
		return RemovalContinue, nil
	case RemovalContinue, RemovalAbort:
		return policy, nil
	default:
		return "", fmt.Errorf("unsupported removal policy: %s", raw)
	}
}

// Confirmer 负责向用户确认删除操作。
type Confirmer interface {
	Confirm(prompt string) (bool, error)
}

// RemovalFailure 记录单个文件删除失败的原因。
type RemovalFailure struct {
	Record *Record
	Err    error
}

// EvictResult 汇总一次删除批次的结果。
type EvictResult struct {
	Removed  []*Record
	Failed   []RemovalFailure
	Skipped  []*Record
	Declined bool
}

// RemovalError 聚合删除失败，Unwrap 暴露每个底层错误，便于 errors.Is 判断。
type RemovalError struct {
	Failures  []RemovalFailure
	Attempted int
}

func (e *RemovalError) Error() string {
	if len(e.Failures) == 0 {
		return "no removal failures"
	}
	first := e.Failures[0]
	return fmt.Sprintf("failed to remove %d of %d cached wheels (first: %v)", len(e.Failures), e.Attempted, first.Err)
}

func (e *RemovalError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, failure := range e.Failures {
		errs[i] = failure.Err
	}
	return errs
}

// Evictor 在记录审计日志并得到确认后删除命中的 wheel 文件。
// 不会清理删除后留下的空目录或 link 旁路文件。
type Evictor struct {
	store     Store
	confirmer Confirmer
	logger    logrus.FieldLogger
	policy    RemovalPolicy
	fields    func(*Record) logrus.Fields
}

// EvictorOption 调整 Evictor 的可选行为。
type EvictorOption func(*Evictor)

// WithRecordFields 替换逐文件日志的字段构造函数，默认只包含 path 与 bytes。
func WithRecordFields(fn func(*Record) logrus.Fields) EvictorOption {
	return func(e *Evictor) {
		if fn != nil {
			e.fields = fn
		}
	}
}

// NewEvictor 构造删除执行器；policy 为空时使用 RemovalContinue。
func NewEvictor(store Store, confirmer Confirmer, logger logrus.FieldLogger, policy RemovalPolicy, opts ...EvictorOption) *Evictor {
	if logger == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		logger = discard
	}
	if policy == "" {
		policy = RemovalContinue
	}
	e := &Evictor{
		store:     store,
		confirmer: confirmer,
		logger:    logger,
		policy:    policy,
		fields:    defaultRecordFields,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evict 先写出完整的待删除列表，再（可选地）请求确认，最后逐个删除。
// 用户拒绝时不会删除任何文件，Declined 为 true 且不返回错误。
func (e *Evictor) Evict(ctx context.Context, records []*Record, autoConfirm bool) (EvictResult, error) {
	var result EvictResult
	if len(records) == 0 {
		e.logger.WithField("action", "evict").Info("no cached wheels matched, nothing to remove")
		return result, nil
	}

	paths := make([]string, len(records))
	for i, record := range records {
		paths[i] = record.FilePath
	}
	e.logger.WithFields(logrus.Fields{
		"action": "evict_plan",
		"count":  len(records),
		"bytes":  TotalSize(records),
		"paths":  paths,
	}).Info("cached wheels scheduled for removal")

	if !autoConfirm {
		if e.confirmer == nil {
			return result, platformerrors.New(platformerrors.CodeInvalidInput, "removal requires confirmation; pass --yes to skip it")
		}
		ok, err := e.confirmer.Confirm(ConfirmPrompt)
		if err != nil {
			return result, platformerrors.Wrap(err, platformerrors.CodeInvalidInput, "confirmation failed")
		}
		if !ok {
			result.Declined = true
			e.logger.WithField("action", "evict").Info("removal declined, no action taken")
			return result, nil
		}
	}

	var ctxErr error
	for i, record := range records {
		if err := ctx.Err(); err != nil {
			ctxErr = err
			result.Skipped = append(result.Skipped, records[i:]...)
			break
		}
		if err := e.store.Remove(ctx, record); err != nil {
			e.logger.WithFields(e.fields(record)).
				WithField("action", "evict").
				WithError(err).Error("failed to remove cached wheel")
			result.Failed = append(result.Failed, RemovalFailure{Record: record, Err: err})
			if e.policy == RemovalAbort {
				result.Skipped = append(result.Skipped, records[i+1:]...)
				break
			}
			continue
		}
		result.Removed = append(result.Removed, record)
		e.logger.WithFields(e.fields(record)).
			WithField("action", "evict").
			Debug("cached wheel removed")
	}

	e.logger.WithFields(logrus.Fields{
		"action":  "evict_done",
		"removed": len(result.Removed),
		"failed":  len(result.Failed),
		"skipped": len(result.Skipped),
	}).Info("cached wheel removal finished")

	if ctxErr != nil {
		return result, ctxErr
	}
	if len(result.Failed) > 0 {
		attempted := len(result.Removed) + len(result.Failed)
		return result, platformerrors.Wrap(&RemovalError{Failures: result.Failed, Attempted: attempted},
			platformerrors.CodeInternal, "evict cached wheels")
	}
	return result, nil
}

func defaultRecordFields(record *Record) logrus.Fields {
	return logrus.Fields{
		"path":  record.FilePath,
		"bytes": record.SizeBytes,
	}
}
