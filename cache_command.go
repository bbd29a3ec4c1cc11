package main

import (
	"fmt"
	"time"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/any-hub/wheelcache/internal/cache"
	"github.com/any-hub/wheelcache/internal/config"
	"github.com/any-hub/wheelcache/internal/confirm"
	"github.com/any-hub/wheelcache/internal/logging"
	"github.com/any-hub/wheelcache/internal/report"
)

// cacheOptions 对应 cache 子命令的本地标志。
type cacheOptions struct {
	all              bool
	summary          bool
	remove           bool
	yes              bool
	notAccessedSince int
}

// outputMode 是 cache 子命令最终选择的输出方式。
type outputMode int

const (
	modeSummary outputMode = iota
	modeListing
	modeRemove
)

func (m outputMode) String() string {
	switch m {
	case modeListing:
		return "list"
	case modeRemove:
		return "remove"
	default:
		return "summary"
	}
}

func newCacheCommand(root *rootOptions) *cobra.Command {
	opts := &cacheOptions{}

	cmd := &cobra.Command{
		Use:   "cache [selectors...]",
		Short: "List, summarise or remove cached wheels",
		Long: `Query the wheel cache. Selectors are PEP 508 style requirements
such as "requests", "numpy>=1.20" or "django==4.2.*"; a wheel matches when
it satisfies any selector. Prereleases only match when a selector names them.

Without flags the command prints a summary; with selectors or --all it lists
matching wheels grouped by project.`,
		Example: `  wheelcache cache
  wheelcache cache --all
  wheelcache cache "numpy<1.24" --not-accessed-since 30
  wheelcache cache --all --remove --yes`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCache(cmd, root, opts, args)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&opts.all, "all", false, "consider every cached wheel")
	flags.BoolVar(&opts.summary, "summary", false, "print only the number and total size of matching wheels")
	flags.BoolVar(&opts.remove, "remove", false, "remove matching wheels instead of listing them")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "do not ask for confirmation before removing")
	flags.IntVar(&opts.notAccessedSince, "not-accessed-since", 0, "only match wheels not accessed in the last N days")
	return cmd
}

// resolveMode 决定输出方式：--remove 优先，其次 --summary，有选择器或 --all 时列出明细。
func resolveMode(opts *cacheOptions, selectors []string) outputMode {
	switch {
	case opts.remove:
		return modeRemove
	case opts.summary:
		return modeSummary
	case opts.all || len(selectors) > 0:
		return modeListing
	default:
		return modeSummary
	}
}

func runCache(cmd *cobra.Command, root *rootOptions, opts *cacheOptions, selectors []string) error {
	if opts.all && len(selectors) > 0 {
		return platformerrors.New(platformerrors.CodeConflict, "cannot pass package selectors together with --all")
	}
	query, err := cache.NewQuery(selectors, opts.notAccessedSince, time.Now())
	if err != nil {
		return err
	}

	env, err := setup(root, config.Overrides{})
	if err != nil {
		return err
	}
	mode := resolveMode(opts, selectors)

	fields := logging.BaseFields("cache_"+mode.String(), env.cfg.Source)
	fields["root"] = env.store.Root()
	fields["selectors"] = selectors
	fields["not_accessed_since_days"] = opts.notAccessedSince
	logger := env.logger.WithFields(fields)

	inv, err := env.store.Scan(cmd.Context())
	if err != nil {
		return platformerrors.Wrap(err, platformerrors.CodeInternal, "scan wheel cache")
	}
	matched := query.Filter(inv.Records)
	logger.WithFields(logrus.Fields{
		"scanned": len(inv.Records),
		"invalid": len(inv.Invalid),
		"matched": len(matched),
	}).Debug("wheel cache scanned")

	reporter := report.New(stdOut, report.ColorEnabled(stdOut))
	switch mode {
	case modeListing:
		if len(matched) == 0 {
			_, err := fmt.Fprintln(stdOut, "No cached wheels matched.")
			return err
		}
		return reporter.Listing(matched)
	case modeRemove:
		return removeWheels(cmd, env, logger, reporter, matched, opts.yes)
	default:
		return reporter.Summary(matched)
	}
}

func removeWheels(cmd *cobra.Command, env *environment, logger logrus.FieldLogger, reporter *report.Reporter, matched []*cache.Record, autoConfirm bool) error {
	matched = report.Sorted(matched)
	if err := reporter.DeletionPlan(matched); err != nil {
		return err
	}
	if len(matched) == 0 {
		return nil
	}

	prompter := confirm.New(stdIn, stdOut, env.cfg.NoInput)
	evictor := cache.NewEvictor(env.store, prompter, logger, env.cfg.RemovalPolicy,
		cache.WithRecordFields(logging.RecordFields))
	result, err := evictor.Evict(cmd.Context(), matched, autoConfirm)
	for _, failure := range result.Failed {
		fmt.Fprintf(stdErr, "ERROR: failed to remove %s: %v\n", failure.Record.FilePath, failure.Err)
	}
	if outErr := reporter.Outcome(result); outErr != nil && err == nil {
		err = outErr
	}
	return err
}
