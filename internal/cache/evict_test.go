package cache

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"testing"

	platformerrors "github.com/jmgilman/go/errors"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubConfirmer struct {
	answer  bool
	err     error
	prompts []string
}

func (s *stubConfirmer) Confirm(prompt string) (bool, error) {
	s.prompts = append(s.prompts, prompt)
	return s.answer, s.err
}

func seedWheels(t *testing.T, store Store, filenames ...string) []*Record {
	t.Helper()
	records := make([]*Record, 0, len(filenames))
	for _, filename := range filenames {
		record, err := store.Add(context.Background(), "https://example.com/"+filename, filename, bytes.NewReader([]byte("data")))
		require.NoError(t, err)
		records = append(records, record)
	}
	return records
}

func assertExists(t *testing.T, fsys afero.Fs, path string, want bool) {
	t.Helper()
	exists, err := afero.Exists(fsys, path)
	require.NoError(t, err)
	assert.Equal(t, want, exists, path)
}

func TestEvictDeclineKeepsFiles(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl", "foo-2.0-py3-none-any.whl")
	confirmer := &stubConfirmer{answer: false}

	result, err := NewEvictor(store, confirmer, nil, RemovalContinue).Evict(context.Background(), records, false)
	require.NoError(t, err)
	assert.True(t, result.Declined)
	assert.Empty(t, result.Removed)
	assert.Equal(t, []string{ConfirmPrompt}, confirmer.prompts)
	for _, record := range records {
		assertExists(t, fsys, record.FilePath, true)
	}
}

func TestEvictConfirmedRemovesExactlyMatched(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl", "foo-2.0-py3-none-any.whl", "bar-1.0-py3-none-any.whl")

	confirmer := &stubConfirmer{answer: true}
	evictor := NewEvictor(store, confirmer, nil, RemovalContinue)
	result, err := evictor.Evict(context.Background(), records[:2], false)
	require.NoError(t, err)
	assert.Len(t, result.Removed, 2)
	assert.Len(t, confirmer.prompts, 1)

	assertExists(t, fsys, records[0].FilePath, false)
	assertExists(t, fsys, records[1].FilePath, false)
	assertExists(t, fsys, records[2].FilePath, true)
	assert.True(t, records[0].Stale())
	assert.False(t, records[2].Stale())
}

func TestEvictAutoConfirmSkipsPrompt(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl")
	confirmer := &stubConfirmer{answer: false}

	result, err := NewEvictor(store, confirmer, nil, "").Evict(context.Background(), records, true)
	require.NoError(t, err)
	assert.Empty(t, confirmer.prompts)
	assert.Len(t, result.Removed, 1)
	assertExists(t, fsys, records[0].FilePath, false)
}

func TestEvictLogsPlanBeforeRemoving(t *testing.T) {
	_, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl", "bar-1.0-py3-none-any.whl")
	logger, hook := test.NewNullLogger()

	evictor := NewEvictor(store, nil, logger, RemovalContinue)
	_, err := evictor.Evict(context.Background(), records, true)
	require.NoError(t, err)

	entries := hook.AllEntries()
	require.NotEmpty(t, entries)
	plan := entries[0]
	assert.Equal(t, "evict_plan", plan.Data["action"])
	assert.Equal(t, []string{records[0].FilePath, records[1].FilePath}, plan.Data["paths"])
	assert.Equal(t, 2, plan.Data["count"])
	assert.Equal(t, "evict_done", hook.LastEntry().Data["action"])
}

func TestEvictRecordFieldsOption(t *testing.T) {
	_, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl")
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	fields := func(record *Record) logrus.Fields {
		return logrus.Fields{"path": record.FilePath, "project": record.NormalizedName}
	}
	_, err := NewEvictor(store, nil, logger, RemovalContinue, WithRecordFields(fields)).
		Evict(context.Background(), records, true)
	require.NoError(t, err)

	var removed *logrus.Entry
	for _, entry := range hook.AllEntries() {
		if entry.Message == "cached wheel removed" {
			removed = entry
		}
	}
	require.NotNil(t, removed)
	assert.Equal(t, "foo", removed.Data["project"])
	assert.Equal(t, "evict", removed.Data["action"])
	assert.Equal(t, records[0].FilePath, removed.Data["path"])
}

func TestEvictNothingToRemove(t *testing.T) {
	_, store, _ := newMemStore(t)
	confirmer := &stubConfirmer{answer: true}

	result, err := NewEvictor(store, confirmer, nil, RemovalContinue).Evict(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Empty(t, confirmer.prompts)
	assert.Empty(t, result.Removed)
	assert.False(t, result.Declined)
}

func TestEvictRequiresConfirmerWithoutYes(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl")

	_, err := NewEvictor(store, nil, nil, RemovalContinue).Evict(context.Background(), records, false)
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInvalidInput, platformerrors.GetCode(err))
	assertExists(t, fsys, records[0].FilePath, true)
}

func TestEvictConfirmerErrorRemovesNothing(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl")
	confirmer := &stubConfirmer{err: errors.New("stdin closed")}

	_, err := NewEvictor(store, confirmer, nil, RemovalContinue).Evict(context.Background(), records, false)
	require.Error(t, err)
	assertExists(t, fsys, records[0].FilePath, true)
}

func TestEvictContinuePolicyAttemptsAll(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "a-1.0-py3-none-any.whl", "b-1.0-py3-none-any.whl", "c-1.0-py3-none-any.whl")
	require.NoError(t, fsys.Remove(records[0].FilePath))

	result, err := NewEvictor(store, nil, nil, RemovalContinue).Evict(context.Background(), records, true)
	require.Error(t, err)
	assert.Equal(t, platformerrors.CodeInternal, platformerrors.GetCode(err))
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var removalErr *RemovalError
	require.True(t, errors.As(err, &removalErr))
	assert.Equal(t, 3, removalErr.Attempted)
	require.Len(t, removalErr.Failures, 1)
	assert.Same(t, records[0], removalErr.Failures[0].Record)

	assert.Len(t, result.Removed, 2)
	assert.Empty(t, result.Skipped)
	assertExists(t, fsys, records[1].FilePath, false)
	assertExists(t, fsys, records[2].FilePath, false)
}

func TestEvictAbortPolicyStopsAtFirstFailure(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "a-1.0-py3-none-any.whl", "b-1.0-py3-none-any.whl", "c-1.0-py3-none-any.whl")
	require.NoError(t, fsys.Remove(records[1].FilePath))

	result, err := NewEvictor(store, nil, nil, RemovalAbort).Evict(context.Background(), records, true)
	require.Error(t, err)
	assert.Equal(t, []*Record{records[0]}, result.Removed)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, []*Record{records[2]}, result.Skipped)
	assertExists(t, fsys, records[2].FilePath, true)
}

func TestEvictStaleRecordFails(t *testing.T) {
	_, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl")
	require.NoError(t, store.Remove(context.Background(), records[0]))

	_, err := NewEvictor(store, nil, nil, RemovalContinue).Evict(context.Background(), records, true)
	assert.ErrorIs(t, err, ErrStaleRecord)
}

func TestEvictHonoursCancellation(t *testing.T) {
	fsys, store, _ := newMemStore(t)
	records := seedWheels(t, store, "foo-1.0-py3-none-any.whl", "bar-1.0-py3-none-any.whl")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewEvictor(store, nil, nil, RemovalContinue).Evict(ctx, records, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, result.Skipped, 2)
	for _, record := range records {
		assertExists(t, fsys, record.FilePath, true)
	}
}

func TestParseRemovalPolicy(t *testing.T) {
	cases := map[string]RemovalPolicy{
		"":         RemovalContinue,
		"continue": RemovalContinue,
		" ABORT ":  RemovalAbort,
		"abort":    RemovalAbort,
	}
	for raw, want := range cases {
		got, err := ParseRemovalPolicy(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got)
	}
	_, err := ParseRemovalPolicy("retry")
	assert.Error(t, err)
}
