package report

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/any-hub/wheelcache/internal/cache"
)

func TestHumanSize(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{0, "0b"},
		{1, "1b"},
		{1023, "1023b"},
		{1024, "1.0kb"},
		{1536, "1.5kb"},
		{1048576, "1.0Mb"},
		{5 * 1024 * 1024 * 1024, "5.0Gb"},
		{1 << 40, "1.0Tb"},
		{1 << 50, "1024.0Tb"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, HumanSize(tc.in), "HumanSize(%d)", tc.in)
	}
}

func seed(t *testing.T, entries map[string]string) []*cache.Record {
	t.Helper()
	store, err := cache.NewStore(afero.NewMemMapFs(), "/cache/wheels", nil)
	require.NoError(t, err)
	used := time.Date(2024, 3, 9, 8, 30, 0, 0, time.Local)

	var records []*cache.Record
	for filename, link := range entries {
		record, err := store.Add(context.Background(), link, filename, bytes.NewReader(make([]byte, 2048)))
		require.NoError(t, err)
		record.LastAccessedAt = used
		records = append(records, record)
	}
	return records
}

func TestSummary(t *testing.T) {
	var out bytes.Buffer
	r := New(&out, false)

	require.NoError(t, r.Summary(nil))
	assert.Equal(t, "Found 0 cached wheels for 0b\n", out.String())

	out.Reset()
	records := seed(t, map[string]string{
		"foo-1.0-py3-none-any.whl": "https://example.com/foo-1.0.tar.gz",
		"bar-1.0-py3-none-any.whl": "https://example.com/bar-1.0.tar.gz",
	})
	require.NoError(t, r.Summary(records))
	assert.Equal(t, "Found 2 cached wheels for 4.0kb\n", out.String())
}

func TestListingGroupsAndSorts(t *testing.T) {
	records := seed(t, map[string]string{
		"foo-2.0-py3-none-any.whl":  "https://example.com/foo-2.0.tar.gz",
		"foo-1.10-py3-none-any.whl": "https://example.com/foo-1.10.tar.gz",
		"foo-1.9-py3-none-any.whl":  "https://example.com/foo-1.9.tar.gz",
		"Bar-0.1-py3-none-any.whl":  "https://example.com/Bar-0.1.tar.gz",
	})

	var out bytes.Buffer
	require.NoError(t, New(&out, false).Listing(records))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")

	var headers, files []string
	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "    - "):
			files = append(files, strings.TrimPrefix(line, "    - "))
		case !strings.HasPrefix(line, " "):
			headers = append(headers, line)
		}
	}
	assert.Equal(t, []string{"Bar", "foo"}, headers)
	assert.Equal(t, []string{
		"Bar-0.1-py3-none-any.whl",
		"foo-1.9-py3-none-any.whl",
		"foo-1.10-py3-none-any.whl",
		"foo-2.0-py3-none-any.whl",
	}, files)
	assert.Contains(t, out.String(), "      Original link: https://example.com/foo-1.9.tar.gz\n")
	assert.Contains(t, out.String(), "      Size: 2.0kb - Last used: 2024-03-09 08:30:00\n")
}

func TestListingEntryLayout(t *testing.T) {
	records := seed(t, map[string]string{
		"pkg-1.0-py3-none-any.whl": "https://example.com/pkg-1.0.tar.gz",
	})
	record := records[0]

	var out bytes.Buffer
	require.NoError(t, New(&out, false).Listing(records))
	want := "pkg\n" +
		"    - pkg-1.0-py3-none-any.whl\n" +
		"      Path: " + record.Dir + "\n" +
		"      Original link: https://example.com/pkg-1.0.tar.gz\n" +
		"      Size: 2.0kb - Last used: 2024-03-09 08:30:00\n"
	assert.Equal(t, want, out.String())
}

func TestListingColorsHeadersOnly(t *testing.T) {
	records := seed(t, map[string]string{
		"pkg-1.0-py3-none-any.whl": "https://example.com/pkg-1.0.tar.gz",
	})

	var out bytes.Buffer
	require.NoError(t, New(&out, true).Listing(records))
	first := strings.SplitN(out.String(), "\n", 2)[0]
	assert.True(t, strings.HasPrefix(first, "\x1b[1mpkg\x1b["), "%q", first)
	assert.NotContains(t, strings.SplitN(out.String(), "\n", 2)[1], "\x1b[")
}

func TestDeletionPlanAndOutcome(t *testing.T) {
	records := seed(t, map[string]string{
		"pkg-1.0-py3-none-any.whl": "https://example.com/pkg-1.0.tar.gz",
	})

	var out bytes.Buffer
	r := New(&out, false)
	require.NoError(t, r.DeletionPlan(records))
	assert.Equal(t, "Deleting:\n- "+records[0].FilePath+"\n", out.String())

	out.Reset()
	require.NoError(t, r.Outcome(cache.EvictResult{Declined: true}))
	assert.Equal(t, "No action taken.\n", out.String())

	out.Reset()
	require.NoError(t, r.Outcome(cache.EvictResult{Removed: records}))
	assert.Equal(t, "Removed 1 cached wheels (2.0kb)\n", out.String())

	out.Reset()
	require.NoError(t, r.Outcome(cache.EvictResult{}))
	assert.Empty(t, out.String())
}

func TestColorEnabledRejectsNonTerminal(t *testing.T) {
	assert.False(t, ColorEnabled(&bytes.Buffer{}))
}
