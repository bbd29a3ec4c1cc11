package pep440

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVersionNormalizes(t *testing.T) {
	cases := map[string]string{
		"1.0":              "1.0",
		"v2.0":             "2.0",
		"1.0-RC1":          "1.0rc1",
		"1.0alpha":         "1.0a0",
		"1.0.beta.2":       "1.0b2",
		"1.0c3":            "1.0rc3",
		"1.0-1":            "1.0.post1",
		"1.0.rev2":         "1.0.post2",
		"1.0.post":         "1.0.post0",
		"1.0-dev3":         "1.0.dev3",
		"2!1.0":            "2!1.0",
		"1.0+Ubuntu-1":     "1.0+ubuntu.1",
		" 1.2.3 ":          "1.2.3",
		"1.0a1.post2.dev3": "1.0a1.post2.dev3",
	}
	for raw, want := range cases {
		v, err := ParseVersion(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, v.String(), raw)
	}
}

func TestParseVersionRejectsInvalid(t *testing.T) {
	for _, raw := range []string{"", "abc", "1.0-", "1..0", "1.0+", "1.0 beta", "latest"} {
		_, err := ParseVersion(raw)
		var invalid *InvalidVersionError
		assert.ErrorAs(t, err, &invalid, raw)
	}
}

func TestVersionOrdering(t *testing.T) {
	ordered := []string{
		"1.0.dev0",
		"1.0a1.dev1",
		"1.0a1",
		"1.0b2",
		"1.0rc1",
		"1.0",
		"1.0+abc",
		"1.0+5",
		"1.0.post1.dev0",
		"1.0.post1",
		"1.1",
		"1.10",
		"1!0.1",
	}
	for i := 0; i+1 < len(ordered); i++ {
		a := MustParseVersion(ordered[i])
		b := MustParseVersion(ordered[i+1])
		assert.Equal(t, -1, a.Compare(b), "%s < %s", ordered[i], ordered[i+1])
		assert.Equal(t, 1, b.Compare(a), "%s > %s", ordered[i+1], ordered[i])
	}

	shuffled := []Version{
		MustParseVersion("1.1"),
		MustParseVersion("1.0rc1"),
		MustParseVersion("1.0.post1"),
		MustParseVersion("1.0"),
	}
	sort.Slice(shuffled, func(i, j int) bool { return shuffled[i].Less(shuffled[j]) })
	var got []string
	for _, v := range shuffled {
		got = append(got, v.String())
	}
	assert.Equal(t, []string{"1.0rc1", "1.0", "1.0.post1", "1.1"}, got)
}

func TestVersionTrailingZerosAreEqual(t *testing.T) {
	assert.True(t, MustParseVersion("1.0").Equal(MustParseVersion("1.0.0")))
	assert.True(t, MustParseVersion("1").Equal(MustParseVersion("1.0")))
	assert.False(t, MustParseVersion("1.0").Equal(MustParseVersion("1.0+local")))
}

func TestVersionClassification(t *testing.T) {
	assert.True(t, MustParseVersion("1.0rc1").IsPrerelease())
	assert.True(t, MustParseVersion("1.0.dev1").IsPrerelease())
	assert.False(t, MustParseVersion("1.0.post1").IsPrerelease())
	assert.True(t, MustParseVersion("1.0.post1").IsPostrelease())
	assert.True(t, MustParseVersion("1.0+local").IsLocal())
	assert.Equal(t, "1.0", MustParseVersion("1.0+local").Public().String())
	assert.Equal(t, "1!2.0", MustParseVersion("1!2.0rc1.post2").BaseVersion().String())
}
