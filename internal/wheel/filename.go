// Package wheel parses built-distribution ("wheel") filenames of the form
// <name>-<version>(-<build>)?-<python>-<abi>-<platform>.whl.
package wheel

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/any-hub/wheelcache/internal/pep440"
)

// Extension 是 wheel 文件的固定后缀。
const Extension = ".whl"

var filenameRegexp = regexp.MustCompile(
	`^(?P<name>.+?)-(?P<ver>.*?)(?:-(?P<build>\d[^-]*?))?-(?P<pyver>.+?)-(?P<abi>.+?)-(?P<plat>.+?)\.whl$`,
)

// Filename 是解析后的 wheel 文件名。Name/VersionText 中的 "_" 已替换为 "-"，但保留原始大小写。
type Filename struct {
	Raw         string
	Name        string
	VersionText string
	Version     pep440.Version
	Build       string
	Pythons     []string
	ABIs        []string
	Platforms   []string
}

// InvalidFilenameError 表示文件名不符合 wheel 命名规范或版本号非法。
type InvalidFilenameError struct {
	Filename string
	Reason   string
}

func (e *InvalidFilenameError) Error() string {
	return fmt.Sprintf("%s is not a valid wheel filename: %s", e.Filename, e.Reason)
}

// ParseFilename 解析 wheel 文件名（仅 basename）。
func ParseFilename(base string) (Filename, error) {
	m := filenameRegexp.FindStringSubmatch(base)
	if m == nil {
		return Filename{}, &InvalidFilenameError{Filename: base, Reason: "does not match name-version-tags.whl"}
	}
	group := func(name string) string {
		return m[filenameRegexp.SubexpIndex(name)]
	}

	versionText := strings.ReplaceAll(group("ver"), "_", "-")
	version, err := pep440.ParseVersion(versionText)
	if err != nil {
		return Filename{}, &InvalidFilenameError{Filename: base, Reason: err.Error()}
	}

	return Filename{
		Raw:         base,
		Name:        strings.ReplaceAll(group("name"), "_", "-"),
		VersionText: versionText,
		Version:     version,
		Build:       group("build"),
		Pythons:     strings.Split(group("pyver"), "."),
		ABIs:        strings.Split(group("abi"), "."),
		Platforms:   strings.Split(group("plat"), "."),
	}, nil
}

// CanonicalName 返回规范化的项目名，用于比较。
func (f Filename) CanonicalName() string {
	return pep440.Canonicalize(f.Name)
}

// Tags 展开压缩标签集合，例如 py2.py3-none-any 得到 py2-none-any 与 py3-none-any。
func (f Filename) Tags() []string {
	var tags []string
	for _, py := range f.Pythons {
		for _, abi := range f.ABIs {
			for _, plat := range f.Platforms {
				tags = append(tags, py+"-"+abi+"-"+plat)
			}
		}
	}
	return tags
}
