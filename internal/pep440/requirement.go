package pep440

import (
	"regexp"
	"strings"
)

var (
	separatorRun      = regexp.MustCompile(`[-_.]+`)
	requirementRegexp = regexp.MustCompile(
		`^([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*(?:\[([^\]]*)\])?\s*(.*)$`,
	)
)

// Canonicalize 将项目名规范化：小写，并把连续的 -_. 折叠成 "-"，使 Foo_Bar 与 foo-bar 相等。
func Canonicalize(name string) string {
	return strings.ToLower(separatorRun.ReplaceAllString(name, "-"))
}

// Requirement 是 "name" 或 "name<specifiers>" 形式的包选择器。
type Requirement struct {
	Name       string
	Extras     []string
	Specifiers SpecifierSet
}

// ParseRequirement 解析包选择器，例如 "foo"、"foo==1.2"、"bar[extra]>=2,<3"、"baz (>=1)"。
// URL 依赖与环境标记不属于缓存查询的范畴，直接拒绝。
func ParseRequirement(raw string) (Requirement, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: "empty selector"}
	}
	if strings.Contains(trimmed, ";") {
		return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: "environment markers are not supported"}
	}
	if strings.Contains(trimmed, "@") {
		return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: "URL requirements are not supported"}
	}

	m := requirementRegexp.FindStringSubmatch(trimmed)
	if m == nil {
		return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: "invalid project name"}
	}

	req := Requirement{Name: m[1]}
	if extras := strings.TrimSpace(m[2]); extras != "" {
		for _, extra := range strings.Split(extras, ",") {
			if e := strings.TrimSpace(extra); e != "" {
				req.Extras = append(req.Extras, e)
			}
		}
	}

	rest := strings.TrimSpace(m[3])
	if strings.HasPrefix(rest, "(") {
		if !strings.HasSuffix(rest, ")") {
			return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: "unbalanced parenthesis"}
		}
		rest = strings.TrimSpace(rest[1 : len(rest)-1])
	}
	specs, err := ParseSpecifierSet(rest)
	if err != nil {
		return Requirement{}, &InvalidRequirementError{Requirement: raw, Reason: err.Error()}
	}
	req.Specifiers = specs
	return req, nil
}

// CanonicalName 返回规范化后的项目名。
func (r Requirement) CanonicalName() string {
	return Canonicalize(r.Name)
}

// Matches 要求名称规范化后相等且版本满足全部约束。
func (r Requirement) Matches(name string, v Version) bool {
	return Canonicalize(name) == r.CanonicalName() && r.Specifiers.Contains(v)
}

func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	b.WriteString(r.Specifiers.String())
	return b.String()
}
