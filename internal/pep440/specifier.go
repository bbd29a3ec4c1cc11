package pep440

import (
	"strings"
)

// Operator 是 PEP 440 版本约束的比较运算符。
type Operator string

const (
	OpCompatible Operator = "~="
	OpEqual      Operator = "=="
	OpNotEqual   Operator = "!="
	OpLessEq     Operator = "<="
	OpGreaterEq  Operator = ">="
	OpLess       Operator = "<"
	OpGreater    Operator = ">"
	OpArbitrary  Operator = "==="
)

// 顺序有意义：长运算符必须先于其前缀匹配。
var operators = []Operator{OpArbitrary, OpCompatible, OpEqual, OpNotEqual, OpLessEq, OpGreaterEq, OpLess, OpGreater}

// Specifier 是单个约束子句，例如 ">=2.0" 或 "==1.4.*"。
type Specifier struct {
	Operator Operator
	Version  string

	wildcard bool
	parsed   Version
}

// ParseSpecifier 解析单个约束子句。
func ParseSpecifier(raw string) (Specifier, error) {
	clause := strings.TrimSpace(raw)
	var op Operator
	for _, candidate := range operators {
		if strings.HasPrefix(clause, string(candidate)) {
			op = candidate
			break
		}
	}
	if op == "" {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "missing operator"}
	}
	value := strings.TrimSpace(strings.TrimPrefix(clause, string(op)))
	if value == "" {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "missing version"}
	}

	spec := Specifier{Operator: op, Version: value}
	if op == OpArbitrary {
		if strings.ContainsAny(value, " \t;") {
			return Specifier{}, &InvalidSpecifierError{Specifier: raw}
		}
		return spec, nil
	}

	if strings.HasSuffix(value, ".*") {
		if op != OpEqual && op != OpNotEqual {
			return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "wildcard only allowed with == and !="}
		}
		spec.wildcard = true
		value = strings.TrimSuffix(value, ".*")
	}

	v, err := ParseVersion(value)
	if err != nil {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: err.Error()}
	}
	if spec.wildcard && (v.pre != nil || v.post != nil || v.dev != nil || v.IsLocal()) {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "wildcard must follow a release segment"}
	}
	if v.IsLocal() && op != OpEqual && op != OpNotEqual {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "local versions only allowed with == and !="}
	}
	if op == OpCompatible && len(v.release) < 2 {
		return Specifier{}, &InvalidSpecifierError{Specifier: raw, Reason: "~= requires at least two release segments"}
	}
	spec.parsed = v
	return spec, nil
}

// String 还原为 "<op><version>" 形式。
func (s Specifier) String() string {
	return string(s.Operator) + s.Version
}

// allowsPrereleases 对齐 packaging：只有 ==、>=、<=、~=、=== 且版本本身是预发布时才放行预发布。
func (s Specifier) allowsPrereleases() bool {
	switch s.Operator {
	case OpEqual, OpGreaterEq, OpLessEq, OpCompatible:
		return s.parsed.IsPrerelease()
	case OpArbitrary:
		v, err := ParseVersion(s.Version)
		return err == nil && v.IsPrerelease()
	default:
		return false
	}
}

// Contains 判断版本是否满足该子句，不考虑预发布过滤（由 SpecifierSet 负责）。
func (s Specifier) Contains(v Version) bool {
	switch s.Operator {
	case OpArbitrary:
		return strings.EqualFold(v.String(), s.Version)
	case OpEqual:
		return s.equal(v)
	case OpNotEqual:
		return !s.equal(v)
	case OpLessEq:
		return v.Public().Compare(s.parsed) <= 0
	case OpGreaterEq:
		return v.Public().Compare(s.parsed) >= 0
	case OpLess:
		if v.Compare(s.parsed) >= 0 {
			return false
		}
		if !s.parsed.IsPrerelease() && v.IsPrerelease() && v.BaseVersion().Equal(s.parsed.BaseVersion()) {
			return false
		}
		return true
	case OpGreater:
		if v.Compare(s.parsed) <= 0 {
			return false
		}
		if !s.parsed.IsPostrelease() && v.IsPostrelease() && v.BaseVersion().Equal(s.parsed.BaseVersion()) {
			return false
		}
		if v.IsLocal() && v.BaseVersion().Equal(s.parsed.BaseVersion()) {
			return false
		}
		return true
	case OpCompatible:
		if v.Public().Compare(s.parsed) < 0 {
			return false
		}
		prefix := s.parsed.release[:len(s.parsed.release)-1]
		return prefixMatch(v, s.parsed.epoch, prefix)
	default:
		return false
	}
}

func (s Specifier) equal(v Version) bool {
	if s.wildcard {
		return prefixMatch(v, s.parsed.epoch, s.parsed.release)
	}
	if s.parsed.IsLocal() {
		return v.Equal(s.parsed)
	}
	return v.Public().Equal(s.parsed)
}

// prefixMatch 实现 "==X.Y.*"：候选版本的 release 不足时补 0 后比较前缀。
func prefixMatch(v Version, epoch int, prefix []int) bool {
	if v.epoch != epoch {
		return false
	}
	for i, want := range prefix {
		got := 0
		if i < len(v.release) {
			got = v.release[i]
		}
		if got != want {
			return false
		}
	}
	return true
}

// SpecifierSet 是逗号分隔的约束集合，各子句之间为 AND 关系。
type SpecifierSet []Specifier

// ParseSpecifierSet 解析 ">=2,<3" 之类的约束集合，空字符串得到空集合。
func ParseSpecifierSet(raw string) (SpecifierSet, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, nil
	}
	var set SpecifierSet
	for _, clause := range strings.Split(trimmed, ",") {
		spec, err := ParseSpecifier(clause)
		if err != nil {
			return nil, err
		}
		set = append(set, spec)
	}
	return set, nil
}

// Contains 判断版本是否满足全部子句。预发布版本默认被排除（空集合也一样），
// 除非某个子句显式引用了预发布版本。
func (s SpecifierSet) Contains(v Version) bool {
	if v.IsPrerelease() && !s.allowsPrereleases() {
		return false
	}
	for _, spec := range s {
		if !spec.Contains(v) {
			return false
		}
	}
	return true
}

func (s SpecifierSet) allowsPrereleases() bool {
	for _, spec := range s {
		if spec.allowsPrereleases() {
			return true
		}
	}
	return false
}

// String 以逗号拼接各子句。
func (s SpecifierSet) String() string {
	parts := make([]string, len(s))
	for i, spec := range s {
		parts[i] = spec.String()
	}
	return strings.Join(parts, ",")
}
