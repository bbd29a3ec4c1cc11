package pep440

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// versionPattern 对齐 PEP 440 附录中的“宽松”语法，允许 alpha/beta/c/rev 等别名。
const versionPattern = `v?` +
	`(?:(?P<epoch>[0-9]+)!)?` +
	`(?P<release>[0-9]+(?:\.[0-9]+)*)` +
	`(?P<pre>[-_.]?(?P<pre_l>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<pre_n>[0-9]+)?)?` +
	`(?P<post>(?:-(?P<post_n1>[0-9]+))|(?:[-_.]?(?P<post_l>post|rev|r)[-_.]?(?P<post_n2>[0-9]+)?))?` +
	`(?P<dev>[-_.]?(?P<dev_l>dev)[-_.]?(?P<dev_n>[0-9]+)?)?` +
	`(?:\+(?P<local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?`

var versionRegexp = regexp.MustCompile(`(?i)^\s*` + versionPattern + `\s*$`)

// Version 是解析后的 PEP 440 版本号，零值不可用，请通过 ParseVersion 构造。
type Version struct {
	epoch   int
	release []int
	pre     *preRelease
	post    *int
	dev     *int
	local   []localSegment
}

type preRelease struct {
	label string
	num   int
}

type localSegment struct {
	text  string
	num   int
	isNum bool
}

var preLabelRank = map[string]int{"a": 0, "b": 1, "rc": 2}

// ParseVersion 解析 PEP 440 版本字符串，非法输入返回 *InvalidVersionError。
func ParseVersion(raw string) (Version, error) {
	m := versionRegexp.FindStringSubmatch(raw)
	if m == nil {
		return Version{}, &InvalidVersionError{Version: raw}
	}
	group := func(name string) string {
		return m[versionRegexp.SubexpIndex(name)]
	}

	var (
		v   Version
		err error
	)
	if e := group("epoch"); e != "" {
		if v.epoch, err = atoi(e); err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
	}
	for _, part := range strings.Split(group("release"), ".") {
		n, err := atoi(part)
		if err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
		v.release = append(v.release, n)
	}
	if label := group("pre_l"); label != "" {
		n, err := optionalNumber(group("pre_n"))
		if err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
		v.pre = &preRelease{label: normalizePreLabel(label), num: n}
	}
	if n1 := group("post_n1"); n1 != "" {
		n, err := atoi(n1)
		if err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
		v.post = &n
	} else if group("post_l") != "" {
		n, err := optionalNumber(group("post_n2"))
		if err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
		v.post = &n
	}
	if group("dev_l") != "" {
		n, err := optionalNumber(group("dev_n"))
		if err != nil {
			return Version{}, &InvalidVersionError{Version: raw}
		}
		v.dev = &n
	}
	if local := group("local"); local != "" {
		v.local = parseLocal(local)
	}
	return v, nil
}

// MustParseVersion 用于常量与测试场景，解析失败直接 panic。
func MustParseVersion(raw string) Version {
	v, err := ParseVersion(raw)
	if err != nil {
		panic(err)
	}
	return v
}

func normalizePreLabel(label string) string {
	switch strings.ToLower(label) {
	case "a", "alpha":
		return "a"
	case "b", "beta":
		return "b"
	default:
		return "rc"
	}
}

func parseLocal(raw string) []localSegment {
	parts := strings.FieldsFunc(strings.ToLower(raw), func(r rune) bool {
		return r == '-' || r == '_' || r == '.'
	})
	segments := make([]localSegment, 0, len(parts))
	for _, part := range parts {
		if n, err := atoi(part); err == nil {
			segments = append(segments, localSegment{num: n, isNum: true})
			continue
		}
		segments = append(segments, localSegment{text: part})
	}
	return segments
}

func optionalNumber(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return atoi(raw)
}

func atoi(raw string) (int, error) {
	n, err := strconv.ParseInt(raw, 10, strconv.IntSize)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// IsPrerelease 包含 dev 版本与 a/b/rc 版本。
func (v Version) IsPrerelease() bool {
	return v.dev != nil || v.pre != nil
}

// IsPostrelease 表示是否带有 .postN 段。
func (v Version) IsPostrelease() bool {
	return v.post != nil
}

// IsLocal 表示是否带有 +local 段。
func (v Version) IsLocal() bool {
	return len(v.local) > 0
}

// Public 去掉 local 段，用于 ==、>= 等不关心本地构建标识的比较。
func (v Version) Public() Version {
	out := v
	out.local = nil
	return out
}

// BaseVersion 只保留 epoch 与 release。
func (v Version) BaseVersion() Version {
	return Version{epoch: v.epoch, release: v.release}
}

// String 输出规范化后的版本字符串，例如 1.0.0-RC1 → 1.0.0rc1。
func (v Version) String() string {
	var b strings.Builder
	if v.epoch != 0 {
		fmt.Fprintf(&b, "%d!", v.epoch)
	}
	for i, n := range v.release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.pre != nil {
		fmt.Fprintf(&b, "%s%d", v.pre.label, v.pre.num)
	}
	if v.post != nil {
		fmt.Fprintf(&b, ".post%d", *v.post)
	}
	if v.dev != nil {
		fmt.Fprintf(&b, ".dev%d", *v.dev)
	}
	if len(v.local) > 0 {
		b.WriteByte('+')
		for i, seg := range v.local {
			if i > 0 {
				b.WriteByte('.')
			}
			if seg.isNum {
				b.WriteString(strconv.Itoa(seg.num))
			} else {
				b.WriteString(seg.text)
			}
		}
	}
	return b.String()
}

// Equal 按 PEP 440 语义判断相等，1.0 与 1.0.0 相等。
func (v Version) Equal(o Version) bool {
	return v.Compare(o) == 0
}

// Less 便于 sort.Slice 使用。
func (v Version) Less(o Version) bool {
	return v.Compare(o) < 0
}

// Compare 返回 -1/0/1。排序规则：dev < pre < final < post，local 排在对应公开版本之后。
func (v Version) Compare(o Version) int {
	if c := compareInt(v.epoch, o.epoch); c != 0 {
		return c
	}
	if c := compareRelease(v.release, o.release); c != 0 {
		return c
	}
	if c := comparePre(v, o); c != 0 {
		return c
	}
	if c := compareOptional(v.post, o.post, -1); c != 0 {
		return c
	}
	if c := compareOptional(v.dev, o.dev, 1); c != 0 {
		return c
	}
	return compareLocal(v.local, o.local)
}

func compareInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func trimZeros(release []int) []int {
	end := len(release)
	for end > 0 && release[end-1] == 0 {
		end--
	}
	return release[:end]
}

func compareRelease(a, b []int) int {
	a, b = trimZeros(a), trimZeros(b)
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareInt(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

// preRank: 只有 dev 段的版本排在所有 pre 之前；没有 pre 段的正式版排在所有 pre 之后。
func preRank(v Version) int {
	switch {
	case v.pre == nil && v.post == nil && v.dev != nil:
		return 0
	case v.pre == nil:
		return 2
	default:
		return 1
	}
}

func comparePre(a, b Version) int {
	ra, rb := preRank(a), preRank(b)
	if ra != rb || ra != 1 {
		return compareInt(ra, rb)
	}
	if c := compareInt(preLabelRank[a.pre.label], preLabelRank[b.pre.label]); c != 0 {
		return c
	}
	return compareInt(a.pre.num, b.pre.num)
}

// compareOptional 比较可缺省段，missing 指定缺省值视为 -inf(-1) 还是 +inf(1)。
func compareOptional(a, b *int, missing int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return missing
	case b == nil:
		return -missing
	default:
		return compareInt(*a, *b)
	}
}

func compareLocal(a, b []localSegment) int {
	if len(a) == 0 || len(b) == 0 {
		return compareInt(len(a), len(b))
	}
	for i := 0; i < len(a) && i < len(b); i++ {
		if c := compareLocalSegment(a[i], b[i]); c != 0 {
			return c
		}
	}
	return compareInt(len(a), len(b))
}

// 数字段总是大于字母段。
func compareLocalSegment(a, b localSegment) int {
	switch {
	case a.isNum && b.isNum:
		return compareInt(a.num, b.num)
	case a.isNum:
		return 1
	case b.isNum:
		return -1
	default:
		return strings.Compare(a.text, b.text)
	}
}
