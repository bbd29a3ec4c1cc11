package config

import "strings"

// Overrides 汇总命令行上可以覆盖配置文件/环境变量的参数，零值表示未指定。
type Overrides struct {
	CacheDir   string
	Verbose    bool
	ListenPort int
	NoInput    bool
}

// Apply 将命令行覆盖写回配置并重新校验；CacheDir 会再次解析为绝对路径。
func (c *Config) Apply(o Overrides) error {
	if dir := strings.TrimSpace(o.CacheDir); dir != "" {
		c.CacheDir = dir
		if err := c.resolveCacheDir(); err != nil {
			return err
		}
	}
	if o.Verbose {
		c.LogLevel = "debug"
	}
	if o.ListenPort != 0 {
		c.ListenPort = o.ListenPort
	}
	if o.NoInput {
		c.NoInput = true
	}
	return c.Validate()
}
