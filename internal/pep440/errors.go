package pep440

import "fmt"

// InvalidVersionError 表示版本号不符合 PEP 440。
type InvalidVersionError struct {
	Version string
}

func (e *InvalidVersionError) Error() string {
	return fmt.Sprintf("invalid version: %q", e.Version)
}

// InvalidSpecifierError 表示版本约束无法解析。
type InvalidSpecifierError struct {
	Specifier string
	Reason    string
}

func (e *InvalidSpecifierError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("invalid specifier: %q", e.Specifier)
	}
	return fmt.Sprintf("invalid specifier: %q: %s", e.Specifier, e.Reason)
}

// InvalidRequirementError 表示包选择器无法解析。
type InvalidRequirementError struct {
	Requirement string
	Reason      string
}

func (e *InvalidRequirementError) Error() string {
	return fmt.Sprintf("invalid requirement: %q: %s", e.Requirement, e.Reason)
}
