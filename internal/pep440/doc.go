// Package pep440 implements the subset of Python packaging semantics the
// wheel cache needs: PEP 440 version parsing and ordering, version specifier
// sets (including prefix matching and the pre-release exclusion rules used
// by installers), requirement selectors such as "foo>=2,<3", and project
// name canonicalisation.
package pep440
