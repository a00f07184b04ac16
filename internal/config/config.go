// Package config loads .srslint.yaml from the scanned root. Every field is
// optional; a missing file yields the defaults.
//
// The deny list follows the permission-style glob convention: patterns may be
// bare globs ("vendor/**") or wrapped in a Read() verb ("Read(./vendor/**)").
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FileName is the configuration file looked up at the scanned root.
const FileName = ".srslint.yaml"

// Config is the full srslint configuration.
type Config struct {
	// Deny lists glob patterns for files that must not be scanned.
	Deny []string `yaml:"deny"`
	// TestSuffixes mark a file as a test file by base-name suffix.
	TestSuffixes []string `yaml:"test_suffixes"`
	// Anchors are the test registration macros the scanner recognizes.
	Anchors []string `yaml:"anchors"`
	// Checks enables a subset of checks by name; empty means all.
	Checks []string `yaml:"checks"`
	// Requirements lists the canonical requirement documents, relative to
	// the scanned root.
	Requirements []string `yaml:"requirements"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		TestSuffixes: []string{"_ut.c", "_ut.cpp", "_int.c"},
		Anchors:      []string{"TEST_FUNCTION"},
	}
}

// Load reads .srslint.yaml relative to root and fills unset fields with
// defaults. A missing file is not an error.
func Load(root string) (*Config, error) {
	cfg := Default()
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: unmarshal %s: %w", path, err)
	}
	cfg.Deny = file.Deny
	cfg.Checks = file.Checks
	cfg.Requirements = file.Requirements
	if len(file.TestSuffixes) > 0 {
		cfg.TestSuffixes = file.TestSuffixes
	}
	if len(file.Anchors) > 0 {
		cfg.Anchors = file.Anchors
	}
	return cfg, nil
}

// IsDenied reports whether relPath (forward-slash, relative to root) matches
// any deny rule.
func (c *Config) IsDenied(relPath string) bool {
	for _, rule := range c.Deny {
		if matchDenyPattern(parseDenyRule(rule), relPath) {
			return true
		}
	}
	return false
}

// IsTestFile reports whether base names a test source file.
func (c *Config) IsTestFile(base string) bool {
	for _, suffix := range c.TestSuffixes {
		if strings.HasSuffix(base, suffix) {
			return true
		}
	}
	return false
}

// CheckEnabled reports whether the named check should run.
func (c *Config) CheckEnabled(name string) bool {
	if len(c.Checks) == 0 {
		return true
	}
	for _, n := range c.Checks {
		if n == name {
			return true
		}
	}
	return false
}

// parseDenyRule reduces a deny rule to its bare glob: the Read() verb is
// unwrapped and a leading "./" dropped, so "Read(./deps/**)", "./deps/**",
// and "deps/**" all name the same rule.
func parseDenyRule(rule string) string {
	if strings.HasPrefix(rule, "Read(") && strings.HasSuffix(rule, ")") {
		rule = rule[5 : len(rule)-1]
	}
	return strings.TrimPrefix(rule, "./")
}

// matchDenyPattern matches one glob against a slash-relative path. A pattern
// ending in "/**" covers the named directory and everything beneath it; any
// other pattern goes through filepath.Match, where a single * stays within
// one path segment.
func matchDenyPattern(pattern, path string) bool {
	if strings.HasSuffix(pattern, "/**") {
		prefix := strings.TrimSuffix(pattern, "/**")
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	matched, _ := filepath.Match(pattern, path)
	return matched
}
