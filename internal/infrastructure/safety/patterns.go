package safety

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/opsentry/internal/domain"
)

// DangerPattern describes a regex-based destructive-command rule.
type DangerPattern struct {
	Pattern string `yaml:"pattern"`
	Level   string `yaml:"level"`
	Message string `yaml:"message"`
}

// RulesFile is the YAML schema root for the safety pattern file.
type RulesFile struct {
	Rules struct {
		DangerPatterns []DangerPattern `yaml:"danger_patterns"`
	} `yaml:"rules"`
}

type compiledPattern struct {
	re   *regexp.Regexp
	rule DangerPattern
}

// PatternSet holds the compiled destructive patterns. Immutable after load.
type PatternSet struct {
	patterns []compiledPattern
}

// LoadPatterns reads the pattern file from disk (or defaults when missing)
// and compiles every rule.
func LoadPatterns(path string) (*PatternSet, error) {
	rules := defaultPatterns()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var file RulesFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, err
			}
			if len(file.Rules.DangerPatterns) > 0 {
				rules = file.Rules.DangerPatterns
			}
		}
	}

	var compiled []compiledPattern
	for _, rule := range rules {
		re, err := regexp.Compile(rule.Pattern)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, compiledPattern{re: re, rule: rule})
	}
	return &PatternSet{patterns: compiled}, nil
}

// Match returns the message and highest level of every pattern the rendered
// command trips.
func (p *PatternSet) Match(preview string) (risks []string, highest domain.SafetyLevel) {
	highest = domain.SafetySafe
	for _, pattern := range p.patterns {
		if pattern.re.MatchString(preview) {
			risks = append(risks, pattern.rule.Message)
			level := domain.ParseSafetyLevel(pattern.rule.Level)
			if level.Score() > highest.Score() {
				highest = level
			}
		}
	}
	return risks, highest
}

// Patterns lists the configured rules, for inspection commands.
func (p *PatternSet) Patterns() []DangerPattern {
	out := make([]DangerPattern, 0, len(p.patterns))
	for _, c := range p.patterns {
		out = append(out, c.rule)
	}
	return out
}

func defaultPatterns() []DangerPattern {
	return []DangerPattern{
		{Pattern: `rm\s+-rf\s+/`, Level: "critical", Message: "Destructive: recursive delete of root filesystem"},
		{Pattern: `dd\s+if=.*of=/dev/`, Level: "critical", Message: "Destructive: raw write to block device"},
		{Pattern: `mkfs\.`, Level: "critical", Message: "Destructive: filesystem format"},
		{Pattern: `(shutdown|reboot|halt)\s+(-f|--force|now)`, Level: "critical", Message: "Destructive: forced shutdown or reboot"},
		{Pattern: `(fdisk|parted|sfdisk)\b`, Level: "critical", Message: "Destructive: partition table modification"},
		{Pattern: `\b(sudo|su)\b`, Level: "high", Message: "Privilege elevation requested"},
		{Pattern: `(--all\b|\s\*($|\s))`, Level: "medium", Message: "Wildcard scope: affects all matching resources"},
	}
}

// sensitivePatterns flag inline credential-like material in the rendered
// command or its parameters.
var sensitivePatterns = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`(?i)password\s*=`), "Sensitive data: inline password"},
	{regexp.MustCompile(`(?i)api[_-]?key\s*=`), "Sensitive data: inline API key"},
	{regexp.MustCompile(`(?i)secret\s*=`), "Sensitive data: inline secret"},
	{regexp.MustCompile(`(?i)token\s*=`), "Sensitive data: inline token"},
	{regexp.MustCompile(`(?i)private[ _-]key`), "Sensitive data: private key material"},
}
