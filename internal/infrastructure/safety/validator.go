// Package safety evaluates candidate commands before execution. Five
// independent analyzers contribute risk strings; their merge, the safety
// level, the impact estimate, and the confirmation decision are all
// deterministic functions of the command and context.
package safety

import (
	"sort"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// Validator implements ports.SafetyService.
type Validator struct {
	patterns *PatternSet
	cfg      domain.SafetySettings
	logger   ports.Logger
}

// New builds a validator over an immutable pattern set.
func New(patterns *PatternSet, cfg domain.SafetySettings, logger ports.Logger) *Validator {
	if cfg.ConfirmationThreshold == "" {
		cfg.ConfirmationThreshold = string(domain.SafetyMedium)
	}
	if cfg.RiskCountThreshold <= 0 {
		cfg.RiskCountThreshold = 3
	}
	if cfg.CIDRPrefixThreshold <= 0 {
		cfg.CIDRPrefixThreshold = 16
	}
	if cfg.MaxTargets <= 0 {
		cfg.MaxTargets = 10
	}
	return &Validator{patterns: patterns, cfg: cfg, logger: logger}
}

// Validate implements ports.SafetyService. It never panics outward: any
// internal failure collapses to the most conservative verdict.
func (v *Validator) Validate(cmd *domain.CandidateCommand, convCtx *domain.ConversationContext) (verdict domain.SafetyVerdict) {
	defer func() {
		if r := recover(); r != nil {
			if v.logger != nil {
				v.logger.Error("safety validation panic", nil, map[string]interface{}{"recovered": r})
			}
			verdict = conservativeVerdict(cmd)
		}
	}()

	level := cmd.BaseSafety
	var risks []string

	// Analyzer order is fixed so identical inputs always yield an
	// identical verdict.
	destructive, patternLevel := v.patterns.Match(cmd.Preview)
	risks = append(risks, destructive...)
	if patternLevel.Score() > level.Score() {
		level = patternLevel
	}

	risks = append(risks, analyzeSensitiveData(cmd)...)

	familyRisks, elevate := analyzeFamily(cmd)
	risks = append(risks, familyRisks...)
	if elevate {
		// Exactly one step, never past critical.
		level = level.Elevate()
	}

	risks = append(risks, analyzeTargets(cmd, v.cfg.CIDRPrefixThreshold, v.cfg.MaxTargets)...)
	risks = append(risks, analyzeContext(cmd, convCtx)...)

	risks = mergeRisks(risks)

	return domain.SafetyVerdict{
		Level:                level,
		RequiresConfirmation: v.requiresConfirmation(cmd, convCtx, level, len(risks)),
		Risks:                risks,
		Mitigations:          mitigationsFor(cmd, risks),
		Impact:               estimateImpact(level, risks),
		Preview:              cmd.Preview,
	}
}

func (v *Validator) requiresConfirmation(cmd *domain.CandidateCommand, convCtx *domain.ConversationContext, level domain.SafetyLevel, riskCount int) bool {
	switch {
	case level == domain.SafetyCritical:
		return true
	case level.AtLeast(domain.ParseSafetyLevel(v.cfg.ConfirmationThreshold)):
		return true
	case riskCount >= v.cfg.RiskCountThreshold:
		return true
	case cmd.ConfirmRequired:
		return true
	}
	if convCtx != nil {
		if convCtx.Session.Preferences.AlwaysConfirmRisky && level != domain.SafetySafe {
			return true
		}
		if convCtx.Session.Auth != domain.AuthStatusAuthenticated && sensitiveFamilies[cmd.Type] {
			return true
		}
	}
	return false
}

// Keyword tiers deciding risk ordering: destructive first, then privilege,
// then external exposure.
var riskPriorityKeywords = [][]string{
	{"destructive", "delete", "format"},
	{"privilege", "sudo", "unauthenticated"},
	{"external", "outbound", "cloud"},
}

func riskPriority(risk string) int {
	lower := strings.ToLower(risk)
	for tier, keywords := range riskPriorityKeywords {
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				return tier
			}
		}
	}
	return len(riskPriorityKeywords)
}

// mergeRisks de-duplicates and orders risks: priority tier first, encounter
// order within a tier.
func mergeRisks(risks []string) []string {
	seen := make(map[string]bool, len(risks))
	var unique []string
	for _, r := range risks {
		if !seen[r] {
			seen[r] = true
			unique = append(unique, r)
		}
	}
	sort.SliceStable(unique, func(i, j int) bool {
		return riskPriority(unique[i]) < riskPriority(unique[j])
	})
	return unique
}

// highImpactKeywords force the impact estimate to high regardless of level.
var highImpactKeywords = []string{"destructive", "delete", "format", "external", "all systems"}

func estimateImpact(level domain.SafetyLevel, risks []string) domain.Impact {
	for _, r := range risks {
		lower := strings.ToLower(r)
		for _, kw := range highImpactKeywords {
			if strings.Contains(lower, kw) {
				return domain.ImpactHigh
			}
		}
	}
	switch {
	case level.AtLeast(domain.SafetyHigh):
		return domain.ImpactHigh
	case level.Score() >= domain.SafetyMedium.Score() || len(risks) >= 2:
		return domain.ImpactMedium
	case len(risks) >= 1 || level.Score() >= domain.SafetyLow.Score():
		return domain.ImpactLow
	default:
		return domain.ImpactNone
	}
}

// conservativeVerdict is the fallback when validation itself fails.
func conservativeVerdict(cmd *domain.CandidateCommand) domain.SafetyVerdict {
	preview := ""
	if cmd != nil {
		preview = cmd.Preview
	}
	return domain.SafetyVerdict{
		Level:                domain.SafetyCritical,
		RequiresConfirmation: true,
		Risks:                []string{"Safety validation failed; treating command as critical"},
		Mitigations:          []string{"Review the command manually before confirming"},
		Impact:               domain.ImpactHigh,
		Preview:              preview,
	}
}

// Patterns exposes the active destructive patterns for inspection.
func (v *Validator) Patterns() []DangerPattern {
	return v.patterns.Patterns()
}

var _ ports.SafetyService = (*Validator)(nil)
