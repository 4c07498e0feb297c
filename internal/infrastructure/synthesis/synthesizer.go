// Package synthesis maps classified intents onto structured candidate
// commands. Extraction runs as ordered stages: static rule lookup, entity
// binding, regex extraction from raw text, contextual inheritance, then
// safety-aware defaulting. The output is deterministic for fixed inputs.
package synthesis

import (
	"net"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// AutoDetectSentinel marks a target list the platform should discover
// itself rather than one the user named.
const AutoDetectSentinel = "auto_detect"

// placeholderValue fills required parameters nothing could resolve. The
// underscore prefix keeps it out of the rendered preview; the validator,
// not the synthesizer, decides whether that blocks execution.
const placeholderValue = "_unresolved"

// Synthesizer implements ports.Synthesizer over an immutable rule set.
type Synthesizer struct {
	rules               *RuleSet
	contextualInference bool
	logger              ports.Logger
}

// New builds a synthesizer. The rule set is shared by reference and must
// not be mutated after construction.
func New(rules *RuleSet, contextualInference bool, logger ports.Logger) *Synthesizer {
	return &Synthesizer{
		rules:               rules,
		contextualInference: contextualInference,
		logger:              logger,
	}
}

// Synthesize implements ports.Synthesizer. The bool is false when the
// intent has no registered rule.
func (s *Synthesizer) Synthesize(intent domain.Intent, entities []domain.Entity, rawText string, convCtx *domain.ConversationContext) (*domain.CandidateCommand, bool) {
	rule, ok := s.rules.For(intent.Type)
	if !ok {
		return nil, false
	}

	normalized := normalize(rawText)
	cmd := &domain.CandidateCommand{
		Type:            domain.CommandType(rule.Command),
		SubAction:       rule.SubAction,
		Parameters:      make(domain.ParamValues),
		Description:     rule.Description,
		BaseSafety:      domain.ParseSafetyLevel(rule.BaseSafety),
		ConfirmRequired: rule.RequiresConfirmation,
	}

	// Stage 1: entity binding via the rule's entity→parameter table.
	s.bindEntities(rule, entities, cmd)

	// Stage 2: regex extraction straight from the text.
	for param, values := range extractParams(rule, normalized) {
		mergeParam(rule, cmd.Parameters, param, values)
	}
	applyPhrases(rule, normalized, map[string][]string(cmd.Parameters))
	cmd.Flags = extractFlags(normalized)

	// Stage 3: contextual inheritance from recent turns.
	if s.contextualInference && convCtx != nil {
		s.enhanceFromContext(rule, cmd, convCtx)
	}

	// Stage 4: safety-aware defaults and auto-completion.
	s.applyDefaults(rule, cmd)

	// Stage 5: deterministic rendering and estimates.
	cmd.Preview = renderPreview(rule, cmd)
	cmd.EstimatedDurationMS = estimateDuration(rule, cmd)
	cmd.Warnings = buildWarnings(cmd)

	if s.logger != nil {
		s.logger.Debug("command synthesized", map[string]interface{}{
			"intent":  string(intent.Type),
			"command": cmd.Preview,
		})
	}
	return cmd, true
}

func (s *Synthesizer) bindEntities(rule Rule, entities []domain.Entity, cmd *domain.CandidateCommand) {
	for _, entity := range entities {
		param, ok := rule.EntityParams[entity.Type]
		if !ok || !rule.declares(param) {
			continue
		}
		values := cmd.Parameters[param]
		if rule.isMulti(param) {
			if !contains(values, entity.Value) {
				cmd.Parameters[param] = append(values, entity.Value)
			}
		} else if len(values) == 0 {
			cmd.Parameters[param] = []string{entity.Value}
		}
	}
}

// mergeParam adds extracted values without clobbering entity-bound ones.
func mergeParam(rule Rule, params domain.ParamValues, param string, values []string) {
	if rule.isMulti(param) {
		for _, v := range values {
			if !contains(params[param], v) {
				params[param] = append(params[param], v)
			}
		}
		return
	}
	if len(params[param]) == 0 && len(values) > 0 {
		params[param] = values[:1]
	}
}

func (s *Synthesizer) enhanceFromContext(rule Rule, cmd *domain.CandidateCommand, convCtx *domain.ConversationContext) {
	if rule.declares("targets") && !cmd.Parameters.Has("targets") {
		for _, entityType := range []string{"cidr", "ip_address"} {
			if entity, ok := convCtx.LastEntityOfType(entityType); ok {
				cmd.Parameters["targets"] = []string{entity.Value}
				cmd.ContextInferred = true
				break
			}
		}
	}

	if rule.declares("output-format") && !cmd.Parameters.Has("output-format") {
		if style := convCtx.Session.Preferences.PreferredOutputStyle; style != "" {
			cmd.Parameters["output-format"] = []string{style}
			cmd.ContextInferred = true
		}
	}
	if convCtx.Session.Preferences.VerboseOutput && !cmd.HasFlag("verbose") {
		cmd.Flags = append(cmd.Flags, "verbose")
	}

	// Inherit scan intensity from the most recent command of the same
	// family, recovered from its rendered preview.
	if rule.declares("scan-type") && !cmd.Parameters.Has("scan-type") {
		if prev, ok := convCtx.LastCommandOfType(cmd.Type); ok {
			if values := extractParams(rule, normalize(prev.Preview))["scan-type"]; len(values) > 0 {
				cmd.Parameters["scan-type"] = values[:1]
				cmd.ContextInferred = true
			}
		}
	}
}

func (s *Synthesizer) applyDefaults(rule Rule, cmd *domain.CandidateCommand) {
	for param, value := range rule.Defaults {
		if rule.declares(param) && !cmd.Parameters.Has(param) {
			cmd.Parameters[param] = []string{value}
		}
	}

	// Scan families default to auto-detected targets and the least
	// invasive intensity. Never default to the most invasive option.
	if rule.declares("targets") && !cmd.Parameters.Has("targets") {
		if cmd.SubAction == "scan" {
			cmd.Parameters["targets"] = []string{AutoDetectSentinel}
			cmd.AutoCompleted = true
		}
	}
	if rule.declares("scan-type") && !cmd.Parameters.Has("scan-type") {
		cmd.Parameters["scan-type"] = []string{"quick"}
	}

	// Any required parameter still unset is auto-completed with a safe
	// placeholder; blocking (if any) is the validator's call.
	for _, spec := range rule.Params {
		if spec.Required && !cmd.Parameters.Has(spec.Name) {
			cmd.Parameters[spec.Name] = []string{placeholderValue}
			cmd.AutoCompleted = true
		}
	}
}

func buildWarnings(cmd *domain.CandidateCommand) []string {
	var warnings []string
	if cmd.BaseSafety.AtLeast(domain.SafetyHigh) {
		warnings = append(warnings, "This command carries elevated risk.")
	}
	if hasExternalTarget(cmd.Parameters["targets"]) {
		warnings = append(warnings, "Targets include addresses outside private ranges.")
	}
	if cmd.Parameters.Get("targets") == AutoDetectSentinel {
		warnings = append(warnings, "No targets given; the local network will be auto-detected.")
	}
	if cmd.ContextInferred {
		warnings = append(warnings, "Some parameters were inferred from conversation context.")
	}
	return warnings
}

// hasExternalTarget reports whether any target parses as a public address.
func hasExternalTarget(targets []string) bool {
	for _, t := range targets {
		addr := t
		if strings.Contains(addr, "/") {
			ip, _, err := net.ParseCIDR(addr)
			if err != nil {
				continue
			}
			if !ip.IsPrivate() && !ip.IsLoopback() {
				return true
			}
			continue
		}
		ip := net.ParseIP(addr)
		if ip != nil && !ip.IsPrivate() && !ip.IsLoopback() {
			return true
		}
	}
	return false
}

var _ ports.Synthesizer = (*Synthesizer)(nil)
