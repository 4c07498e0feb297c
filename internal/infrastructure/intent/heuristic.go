// Package intent provides the built-in heuristic intent parser. It is the
// offline stand-in for the external extraction model: keyword dispatch for
// the intent type, fixed regexes for entities. Identical text and context
// always classify identically.
package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// HeuristicParser implements ports.IntentParser with no model behind it.
type HeuristicParser struct{}

// NewHeuristicParser builds the parser.
func NewHeuristicParser() *HeuristicParser {
	return &HeuristicParser{}
}

var (
	cidrRe      = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}/\d{1,2}\b`)
	ipRe        = regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}\b`)
	severityRe  = regexp.MustCompile(`\b(critical|high|medium|low)\b`)
	scanTypeRe  = regexp.MustCompile(`\b(quick|full|deep|stealth)\b`)
	hashRe      = regexp.MustCompile(`\b(?:[a-f0-9]{64}|[a-f0-9]{40}|[a-f0-9]{32})\b`)
	timeRangeRe = regexp.MustCompile(`\b(?:last|past)\s+\d+\s*(?:minutes?|mins?|hours?|hrs?|days?|weeks?)\b`)
	userRe      = regexp.MustCompile(`\b(?:user|account)\s+([a-z0-9][\w.-]*)`)
)

// classification rules are checked in order; the first match wins, which
// keeps "scan the network" from landing on the generic scan intent.
var classifiers = []struct {
	intent domain.IntentType
	any    []string
	all    []string
}{
	{intent: domain.IntentShowHelp, any: []string{"help", "what can you do", "how do i"}},
	{intent: domain.IntentClearSession, any: []string{"clear session", "reset session", "start over", "forget"}},
	{intent: domain.IntentLogout, any: []string{"logout", "log out", "sign out"}},
	{intent: domain.IntentAuthenticate, any: []string{"login", "log in", "sign in", "authenticate"}},
	{intent: domain.IntentScanNetwork, all: []string{"scan"}, any: []string{"network", "subnet", "hosts", "ports"}},
	{intent: domain.IntentScanNetwork, any: []string{"network scan", "port scan", "map the network", "discover hosts"}},
	{intent: domain.IntentBlockThreat, any: []string{"block", "quarantine", "isolate"}},
	{intent: domain.IntentScanThreats, any: []string{"scan", "check for threats", "look for malware", "find threats"}},
	{intent: domain.IntentMonitorBehavior, any: []string{"monitor", "watch", "keep an eye"}},
	{intent: domain.IntentQueryIntel, any: []string{"intel", "reputation", "lookup", "look up", "threat information"}},
	{intent: domain.IntentUpdateConfig, any: []string{"config", "configure", "setting", "set "}},
	{intent: domain.IntentShowStatus, any: []string{"status", "health", "how are things", "dashboard"}},
}

// Parse implements ports.IntentParser.
func (p *HeuristicParser) Parse(_ context.Context, text string, convCtx *domain.ConversationContext) (domain.ParseResult, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	result := domain.ParseResult{OriginalText: text}

	intentType := classify(lower)
	entities := extractEntities(lower)

	confidence := domain.ConfidenceVeryLow
	switch {
	case intentType == domain.IntentUnknown:
		confidence = domain.ConfidenceVeryLow
	case len(entities) > 0:
		confidence = domain.ConfidenceHigh
	default:
		confidence = domain.ConfidenceMedium
	}
	// A follow-up in an ongoing topic reads less ambiguous than a cold
	// utterance.
	if convCtx != nil && confidence == domain.ConfidenceHigh {
		if last, ok := convCtx.RecentIntents.Last(); ok && last.Type == intentType {
			confidence = domain.ConfidenceVeryHigh
		}
	}

	result.Intent = domain.Intent{Type: intentType, Confidence: confidence}
	result.Entities = entities
	if intentType == domain.IntentUnknown {
		result.ClarificationPrompt = "I could not work out what you want to do. Try something like \"scan 192.168.1.0/24 for threats\" or \"show status\"."
	}
	return result, nil
}

func classify(lower string) domain.IntentType {
	for _, c := range classifiers {
		if !containsAll(lower, c.all) {
			continue
		}
		if len(c.any) == 0 || containsAny(lower, c.any) {
			return c.intent
		}
	}
	return domain.IntentUnknown
}

func extractEntities(lower string) []domain.Entity {
	var entities []domain.Entity
	seen := make(map[string]bool)
	add := func(entityType, value string) {
		key := entityType + "\x00" + value
		if value != "" && !seen[key] {
			seen[key] = true
			entities = append(entities, domain.Entity{Type: entityType, Value: value})
		}
	}

	for _, m := range cidrRe.FindAllString(lower, -1) {
		add("cidr", m)
	}
	withoutCIDRs := cidrRe.ReplaceAllString(lower, " ")
	for _, m := range ipRe.FindAllString(withoutCIDRs, -1) {
		add("ip_address", m)
	}
	if m := severityRe.FindString(lower); m != "" {
		add("severity", m)
	}
	if m := scanTypeRe.FindString(lower); m != "" {
		add("scan_type", m)
	}
	for _, m := range hashRe.FindAllString(lower, -1) {
		add("indicator", m)
	}
	if m := timeRangeRe.FindString(lower); m != "" {
		add("time_range", m)
	}
	if m := userRe.FindStringSubmatch(lower); m != nil {
		add("user", m[1])
	}
	return entities
}

func containsAll(haystack string, needles []string) bool {
	for _, n := range needles {
		if !strings.Contains(haystack, n) {
			return false
		}
	}
	return true
}

func containsAny(haystack string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(haystack, n) {
			return true
		}
	}
	return false
}

var _ ports.IntentParser = (*HeuristicParser)(nil)
