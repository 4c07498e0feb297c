package synthesis

import (
	"regexp"
	"strings"
)

// Text extraction recovers parameters and flags that entity extraction
// missed, by matching fixed regular expressions against the normalized
// input. Extractors emit canonical parameter names; the rule's schema
// decides which of them apply.

var (
	nonTextRe    = regexp.MustCompile(`[^\w\s./:=-]+`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// normalize lower-cases the input and collapses punctuation and runs of
// whitespace so extractor patterns stay simple.
func normalize(text string) string {
	t := strings.ToLower(text)
	t = nonTextRe.ReplaceAllString(t, " ")
	t = whitespaceRe.ReplaceAllString(t, " ")
	return strings.TrimSpace(t)
}

type paramExtractor struct {
	param string
	multi bool
	re    *regexp.Regexp
	// group selects the submatch carrying the value; 0 means whole match.
	group int
	// post rewrites the captured value into canonical form.
	post func(match []string) string
}

var paramExtractors = []paramExtractor{
	{
		param: "targets",
		multi: true,
		re:    regexp.MustCompile(`\b(?:\d{1,3}\.){3}\d{1,3}(?:/\d{1,2})?\b`),
	},
	{
		param: "severity",
		re:    regexp.MustCompile(`\b(critical|high|medium|low)(?: severity| threats?| alerts?| priority)\b`),
		group: 1,
	},
	{
		param: "severity",
		re:    regexp.MustCompile(`\bseverity (critical|high|medium|low)\b`),
		group: 1,
	},
	{
		param: "window",
		re:    regexp.MustCompile(`\b(?:last|past) (\d+) ?(minutes?|mins?|hours?|hrs?|days?|weeks?)\b`),
		post:  normalizeWindow,
	},
	{
		param: "scan-type",
		re:    regexp.MustCompile(`\b(quick|full|deep|stealth)(?: scan)?\b`),
		group: 1,
	},
	{
		param: "output-format",
		re:    regexp.MustCompile(`\b(?:as|in|format) (json|yaml|csv|table)\b`),
		group: 1,
	},
	{
		param: "user",
		re:    regexp.MustCompile(`\b(?:user|account) ([a-z0-9][\w.-]*)\b`),
		group: 1,
	},
	{
		param: "indicator",
		multi: true,
		re:    regexp.MustCompile(`\b(?:[a-f0-9]{64}|[a-f0-9]{40}|[a-f0-9]{32})\b`),
	},
	{
		param: "key",
		re:    regexp.MustCompile(`\b(?:set|change|update) ([a-z][\w.]*) (?:to|=)\b`),
		group: 1,
	},
	{
		param: "key",
		re:    regexp.MustCompile(`\b([a-z][\w.]*)=[\w./:-]+`),
		group: 1,
	},
	{
		param: "value",
		re:    regexp.MustCompile(`\bto ([\w./:-]+)\b`),
		group: 1,
	},
	{
		param: "value",
		re:    regexp.MustCompile(`\b[a-z][\w.]*=([\w./:-]+)`),
		group: 1,
	},
}

func normalizeWindow(match []string) string {
	amount, unit := match[1], match[2]
	switch {
	case strings.HasPrefix(unit, "min"):
		return amount + "m"
	case strings.HasPrefix(unit, "h"):
		return amount + "h"
	case strings.HasPrefix(unit, "d"):
		return amount + "d"
	case strings.HasPrefix(unit, "w"):
		return amount + "w"
	default:
		return amount + unit
	}
}

// extractParams runs every extractor whose parameter the rule declares.
// Multi-valued parameters collect every match in encounter order; scalar
// parameters take the first match only.
func extractParams(rule Rule, normalized string) map[string][]string {
	found := make(map[string][]string)
	for _, ex := range paramExtractors {
		if !rule.declares(ex.param) {
			continue
		}
		if !ex.multi {
			if len(found[ex.param]) > 0 {
				continue
			}
			m := ex.re.FindStringSubmatch(normalized)
			if m == nil {
				continue
			}
			found[ex.param] = []string{extractValue(ex, m)}
			continue
		}
		for _, m := range ex.re.FindAllStringSubmatch(normalized, -1) {
			value := extractValue(ex, m)
			if !contains(found[ex.param], value) {
				found[ex.param] = append(found[ex.param], value)
			}
		}
	}
	return found
}

func extractValue(ex paramExtractor, match []string) string {
	if ex.post != nil {
		return ex.post(match)
	}
	return match[ex.group]
}

type flagExtractor struct {
	flag string
	re   *regexp.Regexp
}

var flagExtractors = []flagExtractor{
	{flag: "verbose", re: regexp.MustCompile(`\b(verbose|detailed|with details)\b`)},
	{flag: "follow", re: regexp.MustCompile(`\b(follow|keep watching|in real time|continuously)\b`)},
	{flag: "health-check", re: regexp.MustCompile(`\bhealth( check)?\b`)},
	{flag: "aggressive", re: regexp.MustCompile(`\baggressive(ly)?\b`)},
	{flag: "quiet", re: regexp.MustCompile(`\b(quiet(ly)?|silent(ly)?)\b`)},
}

// extractFlags returns the boolean modifiers present in the text, in the
// fixed extractor order.
func extractFlags(normalized string) []string {
	var flags []string
	for _, ex := range flagExtractors {
		if ex.re.MatchString(normalized) {
			flags = append(flags, ex.flag)
		}
	}
	return flags
}

// phraseParams maps adverbial natural language onto parameter values, e.g.
// "scan the network quickly" implies a quick scan even when "quick scan"
// never appears.
var phraseParams = []struct {
	phrase string
	param  string
	value  string
}{
	{"quickly", "scan-type", "quick"},
	{"fast", "scan-type", "quick"},
	{"thoroughly", "scan-type", "deep"},
	{"in depth", "scan-type", "deep"},
	{"stealthily", "scan-type", "stealth"},
	{"without being noticed", "scan-type", "stealth"},
}

// applyPhrases fills parameters implied by adverbial phrases, never
// overriding an explicitly extracted value.
func applyPhrases(rule Rule, normalized string, params map[string][]string) {
	for _, p := range phraseParams {
		if !rule.declares(p.param) || len(params[p.param]) > 0 {
			continue
		}
		if strings.Contains(normalized, p.phrase) {
			params[p.param] = []string{p.value}
		}
	}
}

func contains(values []string, v string) bool {
	for _, item := range values {
		if item == v {
			return true
		}
	}
	return false
}
