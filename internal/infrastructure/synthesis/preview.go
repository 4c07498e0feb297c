package synthesis

import (
	"sort"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
)

// renderPreview builds the canonical command string:
//
//	<command> <subAction> [flags...] [--key value|--key v1,v2]...
//
// Parameters render in schema order so the string is stable; parameters
// and values with an underscore prefix are internal and skipped.
func renderPreview(rule Rule, cmd *domain.CandidateCommand) string {
	var b strings.Builder
	b.WriteString(string(cmd.Type))
	if cmd.SubAction != "" {
		b.WriteString(" ")
		b.WriteString(cmd.SubAction)
	}

	flags := append([]string(nil), cmd.Flags...)
	sort.Strings(flags)
	for _, flag := range flags {
		b.WriteString(" --")
		b.WriteString(flag)
	}

	seen := make(map[string]bool)
	writeParam := func(name string) {
		if seen[name] || strings.HasPrefix(name, "_") {
			return
		}
		seen[name] = true
		values := visibleValues(cmd.Parameters[name])
		if len(values) == 0 {
			return
		}
		b.WriteString(" --")
		b.WriteString(name)
		b.WriteString(" ")
		b.WriteString(strings.Join(values, ","))
	}

	for _, spec := range rule.Params {
		writeParam(spec.Name)
	}
	// Anything outside the declared schema order renders last, sorted.
	var extra []string
	for name := range cmd.Parameters {
		if !seen[name] && !strings.HasPrefix(name, "_") {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)
	for _, name := range extra {
		writeParam(name)
	}

	return b.String()
}

func visibleValues(values []string) []string {
	var out []string
	for _, v := range values {
		if !strings.HasPrefix(v, "_") {
			out = append(out, v)
		}
	}
	return out
}

// Scan intensity multipliers for duration estimation.
var intensityFactor = map[string]int64{
	"quick":   1,
	"full":    2,
	"deep":    3,
	"stealth": 4,
}

// targetFactorCap bounds how much a long target list can scale the
// estimate.
const targetFactorCap = 5

// estimateDuration scales the rule's base time by target count (capped)
// and scan intensity. Streaming operations report -1.
func estimateDuration(rule Rule, cmd *domain.CandidateCommand) int64 {
	if cmd.HasFlag("follow") {
		return -1
	}
	base := rule.BaseDurationMS
	if base <= 0 {
		return 0
	}

	targets := int64(len(visibleValues(cmd.Parameters["targets"])))
	if targets < 1 {
		targets = 1
	}
	if targets > targetFactorCap {
		targets = targetFactorCap
	}

	intensity := int64(1)
	if f, ok := intensityFactor[cmd.Parameters.Get("scan-type")]; ok {
		intensity = f
	}

	return base * targets * intensity
}
