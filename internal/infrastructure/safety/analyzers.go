package safety

import (
	"fmt"
	"net"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/infrastructure/synthesis"
)

// Families whose commands demand an authenticated session.
var sensitiveFamilies = map[domain.CommandType]bool{
	domain.CommandConfig: true,
	domain.CommandIntel:  true,
}

// Configuration keys whose change can sever connectivity.
var connectivityCriticalKeys = []string{"network", "firewall", "dns", "gateway", "interface", "proxy"}

// Public cloud ranges checked by the target analyzer. Coarse by intent:
// the point is flagging scans that leave the building, not an exact
// registry.
var cloudRanges = []string{
	"3.0.0.0/8",     // AWS
	"13.64.0.0/11",  // Azure
	"34.64.0.0/10",  // GCP
	"104.16.0.0/13", // Cloudflare
}

// analyzeSensitiveData scans the preview and every parameter value for
// credential-like tokens.
func analyzeSensitiveData(cmd *domain.CandidateCommand) []string {
	var risks []string
	haystacks := []string{cmd.Preview}
	for _, values := range cmd.Parameters {
		haystacks = append(haystacks, values...)
	}
	for _, p := range sensitivePatterns {
		for _, h := range haystacks {
			if p.re.MatchString(h) {
				risks = append(risks, p.message)
				break
			}
		}
	}
	return risks
}

// analyzeFamily applies family-specific rules. elevate is true when the
// family analysis demands a one-step safety elevation.
func analyzeFamily(cmd *domain.CandidateCommand) (risks []string, elevate bool) {
	switch {
	case cmd.SubAction == "scan":
		scanType := cmd.Parameters.Get("scan-type")
		if scanType == "deep" || scanType == "full" {
			risks = append(risks, fmt.Sprintf("Intensive %s scan generates significant traffic and load", scanType))
			elevate = true
		}
		if externalTargets(cmd.Parameters["targets"]) > 0 {
			risks = append(risks, "External targets: scanning addresses outside private ranges")
			elevate = true
		}
		if cmd.HasFlag("aggressive") {
			risks = append(risks, "Aggressive scan mode may disrupt fragile services")
		}

	case cmd.Type == domain.CommandConfig:
		key := strings.ToLower(cmd.Parameters.Get("key"))
		for _, critical := range connectivityCriticalKeys {
			if strings.Contains(key, critical) {
				risks = append(risks, fmt.Sprintf("Connectivity-critical configuration key %q", key))
				elevate = true
				break
			}
		}

	case cmd.Type == domain.CommandIntel:
		if source := cmd.Parameters.Get("source"); source != "" && source != "local" {
			risks = append(risks, "Outbound data sharing: query leaves the local intelligence store")
		}

	case cmd.Type == domain.CommandThreat && cmd.SubAction == "block":
		for _, t := range cmd.Parameters["targets"] {
			if strings.Contains(t, "*") || strings.Contains(t, "/0") {
				risks = append(risks, "Wildcard block scope: may cut off legitimate traffic")
				break
			}
		}
	}
	return risks, elevate
}

// analyzeTargets inspects the target list for breadth, wildcards, and
// public/cloud addresses.
func analyzeTargets(cmd *domain.CandidateCommand, cidrPrefixThreshold, maxTargets int) []string {
	var risks []string
	targets := cmd.Parameters["targets"]

	for _, t := range targets {
		if strings.Contains(t, "*") || strings.HasSuffix(t, ".255") || t == "255.255.255.255" {
			risks = append(risks, fmt.Sprintf("Broadcast or wildcard address %q in target list", t))
			continue
		}
		if strings.Contains(t, "/") {
			ip, network, err := net.ParseCIDR(t)
			if err != nil {
				continue
			}
			if ones, _ := network.Mask.Size(); ones < cidrPrefixThreshold {
				risks = append(risks, fmt.Sprintf("Broad CIDR range %s covers a very large address space", t))
			}
			if inCloudRange(ip) {
				risks = append(risks, fmt.Sprintf("Target %s falls in a known public cloud range", t))
			}
			continue
		}
		if ip := net.ParseIP(t); ip != nil && inCloudRange(ip) {
			risks = append(risks, fmt.Sprintf("Target %s falls in a known public cloud range", t))
		}
	}

	if maxTargets > 0 && len(targets) > maxTargets {
		risks = append(risks, fmt.Sprintf("Performance: %d targets exceeds the recommended batch size", len(targets)))
	}
	return risks
}

// escalationSequence is the reconnaissance fingerprint checked against the
// last three intents.
var escalationSequence = []domain.IntentType{
	domain.IntentShowStatus,
	domain.IntentScanThreats,
	domain.IntentScanNetwork,
}

// analyzeContext applies rules that only make sense with conversation
// history available.
func analyzeContext(cmd *domain.CandidateCommand, convCtx *domain.ConversationContext) []string {
	if convCtx == nil {
		return nil
	}
	var risks []string

	same := 0
	for _, prev := range convCtx.RecentCommands.Items() {
		if prev.Type == cmd.Type {
			same++
		}
	}
	if same >= 3 {
		risks = append(risks, fmt.Sprintf("Repetition: %d of the last %d commands targeted the %s family", same, convCtx.RecentCommands.Len(), cmd.Type))
	}

	if convCtx.Session.Auth != domain.AuthStatusAuthenticated && sensitiveFamilies[cmd.Type] {
		risks = append(risks, "Unauthenticated session attempting a sensitive command family")
	}

	intents := convCtx.RecentIntents.Items()
	if len(intents) >= len(escalationSequence) {
		tail := intents[len(intents)-len(escalationSequence):]
		matched := true
		for i, step := range escalationSequence {
			if tail[i].Type != step {
				matched = false
				break
			}
		}
		if matched {
			risks = append(risks, "Reconnaissance pattern: status, threat scan, and network scan in sequence")
		}
	}
	return risks
}

func externalTargets(targets []string) int {
	count := 0
	for _, t := range targets {
		if t == synthesis.AutoDetectSentinel {
			continue
		}
		addr := t
		if strings.Contains(addr, "/") {
			ip, _, err := net.ParseCIDR(addr)
			if err != nil {
				continue
			}
			if !ip.IsPrivate() && !ip.IsLoopback() {
				count++
			}
			continue
		}
		if ip := net.ParseIP(addr); ip != nil && !ip.IsPrivate() && !ip.IsLoopback() {
			count++
		}
	}
	return count
}

func inCloudRange(ip net.IP) bool {
	for _, cidr := range cloudRanges {
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			continue
		}
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
