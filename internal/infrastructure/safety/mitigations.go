package safety

import (
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
)

// mitigationsFor derives mitigation suggestions from the risks present.
// Purely deterministic: generic advice first, then family-specific, then
// keyword-triggered additions.
func mitigationsFor(cmd *domain.CandidateCommand, risks []string) []string {
	if len(risks) == 0 {
		return nil
	}

	out := []string{"Review the rendered command before confirming"}

	switch cmd.Type {
	case domain.CommandThreat, domain.CommandNetwork:
		if cmd.SubAction == "scan" {
			out = append(out, "Narrow the target range or use a quick scan first")
		}
		if cmd.SubAction == "block" {
			out = append(out, "Verify the indicator before blocking; blocks are immediate")
		}
	case domain.CommandConfig:
		out = append(out, "Snapshot the current configuration so the change can be rolled back")
	case domain.CommandIntel:
		out = append(out, "Prefer the local intelligence store unless external enrichment is required")
	}

	joined := strings.ToLower(strings.Join(risks, " "))
	if strings.Contains(joined, "destructive") || strings.Contains(joined, "delete") {
		out = append(out, "Run against a non-production scope first")
	}
	if strings.Contains(joined, "privilege") || strings.Contains(joined, "sudo") {
		out = append(out, "Use a least-privilege account instead of elevating")
	}
	if strings.Contains(joined, "external") || strings.Contains(joined, "cloud") {
		out = append(out, "Confirm you are authorized to probe targets outside your network")
	}
	if strings.Contains(joined, "unauthenticated") {
		out = append(out, "Authenticate before running sensitive commands")
	}
	if strings.Contains(joined, "broad cidr") || strings.Contains(joined, "performance") {
		out = append(out, "Split the run into smaller target batches")
	}

	return out
}
