package conversation

import (
	"fmt"

	"github.com/doeshing/opsentry/internal/domain"
)

// maxSuggestions caps what one turn offers.
const maxSuggestions = 3

// intentSuggestions are the fixed next-step hints per intent type.
var intentSuggestions = map[domain.IntentType][]string{
	domain.IntentScanThreats:     {"show status", "block the findings"},
	domain.IntentScanNetwork:     {"scan the discovered hosts for threats", "show status"},
	domain.IntentBlockThreat:     {"show status", "query intel on the blocked indicator"},
	domain.IntentShowStatus:      {"scan for threats", "monitor behavior"},
	domain.IntentAuthenticate:    {"show status"},
	domain.IntentLogout:          {"login"},
	domain.IntentMonitorBehavior: {"show status"},
	domain.IntentQueryIntel:      {"block the indicator", "scan for threats"},
	domain.IntentUpdateConfig:    {"show status"},
	domain.IntentShowHelp:        {"show status", "scan for threats"},
	domain.IntentUnknown:         {"help", "show status"},
}

// suggestionsFor builds up to maxSuggestions contextual hints: the fixed
// per-intent ones, plus a repeat-pattern suggestion from the most recent
// command.
func suggestionsFor(intent domain.IntentType, convCtx *domain.ConversationContext) []string {
	suggestions := append([]string(nil), intentSuggestions[intent]...)
	if len(suggestions) == 0 {
		suggestions = append(suggestions, "help")
	}

	if convCtx != nil {
		if last, ok := convCtx.RecentCommands.Last(); ok {
			repeat := fmt.Sprintf("run %q again", last.Preview)
			if !containsSuggestion(suggestions, repeat) {
				suggestions = append(suggestions, repeat)
			}
		}
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func containsSuggestion(suggestions []string, s string) bool {
	for _, existing := range suggestions {
		if existing == s {
			return true
		}
	}
	return false
}
