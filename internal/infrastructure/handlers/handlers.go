// Package handlers provides the built-in domain handlers, one per command
// family. They are deterministic offline stand-ins for the real platform
// services: each renders a plausible result from its inputs and never
// panics, matching the handler contract.
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/doeshing/opsentry/internal/domain"
	"github.com/doeshing/opsentry/internal/ports"
)

// Registry builds the default handler map keyed by command family.
func Registry() map[domain.CommandType]ports.DomainHandler {
	return map[domain.CommandType]ports.DomainHandler{
		domain.CommandAuth:     authHandler{},
		domain.CommandThreat:   threatHandler{},
		domain.CommandNetwork:  networkHandler{},
		domain.CommandBehavior: behaviorHandler{},
		domain.CommandIntel:    intelHandler{},
		domain.CommandConfig:   configHandler{},
		domain.CommandHelp:     helpHandler{},
		domain.CommandStatus:   statusHandler{},
	}
}

type authHandler struct{}

func (authHandler) Execute(_ context.Context, subAction string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	switch subAction {
	case "login":
		user := params.Get("user")
		if user == "" {
			user = "current user"
		}
		return domain.HandlerResult{
			Output:      fmt.Sprintf("Authentication flow started for %s.", user),
			Suggestions: []string{"show status"},
		}
	case "logout":
		return domain.HandlerResult{Output: "Session ended. You are now unauthenticated."}
	default:
		return domain.HandlerResult{Err: fmt.Sprintf("unknown auth action %q", subAction)}
	}
}

type threatHandler struct{}

func (threatHandler) Execute(_ context.Context, subAction string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	switch subAction {
	case "scan":
		return domain.HandlerResult{
			Output: fmt.Sprintf("Threat scan queued: %s (%s intensity).",
				describeTargets(params["targets"]), orDefault(params.Get("scan-type"), "quick")),
			Suggestions: []string{"show status", "query intel on findings"},
		}
	case "block":
		return domain.HandlerResult{
			Output:   fmt.Sprintf("Block rule installed for %s.", describeTargets(params["targets"])),
			Warnings: []string{"Blocked addresses stay blocked until removed explicitly."},
		}
	default:
		return domain.HandlerResult{Err: fmt.Sprintf("unknown threat action %q", subAction)}
	}
}

type networkHandler struct{}

func (networkHandler) Execute(_ context.Context, subAction string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	if subAction != "scan" {
		return domain.HandlerResult{Err: fmt.Sprintf("unknown network action %q", subAction)}
	}
	return domain.HandlerResult{
		Output: fmt.Sprintf("Network discovery queued: %s (%s intensity).",
			describeTargets(params["targets"]), orDefault(params.Get("scan-type"), "quick")),
	}
}

type behaviorHandler struct{}

func (behaviorHandler) Execute(_ context.Context, subAction string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	if subAction != "monitor" {
		return domain.HandlerResult{Err: fmt.Sprintf("unknown behavior action %q", subAction)}
	}
	subject := orDefault(params.Get("user"), "all users")
	return domain.HandlerResult{
		Output: fmt.Sprintf("Behavior monitor armed for %s over a %s window.",
			subject, orDefault(params.Get("window"), "15m")),
	}
}

type intelHandler struct{}

func (intelHandler) Execute(_ context.Context, _ string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	indicators := params["indicator"]
	if len(indicators) == 0 {
		return domain.HandlerResult{Err: "no indicator to look up"}
	}
	return domain.HandlerResult{
		Output: fmt.Sprintf("Intelligence lookup for %d indicator(s) against the %s store: no prior sightings recorded.",
			len(indicators), orDefault(params.Get("source"), "local")),
	}
}

type configHandler struct{}

func (configHandler) Execute(_ context.Context, _ string, params domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	key := params.Get("key")
	if key == "" || strings.HasPrefix(key, "_") {
		return domain.HandlerResult{Err: "configuration key could not be resolved from the request"}
	}
	return domain.HandlerResult{
		Output:   fmt.Sprintf("Configuration key %q set to %q.", key, params.Get("value")),
		Warnings: []string{"Configuration changes apply immediately."},
	}
}

type helpHandler struct{}

func (helpHandler) Execute(_ context.Context, _ string, _ domain.ParamValues, _ *domain.ConversationContext) domain.HandlerResult {
	return domain.HandlerResult{Output: HelpText()}
}

type statusHandler struct{}

func (statusHandler) Execute(_ context.Context, _ string, params domain.ParamValues, convCtx *domain.ConversationContext) domain.HandlerResult {
	component := orDefault(params.Get("component"), "platform")
	lines := []string{fmt.Sprintf("%s: operational", component)}
	if convCtx != nil {
		lines = append(lines, fmt.Sprintf("session interactions: %d", convCtx.Session.TotalInteractions))
	}
	return domain.HandlerResult{Output: strings.Join(lines, "\n")}
}

// HelpText summarizes the command families, in a fixed order.
func HelpText() string {
	families := map[string]string{
		"threat":   "scan for and block threats",
		"network":  "map hosts and services",
		"behavior": "monitor user and system behavior",
		"intel":    "query threat intelligence",
		"auth":     "log in and out",
		"config":   "change platform configuration",
		"status":   "show platform status",
	}
	names := make([]string, 0, len(families))
	for name := range families {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString("Available command families:\n")
	for _, name := range names {
		fmt.Fprintf(&b, "  %-9s %s\n", name, families[name])
	}
	b.WriteString("Describe what you want in plain language, e.g. \"scan 10.0.0.0/24 for threats\".")
	return b.String()
}

func describeTargets(targets []string) string {
	visible := make([]string, 0, len(targets))
	for _, t := range targets {
		if !strings.HasPrefix(t, "_") {
			visible = append(visible, t)
		}
	}
	if len(visible) == 0 {
		return "no targets"
	}
	return strings.Join(visible, ", ")
}

func orDefault(value, fallback string) string {
	if value == "" || strings.HasPrefix(value, "_") {
		return fallback
	}
	return value
}
