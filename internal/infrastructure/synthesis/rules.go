package synthesis

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/doeshing/opsentry/internal/domain"
)

// Rule is one static intent→command mapping. Rules are loaded once at
// startup and never mutated afterwards.
type Rule struct {
	Intent               string            `yaml:"intent"`
	Command              string            `yaml:"command"`
	SubAction            string            `yaml:"sub_action"`
	Description          string            `yaml:"description"`
	BaseSafety           string            `yaml:"base_safety"`
	RequiresConfirmation bool              `yaml:"requires_confirmation"`
	BaseDurationMS       int64             `yaml:"base_duration_ms"`
	EntityParams         map[string]string `yaml:"entity_params"`
	Defaults             map[string]string `yaml:"defaults"`
	Params               []domain.ParamSpec `yaml:"params"`
}

// RulesFile is the YAML schema root for the synthesis rule table.
type RulesFile struct {
	Rules struct {
		Commands []Rule `yaml:"commands"`
	} `yaml:"rules"`
}

// RuleSet indexes rules by intent type.
type RuleSet struct {
	byIntent map[domain.IntentType]Rule
}

// LoadRules reads the rule table from disk, falling back to the compiled-in
// defaults when the file is missing or empty.
func LoadRules(path string) (*RuleSet, error) {
	rules := defaultRules()
	if path != "" {
		data, err := os.ReadFile(path)
		if err == nil {
			var file RulesFile
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, err
			}
			if len(file.Rules.Commands) > 0 {
				rules = file.Rules.Commands
			}
		}
	}

	set := &RuleSet{byIntent: make(map[domain.IntentType]Rule, len(rules))}
	for _, r := range rules {
		set.byIntent[domain.IntentType(r.Intent)] = r
	}
	return set, nil
}

// For returns the rule registered for an intent type.
func (s *RuleSet) For(intent domain.IntentType) (Rule, bool) {
	r, ok := s.byIntent[intent]
	return r, ok
}

// declares reports whether the rule's closed schema names the parameter.
func (r Rule) declares(param string) bool {
	for _, p := range r.Params {
		if p.Name == param {
			return true
		}
	}
	return false
}

// isMulti reports whether the parameter accumulates multiple values.
func (r Rule) isMulti(param string) bool {
	for _, p := range r.Params {
		if p.Name == param {
			return p.Multi
		}
	}
	return false
}

func defaultRules() []Rule {
	return []Rule{
		{
			Intent:         string(domain.IntentScanThreats),
			Command:        string(domain.CommandThreat),
			SubAction:      "scan",
			Description:    "Scan targets for known threats",
			BaseSafety:     string(domain.SafetyMedium),
			BaseDurationMS: 30000,
			EntityParams: map[string]string{
				"ip_address": "targets",
				"cidr":       "targets",
				"scan_type":  "scan-type",
				"severity":   "severity",
			},
			Params: []domain.ParamSpec{
				{Name: "targets", Required: true, Multi: true},
				{Name: "scan-type"},
				{Name: "severity"},
				{Name: "output-format"},
			},
		},
		{
			Intent:         string(domain.IntentScanNetwork),
			Command:        string(domain.CommandNetwork),
			SubAction:      "scan",
			Description:    "Map hosts and services on the network",
			BaseSafety:     string(domain.SafetyMedium),
			BaseDurationMS: 45000,
			EntityParams: map[string]string{
				"ip_address": "targets",
				"cidr":       "targets",
				"scan_type":  "scan-type",
			},
			Params: []domain.ParamSpec{
				{Name: "targets", Required: true, Multi: true},
				{Name: "scan-type"},
				{Name: "output-format"},
			},
		},
		{
			Intent:               string(domain.IntentBlockThreat),
			Command:              string(domain.CommandThreat),
			SubAction:            "block",
			Description:          "Block a threat indicator or address",
			BaseSafety:           string(domain.SafetyHigh),
			RequiresConfirmation: true,
			BaseDurationMS:       5000,
			EntityParams: map[string]string{
				"ip_address": "targets",
				"indicator":  "indicator",
			},
			Params: []domain.ParamSpec{
				{Name: "targets", Required: true, Multi: true},
				{Name: "indicator"},
				{Name: "reason"},
			},
		},
		{
			Intent:         string(domain.IntentShowStatus),
			Command:        string(domain.CommandStatus),
			SubAction:      "show",
			Description:    "Show platform status",
			BaseSafety:     string(domain.SafetySafe),
			BaseDurationMS: 2000,
			Params: []domain.ParamSpec{
				{Name: "component"},
				{Name: "output-format"},
			},
		},
		{
			Intent:         string(domain.IntentAuthenticate),
			Command:        string(domain.CommandAuth),
			SubAction:      "login",
			Description:    "Authenticate the current user",
			BaseSafety:     string(domain.SafetyLow),
			BaseDurationMS: 10000,
			EntityParams: map[string]string{
				"user": "user",
			},
			Params: []domain.ParamSpec{
				{Name: "user"},
			},
		},
		{
			Intent:         string(domain.IntentLogout),
			Command:        string(domain.CommandAuth),
			SubAction:      "logout",
			Description:    "End the authenticated session",
			BaseSafety:     string(domain.SafetySafe),
			BaseDurationMS: 1000,
		},
		{
			Intent:         string(domain.IntentMonitorBehavior),
			Command:        string(domain.CommandBehavior),
			SubAction:      "monitor",
			Description:    "Monitor user or system behavior",
			BaseSafety:     string(domain.SafetyLow),
			BaseDurationMS: 15000,
			EntityParams: map[string]string{
				"user":       "user",
				"time_range": "window",
			},
			Defaults: map[string]string{
				"window": "15m",
			},
			Params: []domain.ParamSpec{
				{Name: "user"},
				{Name: "window"},
				{Name: "output-format"},
			},
		},
		{
			Intent:         string(domain.IntentQueryIntel),
			Command:        string(domain.CommandIntel),
			SubAction:      "query",
			Description:    "Query threat intelligence sources",
			BaseSafety:     string(domain.SafetyMedium),
			BaseDurationMS: 20000,
			EntityParams: map[string]string{
				"indicator":  "indicator",
				"ip_address": "indicator",
			},
			Defaults: map[string]string{
				// Local lookups by default; outbound sharing is opt-in.
				"source": "local",
				"limit":  "10",
			},
			Params: []domain.ParamSpec{
				{Name: "indicator", Required: true, Multi: true},
				{Name: "source"},
				{Name: "limit"},
				{Name: "output-format"},
			},
		},
		{
			Intent:               string(domain.IntentUpdateConfig),
			Command:              string(domain.CommandConfig),
			SubAction:            "set",
			Description:          "Change a platform configuration key",
			BaseSafety:           string(domain.SafetyHigh),
			RequiresConfirmation: true,
			BaseDurationMS:       3000,
			EntityParams: map[string]string{
				"config_key":   "key",
				"config_value": "value",
			},
			Params: []domain.ParamSpec{
				{Name: "key", Required: true},
				{Name: "value", Required: true},
			},
		},
	}
}
