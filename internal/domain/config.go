package domain

// Config mirrors ~/.opsentry/config.yaml. Environment variables named in
// the env tags override file values after load.
type Config struct {
	ConfigFormatVersion string               `yaml:"config_format_version"`
	Preferences         Preferences          `yaml:"preferences"`
	Safety              SafetySettings       `yaml:"safety"`
	Synthesis           SynthesisSettings    `yaml:"synthesis"`
	Confirmation        ConfirmationSettings `yaml:"confirmation"`
	Execution           ExecutionSettings    `yaml:"execution"`
	Store               StoreSettings        `yaml:"store"`
}

// SafetySettings tunes the validator thresholds. The numeric thresholds are
// deliberately configuration, not constants: the source material gives no
// derivation for them.
type SafetySettings struct {
	Enabled bool `yaml:"enabled"`
	// RulesFile points at the destructive-pattern YAML; empty means the
	// compiled-in defaults.
	RulesFile string `yaml:"rules_file" env:"OPSENTRY_SAFETY_RULES"`
	// ConfirmationThreshold is the safety level at which confirmation is
	// demanded even without other triggers.
	ConfirmationThreshold string `yaml:"confirmation_threshold" env:"OPSENTRY_CONFIRM_THRESHOLD"`
	// RiskCountThreshold forces confirmation once this many distinct risks
	// accumulate.
	RiskCountThreshold int `yaml:"risk_count_threshold" env:"OPSENTRY_RISK_COUNT_THRESHOLD"`
	// CIDRPrefixThreshold: prefixes shorter than this count as broad scans.
	CIDRPrefixThreshold int `yaml:"cidr_prefix_threshold" env:"OPSENTRY_CIDR_THRESHOLD"`
	// MaxTargets before a performance risk is raised.
	MaxTargets int `yaml:"max_targets"`
}

// SynthesisSettings tunes the command synthesizer.
type SynthesisSettings struct {
	RulesFile           string `yaml:"rules_file" env:"OPSENTRY_SYNTHESIS_RULES"`
	ContextualInference bool   `yaml:"contextual_inference"`
}

// ConfirmationSettings controls the pending-confirmation state machine.
type ConfirmationSettings struct {
	TimeoutSeconds int `yaml:"timeout" env:"OPSENTRY_CONFIRM_TIMEOUT"`
}

// ExecutionSettings controls the execution router.
type ExecutionSettings struct {
	AllowedCommands       []string `yaml:"allowed_commands"`
	DeniedCommands        []string `yaml:"denied_commands"`
	HandlerTimeoutSeconds int      `yaml:"handler_timeout" env:"OPSENTRY_HANDLER_TIMEOUT"`
}

// StoreSettings configures session persistence.
type StoreSettings struct {
	Path string `yaml:"path" env:"OPSENTRY_STORE_PATH"`
}
