package domain

// CommandType is the top-level domain a command belongs to.
type CommandType string

const (
	CommandAuth     CommandType = "auth"
	CommandThreat   CommandType = "threat"
	CommandNetwork  CommandType = "network"
	CommandBehavior CommandType = "behavior"
	CommandIntel    CommandType = "intel"
	CommandConfig   CommandType = "config"
	CommandHelp     CommandType = "help"
	CommandStatus   CommandType = "status"
)

// ParamValues holds the bound parameters of a command. Multi-valued
// parameters accumulate in encounter order; single-valued parameters hold
// exactly one element.
type ParamValues map[string][]string

// Get returns the first value for name, or "" when unset.
func (p ParamValues) Get(name string) string {
	if vals := p[name]; len(vals) > 0 {
		return vals[0]
	}
	return ""
}

// Has reports whether name carries at least one value.
func (p ParamValues) Has(name string) bool {
	return len(p[name]) > 0
}

// Clone returns a deep copy so a stored command is never aliased.
func (p ParamValues) Clone() ParamValues {
	out := make(ParamValues, len(p))
	for k, v := range p {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// ParamSpec declares one parameter in a command family's closed schema.
type ParamSpec struct {
	Name     string `yaml:"name"`
	Required bool   `yaml:"required"`
	Multi    bool   `yaml:"multi"`
}

// CandidateCommand is the structured command synthesized from one turn.
// Created fresh each turn and never mutated afterwards; re-synthesize to
// change it.
type CandidateCommand struct {
	Type        CommandType
	SubAction   string
	Parameters  ParamValues
	Flags       []string
	Preview     string
	Description string
	// EstimatedDurationMS is the expected runtime; -1 denotes an
	// indefinite/streaming operation.
	EstimatedDurationMS int64
	BaseSafety          SafetyLevel
	// ConfirmRequired is the synthesis rule's own confirmation demand,
	// honored by the validator regardless of computed risk.
	ConfirmRequired bool
	Warnings        []string

	// Provenance flags.
	ContextInferred bool
	AutoCompleted   bool
}

// HasFlag reports whether the command carries the named boolean flag.
func (c *CandidateCommand) HasFlag(name string) bool {
	for _, f := range c.Flags {
		if f == name {
			return true
		}
	}
	return false
}
