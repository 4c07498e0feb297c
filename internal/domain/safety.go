package domain

// SafetyLevel is the ordered risk classification of a command.
type SafetyLevel string

const (
	SafetySafe     SafetyLevel = "safe"
	SafetyLow      SafetyLevel = "low"
	SafetyMedium   SafetyLevel = "medium"
	SafetyHigh     SafetyLevel = "high"
	SafetyCritical SafetyLevel = "critical"
)

var safetyScores = map[SafetyLevel]int{
	SafetySafe:     0,
	SafetyLow:      1,
	SafetyMedium:   2,
	SafetyHigh:     3,
	SafetyCritical: 4,
}

// Score maps the level onto its position in the safe..critical ordering.
func (l SafetyLevel) Score() int {
	return safetyScores[l]
}

// AtLeast reports whether l meets or exceeds min on the ordering.
func (l SafetyLevel) AtLeast(min SafetyLevel) bool {
	return safetyScores[l] >= safetyScores[min]
}

// Elevate returns the next level up, capped at critical.
func (l SafetyLevel) Elevate() SafetyLevel {
	switch l {
	case SafetySafe:
		return SafetyLow
	case SafetyLow:
		return SafetyMedium
	case SafetyMedium:
		return SafetyHigh
	default:
		return SafetyCritical
	}
}

// ParseSafetyLevel maps a config string onto a SafetyLevel, defaulting to safe.
func ParseSafetyLevel(value string) SafetyLevel {
	switch SafetyLevel(value) {
	case SafetyLow, SafetyMedium, SafetyHigh, SafetyCritical:
		return SafetyLevel(value)
	default:
		return SafetySafe
	}
}

// Impact estimates the blast radius of executing a command.
type Impact string

const (
	ImpactNone   Impact = "none"
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// SafetyVerdict aggregates the safety evaluation of a candidate command.
// It is derived data: re-validating the same command against changed context
// may produce a different verdict.
type SafetyVerdict struct {
	Level                SafetyLevel
	RequiresConfirmation bool
	Risks                []string
	Mitigations          []string
	Impact               Impact
	Preview              string
}
