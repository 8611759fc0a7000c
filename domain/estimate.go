package domain

// Estimate holds the effort estimation produced for one deadline.
type Estimate struct {
	Difficulty int      `json:"difficulty"`
	Hours      int      `json:"hours"`
	Reason     string   `json:"reason"`
	Breakdown  []string `json:"breakdown"`
}

// DefaultEstimate is substituted when the estimator fails or returns
// malformed data. Estimation failures are never fatal to a planning pass.
func DefaultEstimate() *Estimate {
	return &Estimate{
		Difficulty: 3,
		Hours:      6,
		Reason:     "estimation unavailable, defaulting to 6 hours",
		Breakdown:  []string{"Study related materials", "Complete assignment"},
	}
}

// Normalize clamps the estimate into its documented domain.
func (e *Estimate) Normalize() {
	if e.Hours < 1 {
		e.Hours = 1
	}
	if e.Difficulty < 1 {
		e.Difficulty = 1
	}
	if e.Difficulty > 5 {
		e.Difficulty = 5
	}
	if len(e.Breakdown) == 0 {
		e.Breakdown = []string{"Study"}
	}
}
