package filter

// Outcome is the closed set of results a filter can produce.
type Outcome string

const (
	OutcomePassed  Outcome = "passed"
	OutcomeFailed  Outcome = "failed"
	OutcomeError   Outcome = "error"
	OutcomeSkipped Outcome = "skipped"
)

// Verdict is one filter's annotation on a token. Stored under
// "<filter>_analysis" in the token's verdict map.
type Verdict struct {
	Outcome Outcome     `json:"outcome"`
	Score   *float64    `json:"score,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Err     string      `json:"error,omitempty"`
	Raw     interface{} `json:"raw,omitempty"`
}

func Passed() Verdict {
	return Verdict{Outcome: OutcomePassed}
}

func Failed(reason string) Verdict {
	return Verdict{Outcome: OutcomeFailed, Reason: reason}
}

func Errored(msg string) Verdict {
	return Verdict{Outcome: OutcomeError, Err: msg}
}

func Skipped(reason string) Verdict {
	return Verdict{Outcome: OutcomeSkipped, Reason: reason}
}

func (v Verdict) WithScore(score float64) Verdict {
	v.Score = &score
	return v
}

func (v Verdict) WithRaw(raw interface{}) Verdict {
	v.Raw = raw
	return v
}

// Bad reports whether the verdict counts as a failure for aggregation:
// explicit failure or an unrecovered error. Skipped never fails.
func (v Verdict) Bad() bool {
	return v.Outcome == OutcomeFailed || v.Outcome == OutcomeError
}
