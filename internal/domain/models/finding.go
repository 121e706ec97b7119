package models

// Severity grades a single finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityCaution Severity = "caution"
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Verdict is derived from the aggregated risk score.
type Verdict string

const (
	VerdictClear   Verdict = "clear"
	VerdictCaution Verdict = "caution"
	VerdictWarning Verdict = "warning"
	VerdictDanger  Verdict = "danger"
)

// Finding is emitted by a check that did not pass.
type Finding struct {
	ID        string   `json:"id"`
	Severity  Severity `json:"severity"`
	Title     string   `json:"title"`
	Detail    string   `json:"detail"`
	RiskScore int      `json:"riskScore"`
}

// CheckResult records one check evaluation. Severity, Detail and RiskScore are
// set only when Passed is false.
type CheckResult struct {
	ID        string   `json:"id"`
	Passed    bool     `json:"passed"`
	Title     string   `json:"title"`
	Severity  Severity `json:"severity,omitempty"`
	Detail    string   `json:"detail,omitempty"`
	RiskScore int      `json:"riskScore,omitempty"`
}

// AgentResult is the aggregated output of one agent.
type AgentResult struct {
	Checks      []CheckResult `json:"checks"`
	Triggered   []CheckResult `json:"triggered"`
	RiskScore   int           `json:"riskScore"`
	Verdict     Verdict       `json:"verdict"`
	Unavailable bool          `json:"unavailable,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Details     interface{}   `json:"details,omitempty"`
}
