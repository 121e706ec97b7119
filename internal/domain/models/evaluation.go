package models

import "time"

// EvaluationResult is the orchestrator response. Optional agents that were not
// requested are nil.
type EvaluationResult struct {
	Order      Order             `json:"order"`
	Horizon    Horizon           `json:"horizon"`
	Timestamp  time.Time         `json:"timestamp"`
	Positions  []Position        `json:"positions"`
	Orders     []OrderSnapshot   `json:"orders"`
	Sentiment  *Sentiment        `json:"sentiment"`
	Sector     *SectorSnapshot   `json:"sector"`
	VIX        *float64          `json:"vix"`
	Behavioral AgentResult       `json:"behavioral"`
	Structure  *AgentResult      `json:"structure"`
	Pattern    *AgentResult      `json:"pattern"`
	Station    *AgentResult      `json:"station"`
	Errors     map[string]string `json:"errors,omitempty"`
}

// EvaluationRecord is one audit row. Agent scores are -1 when the agent was
// not requested or was unavailable.
type EvaluationRecord struct {
	Time            time.Time `json:"time"`
	Symbol          string    `json:"symbol"`
	Exchange        string    `json:"exchange"`
	TransactionType string    `json:"transactionType"`
	Horizon         string    `json:"horizon"`
	Behavioral      int       `json:"behavioral"`
	Structure       int       `json:"structure"`
	Pattern         int       `json:"pattern"`
	Station         int       `json:"station"`
	MaxScore        int       `json:"maxScore"`
	Verdict         Verdict   `json:"verdict"`
	SourceErrors    int       `json:"sourceErrors"`
}
