package domain

// Status is the risk tier of an analysis derived from its score.
type Status string

const (
	// StatusSafe is a score of 70 or more.
	StatusSafe Status = "safe"
	// StatusWarning is a score in [50,70).
	StatusWarning Status = "warning"
	// StatusDanger is a score below 50.
	StatusDanger Status = "danger"
)

// StatusFromScore maps a security score to its risk tier.
func StatusFromScore(score int) Status {
	switch {
	case score >= 70:
		return StatusSafe
	case score >= 50:
		return StatusWarning
	default:
		return StatusDanger
	}
}

// HistoryEntry is the lightweight record kept for every completed analysis.
type HistoryEntry struct {
	ID            string     `json:"id"`
	Query         string     `json:"query"`
	IP            string     `json:"ip"`
	Type          TargetType `json:"type"`
	SecurityScore int        `json:"securityScore"`
	// Timestamp is the record time in epoch milliseconds.
	Timestamp int64  `json:"timestamp"`
	Country   string `json:"country"`
	Status    Status `json:"status"`
	FromCache bool   `json:"fromCache"`
}
