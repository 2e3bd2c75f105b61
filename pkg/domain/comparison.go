package domain

// Comparison is a full analysis result saved for side-by-side viewing.
type Comparison struct {
	ID     string         `json:"id"`
	Query  string         `json:"query"`
	Result AnalysisResult `json:"result"`
	// Timestamp is the save time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`
}
