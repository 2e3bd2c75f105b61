package domain

// RiskDistribution counts history entries per risk tier.
type RiskDistribution struct {
	Safe    int `json:"safe"`
	Warning int `json:"warning"`
	Danger  int `json:"danger"`
}

// CountryCount is one row of the country frequency table.
type CountryCount struct {
	Country    string  `json:"country"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// DailyCount is one UTC day of the activity time series.
type DailyCount struct {
	// Date is formatted as YYYY-MM-DD.
	Date         string  `json:"date"`
	Count        int     `json:"count"`
	AverageScore float64 `json:"averageScore"`
}

// Statistics is a view derived from the history. It is always recomputable
// and is only stored as an advisory snapshot.
type Statistics struct {
	TotalAnalyses    int              `json:"totalAnalyses"`
	UniqueIPs        int              `json:"uniqueIPs"`
	AverageScore     float64          `json:"averageScore"`
	RiskDistribution RiskDistribution `json:"riskDistribution"`
	TopCountries     []CountryCount   `json:"topCountries"`
	AnalysisHistory  []DailyCount     `json:"analysisHistory"`
	RecentAnalyses   []HistoryEntry   `json:"recentAnalyses"`
}

// StatisticsSnapshot is the persisted copy of the last computed statistics.
type StatisticsSnapshot struct {
	Statistics
	// LastUpdated is the snapshot time in epoch milliseconds.
	LastUpdated int64 `json:"lastUpdated"`
}

// Export bundles everything the user can download in one document.
type Export struct {
	Statistics  Statistics     `json:"statistics"`
	History     []HistoryEntry `json:"history"`
	Comparisons []Comparison   `json:"comparisons"`
	// ExportDate is the export time in epoch milliseconds.
	ExportDate int64 `json:"exportDate"`
}
