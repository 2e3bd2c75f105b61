package rest

// Types in this file mirror the v1 wire schema of the analysis service. They
// are richer than the client model and never leave this package; ToDomain is
// the only place they are read.

// V1Request is the body of POST /analysis/analyze.
type V1Request struct {
	Query string `json:"query"`
	Type  string `json:"type"`
}

// V1Error is the structured error body of a non-2xx response.
type V1Error struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// V1Geolocation is the geolocation block; Org is the ASN organization.
type V1Geolocation struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	ASN         string  `json:"asn"`
	Org         string  `json:"org"`
}

// V1Service is one port found open by the scan.
type V1Service struct {
	Port     int    `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
	Version  string `json:"version"`
	Banner   string `json:"banner"`
	// Vulnerabilities lists CVE identifiers.
	Vulnerabilities []string `json:"vulnerabilities"`
	RiskLevel       string   `json:"riskLevel"`
}

// V1ReputationSource is the verdict of one source. Score is in [0,100].
type V1ReputationSource struct {
	Source      string `json:"source"`
	Name        string `json:"name"`
	Status      string `json:"status"`
	StatusText  string `json:"statusText"`
	Score       int    `json:"score"`
	Details     string `json:"details"`
	LastChecked int64  `json:"lastChecked"`
}

// V1Vulnerability is one CVE matched against the detected services.
type V1Vulnerability struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Severity    string   `json:"severity"`
	CVSS        float64  `json:"cvss"`
	References  []string `json:"references"`
	Solution    string   `json:"solution"`
}

// V1Recommendation is a categorized recommendation.
type V1Recommendation struct {
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Action      string `json:"action"`
}

// V1Metadata describes how the scan was performed.
type V1Metadata struct {
	ScanDuration int64    `json:"scanDuration"`
	SourcesUsed  []string `json:"sourcesUsed"`
	Cached       bool     `json:"cached"`
	Warnings     []string `json:"warnings"`
}

// V1AnalysisResult is the success body of POST /analysis/analyze.
type V1AnalysisResult struct {
	IP              string               `json:"ip"`
	Type            string               `json:"type"`
	SecurityScore   int                  `json:"securityScore"`
	RiskLevel       string               `json:"riskLevel"`
	Timestamp       int64                `json:"timestamp"`
	Services        []V1Service          `json:"services"`
	Geolocation     *V1Geolocation       `json:"geolocation"`
	Reputation      []V1ReputationSource `json:"reputation"`
	Vulnerabilities []V1Vulnerability    `json:"vulnerabilities"`
	Recommendations []V1Recommendation   `json:"recommendations"`
	Metadata        *V1Metadata          `json:"metadata"`
}
