package domain

import "time"

// TargetType is the category of an analyzed target.
type TargetType string

const (
	// TargetIPv4 is a dotted-quad IPv4 address.
	TargetIPv4 TargetType = "ipv4"
	// TargetIPv6 is an IPv6 address.
	TargetIPv6 TargetType = "ipv6"
	// TargetDomain is a domain name resolved through the synthetic path.
	TargetDomain TargetType = "domain"
	// TargetASN is an autonomous system reported by the backend.
	TargetASN TargetType = "asn"
)

// IsIP reports whether the target type is an IP address.
func (t TargetType) IsIP() bool {
	return t == TargetIPv4 || t == TargetIPv6
}

// RiskLevel grades a single exposed service.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Text returns the human readable label of the risk level.
func (r RiskLevel) Text() string {
	switch r {
	case RiskHigh:
		return "High risk"
	case RiskMedium:
		return "Medium risk"
	default:
		return "Low risk"
	}
}

// ReputationStatus is the verdict of a reputation source.
type ReputationStatus string

const (
	ReputationClean      ReputationStatus = "clean"
	ReputationSuspicious ReputationStatus = "suspicious"
	ReputationMalicious  ReputationStatus = "malicious"
)

// Text returns the human readable label of the status.
func (s ReputationStatus) Text() string {
	switch s {
	case ReputationMalicious:
		return "Malicious"
	case ReputationSuspicious:
		return "Suspicious"
	default:
		return "Clean"
	}
}

// Priority orders recommendations.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
	PriorityInfo   Priority = "info"
)

// Geolocation describes where a target is hosted. All fields are always
// populated.
type Geolocation struct {
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Region      string  `json:"region"`
	City        string  `json:"city"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Timezone    string  `json:"timezone"`
	ISP         string  `json:"isp"`
	ASN         string  `json:"asn"`
	ASNOrg      string  `json:"asnOrg"`
}

// Service is one exposed network service.
type Service struct {
	Port      int       `json:"port"`
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	RiskLevel RiskLevel `json:"riskLevel"`
	RiskText  string    `json:"riskText"`
}

// Reputation is the verdict of one reputation source.
type Reputation struct {
	Name       string           `json:"name"`
	Status     ReputationStatus `json:"status"`
	StatusText string           `json:"statusText"`
	Details    string           `json:"details,omitempty"`
	// Confidence is in [0,100].
	Confidence int `json:"confidence"`
}

// Recommendation is an action suggested to the user.
type Recommendation struct {
	Priority    Priority `json:"priority"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Action      string   `json:"action,omitempty"`
}

// AnalysisResult is one security assessment of a resolved target. A result
// is never mutated after construction; refreshing a target produces a new
// value.
type AnalysisResult struct {
	IP            string     `json:"ip"`
	Type          TargetType `json:"type"`
	SecurityScore int        `json:"securityScore"`
	// Timestamp is the creation time in epoch milliseconds.
	Timestamp int64 `json:"timestamp"`

	Geolocation     Geolocation      `json:"geolocation"`
	Services        []Service        `json:"services"`
	Reputation      []Reputation     `json:"reputation"`
	Recommendations []Recommendation `json:"recommendations"`
}

// Time returns the creation time of the result.
func (r *AnalysisResult) Time() time.Time {
	return time.UnixMilli(r.Timestamp)
}
