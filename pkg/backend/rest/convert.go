package rest

import (
	"time"

	"ipinsight/pkg/domain"
)

// ToDomain projects a v1 response onto the client model.
//
//   - geolocation org becomes asnOrg
//   - service becomes name and the risk text is derived from the risk level
//   - reputation score becomes confidence, unknown verdicts count as clean
//   - ipv4, ipv6 and asn types are kept; anything else takes the requested type
//
// A missing timestamp is replaced with now.
func ToDomain(res *V1AnalysisResult, requested domain.TargetType, now time.Time) *domain.AnalysisResult {
	out := &domain.AnalysisResult{
		IP:              res.IP,
		Type:            targetType(res.Type, requested),
		SecurityScore:   clamp(res.SecurityScore),
		Timestamp:       res.Timestamp,
		Services:        make([]domain.Service, 0, len(res.Services)),
		Reputation:      make([]domain.Reputation, 0, len(res.Reputation)),
		Recommendations: make([]domain.Recommendation, 0, len(res.Recommendations)),
	}
	if out.Timestamp <= 0 {
		out.Timestamp = now.UnixMilli()
	}

	if g := res.Geolocation; g != nil {
		out.Geolocation = domain.Geolocation{
			Country:     g.Country,
			CountryCode: g.CountryCode,
			Region:      g.Region,
			City:        g.City,
			Latitude:    g.Latitude,
			Longitude:   g.Longitude,
			Timezone:    g.Timezone,
			ISP:         g.ISP,
			ASN:         g.ASN,
			ASNOrg:      g.Org,
		}
	}

	for _, s := range res.Services {
		risk := riskLevel(s.RiskLevel)
		out.Services = append(out.Services, domain.Service{
			Port:      s.Port,
			Name:      s.Service,
			Version:   s.Version,
			RiskLevel: risk,
			RiskText:  risk.Text(),
		})
	}

	for _, r := range res.Reputation {
		status := reputationStatus(r.Status)
		name := r.Name
		if name == "" {
			name = r.Source
		}
		out.Reputation = append(out.Reputation, domain.Reputation{
			Name:       name,
			Status:     status,
			StatusText: status.Text(),
			Details:    r.Details,
			Confidence: clamp(r.Score),
		})
	}

	for _, r := range res.Recommendations {
		out.Recommendations = append(out.Recommendations, domain.Recommendation{
			Priority:    priority(r.Priority),
			Title:       r.Title,
			Description: r.Description,
			Action:      r.Action,
		})
	}

	return out
}

func targetType(t string, requested domain.TargetType) domain.TargetType {
	switch domain.TargetType(t) {
	case domain.TargetIPv4, domain.TargetIPv6, domain.TargetASN:
		return domain.TargetType(t)
	default:
		return requested
	}
}

func riskLevel(s string) domain.RiskLevel {
	switch domain.RiskLevel(s) {
	case domain.RiskHigh, domain.RiskMedium:
		return domain.RiskLevel(s)
	default:
		return domain.RiskLow
	}
}

func reputationStatus(s string) domain.ReputationStatus {
	switch domain.ReputationStatus(s) {
	case domain.ReputationSuspicious, domain.ReputationMalicious:
		return domain.ReputationStatus(s)
	default:
		return domain.ReputationClean
	}
}

func priority(s string) domain.Priority {
	switch domain.Priority(s) {
	case domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow:
		return domain.Priority(s)
	default:
		return domain.PriorityInfo
	}
}

func clamp(n int) int {
	return min(max(n, 0), 100)
}
