package analysis

import (
	"math"

	"ipinsight/pkg/domain"
)

const (
	reputationWeight = 0.4
	servicesWeight   = 0.3
	baseWeight       = 0.2
	geoWeight        = 0.1

	// baseScore stands in for factors that are not computed yet.
	baseScore = 80
	// geoScore is the geographic context factor for known countries.
	geoScore = 90
)

// ScoreInput holds the parts of an analysis the security score is computed
// from. Geolocation is accepted but does not influence the score yet.
type ScoreInput struct {
	Reputation  []domain.Reputation
	Services    []domain.Service
	Geolocation domain.Geolocation
}

// SecurityScore computes the weighted 0..100 composite score:
//
//	round(clamp(0.4*reputation + 0.3*services + 0.2*80 + 0.1*90))
//
// An empty reputation list contributes 0 and an empty service list
// contributes 100.
func SecurityScore(in ScoreInput) int {
	score := reputationWeight*reputationFactor(in.Reputation) +
		servicesWeight*servicesFactor(in.Services) +
		baseWeight*baseScore +
		geoWeight*geoScore

	return int(math.Round(max(0, min(100, score))))
}

func reputationFactor(reps []domain.Reputation) float64 {
	if len(reps) == 0 {
		return 0
	}

	sum := 0.0
	for _, r := range reps {
		sum += statusWeight(r.Status) * float64(r.Confidence) / 100
	}

	return sum / float64(len(reps))
}

func statusWeight(s domain.ReputationStatus) float64 {
	switch s {
	case domain.ReputationClean:
		return 100
	case domain.ReputationSuspicious:
		return 50
	default:
		return 0
	}
}

func servicesFactor(services []domain.Service) float64 {
	if len(services) == 0 {
		return 100
	}

	sum := 0.0
	for _, s := range services {
		switch s.RiskLevel {
		case domain.RiskLow:
			sum += 100
		case domain.RiskMedium:
			sum += 70
		default:
			sum += 30
		}
	}

	return sum / float64(len(services))
}
